// Copyright 2025 achetronic
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package windowservice

import (
	"fmt"
	"slices"

	"github.com/achetronic/model-registry-go/registry"
	"github.com/achetronic/model-registry-go/tokenizer"
)

// TokenizerLoader loads the tokenizer named by a tokenizer config.
// *tokenizer.Service implements it.
type TokenizerLoader interface {
	Load(cfg registry.TokenizerConfig) (tokenizer.Tokenizer, error)
}

// Params carries what a window-service constructor may read.
type Params struct {
	// Deployment is the record being resolved. Hard-coded families ignore
	// its limits; args-driven families read Deployment.WindowServiceSpec.Args.
	Deployment registry.ModelDeployment

	// Registry resolves tokenizer configs by name.
	Registry *registry.Registry

	Tokenizers TokenizerLoader
}

// Args returns the window service construction args.
func (p Params) Args() map[string]any {
	return p.Deployment.WindowServiceSpec.Args
}

// Tokenizer resolves a tokenizer config by name and loads it.
func (p Params) Tokenizer(name string) (registry.TokenizerConfig, tokenizer.Tokenizer, error) {
	cfg, err := p.Registry.TokenizerConfig(name)
	if err != nil {
		return registry.TokenizerConfig{}, nil, err
	}
	tok, err := p.Tokenizers.Load(cfg)
	if err != nil {
		return registry.TokenizerConfig{}, nil, fmt.Errorf("failed to load tokenizer %q: %w", name, err)
	}
	return cfg, tok, nil
}

// Constructor builds a window service.
type Constructor func(p Params) (WindowService, error)

// Factory creates window services by implementation identifier.
type Factory struct {
	constructors map[string]Constructor
}

// NewFactory returns a factory holding every hard-coded family plus the
// "huggingface" and "catwalk" families.
func NewFactory() *Factory {
	f := &Factory{constructors: make(map[string]Constructor)}
	for id, limits := range families {
		f.Register(id, profileConstructor(id, limits))
	}
	f.Register("huggingface", newHuggingFace)
	f.Register("catwalk", newCatwalk)
	return f
}

func profileConstructor(implementation string, limits Limits) Constructor {
	return func(p Params) (WindowService, error) {
		_, tok, err := p.Tokenizer(limits.TokenizerName)
		if err != nil {
			return nil, err
		}
		return New(implementation, limits, tok), nil
	}
}

// Register adds or replaces the constructor for an implementation.
func (f *Factory) Register(implementation string, c Constructor) {
	f.constructors[implementation] = c
}

// Create builds the window service for p.Deployment. An unregistered
// implementation yields a *registry.UnknownImplementationError.
func (f *Factory) Create(p Params) (WindowService, error) {
	id := p.Deployment.WindowServiceSpec.Implementation
	c, ok := f.constructors[id]
	if !ok {
		return nil, &registry.UnknownImplementationError{Family: registry.FamilyWindowService, Implementation: id}
	}
	if p.Registry == nil || p.Tokenizers == nil {
		return nil, fmt.Errorf("window service %q requires a registry and a tokenizer loader", id)
	}
	ws, err := c(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create window service %q for %s: %w", id, p.Deployment.Name, err)
	}
	return ws, nil
}

// Implementations returns the registered identifiers, sorted.
func (f *Factory) Implementations() []string {
	ids := make([]string, 0, len(f.constructors))
	for id := range f.constructors {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
