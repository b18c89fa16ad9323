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

package tokenizer

import (
	"fmt"
	"slices"

	"github.com/achetronic/model-registry-go/registry"
)

// Constructor builds a tokenizer for a named config from its spec args.
type Constructor func(name string, args map[string]any) (Tokenizer, error)

// Factory creates tokenizers by implementation identifier.
type Factory struct {
	constructors map[string]Constructor
}

// runesPerToken is the average token width assumed for each built-in
// implementation. Zero keeps whole words.
var runesPerToken = map[string]int{
	"huggingface": 4,
	"tiktoken":    4,
	"ai21":        6,
	"aleph_alpha": 4,
	"anthropic":   4,
	"cohere":      4,
	"http_model":  4,
	"ice":         3,
	"yalm":        3,
	"whitespace":  0,
}

// NewFactory returns a factory with every built-in implementation registered.
func NewFactory() *Factory {
	f := &Factory{constructors: make(map[string]Constructor)}
	for id, width := range runesPerToken {
		f.Register(id, estimatorConstructor(id, width))
	}
	return f
}

// estimatorConstructor honours a "runes_per_token" arg overriding the
// family default.
func estimatorConstructor(implementation string, width int) Constructor {
	return func(name string, args map[string]any) (Tokenizer, error) {
		w := width
		if v, ok := registry.IntArg(args, "runes_per_token"); ok {
			if v < 0 {
				return nil, fmt.Errorf("runes_per_token must not be negative, got %d", v)
			}
			w = v
		}
		return &estimator{name: name, implementation: implementation, runesPerToken: w}, nil
	}
}

// Register adds or replaces the constructor for an implementation.
func (f *Factory) Register(implementation string, c Constructor) {
	f.constructors[implementation] = c
}

// Create builds the tokenizer described by spec. An unregistered
// implementation yields a *registry.UnknownImplementationError.
func (f *Factory) Create(name string, spec registry.TokenizerSpec) (Tokenizer, error) {
	c, ok := f.constructors[spec.Implementation]
	if !ok {
		return nil, &registry.UnknownImplementationError{Family: registry.FamilyTokenizer, Implementation: spec.Implementation}
	}
	t, err := c(name, spec.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer %q: %w", name, err)
	}
	return t, nil
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
