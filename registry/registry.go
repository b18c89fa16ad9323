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

// Package registry holds the declarative model-deployment and tokenizer-config
// tables that map a model name to its client, tokenizer and context-window
// policy.
//
// Registries are populated once, before any resolution happens, and are
// read-only afterwards. They carry no locks: callers must finish every
// Register call before sharing a Registry between goroutines.
//
// Usage:
//
//	reg, err := registry.NewBuiltin()
//	if err != nil { ... }
//	if f, err := registry.LoadFile("extra.yaml"); err == nil {
//	    err = reg.Merge(f)
//	}
//	d, ok := reg.Deployments.Lookup("openai/davinci")
package registry

import "fmt"

// orderedRegistry is an insert-once, name-keyed collection that preserves
// registration order.
type orderedRegistry[T any] struct {
	kind  string
	name  func(T) string
	index map[string]int
	items []T
}

func newOrderedRegistry[T any](kind string, name func(T) string) orderedRegistry[T] {
	return orderedRegistry[T]{
		kind:  kind,
		name:  name,
		index: make(map[string]int),
	}
}

func (r *orderedRegistry[T]) register(item T) error {
	key := r.name(item)
	if _, exists := r.index[key]; exists {
		return &DuplicateRegistrationError{Kind: r.kind, Name: key}
	}
	r.index[key] = len(r.items)
	r.items = append(r.items, item)
	return nil
}

func (r *orderedRegistry[T]) lookup(key string) (T, bool) {
	i, ok := r.index[key]
	if !ok {
		var zero T
		return zero, false
	}
	return r.items[i], true
}

func (r *orderedRegistry[T]) all() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

func (r *orderedRegistry[T]) names() []string {
	out := make([]string, len(r.items))
	for i, item := range r.items {
		out[i] = r.name(item)
	}
	return out
}

// DeploymentRegistry is the ordered collection of model deployments.
type DeploymentRegistry struct {
	entries orderedRegistry[ModelDeployment]
}

// NewDeploymentRegistry creates an empty deployment registry.
func NewDeploymentRegistry() *DeploymentRegistry {
	return &DeploymentRegistry{
		entries: newOrderedRegistry("model deployment", func(d ModelDeployment) string { return d.Name }),
	}
}

// Register validates and inserts a deployment. It fails with a
// *DuplicateRegistrationError when the name is taken.
func (r *DeploymentRegistry) Register(d ModelDeployment) error {
	if err := d.Validate(); err != nil {
		return err
	}
	return r.entries.register(d)
}

// Lookup returns the deployment registered under name.
func (r *DeploymentRegistry) Lookup(name string) (ModelDeployment, bool) {
	return r.entries.lookup(name)
}

// All returns every deployment in registration order.
func (r *DeploymentRegistry) All() []ModelDeployment { return r.entries.all() }

// Names returns every deployment name in registration order.
func (r *DeploymentRegistry) Names() []string { return r.entries.names() }

// Len returns the number of registered deployments.
func (r *DeploymentRegistry) Len() int { return len(r.entries.items) }

// TokenizerRegistry is the ordered collection of tokenizer configs.
type TokenizerRegistry struct {
	entries orderedRegistry[TokenizerConfig]
}

// NewTokenizerRegistry creates an empty tokenizer registry.
func NewTokenizerRegistry() *TokenizerRegistry {
	return &TokenizerRegistry{
		entries: newOrderedRegistry("tokenizer config", func(c TokenizerConfig) string { return c.Name }),
	}
}

// Register validates and inserts a tokenizer config. It fails with a
// *DuplicateRegistrationError when the name is taken.
func (r *TokenizerRegistry) Register(c TokenizerConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return r.entries.register(c)
}

// Lookup returns the tokenizer config registered under name.
func (r *TokenizerRegistry) Lookup(name string) (TokenizerConfig, bool) {
	return r.entries.lookup(name)
}

// All returns every tokenizer config in registration order.
func (r *TokenizerRegistry) All() []TokenizerConfig { return r.entries.all() }

// Names returns every tokenizer name in registration order.
func (r *TokenizerRegistry) Names() []string { return r.entries.names() }

// Len returns the number of registered tokenizer configs.
func (r *TokenizerRegistry) Len() int { return len(r.entries.items) }

// Registry bundles the deployment and tokenizer registries. It is the handle
// passed to resolvers and validators.
type Registry struct {
	Deployments *DeploymentRegistry
	Tokenizers  *TokenizerRegistry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		Deployments: NewDeploymentRegistry(),
		Tokenizers:  NewTokenizerRegistry(),
	}
}

// Deployment returns the deployment registered under name, or an
// *UnknownModelError.
func (r *Registry) Deployment(name string) (ModelDeployment, error) {
	d, ok := r.Deployments.Lookup(name)
	if !ok {
		return ModelDeployment{}, &UnknownModelError{Name: name}
	}
	return d, nil
}

// TokenizerConfig returns the tokenizer config registered under name, or an
// *UnknownTokenizerError.
func (r *Registry) TokenizerConfig(name string) (TokenizerConfig, error) {
	c, ok := r.Tokenizers.Lookup(name)
	if !ok {
		return TokenizerConfig{}, &UnknownTokenizerError{Name: name}
	}
	return c, nil
}

// Merge registers every entry of f, tokenizer configs first. It stops at the
// first failure; entries registered before the failure stay registered, so
// callers treat the error as fatal.
func (r *Registry) Merge(f *File) error {
	for _, c := range f.TokenizerConfigs {
		if err := r.Tokenizers.Register(c); err != nil {
			return err
		}
	}
	for _, d := range f.ModelDeployments {
		if err := r.Deployments.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// CheckReferences verifies that every deployment's tokenizer name resolves
// to a registered tokenizer config.
func (r *Registry) CheckReferences() error {
	for _, d := range r.Deployments.entries.items {
		if _, ok := r.Tokenizers.Lookup(d.TokenizerName); !ok {
			return fmt.Errorf("model deployment %q references missing tokenizer: %w", d.Name, &UnknownTokenizerError{Name: d.TokenizerName})
		}
	}
	return nil
}
