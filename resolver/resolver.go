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

// Package resolver turns a model name into the live objects that serve it:
// a client, a window service and a tokenizer.
//
// Resolution reads registries that are frozen after startup and creates
// objects without network I/O, so it is deterministic: resolving the same
// name twice yields objects reporting the same values.
package resolver

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/achetronic/model-registry-go/cache"
	"github.com/achetronic/model-registry-go/client"
	"github.com/achetronic/model-registry-go/registry"
	"github.com/achetronic/model-registry-go/tokenizer"
	"github.com/achetronic/model-registry-go/windowservice"
)

// CacheFactory returns the request cache for a client implementation.
type CacheFactory func(implementation string) (cache.Cache, error)

// Config holds configuration for a Resolver.
type Config struct {
	// Registry holds the deployment and tokenizer tables. Required.
	Registry *registry.Registry

	// Tokenizers loads tokenizers and owns the on-disk cache directory.
	// Required.
	Tokenizers *tokenizer.Service

	// WindowServices defaults to windowservice.NewFactory().
	WindowServices *windowservice.Factory

	// Clients defaults to client.NewFactory().
	Clients *client.Factory

	// Caches defaults to one filesystem cache per implementation under
	// {Tokenizers.CacheDir()}/requests.
	Caches CacheFactory

	Credentials client.Credentials
	HTTPClient  *http.Client
}

// Resolver resolves model names against a registry. It is safe for
// concurrent use.
type Resolver struct {
	registry       *registry.Registry
	tokenizers     *tokenizer.Service
	windowServices *windowservice.Factory
	clients        *client.Factory
	newCache       CacheFactory
	credentials    client.Credentials
	httpClient     *http.Client

	mu     sync.Mutex
	caches map[string]cache.Cache
}

// New creates a Resolver.
func New(cfg Config) (*Resolver, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.Tokenizers == nil {
		return nil, fmt.Errorf("tokenizer service is required")
	}
	if cfg.WindowServices == nil {
		cfg.WindowServices = windowservice.NewFactory()
	}
	if cfg.Clients == nil {
		cfg.Clients = client.NewFactory()
	}
	if cfg.Caches == nil {
		base := filepath.Join(cfg.Tokenizers.CacheDir(), "requests")
		cfg.Caches = func(implementation string) (cache.Cache, error) {
			return cache.NewFilesystemCache(cache.FilesystemCacheConfig{BasePath: base, Namespace: implementation})
		}
	}
	return &Resolver{
		registry:       cfg.Registry,
		tokenizers:     cfg.Tokenizers,
		windowServices: cfg.WindowServices,
		clients:        cfg.Clients,
		newCache:       cfg.Caches,
		credentials:    cfg.Credentials,
		httpClient:     cfg.HTTPClient,
		caches:         make(map[string]cache.Cache),
	}, nil
}

// Registry returns the registry the resolver reads.
func (r *Resolver) Registry() *registry.Registry { return r.registry }

// ResolveWindowService returns the window service of a model. An unknown
// name yields a *registry.UnknownModelError.
func (r *Resolver) ResolveWindowService(name string) (windowservice.WindowService, error) {
	d, err := r.registry.Deployment(name)
	if err != nil {
		return nil, err
	}
	return r.windowServices.Create(windowservice.Params{
		Deployment: d,
		Registry:   r.registry,
		Tokenizers: r.tokenizers,
	})
}

// ResolveClient returns the client of a model. An unknown name yields a
// *registry.UnknownModelError; an unregistered implementation yields an
// error matching registry.ErrUnknownClientImplementation.
func (r *Resolver) ResolveClient(name string) (client.Client, error) {
	d, err := r.registry.Deployment(name)
	if err != nil {
		return nil, err
	}
	c, err := r.cacheFor(d.ClientSpec.Implementation)
	if err != nil {
		return nil, err
	}
	return r.clients.Create(client.Params{
		Deployment:  d,
		Cache:       c,
		Credentials: r.credentials,
		HTTPClient:  r.httpClient,
	})
}

// ResolveTokenizer returns a tokenizer by tokenizer config name. An unknown
// name yields a *registry.UnknownTokenizerError.
func (r *Resolver) ResolveTokenizer(name string) (tokenizer.Tokenizer, error) {
	cfg, err := r.registry.TokenizerConfig(name)
	if err != nil {
		return nil, err
	}
	return r.tokenizers.Load(cfg)
}

// cacheFor returns the shared request cache of an implementation, creating
// it on first use.
func (r *Resolver) cacheFor(implementation string) (cache.Cache, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.caches[implementation]; ok {
		return c, nil
	}
	c, err := r.newCache(implementation)
	if err != nil {
		return nil, fmt.Errorf("failed to create request cache for %s: %w", implementation, err)
	}
	r.caches[implementation] = c
	return c, nil
}

// Close closes every request cache the resolver opened.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for id, c := range r.caches {
		if err := c.Close(); err != nil {
			slog.Warn("Resolver: failed to close request cache", "implementation", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	clear(r.caches)
	return firstErr
}
