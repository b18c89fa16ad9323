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
	"log/slog"
	"os"
	"sync"

	"github.com/achetronic/model-registry-go/registry"
)

// ServiceConfig holds configuration for a tokenizer Service.
type ServiceConfig struct {
	// CacheDir is where on-disk state lives (tokenizer and request caches).
	// Required.
	CacheDir string

	// Factory creates tokenizers. Defaults to NewFactory().
	Factory *Factory
}

// Service loads tokenizers and keeps one instance per config name. It is
// safe for concurrent use.
type Service struct {
	cacheDir string
	factory  *Factory

	mu     sync.Mutex
	loaded map[string]Tokenizer
}

// NewService creates a Service, creating the cache directory if needed.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if cfg.Factory == nil {
		cfg.Factory = NewFactory()
	}
	return &Service{
		cacheDir: cfg.CacheDir,
		factory:  cfg.Factory,
		loaded:   make(map[string]Tokenizer),
	}, nil
}

// NewTempService creates a Service rooted in a fresh temporary directory.
// The returned cleanup func removes the directory; call it when done.
func NewTempService() (*Service, func(), error) {
	dir, err := os.MkdirTemp("", "model-registry-*")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create temporary cache directory: %w", err)
	}
	s, err := NewService(ServiceConfig{CacheDir: dir})
	if err != nil {
		os.RemoveAll(dir)
		return nil, nil, err
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("Tokenizer: failed to remove temporary cache directory", "dir", dir, "error", err)
		}
	}
	return s, cleanup, nil
}

// CacheDir returns the directory holding the service's on-disk state.
func (s *Service) CacheDir() string { return s.cacheDir }

// Load returns the tokenizer for cfg, creating it on first use.
func (s *Service) Load(cfg registry.TokenizerConfig) (Tokenizer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.loaded[cfg.Name]; ok {
		return t, nil
	}
	t, err := s.factory.Create(cfg.Name, cfg.TokenizerSpec)
	if err != nil {
		return nil, err
	}
	s.loaded[cfg.Name] = t
	slog.Debug("Tokenizer: loaded", "name", cfg.Name, "implementation", cfg.TokenizerSpec.Implementation)
	return t, nil
}
