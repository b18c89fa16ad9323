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

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FilesystemCache stores entries as JSON files under:
//
//	{BasePath}/{Namespace}/{key[:2]}/{key}.json
type FilesystemCache struct {
	dir   string
	mu    sync.RWMutex
	group singleflight.Group
}

var _ Cache = (*FilesystemCache)(nil)

// FilesystemCacheConfig holds configuration for FilesystemCache.
type FilesystemCacheConfig struct {
	// BasePath is the root directory for cache storage.
	BasePath string
	// Namespace separates caches sharing a base path (e.g. one per client).
	Namespace string
}

// NewFilesystemCache creates a filesystem-backed cache. The directory is
// created if it does not exist.
func NewFilesystemCache(cfg FilesystemCacheConfig) (*FilesystemCache, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("BasePath is required")
	}
	dir := filepath.Join(cfg.BasePath, cfg.Namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FilesystemCache{dir: dir}, nil
}

func (c *FilesystemCache) entryPath(key string) string {
	shard := key
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return filepath.Join(c.dir, shard, key+".json")
}

func (c *FilesystemCache) read(key string) (map[string]any, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.entryPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	var value map[string]any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return value, true, nil
}

func (c *FilesystemCache) write(key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.entryPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit cache entry: %w", err)
	}
	return nil
}

// Get implements Cache.
func (c *FilesystemCache) Get(ctx context.Context, key string, fn Compute) (map[string]any, bool, error) {
	if key == "" {
		return nil, false, fmt.Errorf("cache key is required")
	}
	if value, ok, err := c.read(key); err != nil || ok {
		return value, ok, err
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := compute(ctx, fn)
		if err != nil {
			return nil, err
		}
		value, data, err := roundTrip(value)
		if err != nil {
			return nil, err
		}
		if err := c.write(key, data); err != nil {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		return nil, false, err
	}
	return maps.Clone(v.(map[string]any)), false, nil
}

// Close implements Cache.
func (c *FilesystemCache) Close() error { return nil }
