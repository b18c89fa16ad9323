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
	"maps"
	"sync"

	"golang.org/x/sync/singleflight"
)

// MemoryCache keeps entries in process memory. Concurrent misses on the
// same key run compute once.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]map[string]any
	group   singleflight.Group
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]map[string]any)}
}

// Get implements Cache.
func (c *MemoryCache) Get(ctx context.Context, key string, fn Compute) (map[string]any, bool, error) {
	c.mu.RLock()
	value, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return maps.Clone(value), true, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := compute(ctx, fn)
		if err != nil {
			return nil, err
		}
		value, _, err = roundTrip(value)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = value
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return nil, false, err
	}
	return maps.Clone(v.(map[string]any)), false, nil
}

// Len returns the number of stored entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close implements Cache.
func (c *MemoryCache) Close() error { return nil }
