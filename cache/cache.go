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

// Package cache stores request results keyed by request contents, so that a
// repeated request is answered without calling the model again.
//
// Backends:
//   - memory: process-local map
//   - filesystem: one JSON file per key under a base directory
//   - redis: string keys with an optional TTL
//   - postgres: one row per key in a JSONB table
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Compute produces the value stored for a key on a cache miss.
type Compute func(ctx context.Context) (map[string]any, error)

// Cache returns the stored value for key, or runs compute and stores its
// result. The boolean reports whether the value came from the cache.
type Cache interface {
	Get(ctx context.Context, key string, compute Compute) (map[string]any, bool, error)
	Close() error
}

// Key derives a stable cache key from a JSON-encodable request. Map keys are
// encoded in sorted order, so equal requests produce equal keys.
func Key(request any) (string, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// compute runs fn and rejects nil results so that a miss is never stored as
// an empty entry.
func compute(ctx context.Context, fn Compute) (map[string]any, error) {
	value, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = map[string]any{}
	}
	return value, nil
}

// roundTrip returns value as it would read back from a JSON-backed store, so
// hits and misses carry the same value shapes.
func roundTrip(value map[string]any) (map[string]any, []byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return out, data, nil
}
