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
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries as JSON strings in Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

// RedisCacheConfig holds configuration for RedisCache.
type RedisCacheConfig struct {
	// Addr is the Redis server address (e.g., "localhost:6379")
	Addr string
	// Password for Redis authentication (optional)
	Password string
	// DB is the Redis database number
	DB int
	// Prefix is prepended to every key (default: "modelcache")
	Prefix string
	// TTL is the entry expiration time. Zero keeps entries forever.
	TTL time.Duration
}

// NewRedisCache creates a Redis-backed cache and checks the connection.
func NewRedisCache(cfg RedisCacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "modelcache"
	}

	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    cfg.TTL,
	}, nil
}

func (c *RedisCache) entryKey(key string) string {
	return fmt.Sprintf("%s:%s", c.prefix, key)
}

// Get implements Cache. Concurrent misses may compute twice; the first
// writer wins and later writers keep its value.
func (c *RedisCache) Get(ctx context.Context, key string, fn Compute) (map[string]any, bool, error) {
	data, err := c.client.Get(ctx, c.entryKey(key)).Bytes()
	switch {
	case err == nil:
		var value map[string]any
		if err := json.Unmarshal(data, &value); err != nil {
			return nil, false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
		}
		return value, true, nil
	case !errors.Is(err, redis.Nil):
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	value, err := compute(ctx, fn)
	if err != nil {
		return nil, false, err
	}
	value, data, err = roundTrip(value)
	if err != nil {
		return nil, false, err
	}
	if err := c.client.SetNX(ctx, c.entryKey(key), data, c.ttl).Err(); err != nil {
		return nil, false, fmt.Errorf("failed to write cache entry: %w", err)
	}
	return value, false, nil
}

// Delete removes an entry.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.entryKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
