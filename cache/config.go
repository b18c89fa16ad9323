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

import "fmt"

// Backend names accepted by New.
const (
	BackendMemory     = "memory"
	BackendFilesystem = "filesystem"
	BackendRedis      = "redis"
	BackendPostgres   = "postgres"
)

// Config selects and configures a cache backend.
type Config struct {
	// Backend is one of the Backend* names (default: memory).
	Backend string

	Filesystem FilesystemCacheConfig
	Redis      RedisCacheConfig
	Postgres   PostgresCacheConfig
}

// New creates the configured cache backend.
func New(cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryCache(), nil
	case BackendFilesystem:
		return backend(NewFilesystemCache(cfg.Filesystem))
	case BackendRedis:
		return backend(NewRedisCache(cfg.Redis))
	case BackendPostgres:
		return backend(NewPostgresCache(cfg.Postgres))
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// backend keeps a failed constructor from returning a typed nil Cache.
func backend[C Cache](c C, err error) (Cache, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}
