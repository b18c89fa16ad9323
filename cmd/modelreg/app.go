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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/achetronic/model-registry-go/cache"
	"github.com/achetronic/model-registry-go/client"
	"github.com/achetronic/model-registry-go/registry"
	"github.com/achetronic/model-registry-go/resolver"
	"github.com/achetronic/model-registry-go/telemetry"
	"github.com/achetronic/model-registry-go/tokenizer"
)

type options struct {
	verbose      bool
	files        []string
	noBuiltin    bool
	cacheDir     string
	cacheBackend string
	redisAddr    string
	postgresDSN  string
	otelEndpoint string
	otelInsecure bool
}

// app carries the flag values and the state built from them across one
// command execution.
type app struct {
	opts options

	shutdownTracing telemetry.ShutdownFunc

	resolver *resolver.Resolver
	cleanups []func()
}

// setup configures logging and tracing before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if a.opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	_, shutdown, err := telemetry.Setup(cmd.Context(), telemetry.Config{
		ServiceName:    "modelreg",
		ServiceVersion: version,
		Endpoint:       a.opts.otelEndpoint,
		Insecure:       a.opts.otelInsecure,
	})
	if err != nil {
		return err
	}
	a.shutdownTracing = shutdown
	return nil
}

// run wraps a command handler so teardown runs whether or not it fails.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.teardown(cmd)
		return fn(cmd, args)
	}
}

// teardown releases everything setup and openResolver created.
func (a *app) teardown(cmd *cobra.Command) {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
	a.resolver = nil
	if a.shutdownTracing == nil {
		return
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.shutdownTracing(ctx); err != nil {
		slog.Warn("modelreg: failed to flush traces", "error", err)
	}
	a.shutdownTracing = nil
}

// loadRegistry builds the registry from the built-in tables and the
// --file documents, in that order.
func (a *app) loadRegistry() (*registry.Registry, error) {
	reg := registry.New()
	if !a.opts.noBuiltin {
		var err error
		if reg, err = registry.NewBuiltin(); err != nil {
			return nil, err
		}
	}
	for _, path := range a.opts.files {
		f, err := registry.LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := reg.Merge(f); err != nil {
			return nil, fmt.Errorf("failed to merge %s: %w", path, err)
		}
		slog.Debug("modelreg: merged registry file", "path", path,
			"deployments", len(f.ModelDeployments), "tokenizers", len(f.TokenizerConfigs))
	}
	if err := reg.CheckReferences(); err != nil {
		return nil, err
	}
	return reg, nil
}

// openResolver builds the resolver once per execution.
func (a *app) openResolver() (*resolver.Resolver, error) {
	if a.resolver != nil {
		return a.resolver, nil
	}
	reg, err := a.loadRegistry()
	if err != nil {
		return nil, err
	}

	var tokenizers *tokenizer.Service
	if a.opts.cacheDir == "" {
		var cleanup func()
		tokenizers, cleanup, err = tokenizer.NewTempService()
		if err != nil {
			return nil, err
		}
		a.cleanups = append(a.cleanups, cleanup)
	} else {
		tokenizers, err = tokenizer.NewService(tokenizer.ServiceConfig{CacheDir: a.opts.cacheDir})
		if err != nil {
			return nil, err
		}
	}

	caches, closeCaches := a.cacheFactory(tokenizers.CacheDir())
	res, err := resolver.New(resolver.Config{
		Registry:    reg,
		Tokenizers:  tokenizers,
		Caches:      caches,
		Credentials: client.CredentialsFromEnv(getEnvOrDefaultFunc),
	})
	if err != nil {
		closeCaches()
		return nil, err
	}
	a.cleanups = append(a.cleanups, closeCaches, func() {
		if err := res.Close(); err != nil {
			slog.Warn("modelreg: failed to close resolver", "error", err)
		}
	})
	a.resolver = res
	return res, nil
}

// cacheFactory returns the request cache factory of the selected backend.
// The filesystem backend gets one namespace per implementation; the other
// backends share one connection whose lifetime the returned close func owns.
func (a *app) cacheFactory(cacheDir string) (resolver.CacheFactory, func()) {
	if a.opts.cacheBackend == cache.BackendFilesystem {
		base := filepath.Join(cacheDir, "requests")
		return func(implementation string) (cache.Cache, error) {
			return cache.New(cache.Config{
				Backend:    cache.BackendFilesystem,
				Filesystem: cache.FilesystemCacheConfig{BasePath: base, Namespace: implementation},
			})
		}, func() {}
	}

	var (
		once   sync.Once
		shared cache.Cache
		err    error
	)
	factory := func(string) (cache.Cache, error) {
		once.Do(func() {
			shared, err = cache.New(cache.Config{
				Backend:  a.opts.cacheBackend,
				Redis:    cache.RedisCacheConfig{Addr: a.opts.redisAddr, Password: getEnvOrDefault("REDIS_PASSWORD", "")},
				Postgres: cache.PostgresCacheConfig{DSN: a.opts.postgresDSN},
			})
		})
		if err != nil {
			return nil, err
		}
		return unclosable{shared}, nil
	}
	closeShared := func() {
		if shared == nil {
			return
		}
		if err := shared.Close(); err != nil {
			slog.Warn("modelreg: failed to close request cache", "backend", a.opts.cacheBackend, "error", err)
		}
	}
	return factory, closeShared
}

// unclosable hands a shared cache to the resolver without letting it close
// the shared connection.
type unclosable struct {
	cache.Cache
}

func (unclosable) Close() error { return nil }

func getEnvOrDefaultFunc(key string) string {
	return getEnvOrDefault(key, "")
}
