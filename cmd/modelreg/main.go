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

// Command modelreg inspects, validates and exercises the model registry.
//
// # Usage
//
//	modelreg list --prefix openai/
//	modelreg describe openai/gpt-4-0613
//	modelreg validate --all
//	modelreg validate --file extra-models.yaml
//	modelreg request simple/model1 "1 2 3"
//	modelreg schema
//	modelreg mcp
//
// # Environment Variables
//
//   - MODELREG_CACHE_DIR: tokenizer and request cache directory (default: a temporary directory)
//   - MODELREG_CACHE_BACKEND: request cache backend, one of memory, filesystem, redis, postgres
//   - REDIS_ADDR, REDIS_PASSWORD: redis request cache
//   - POSTGRES_DSN: postgres request cache
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP/HTTP collector host:port, enables tracing
//   - OPENAI_API_KEY, ANTHROPIC_API_KEY, GOOGLE_API_KEY, ...: provider credentials
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Build information, set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := buildRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command execution failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
