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
	"github.com/spf13/cobra"

	"github.com/achetronic/model-registry-go/cache"
)

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "modelreg",
		Short: "Inspect, validate and exercise the model registry",
		Long: `modelreg works on the built-in model deployment and tokenizer tables,
optionally extended with YAML or JSON5 registry files.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Log at debug level")
	flags.StringSliceVarP(&a.opts.files, "file", "f", nil, "Registry file merged over the built-in tables (repeatable)")
	flags.BoolVar(&a.opts.noBuiltin, "no-builtin", false, "Start from an empty registry instead of the built-in tables")
	flags.StringVar(&a.opts.cacheDir, "cache-dir", getEnvOrDefault("MODELREG_CACHE_DIR", ""), "Tokenizer and request cache directory (default: temporary)")
	flags.StringVar(&a.opts.cacheBackend, "cache-backend", getEnvOrDefault("MODELREG_CACHE_BACKEND", cache.BackendFilesystem), "Request cache backend: memory, filesystem, redis or postgres")
	flags.StringVar(&a.opts.redisAddr, "redis-addr", getEnvOrDefault("REDIS_ADDR", "localhost:6379"), "Redis address for the redis cache backend")
	flags.StringVar(&a.opts.postgresDSN, "postgres-dsn", getEnvOrDefault("POSTGRES_DSN", ""), "Postgres DSN for the postgres cache backend")
	flags.StringVar(&a.opts.otelEndpoint, "otel-endpoint", getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""), "OTLP/HTTP collector host:port; empty disables tracing")
	flags.BoolVar(&a.opts.otelInsecure, "otel-insecure", false, "Export traces over plain HTTP")

	rootCmd.AddCommand(
		buildValidateCmd(a),
		buildListCmd(a),
		buildDescribeCmd(a),
		buildSchemaCmd(a),
		buildRequestCmd(a),
		buildMCPCmd(a),
	)
	return rootCmd
}

func buildValidateCmd(a *app) *cobra.Command {
	var (
		all         bool
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that the registry tables match the live implementations",
		Long: `Resolve every registered model and compare the declared records with the
values its client, window service and tokenizer report.

By default validation stops at the first violation. With --all every model
is checked concurrently and a full report is printed.`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd, all, concurrency)
		}),
	}
	cmd.Flags().BoolVar(&all, "all", false, "Check every model and report all violations")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Models checked in parallel with --all (default: GOMAXPROCS)")
	return cmd
}

func buildListCmd(a *app) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List model deployments",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, prefix)
		}),
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Only list names starting with this prefix")
	return cmd
}

func buildDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <model>",
		Short: "Show a deployment, its tokenizer and its effective window values",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			return a.runDescribe(cmd, args[0])
		}),
	}
}

func buildSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of registry files",
		Args:  cobra.NoArgs,
		RunE:  a.run(runSchema),
	}
}

func buildRequestCmd(a *app) *cobra.Command {
	var req requestFlags
	cmd := &cobra.Command{
		Use:   "request <model> <prompt>",
		Short: "Send a completion request through the model's client",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			return a.runRequest(cmd, args[0], args[1], req)
		}),
	}
	cmd.Flags().IntVarP(&req.numCompletions, "num-completions", "n", 1, "Number of completions")
	cmd.Flags().IntVar(&req.maxTokens, "max-tokens", 0, "Maximum generated tokens (default: provider default)")
	cmd.Flags().Float64Var(&req.temperature, "temperature", 0, "Sampling temperature")
	cmd.Flags().StringSliceVar(&req.stop, "stop", nil, "Stop sequence (repeatable)")
	cmd.Flags().IntVar(&req.topLogprobs, "top-logprobs", 0, "Alternatives returned per token")
	return cmd
}

func buildMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the registry tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			return a.runMCP(cmd)
		}),
	}
}
