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

// Package mcpserver serves the model registry tools over the Model Context
// Protocol.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/achetronic/model-registry-go/resolver"
	toolsregistry "github.com/achetronic/model-registry-go/tools/registry"
)

// Config holds configuration for the MCP server.
type Config struct {
	// Catalog answers the tool calls. Required.
	Catalog toolsregistry.Catalog

	// Name defaults to "model-registry".
	Name string
	// Version defaults to "dev".
	Version string
}

// New creates an MCP server exposing list_model_deployments and
// describe_model_deployment.
func New(cfg Config) (*mcp.Server, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if cfg.Name == "" {
		cfg.Name = "model-registry"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	server := mcp.NewServer(&mcp.Implementation{Name: cfg.Name, Version: cfg.Version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_model_deployments",
		Description: "List registered model deployments, optionally filtered by a name prefix such as 'openai/'.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, args toolsregistry.ListArgs) (*mcp.CallToolResult, toolsregistry.ListResult, error) {
		result, err := toolsregistry.List(cfg.Catalog, args)
		return nil, result, err
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "describe_model_deployment",
		Description: "Describe one model deployment by exact name, including the effective context-window values.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, args toolsregistry.DescribeArgs) (*mcp.CallToolResult, resolver.Description, error) {
		desc, err := toolsregistry.Describe(cfg.Catalog, args)
		return nil, desc, err
	})

	return server, nil
}

// ServeStdio runs the server over stdin/stdout until ctx is done or the
// client disconnects.
func ServeStdio(ctx context.Context, server *mcp.Server) error {
	slog.Info("MCPServer: serving over stdio")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("failed to serve MCP over stdio: %w", err)
	}
	return nil
}
