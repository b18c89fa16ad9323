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

// Package registry exposes the model registry to ADK agents as a toolset.
package registry

import (
	"fmt"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/achetronic/model-registry-go/resolver"
)

// Catalog lists and describes deployments. *resolver.Resolver implements it.
type Catalog interface {
	List(prefix string) []resolver.Summary
	Describe(name string) (resolver.Description, error)
}

// Toolset provides tools for an agent to inspect the model registry.
type Toolset struct {
	catalog Catalog
	tools   []tool.Tool
}

// ToolsetConfig holds configuration for the registry toolset.
type ToolsetConfig struct {
	Catalog Catalog
	// DefaultLimit caps list results when the caller sets no limit.
	// Defaults to 50.
	DefaultLimit int
}

const defaultLimit = 50

// NewToolset creates a new toolset for registry lookups.
func NewToolset(cfg ToolsetConfig) (*Toolset, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("Catalog is required")
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaultLimit
	}

	ts := &Toolset{catalog: cfg.Catalog}
	h := handlers{catalog: cfg.Catalog, defaultLimit: cfg.DefaultLimit}

	listTool, err := functiontool.New(
		functiontool.Config{
			Name:        "list_model_deployments",
			Description: "List registered model deployments, optionally filtered by a name prefix such as 'openai/'. Returns each deployment's client, window service, tokenizer and length limits.",
		},
		func(_ tool.Context, args ListArgs) (ListResult, error) { return h.list(args) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create list_model_deployments tool: %w", err)
	}

	describeTool, err := functiontool.New(
		functiontool.Config{
			Name:        "describe_model_deployment",
			Description: "Describe one model deployment by exact name: its declared record, its tokenizer config and the effective context-window values its window service reports.",
		},
		func(_ tool.Context, args DescribeArgs) (resolver.Description, error) { return h.describe(args) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create describe_model_deployment tool: %w", err)
	}

	ts.tools = []tool.Tool{listTool, describeTool}
	return ts, nil
}

// Name returns the name of the toolset.
func (ts *Toolset) Name() string {
	return "model_registry_toolset"
}

// Tools returns the registry tools.
func (ts *Toolset) Tools(ctx agent.ReadonlyContext) ([]tool.Tool, error) {
	return ts.tools, nil
}

var _ tool.Toolset = (*Toolset)(nil)

// ListArgs are the arguments for list_model_deployments.
type ListArgs struct {
	// Prefix filters deployment names; empty lists everything.
	Prefix string `json:"prefix,omitempty"`
	// Limit caps the number of results.
	Limit int `json:"limit,omitempty"`
}

// ListResult is the result of list_model_deployments.
type ListResult struct {
	Deployments []resolver.Summary `json:"deployments"`
	// Total is the number of matches before the limit was applied.
	Total int `json:"total"`
}

// DescribeArgs are the arguments for describe_model_deployment.
type DescribeArgs struct {
	Name string `json:"name"`
}

// handlers hold the tool logic apart from the ADK wiring so the MCP server
// can serve the same results.
type handlers struct {
	catalog      Catalog
	defaultLimit int
}

func (h handlers) list(args ListArgs) (ListResult, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = h.defaultLimit
	}
	all := h.catalog.List(args.Prefix)
	deployments := all
	if len(deployments) > limit {
		deployments = deployments[:limit]
	}
	if deployments == nil {
		deployments = []resolver.Summary{}
	}
	return ListResult{Deployments: deployments, Total: len(all)}, nil
}

func (h handlers) describe(args DescribeArgs) (resolver.Description, error) {
	if args.Name == "" {
		return resolver.Description{}, fmt.Errorf("name cannot be empty")
	}
	desc, err := h.catalog.Describe(args.Name)
	if err != nil {
		return resolver.Description{}, fmt.Errorf("failed to describe %s: %w", args.Name, err)
	}
	return desc, nil
}

// List runs list_model_deployments outside ADK.
func List(catalog Catalog, args ListArgs) (ListResult, error) {
	return handlers{catalog: catalog, defaultLimit: defaultLimit}.list(args)
}

// Describe runs describe_model_deployment outside ADK.
func Describe(catalog Catalog, args DescribeArgs) (resolver.Description, error) {
	return handlers{catalog: catalog, defaultLimit: defaultLimit}.describe(args)
}
