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

// Package windowguard implements an ADK plugin that keeps every model call
// within the request budget of a registry deployment. Before each call it
// resolves the agent's window service, counts the request with that
// service's tokenizer and, when the request does not fit, drops the oldest
// conversation turns until it does.
//
// Tool calls and their responses are dropped together, so the model never
// sees a function response without the call that produced it. A trailing
// call and response pair is never dropped. When the remaining turns are
// still too long, the last text part of the request is truncated.
//
// Usage:
//
//	guard := windowguard.New(res)
//	if err := guard.Add("assistant", "openai/gpt-4-0613"); err != nil { ... }
//	pluginCfg, err := guard.PluginConfig()
//
//	runnr, _ := runner.New(runner.Config{
//	    Agent:        myAgent,
//	    PluginConfig: pluginCfg,
//	})
package windowguard

import (
	"fmt"
	"log/slog"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/plugin"
	"google.golang.org/adk/runner"

	"github.com/achetronic/model-registry-go/windowservice"
)

const stateKeyPrefixTrimmed = "__window_guard_trimmed_"

// WindowResolver resolves a model name to its window service.
// *resolver.Resolver implements it.
type WindowResolver interface {
	ResolveWindowService(name string) (windowservice.WindowService, error)
}

// AgentOption configures per-agent behavior when calling Add.
type AgentOption func(*agentConfig)

type agentConfig struct {
	completionTokens int
}

// WithCompletionTokens reserves room for n generated tokens. Without it the
// request's MaxOutputTokens is reserved, or nothing when that is unset.
func WithCompletionTokens(n int) AgentOption {
	return func(c *agentConfig) {
		c.completionTokens = n
	}
}

// Guard accumulates per-agent window services and produces a single
// runner.PluginConfig.
type Guard struct {
	resolver WindowResolver
	agents   map[string]*agentWindow
}

type agentWindow struct {
	model            string
	window           windowservice.WindowService
	completionTokens int
}

// New creates a Guard backed by the given resolver.
func New(resolver WindowResolver) *Guard {
	return &Guard{
		resolver: resolver,
		agents:   make(map[string]*agentWindow),
	}
}

// Add binds an agent to a registry model. The model's window service is
// resolved once, here.
func (g *Guard) Add(agentID, modelName string, opts ...AgentOption) error {
	cfg := &agentConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	ws, err := g.resolver.ResolveWindowService(modelName)
	if err != nil {
		return fmt.Errorf("failed to resolve window service for agent %s: %w", agentID, err)
	}
	g.agents[agentID] = &agentWindow{model: modelName, window: ws, completionTokens: cfg.completionTokens}

	slog.Info("WindowGuard: agent configured",
		"agent", agentID,
		"model", modelName,
		"window", ws.Implementation(),
		"maxRequestLength", ws.MaxRequestLength(),
	)
	return nil
}

// PluginConfig returns a runner.PluginConfig ready to pass to the ADK
// launcher or runner.
func (g *Guard) PluginConfig() (runner.PluginConfig, error) {
	p, err := plugin.New(plugin.Config{
		Name:                "window_guard",
		BeforeModelCallback: llmagent.BeforeModelCallback(g.beforeModel),
	})
	if err != nil {
		return runner.PluginConfig{}, fmt.Errorf("failed to create window guard plugin: %w", err)
	}
	return runner.PluginConfig{Plugins: []*plugin.Plugin{p}}, nil
}

// beforeModel trims the request of a registered agent in place. It never
// short-circuits the model call.
func (g *Guard) beforeModel(ctx agent.CallbackContext, req *model.LLMRequest) (*model.LLMResponse, error) {
	if req == nil || len(req.Contents) == 0 {
		return nil, nil
	}
	aw, ok := g.agents[ctx.AgentName()]
	if !ok {
		return nil, nil
	}

	completion := aw.completionTokens
	if completion == 0 && req.Config != nil {
		completion = int(req.Config.MaxOutputTokens)
	}

	before := len(req.Contents)
	dropped, truncated := fit(aw.window, req, completion)
	if dropped == 0 && !truncated {
		return nil, nil
	}

	total := loadTrimmed(ctx) + dropped
	persistTrimmed(ctx, total)

	slog.Info("WindowGuard: request trimmed to fit window",
		"agent", ctx.AgentName(),
		"session", ctx.SessionID(),
		"model", aw.model,
		"contentsBefore", before,
		"contentsAfter", len(req.Contents),
		"truncated", truncated,
		"tokens", aw.window.CountTokens(render(req)),
		"completionTokens", completion,
	)
	return nil, nil
}

// loadTrimmed reads how many contents were dropped for this agent so far.
func loadTrimmed(ctx agent.CallbackContext) int {
	val, err := ctx.State().Get(stateKeyPrefixTrimmed + ctx.AgentName())
	if err != nil || val == nil {
		return 0
	}
	switch v := val.(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func persistTrimmed(ctx agent.CallbackContext, count int) {
	if err := ctx.State().Set(stateKeyPrefixTrimmed+ctx.AgentName(), count); err != nil {
		slog.Warn("WindowGuard: failed to persist trimmed count", "error", err)
	}
}
