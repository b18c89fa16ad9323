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

// Package llm adapts a registry client to the ADK model.LLM interface so
// registry deployments can serve ADK agents.
//
// Registry clients are completion clients: the adapter renders the request
// conversation into a single prompt, sends it and returns the first
// completion as one model turn. Streaming is not supported; a streaming call
// yields the same single response.
package llm

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/achetronic/model-registry-go/client"
	"github.com/achetronic/model-registry-go/windowservice"
)

// Config holds configuration for an LLM.
type Config struct {
	// Client sends the requests, usually a *resolver.AutoClient. Required.
	Client client.Client

	// Model is the registry deployment name. Required.
	Model string

	// Window, when set, fits prompts to the deployment's request budget by
	// dropping the oldest turns. A newest turn that is too long on its own
	// is truncated from the right.
	Window windowservice.WindowService

	// MaxTokens applies when the request sets no MaxOutputTokens.
	MaxTokens int
}

// LLM serves a registry deployment through the ADK model.LLM interface.
type LLM struct {
	client    client.Client
	model     string
	window    windowservice.WindowService
	maxTokens int
}

var _ model.LLM = (*LLM)(nil)

// New creates an LLM.
func New(cfg Config) (*LLM, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &LLM{
		client:    cfg.Client,
		model:     cfg.Model,
		window:    cfg.Window,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Name returns the deployment name.
func (l *LLM) Name() string { return l.model }

// GenerateContent sends req as one completion request.
func (l *LLM) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := l.generate(ctx, req)
		yield(resp, err)
	}
}

func (l *LLM) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	creq := l.request(req)

	result, err := l.client.MakeRequest(ctx, creq)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with %s: %w", l.model, err)
	}
	if len(result.Completions) == 0 {
		return nil, fmt.Errorf("model %s returned no completions", l.model)
	}

	slog.Debug("LLM: completion received",
		"model", l.model,
		"requestID", result.RequestID,
		"cached", result.Cached,
		"completions", len(result.Completions),
	)

	return &model.LLMResponse{
		Content: &genai.Content{
			Role:  genai.RoleModel,
			Parts: []*genai.Part{{Text: result.Completions[0].Text}},
		},
		TurnComplete: true,
		FinishReason: genai.FinishReasonStop,
	}, nil
}

// request maps an ADK request onto a completion request.
func (l *LLM) request(req *model.LLMRequest) *client.Request {
	system, turns := promptLines(req)
	creq := &client.Request{
		Model:          l.model,
		Prompt:         joinPrompt(system, turns),
		NumCompletions: 1,
		MaxTokens:      l.maxTokens,
	}
	if cfg := req.Config; cfg != nil {
		if cfg.MaxOutputTokens > 0 {
			creq.MaxTokens = int(cfg.MaxOutputTokens)
		}
		if cfg.Temperature != nil {
			creq.Temperature = float64(*cfg.Temperature)
		}
		creq.StopSequences = cfg.StopSequences
	}
	if l.window != nil && !l.window.FitsWithinContextWindow(creq.Prompt, creq.MaxTokens) {
		creq.Prompt = l.fit(system, turns, creq.MaxTokens)
	}
	return creq
}

// fit drops the oldest turns until the prompt fits the window, then
// truncates what is left from the right.
func (l *LLM) fit(system string, turns []string, completion int) string {
	dropped := 0
	prompt := joinPrompt(system, turns)
	for len(turns) > 1 && !l.window.FitsWithinContextWindow(prompt, completion) {
		turns = turns[1:]
		dropped++
		prompt = joinPrompt(system, turns)
	}
	truncated := false
	if !l.window.FitsWithinContextWindow(prompt, completion) {
		prompt = l.window.TruncateFromRight(prompt, completion)
		truncated = true
	}
	slog.Warn("LLM: prompt trimmed to fit window",
		"model", l.model,
		"droppedTurns", dropped,
		"truncated", truncated,
		"maxRequestLength", l.window.MaxRequestLength(),
	)
	return prompt
}

// Prompt renders a request as "role: text" lines, system instruction first.
func Prompt(req *model.LLMRequest) string {
	return joinPrompt(promptLines(req))
}

func joinPrompt(system string, turns []string) string {
	if system == "" {
		return strings.Join(turns, "\n")
	}
	return strings.Join(append([]string{system}, turns...), "\n")
}

// promptLines renders the system line and one line per conversation turn.
func promptLines(req *model.LLMRequest) (system string, turns []string) {
	if req.Config != nil && req.Config.SystemInstruction != nil {
		if text := partsText(req.Config.SystemInstruction.Parts); text != "" {
			system = "system: " + text
		}
	}
	for _, c := range req.Contents {
		if c == nil {
			continue
		}
		text := partsText(c.Parts)
		if text == "" {
			continue
		}
		role := c.Role
		if role == "" {
			role = genai.RoleUser
		}
		turns = append(turns, role+": "+text)
	}
	return system, turns
}

func partsText(parts []*genai.Part) string {
	var texts []string
	for _, part := range parts {
		if part == nil {
			continue
		}
		switch {
		case part.Text != "":
			texts = append(texts, part.Text)
		case part.FunctionCall != nil:
			texts = append(texts, "[called tool: "+part.FunctionCall.Name+"]")
		case part.FunctionResponse != nil:
			texts = append(texts, "[tool "+part.FunctionResponse.Name+" returned a result]")
		}
	}
	return strings.Join(texts, " ")
}
