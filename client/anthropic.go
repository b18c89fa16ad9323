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

package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/achetronic/model-registry-go/cache"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicDefaultMaxTokens = 1024

// AnthropicClient sends requests through the Anthropic Messages API. The
// Messages API returns one completion per call, so NumCompletions > 1 makes
// that many calls.
type AnthropicClient struct {
	client anthropic.Client
	model  string
	cache  cache.Cache
}

var _ Client = (*AnthropicClient)(nil)

// AnthropicClientConfig holds configuration for AnthropicClient.
type AnthropicClientConfig struct {
	BaseURL string
	APIKey  string
	// Model overrides the model name sent upstream. Defaults to the
	// request's engine.
	Model string
	// MaxRetries defaults to the SDK's own retry policy when negative.
	MaxRetries int
	HTTPClient *http.Client
	Cache      cache.Cache
}

// NewAnthropicClient creates an Anthropic client.
func NewAnthropicClient(cfg AnthropicClientConfig) *AnthropicClient {
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
		cache:  cfg.Cache,
	}
}

func (c *AnthropicClient) Implementation() string { return "anthropic" }

func (c *AnthropicClient) MakeRequest(ctx context.Context, req *Request) (*RequestResult, error) {
	model := c.model
	if model == "" {
		model = req.Engine()
	}
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if len(req.StopSequences) > 0 {
		params.StopSequences = req.StopSequences
	}

	raw := map[string]any{
		"provider":       "anthropic",
		"model":          model,
		"prompt":         req.Prompt,
		"n":              req.numCompletions(),
		"max_tokens":     maxTokens,
		"temperature":    req.Temperature,
		"stop_sequences": req.StopSequences,
	}
	return call(ctx, c.cache, raw, func(ctx context.Context) ([]Sequence, error) {
		completions := make([]Sequence, 0, req.numCompletions())
		for range req.numCompletions() {
			msg, err := c.client.Messages.New(ctx, params)
			if err != nil {
				return nil, fmt.Errorf("failed to call anthropic messages: %w", err)
			}
			var sb strings.Builder
			for _, block := range msg.Content {
				if block.Type == "text" {
					sb.WriteString(block.Text)
				}
			}
			completions = append(completions, Sequence{Text: sb.String()})
		}
		return completions, nil
	})
}
