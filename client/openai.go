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

	"github.com/achetronic/model-registry-go/cache"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openAICompatibleBaseURLs lists the default endpoint of every provider served
// through the OpenAI chat completions API. An empty URL means the SDK default.
var openAICompatibleBaseURLs = map[string]string{
	"openai":      "",
	"together":    "https://api.together.xyz/v1",
	"goose_ai":    "https://api.goose.ai/v1",
	"cohere":      "https://api.cohere.ai/compatibility/v1",
	"ai21":        "https://api.ai21.com/studio/v1",
	"aleph_alpha": "https://api.aleph-alpha.com/v1",
	"huggingface": "https://router.huggingface.co/v1",
	"idefics":     "https://router.huggingface.co/v1",
	"microsoft":   "http://localhost:8000/v1",
	"palmyra":     "https://api.writer.com/v1",
	"megatron":    "http://localhost:5000/v1",
}

// OpenAIClient sends requests through the OpenAI chat completions API. It
// serves OpenAI itself and every OpenAI-compatible provider.
type OpenAIClient struct {
	implementation string
	client         openai.Client
	model          string
	cache          cache.Cache
}

var _ Client = (*OpenAIClient)(nil)

// OpenAIClientConfig holds configuration for OpenAIClient.
type OpenAIClientConfig struct {
	// Implementation is the provider identifier reported by the client.
	Implementation string
	// BaseURL overrides the API endpoint (e.g. "http://localhost:11434/v1").
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

// NewOpenAIClient creates an OpenAI-compatible client.
func NewOpenAIClient(cfg OpenAIClientConfig) *OpenAIClient {
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
	implementation := cfg.Implementation
	if implementation == "" {
		implementation = "openai"
	}
	return &OpenAIClient{
		implementation: implementation,
		client:         openai.NewClient(opts...),
		model:          cfg.Model,
		cache:          cfg.Cache,
	}
}

func (c *OpenAIClient) Implementation() string { return c.implementation }

func (c *OpenAIClient) MakeRequest(ctx context.Context, req *Request) (*RequestResult, error) {
	model := c.model
	if model == "" {
		model = req.Engine()
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(req.Prompt)},
	}
	if n := req.numCompletions(); n > 1 {
		params.N = openai.Int(int64(n))
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if len(req.StopSequences) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: req.StopSequences}
	}
	if req.TopLogprobs > 0 {
		params.Logprobs = openai.Bool(true)
		params.TopLogprobs = openai.Int(int64(req.TopLogprobs))
	}

	raw := map[string]any{
		"provider":       c.implementation,
		"model":          model,
		"prompt":         req.Prompt,
		"n":              req.numCompletions(),
		"max_tokens":     req.MaxTokens,
		"temperature":    req.Temperature,
		"stop_sequences": req.StopSequences,
		"top_logprobs":   req.TopLogprobs,
	}
	return call(ctx, c.cache, raw, func(ctx context.Context) ([]Sequence, error) {
		completion, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to call %s chat completions: %w", c.implementation, err)
		}
		completions := make([]Sequence, 0, len(completion.Choices))
		for _, choice := range completion.Choices {
			tokens := make([]Token, 0, len(choice.Logprobs.Content))
			for _, lp := range choice.Logprobs.Content {
				var top map[string]float64
				if len(lp.TopLogprobs) > 0 {
					top = make(map[string]float64, len(lp.TopLogprobs))
					for _, alt := range lp.TopLogprobs {
						top[alt.Token] = alt.Logprob
					}
				}
				tokens = append(tokens, Token{Text: lp.Token, Logprob: lp.Logprob, TopLogprobs: top})
			}
			completions = append(completions, Sequence{
				Text:    choice.Message.Content,
				Logprob: sumLogprobs(tokens),
				Tokens:  tokens,
			})
		}
		return completions, nil
	})
}
