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
	"sync"

	"github.com/achetronic/model-registry-go/cache"
	"google.golang.org/genai"
)

// GoogleClient sends requests through the Gemini API. The underlying genai
// client is created on first use, so constructing a GoogleClient never
// touches the network or the credential chain.
type GoogleClient struct {
	cfg GoogleClientConfig

	once    sync.Once
	client  *genai.Client
	initErr error
}

var _ Client = (*GoogleClient)(nil)

// GoogleClientConfig holds configuration for GoogleClient.
type GoogleClientConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint.
	BaseURL string
	// Model overrides the model name sent upstream. Defaults to the
	// request's engine.
	Model      string
	HTTPClient *http.Client
	Cache      cache.Cache
}

// NewGoogleClient creates a Gemini client.
func NewGoogleClient(cfg GoogleClientConfig) *GoogleClient {
	return &GoogleClient{cfg: cfg}
}

func (c *GoogleClient) Implementation() string { return "google" }

func (c *GoogleClient) genaiClient(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		c.client, c.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:      c.cfg.APIKey,
			Backend:     genai.BackendGeminiAPI,
			HTTPClient:  c.cfg.HTTPClient,
			HTTPOptions: genai.HTTPOptions{BaseURL: c.cfg.BaseURL},
		})
		if c.initErr != nil {
			c.initErr = fmt.Errorf("failed to create genai client: %w", c.initErr)
		}
	})
	return c.client, c.initErr
}

func (c *GoogleClient) MakeRequest(ctx context.Context, req *Request) (*RequestResult, error) {
	model := c.cfg.Model
	if model == "" {
		model = req.Engine()
	}

	config := &genai.GenerateContentConfig{
		CandidateCount: int32(req.numCompletions()),
		StopSequences:  req.StopSequences,
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}

	raw := map[string]any{
		"provider":       "google",
		"model":          model,
		"prompt":         req.Prompt,
		"n":              req.numCompletions(),
		"max_tokens":     req.MaxTokens,
		"temperature":    req.Temperature,
		"stop_sequences": req.StopSequences,
	}
	return call(ctx, c.cfg.Cache, raw, func(ctx context.Context) ([]Sequence, error) {
		client, err := c.genaiClient(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), config)
		if err != nil {
			return nil, fmt.Errorf("failed to call gemini generate content: %w", err)
		}
		completions := make([]Sequence, 0, len(resp.Candidates))
		for _, cand := range resp.Candidates {
			if cand == nil || cand.Content == nil {
				continue
			}
			var sb strings.Builder
			for _, part := range cand.Content.Parts {
				if part != nil {
					sb.WriteString(part.Text)
				}
			}
			completions = append(completions, Sequence{Text: sb.String(), Logprob: cand.AvgLogprobs})
		}
		return completions, nil
	})
}
