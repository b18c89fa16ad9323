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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/achetronic/model-registry-go/cache"
)

const httpModelDefaultBaseURL = "http://localhost:8080"

// HTTPModelClient sends requests to a locally served model speaking a small
// JSON protocol:
//
//	POST {BaseURL}/process
//	{"prompt": "...", "temperature": 0, "num_samples": 1, "max_new_tokens": 16, "stop_sequences": []}
//
// and answers
//
//	{"text": "...", "logprob": -1.5, "tokens": [{"text": "...", "logprob": -0.5, "top_logprob": {"...": -0.5}}]}
type HTTPModelClient struct {
	BaseURL string

	// HTTPClient allows customizing the HTTP client used for requests.
	// If nil, http.DefaultClient is used.
	HTTPClient *http.Client

	cache cache.Cache
}

var _ Client = (*HTTPModelClient)(nil)

// HTTPModelClientConfig holds configuration for HTTPModelClient.
type HTTPModelClientConfig struct {
	// BaseURL defaults to "http://localhost:8080".
	BaseURL string

	// HTTPClient allows customizing the HTTP client used for requests.
	// Useful for testing with mock servers.
	HTTPClient *http.Client

	Cache cache.Cache
}

// NewHTTPModelClient creates a client for a local HTTP model server.
func NewHTTPModelClient(cfg HTTPModelClientConfig) *HTTPModelClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = httpModelDefaultBaseURL
	}
	return &HTTPModelClient{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: httpClient,
		cache:      cfg.Cache,
	}
}

func (c *HTTPModelClient) Implementation() string { return "http_model" }

func (c *HTTPModelClient) MakeRequest(ctx context.Context, req *Request) (*RequestResult, error) {
	stop := req.StopSequences
	if stop == nil {
		stop = []string{}
	}
	raw := map[string]any{
		"prompt":         req.Prompt,
		"temperature":    req.Temperature,
		"num_samples":    req.numCompletions(),
		"max_new_tokens": req.MaxTokens,
		"stop_sequences": stop,
	}
	keyed := map[string]any{"base_url": c.BaseURL, "request": raw}

	return call(ctx, c.cache, keyed, func(ctx context.Context) ([]Sequence, error) {
		result, err := c.process(ctx, raw)
		if err != nil {
			return nil, err
		}
		tokens := make([]Token, 0, len(result.Tokens))
		for _, t := range result.Tokens {
			tokens = append(tokens, Token{Text: t.Text, Logprob: t.Logprob, TopLogprobs: t.TopLogprob})
		}
		return []Sequence{{Text: result.Text, Logprob: result.Logprob, Tokens: tokens}}, nil
	})
}

func (c *HTTPModelClient) process(ctx context.Context, raw map[string]any) (*processResponse, error) {
	jsonBody, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/process", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call model server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("model server returned status %d: %s", resp.StatusCode, string(body))
	}

	var result processResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// processResponse is the model server's response format.
type processResponse struct {
	Text    string  `json:"text"`
	Logprob float64 `json:"logprob"`
	Tokens  []struct {
		Text       string             `json:"text"`
		Logprob    float64            `json:"logprob"`
		TopLogprob map[string]float64 `json:"top_logprob"`
	} `json:"tokens"`
	RequestTime float64 `json:"request_time"`
}
