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

// Package client sends completion requests to model providers.
//
// Every client answers the same Request/RequestResult shape. Clients are
// cheap to construct: no network I/O happens until MakeRequest.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/achetronic/model-registry-go/cache"
)

// Request is a completion request addressed to a model deployment.
type Request struct {
	// Model is the deployment name, in "provider/model" form.
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	// NumCompletions defaults to 1.
	NumCompletions int `json:"num_completions,omitempty"`
	// MaxTokens bounds each completion. Zero leaves the provider default.
	MaxTokens     int      `json:"max_tokens,omitempty"`
	Temperature   float64  `json:"temperature,omitempty"`
	StopSequences []string `json:"stop_sequences,omitempty"`
	// TopLogprobs asks for this many alternatives per token where the
	// provider supports it.
	TopLogprobs int `json:"top_logprobs,omitempty"`
}

// Engine returns the part of Model after the first slash.
func (r *Request) Engine() string {
	_, engine, found := strings.Cut(r.Model, "/")
	if !found {
		return r.Model
	}
	return engine
}

func (r *Request) numCompletions() int {
	if r.NumCompletions <= 0 {
		return 1
	}
	return r.NumCompletions
}

// Token is one generated token.
type Token struct {
	Text        string             `json:"text"`
	Logprob     float64            `json:"logprob"`
	TopLogprobs map[string]float64 `json:"top_logprobs,omitempty"`
}

// Sequence is one generated completion.
type Sequence struct {
	Text    string  `json:"text"`
	Logprob float64 `json:"logprob"`
	Tokens  []Token `json:"tokens,omitempty"`
}

// RequestResult is the outcome of a request.
type RequestResult struct {
	Success bool `json:"success"`
	// Cached reports whether the completions came from the cache.
	Cached bool `json:"cached"`
	// RequestTime is how long the provider call took when it was made.
	RequestTime     time.Duration `json:"request_time"`
	RequestDatetime time.Time     `json:"request_datetime"`
	Completions     []Sequence    `json:"completions"`
	// RequestID is set by callers that trace requests; providers leave it empty.
	RequestID string `json:"request_id,omitempty"`
}

// Client sends requests to one provider.
type Client interface {
	// Implementation is the factory key this client was created from.
	Implementation() string
	MakeRequest(ctx context.Context, req *Request) (*RequestResult, error)
}

// response is the cached form of a provider call.
type response struct {
	Completions     []Sequence `json:"completions"`
	RequestTime     float64    `json:"request_time"`
	RequestDatetime int64      `json:"request_datetime"`
}

// call runs fn through c under a key derived from raw, timing the call on
// a miss. A nil cache calls fn every time.
func call(ctx context.Context, c cache.Cache, raw map[string]any, fn func(ctx context.Context) ([]Sequence, error)) (*RequestResult, error) {
	compute := func(ctx context.Context) (map[string]any, error) {
		start := time.Now()
		completions, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return toMap(response{
			Completions:     completions,
			RequestTime:     time.Since(start).Seconds(),
			RequestDatetime: start.Unix(),
		})
	}

	var (
		value  map[string]any
		cached bool
		err    error
	)
	if c == nil {
		value, err = compute(ctx)
	} else {
		var key string
		key, err = cache.Key(raw)
		if err != nil {
			return nil, err
		}
		value, cached, err = c.Get(ctx, key, compute)
	}
	if err != nil {
		return nil, err
	}

	var resp response
	if err := fromMap(value, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode cached response: %w", err)
	}
	return &RequestResult{
		Success:         true,
		Cached:          cached,
		RequestTime:     time.Duration(resp.RequestTime * float64(time.Second)),
		RequestDatetime: time.Unix(resp.RequestDatetime, 0),
		Completions:     resp.Completions,
	}, nil
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return m, nil
}

func fromMap(m map[string]any, v any) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// sumLogprobs returns the sequence logprob of a token list.
func sumLogprobs(tokens []Token) float64 {
	total := 0.0
	for _, t := range tokens {
		total += t.Logprob
	}
	return total
}
