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
	"maps"
	"strings"

	"github.com/achetronic/model-registry-go/cache"
)

// SimpleClient implements toy models that answer instantly, for exercising
// the request path without a provider.
//
// model1 answers with the last NumCompletions space-separated prompt tokens
// in reverse order, the i-th completion carrying logprob -i. For the prompt
// "7 2 4 6" and three completions it returns "6", "4", "2".
type SimpleClient struct {
	cache cache.Cache
}

var _ Client = (*SimpleClient)(nil)

// NewSimpleClient creates a simple client. c may be nil to disable caching.
func NewSimpleClient(c cache.Cache) *SimpleClient {
	return &SimpleClient{cache: c}
}

func (c *SimpleClient) Implementation() string { return "simple" }

func (c *SimpleClient) MakeRequest(ctx context.Context, req *Request) (*RequestResult, error) {
	raw := map[string]any{
		"engine": req.Engine(),
		"prompt": req.Prompt,
		"n":      req.numCompletions(),
	}
	if req.Engine() != "model1" {
		return nil, fmt.Errorf("invalid model: %s", req.Model)
	}
	return call(ctx, c.cache, raw, func(context.Context) ([]Sequence, error) {
		return model1(req.Prompt, req.numCompletions()), nil
	})
}

// model1 keys completions by text like a dict: a repeated token keeps its
// first position and takes the later logprob.
func model1(prompt string, n int) []Sequence {
	tokens := strings.Split(prompt, " ")
	tail := tokens[max(0, len(tokens)-n):]

	var order []string
	logprobs := make(map[string]float64)
	for i := range tail {
		text := tail[len(tail)-1-i]
		if _, seen := logprobs[text]; !seen {
			order = append(order, text)
		}
		logprobs[text] = float64(-i)
	}

	completions := make([]Sequence, 0, len(order))
	for _, text := range order {
		completions = append(completions, Sequence{
			Text:    text,
			Logprob: logprobs[text],
			Tokens:  []Token{{Text: text, Logprob: logprobs[text], TopLogprobs: maps.Clone(logprobs)}},
		})
	}
	return completions
}
