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
	"testing"

	"github.com/achetronic/model-registry-go/cache"
	"github.com/stretchr/testify/require"
)

func TestSimpleClient_Model1(t *testing.T) {
	c := NewSimpleClient(cache.NewMemoryCache())
	ctx := context.Background()
	req := &Request{Model: "simple/model1", Prompt: "7 2 4 6", NumCompletions: 3}

	result, err := c.MakeRequest(ctx, req)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.False(t, result.Cached)

	var texts []string
	var logprobs []float64
	for _, s := range result.Completions {
		texts = append(texts, s.Text)
		logprobs = append(logprobs, s.Logprob)
		require.Len(t, s.Tokens, 1)
		require.Equal(t, s.Text, s.Tokens[0].Text)
		require.Len(t, s.Tokens[0].TopLogprobs, 3)
	}
	require.Equal(t, []string{"6", "4", "2"}, texts)
	require.Equal(t, []float64{0, -1, -2}, logprobs)

	again, err := c.MakeRequest(ctx, req)
	require.NoError(t, err)
	require.True(t, again.Cached)
	require.Equal(t, result.Completions, again.Completions)
	require.Equal(t, result.RequestDatetime, again.RequestDatetime)
}

func TestSimpleClient_Model1Edges(t *testing.T) {
	c := NewSimpleClient(nil)
	ctx := context.Background()

	// More completions than tokens returns every token.
	result, err := c.MakeRequest(ctx, &Request{Model: "simple/model1", Prompt: "a b", NumCompletions: 5})
	require.NoError(t, err)
	require.Len(t, result.Completions, 2)

	// Repeated tokens collapse, keeping the first position and the last logprob.
	result, err = c.MakeRequest(ctx, &Request{Model: "simple/model1", Prompt: "a b a", NumCompletions: 3})
	require.NoError(t, err)
	require.Len(t, result.Completions, 2)
	require.Equal(t, "a", result.Completions[0].Text)
	require.Equal(t, -2.0, result.Completions[0].Logprob)
	require.Equal(t, "b", result.Completions[1].Text)
	require.Equal(t, -1.0, result.Completions[1].Logprob)

	// NumCompletions defaults to one.
	result, err = c.MakeRequest(ctx, &Request{Model: "simple/model1", Prompt: "x y z"})
	require.NoError(t, err)
	require.Len(t, result.Completions, 1)
	require.Equal(t, "z", result.Completions[0].Text)
	require.False(t, result.Cached)
}

func TestSimpleClient_InvalidModel(t *testing.T) {
	_, err := NewSimpleClient(nil).MakeRequest(context.Background(), &Request{Model: "simple/model2", Prompt: "x"})
	require.ErrorContains(t, err, "invalid model")
}

func TestRequest_Engine(t *testing.T) {
	require.Equal(t, "gpt-4", (&Request{Model: "openai/gpt-4"}).Engine())
	require.Equal(t, "local", (&Request{Model: "local"}).Engine())
}
