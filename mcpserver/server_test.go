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

package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/achetronic/model-registry-go/registry"
	"github.com/achetronic/model-registry-go/resolver"
	"github.com/achetronic/model-registry-go/tokenizer"
	toolsregistry "github.com/achetronic/model-registry-go/tools/registry"
)

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	reg, err := registry.NewBuiltin()
	require.NoError(t, err)
	tokenizers, cleanup, err := tokenizer.NewTempService()
	require.NoError(t, err)
	t.Cleanup(cleanup)
	res, err := resolver.New(resolver.Config{Registry: reg, Tokenizers: tokenizers})
	require.NoError(t, err)

	server, err := New(Config{Catalog: res})
	require.NoError(t, err)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	c := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := c.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func decode[T any](t *testing.T, v any) T {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestNew_RequiresCatalog(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestListTools(t *testing.T) {
	session := connect(t)

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{"list_model_deployments", "describe_model_deployment"}, names)
}

func TestCallTool_List(t *testing.T) {
	session := connect(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "list_model_deployments",
		Arguments: map[string]any{"prefix": "simple/"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	list := decode[toolsregistry.ListResult](t, result.StructuredContent)
	require.Equal(t, 1, list.Total)
	require.Equal(t, "simple/model1", list.Deployments[0].Name)
}

func TestCallTool_Describe(t *testing.T) {
	session := connect(t)
	ctx := context.Background()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "describe_model_deployment",
		Arguments: map[string]any{"name": "simple/model1"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	desc := decode[resolver.Description](t, result.StructuredContent)
	require.Equal(t, "huggingface/gpt2", desc.Tokenizer.Name)
	require.Equal(t, 2048, desc.Window.MaxSequenceLength)

	missing, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "describe_model_deployment",
		Arguments: map[string]any{"name": "nope/missing"},
	})
	require.NoError(t, err)
	require.True(t, missing.IsError)
	require.NotEmpty(t, missing.Content)
	text, ok := missing.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	require.Contains(t, text.Text, "nope/missing")
}
