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
	"testing"

	"github.com/achetronic/model-registry-go/registry"
	"github.com/stretchr/testify/require"
)

func TestFactory_BuiltinDeploymentsConstructOffline(t *testing.T) {
	f := NewFactory()
	for _, d := range registry.MustBuiltin().Deployments.All() {
		c, err := f.Create(Params{Deployment: d})
		require.NoError(t, err, d.Name)
		require.Equal(t, d.ClientSpec.Implementation, c.Implementation(), d.Name)
	}
}

func TestFactory_UnknownImplementation(t *testing.T) {
	d := registry.ModelDeployment{Name: "test/model", ClientSpec: registry.NewClientSpec("carrier_pigeon", nil)}
	_, err := NewFactory().Create(Params{Deployment: d})

	require.ErrorIs(t, err, registry.ErrUnknownClientImplementation)
	var unknown *registry.UnknownImplementationError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "carrier_pigeon", unknown.Implementation)
}

func TestFactory_ArgsAndCredentials(t *testing.T) {
	f := NewFactory()
	d := registry.ModelDeployment{
		Name: "together/custom",
		ClientSpec: registry.NewClientSpec("together", map[string]any{
			"base_url":    "http://localhost:9999/v1",
			"model":       "meta/custom",
			"max_retries": 0,
		}),
	}
	c, err := f.Create(Params{Deployment: d, Credentials: Credentials{"together": "secret"}})
	require.NoError(t, err)

	oc, ok := c.(*OpenAIClient)
	require.True(t, ok)
	require.Equal(t, "meta/custom", oc.model)

	p := Params{Deployment: d, Credentials: Credentials{"together": "from-creds"}}
	require.Equal(t, "from-creds", p.apiKey())
	p.Deployment.ClientSpec = registry.NewClientSpec("together", map[string]any{"api_key": "from-args"})
	require.Equal(t, "from-args", p.apiKey())
	require.Equal(t, -1, p.maxRetries())
}

func TestCredentialsFromEnv(t *testing.T) {
	env := map[string]string{"OPENAI_API_KEY": "sk-1", "HF_TOKEN": "hf-1"}
	creds := CredentialsFromEnv(func(k string) string { return env[k] })

	require.Equal(t, "sk-1", creds["openai"])
	require.Equal(t, "hf-1", creds["huggingface"])
	require.Equal(t, "hf-1", creds["idefics"])
	_, ok := creds["anthropic"]
	require.False(t, ok)
}

func TestFactory_Implementations(t *testing.T) {
	ids := NewFactory().Implementations()
	for _, id := range []string{"simple", "openai", "anthropic", "google", "http_model", "together", "palmyra"} {
		require.Contains(t, ids, id)
	}
}
