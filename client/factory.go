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
	"fmt"
	"net/http"
	"slices"

	"github.com/achetronic/model-registry-go/cache"
	"github.com/achetronic/model-registry-go/registry"
)

// Credentials maps an implementation identifier to its API key.
type Credentials map[string]string

// credentialEnv names the environment variable holding each provider's key.
var credentialEnv = map[string]string{
	"openai":      "OPENAI_API_KEY",
	"anthropic":   "ANTHROPIC_API_KEY",
	"google":      "GOOGLE_API_KEY",
	"together":    "TOGETHER_API_KEY",
	"goose_ai":    "GOOSEAI_API_KEY",
	"cohere":      "COHERE_API_KEY",
	"ai21":        "AI21_API_KEY",
	"aleph_alpha": "ALEPH_ALPHA_API_KEY",
	"huggingface": "HF_TOKEN",
	"idefics":     "HF_TOKEN",
	"microsoft":   "MICROSOFT_API_KEY",
	"palmyra":     "WRITER_API_KEY",
	"megatron":    "MEGATRON_API_KEY",
}

// CredentialsFromEnv reads every known provider key through getenv
// (usually os.Getenv). Unset keys are omitted.
func CredentialsFromEnv(getenv func(string) string) Credentials {
	creds := make(Credentials)
	for id, env := range credentialEnv {
		if v := getenv(env); v != "" {
			creds[id] = v
		}
	}
	return creds
}

// Params carries what a client constructor may read.
type Params struct {
	Deployment registry.ModelDeployment
	// Cache may be nil to disable caching.
	Cache       cache.Cache
	Credentials Credentials
	HTTPClient  *http.Client
}

// Args returns the client construction args.
func (p Params) Args() map[string]any {
	return p.Deployment.ClientSpec.Args
}

func (p Params) stringArg(key string) string {
	s, _ := registry.StringArg(p.Args(), key)
	return s
}

// apiKey prefers an "api_key" arg over the credentials map.
func (p Params) apiKey() string {
	if key := p.stringArg("api_key"); key != "" {
		return key
	}
	return p.Credentials[p.Deployment.ClientSpec.Implementation]
}

// maxRetries reads the "max_retries" arg, -1 meaning the SDK default.
func (p Params) maxRetries() int {
	if v, ok := registry.IntArg(p.Args(), "max_retries"); ok {
		return v
	}
	return -1
}

// Constructor builds a client. It must not perform network I/O.
type Constructor func(p Params) (Client, error)

// Factory creates clients by implementation identifier.
type Factory struct {
	constructors map[string]Constructor
}

// NewFactory returns a factory with every built-in implementation registered.
func NewFactory() *Factory {
	f := &Factory{constructors: make(map[string]Constructor)}

	f.Register("simple", func(p Params) (Client, error) {
		return NewSimpleClient(p.Cache), nil
	})
	for id, baseURL := range openAICompatibleBaseURLs {
		f.Register(id, openAICompatibleConstructor(id, baseURL))
	}
	f.Register("anthropic", func(p Params) (Client, error) {
		return NewAnthropicClient(AnthropicClientConfig{
			BaseURL:    p.stringArg("base_url"),
			APIKey:     p.apiKey(),
			Model:      p.stringArg("model"),
			MaxRetries: p.maxRetries(),
			HTTPClient: p.HTTPClient,
			Cache:      p.Cache,
		}), nil
	})
	f.Register("google", func(p Params) (Client, error) {
		return NewGoogleClient(GoogleClientConfig{
			APIKey:     p.apiKey(),
			BaseURL:    p.stringArg("base_url"),
			Model:      p.stringArg("model"),
			HTTPClient: p.HTTPClient,
			Cache:      p.Cache,
		}), nil
	})
	f.Register("http_model", func(p Params) (Client, error) {
		return NewHTTPModelClient(HTTPModelClientConfig{
			BaseURL:    p.stringArg("base_url"),
			HTTPClient: p.HTTPClient,
			Cache:      p.Cache,
		}), nil
	})
	return f
}

func openAICompatibleConstructor(id, defaultBaseURL string) Constructor {
	return func(p Params) (Client, error) {
		baseURL := p.stringArg("base_url")
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		return NewOpenAIClient(OpenAIClientConfig{
			Implementation: id,
			BaseURL:        baseURL,
			APIKey:         p.apiKey(),
			Model:          p.stringArg("model"),
			MaxRetries:     p.maxRetries(),
			HTTPClient:     p.HTTPClient,
			Cache:          p.Cache,
		}), nil
	}
}

// Register adds or replaces the constructor for an implementation.
func (f *Factory) Register(implementation string, c Constructor) {
	f.constructors[implementation] = c
}

// Create builds the client for p.Deployment. An unregistered implementation
// yields a *registry.UnknownImplementationError matching
// registry.ErrUnknownClientImplementation.
func (f *Factory) Create(p Params) (Client, error) {
	id := p.Deployment.ClientSpec.Implementation
	c, ok := f.constructors[id]
	if !ok {
		return nil, &registry.UnknownImplementationError{Family: registry.FamilyClient, Implementation: id}
	}
	client, err := c(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client for %s: %w", id, p.Deployment.Name, err)
	}
	return client, nil
}

// Implementations returns the registered identifiers, sorted.
func (f *Factory) Implementations() []string {
	ids := make([]string, 0, len(f.constructors))
	for id := range f.constructors {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
