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

package resolver

import (
	"strings"

	"github.com/achetronic/model-registry-go/registry"
	"github.com/achetronic/model-registry-go/windowservice"
)

// Window is a snapshot of the values a window service reports.
type Window struct {
	Implementation                      string  `json:"implementation"`
	TokenizerName                       string  `json:"tokenizer_name"`
	PrefixToken                         *string `json:"prefix_token"`
	EndOfTextToken                      string  `json:"end_of_text_token"`
	MaxSequenceLength                   int     `json:"max_sequence_length"`
	MaxRequestLength                    int     `json:"max_request_length"`
	MaxSequenceAndGeneratedTokensLength int     `json:"max_sequence_and_generated_tokens_length"`
}

// SnapshotWindow reads every value of ws.
func SnapshotWindow(ws windowservice.WindowService) Window {
	return Window{
		Implementation:                      ws.Implementation(),
		TokenizerName:                       ws.TokenizerName(),
		PrefixToken:                         ws.PrefixToken(),
		EndOfTextToken:                      ws.EndOfTextToken(),
		MaxSequenceLength:                   ws.MaxSequenceLength(),
		MaxRequestLength:                    ws.MaxRequestLength(),
		MaxSequenceAndGeneratedTokensLength: ws.MaxSequenceAndGeneratedTokensLength(),
	}
}

// Description summarizes a model: its declared records and the effective
// values its window service reports.
type Description struct {
	Deployment registry.ModelDeployment `json:"deployment"`
	Tokenizer  registry.TokenizerConfig `json:"tokenizer"`
	Window     Window                   `json:"window"`
	// Client is the client implementation identifier.
	Client string `json:"client"`
}

// Describe resolves a model and summarizes it. It does not construct the
// client, so it works without credentials.
func (r *Resolver) Describe(name string) (Description, error) {
	d, err := r.registry.Deployment(name)
	if err != nil {
		return Description{}, err
	}
	tok, err := r.registry.TokenizerConfig(d.TokenizerName)
	if err != nil {
		return Description{}, err
	}
	ws, err := r.ResolveWindowService(name)
	if err != nil {
		return Description{}, err
	}
	return Description{
		Deployment: d,
		Tokenizer:  tok,
		Window:     SnapshotWindow(ws),
		Client:     d.ClientSpec.Implementation,
	}, nil
}

// Summary is the one-line view of a deployment.
type Summary struct {
	Name              string `json:"name"`
	Client            string `json:"client"`
	WindowService     string `json:"window_service"`
	Tokenizer         string `json:"tokenizer"`
	MaxSequenceLength int    `json:"max_sequence_length"`
	MaxRequestLength  int    `json:"max_request_length"`
}

// List summarizes the deployments whose name starts with prefix, in
// registration order. An empty prefix lists everything.
func (r *Resolver) List(prefix string) []Summary {
	var out []Summary
	for _, d := range r.registry.Deployments.All() {
		if !strings.HasPrefix(d.Name, prefix) {
			continue
		}
		out = append(out, Summary{
			Name:              d.Name,
			Client:            d.ClientSpec.Implementation,
			WindowService:     d.WindowServiceSpec.Implementation,
			Tokenizer:         d.TokenizerName,
			MaxSequenceLength: d.MaxSequenceLength,
			MaxRequestLength:  d.EffectiveMaxRequestLength(),
		})
	}
	return out
}
