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

package windowservice

import (
	"fmt"
	"log/slog"
	"sync"

	"charm.land/catwalk/pkg/catwalk"
	"charm.land/catwalk/pkg/embedded"
)

const catwalkDefaultTokenizer = "openai/cl100k_base"

var (
	catwalkOnce   sync.Once
	catwalkModels map[string]catwalk.Model
)

// catwalkModel looks a model up in catwalk's embedded provider database.
// The database is compiled into the binary, so no network calls are made.
func catwalkModel(id string) (catwalk.Model, bool) {
	catwalkOnce.Do(func() {
		catwalkModels = make(map[string]catwalk.Model)
		for _, provider := range embedded.GetAll() {
			for _, m := range provider.Models {
				catwalkModels[m.ID] = m
			}
		}
		slog.Debug("WindowService: loaded models from catwalk", "count", len(catwalkModels))
	})
	m, ok := catwalkModels[id]
	return m, ok
}

// newCatwalk builds a window service whose length comes from catwalk.
//
// Args:
//   - model: catwalk model ID, defaults to the deployment's engine
//   - tokenizer: tokenizer config name, defaults to "openai/cl100k_base"
//
// The context window bounds prompt plus completion; the prompt alone may use
// everything but the model's default completion size.
func newCatwalk(p Params) (WindowService, error) {
	id, ok := p.Args()["model"].(string)
	if !ok || id == "" {
		id = p.Deployment.Engine()
	}
	m, ok := catwalkModel(id)
	if !ok || m.ContextWindow <= 0 {
		return nil, fmt.Errorf("model %q not found in catwalk database", id)
	}

	tokenizerName, ok := p.Args()["tokenizer"].(string)
	if !ok || tokenizerName == "" {
		tokenizerName = catwalkDefaultTokenizer
	}
	cfg, tok, err := p.Tokenizer(tokenizerName)
	if err != nil {
		return nil, err
	}

	return New("catwalk", catwalkLimits(m, cfg.Name, cfg.PrefixToken, cfg.EndOfTextToken), tok), nil
}

func catwalkLimits(m catwalk.Model, tokenizerName string, prefix *string, eot string) Limits {
	window := int(m.ContextWindow)
	msl := window
	if out := int(m.DefaultMaxTokens); out > 0 && out < window {
		msl = window - out
	}
	return Limits{
		TokenizerName:                       tokenizerName,
		PrefixToken:                         prefix,
		EndOfTextToken:                      eot,
		MaxSequenceLength:                   msl,
		MaxSequenceAndGeneratedTokensLength: window,
	}
}
