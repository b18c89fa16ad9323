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

	"github.com/achetronic/model-registry-go/registry"
)

// newHuggingFace builds a window service for an arbitrary Hugging Face model.
// Its tokenizer is the deployment's, its special tokens come from that
// tokenizer's config and its length comes from the "max_sequence_length" arg.
func newHuggingFace(p Params) (WindowService, error) {
	msl, ok := registry.IntArg(p.Args(), "max_sequence_length")
	if !ok {
		return nil, fmt.Errorf("missing integer arg max_sequence_length")
	}
	if msl <= 0 {
		return nil, fmt.Errorf("max_sequence_length must be positive, got %d", msl)
	}

	cfg, tok, err := p.Tokenizer(p.Deployment.TokenizerName)
	if err != nil {
		return nil, err
	}

	limits := Limits{
		TokenizerName:     cfg.Name,
		PrefixToken:       cfg.PrefixToken,
		EndOfTextToken:    cfg.EndOfTextToken,
		MaxSequenceLength: msl,
	}
	if v, ok := registry.IntArg(p.Args(), "max_request_length"); ok {
		limits.MaxRequestLength = v
	}
	return New("huggingface", limits, tok), nil
}
