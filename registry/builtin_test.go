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

package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuiltin_Loads(t *testing.T) {
	r, err := Builtin()
	require.NoError(t, err)
	require.Equal(t, 117, r.Deployments.Len())
	require.Equal(t, 29, r.Tokenizers.Len())

	again, err := Builtin()
	require.NoError(t, err)
	require.Same(t, r, again)
}

func TestBuiltin_NamesAreUnique(t *testing.T) {
	r := MustBuiltin()

	seen := make(map[string]bool)
	for _, name := range r.Deployments.Names() {
		require.False(t, seen[name], "duplicate deployment %s", name)
		seen[name] = true
	}
	seen = make(map[string]bool)
	for _, name := range r.Tokenizers.Names() {
		require.False(t, seen[name], "duplicate tokenizer %s", name)
		seen[name] = true
	}
}

func TestBuiltin_EveryTokenizerReferenceResolves(t *testing.T) {
	r := MustBuiltin()
	for _, d := range r.Deployments.All() {
		_, err := r.TokenizerConfig(d.TokenizerName)
		require.NoError(t, err, "deployment %s", d.Name)
	}
}

func TestBuiltin_KnownEntries(t *testing.T) {
	r := MustBuiltin()

	d, err := r.Deployment("huggingface/gpt2")
	require.NoError(t, err)
	require.Equal(t, "huggingface", d.ClientSpec.Implementation)
	require.Equal(t, 1024, d.MaxSequenceLength)
	require.Equal(t, 1025, d.EffectiveMaxRequestLength())

	mistral, err := r.Deployment("mistralai/mistral-7b-v0.1")
	require.NoError(t, err)
	require.Equal(t, UnboundedLength, mistral.MaxSequenceLength)
	require.Equal(t, "mistralai/Mistral-7B-v0.1", mistral.TokenizerName)

	mistralTok, err := r.TokenizerConfig("mistralai/Mistral-7B-v0.1")
	require.NoError(t, err)
	require.Equal(t, "</s>", mistralTok.EndOfTextToken)
	require.Equal(t, Ptr("<s>"), mistralTok.PrefixToken)

	falcon, err := r.TokenizerConfig("tiiuae/falcon-7b")
	require.NoError(t, err)
	require.Nil(t, falcon.PrefixToken)

	neurips, err := r.TokenizerConfig("neurips/local")
	require.NoError(t, err)
	require.Equal(t, "http_model", neurips.TokenizerSpec.Implementation)
}

func TestNewBuiltin_IsIndependent(t *testing.T) {
	a, err := NewBuiltin()
	require.NoError(t, err)
	b, err := NewBuiltin()
	require.NoError(t, err)

	require.NoError(t, a.Tokenizers.Register(TokenizerConfig{
		Name:          "test/extra",
		TokenizerSpec: NewTokenizerSpec("whitespace", nil),
	}))
	require.Equal(t, b.Tokenizers.Len()+1, a.Tokenizers.Len())
}
