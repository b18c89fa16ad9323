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
	"strings"
	"testing"

	"charm.land/catwalk/pkg/embedded"
	"github.com/achetronic/model-registry-go/registry"
	"github.com/achetronic/model-registry-go/tokenizer"
	"github.com/stretchr/testify/require"
)

func newParams(t *testing.T, d registry.ModelDeployment) Params {
	t.Helper()
	svc, cleanup, err := tokenizer.NewTempService()
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return Params{Deployment: d, Registry: registry.MustBuiltin(), Tokenizers: svc}
}

func whitespaceTokenizer(t *testing.T) tokenizer.Tokenizer {
	t.Helper()
	tok, err := tokenizer.NewFactory().Create("test/ws", registry.NewTokenizerSpec("whitespace", nil))
	require.NoError(t, err)
	return tok
}

func TestNew_Defaults(t *testing.T) {
	ws := New("test", Limits{TokenizerName: "test/ws", MaxSequenceLength: 10}, whitespaceTokenizer(t))

	require.Equal(t, 10, ws.MaxRequestLength())
	require.Equal(t, registry.UnboundedLength, ws.MaxSequenceAndGeneratedTokensLength())
	require.Nil(t, ws.PrefixToken())

	prefixed := New("test", Limits{PrefixToken: registry.Ptr("<s>"), MaxSequenceLength: 10}, whitespaceTokenizer(t))
	p := prefixed.PrefixToken()
	require.Equal(t, "<s>", *p)
	*p = "mutated"
	require.Equal(t, "<s>", *prefixed.PrefixToken(), "PrefixToken must return a copy")
}

func TestService_Windowing(t *testing.T) {
	ws := New("test", Limits{MaxSequenceLength: 5, MaxRequestLength: 6}, whitespaceTokenizer(t))

	text := "one two three four five six seven"
	require.Equal(t, 7, ws.CountTokens(text))
	require.False(t, ws.FitsWithinContextWindow(text, 0))
	require.True(t, ws.FitsWithinContextWindow("one two three", 3))
	require.False(t, ws.FitsWithinContextWindow("one two three", 4))

	require.Equal(t, "one two three four five six", ws.TruncateFromRight(text, 0))
	require.Equal(t, "one two", ws.TruncateFromRight(text, 4))
	require.Equal(t, "", ws.TruncateFromRight(text, 6))
	require.Equal(t, "short", ws.TruncateFromRight("short", 0))
}

func TestService_GeneratedTokensBound(t *testing.T) {
	ws := New("test", Limits{MaxSequenceLength: 10, MaxSequenceAndGeneratedTokensLength: 4}, whitespaceTokenizer(t))

	require.True(t, ws.FitsWithinContextWindow("a b", 2))
	require.False(t, ws.FitsWithinContextWindow("a b c", 2))
	require.Equal(t, "a b", ws.TruncateFromRight("a b c d e", 2))
}

func TestFactory_BuiltinDeployments(t *testing.T) {
	f := NewFactory()
	reg := registry.MustBuiltin()

	for _, d := range reg.Deployments.All() {
		ws, err := f.Create(newParams(t, d))
		require.NoError(t, err, "deployment %s", d.Name)

		require.Equal(t, d.WindowServiceSpec.Implementation, ws.Implementation(), d.Name)
		require.Equal(t, d.TokenizerName, ws.TokenizerName(), d.Name)
		require.Equal(t, d.MaxSequenceLength, ws.MaxSequenceLength(), d.Name)
		require.Equal(t, d.EffectiveMaxRequestLength(), ws.MaxRequestLength(), d.Name)
		require.Equal(t, d.EffectiveMaxSequenceAndGeneratedTokensLength(), ws.MaxSequenceAndGeneratedTokensLength(), d.Name)
	}
}

func TestFamilies_SpecialTokensMatchTokenizerConfigs(t *testing.T) {
	reg := registry.MustBuiltin()
	for id, limits := range families {
		cfg, err := reg.TokenizerConfig(limits.TokenizerName)
		require.NoError(t, err, id)
		require.Equal(t, cfg.EndOfTextToken, limits.EndOfTextToken, id)

		if id == "palmyra" || id == "longer_palmyra" {
			require.Equal(t, "", *limits.PrefixToken, id)
			continue
		}
		require.Equal(t, cfg.PrefixToken, limits.PrefixToken, id)
	}
}

func TestFactory_UnknownImplementation(t *testing.T) {
	d := registry.ModelDeployment{
		Name:              "test/model",
		WindowServiceSpec: registry.NewWindowServiceSpec("nonexistent", nil),
	}
	_, err := NewFactory().Create(newParams(t, d))

	var unknown *registry.UnknownImplementationError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, registry.FamilyWindowService, unknown.Family)
	require.NotErrorIs(t, err, registry.ErrUnknownClientImplementation)
}

func TestFactory_RegisterCustom(t *testing.T) {
	f := NewFactory()
	f.Register("fixed", func(p Params) (WindowService, error) {
		_, tok, err := p.Tokenizer(p.Deployment.TokenizerName)
		if err != nil {
			return nil, err
		}
		return New("fixed", Limits{TokenizerName: p.Deployment.TokenizerName, MaxSequenceLength: 42}, tok), nil
	})

	d := registry.ModelDeployment{
		Name:              "test/model",
		TokenizerName:     "huggingface/gpt2",
		WindowServiceSpec: registry.NewWindowServiceSpec("fixed", nil),
	}
	ws, err := f.Create(newParams(t, d))
	require.NoError(t, err)
	require.Equal(t, 42, ws.MaxSequenceLength())
	require.Contains(t, f.Implementations(), "fixed")
}

func TestHuggingFace(t *testing.T) {
	d := registry.ModelDeployment{
		Name:              "tiiuae/falcon-7b",
		TokenizerName:     "tiiuae/falcon-7b",
		WindowServiceSpec: registry.NewWindowServiceSpec("huggingface", map[string]any{"max_sequence_length": 2048}),
	}
	ws, err := NewFactory().Create(newParams(t, d))
	require.NoError(t, err)
	require.Equal(t, 2048, ws.MaxSequenceLength())
	require.Equal(t, 2048, ws.MaxRequestLength())
	require.Nil(t, ws.PrefixToken(), "falcon has no prefix token")
	require.Equal(t, "<|endoftext|>", ws.EndOfTextToken())

	d.WindowServiceSpec = registry.NewWindowServiceSpec("huggingface", nil)
	_, err = NewFactory().Create(newParams(t, d))
	require.Error(t, err)

	d.WindowServiceSpec = registry.NewWindowServiceSpec("huggingface", map[string]any{"max_sequence_length": 2048})
	d.TokenizerName = "test/missing"
	_, err = NewFactory().Create(newParams(t, d))
	var unknownTok *registry.UnknownTokenizerError
	require.ErrorAs(t, err, &unknownTok)
}

func TestCatwalk(t *testing.T) {
	var (
		modelID        string
		window, maxOut int
	)
	for _, provider := range embedded.GetAll() {
		for _, m := range provider.Models {
			if m.ContextWindow > 0 && strings.TrimSpace(m.ID) != "" {
				modelID, window, maxOut = m.ID, int(m.ContextWindow), int(m.DefaultMaxTokens)
				break
			}
		}
		if modelID != "" {
			break
		}
	}
	if modelID == "" {
		t.Skip("catwalk database has no model with a context window")
	}
	t.Logf("✓ using catwalk model %s (window %d, default max tokens %d)", modelID, window, maxOut)

	// Catwalk IDs are unique across providers in practice; the last one
	// loaded wins, so read the expected values back from the same lookup.
	m, ok := catwalkModel(modelID)
	require.True(t, ok)
	window, maxOut = int(m.ContextWindow), int(m.DefaultMaxTokens)

	d := registry.ModelDeployment{
		Name:              "catwalk/" + modelID,
		WindowServiceSpec: registry.NewWindowServiceSpec("catwalk", map[string]any{"model": modelID}),
	}
	ws, err := NewFactory().Create(newParams(t, d))
	require.NoError(t, err)

	expected := window
	if maxOut > 0 && maxOut < window {
		expected = window - maxOut
	}
	require.Equal(t, "catwalk", ws.Implementation())
	require.Equal(t, "openai/cl100k_base", ws.TokenizerName())
	require.Equal(t, expected, ws.MaxSequenceLength())
	require.Equal(t, expected, ws.MaxRequestLength())
	require.Equal(t, window, ws.MaxSequenceAndGeneratedTokensLength())

	d.WindowServiceSpec = registry.NewWindowServiceSpec("catwalk", map[string]any{"model": "no-such-model-anywhere"})
	_, err = NewFactory().Create(newParams(t, d))
	require.Error(t, err)
}
