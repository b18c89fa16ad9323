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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const yamlDocument = `
tokenizer_configs:
  - name: "test/tok"
    tokenizer_spec:
      implementation: huggingface
    end_of_text_token: "</s>"
    prefix_token: "<s>"
  - name: "test/no-prefix"
    tokenizer_spec:
      implementation: whitespace
    end_of_text_token: ""
    prefix_token: null
model_deployments:
  - name: "test/model"
    client_spec:
      implementation: simple
    tokenizer_name: "test/tok"
    window_service_spec:
      implementation: huggingface
      args:
        max_sequence_length: 2048
    max_sequence_length: 2048
    max_request_length: 4096
`

func TestParse_YAML(t *testing.T) {
	f, err := Parse([]byte(yamlDocument), FormatYAML)
	require.NoError(t, err)
	require.Len(t, f.TokenizerConfigs, 2)
	require.Len(t, f.ModelDeployments, 1)

	d := f.ModelDeployments[0]
	require.Equal(t, "test/model", d.Name)
	require.Equal(t, "simple", d.ClientSpec.Implementation)
	require.Equal(t, Ptr(4096), d.MaxRequestLength)
	require.Nil(t, d.MaxSequenceAndGeneratedTokensLength)

	msl, ok := IntArg(d.WindowServiceSpec.Args, "max_sequence_length")
	require.True(t, ok)
	require.Equal(t, 2048, msl)

	require.Equal(t, Ptr("<s>"), f.TokenizerConfigs[0].PrefixToken)
	require.Nil(t, f.TokenizerConfigs[1].PrefixToken, "null prefix must stay distinct from empty")
}

func TestParse_JSON5(t *testing.T) {
	doc := `{
		// comments and trailing commas are accepted
		tokenizer_configs: [
			{name: "test/tok", tokenizer_spec: {implementation: "whitespace"}, end_of_text_token: "", prefix_token: ""},
		],
		model_deployments: [
			{
				name: "test/model",
				client_spec: {implementation: "simple"},
				tokenizer_name: "test/tok",
				window_service_spec: {implementation: "openai"},
				max_sequence_length: 512,
			},
		],
	}`
	f, err := Parse([]byte(doc), FormatJSON)
	require.NoError(t, err)
	require.Len(t, f.ModelDeployments, 1)
	require.Equal(t, 512, f.ModelDeployments[0].MaxSequenceLength)
	require.Equal(t, Ptr(""), f.TokenizerConfigs[0].PrefixToken)
}

func TestParse_RejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", `
model_deployments:
  - name: "test/model"
    client_spec: {implementation: simple}
    tokenizer_name: "test/tok"
    window_service_spec: {implementation: openai}
    max_sequence_length: 10
    context_size: 10
`},
		{"wrong type", `
model_deployments:
  - name: "test/model"
    client_spec: {implementation: simple}
    tokenizer_name: "test/tok"
    window_service_spec: {implementation: openai}
    max_sequence_length: "ten"
`},
		{"missing required field", `
tokenizer_configs:
  - name: "test/tok"
    end_of_text_token: ""
`},
		{"malformed yaml", "model_deployments: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), FormatYAML)
			require.Error(t, err)
		})
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	f, err := Parse([]byte("# nothing here\n"), FormatYAML)
	require.NoError(t, err)
	require.Empty(t, f.ModelDeployments)
	require.Empty(t, f.TokenizerConfigs)
}

func TestMarshal_ParsesBack(t *testing.T) {
	f, err := Parse([]byte(yamlDocument), FormatYAML)
	require.NoError(t, err)

	for _, format := range []Format{FormatYAML, FormatJSON} {
		data, err := Marshal(f, format)
		require.NoError(t, err)
		back, err := Parse(data, format)
		require.NoError(t, err, "format %s", format)
		require.Equal(t, f.ModelDeployments[0].MaxRequestLength, back.ModelDeployments[0].MaxRequestLength)
		require.Nil(t, back.TokenizerConfigs[1].PrefixToken)
	}
}

func TestLoadFile_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_MODEL_LENGTH", "777")

	dir := t.TempDir()
	path := filepath.Join(dir, "extra.yaml")
	doc := `
tokenizer_configs:
  - name: "test/tok"
    tokenizer_spec: {implementation: whitespace}
    end_of_text_token: ""
model_deployments:
  - name: "test/model"
    client_spec: {implementation: simple}
    tokenizer_name: "test/tok"
    window_service_spec: {implementation: openai}
    max_sequence_length: ${TEST_MODEL_LENGTH}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 777, f.ModelDeployments[0].MaxSequenceLength)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	_, err = LoadFile("")
	require.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	require.Equal(t, FormatJSON, FormatFromPath("models.json"))
	require.Equal(t, FormatJSON, FormatFromPath("models.JSON5"))
	require.Equal(t, FormatYAML, FormatFromPath("models.yaml"))
	require.Equal(t, FormatYAML, FormatFromPath("models"))
}

func TestSchema_DescribesFile(t *testing.T) {
	s, err := Schema()
	require.NoError(t, err)
	require.Contains(t, s.Properties, "model_deployments")
	require.Contains(t, s.Properties, "tokenizer_configs")
}

func TestRegistry_MergeRegistersTokenizersFirst(t *testing.T) {
	f, err := Parse([]byte(yamlDocument), FormatYAML)
	require.NoError(t, err)

	r := New()
	require.NoError(t, r.Merge(f))
	require.NoError(t, r.CheckReferences())
	require.Equal(t, []string{"test/tok", "test/no-prefix"}, r.Tokenizers.Names())

	var dup *DuplicateRegistrationError
	require.ErrorAs(t, r.Merge(f), &dup)
}
