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

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/achetronic/model-registry-go/client"
	"github.com/achetronic/model-registry-go/consistency"
	"github.com/achetronic/model-registry-go/registry"
	"github.com/achetronic/model-registry-go/resolver"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := buildRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--cache-backend", "memory"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func writeRegistryFile(t *testing.T, declaredLength int) string {
	t.Helper()
	doc := `tokenizer_configs:
  - name: "test/tok"
    tokenizer_spec:
      implementation: whitespace
    end_of_text_token: "<eos>"
    prefix_token: ""
model_deployments:
  - name: "test/model2"
    client_spec:
      implementation: simple
    tokenizer_name: "test/tok"
    window_service_spec:
      implementation: huggingface
      args:
        max_sequence_length: 1024
    max_sequence_length: ` + strconv.Itoa(declaredLength) + "\n"
	path := filepath.Join(t.TempDir(), "extra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, name := range []string{"validate", "list", "describe", "schema", "request", "mcp"} {
		if !names[name] {
			t.Fatalf("expected subcommand %q to be registered", name)
		}
	}
}

func TestList(t *testing.T) {
	out, err := execute(t, "list", "--prefix", "simple/")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "NAME"))
	require.Contains(t, lines[1], "simple/model1")
	require.Contains(t, lines[1], "2049")
}

func TestDescribe(t *testing.T) {
	out, err := execute(t, "describe", "simple/model1")
	require.NoError(t, err)

	var desc resolver.Description
	require.NoError(t, json.Unmarshal([]byte(out), &desc))
	require.Equal(t, "simple/model1", desc.Deployment.Name)
	require.Equal(t, 2048, desc.Window.MaxSequenceLength)

	_, err = execute(t, "describe", "nope/missing")
	require.True(t, errors.Is(err, registry.ErrNotFound))
}

func TestSchema(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, props, "model_deployments")
	require.Contains(t, props, "tokenizer_configs")
}

func TestValidate_Builtin(t *testing.T) {
	out, err := execute(t, "validate")
	require.NoError(t, err)
	require.Contains(t, out, "ok: 117 model deployments consistent, 0 skipped")

	out, err = execute(t, "validate", "--all", "--concurrency", "4")
	require.NoError(t, err)
	var report consistency.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Checked, 117)
	require.Empty(t, report.Violations)
}

func TestValidate_File(t *testing.T) {
	out, err := execute(t, "validate", "--file", writeRegistryFile(t, 1024))
	require.NoError(t, err)
	require.Contains(t, out, "ok: 118 model deployments consistent, 0 skipped")

	_, err = execute(t, "validate", "--no-builtin", "--file", writeRegistryFile(t, 2048))
	var violation *consistency.ConsistencyViolationError
	require.ErrorAs(t, err, &violation)
	diff, ok := violation.Field("max_sequence_length")
	require.True(t, ok)
	require.Equal(t, 2048, diff.Expected)
	require.Equal(t, 1024, diff.Actual)

	out, err = execute(t, "validate", "--all", "--no-builtin", "--file", writeRegistryFile(t, 2048))
	require.ErrorContains(t, err, "1 of 1 model deployments inconsistent")
	require.Contains(t, out, "max_sequence_length")
}

func TestValidate_ReportsSkipped(t *testing.T) {
	doc := `tokenizer_configs:
  - name: "test/tok"
    tokenizer_spec:
      implementation: whitespace
    end_of_text_token: "<eos>"
model_deployments:
  - name: "test/lit-gpt-local"
    client_spec:
      implementation: simple
    tokenizer_name: "test/tok"
    window_service_spec:
      implementation: not_registered
    max_sequence_length: 1
`
	path := filepath.Join(t.TempDir(), "skipped.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	out, err := execute(t, "validate", "--file", path)
	require.NoError(t, err)
	require.Contains(t, out, "ok: 117 model deployments consistent, 1 skipped")
}

func TestValidate_FileErrors(t *testing.T) {
	_, err := execute(t, "validate", "--file", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	// Merging the same file twice registers duplicate names.
	path := writeRegistryFile(t, 1024)
	_, err = execute(t, "validate", "--file", path, "--file", path)
	var dup *registry.DuplicateRegistrationError
	require.ErrorAs(t, err, &dup)
}

func TestRequest(t *testing.T) {
	out, err := execute(t, "request", "simple/model1", "a b c", "-n", "2")
	require.NoError(t, err)

	var result client.RequestResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.True(t, result.Success)
	require.NotEmpty(t, result.RequestID)
	require.Len(t, result.Completions, 2)
	require.Equal(t, "c", result.Completions[0].Text)

	_, err = execute(t, "request", "nope/missing", "x")
	require.True(t, errors.Is(err, registry.ErrNotFound))
}

func TestRequest_FilesystemCache(t *testing.T) {
	dir := t.TempDir()
	args := []string{"--cache-backend", "filesystem", "--cache-dir", dir, "request", "simple/model1", "x y"}

	out, err := execute(t, args...)
	require.NoError(t, err)
	var first client.RequestResult
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	require.False(t, first.Cached)

	out, err = execute(t, args...)
	require.NoError(t, err)
	var second client.RequestResult
	require.NoError(t, json.Unmarshal([]byte(out), &second))
	require.True(t, second.Cached)
	require.Equal(t, first.Completions, second.Completions)

	entries, err := os.ReadDir(filepath.Join(dir, "requests", "simple"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}
