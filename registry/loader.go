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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a registry document.
type Format string

const (
	FormatYAML Format = "yaml"
	// FormatJSON accepts plain JSON as well as JSON5.
	FormatJSON Format = "json"
)

// File is the external declarative form of registry entries. Its fields are
// exactly the ModelDeployment and TokenizerConfig field sets.
type File struct {
	ModelDeployments []ModelDeployment `yaml:"model_deployments,omitempty" json:"model_deployments,omitempty"`
	TokenizerConfigs []TokenizerConfig `yaml:"tokenizer_configs,omitempty" json:"tokenizer_configs,omitempty"`
}

var (
	schemaOnce     sync.Once
	schema         *jsonschema.Schema
	resolvedSchema *jsonschema.Resolved
	schemaErr      error
)

// Schema returns the JSON Schema every registry document is validated
// against. It is inferred from File.
func Schema() (*jsonschema.Schema, error) {
	loadSchema()
	return schema, schemaErr
}

func loadSchema() {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.For[File](nil)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("failed to infer registry schema: %w", schemaErr)
			return
		}
		resolvedSchema, schemaErr = schema.Resolve(nil)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("failed to resolve registry schema: %w", schemaErr)
		}
	})
}

// FormatFromPath picks the format from a file extension. Anything that is not
// .json or .json5 is read as YAML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".json5":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// LoadFile reads a registry document from disk, expanding ${VAR} references
// from the environment before parsing.
func LoadFile(path string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("registry file path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	f, err := Parse([]byte(os.ExpandEnv(string(data))), FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and schema-validates a registry document.
func Parse(data []byte, format Format) (*File, error) {
	var raw any
	switch format {
	case FormatJSON:
		if err := json5.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported registry format %q", format)
	}
	if raw == nil {
		return &File{}, nil
	}

	// Round-trip through encoding/json so the schema validator and the
	// decoder see the same value shapes regardless of the source format.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}

	loadSchema()
	if schemaErr != nil {
		return nil, schemaErr
	}
	var instance any
	if err := json.Unmarshal(normalized, &instance); err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}
	if err := resolvedSchema.Validate(instance); err != nil {
		return nil, fmt.Errorf("registry document does not match schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(normalized))
	dec.DisallowUnknownFields()
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode registry document: %w", err)
	}
	return &f, nil
}

// Marshal encodes a registry document.
func Marshal(f *File, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(f, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported registry format %q", format)
	}
}
