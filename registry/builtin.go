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
	"embed"
	"fmt"
	"log/slog"
	"sync"
)

//go:embed builtin/tokenizer_configs.yaml builtin/model_deployments.yaml
var builtinFS embed.FS

var builtinFiles = []string{
	"builtin/tokenizer_configs.yaml",
	"builtin/model_deployments.yaml",
}

var (
	builtinOnce     sync.Once
	builtinRegistry *Registry
	builtinErr      error
)

// Builtin returns the process-wide registry holding the built-in tables. It
// is parsed on first access and lives for the rest of the process. Callers
// must not register into it; use NewBuiltin for a private, extensible copy.
func Builtin() (*Registry, error) {
	builtinOnce.Do(func() {
		builtinRegistry, builtinErr = NewBuiltin()
		if builtinErr == nil {
			slog.Debug("Registry: built-in tables loaded",
				"deployments", builtinRegistry.Deployments.Len(),
				"tokenizers", builtinRegistry.Tokenizers.Len(),
			)
		}
	})
	return builtinRegistry, builtinErr
}

// MustBuiltin is like Builtin but panics on error. A broken built-in table is
// a build defect, not a runtime condition.
func MustBuiltin() *Registry {
	r, err := Builtin()
	if err != nil {
		panic(err)
	}
	return r
}

// NewBuiltin parses the embedded tables into a fresh registry.
func NewBuiltin() (*Registry, error) {
	r := New()
	for _, name := range builtinFiles {
		data, err := builtinFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read built-in table %s: %w", name, err)
		}
		f, err := Parse(data, FormatYAML)
		if err != nil {
			return nil, fmt.Errorf("failed to parse built-in table %s: %w", name, err)
		}
		if err := r.Merge(f); err != nil {
			return nil, fmt.Errorf("failed to register built-in table %s: %w", name, err)
		}
	}
	if err := r.CheckReferences(); err != nil {
		return nil, err
	}
	return r, nil
}
