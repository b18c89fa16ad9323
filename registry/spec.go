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

import "maps"

// ClientSpec identifies the client implementation that serves a deployment.
type ClientSpec struct {
	// Implementation is the key of a registered client factory (e.g. "openai").
	Implementation string `yaml:"implementation" json:"implementation"`
	// Args are passed verbatim to the factory.
	Args map[string]any `yaml:"args,omitempty" json:"args,omitempty"`
}

// WindowServiceSpec identifies the window-service implementation that computes
// context-window policy for a deployment.
type WindowServiceSpec struct {
	Implementation string         `yaml:"implementation" json:"implementation"`
	Args           map[string]any `yaml:"args,omitempty" json:"args,omitempty"`
}

// TokenizerSpec identifies the tokenizer implementation to instantiate.
type TokenizerSpec struct {
	Implementation string         `yaml:"implementation" json:"implementation"`
	Args           map[string]any `yaml:"args,omitempty" json:"args,omitempty"`
}

// NewClientSpec returns a ClientSpec holding its own copy of args.
func NewClientSpec(implementation string, args map[string]any) ClientSpec {
	return ClientSpec{Implementation: implementation, Args: maps.Clone(args)}
}

// NewWindowServiceSpec returns a WindowServiceSpec holding its own copy of args.
func NewWindowServiceSpec(implementation string, args map[string]any) WindowServiceSpec {
	return WindowServiceSpec{Implementation: implementation, Args: maps.Clone(args)}
}

// NewTokenizerSpec returns a TokenizerSpec holding its own copy of args.
func NewTokenizerSpec(implementation string, args map[string]any) TokenizerSpec {
	return TokenizerSpec{Implementation: implementation, Args: maps.Clone(args)}
}

// IntArg reads an integer construction argument. Decoded documents carry
// numbers as float64 or int depending on the source format.
func IntArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// StringArg reads a string construction argument.
func StringArg(args map[string]any, key string) (string, bool) {
	s, ok := args[key].(string)
	return s, ok
}
