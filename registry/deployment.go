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
	"fmt"
	"math"
	"strings"
)

// UnboundedLength is the sentinel reported by window services when no limit
// applies to a length field.
const UnboundedLength = math.MaxInt32

// ModelDeployment is a named, concretely configured model reachable through
// one client implementation.
type ModelDeployment struct {
	// Name is unique across the registry, in "provider/model" form.
	Name string `yaml:"name" json:"name"`

	ClientSpec ClientSpec `yaml:"client_spec" json:"client_spec"`

	// TokenizerName is a lookup key into the tokenizer registry.
	TokenizerName string `yaml:"tokenizer_name" json:"tokenizer_name"`

	WindowServiceSpec WindowServiceSpec `yaml:"window_service_spec" json:"window_service_spec"`

	// MaxSequenceLength is the maximum number of tokens the model may
	// condition on.
	MaxSequenceLength int `yaml:"max_sequence_length" json:"max_sequence_length"`

	// MaxRequestLength defaults to MaxSequenceLength when nil.
	MaxRequestLength *int `yaml:"max_request_length,omitempty" json:"max_request_length,omitempty"`

	// MaxSequenceAndGeneratedTokensLength bounds prompt plus completion
	// tokens. Nil means no limit.
	MaxSequenceAndGeneratedTokensLength *int `yaml:"max_sequence_and_generated_tokens_length,omitempty" json:"max_sequence_and_generated_tokens_length,omitempty"`
}

// Provider returns the part of the name before the first slash.
func (d ModelDeployment) Provider() string {
	provider, _, _ := strings.Cut(d.Name, "/")
	return provider
}

// Engine returns the part of the name after the first slash.
func (d ModelDeployment) Engine() string {
	_, engine, found := strings.Cut(d.Name, "/")
	if !found {
		return d.Name
	}
	return engine
}

// EffectiveMaxRequestLength returns MaxRequestLength, or MaxSequenceLength
// when it is absent.
func (d ModelDeployment) EffectiveMaxRequestLength() int {
	if d.MaxRequestLength == nil {
		return d.MaxSequenceLength
	}
	return *d.MaxRequestLength
}

// EffectiveMaxSequenceAndGeneratedTokensLength returns the configured bound,
// or UnboundedLength when it is absent.
func (d ModelDeployment) EffectiveMaxSequenceAndGeneratedTokensLength() int {
	if d.MaxSequenceAndGeneratedTokensLength == nil {
		return UnboundedLength
	}
	return *d.MaxSequenceAndGeneratedTokensLength
}

// Validate checks the field constraints of a single deployment. Cross-record
// constraints (uniqueness, tokenizer references) are checked by Registry.
func (d ModelDeployment) Validate() error {
	invalid := func(format string, args ...any) error {
		return &InvalidRecordError{Kind: "model deployment", Name: d.Name, Reason: fmt.Sprintf(format, args...)}
	}
	switch {
	case d.Name == "":
		return invalid("name is required")
	case d.ClientSpec.Implementation == "":
		return invalid("client_spec.implementation is required")
	case d.WindowServiceSpec.Implementation == "":
		return invalid("window_service_spec.implementation is required")
	case d.TokenizerName == "":
		return invalid("tokenizer_name is required")
	case d.MaxSequenceLength <= 0:
		return invalid("max_sequence_length must be positive, got %d", d.MaxSequenceLength)
	}
	if d.MaxRequestLength != nil && *d.MaxRequestLength < d.MaxSequenceLength {
		return invalid("max_request_length %d is smaller than max_sequence_length %d", *d.MaxRequestLength, d.MaxSequenceLength)
	}
	if d.MaxSequenceAndGeneratedTokensLength != nil && *d.MaxSequenceAndGeneratedTokensLength <= 0 {
		return invalid("max_sequence_and_generated_tokens_length must be positive, got %d", *d.MaxSequenceAndGeneratedTokensLength)
	}
	return nil
}

// TokenizerConfig describes a tokenizer and the special tokens it uses.
type TokenizerConfig struct {
	Name string `yaml:"name" json:"name"`

	TokenizerSpec TokenizerSpec `yaml:"tokenizer_spec" json:"tokenizer_spec"`

	// EndOfTextToken may be empty.
	EndOfTextToken string `yaml:"end_of_text_token" json:"end_of_text_token"`

	// PrefixToken is nil when the tokenizer has no prefix token at all, and
	// points to "" when the prefix is explicitly empty.
	PrefixToken *string `yaml:"prefix_token,omitempty" json:"prefix_token,omitempty"`
}

// Validate checks the field constraints of a single tokenizer config.
func (c TokenizerConfig) Validate() error {
	if c.Name == "" {
		return &InvalidRecordError{Kind: "tokenizer config", Name: c.Name, Reason: "name is required"}
	}
	if c.TokenizerSpec.Implementation == "" {
		return &InvalidRecordError{Kind: "tokenizer config", Name: c.Name, Reason: "tokenizer_spec.implementation is required"}
	}
	return nil
}

// NormalizeMaxRequestLength maps the window-service representation back to
// the optional form: equal to maxSequenceLength means absent.
func NormalizeMaxRequestLength(maxSequenceLength, maxRequestLength int) *int {
	if maxRequestLength == maxSequenceLength {
		return nil
	}
	return Ptr(maxRequestLength)
}

// NormalizeMaxSequenceAndGeneratedTokensLength maps UnboundedLength back to absent.
func NormalizeMaxSequenceAndGeneratedTokensLength(length int) *int {
	if length == UnboundedLength {
		return nil
	}
	return Ptr(length)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
