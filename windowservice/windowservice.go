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

// Package windowservice computes the context-window policy of a model: its
// tokenizer, special tokens and length limits, plus the counting and
// truncation operations built on them.
//
// A window service is the authoritative source of a deployment's effective
// values. The consistency validator re-derives registry records from it.
package windowservice

import (
	"github.com/achetronic/model-registry-go/registry"
	"github.com/achetronic/model-registry-go/tokenizer"
)

// WindowService exposes the context-window policy of one model.
type WindowService interface {
	// Implementation is the factory key this service was created from.
	Implementation() string
	TokenizerName() string
	// PrefixToken is nil when the model has no prefix token.
	PrefixToken() *string
	EndOfTextToken() string
	MaxSequenceLength() int
	// MaxRequestLength is at least MaxSequenceLength.
	MaxRequestLength() int
	// MaxSequenceAndGeneratedTokensLength is registry.UnboundedLength when
	// prompt plus completion is not bounded.
	MaxSequenceAndGeneratedTokensLength() int

	CountTokens(text string) int
	// FitsWithinContextWindow reports whether text plus the expected
	// completion stays within the request budget.
	FitsWithinContextWindow(text string, expectedCompletionTokens int) bool
	// TruncateFromRight drops trailing tokens until text fits.
	TruncateFromRight(text string, expectedCompletionTokens int) string
}

// Limits are the values a window service reports.
type Limits struct {
	TokenizerName  string
	PrefixToken    *string
	EndOfTextToken string

	MaxSequenceLength int
	// MaxRequestLength defaults to MaxSequenceLength when zero.
	MaxRequestLength int
	// MaxSequenceAndGeneratedTokensLength defaults to
	// registry.UnboundedLength when zero.
	MaxSequenceAndGeneratedTokensLength int
}

// Service is the WindowService every built-in family returns. Tests and
// custom families construct it with New.
type Service struct {
	implementation string
	limits         Limits
	tokenizer      tokenizer.Tokenizer
}

var _ WindowService = (*Service)(nil)

// New returns a Service reporting limits and counting with tok.
func New(implementation string, limits Limits, tok tokenizer.Tokenizer) *Service {
	if limits.MaxRequestLength == 0 {
		limits.MaxRequestLength = limits.MaxSequenceLength
	}
	if limits.MaxSequenceAndGeneratedTokensLength == 0 {
		limits.MaxSequenceAndGeneratedTokensLength = registry.UnboundedLength
	}
	return &Service{implementation: implementation, limits: limits, tokenizer: tok}
}

func (s *Service) Implementation() string { return s.implementation }
func (s *Service) TokenizerName() string  { return s.limits.TokenizerName }
func (s *Service) EndOfTextToken() string { return s.limits.EndOfTextToken }
func (s *Service) MaxSequenceLength() int { return s.limits.MaxSequenceLength }
func (s *Service) MaxRequestLength() int  { return s.limits.MaxRequestLength }

func (s *Service) PrefixToken() *string {
	if s.limits.PrefixToken == nil {
		return nil
	}
	return registry.Ptr(*s.limits.PrefixToken)
}

func (s *Service) MaxSequenceAndGeneratedTokensLength() int {
	return s.limits.MaxSequenceAndGeneratedTokensLength
}

func (s *Service) CountTokens(text string) int {
	return s.tokenizer.CountTokens(text)
}

// budget is the number of prompt tokens allowed next to the completion.
func (s *Service) budget(expectedCompletionTokens int) int {
	limit := min(s.limits.MaxRequestLength, s.limits.MaxSequenceAndGeneratedTokensLength)
	return limit - expectedCompletionTokens
}

func (s *Service) FitsWithinContextWindow(text string, expectedCompletionTokens int) bool {
	return s.CountTokens(text) <= s.budget(expectedCompletionTokens)
}

func (s *Service) TruncateFromRight(text string, expectedCompletionTokens int) string {
	budget := s.budget(expectedCompletionTokens)
	if budget <= 0 {
		return ""
	}
	tokens := s.tokenizer.Tokenize(text)
	if len(tokens) <= budget {
		return text
	}
	return s.tokenizer.Decode(tokens[:budget])
}
