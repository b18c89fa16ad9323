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

// Package tokenizer provides the tokenizers referenced by tokenizer configs.
//
// Tokenizers here are estimators: they split text into word-aligned pieces of
// a family-specific width so that counting, truncating and decoding are
// deterministic and reversible. They do not reproduce any vendor vocabulary.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into tokens and joins tokens back into text.
// Decode(Tokenize(s)) == s for every s.
type Tokenizer interface {
	// Name is the tokenizer config name (e.g. "huggingface/gpt2").
	Name() string
	// Implementation is the factory key this tokenizer was created from.
	Implementation() string
	Tokenize(text string) []string
	Decode(tokens []string) string
	CountTokens(text string) int
}

// estimator is a Tokenizer that chunks whitespace-led words into pieces of
// at most runesPerToken runes. A zero width keeps words whole.
type estimator struct {
	name           string
	implementation string
	runesPerToken  int
}

var _ Tokenizer = (*estimator)(nil)

func (e *estimator) Name() string           { return e.name }
func (e *estimator) Implementation() string { return e.implementation }

func (e *estimator) Tokenize(text string) []string {
	var tokens []string
	for _, word := range splitWords(text) {
		tokens = append(tokens, chunk(word, e.runesPerToken)...)
	}
	return tokens
}

func (e *estimator) Decode(tokens []string) string {
	return strings.Join(tokens, "")
}

func (e *estimator) CountTokens(text string) int {
	count := 0
	for _, word := range splitWords(text) {
		n := len([]rune(word))
		if e.runesPerToken <= 0 {
			count++
			continue
		}
		count += (n + e.runesPerToken - 1) / e.runesPerToken
	}
	return count
}

// splitWords cuts text in front of every whitespace run that follows a
// non-whitespace rune, so leading spaces belong to the next word.
func splitWords(text string) []string {
	if text == "" {
		return nil
	}
	var words []string
	start := 0
	prevSpace := true
	for i, r := range text {
		space := unicode.IsSpace(r)
		if space && !prevSpace && i > start {
			words = append(words, text[start:i])
			start = i
		}
		prevSpace = space
	}
	return append(words, text[start:])
}

func chunk(word string, width int) []string {
	runes := []rune(word)
	if width <= 0 || len(runes) <= width {
		return []string{word}
	}
	out := make([]string, 0, (len(runes)+width-1)/width)
	for len(runes) > 0 {
		n := min(width, len(runes))
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}
