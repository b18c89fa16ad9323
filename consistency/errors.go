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

package consistency

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/achetronic/model-registry-go/registry"
)

// Record kinds a violation can be reported against.
const (
	KindModelDeployment = "model deployment"
	KindTokenizerConfig = "tokenizer config"
)

// FieldDiff is one field whose declared value differs from the value the
// live implementations report. Length fields carry effective values.
type FieldDiff struct {
	Field    string `json:"field"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
}

func (d FieldDiff) String() string {
	return fmt.Sprintf("%s: expected %s, actual %s", d.Field, display(d.Expected), display(d.Actual))
}

// ConsistencyViolationError reports a declared record that does not match
// the record re-derived from its live implementations.
type ConsistencyViolationError struct {
	Kind  string
	Name  string
	Diffs []FieldDiff
	// Diff is the textual declared-vs-derived diff, "-" declared and "+"
	// derived.
	Diff string
}

func (e *ConsistencyViolationError) Error() string {
	parts := make([]string, len(e.Diffs))
	for i, d := range e.Diffs {
		parts[i] = d.String()
	}
	return fmt.Sprintf("%s %q does not match its implementations: %s", e.Kind, e.Name, strings.Join(parts, "; "))
}

// Field returns the diff of the named field.
func (e *ConsistencyViolationError) Field(name string) (FieldDiff, bool) {
	for _, d := range e.Diffs {
		if d.Field == name {
			return d, true
		}
	}
	return FieldDiff{}, false
}

func display(v any) string {
	switch v := v.(type) {
	case nil:
		return "<absent>"
	case string:
		return fmt.Sprintf("%q", v)
	}
	return fmt.Sprint(v)
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// compareDeployments diffs the observable fields of two deployments. Specs
// compare by implementation identifier; construction args are inputs, not
// observable state.
//
// Length fields compare by effective value first. A declared length that
// matches but spells out the default (max_request_length equal to
// max_sequence_length, or an unbounded generation length) is reported as
// well, with the declared value as expected and <absent> as actual.
func compareDeployments(declared, derived registry.ModelDeployment) *ConsistencyViolationError {
	var diffs []FieldDiff
	add := func(field string, expected, actual any) bool {
		if expected != actual {
			diffs = append(diffs, FieldDiff{Field: field, Expected: expected, Actual: actual})
			return true
		}
		return false
	}
	addCanonical := func(field string, value *int, canonical *int) {
		if value != nil && canonical == nil {
			diffs = append(diffs, FieldDiff{Field: field, Expected: *value, Actual: nil})
		}
	}
	add("client_spec.implementation", declared.ClientSpec.Implementation, derived.ClientSpec.Implementation)
	add("tokenizer_name", declared.TokenizerName, derived.TokenizerName)
	add("window_service_spec.implementation", declared.WindowServiceSpec.Implementation, derived.WindowServiceSpec.Implementation)
	add("max_sequence_length", declared.MaxSequenceLength, derived.MaxSequenceLength)
	if !add("max_request_length", declared.EffectiveMaxRequestLength(), derived.EffectiveMaxRequestLength()) {
		addCanonical("max_request_length", declared.MaxRequestLength,
			registry.NormalizeMaxRequestLength(declared.MaxSequenceLength, declared.EffectiveMaxRequestLength()))
	}
	if !add("max_sequence_and_generated_tokens_length",
		declared.EffectiveMaxSequenceAndGeneratedTokensLength(), derived.EffectiveMaxSequenceAndGeneratedTokensLength()) {
		addCanonical("max_sequence_and_generated_tokens_length", declared.MaxSequenceAndGeneratedTokensLength,
			registry.NormalizeMaxSequenceAndGeneratedTokensLength(declared.EffectiveMaxSequenceAndGeneratedTokensLength()))
	}
	if len(diffs) == 0 {
		return nil
	}
	return &ConsistencyViolationError{
		Kind:  KindModelDeployment,
		Name:  declared.Name,
		Diffs: diffs,
		Diff:  cmp.Diff(observableDeployment(declared), observableDeployment(derived)),
	}
}

func compareTokenizers(declared, derived registry.TokenizerConfig) *ConsistencyViolationError {
	var diffs []FieldDiff
	add := func(field string, expected, actual any) {
		if expected != actual {
			diffs = append(diffs, FieldDiff{Field: field, Expected: expected, Actual: actual})
		}
	}
	add("tokenizer_spec.implementation", declared.TokenizerSpec.Implementation, derived.TokenizerSpec.Implementation)
	add("end_of_text_token", declared.EndOfTextToken, derived.EndOfTextToken)
	add("prefix_token", optional(declared.PrefixToken), optional(derived.PrefixToken))
	if len(diffs) == 0 {
		return nil
	}
	declared.TokenizerSpec.Args = nil
	return &ConsistencyViolationError{
		Kind:  KindTokenizerConfig,
		Name:  declared.Name,
		Diffs: diffs,
		Diff:  cmp.Diff(declared, derived),
	}
}

// observableDeployment strips construction args so declared and derived
// records diff only on observable values.
func observableDeployment(d registry.ModelDeployment) registry.ModelDeployment {
	d.ClientSpec.Args = nil
	d.WindowServiceSpec.Args = nil
	return d
}
