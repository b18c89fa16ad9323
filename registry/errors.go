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
	"errors"
	"fmt"
)

// Implementation families used in UnknownImplementationError.
const (
	FamilyClient        = "client"
	FamilyWindowService = "window_service"
	FamilyTokenizer     = "tokenizer"
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrNotFound matches every lookup failure (model, tokenizer or
	// implementation) through errors.Is.
	ErrNotFound = errors.New("not found")

	// ErrUnknownClientImplementation matches an UnknownImplementationError
	// whose family is FamilyClient.
	ErrUnknownClientImplementation = errors.New("unknown client implementation")
)

// Compile-time verification that lookup errors match ErrNotFound.
var (
	_ interface{ Is(error) bool } = (*UnknownModelError)(nil)
	_ interface{ Is(error) bool } = (*UnknownTokenizerError)(nil)
	_ interface{ Is(error) bool } = (*UnknownImplementationError)(nil)
)

// UnknownModelError indicates a model name absent from the deployment registry.
type UnknownModelError struct {
	Name string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q: no model deployment registered", e.Name)
}

// Is reports whether target is ErrNotFound.
func (e *UnknownModelError) Is(target error) bool { return target == ErrNotFound }

// UnknownTokenizerError indicates a tokenizer name absent from the tokenizer registry.
type UnknownTokenizerError struct {
	Name string
}

func (e *UnknownTokenizerError) Error() string {
	return fmt.Sprintf("unknown tokenizer %q: no tokenizer config registered", e.Name)
}

// Is reports whether target is ErrNotFound.
func (e *UnknownTokenizerError) Is(target error) bool { return target == ErrNotFound }

// UnknownImplementationError indicates an implementation identifier with no
// registered factory entry. It is a configuration error.
type UnknownImplementationError struct {
	Family         string
	Implementation string
}

func (e *UnknownImplementationError) Error() string {
	return fmt.Sprintf("unknown %s implementation %q: no factory registered", e.Family, e.Implementation)
}

// Is reports whether target is ErrNotFound, or ErrUnknownClientImplementation
// for client implementations.
func (e *UnknownImplementationError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	return target == ErrUnknownClientImplementation && e.Family == FamilyClient
}

// DuplicateRegistrationError indicates two entries registered under the same name.
type DuplicateRegistrationError struct {
	Kind string
	Name string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("duplicate %s registration: %q is already registered", e.Kind, e.Name)
}

// InvalidRecordError indicates a record that violates a field constraint.
type InvalidRecordError struct {
	Kind   string
	Name   string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Name, e.Reason)
}
