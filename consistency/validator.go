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

// Package consistency checks that the declared registry tables agree with
// what the live client, window-service and tokenizer implementations report.
//
// It is an offline check for tests and CI. A violation means a table and an
// implementation have drifted apart.
package consistency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/achetronic/model-registry-go/registry"
	"github.com/achetronic/model-registry-go/resolver"
)

var (
	// DefaultSkipRules excludes deployments whose client needs manual
	// dependencies. A deployment is skipped when its name contains a rule.
	DefaultSkipRules = []string{"lit-gpt"}

	// DefaultSharedTokenizerNames are tokenizer names whose config check is
	// skipped. The palmyra window services report huggingface/gpt2 with
	// special tokens of their own, so that name stands for two configs.
	DefaultSharedTokenizerNames = []string{"huggingface/gpt2"}
)

// Config holds configuration for a Validator.
type Config struct {
	// Resolver resolves every checked model. Required.
	Resolver *resolver.Resolver

	// SkipRules defaults to DefaultSkipRules. Pass an empty non-nil slice
	// to check everything.
	SkipRules []string

	// SharedTokenizerNames defaults to DefaultSharedTokenizerNames.
	SharedTokenizerNames []string

	// Concurrency bounds ValidateAll. Defaults to GOMAXPROCS.
	Concurrency int
}

// Validator re-derives registry records from live implementations.
type Validator struct {
	resolver   *resolver.Resolver
	skipRules  []string
	shared     []string
	concurrent int
}

// New creates a Validator.
func New(cfg Config) (*Validator, error) {
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if cfg.SkipRules == nil {
		cfg.SkipRules = DefaultSkipRules
	}
	if cfg.SharedTokenizerNames == nil {
		cfg.SharedTokenizerNames = DefaultSharedTokenizerNames
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.GOMAXPROCS(0)
	}
	return &Validator{
		resolver:   cfg.Resolver,
		skipRules:  cfg.SkipRules,
		shared:     cfg.SharedTokenizerNames,
		concurrent: cfg.Concurrency,
	}, nil
}

// Skipped reports whether a model name matches a skip rule.
func (v *Validator) Skipped(name string) bool {
	for _, rule := range v.skipRules {
		if strings.Contains(name, rule) {
			return true
		}
	}
	return false
}

// models returns the names to check in registration order.
func (v *Validator) models() (checked, skipped []string) {
	for _, name := range v.resolver.Registry().Deployments.Names() {
		if v.Skipped(name) {
			skipped = append(skipped, name)
			continue
		}
		checked = append(checked, name)
	}
	return checked, skipped
}

// Check validates one model. It returns a *ConsistencyViolationError on
// drift and any resolution error as is.
func (v *Validator) Check(name string) error {
	reg := v.resolver.Registry()
	declared, err := reg.Deployment(name)
	if err != nil {
		return err
	}

	c, err := v.resolver.ResolveClient(name)
	if err != nil {
		return err
	}
	ws, err := v.resolver.ResolveWindowService(name)
	if err != nil {
		return err
	}
	tokenizerName := ws.TokenizerName()
	tok, err := v.resolver.ResolveTokenizer(tokenizerName)
	if err != nil {
		return err
	}

	derived := registry.ModelDeployment{
		Name:                                name,
		ClientSpec:                          registry.ClientSpec{Implementation: c.Implementation()},
		TokenizerName:                       tokenizerName,
		WindowServiceSpec:                   registry.WindowServiceSpec{Implementation: ws.Implementation()},
		MaxSequenceLength:                   ws.MaxSequenceLength(),
		MaxRequestLength:                    registry.NormalizeMaxRequestLength(ws.MaxSequenceLength(), ws.MaxRequestLength()),
		MaxSequenceAndGeneratedTokensLength: registry.NormalizeMaxSequenceAndGeneratedTokensLength(ws.MaxSequenceAndGeneratedTokensLength()),
	}
	if violation := compareDeployments(declared, derived); violation != nil {
		return violation
	}

	if slices.Contains(v.shared, tokenizerName) {
		slog.Debug("Validator: skipping shared tokenizer config", "model", name, "tokenizer", tokenizerName)
		return nil
	}
	declaredTok, err := reg.TokenizerConfig(tokenizerName)
	if err != nil {
		return err
	}
	derivedTok := registry.TokenizerConfig{
		Name:           tokenizerName,
		TokenizerSpec:  registry.TokenizerSpec{Implementation: tok.Implementation()},
		EndOfTextToken: ws.EndOfTextToken(),
		PrefixToken:    ws.PrefixToken(),
	}
	if violation := compareTokenizers(declaredTok, derivedTok); violation != nil {
		return violation
	}
	return nil
}

// Validate checks every registered model in registration order and returns
// the first violation or resolution error.
func (v *Validator) Validate(ctx context.Context) error {
	checked, skipped := v.models()
	for _, name := range skipped {
		slog.Info("Validator: skipping model", "model", name)
	}
	for _, name := range checked {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := v.Check(name); err != nil {
			return err
		}
	}
	slog.Debug("Validator: registry is consistent", "checked", len(checked), "skipped", len(skipped))
	return nil
}

// Report is the outcome of ValidateAll.
type Report struct {
	Checked []string `json:"checked"`
	Skipped []string `json:"skipped"`
	// Violations are in registration order.
	Violations []*ConsistencyViolationError `json:"violations"`
}

// Err joins every violation, or returns nil when there are none.
func (r *Report) Err() error {
	errs := make([]error, len(r.Violations))
	for i, v := range r.Violations {
		errs[i] = v
	}
	return errors.Join(errs...)
}

// ValidateAll checks every registered model concurrently and collects all
// violations. A resolution error still aborts the run and is returned.
func (v *Validator) ValidateAll(ctx context.Context) (*Report, error) {
	checked, skipped := v.models()
	results := make([]*ConsistencyViolationError, len(checked))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrent)
	for i, name := range checked {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := v.Check(name)
			var violation *ConsistencyViolationError
			if errors.As(err, &violation) {
				results[i] = violation
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to check %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Checked: checked, Skipped: skipped}
	for _, violation := range results {
		if violation != nil {
			report.Violations = append(report.Violations, violation)
		}
	}
	slog.Info("Validator: validation finished",
		"checked", len(checked), "skipped", len(skipped), "violations", len(report.Violations))
	return report, nil
}
