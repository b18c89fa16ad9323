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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/achetronic/model-registry-go/client"
	"github.com/achetronic/model-registry-go/consistency"
	"github.com/achetronic/model-registry-go/mcpserver"
	"github.com/achetronic/model-registry-go/registry"
	"github.com/achetronic/model-registry-go/resolver"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// runValidate handles the validate command.
func (a *app) runValidate(cmd *cobra.Command, all bool, concurrency int) error {
	res, err := a.openResolver()
	if err != nil {
		return err
	}
	v, err := consistency.New(consistency.Config{Resolver: res, Concurrency: concurrency})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !all {
		if err := v.Validate(cmd.Context()); err != nil {
			return err
		}
		skipped := 0
		for _, name := range res.Registry().Deployments.Names() {
			if v.Skipped(name) {
				skipped++
			}
		}
		checked := res.Registry().Deployments.Len() - skipped
		fmt.Fprintf(out, "ok: %d model deployments consistent, %d skipped\n", checked, skipped)
		return nil
	}

	report, err := v.ValidateAll(cmd.Context())
	if err != nil {
		return err
	}
	if err := writeJSON(out, report); err != nil {
		return err
	}
	if len(report.Violations) > 0 {
		return fmt.Errorf("%d of %d model deployments inconsistent", len(report.Violations), len(report.Checked))
	}
	return nil
}

// runList handles the list command.
func (a *app) runList(cmd *cobra.Command, prefix string) error {
	res, err := a.openResolver()
	if err != nil {
		return err
	}
	summaries := res.List(prefix)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCLIENT\tWINDOW\tTOKENIZER\tMAX SEQ\tMAX REQ")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			s.Name, s.Client, s.WindowService, s.Tokenizer, s.MaxSequenceLength, s.MaxRequestLength)
	}
	return tw.Flush()
}

// runDescribe handles the describe command.
func (a *app) runDescribe(cmd *cobra.Command, name string) error {
	res, err := a.openResolver()
	if err != nil {
		return err
	}
	desc, err := res.Describe(name)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), desc)
}

// runSchema handles the schema command.
func runSchema(cmd *cobra.Command, _ []string) error {
	schema, err := registry.Schema()
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), schema)
}

type requestFlags struct {
	numCompletions int
	maxTokens      int
	temperature    float64
	stop           []string
	topLogprobs    int
}

// runRequest handles the request command.
func (a *app) runRequest(cmd *cobra.Command, model, prompt string, flags requestFlags) error {
	res, err := a.openResolver()
	if err != nil {
		return err
	}
	metrics := prometheus.NewRegistry()
	auto, err := resolver.NewAutoClient(resolver.AutoClientConfig{
		Resolver:   res,
		Registerer: metrics,
	})
	if err != nil {
		return err
	}

	result, err := auto.MakeRequest(cmd.Context(), &client.Request{
		Model:          model,
		Prompt:         prompt,
		NumCompletions: flags.numCompletions,
		MaxTokens:      flags.maxTokens,
		Temperature:    flags.temperature,
		StopSequences:  flags.stop,
		TopLogprobs:    flags.topLogprobs,
	})
	logMetrics(metrics)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}

// logMetrics reports the request counters at debug level.
func logMetrics(g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		slog.Warn("modelreg: failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"name", mf.GetName()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			if c := m.GetCounter(); c != nil {
				attrs = append(attrs, "value", c.GetValue())
			}
			if h := m.GetHistogram(); h != nil {
				attrs = append(attrs, "count", h.GetSampleCount(), "sum", h.GetSampleSum())
			}
			slog.Debug("modelreg: request metric", attrs...)
		}
	}
}

// runMCP handles the mcp command.
func (a *app) runMCP(cmd *cobra.Command) error {
	res, err := a.openResolver()
	if err != nil {
		return err
	}
	server, err := mcpserver.New(mcpserver.Config{Catalog: res, Name: "modelreg", Version: version})
	if err != nil {
		return err
	}
	return mcpserver.ServeStdio(cmd.Context(), server)
}
