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

package resolver

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/achetronic/model-registry-go/client"
	"github.com/achetronic/model-registry-go/registry"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestAutoClient_RoutesAndInstruments(t *testing.T) {
	r := newTestResolver(t)
	metrics := prometheus.NewRegistry()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	auto, err := NewAutoClient(AutoClientConfig{Resolver: r, Registerer: metrics, TracerProvider: tp})
	require.NoError(t, err)
	require.Equal(t, "auto", auto.Implementation())

	ctx := context.Background()
	req := &client.Request{Model: "simple/model1", Prompt: "1 2 3", NumCompletions: 2}

	first, err := auto.MakeRequest(ctx, req)
	require.NoError(t, err)
	require.True(t, first.Success)
	require.False(t, first.Cached)
	require.Len(t, first.Completions, 2)
	_, err = ulid.Parse(first.RequestID)
	require.NoError(t, err)

	second, err := auto.MakeRequest(ctx, req)
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.NotEqual(t, first.RequestID, second.RequestID)
	require.Equal(t, first.Completions, second.Completions)

	require.Len(t, auto.clients, 1)

	labels := map[string]string{"model": "simple/model1", "implementation": "simple", "status": "success"}
	labels["cached"] = "false"
	require.Equal(t, 1.0, counterValue(t, metrics, "model_registry_requests_total", labels))
	labels["cached"] = "true"
	require.Equal(t, 1.0, counterValue(t, metrics, "model_registry_requests_total", labels))

	ended := spans.Ended()
	require.Len(t, ended, 2)
	for _, s := range ended {
		require.Equal(t, "AutoClient.MakeRequest", s.Name())
		require.NotEqual(t, codes.Error, s.Status().Code)
	}
}

func TestAutoClient_UnknownModel(t *testing.T) {
	r := newTestResolver(t)
	metrics := prometheus.NewRegistry()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	auto, err := NewAutoClient(AutoClientConfig{Resolver: r, Registerer: metrics, TracerProvider: tp})
	require.NoError(t, err)

	_, err = auto.MakeRequest(context.Background(), &client.Request{Model: "nope/missing", Prompt: "x"})
	var unknown *registry.UnknownModelError
	require.ErrorAs(t, err, &unknown)

	require.Equal(t, 1.0, counterValue(t, metrics, "model_registry_requests_total",
		map[string]string{"model": "nope/missing", "status": "error"}))

	ended := spans.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, codes.Error, ended[0].Status().Code)
}

func TestAutoClient_WithoutMetrics(t *testing.T) {
	r := newTestResolver(t)

	auto, err := NewAutoClient(AutoClientConfig{Resolver: r})
	require.NoError(t, err)

	result, err := auto.MakeRequest(context.Background(), &client.Request{Model: "simple/model1", Prompt: "a"})
	require.NoError(t, err)
	require.Equal(t, "a", result.Completions[0].Text)

	_, err = NewAutoClient(AutoClientConfig{})
	require.Error(t, err)
}
