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
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/achetronic/model-registry-go/client"
)

const instrumentationName = "github.com/achetronic/model-registry-go/resolver"

// AutoClientConfig holds configuration for an AutoClient.
type AutoClientConfig struct {
	// Resolver resolves request models to clients. Required.
	Resolver *Resolver

	// Registerer receives the request metrics. Nil disables metrics.
	Registerer prometheus.Registerer

	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// AutoClient routes each request to the client of its model. Clients are
// resolved on first use and reused afterwards.
type AutoClient struct {
	resolver *Resolver
	tracer   trace.Tracer

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	mu      sync.Mutex
	clients map[string]client.Client
}

var _ client.Client = (*AutoClient)(nil)

// NewAutoClient creates an AutoClient.
func NewAutoClient(cfg AutoClientConfig) (*AutoClient, error) {
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	a := &AutoClient{
		resolver: cfg.Resolver,
		tracer:   tp.Tracer(instrumentationName),
		clients:  make(map[string]client.Client),
	}
	if cfg.Registerer != nil {
		factory := promauto.With(cfg.Registerer)
		a.requests = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "model_registry_requests_total",
			Help: "Requests made through the auto client.",
		}, []string{"model", "implementation", "status", "cached"})
		a.duration = factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "model_registry_request_duration_seconds",
			Help:    "Wall time of requests made through the auto client.",
			Buckets: prometheus.DefBuckets,
		}, []string{"model", "implementation"})
	}
	return a, nil
}

// Implementation returns "auto".
func (a *AutoClient) Implementation() string { return "auto" }

// clientFor returns the cached client of model, resolving it on first use.
func (a *AutoClient) clientFor(model string) (client.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.clients[model]; ok {
		return c, nil
	}
	c, err := a.resolver.ResolveClient(model)
	if err != nil {
		return nil, err
	}
	a.clients[model] = c
	slog.Debug("AutoClient: resolved client", "model", model, "implementation", c.Implementation())
	return c, nil
}

// MakeRequest sends req to the client of req.Model and stamps the result
// with a fresh request id.
func (a *AutoClient) MakeRequest(ctx context.Context, req *client.Request) (*client.RequestResult, error) {
	requestID := ulid.Make().String()
	ctx, span := a.tracer.Start(ctx, "AutoClient.MakeRequest", trace.WithAttributes(
		attribute.String("model", req.Model),
		attribute.String("request.id", requestID),
	))
	defer span.End()

	start := time.Now()
	c, err := a.clientFor(req.Model)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.observe(req.Model, "", "error", false, time.Since(start))
		return nil, fmt.Errorf("failed to resolve client for %s: %w", req.Model, err)
	}
	span.SetAttributes(attribute.String("client.implementation", c.Implementation()))

	result, err := c.MakeRequest(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.observe(req.Model, c.Implementation(), "error", false, time.Since(start))
		if !errors.Is(err, context.Canceled) {
			slog.Error("AutoClient: request failed", "model", req.Model, "request_id", requestID, "error", err)
		}
		return nil, err
	}

	result.RequestID = requestID
	span.SetAttributes(
		attribute.Bool("cache.hit", result.Cached),
		attribute.Int("completions", len(result.Completions)),
	)
	a.observe(req.Model, c.Implementation(), "success", result.Cached, time.Since(start))
	return result, nil
}

func (a *AutoClient) observe(model, implementation, status string, cached bool, elapsed time.Duration) {
	if a.requests == nil {
		return
	}
	a.requests.WithLabelValues(model, implementation, status, strconv.FormatBool(cached)).Inc()
	a.duration.WithLabelValues(model, implementation).Observe(elapsed.Seconds())
}
