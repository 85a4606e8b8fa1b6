// Copyright 2026 The Goalith Authors
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

package llms

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	llmRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goalith_llm_requests_total",
		Help: "Total LLM generation calls by model and status.",
	}, []string{"model", "status"})

	llmDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "goalith_llm_request_duration_seconds",
		Help:    "LLM call duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	llmTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goalith_llm_tokens_total",
		Help: "LLM token usage by direction.",
	}, []string{"model", "direction"})
)

// ResilientProvider wraps a Provider with per-call timeout, retry, tracing,
// and metrics. It is the Provider variant handed to the rest of the
// framework.
type ResilientProvider struct {
	inner   Provider
	retryer *Retryer
	timeout time.Duration
	tracer  trace.Tracer
}

// WrapResilient builds the instrumented wrapper. A timeout of zero defaults
// to 60 seconds.
func WrapResilient(inner Provider, retry RetryConfig, timeout time.Duration) *ResilientProvider {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ResilientProvider{
		inner:   inner,
		retryer: NewRetryer(retry),
		timeout: timeout,
		tracer:  otel.Tracer("goalith/llms"),
	}
}

// Generate implements Provider. Each attempt runs under its own timeout; an
// expired attempt cancels the underlying HTTP call and surfaces as a
// retryable TimeoutError.
func (p *ResilientProvider) Generate(ctx context.Context, messages []Message, opts *Options) (*Result, error) {
	model := p.inner.ModelName()
	if opts != nil && opts.Model != "" {
		model = opts.Model
	}

	ctx, span := p.tracer.Start(ctx, "llm.generate",
		trace.WithAttributes(
			attribute.String("llm.model", model),
			attribute.Int("llm.messages", len(messages)),
		))
	defer span.End()

	start := time.Now()
	result, err := Do(ctx, p.retryer, "llm generate", func() (*Result, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		res, genErr := p.inner.Generate(attemptCtx, messages, opts)
		if genErr != nil && attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, &TimeoutError{Operation: "llm generate", Timeout: p.timeout}
		}
		return res, genErr
	})
	llmDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())

	if err != nil {
		llmRequests.WithLabelValues(model, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	llmRequests.WithLabelValues(model, "ok").Inc()
	if result.InputTokens > 0 {
		llmTokens.WithLabelValues(model, "input").Add(float64(result.InputTokens))
	}
	if result.OutputTokens > 0 {
		llmTokens.WithLabelValues(model, "output").Add(float64(result.OutputTokens))
	}
	span.SetAttributes(
		attribute.Int("llm.tokens.input", result.InputTokens),
		attribute.Int("llm.tokens.output", result.OutputTokens),
	)
	return result, nil
}

// ModelName implements Provider.
func (p *ResilientProvider) ModelName() string {
	return p.inner.ModelName()
}

// Close implements Provider.
func (p *ResilientProvider) Close() error {
	return p.inner.Close()
}
