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

package rag

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "goalith_rag_stage_duration_seconds",
		Help:    "Enhancement stage duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	stageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goalith_rag_stage_failures_total",
		Help: "Enhancement stages that degraded to a pass-through.",
	}, []string{"stage"})
)

// StageMetrics records what one pipeline stage did to the response.
type StageMetrics struct {
	Stage      string
	Duration   time.Duration
	ResultsIn  int
	ResultsOut int
	Estimate   *ImpactEstimate
	Failed     bool
}

// Pipeline applies an ordered sequence of enhancers to a retrieval
// response.
//
// Stages run strictly in sequence: each stage sees its predecessor's
// output, so reranking sees deduplicated and compressed text rather than
// raw chunks. A failing stage is logged and passes its input through
// unchanged; a single enhancer failing must not fail retrieval.
type Pipeline struct {
	enhancers []Enhancer
	tracer    trace.Tracer
}

// NewPipeline creates a pipeline over the given stages, applied in order.
func NewPipeline(enhancers ...Enhancer) *Pipeline {
	return &Pipeline{
		enhancers: enhancers,
		tracer:    otel.Tracer("goalith/rag"),
	}
}

// Stages returns the stage names in application order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.enhancers))
	for i, e := range p.enhancers {
		names[i] = e.Name()
	}
	return names
}

// Enhance runs every stage and returns the final response plus per-stage
// metrics.
func (p *Pipeline) Enhance(ctx context.Context, response *Response) (*Response, []StageMetrics) {
	metrics := make([]StageMetrics, 0, len(p.enhancers))

	current := response
	for _, enhancer := range p.enhancers {
		stage := enhancer.Name()
		stageCtx, span := p.tracer.Start(ctx, "rag.enhance."+stage,
			trace.WithAttributes(attribute.Int("rag.results_in", len(current.Results))))

		estimate := enhancer.EstimateImpact(current)
		if estimate != nil {
			slog.Debug("Stage impact estimate",
				"stage", stage,
				"quality_gain", estimate.QualityGain,
				"latency", estimate.Latency,
				"token_cost", estimate.TokenCost,
				"recommendation", estimate.Recommendation)
		}

		start := time.Now()
		enhanced, err := enhancer.Enhance(stageCtx, current)
		elapsed := time.Since(start)
		stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())

		m := StageMetrics{
			Stage:     stage,
			Duration:  elapsed,
			ResultsIn: len(current.Results),
			Estimate:  estimate,
		}

		if err != nil || enhanced == nil {
			stageFailures.WithLabelValues(stage).Inc()
			slog.Warn("Enhancement stage failed, passing response through",
				"stage", stage, "error", err)
			m.Failed = true
			m.ResultsOut = len(current.Results)
		} else {
			current = enhanced
			m.ResultsOut = len(current.Results)
		}

		span.SetAttributes(attribute.Int("rag.results_out", m.ResultsOut))
		span.End()
		metrics = append(metrics, m)
	}

	return current, metrics
}
