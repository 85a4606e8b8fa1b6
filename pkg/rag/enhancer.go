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
	"time"
)

// Enhancer transforms a retrieval response. Implementations must treat the
// input response as immutable and derive a new one via WithResults.
type Enhancer interface {
	// Name identifies the enhancer in pipeline logs and response metadata.
	Name() string

	// Enhance produces the transformed response. A failing enhancer should
	// degrade to returning its input rather than erroring where possible;
	// a returned error fails only this stage, never the pipeline.
	Enhance(ctx context.Context, response *Response) (*Response, error)

	// EstimateImpact predicts the effect of running this enhancer. Advisory
	// only: it never gates execution. May return nil.
	EstimateImpact(response *Response) *ImpactEstimate
}

// Recommendation is an advisory verdict on whether a stage is worth running.
type Recommendation string

const (
	RecommendApply       Recommendation = "apply"
	RecommendSkip        Recommendation = "skip"
	RecommendConditional Recommendation = "conditional"
)

// ImpactEstimate predicts the quality gain and cost of an enhancement
// stage. Used for logging and telemetry only.
type ImpactEstimate struct {
	// QualityGain is the expected relevance improvement in [0,1].
	QualityGain float64

	// Latency is the expected added latency.
	Latency time.Duration

	// TokenCost is the expected LLM token spend.
	TokenCost int

	// Recommendation is the advisory verdict.
	Recommendation Recommendation
}

// truncate shortens s to maxLen with an ellipsis marker.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
