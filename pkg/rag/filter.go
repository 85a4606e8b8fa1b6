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
)

// FilterEnhancer drops results below the request's similarity threshold and,
// when the request carries labels, entity results not matching any of them.
type FilterEnhancer struct{}

// NewFilterEnhancer creates the filter stage.
func NewFilterEnhancer() *FilterEnhancer {
	return &FilterEnhancer{}
}

// Name implements Enhancer.
func (e *FilterEnhancer) Name() string { return "filter" }

// Enhance implements Enhancer.
func (e *FilterEnhancer) Enhance(ctx context.Context, response *Response) (*Response, error) {
	request := response.Request

	kept := make([]ScoredResult, 0, len(response.Results))
	for _, result := range response.Results {
		if result.Score < request.Threshold {
			continue
		}
		if len(request.Labels) > 0 {
			if entity, ok := result.Match.(EntityData); ok && !matchesLabels(entity, request.Labels) {
				continue
			}
		}
		kept = append(kept, result)
	}

	return response.WithResults(e.Name(), kept), nil
}

// EstimateImpact implements Enhancer.
func (e *FilterEnhancer) EstimateImpact(response *Response) *ImpactEstimate {
	below := 0
	for _, result := range response.Results {
		if result.Score < response.Request.Threshold {
			below++
		}
	}
	estimate := &ImpactEstimate{Recommendation: RecommendSkip}
	if below > 0 {
		estimate.QualityGain = float64(below) / float64(len(response.Results))
		estimate.Recommendation = RecommendApply
	}
	return estimate
}

func matchesLabels(entity EntityData, labels []string) bool {
	for _, want := range labels {
		for _, have := range entity.Labels {
			if want == have {
				return true
			}
		}
	}
	return false
}
