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
	"strings"
	"time"
)

// DedupEnhancer removes duplicate results: same id, or same normalized
// text. The first (highest-scored) occurrence wins.
type DedupEnhancer struct{}

// NewDedupEnhancer creates the dedup stage.
func NewDedupEnhancer() *DedupEnhancer {
	return &DedupEnhancer{}
}

// Name implements Enhancer.
func (e *DedupEnhancer) Name() string { return "dedup" }

// Enhance implements Enhancer.
func (e *DedupEnhancer) Enhance(ctx context.Context, response *Response) (*Response, error) {
	seenIDs := make(map[string]bool)
	seenText := make(map[string]bool)

	kept := make([]ScoredResult, 0, len(response.Results))
	for _, result := range response.Results {
		id := result.Match.ID()
		text := normalizeText(result.Match.EmbeddableValue())

		if seenIDs[id] || (text != "" && seenText[text]) {
			continue
		}
		seenIDs[id] = true
		seenText[text] = true
		kept = append(kept, result)
	}

	if removed := len(response.Results) - len(kept); removed > 0 {
		slog.Debug("Removed duplicate results", "removed", removed, "kept", len(kept))
	}
	return response.WithResults(e.Name(), kept), nil
}

// EstimateImpact implements Enhancer.
func (e *DedupEnhancer) EstimateImpact(response *Response) *ImpactEstimate {
	seen := make(map[string]bool)
	duplicates := 0
	for _, result := range response.Results {
		text := normalizeText(result.Match.EmbeddableValue())
		if seen[text] {
			duplicates++
		}
		seen[text] = true
	}

	estimate := &ImpactEstimate{
		Latency:        time.Millisecond,
		Recommendation: RecommendSkip,
	}
	if duplicates > 0 {
		estimate.QualityGain = float64(duplicates) / float64(len(response.Results))
		estimate.Recommendation = RecommendApply
	}
	return estimate
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
