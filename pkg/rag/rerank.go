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
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/goalith/goalith/pkg/config"
	"github.com/goalith/goalith/pkg/llms"
	"github.com/goalith/goalith/pkg/utils"
)

// RerankEnhancer re-orders results by blending the original similarity
// score with an LLM relevance score.
//
// The stage is skipped entirely when the result count is at or below the
// skip threshold, and degrades to a no-op when the scoring call fails: a
// broken reranker must never fail retrieval.
type RerankEnhancer struct {
	llm            llms.Provider
	skipThreshold  int
	topN           int
	originalWeight float64
	llmWeight      float64
	countTokens    func(string) int
}

// NewRerankEnhancer creates the reranking stage.
func NewRerankEnhancer(llm llms.Provider, cfg config.RerankConfig) *RerankEnhancer {
	if cfg.SkipThreshold <= 0 {
		cfg.SkipThreshold = 3
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}
	originalWeight := 0.3
	if cfg.OriginalWeight != nil {
		originalWeight = *cfg.OriginalWeight
	}
	llmWeight := 0.7
	if cfg.LLMWeight != nil {
		llmWeight = *cfg.LLMWeight
	}
	return &RerankEnhancer{
		llm:            llm,
		skipThreshold:  cfg.SkipThreshold,
		topN:           cfg.TopN,
		originalWeight: originalWeight,
		llmWeight:      llmWeight,
		countTokens:    utils.CountFunc(llm.ModelName()),
	}
}

// Name implements Enhancer.
func (e *RerankEnhancer) Name() string { return "rerank" }

// Enhance implements Enhancer.
func (e *RerankEnhancer) Enhance(ctx context.Context, response *Response) (*Response, error) {
	if len(response.Results) <= e.skipThreshold {
		slog.Debug("Skipping rerank, too few results",
			"results", len(response.Results),
			"threshold", e.skipThreshold)
		return response, nil
	}

	toScore := response.Results
	if len(toScore) > e.topN {
		toScore = toScore[:e.topN]
	}

	scores, err := e.scoreResults(ctx, response.Request.Query, toScore)
	if err != nil {
		slog.Warn("Reranking failed, keeping original order", "error", err)
		return response, nil
	}

	reranked := make([]ScoredResult, len(toScore))
	for i, result := range toScore {
		combined := e.originalWeight*result.Score + e.llmWeight*scores[i]
		if combined < 0 {
			combined = 0
		}
		if combined > 1 {
			combined = 1
		}
		reranked[i] = ScoredResult{Match: result.Match, Score: combined}
	}
	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})

	if len(response.Results) > e.topN {
		reranked = append(reranked, response.Results[e.topN:]...)
	}

	slog.Debug("Reranked results",
		"query", response.Request.Query,
		"scored", len(toScore),
		"total", len(response.Results))
	return response.WithResults(e.Name(), reranked), nil
}

// EstimateImpact implements Enhancer.
func (e *RerankEnhancer) EstimateImpact(response *Response) *ImpactEstimate {
	if len(response.Results) <= e.skipThreshold {
		return &ImpactEstimate{Recommendation: RecommendSkip}
	}

	tokens := e.countTokens(response.Request.Query)
	n := len(response.Results)
	if n > e.topN {
		n = e.topN
	}
	for _, result := range response.Results[:n] {
		tokens += e.countTokens(truncate(result.Match.EmbeddableValue(), 500))
	}
	return &ImpactEstimate{
		QualityGain:    0.2,
		Latency:        500 * time.Millisecond,
		TokenCost:      tokens,
		Recommendation: RecommendApply,
	}
}

// scoreResults asks the LLM for one relevance score per result, in order.
func (e *RerankEnhancer) scoreResults(ctx context.Context, query string, results []ScoredResult) ([]float64, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Given the query: %q\n\n", query)
	sb.WriteString("Score each document's relevance to the query from 0.0 (irrelevant) to 1.0 (directly answers it).\n\nDocuments:\n")
	for i, result := range results {
		fmt.Fprintf(&sb, "\n[%d] %s\n", i, truncate(result.Match.EmbeddableValue(), 500))
	}
	fmt.Fprintf(&sb, "\nRespond with a JSON array of %d numbers, one score per document in order. Only include the JSON array, no other text.", len(results))

	temp := 0.0
	result, err := e.llm.Generate(ctx, []llms.Message{
		{Role: llms.RoleUser, Content: sb.String()},
	}, &llms.Options{Temperature: &temp})
	if err != nil {
		return nil, err
	}

	scores, err := parseScores(result.Text, len(results))
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// parseScores extracts a JSON number array from the model output. Missing
// trailing scores default to zero; extra scores are dropped.
func parseScores(text string, expected int) ([]float64, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || start >= end {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var raw []float64
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse scores: %w", err)
	}

	scores := make([]float64, expected)
	for i := 0; i < expected && i < len(raw); i++ {
		s := raw[i]
		if s < 0 {
			s = 0
		}
		if s > 1 {
			s = 1
		}
		scores[i] = s
	}
	return scores, nil
}
