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
	"fmt"
	"log/slog"
	"time"

	"github.com/goalith/goalith/pkg/config"
	"github.com/goalith/goalith/pkg/llms"
	"github.com/goalith/goalith/pkg/utils"
)

// CompressionEnhancer rewrites over-length chunks with a query-aware LLM
// summary. Chunks at or under the length threshold pass through untouched.
// Rewrites run with bounded parallelism.
type CompressionEnhancer struct {
	llm            llms.Provider
	maxChunkLength int
	targetRatio    float64
	maxConcurrency int
	countTokens    func(string) int
}

// NewCompressionEnhancer creates the compression stage.
func NewCompressionEnhancer(llm llms.Provider, cfg config.CompressionConfig) *CompressionEnhancer {
	if cfg.MaxChunkLength <= 0 {
		cfg.MaxChunkLength = 1500
	}
	if cfg.TargetRatio <= 0 {
		cfg.TargetRatio = 0.3
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	return &CompressionEnhancer{
		llm:            llm,
		maxChunkLength: cfg.MaxChunkLength,
		targetRatio:    cfg.TargetRatio,
		maxConcurrency: cfg.MaxConcurrency,
		countTokens:    utils.CountFunc(llm.ModelName()),
	}
}

// Name implements Enhancer.
func (e *CompressionEnhancer) Name() string { return "compression" }

// Enhance implements Enhancer.
func (e *CompressionEnhancer) Enhance(ctx context.Context, response *Response) (*Response, error) {
	query := response.Request.Query

	results, err := utils.ParallelMap(ctx, response.Results, e.maxConcurrency,
		func(ctx context.Context, result ScoredResult) (ScoredResult, error) {
			chunk, ok := result.Match.(Chunk)
			if !ok || len(chunk.Text) <= e.maxChunkLength {
				return result, nil
			}

			compressed, err := e.compress(ctx, query, chunk.Text)
			if err != nil {
				// A failed rewrite keeps the original chunk.
				slog.Warn("Chunk compression failed, keeping original",
					"chunk", chunk.ChunkID, "error", err)
				return result, nil
			}

			chunk.Text = compressed
			return ScoredResult{Match: chunk, Score: result.Score}, nil
		})
	if err != nil {
		return response, nil
	}

	return response.WithResults(e.Name(), results), nil
}

// EstimateImpact implements Enhancer.
func (e *CompressionEnhancer) EstimateImpact(response *Response) *ImpactEstimate {
	eligible := 0
	tokens := 0
	for _, result := range response.Results {
		if chunk, ok := result.Match.(Chunk); ok && len(chunk.Text) > e.maxChunkLength {
			eligible++
			tokens += e.countTokens(chunk.Text)
		}
	}
	if eligible == 0 {
		return &ImpactEstimate{Recommendation: RecommendSkip}
	}
	return &ImpactEstimate{
		QualityGain:    0.1,
		Latency:        time.Duration(eligible) * 400 * time.Millisecond / time.Duration(e.maxConcurrency+1),
		TokenCost:      tokens,
		Recommendation: RecommendConditional,
	}
}

func (e *CompressionEnhancer) compress(ctx context.Context, query, text string) (string, error) {
	targetLen := int(float64(len(text)) * e.targetRatio)

	prompt := fmt.Sprintf(`Compress the following text to roughly %d characters while preserving everything relevant to the question %q. Drop unrelated detail. Respond with the compressed text only.

Text:
%s`, targetLen, query, text)

	temp := 0.0
	result, err := e.llm.Generate(ctx, []llms.Message{
		{Role: llms.RoleUser, Content: prompt},
	}, &llms.Options{Temperature: &temp})
	if err != nil {
		return "", err
	}
	if result.Text == "" {
		return "", fmt.Errorf("empty compression result")
	}
	return result.Text, nil
}
