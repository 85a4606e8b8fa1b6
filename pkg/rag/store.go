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

	chromem "github.com/philippgille/chromem-go"
)

// VectorStore indexes chunks in an embedded chromem collection and answers
// similarity queries as retrieval Responses.
type VectorStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	service    string
}

// NewVectorStore creates an in-memory store. The embedding function may be
// nil, in which case chromem's default (OpenAI, configured via environment)
// is used.
func NewVectorStore(service string, embed chromem.EmbeddingFunc) (*VectorStore, error) {
	db := chromem.NewDB()
	collection, err := db.CreateCollection(service, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return &VectorStore{
		db:         db,
		collection: collection,
		service:    service,
	}, nil
}

// IndexChunks embeds and stores chunks. Existing ids are overwritten.
func (s *VectorStore) IndexChunks(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, chunk := range chunks {
		meta := map[string]string{"parent_id": chunk.ParentID}
		for k, v := range chunk.Meta {
			meta[k] = fmt.Sprintf("%v", v)
		}
		docs = append(docs, chromem.Document{
			ID:       chunk.ChunkID,
			Content:  chunk.Text,
			Metadata: meta,
		})
	}

	if err := s.collection.AddDocuments(ctx, docs, 2); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}
	slog.Debug("Indexed chunks", "service", s.service, "count", len(chunks))
	return nil
}

// Query performs a similarity search and wraps the matches in a Response
// suitable for the enhancement pipeline.
func (s *VectorStore) Query(ctx context.Context, request *Request) (*Response, error) {
	request.SetDefaults()

	count := s.collection.Count()
	if count == 0 {
		return &Response{Request: request, Service: s.service}, nil
	}

	n := request.TopK
	if n > count {
		n = count
	}

	matches, err := s.collection.Query(ctx, request.Query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	results := make([]ScoredResult, 0, len(matches))
	for _, match := range matches {
		meta := make(map[string]any, len(match.Metadata))
		for k, v := range match.Metadata {
			meta[k] = v
		}
		parentID, _ := meta["parent_id"].(string)
		delete(meta, "parent_id")

		results = append(results, ScoredResult{
			Match: Chunk{
				ChunkID:  match.ID,
				Text:     match.Content,
				ParentID: parentID,
				Meta:     meta,
			},
			Score: float64(match.Similarity),
		})
	}

	return &Response{
		Request: request,
		Service: s.service,
		Results: results,
	}, nil
}

// Count returns the number of indexed chunks.
func (s *VectorStore) Count() int {
	return s.collection.Count()
}
