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

// Package rag provides retrieval-augmented generation support: document
// chunking, an embedded vector store, and an enhancement pipeline that
// adapts retrieval responses before they reach the model.
package rag

// Retrievable is a unit of retrievable knowledge. Every Retrievable has a
// stable id and a text rendition used for similarity search.
type Retrievable interface {
	// ID returns the stable identifier.
	ID() string

	// EmbeddableValue returns the text used for embedding and similarity
	// search.
	EmbeddableValue() string

	// Metadata returns auxiliary key/value data. May be nil.
	Metadata() map[string]any
}

// Chunk is a bounded piece of document text.
type Chunk struct {
	// ChunkID uniquely identifies the chunk.
	ChunkID string `json:"id"`

	// Text is the chunk content, trimmed.
	Text string `json:"text"`

	// ParentID links to the originating leaf or container section.
	ParentID string `json:"parent_id,omitempty"`

	// Meta carries source metadata plus chunk_index / total_chunks within
	// the originating group.
	Meta map[string]any `json:"metadata,omitempty"`
}

// ID implements Retrievable.
func (c Chunk) ID() string { return c.ChunkID }

// EmbeddableValue implements Retrievable.
func (c Chunk) EmbeddableValue() string { return c.Text }

// Metadata implements Retrievable.
func (c Chunk) Metadata() map[string]any { return c.Meta }

// EntityData is a fact-like retrievable record: a labeled entity with named
// properties.
type EntityData struct {
	EntityID   string         `json:"id"`
	Labels     []string       `json:"labels,omitempty"`
	Name       string         `json:"name"`
	Descriptor string         `json:"description,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// ID implements Retrievable.
func (e EntityData) ID() string { return e.EntityID }

// EmbeddableValue implements Retrievable.
func (e EntityData) EmbeddableValue() string {
	if e.Descriptor != "" {
		return e.Name + ": " + e.Descriptor
	}
	return e.Name
}

// Metadata implements Retrievable.
func (e EntityData) Metadata() map[string]any { return e.Properties }

// ScoredResult pairs a Retrievable with its similarity score.
type ScoredResult struct {
	Match Retrievable
	Score float64
}

// Request is a retrieval query.
type Request struct {
	// Query is the search text.
	Query string

	// Threshold drops results scoring below it (0..1).
	Threshold float64

	// TopK caps the result count. Zero means 10.
	TopK int

	// Labels optionally restricts results to entities carrying one of the
	// labels.
	Labels []string
}

// SetDefaults applies request defaults.
func (r *Request) SetDefaults() {
	if r.TopK <= 0 {
		r.TopK = 10
	}
}

// Response is an immutable retrieval response. Each enhancement stage
// produces a new Response that references its predecessor.
type Response struct {
	// Request is the originating query.
	Request *Request

	// Service names the retrieval source that produced the initial
	// response.
	Service string

	// Results are ordered best-first.
	Results []ScoredResult

	// Enhancements lists the names of the stages applied so far, in order.
	Enhancements []string

	// Metrics carries optional per-stage quality metadata.
	Metrics map[string]any

	// Previous is the response this one was derived from, nil for the
	// initial retrieval.
	Previous *Response
}

// WithResults derives a new Response with the given results, recording the
// enhancement name and linking back to the receiver.
func (r *Response) WithResults(enhancement string, results []ScoredResult) *Response {
	enhancements := make([]string, 0, len(r.Enhancements)+1)
	enhancements = append(enhancements, r.Enhancements...)
	enhancements = append(enhancements, enhancement)

	return &Response{
		Request:      r.Request,
		Service:      r.Service,
		Results:      results,
		Enhancements: enhancements,
		Metrics:      r.Metrics,
		Previous:     r,
	}
}
