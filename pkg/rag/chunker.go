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
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/goalith/goalith/pkg/config"
)

// Chunker converts a section tree into bounded-size, overlapping chunks.
// Chunking is deterministic and order-preserving: leaves are consumed in
// depth-first document order.
type Chunker struct {
	maxChunkSize int
	overlapSize  int
	minChunkSize int
}

// NewChunker creates a chunker. The configuration is defaulted and
// validated; MinChunkSize is a threshold for whether multi-leaf splitting is
// worthwhile, not a floor on chunk size.
func NewChunker(cfg config.ChunkerConfig) (*Chunker, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunker config: %w", err)
	}
	return &Chunker{
		maxChunkSize: cfg.MaxChunkSize,
		overlapSize:  cfg.OverlapSize,
		minChunkSize: cfg.MinChunkSize,
	}, nil
}

// sentenceBoundary matches the whitespace after terminal punctuation.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// Chunk flattens the container into retrievable chunks.
//
// When the whole container fits within the chunk size, or is too small for
// splitting to be worthwhile, it becomes exactly one chunk. Otherwise
// consecutive leaves are grouped greedily up to the size limit, and any
// single leaf larger than the limit is split on paragraph, then sentence,
// then raw character boundaries, with an overlap fragment carried between
// successive pieces.
func (c *Chunker) Chunk(container *ContainerSection) []Chunk {
	leaves := container.Leaves()
	if len(leaves) == 0 {
		return nil
	}

	total := 0
	for _, leaf := range leaves {
		total += leaf.contentLength()
	}

	if total <= c.maxChunkSize || total < c.minChunkSize {
		if chunk, ok := c.combinedChunk(container, leaves); ok {
			return []Chunk{chunk}
		}
		return nil
	}

	var chunks []Chunk
	for _, group := range c.groupLeaves(leaves) {
		if len(group) == 1 && group[0].contentLength() > c.maxChunkSize {
			chunks = append(chunks, c.splitLeaf(container, group[0])...)
			continue
		}
		if chunk, ok := c.groupChunk(container, group); ok {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// groupLeaves greedily packs consecutive leaves into groups bounded by the
// chunk size. An oversized leaf always stands alone.
func (c *Chunker) groupLeaves(leaves []*LeafSection) [][]*LeafSection {
	var (
		groups  [][]*LeafSection
		current []*LeafSection
		size    int
	)
	const separator = 2 // blank line between leaves

	for _, leaf := range leaves {
		leafSize := leaf.contentLength()

		if leafSize > c.maxChunkSize {
			if len(current) > 0 {
				groups = append(groups, current)
				current = nil
				size = 0
			}
			groups = append(groups, []*LeafSection{leaf})
			continue
		}

		if len(current) > 0 && size+leafSize+separator > c.maxChunkSize {
			groups = append(groups, current)
			current = nil
			size = 0
		}
		if len(current) > 0 {
			size += separator
		}
		current = append(current, leaf)
		size += leafSize
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// combinedChunk renders all leaves into one chunk carrying per-leaf index
// metadata.
func (c *Chunker) combinedChunk(container *ContainerSection, leaves []*LeafSection) (Chunk, bool) {
	text := renderLeaves(leaves)
	if text == "" {
		return Chunk{}, false
	}

	meta := c.baseMetadata(container)
	for i, leaf := range leaves {
		meta[fmt.Sprintf("leaf_%d_id", i)] = leaf.ID
		meta[fmt.Sprintf("leaf_%d_title", i)] = leaf.Name
	}
	meta["chunk_index"] = 0
	meta["total_chunks"] = 1

	return Chunk{
		ChunkID:  uuid.NewString(),
		Text:     text,
		ParentID: container.ID,
		Meta:     meta,
	}, true
}

// groupChunk renders a leaf group into one chunk.
func (c *Chunker) groupChunk(container *ContainerSection, group []*LeafSection) (Chunk, bool) {
	text := renderLeaves(group)
	if text == "" {
		return Chunk{}, false
	}

	meta := c.baseMetadata(container)
	for i, leaf := range group {
		meta[fmt.Sprintf("leaf_%d_id", i)] = leaf.ID
		meta[fmt.Sprintf("leaf_%d_title", i)] = leaf.Name
	}
	meta["chunk_index"] = 0
	meta["total_chunks"] = 1

	return Chunk{
		ChunkID:  uuid.NewString(),
		Text:     text,
		ParentID: container.ID,
		Meta:     meta,
	}, true
}

// splitLeaf breaks an oversized leaf on paragraph, then sentence, then raw
// character boundaries, and stitches an overlap fragment onto every piece
// after the first.
func (c *Chunker) splitLeaf(container *ContainerSection, leaf *LeafSection) []Chunk {
	pieces := c.splitText(leaf.Text)

	var texts []string
	for i, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		if i > 0 && c.overlapSize > 0 && len(texts) > 0 {
			overlap := overlapTail(texts[len(texts)-1], c.overlapSize)
			if overlap != "" && len(overlap)+1+len(piece) <= c.maxChunkSize {
				piece = overlap + " " + piece
			}
		}
		texts = append(texts, piece)
	}

	chunks := make([]Chunk, 0, len(texts))
	for i, text := range texts {
		meta := c.baseMetadata(container)
		meta["leaf_id"] = leaf.ID
		meta["leaf_title"] = leaf.Name
		meta["chunk_index"] = i
		meta["total_chunks"] = len(texts)

		chunks = append(chunks, Chunk{
			ChunkID:  uuid.NewString(),
			Text:     text,
			ParentID: leaf.ID,
			Meta:     meta,
		})
	}
	return chunks
}

// splitText cuts text into pieces no larger than maxChunkSize, preferring
// paragraph boundaries, then sentences, then raw characters.
func (c *Chunker) splitText(text string) []string {
	var pieces []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			pieces = append(pieces, current.String())
			current.Reset()
		}
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+2+len(paragraph) > c.maxChunkSize {
			flush()
		}

		if len(paragraph) <= c.maxChunkSize {
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(paragraph)
			continue
		}

		// Paragraph alone exceeds the limit: drop to sentences.
		flush()
		for _, sentence := range splitSentences(paragraph) {
			if len(sentence) > c.maxChunkSize {
				// Emergency fallback: raw character split.
				flush()
				for start := 0; start < len(sentence); start += c.maxChunkSize {
					end := start + c.maxChunkSize
					if end > len(sentence) {
						end = len(sentence)
					}
					pieces = append(pieces, sentence[start:end])
				}
				continue
			}
			if current.Len() > 0 && current.Len()+1+len(sentence) > c.maxChunkSize {
				flush()
			}
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(sentence)
		}
		flush()
	}
	flush()

	return pieces
}

func (c *Chunker) baseMetadata(container *ContainerSection) map[string]any {
	meta := map[string]any{
		"container_id":    container.ID,
		"container_title": container.Name,
	}
	if container.URI != "" {
		meta["uri"] = container.URI
	}
	return meta
}

// renderLeaves concatenates leaves as title+body blocks separated by blank
// lines, skipping blank leaves.
func renderLeaves(leaves []*LeafSection) string {
	var blocks []string
	for _, leaf := range leaves {
		var block string
		switch {
		case leaf.Name != "" && strings.TrimSpace(leaf.Text) != "":
			block = leaf.Name + "\n" + strings.TrimSpace(leaf.Text)
		case strings.TrimSpace(leaf.Text) != "":
			block = strings.TrimSpace(leaf.Text)
		case leaf.Name != "":
			block = leaf.Name
		default:
			continue
		}
		blocks = append(blocks, block)
	}
	return strings.TrimSpace(strings.Join(blocks, "\n\n"))
}

// splitSentences splits on terminal punctuation followed by whitespace,
// keeping the punctuation with the preceding sentence.
func splitSentences(text string) []string {
	boundaries := sentenceBoundary.FindAllStringIndex(text, -1)
	if len(boundaries) == 0 {
		return []string{text}
	}

	var sentences []string
	start := 0
	for _, b := range boundaries {
		// b[0] is the punctuation character; cut just after it.
		end := b[0] + 1
		sentence := strings.TrimSpace(text[start:end])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = b[1]
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// overlapTail returns the trailing fragment of text, at most budget
// characters, trimmed back to a sentence boundary when one exists in the
// window and to a word boundary otherwise.
func overlapTail(text string, budget int) string {
	if budget <= 0 || text == "" {
		return ""
	}
	if len(text) <= budget {
		return text
	}

	window := text[len(text)-budget:]

	if loc := sentenceBoundary.FindAllStringIndex(window, -1); len(loc) > 0 {
		last := loc[len(loc)-1]
		return strings.TrimSpace(window[last[1]:])
	}
	if idx := strings.IndexAny(window, " \t\n"); idx >= 0 {
		return strings.TrimSpace(window[idx:])
	}
	return strings.TrimSpace(window)
}
