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
	"strings"
	"testing"

	"github.com/goalith/goalith/pkg/config"
)

func testChunker(t *testing.T, cfg config.ChunkerConfig) *Chunker {
	t.Helper()
	c, err := NewChunker(cfg)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}
	return c
}

// leaf builds an untitled leaf whose contentLength is exactly size.
func leaf(size int) *LeafSection {
	return &LeafSection{ID: "leaf", Text: strings.Repeat("a", size-1)}
}

func container(leaves ...*LeafSection) *ContainerSection {
	children := make([]Section, len(leaves))
	for i, l := range leaves {
		children[i] = l
	}
	return &ContainerSection{ID: "doc", Name: "Doc", Children: children}
}

func TestChunkEmptyContainer(t *testing.T) {
	c := testChunker(t, config.ChunkerConfig{})
	if chunks := c.Chunk(&ContainerSection{ID: "x", Name: "Empty"}); chunks != nil {
		t.Errorf("Chunk() = %v, want nil", chunks)
	}
}

func TestChunkSmallContainerIsSingleChunk(t *testing.T) {
	c := testChunker(t, config.ChunkerConfig{MaxChunkSize: 1500})

	chunks := c.Chunk(container(leaf(100), leaf(200), leaf(300)))
	if len(chunks) != 1 {
		t.Fatalf("Chunk() = %d chunks, want 1", len(chunks))
	}

	chunk := chunks[0]
	if chunk.ParentID != "doc" {
		t.Errorf("ParentID = %q, want the container id", chunk.ParentID)
	}
	if chunk.Meta["total_chunks"] != 1 || chunk.Meta["chunk_index"] != 0 {
		t.Errorf("Meta = %v", chunk.Meta)
	}
	if chunk.Meta["container_title"] != "Doc" {
		t.Errorf("container_title = %v", chunk.Meta["container_title"])
	}
}

func TestChunkGroupsConsecutiveLeaves(t *testing.T) {
	c := testChunker(t, config.ChunkerConfig{MaxChunkSize: 1500, MinChunkSize: 1500})

	// 100+200 fit together; adding 1300 would exceed the limit.
	chunks := c.Chunk(container(leaf(100), leaf(200), leaf(1300)))
	if len(chunks) != 2 {
		t.Fatalf("Chunk() = %d chunks, want 2", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk.Text) > 1500 {
			t.Errorf("chunk %d length = %d, exceeds the limit", i, len(chunk.Text))
		}
	}
}

func TestChunkBelowMinSizeStaysCombined(t *testing.T) {
	// 100+200+1300 exceeds maxChunkSize but falls under the default
	// minChunkSize of 2000, so splitting is not worthwhile.
	c := testChunker(t, config.ChunkerConfig{MaxChunkSize: 1500})

	chunks := c.Chunk(container(leaf(100), leaf(200), leaf(1300)))
	if len(chunks) != 1 {
		t.Fatalf("Chunk() = %d chunks, want 1 combined chunk", len(chunks))
	}
	if chunks[0].Meta["total_chunks"] != 1 {
		t.Errorf("Meta = %v", chunks[0].Meta)
	}
}

func TestChunkSplitsOversizedLeaf(t *testing.T) {
	c := testChunker(t, config.ChunkerConfig{MaxChunkSize: 300, MinChunkSize: 300, OverlapSize: 50})

	sentence := "The quick brown fox jumps over the lazy dog near the river bank. "
	big := &LeafSection{ID: "big", Name: "Big", Text: strings.Repeat(sentence, 20)}

	chunks := c.Chunk(container(big, leaf(290)))
	if len(chunks) < 3 {
		t.Fatalf("Chunk() = %d chunks, want several", len(chunks))
	}

	var splitCount int
	for i, chunk := range chunks {
		if len(chunk.Text) > 300 {
			t.Errorf("chunk %d length = %d, exceeds the limit", i, len(chunk.Text))
		}
		if chunk.ParentID == "big" {
			splitCount++
			if chunk.Meta["leaf_id"] != "big" {
				t.Errorf("chunk %d missing leaf metadata: %v", i, chunk.Meta)
			}
		}
	}
	if splitCount < 2 {
		t.Errorf("split chunks = %d, want at least 2", splitCount)
	}

	// Split chunk indexes count within the leaf.
	total := chunks[0].Meta["total_chunks"].(int)
	for i := 0; i < total; i++ {
		if chunks[i].Meta["chunk_index"] != i {
			t.Errorf("chunk_index = %v, want %d", chunks[i].Meta["chunk_index"], i)
		}
	}
}

func TestChunkCarriesOverlapBetweenSplitPieces(t *testing.T) {
	c := testChunker(t, config.ChunkerConfig{MaxChunkSize: 300, MinChunkSize: 300, OverlapSize: 30})

	// Two paragraphs that cannot share a piece; the second is small enough
	// that the overlap fragment fits alongside it.
	first := strings.TrimSpace(strings.Repeat("one two three four five six. ", 9))
	second := strings.TrimSpace(strings.Repeat("seven eight nine ten. ", 7))
	big := &LeafSection{ID: "big", Name: "Big", Text: first + "\n\n" + second}

	chunks := c.Chunk(container(big))
	if len(chunks) != 2 {
		t.Fatalf("Chunk() = %d chunks, want 2", len(chunks))
	}

	if !strings.HasPrefix(chunks[1].Text, "one two three four five six.") {
		t.Errorf("second chunk does not start with the overlap: %q", chunks[1].Text[:40])
	}
	if !strings.Contains(chunks[1].Text, "seven eight") {
		t.Errorf("second chunk lost its own content: %q", chunks[1].Text)
	}
}

func TestChunkPreservesAllContent(t *testing.T) {
	c := testChunker(t, config.ChunkerConfig{MaxChunkSize: 300, MinChunkSize: 300, OverlapSize: 50})

	var sentences []string
	for i := 0; i < 30; i++ {
		sentences = append(sentences, fmt.Sprintf("Sentence number %d ends here.", i))
	}
	big := &LeafSection{ID: "big", Text: strings.Join(sentences, " ")}
	small := &LeafSection{ID: "small", Text: "A standalone closing remark."}

	chunks := c.Chunk(container(big, small))
	if len(chunks) < 2 {
		t.Fatalf("Chunk() = %d chunks, want several", len(chunks))
	}

	var all strings.Builder
	for _, chunk := range chunks {
		all.WriteString(chunk.Text)
		all.WriteString("\n")
	}
	for _, s := range sentences {
		if !strings.Contains(all.String(), s) {
			t.Errorf("chunks lost %q", s)
		}
	}
	if !strings.Contains(all.String(), small.Text) {
		t.Errorf("chunks lost %q", small.Text)
	}
}

func TestChunkOutputIsStableUnderRechunking(t *testing.T) {
	producer := testChunker(t, config.ChunkerConfig{MaxChunkSize: 300, MinChunkSize: 300, OverlapSize: 50})
	again := testChunker(t, config.ChunkerConfig{MaxChunkSize: 300})

	sentence := "The quick brown fox jumps over the lazy dog near the river bank. "
	big := &LeafSection{ID: "big", Text: strings.Repeat(sentence, 20)}

	chunks := producer.Chunk(container(big))
	if len(chunks) < 2 {
		t.Fatalf("Chunk() = %d chunks, want several", len(chunks))
	}

	// Every produced chunk already fits the size bound, so chunking it
	// again yields the same text back.
	for i, chunk := range chunks {
		re := again.Chunk(container(&LeafSection{ID: chunk.ChunkID, Text: chunk.Text}))
		if len(re) != 1 {
			t.Fatalf("re-chunking chunk %d produced %d chunks, want 1", i, len(re))
		}
		if re[0].Text != strings.TrimSpace(chunk.Text) {
			t.Errorf("chunk %d text changed on re-chunking", i)
		}
	}
}

func TestChunkDeterministic(t *testing.T) {
	c := testChunker(t, config.ChunkerConfig{MaxChunkSize: 300, MinChunkSize: 300})
	doc := container(leaf(250), leaf(250), leaf(250))

	first := c.Chunk(doc)
	second := c.Chunk(doc)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Text != second[i].Text {
			t.Errorf("chunk %d text differs between runs", i)
		}
	}
}

func TestSplitSentencesKeepsPunctuation(t *testing.T) {
	got := splitSentences("First one. Second one! Third one? Tail without end")
	want := []string{"First one.", "Second one!", "Third one?", "Tail without end"}
	if len(got) != len(want) {
		t.Fatalf("splitSentences() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOverlapTail(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		budget int
		want   string
	}{
		{name: "zero budget", text: "anything", budget: 0, want: ""},
		{name: "text within budget", text: "short", budget: 100, want: "short"},
		{
			name:   "cuts at sentence boundary",
			text:   "A long first sentence sits here. The tail sentence.",
			budget: 30,
			want:   "The tail sentence.",
		},
		{
			name:   "cuts at word boundary",
			text:   "several plain words without punctuation marks",
			budget: 20,
			want:   "punctuation marks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overlapTail(tt.text, tt.budget); got != tt.want {
				t.Errorf("overlapTail(%q, %d) = %q, want %q", tt.text, tt.budget, got, tt.want)
			}
		})
	}
}

func TestParseMarkdown(t *testing.T) {
	content := "intro text\n\n# First\nbody one\n\n## Second\nbody two"
	root := ParseMarkdown("Guide", "file:///guide.md", content)

	if root.Name != "Guide" || root.URI != "file:///guide.md" {
		t.Errorf("root = %+v", root)
	}

	leaves := root.Leaves()
	if len(leaves) != 3 {
		t.Fatalf("Leaves() = %d, want 3", len(leaves))
	}
	if leaves[0].Name != "" || !strings.Contains(leaves[0].Text, "intro") {
		t.Errorf("preamble leaf = %+v", leaves[0])
	}
	if leaves[1].Name != "First" || leaves[2].Name != "Second" {
		t.Errorf("headings = %q, %q", leaves[1].Name, leaves[2].Name)
	}
}
