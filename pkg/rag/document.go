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
	"strings"

	"github.com/google/uuid"
)

// Section is a node in a document structure tree. Only leaves carry raw
// text; container nodes aggregate through their children.
type Section interface {
	SectionID() string
	Title() string
}

// ContainerSection groups child sections under a title.
type ContainerSection struct {
	ID       string
	Name     string
	URI      string
	Children []Section
}

// SectionID implements Section.
func (s *ContainerSection) SectionID() string { return s.ID }

// Title implements Section.
func (s *ContainerSection) Title() string { return s.Name }

// Leaves returns all leaf sections under s, depth-first, preserving
// document order.
func (s *ContainerSection) Leaves() []*LeafSection {
	var leaves []*LeafSection
	for _, child := range s.Children {
		switch c := child.(type) {
		case *LeafSection:
			leaves = append(leaves, c)
		case *ContainerSection:
			leaves = append(leaves, c.Leaves()...)
		}
	}
	return leaves
}

// LeafSection carries the actual document text.
type LeafSection struct {
	ID   string
	Name string
	Text string
}

// SectionID implements Section.
func (s *LeafSection) SectionID() string { return s.ID }

// Title implements Section.
func (s *LeafSection) Title() string { return s.Name }

// contentLength is the leaf's contribution to total container size: text
// plus title plus one separator character.
func (s *LeafSection) contentLength() int {
	return len(s.Text) + len(s.Name) + 1
}

// ParseMarkdown builds a section tree from markdown-ish text. Headings open
// new leaves; text before any heading lands in an untitled leaf. This is
// deliberately simple: it exists to feed the chunker, not to be a markdown
// parser.
func ParseMarkdown(title, uri, content string) *ContainerSection {
	root := &ContainerSection{
		ID:   uuid.NewString(),
		Name: title,
		URI:  uri,
	}

	var (
		currentTitle string
		currentBody  strings.Builder
	)
	flush := func() {
		body := strings.TrimSpace(currentBody.String())
		if body == "" && currentTitle == "" {
			return
		}
		root.Children = append(root.Children, &LeafSection{
			ID:   uuid.NewString(),
			Name: currentTitle,
			Text: body,
		})
		currentBody.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "#") {
			flush()
			currentTitle = strings.TrimSpace(strings.TrimLeft(line, "# "))
			continue
		}
		currentBody.WriteString(line)
		currentBody.WriteString("\n")
	}
	flush()

	return root
}
