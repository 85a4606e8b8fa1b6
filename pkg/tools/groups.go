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

package tools

import (
	"fmt"
	"log/slog"

	"github.com/goalith/goalith/pkg/registry"
)

// Group is a named bundle of tools that actions can require as a unit.
type Group struct {
	Name        string
	Description string
	Tools       []Tool
}

// GroupRegistry resolves tool-group names to their tools.
type GroupRegistry struct {
	*registry.BaseRegistry[*Group]
}

// NewGroupRegistry creates an empty group registry.
func NewGroupRegistry() *GroupRegistry {
	return &GroupRegistry{BaseRegistry: registry.NewBaseRegistry[*Group]()}
}

// RegisterGroup adds a group.
func (r *GroupRegistry) RegisterGroup(g *Group) error {
	if g == nil {
		return fmt.Errorf("group cannot be nil")
	}
	return r.Register(g.Name, g)
}

// Resolve returns the merged tools of the named groups, deduplicated by tool
// name in group order. Unknown group names are logged and skipped so a
// misconfigured action degrades instead of failing the run.
func (r *GroupRegistry) Resolve(names []string) []Tool {
	var lists [][]Tool
	for _, name := range names {
		group, ok := r.Get(name)
		if !ok {
			slog.Warn("Unknown tool group", "group", name)
			continue
		}
		lists = append(lists, group.Tools)
	}
	return Merge(lists...)
}
