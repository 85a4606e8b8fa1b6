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

// Package tools implements the tool callback capability: named,
// schema-described functions exposed to the model during generation.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/goalith/goalith/pkg/llms"
)

// Tool is a callable capability exposed to the model.
type Tool interface {
	// Name returns the unique tool name.
	Name() string

	// Description explains the tool to the model.
	Description() string

	// InputSchema returns the JSON schema of the tool's input object.
	InputSchema() map[string]any

	// Call executes the tool with a JSON-encoded input and returns its
	// textual output.
	Call(ctx context.Context, inputJSON string) (string, error)
}

// Provider is implemented by domain types that expose tool callbacks. The
// metadata reader discovers these by synthesizing a dummy instance of a
// parameter type and asking it for its tools.
type Provider interface {
	Tools() []Tool
}

// FuncTool adapts a typed Go function into a Tool. The input schema is
// reflected from T.
type FuncTool[T any] struct {
	name        string
	description string
	schema      map[string]any
	fn          func(ctx context.Context, input T) (string, error)
}

// NewFunc creates a FuncTool for fn, reflecting the input schema from T.
func NewFunc[T any](name, description string, fn func(ctx context.Context, input T) (string, error)) *FuncTool[T] {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	var zero T
	schema := reflector.Reflect(&zero)

	raw, err := schema.MarshalJSON()
	if err != nil {
		raw = []byte(`{"type":"object"}`)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(raw, &schemaMap); err != nil {
		schemaMap = map[string]any{"type": "object"}
	}
	delete(schemaMap, "$schema")

	return &FuncTool[T]{
		name:        name,
		description: description,
		schema:      schemaMap,
		fn:          fn,
	}
}

// Name implements Tool.
func (t *FuncTool[T]) Name() string { return t.name }

// Description implements Tool.
func (t *FuncTool[T]) Description() string { return t.description }

// InputSchema implements Tool.
func (t *FuncTool[T]) InputSchema() map[string]any { return t.schema }

// Call implements Tool.
func (t *FuncTool[T]) Call(ctx context.Context, inputJSON string) (string, error) {
	var input T
	if inputJSON != "" {
		if err := json.Unmarshal([]byte(inputJSON), &input); err != nil {
			return "", fmt.Errorf("tool %s: invalid input: %w", t.name, err)
		}
	}
	return t.fn(ctx, input)
}

// Definitions converts tools into the wire form the model layer expects.
func Definitions(ts []Tool) []llms.ToolDefinition {
	defs := make([]llms.ToolDefinition, 0, len(ts))
	for _, t := range ts {
		defs = append(defs, llms.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.InputSchema(),
		})
	}
	return defs
}

// Merge combines tool lists, deduplicating by name. Earlier lists win, so
// callers pass explicitly-requested tools before ambient ones.
func Merge(lists ...[]Tool) []Tool {
	var merged []Tool
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, t := range list {
			if t == nil || seen[t.Name()] {
				continue
			}
			seen[t.Name()] = true
			merged = append(merged, t)
		}
	}
	return merged
}
