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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weatherInput struct {
	City string `json:"city"`
	Days int    `json:"days,omitempty"`
}

func weatherTool() Tool {
	return NewFunc("weather", "Forecast the weather",
		func(ctx context.Context, input weatherInput) (string, error) {
			return "sunny in " + input.City, nil
		})
}

func TestFuncToolSchema(t *testing.T) {
	tool := weatherTool()

	assert.Equal(t, "weather", tool.Name())
	assert.Equal(t, "Forecast the weather", tool.Description())

	schema := tool.InputSchema()
	require.NotNil(t, schema)
	assert.Equal(t, "object", schema["type"])
	assert.NotContains(t, schema, "$schema")

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok, "schema has no properties: %v", schema)
	assert.Contains(t, props, "city")
	assert.Contains(t, props, "days")
}

func TestFuncToolCall(t *testing.T) {
	tool := weatherTool()

	out, err := tool.Call(context.Background(), `{"city": "Oslo"}`)
	require.NoError(t, err)
	assert.Equal(t, "sunny in Oslo", out)

	// Empty input decodes to the zero value.
	out, err = tool.Call(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "sunny in ", out)

	_, err = tool.Call(context.Background(), "{not json")
	assert.Error(t, err)
}

func TestDefinitions(t *testing.T) {
	defs := Definitions([]Tool{weatherTool()})
	require.Len(t, defs, 1)
	assert.Equal(t, "weather", defs[0].Name)
	assert.NotNil(t, defs[0].Parameters)
}

func TestMergeDeduplicatesByName(t *testing.T) {
	first := NewFunc("dup", "first wins",
		func(ctx context.Context, _ struct{}) (string, error) { return "first", nil })
	second := NewFunc("dup", "second loses",
		func(ctx context.Context, _ struct{}) (string, error) { return "second", nil })
	other := weatherTool()

	merged := Merge([]Tool{first}, []Tool{second, other}, nil)
	require.Len(t, merged, 2)
	assert.Equal(t, "first wins", merged[0].Description())
	assert.Equal(t, "weather", merged[1].Name())
}

func TestGroupRegistryResolve(t *testing.T) {
	r := NewGroupRegistry()
	require.NoError(t, r.RegisterGroup(&Group{Name: "forecasting", Tools: []Tool{weatherTool()}}))
	require.Error(t, r.RegisterGroup(&Group{Name: "forecasting"}), "duplicate group names are rejected")

	resolved := r.Resolve([]string{"forecasting", "no-such-group"})
	require.Len(t, resolved, 1, "unknown groups are skipped, not fatal")
	assert.Equal(t, "weather", resolved[0].Name())

	assert.Empty(t, r.Resolve(nil))
}
