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

// Package llms implements the model invocation capability: a narrow provider
// contract plus OpenAI-compatible and Ollama HTTP implementations, wrapped
// with retry, timeout, and instrumentation.
package llms

import (
	"context"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single prompt message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolCalls echoes the model's tool requests on assistant messages.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a tool-role message to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCall is a model request to invoke a named tool.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition describes a tool exposed to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Options tunes a single generation call. A nil Options means provider
// defaults. Explicitly set fields win over the provider configuration.
type Options struct {
	// Model overrides the configured model for this call.
	Model string

	// Temperature overrides the sampling temperature.
	Temperature *float64

	// MaxTokens overrides the completion length cap.
	MaxTokens int

	// JSONOutput requests a JSON-only response where the provider supports
	// response formats.
	JSONOutput bool

	// Tools are exposed to the model for invocation during generation.
	Tools []ToolDefinition
}

// Merge returns a copy of o with unset fields filled from fallback. Either
// argument may be nil.
func (o *Options) Merge(fallback *Options) *Options {
	if o == nil {
		if fallback == nil {
			return nil
		}
		merged := *fallback
		return &merged
	}
	merged := *o
	if fallback != nil {
		if merged.Model == "" {
			merged.Model = fallback.Model
		}
		if merged.Temperature == nil {
			merged.Temperature = fallback.Temperature
		}
		if merged.MaxTokens == 0 {
			merged.MaxTokens = fallback.MaxTokens
		}
		if !merged.JSONOutput {
			merged.JSONOutput = fallback.JSONOutput
		}
		if len(merged.Tools) == 0 {
			merged.Tools = fallback.Tools
		}
	}
	return &merged
}

// Result is a completed generation.
type Result struct {
	// Text is the generated completion.
	Text string

	// ToolCalls are tool invocations the model requested instead of, or in
	// addition to, text.
	ToolCalls []ToolCall

	// InputTokens and OutputTokens report usage when the provider supplies
	// it, zero otherwise.
	InputTokens  int
	OutputTokens int
}

// Provider generates completions. Implementations are safe for concurrent
// use.
type Provider interface {
	// Generate produces a completion for the given messages.
	Generate(ctx context.Context, messages []Message, opts *Options) (*Result, error)

	// ModelName returns the configured model identifier.
	ModelName() string

	// Close releases provider resources.
	Close() error
}
