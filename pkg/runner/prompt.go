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

package runner

import (
	"reflect"

	"github.com/goalith/goalith/pkg/llms"
	"github.com/goalith/goalith/pkg/tools"
)

// ObjectPrompt is the value an action method returns when it wants the
// framework to perform a model call on its behalf.
//
// Business logic never invokes the model directly: it describes the desired
// prompt and output shape, returns the ObjectPrompt, and the action invoker
// converts it into a real call. An ObjectPrompt reaching any other consumer
// is a framework bug.
type ObjectPrompt struct {
	// Text is the prompt.
	Text string

	// Options overrides the ambient model options for this call. Explicit
	// options win over context-level ones.
	Options *llms.Options

	// ToolGroups names tool groups to expose to the model, merged with the
	// invocation context's groups.
	ToolGroups []string

	// Tools are additional tool instances to expose, merged by name with
	// group tools. Explicit instances win.
	Tools []tools.Tool

	// OutputType is the Go type the model response is bound to.
	OutputType reflect.Type

	// RequireResult controls failure behavior: when false, a failed model
	// call yields no value instead of an error.
	RequireResult bool
}

// PromptFor describes a model call producing a value of type T. The result
// is required by default.
func PromptFor[T any](text string) *ObjectPrompt {
	return &ObjectPrompt{
		Text:          text,
		OutputType:    reflect.TypeOf((*T)(nil)).Elem(),
		RequireResult: true,
	}
}

// WithOptions sets per-call model options.
func (p *ObjectPrompt) WithOptions(opts *llms.Options) *ObjectPrompt {
	p.Options = opts
	return p
}

// WithToolGroups names tool groups to expose.
func (p *ObjectPrompt) WithToolGroups(groups ...string) *ObjectPrompt {
	p.ToolGroups = append(p.ToolGroups, groups...)
	return p
}

// WithTools adds tool instances to expose.
func (p *ObjectPrompt) WithTools(ts ...tools.Tool) *ObjectPrompt {
	p.Tools = append(p.Tools, ts...)
	return p
}

// Optional marks the result as best-effort: model failure produces no value
// rather than an error.
func (p *ObjectPrompt) Optional() *ObjectPrompt {
	p.RequireResult = false
	return p
}

// ConditionPrompt is the condition-method sibling of ObjectPrompt: it asks
// the model to evaluate a yes/no question about process state.
type ConditionPrompt struct {
	// Text is the question.
	Text string

	// Options overrides the ambient model options for this call.
	Options *llms.Options
}

// ConditionFor describes a model-evaluated condition.
func ConditionFor(text string) *ConditionPrompt {
	return &ConditionPrompt{Text: text}
}

// WithOptions sets per-call model options.
func (p *ConditionPrompt) WithOptions(opts *llms.Options) *ConditionPrompt {
	p.Options = opts
	return p
}
