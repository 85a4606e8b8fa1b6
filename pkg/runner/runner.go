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

// Package runner implements the prompt runner: the long-lived,
// immutable-per-configuration façade over model invocation. It applies
// contributors, few-shot examples, and tool bindings, and binds structured
// output to Go types.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"

	"github.com/goalith/goalith/pkg/dummy"
	"github.com/goalith/goalith/pkg/llms"
	"github.com/goalith/goalith/pkg/tools"
)

// Contributor supplies a fragment of ambient system-prompt context:
// persona, constraints, house style.
type Contributor interface {
	Contribution() string
}

// ContributorFunc adapts a function to Contributor.
type ContributorFunc func() string

// Contribution implements Contributor.
func (f ContributorFunc) Contribution() string { return f() }

// Runner performs model calls for actions and conditions.
//
// A Runner is immutable: every With* method returns a modified copy, so a
// configured Runner can be shared freely across goroutines and
// invocations.
type Runner struct {
	llm          llms.Provider
	options      *llms.Options
	toolset      []tools.Tool
	contributors []Contributor
	creator      *dummy.Creator
	renderer     Renderer
	maxToolTurns int
	bindAttempts int
	generateHint bool
}

// New creates a Runner over the given provider.
func New(llm llms.Provider) *Runner {
	return &Runner{
		llm:          llm,
		maxToolTurns: 8,
		bindAttempts: 3,
		generateHint: true,
	}
}

func (r *Runner) clone() *Runner {
	c := *r
	c.toolset = append([]tools.Tool(nil), r.toolset...)
	c.contributors = append([]Contributor(nil), r.contributors...)
	return &c
}

// WithOptions returns a copy using the given model options.
func (r *Runner) WithOptions(opts *llms.Options) *Runner {
	c := r.clone()
	c.options = opts
	return c
}

// WithTools returns a copy exposing additional tools, deduplicated by name.
// Tools added earlier win on conflicts.
func (r *Runner) WithTools(ts ...tools.Tool) *Runner {
	c := r.clone()
	c.toolset = tools.Merge(c.toolset, ts)
	return c
}

// WithContributors returns a copy with additional prompt contributors.
func (r *Runner) WithContributors(cs ...Contributor) *Runner {
	c := r.clone()
	c.contributors = append(c.contributors, cs...)
	return c
}

// WithExampleGeneration returns a copy with dummy-instance few-shot example
// generation, using the given creator. A nil creator disables examples.
func (r *Runner) WithExampleGeneration(creator *dummy.Creator) *Runner {
	c := r.clone()
	c.creator = creator
	return c
}

// WithRenderer returns a copy that can run prompts from the renderer's
// registered templates.
func (r *Runner) WithRenderer(renderer Renderer) *Runner {
	c := r.clone()
	c.renderer = renderer
	return c
}

// WithBindAttempts returns a copy with the given structured-output binding
// attempt budget.
func (r *Runner) WithBindAttempts(attempts int) *Runner {
	c := r.clone()
	if attempts > 0 {
		c.bindAttempts = attempts
	}
	return c
}

// Tools returns the runner's tool bindings.
func (r *Runner) Tools() []tools.Tool {
	return append([]tools.Tool(nil), r.toolset...)
}

// CreateObject performs a model call and binds the JSON response to a value
// of type T.
func CreateObject[T any](ctx context.Context, r *Runner, prompt string) (T, error) {
	var zero T
	result, err := r.CreateObjectOfType(ctx, prompt, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("bound value is %T, not %T", result, zero)
	}
	return typed, nil
}

// CreateObjectOfType performs a model call and binds the JSON response to a
// value of the given type.
//
// The prompt is augmented with the output schema and, when example
// generation is configured, one synthesized example. Malformed model output
// is retried with corrective feedback up to the binding attempt budget;
// exhaustion surfaces the last parse failure.
func (r *Runner) CreateObjectOfType(ctx context.Context, prompt string, outputType reflect.Type) (any, error) {
	messages := r.systemMessages()
	messages = append(messages, llms.Message{
		Role:    llms.RoleUser,
		Content: r.objectInstruction(prompt, outputType),
	})

	opts := &llms.Options{JSONOutput: true, Tools: tools.Definitions(r.toolset)}
	opts = opts.Merge(r.options)

	var lastErr error
	for attempt := 0; attempt < r.bindAttempts; attempt++ {
		text, err := r.converse(ctx, messages, opts)
		if err != nil {
			return nil, err
		}

		value, bindErr := bindJSON(text, outputType)
		if bindErr == nil {
			return value, nil
		}
		lastErr = bindErr

		slog.Debug("Structured output binding failed, retrying",
			"attempt", attempt+1, "error", bindErr)
		messages = append(messages,
			llms.Message{Role: llms.RoleAssistant, Content: text},
			llms.Message{
				Role:    llms.RoleUser,
				Content: fmt.Sprintf("That response could not be parsed: %v. Respond again with only valid JSON matching the schema.", bindErr),
			})
	}

	return nil, fmt.Errorf("failed to bind model output after %d attempts: %w", r.bindAttempts, lastErr)
}

// GenerateText performs a plain text model call.
func (r *Runner) GenerateText(ctx context.Context, prompt string) (string, error) {
	messages := r.systemMessages()
	messages = append(messages, llms.Message{Role: llms.RoleUser, Content: prompt})

	opts := (&llms.Options{Tools: tools.Definitions(r.toolset)}).Merge(r.options)
	return r.converse(ctx, messages, opts)
}

// GenerateFromTemplate renders the named template with vars and performs a
// plain text call with the result.
func (r *Runner) GenerateFromTemplate(ctx context.Context, templateName string, vars map[string]any) (string, error) {
	if r.renderer == nil {
		return "", fmt.Errorf("no template renderer configured")
	}
	prompt, err := r.renderer.Render(templateName, vars)
	if err != nil {
		return "", err
	}
	return r.GenerateText(ctx, prompt)
}

// Evaluate asks the model a yes/no question about process state.
func (r *Runner) Evaluate(ctx context.Context, question string) (bool, error) {
	messages := r.systemMessages()
	messages = append(messages, llms.Message{
		Role:    llms.RoleUser,
		Content: question + "\n\nAnswer with a single word: true or false.",
	})

	temp := 0.0
	opts := (&llms.Options{Temperature: &temp}).Merge(r.options)
	text, err := r.converse(ctx, messages, opts)
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(strings.Trim(text, ".!\"'"))) {
	case "true", "yes":
		return true, nil
	case "false", "no":
		return false, nil
	default:
		return false, fmt.Errorf("condition evaluation returned %q, expected true or false", text)
	}
}

// converse runs the generation loop, executing tool calls until the model
// produces a final text response or the turn budget runs out.
func (r *Runner) converse(ctx context.Context, messages []llms.Message, opts *llms.Options) (string, error) {
	for turn := 0; turn <= r.maxToolTurns; turn++ {
		result, err := r.llm.Generate(ctx, messages, opts)
		if err != nil {
			return "", err
		}
		if len(result.ToolCalls) == 0 {
			return result.Text, nil
		}

		messages = append(messages, llms.Message{
			Role:      llms.RoleAssistant,
			Content:   result.Text,
			ToolCalls: result.ToolCalls,
		})
		for _, call := range result.ToolCalls {
			output := r.executeTool(ctx, call)
			messages = append(messages, llms.Message{
				Role:       llms.RoleTool,
				Content:    output,
				ToolCallID: call.ID,
			})
		}
	}
	return "", fmt.Errorf("model did not produce a final response within %d tool turns", r.maxToolTurns)
}

func (r *Runner) executeTool(ctx context.Context, call llms.ToolCall) string {
	for _, t := range r.toolset {
		if t.Name() != call.Name {
			continue
		}
		output, err := t.Call(ctx, call.Arguments)
		if err != nil {
			slog.Warn("Tool call failed", "tool", call.Name, "error", err)
			return fmt.Sprintf("error: %v", err)
		}
		return output
	}
	slog.Warn("Model requested unknown tool", "tool", call.Name)
	return fmt.Sprintf("error: unknown tool %q", call.Name)
}

func (r *Runner) systemMessages() []llms.Message {
	var parts []string
	for _, c := range r.contributors {
		if contribution := strings.TrimSpace(c.Contribution()); contribution != "" {
			parts = append(parts, contribution)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return []llms.Message{{Role: llms.RoleSystem, Content: strings.Join(parts, "\n\n")}}
}

// objectInstruction appends the output schema and an optional synthesized
// example to the user prompt.
func (r *Runner) objectInstruction(prompt string, outputType reflect.Type) string {
	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString("\n\nRespond with a single JSON object.")

	if schema := schemaJSON(outputType); schema != "" {
		sb.WriteString("\nThe response must match this JSON schema:\n")
		sb.WriteString(schema)
	}
	if r.creator != nil && r.generateHint {
		if example := r.exampleJSON(outputType); example != "" {
			sb.WriteString("\nExample of the expected shape (values are placeholders):\n")
			sb.WriteString(example)
		}
	}
	return sb.String()
}

func (r *Runner) exampleJSON(outputType reflect.Type) string {
	instance, err := r.creator.InstanceOf(outputType)
	if err != nil {
		slog.Debug("Example generation failed", "type", outputType.String(), "error", err)
		return ""
	}
	data, err := json.Marshal(instance)
	if err != nil {
		return ""
	}
	return string(data)
}

func schemaJSON(outputType reflect.Type) string {
	t := outputType
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return ""
	}

	reflector := jsonschema.Reflector{DoNotReference: true, Anonymous: true}
	schema := reflector.ReflectFromType(t)
	data, err := schema.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(data)
}

// bindJSON parses model output into a value of the target type. The JSON is
// decoded into a generic form first and then mapped with weak typing, which
// tolerates the type sloppiness models produce (numbers as strings, ints as
// floats).
func bindJSON(text string, outputType reflect.Type) (any, error) {
	payload := extractJSON(text)
	if payload == "" {
		return nil, fmt.Errorf("no JSON found in model output")
	}

	t := outputType
	isPointer := t.Kind() == reflect.Pointer
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	target := reflect.New(t)

	if t.Kind() == reflect.Struct {
		var generic map[string]any
		if err := json.Unmarshal([]byte(payload), &generic); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           target.Interface(),
			TagName:          "json",
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(generic); err != nil {
			return nil, fmt.Errorf("output does not match expected shape: %w", err)
		}
	} else {
		if err := json.Unmarshal([]byte(payload), target.Interface()); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	if isPointer {
		return target.Interface(), nil
	}
	return target.Elem().Interface(), nil
}

// extractJSON pulls the outermost JSON object or array out of model text
// that may carry prose or code fences around it.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = strings.TrimPrefix(text[idx+3:], "json")
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
		text = strings.TrimSpace(text)
	}

	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(text, pair[0])
		end := strings.LastIndex(text, pair[1])
		if start >= 0 && end > start {
			return text[start : end+1]
		}
	}
	return ""
}
