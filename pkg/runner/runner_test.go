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
	"context"
	"strings"
	"testing"

	"github.com/goalith/goalith/pkg/dummy"
	"github.com/goalith/goalith/pkg/llms"
	"github.com/goalith/goalith/pkg/tools"
)

// scriptedProvider replays canned results in order, repeating the last one.
// It records every conversation it sees.
type scriptedProvider struct {
	results  []llms.Result
	calls    int
	seen     [][]llms.Message
	lastOpts *llms.Options
}

func (s *scriptedProvider) Generate(ctx context.Context, messages []llms.Message, opts *llms.Options) (*llms.Result, error) {
	s.calls++
	s.seen = append(s.seen, append([]llms.Message(nil), messages...))
	s.lastOpts = opts

	idx := s.calls - 1
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	result := s.results[idx]
	return &result, nil
}

func (s *scriptedProvider) ModelName() string { return "scripted" }
func (s *scriptedProvider) Close() error      { return nil }

func textResults(texts ...string) []llms.Result {
	results := make([]llms.Result, len(texts))
	for i, t := range texts {
		results[i] = llms.Result{Text: t}
	}
	return results
}

type recipe struct {
	Name     string `json:"name"`
	Servings int    `json:"servings"`
}

func TestRunnerIsImmutable(t *testing.T) {
	base := New(&scriptedProvider{results: textResults("ok")})

	echo := tools.NewFunc("echo", "Echo input",
		func(ctx context.Context, input struct {
			Text string `json:"text"`
		}) (string, error) {
			return input.Text, nil
		})

	derived := base.WithTools(echo).WithOptions(&llms.Options{Model: "other"})
	if len(base.Tools()) != 0 {
		t.Errorf("base runner gained tools: %d", len(base.Tools()))
	}
	if len(derived.Tools()) != 1 {
		t.Errorf("derived runner tools = %d, want 1", len(derived.Tools()))
	}
	if base.options != nil {
		t.Error("base runner options were mutated")
	}
}

func TestCreateObjectBindsJSON(t *testing.T) {
	provider := &scriptedProvider{results: textResults(`{"name": "soup", "servings": "4"}`)}
	r := New(provider)

	got, err := CreateObject[recipe](context.Background(), r, "Invent a soup recipe")
	if err != nil {
		t.Fatalf("CreateObject() error = %v", err)
	}
	// Weak typing tolerates the stringified number.
	if got.Name != "soup" || got.Servings != 4 {
		t.Errorf("CreateObject() = %+v", got)
	}
	if !provider.lastOpts.JSONOutput {
		t.Error("JSON output mode not requested")
	}
}

func TestCreateObjectExtractsFencedJSON(t *testing.T) {
	reply := "Here you go:\n```json\n{\"name\": \"stew\", \"servings\": 2}\n```\nEnjoy!"
	r := New(&scriptedProvider{results: textResults(reply)})

	got, err := CreateObject[recipe](context.Background(), r, "Invent a stew recipe")
	if err != nil {
		t.Fatalf("CreateObject() error = %v", err)
	}
	if got.Name != "stew" {
		t.Errorf("CreateObject() = %+v", got)
	}
}

func TestCreateObjectRetriesWithFeedback(t *testing.T) {
	provider := &scriptedProvider{results: textResults(
		"I would rather chat about recipes in prose.",
		`{"name": "salad", "servings": 1}`,
	)}
	r := New(provider)

	got, err := CreateObject[recipe](context.Background(), r, "Invent a salad recipe")
	if err != nil {
		t.Fatalf("CreateObject() error = %v", err)
	}
	if got.Name != "salad" {
		t.Errorf("CreateObject() = %+v", got)
	}
	if provider.calls != 2 {
		t.Fatalf("model calls = %d, want 2", provider.calls)
	}

	// The retry conversation carries corrective feedback.
	retry := provider.seen[1]
	last := retry[len(retry)-1]
	if last.Role != llms.RoleUser || !strings.Contains(last.Content, "could not be parsed") {
		t.Errorf("retry feedback = %+v", last)
	}
}

func TestCreateObjectExhaustsAttempts(t *testing.T) {
	provider := &scriptedProvider{results: textResults("never json")}
	r := New(provider).WithBindAttempts(2)

	if _, err := CreateObject[recipe](context.Background(), r, "anything"); err == nil {
		t.Fatal("CreateObject() succeeded on unparseable output")
	}
	if provider.calls != 2 {
		t.Errorf("model calls = %d, want the attempt budget of 2", provider.calls)
	}
}

func TestCreateObjectPointerTarget(t *testing.T) {
	r := New(&scriptedProvider{results: textResults(`{"name": "pie", "servings": 8}`)})

	got, err := CreateObject[*recipe](context.Background(), r, "Invent a pie recipe")
	if err != nil {
		t.Fatalf("CreateObject() error = %v", err)
	}
	if got == nil || got.Name != "pie" {
		t.Errorf("CreateObject() = %+v", got)
	}
}

func TestCreateObjectIncludesSchemaAndExample(t *testing.T) {
	provider := &scriptedProvider{results: textResults(`{"name": "cake", "servings": 6}`)}
	r := New(provider).WithExampleGeneration(dummy.NewCreator(dummy.WithSeed(7)))

	if _, err := CreateObject[recipe](context.Background(), r, "Invent a cake recipe"); err != nil {
		t.Fatalf("CreateObject() error = %v", err)
	}

	prompt := provider.seen[0][len(provider.seen[0])-1].Content
	if !strings.Contains(prompt, "JSON schema") {
		t.Error("prompt lacks the output schema")
	}
	if !strings.Contains(prompt, "Example of the expected shape") {
		t.Error("prompt lacks the synthesized example")
	}
}

func TestGenerateTextRunsToolLoop(t *testing.T) {
	provider := &scriptedProvider{results: []llms.Result{
		{ToolCalls: []llms.ToolCall{{ID: "t1", Name: "lookup", Arguments: `{"key": "x"}`}}},
		{Text: "the value is 42"},
	}}

	var invoked bool
	lookup := tools.NewFunc("lookup", "Look up a key",
		func(ctx context.Context, input struct {
			Key string `json:"key"`
		}) (string, error) {
			invoked = true
			return "42", nil
		})

	r := New(provider).WithTools(lookup)
	text, err := r.GenerateText(context.Background(), "look up x")
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}
	if text != "the value is 42" {
		t.Errorf("GenerateText() = %q", text)
	}
	if !invoked {
		t.Error("tool was never executed")
	}

	// The tool result went back as a tool-role message.
	second := provider.seen[1]
	last := second[len(second)-1]
	if last.Role != llms.RoleTool || last.Content != "42" || last.ToolCallID != "t1" {
		t.Errorf("tool reply = %+v", last)
	}
}

func TestContributorsFormSystemMessage(t *testing.T) {
	provider := &scriptedProvider{results: textResults("hi")}
	r := New(provider).WithContributors(
		ContributorFunc(func() string { return "You are terse." }),
		ContributorFunc(func() string { return "Answer in English." }),
	)

	if _, err := r.GenerateText(context.Background(), "hello"); err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}

	first := provider.seen[0][0]
	if first.Role != llms.RoleSystem {
		t.Fatalf("first message role = %s, want system", first.Role)
	}
	if !strings.Contains(first.Content, "terse") || !strings.Contains(first.Content, "English") {
		t.Errorf("system message = %q", first.Content)
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    bool
		wantErr bool
	}{
		{name: "plain true", reply: "true", want: true},
		{name: "capitalized with period", reply: "True.", want: true},
		{name: "yes", reply: "yes", want: true},
		{name: "false", reply: "false", want: false},
		{name: "no", reply: "No", want: false},
		{name: "prose", reply: "it depends on the weather", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&scriptedProvider{results: textResults(tt.reply)})
			got, err := r.Evaluate(context.Background(), "Is it ready?")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Evaluate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateFromTemplate(t *testing.T) {
	renderer := NewTemplateRenderer()
	if err := renderer.RegisterTemplate("ask", "Question about {{.topic}}: {{.question}}"); err != nil {
		t.Fatalf("RegisterTemplate() error = %v", err)
	}

	provider := &scriptedProvider{results: textResults("an answer")}
	r := New(provider).WithRenderer(renderer)

	text, err := r.GenerateFromTemplate(context.Background(), "ask",
		map[string]any{"topic": "tides", "question": "why twice a day?"})
	if err != nil {
		t.Fatalf("GenerateFromTemplate() error = %v", err)
	}
	if text != "an answer" {
		t.Errorf("GenerateFromTemplate() = %q", text)
	}

	// The model saw the rendered template, not the template source.
	prompt := provider.seen[0][len(provider.seen[0])-1].Content
	if prompt != "Question about tides: why twice a day?" {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestGenerateFromTemplateWithoutRenderer(t *testing.T) {
	r := New(&scriptedProvider{results: textResults("x")})
	if _, err := r.GenerateFromTemplate(context.Background(), "ask", nil); err == nil {
		t.Fatal("GenerateFromTemplate() succeeded without a renderer")
	}
}

func TestTemplateRenderer(t *testing.T) {
	r := NewTemplateRenderer()
	if err := r.RegisterTemplate("greet", "Hello {{.Name}}, welcome to {{.Place}}."); err != nil {
		t.Fatalf("RegisterTemplate() error = %v", err)
	}

	out, err := r.Render("greet", map[string]any{"Name": "Ada", "Place": "Goalith"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != "Hello Ada, welcome to Goalith." {
		t.Errorf("Render() = %q", out)
	}

	if _, err := r.Render("missing", nil); err == nil {
		t.Error("Render() found an unregistered template")
	}
}
