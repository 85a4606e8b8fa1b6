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
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// Renderer is the narrow template rendering capability the runner consumes.
type Renderer interface {
	Render(templateName string, vars map[string]any) (string, error)
}

// TemplateRenderer renders registered text/template templates.
type TemplateRenderer struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// NewTemplateRenderer creates an empty renderer.
func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{templates: make(map[string]*template.Template)}
}

// RegisterTemplate parses and stores a template under name.
func (r *TemplateRenderer) RegisterTemplate(name, text string) error {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse template %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[name] = tmpl
	return nil
}

// Render implements Renderer.
func (r *TemplateRenderer) Render(templateName string, vars map[string]any) (string, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[templateName]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("template %q not registered", templateName)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, vars); err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", templateName, err)
	}
	return sb.String(), nil
}
