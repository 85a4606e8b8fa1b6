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

package llms

import (
	"fmt"
	"time"

	"github.com/goalith/goalith/pkg/config"
	"github.com/goalith/goalith/pkg/registry"
)

// Registry manages named LLM provider instances.
type Registry struct {
	*registry.BaseRegistry[Provider]
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[Provider]()}
}

// CreateFromConfig builds a provider from configuration, wraps it with the
// resilience layer, and registers it under name.
func (r *Registry) CreateFromConfig(name string, cfg *config.LLMProviderConfig) (Provider, error) {
	if name == "" {
		return nil, fmt.Errorf("provider name cannot be empty")
	}
	if cfg == nil {
		return nil, fmt.Errorf("provider config cannot be nil")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid llm config: %w", err)
	}

	var (
		inner Provider
		err   error
	)
	switch cfg.Type {
	case "openai":
		inner, err = NewOpenAIProvider(cfg)
	case "ollama":
		inner, err = NewOllamaProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider type %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", name, err)
	}

	provider := WrapResilient(inner, RetryConfig{
		MaxRetries:  cfg.MaxRetries,
		BaseDelay:   time.Duration(cfg.RetryDelay) * time.Second,
		Exponential: cfg.RetryBackoff == "exponential",
	}, time.Duration(cfg.Timeout)*time.Second)

	if err := r.Register(name, provider); err != nil {
		return nil, err
	}
	return provider, nil
}

// GetProvider retrieves a provider by name.
func (r *Registry) GetProvider(name string) (Provider, error) {
	provider, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("llm provider %q not found", name)
	}
	return provider, nil
}
