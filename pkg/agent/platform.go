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

package agent

import (
	"log/slog"

	"github.com/goalith/goalith/pkg/dummy"
	"github.com/goalith/goalith/pkg/logger"
	"github.com/goalith/goalith/pkg/registry"
)

// Platform collects the scopes discovered from every registered domain
// type and answers the planner's queries over them.
type Platform struct {
	reader *Reader
	scopes *registry.BaseRegistry[*Scope]
	logger *slog.Logger
}

// NewPlatform creates a platform sharing one reader and dummy creator.
func NewPlatform(creator *dummy.Creator) *Platform {
	return &Platform{
		reader: NewReader(creator),
		scopes: registry.NewBaseRegistry[*Scope](),
		logger: logger.Get(),
	}
}

// Register reads an instance's metadata and, when it is agentic, records
// the resulting scope. Non-agentic or invalid instances are skipped
// without error so one bad registration cannot take down the platform.
func (p *Platform) Register(instance any, markers Markers) *Scope {
	scope := p.reader.Read(instance, markers)
	if scope == nil {
		return nil
	}
	if err := p.scopes.Register(scope.Name, scope); err != nil {
		p.logger.Warn("scope already registered, keeping the first", "scope", scope.Name)
		return nil
	}
	return scope
}

// Scope returns a registered scope by name.
func (p *Platform) Scope(name string) (*Scope, bool) {
	return p.scopes.Get(name)
}

// Scopes returns all registered scopes in registration order.
func (p *Platform) Scopes() []*Scope {
	return p.scopes.List()
}

// Actions returns every action across all scopes.
func (p *Platform) Actions() []*Action {
	var all []*Action
	for _, s := range p.scopes.List() {
		all = append(all, s.Actions...)
	}
	return all
}

// Goals returns every goal across all scopes.
func (p *Platform) Goals() []*Goal {
	var all []*Goal
	for _, s := range p.scopes.List() {
		all = append(all, s.Goals...)
	}
	return all
}

// Conditions returns every condition across all scopes.
func (p *Platform) Conditions() []*Condition {
	var all []*Condition
	for _, s := range p.scopes.List() {
		all = append(all, s.Conditions...)
	}
	return all
}
