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
	"reflect"
	"strings"

	"github.com/goalith/goalith/pkg/dummy"
	"github.com/goalith/goalith/pkg/logger"
	"github.com/goalith/goalith/pkg/tools"
)

var goalType = reflect.TypeOf(Goal{})

// Reader discovers agent metadata from registered instances. Validation
// failures never abort startup: a broken type or method is logged and
// skipped so the remaining platform keeps working.
type Reader struct {
	invoker *Invoker
	creator *dummy.Creator
	logger  *slog.Logger
}

// NewReader creates a reader. The creator is used to probe domain types
// for tool contributions; nil disables tool discovery.
func NewReader(creator *dummy.Creator) *Reader {
	return &Reader{
		invoker: NewInvoker(),
		creator: creator,
		logger:  logger.Get(),
	}
}

// Read validates the markers against the instance's method set and returns
// the discovered scope. It returns nil when the instance is not agentic,
// when its markers conflict, or when nothing usable was discovered.
func (r *Reader) Read(instance any, markers Markers) *Scope {
	typeName := reflect.TypeOf(instance).String()

	if markers.Agent != nil && markers.Capabilities != nil {
		r.logger.Warn("type declares both agent and capabilities markers, skipping",
			"type", typeName)
		return nil
	}
	if markers.Agent == nil && markers.Capabilities == nil {
		r.logger.Debug("type is not agentic", "type", typeName)
		return nil
	}

	scope := &Scope{Name: scopeName(instance, markers)}
	if markers.Agent != nil {
		if strings.TrimSpace(markers.Agent.Description) == "" {
			r.logger.Warn("agent marker has a blank description, skipping",
				"type", typeName)
			return nil
		}
		scope.Agent = &AgentInfo{
			Name:        scope.Name,
			Description: markers.Agent.Description,
			Version:     markers.Agent.Version,
			ToolGroups:  markers.Agent.ToolGroups,
		}
	}

	for _, gm := range markers.Goals {
		goal, ok := r.readGoal(instance, gm)
		if !ok {
			continue
		}
		scope.Goals = append(scope.Goals, goal)
	}

	for _, am := range markers.Actions {
		action, err := r.invoker.CreateAction(instance, am)
		if err != nil {
			r.logger.Warn("skipping invalid action method",
				"type", typeName, "method", am.Method, "error", err)
			continue
		}
		scope.Actions = append(scope.Actions, action)
		if am.AchievesGoal {
			scope.Goals = append(scope.Goals, &Goal{
				Name:        action.Name,
				Description: action.Description,
				Pre:         []string{action.HasRunCondition()},
				Value:       am.GoalValue,
			})
		}
	}

	for _, cm := range markers.Conditions {
		cond, err := r.invoker.CreateCondition(instance, cm)
		if err != nil {
			r.logger.Warn("skipping invalid condition method",
				"type", typeName, "method", cm.Method, "error", err)
			continue
		}
		scope.Conditions = append(scope.Conditions, cond)
	}

	if len(scope.Actions) == 0 && len(scope.Goals) == 0 && len(scope.Conditions) == 0 {
		r.logger.Debug("no actions, goals, or conditions discovered", "type", typeName)
		return nil
	}

	scope.Tools = r.discoverTools(scope)

	r.logger.Info("discovered agent scope",
		"scope", scope.Name,
		"actions", len(scope.Actions),
		"goals", len(scope.Goals),
		"conditions", len(scope.Conditions),
		"tools", len(scope.Tools))
	return scope
}

// readGoal invokes a zero-argument goal getter. The method must return
// Goal or *Goal.
func (r *Reader) readGoal(instance any, marker GoalMarker) (*Goal, bool) {
	typeName := reflect.TypeOf(instance).String()
	method, ok := reflect.TypeOf(instance).MethodByName(marker.Method)
	if !ok {
		r.logger.Warn("goal method not found", "type", typeName, "method", marker.Method)
		return nil, false
	}
	mt := method.Type
	if mt.NumIn() != 1 || mt.NumOut() != 1 {
		r.logger.Warn("goal method must take no arguments and return one value",
			"type", typeName, "method", marker.Method)
		return nil, false
	}
	if mt.Out(0) != goalType && mt.Out(0) != reflect.PointerTo(goalType) {
		r.logger.Warn("goal method must return a goal",
			"type", typeName, "method", marker.Method)
		return nil, false
	}

	out := method.Func.Call([]reflect.Value{reflect.ValueOf(instance)})[0]
	if out.Kind() == reflect.Pointer {
		if out.IsNil() {
			r.logger.Warn("goal method returned nil", "type", typeName, "method", marker.Method)
			return nil, false
		}
		goal := out.Interface().(*Goal)
		return goal, true
	}
	goal := out.Interface().(Goal)
	return &goal, true
}

// discoverTools probes the domain types the scope's actions consume. A
// type whose instances implement the tool provider interface contributes
// its tools to every model call made within the scope.
func (r *Reader) discoverTools(scope *Scope) []tools.Tool {
	if r.creator == nil {
		return nil
	}

	var lists [][]tools.Tool
	seen := make(map[reflect.Type]bool)
	for _, action := range scope.Actions {
		for _, in := range action.Inputs {
			t := in.Type
			if t.Kind() == reflect.Pointer {
				t = t.Elem()
			}
			if seen[t] || t.Kind() != reflect.Struct {
				continue
			}
			seen[t] = true

			probe, err := r.creator.InstanceOf(reflect.PointerTo(t))
			if err != nil {
				continue
			}
			if provider, ok := probe.(tools.Provider); ok {
				lists = append(lists, provider.Tools())
			}
		}
	}
	if len(lists) == 0 {
		return nil
	}
	return tools.Merge(lists...)
}

func scopeName(instance any, markers Markers) string {
	if markers.Agent != nil && markers.Agent.Name != "" {
		return markers.Agent.Name
	}
	if markers.Capabilities != nil && markers.Capabilities.Name != "" {
		return markers.Capabilities.Name
	}
	t := reflect.TypeOf(instance)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
