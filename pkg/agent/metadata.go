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

// Package agent turns registered domain types into planner-ready metadata.
//
// A domain type registers itself together with markers describing which of
// its methods are actions, conditions, and goal providers. The reader
// validates the markers against the type's actual method set via reflection
// and produces Action, Goal, and Condition values the planner can reason
// about. The invoker executes those actions against a blackboard, handling
// parameter binding and prompt interception.
package agent

import (
	"context"
	"reflect"

	"github.com/goalith/goalith/pkg/tools"
)

// IoBinding describes how one input or output connects to the blackboard.
type IoBinding struct {
	// Name the value is bound under. blackboard.DefaultBinding means
	// "resolve by type".
	Name string

	// Type of the bound value.
	Type reflect.Type

	// Optional inputs may be absent from the blackboard; the parameter
	// receives its zero value.
	Optional bool
}

// Action is an executable planner step derived from a marked method.
type Action struct {
	Name        string
	Description string

	Inputs []IoBinding
	Output *IoBinding

	// Pre and Post name conditions the planner checks before and asserts
	// after running the action.
	Pre  []string
	Post []string

	// Cost and Value weigh the action during planning. Both are in [0, 1].
	Cost  float64
	Value float64

	// CanRerun permits the planner to schedule the action more than once
	// within a process.
	CanRerun bool

	// ToolGroups are granted to any model call the action makes.
	ToolGroups []string

	invoke func(ctx context.Context, op *OperationContext) (any, error)
}

// Invoke executes the action: inputs are bound from the operation's
// blackboard, the method runs, prompts it returns are carried out, and the
// result is committed back to the blackboard.
func (a *Action) Invoke(ctx context.Context, op *OperationContext) (any, error) {
	return a.invoke(ctx, op)
}

// HasRunCondition names the condition asserted once this action has
// completed within a process.
func (a *Action) HasRunCondition() string {
	return a.Name + ".hasRun"
}

// Goal is a desired end state the planner works toward.
type Goal struct {
	Name        string
	Description string

	// Pre names the conditions that must hold for the goal to count as
	// achieved.
	Pre []string

	// Value weighs the goal against others, in [0, 1].
	Value float64

	// Satisfies, when non-nil, is the domain type whose presence on the
	// blackboard satisfies the goal.
	Satisfies reflect.Type
}

// Condition is a named predicate over process state.
type Condition struct {
	Name        string
	Description string

	// Cost of evaluating the condition, in [0, 1].
	Cost float64

	evaluate func(ctx context.Context, op *OperationContext) (bool, error)
}

// Evaluate runs the condition against the given operation context.
func (c *Condition) Evaluate(ctx context.Context, op *OperationContext) (bool, error) {
	return c.evaluate(ctx, op)
}

// AgentInfo is the identity of a full agent, present when the instance was
// registered with the agent marker rather than the capabilities marker.
type AgentInfo struct {
	Name        string
	Description string
	Version     string
	ToolGroups  []string
}

// Scope is everything discovered from one registered instance.
type Scope struct {
	// Name of the scope, derived from the marker or the type name.
	Name string

	// Agent is non-nil when the instance is a full agent.
	Agent *AgentInfo

	Actions    []*Action
	Goals      []*Goal
	Conditions []*Condition

	// Tools were contributed by domain types the actions consume.
	Tools []tools.Tool
}

// AgentMarker registers a type as a full agent. Description is required.
type AgentMarker struct {
	Name        string
	Description string
	Version     string
	ToolGroups  []string
}

// CapabilitiesMarker registers a type as a bundle of reusable capabilities
// without agent identity. Mutually exclusive with AgentMarker.
type CapabilitiesMarker struct {
	Name string
}

// ActionMarker marks one method of the registered type as an action.
type ActionMarker struct {
	// Method is the exported method name on the registered type.
	Method string

	Description string
	Pre         []string
	Post        []string
	Cost        float64
	Value       float64
	CanRerun    bool
	ToolGroups  []string

	// OutputBinding names the blackboard entry the result is committed
	// under. Empty means the default binding.
	OutputBinding string

	// ParamBindings maps a parameter index (counting only domain
	// parameters, not injected ones) to an explicit binding name.
	ParamBindings map[int]string

	// AchievesGoal synthesizes a goal that is achieved once this action
	// has run.
	AchievesGoal bool

	// GoalValue weighs the synthesized goal. Ignored unless AchievesGoal
	// is set.
	GoalValue float64
}

// ConditionMarker marks one method as a named condition.
type ConditionMarker struct {
	Method      string
	Name        string
	Description string
	Cost        float64
}

// GoalMarker marks a zero-argument method returning a Goal.
type GoalMarker struct {
	Method string
}

// Markers is the full registration record for one domain type.
type Markers struct {
	Agent        *AgentMarker
	Capabilities *CapabilitiesMarker
	Actions      []ActionMarker
	Conditions   []ConditionMarker
	Goals        []GoalMarker
}
