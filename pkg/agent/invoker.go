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
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/goalith/goalith/pkg/blackboard"
	"github.com/goalith/goalith/pkg/logger"
	"github.com/goalith/goalith/pkg/runner"
	"github.com/goalith/goalith/pkg/tools"
)

var (
	ctxType    = reflect.TypeOf((*context.Context)(nil)).Elem()
	opCtxType  = reflect.TypeOf((*OperationContext)(nil))
	errType    = reflect.TypeOf((*error)(nil)).Elem()
	boolType   = reflect.TypeOf(false)
	objPrompt  = reflect.TypeOf((*runner.ObjectPrompt)(nil))
	condPrompt = reflect.TypeOf((*runner.ConditionPrompt)(nil))
)

// BindingError reports a required input that could not be resolved from the
// blackboard. It is a hard failure: the action cannot run.
type BindingError struct {
	Action  string
	Binding string
	Type    reflect.Type
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("action %q: no blackboard value for binding %q of type %s",
		e.Action, e.Binding, e.Type)
}

// Invoker builds executable actions and conditions from marked methods and
// carries out the prompts they return.
type Invoker struct {
	logger *slog.Logger
}

// NewInvoker creates an invoker.
func NewInvoker() *Invoker {
	return &Invoker{logger: logger.Get()}
}

// CreateAction derives an Action from the named method of instance. It
// fails when the method does not exist, a parameter binding is ambiguous,
// or the signature is unsupported.
func (inv *Invoker) CreateAction(instance any, marker ActionMarker) (*Action, error) {
	method, ok := reflect.TypeOf(instance).MethodByName(marker.Method)
	if !ok {
		return nil, fmt.Errorf("method %q not found on %T", marker.Method, instance)
	}

	plan, err := planParameters(marker.Method, method.Type, marker.ParamBindings)
	if err != nil {
		return nil, err
	}

	output, err := deriveOutput(marker.Method, method.Type, marker.OutputBinding)
	if err != nil {
		return nil, err
	}

	action := &Action{
		Name:        qualifiedName(instance, marker.Method),
		Description: marker.Description,
		Inputs:      plan.bindings(),
		Output:      output,
		Pre:         marker.Pre,
		Post:        marker.Post,
		Cost:        marker.Cost,
		Value:       marker.Value,
		CanRerun:    marker.CanRerun,
		ToolGroups:  marker.ToolGroups,
	}

	recv := reflect.ValueOf(instance)
	action.invoke = func(ctx context.Context, op *OperationContext) (any, error) {
		args, err := plan.resolve(ctx, op, recv, action.Name)
		if err != nil {
			return nil, err
		}

		result, err := splitReturns(method.Func.Call(args))
		if err != nil {
			inv.logger.Error("action failed",
				"action", action.Name, "process", op.ProcessID, "error", err)
			return nil, err
		}

		result, err = inv.carryOut(ctx, op, action, result)
		if err != nil {
			return nil, err
		}

		if result != nil {
			op.Blackboard.Set(outputName(action), result)
		}
		op.markRun(action.Name)
		return result, nil
	}
	return action, nil
}

// CreateCondition derives a Condition from the named method of instance.
// The method must return bool or a condition prompt, optionally with an
// error.
func (inv *Invoker) CreateCondition(instance any, marker ConditionMarker) (*Condition, error) {
	method, ok := reflect.TypeOf(instance).MethodByName(marker.Method)
	if !ok {
		return nil, fmt.Errorf("method %q not found on %T", marker.Method, instance)
	}

	mt := method.Type
	if mt.NumOut() == 0 || (mt.Out(0) != boolType && mt.Out(0) != condPrompt) {
		return nil, fmt.Errorf("condition method %q must return bool or a condition prompt", marker.Method)
	}

	plan, err := planParameters(marker.Method, mt, nil)
	if err != nil {
		return nil, err
	}

	name := marker.Name
	if name == "" {
		name = marker.Method
	}
	cond := &Condition{
		Name:        name,
		Description: marker.Description,
		Cost:        marker.Cost,
	}

	recv := reflect.ValueOf(instance)
	cond.evaluate = func(ctx context.Context, op *OperationContext) (bool, error) {
		args, err := plan.resolve(ctx, op, recv, cond.Name)
		if err != nil {
			return false, err
		}

		result, err := splitReturns(method.Func.Call(args))
		if err != nil {
			inv.logger.Error("condition failed",
				"condition", cond.Name, "process", op.ProcessID, "error", err)
			return false, err
		}

		switch v := result.(type) {
		case bool:
			return v, nil
		case *runner.ConditionPrompt:
			return inv.evaluatePrompt(ctx, op, v)
		case nil:
			return false, nil
		default:
			return false, fmt.Errorf("condition %q returned unsupported %T", cond.Name, result)
		}
	}
	return cond, nil
}

// carryOut inspects an action result for prompt values and performs the
// model call they describe. Plain results pass through untouched; prompt
// values never leave the invoker.
func (inv *Invoker) carryOut(ctx context.Context, op *OperationContext, action *Action, result any) (any, error) {
	switch p := result.(type) {
	case *runner.ObjectPrompt:
		return inv.createObject(ctx, op, action, p)
	case *runner.ConditionPrompt:
		ok, err := inv.evaluatePrompt(ctx, op, p)
		if err != nil {
			return nil, err
		}
		return ok, nil
	default:
		return result, nil
	}
}

func (inv *Invoker) createObject(ctx context.Context, op *OperationContext, action *Action, p *runner.ObjectPrompt) (any, error) {
	r := op.Runner

	// Prompt tools win over group-resolved ones on a name collision, and
	// the prompt's own groups are resolved before the action's.
	var grouped, ambient []tools.Tool
	if op.ToolGroups != nil {
		grouped = op.ToolGroups.Resolve(p.ToolGroups)
		ambient = op.ToolGroups.Resolve(action.ToolGroups)
	}
	merged := tools.Merge(p.Tools, grouped, ambient)
	if len(merged) > 0 {
		r = r.WithTools(merged...)
	}
	if opts := p.Options.Merge(op.Options); opts != nil {
		r = r.WithOptions(opts)
	}

	obj, err := r.CreateObjectOfType(ctx, p.Text, p.OutputType)
	if err != nil {
		if p.RequireResult {
			inv.logger.Error("prompt produced no result",
				"action", action.Name, "process", op.ProcessID, "error", err)
			return nil, err
		}
		inv.logger.Warn("optional prompt produced no result",
			"action", action.Name, "process", op.ProcessID, "error", err)
		return nil, nil
	}
	return obj, nil
}

func (inv *Invoker) evaluatePrompt(ctx context.Context, op *OperationContext, p *runner.ConditionPrompt) (bool, error) {
	r := op.Runner
	if opts := p.Options.Merge(op.Options); opts != nil {
		r = r.WithOptions(opts)
	}
	return r.Evaluate(ctx, p.Text)
}

// qualifiedName prefixes a method name with its declaring type. Action
// names must be globally unique: two types may each declare a Produce
// method, and their actions, hasRun conditions, and blackboard commits
// must not collide.
func qualifiedName(instance any, method string) string {
	t := reflect.TypeOf(instance)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name() + "." + method
}

// paramPlan records, per method parameter, whether it is injected or bound
// from the blackboard.
type paramPlan struct {
	kinds    []paramKind
	inputs   []IoBinding // parallel to kinds where kind == paramBound
	numIn    int
	receiver bool
}

type paramKind int

const (
	paramContext paramKind = iota
	paramOperation
	paramBound
)

func planParameters(method string, mt reflect.Type, explicit map[int]string) (*paramPlan, error) {
	plan := &paramPlan{numIn: mt.NumIn(), receiver: true}

	domainIdx := 0
	for i := 1; i < mt.NumIn(); i++ {
		pt := mt.In(i)
		switch {
		case pt == ctxType:
			plan.kinds = append(plan.kinds, paramContext)
		case pt == opCtxType:
			plan.kinds = append(plan.kinds, paramOperation)
		default:
			name := blackboard.DefaultBinding
			if explicit != nil {
				if n, ok := explicit[domainIdx]; ok && n != "" {
					name = n
				}
			}
			plan.kinds = append(plan.kinds, paramBound)
			plan.inputs = append(plan.inputs, IoBinding{
				Name:     name,
				Type:     pt,
				Optional: pt.Kind() == reflect.Pointer,
			})
			domainIdx++
		}
	}

	if err := checkAmbiguity(method, plan.inputs); err != nil {
		return nil, err
	}
	return plan, nil
}

// checkAmbiguity rejects methods where two default-bound parameters share a
// type, or two explicit bindings share a name. Either makes blackboard
// resolution nondeterministic.
func checkAmbiguity(method string, inputs []IoBinding) error {
	byType := make(map[reflect.Type]int)
	byName := make(map[string]bool)
	for _, b := range inputs {
		if b.Name == blackboard.DefaultBinding {
			byType[b.Type]++
			if byType[b.Type] > 1 {
				return fmt.Errorf("method %q: two parameters of type %s need explicit binding names", method, b.Type)
			}
			continue
		}
		if byName[b.Name] {
			return fmt.Errorf("method %q: duplicate binding name %q", method, b.Name)
		}
		byName[b.Name] = true
	}
	return nil
}

func (p *paramPlan) bindings() []IoBinding {
	out := make([]IoBinding, len(p.inputs))
	copy(out, p.inputs)
	return out
}

func (p *paramPlan) resolve(ctx context.Context, op *OperationContext, recv reflect.Value, owner string) ([]reflect.Value, error) {
	args := make([]reflect.Value, p.numIn)
	args[0] = recv

	bound := 0
	for i, kind := range p.kinds {
		switch kind {
		case paramContext:
			args[i+1] = reflect.ValueOf(ctx)
		case paramOperation:
			args[i+1] = reflect.ValueOf(op)
		case paramBound:
			b := p.inputs[bound]
			bound++
			value, ok := op.Blackboard.Resolve(b.Name, b.Type)
			if !ok {
				if b.Optional {
					args[i+1] = reflect.Zero(b.Type)
					continue
				}
				return nil, &BindingError{Action: owner, Binding: b.Name, Type: b.Type}
			}
			args[i+1] = reflect.ValueOf(value)
		}
	}
	return args, nil
}

// deriveOutput inspects a method's results for the value an action commits
// to the blackboard. Supported shapes are (T, error), T, error, and none.
func deriveOutput(method string, mt reflect.Type, explicitName string) (*IoBinding, error) {
	var resultType reflect.Type
	switch mt.NumOut() {
	case 0:
	case 1:
		if mt.Out(0) != errType {
			resultType = mt.Out(0)
		}
	case 2:
		if mt.Out(1) != errType {
			return nil, fmt.Errorf("method %q: second result must be error", method)
		}
		resultType = mt.Out(0)
	default:
		return nil, fmt.Errorf("method %q: too many results", method)
	}

	if resultType == nil {
		return nil, nil
	}
	// Prompt results commit the object they produce, whose type the
	// prompt itself declares at runtime.
	if resultType == objPrompt || resultType == condPrompt {
		resultType = reflect.TypeOf((*any)(nil)).Elem()
	}
	name := explicitName
	if name == "" {
		name = blackboard.DefaultBinding
	}
	return &IoBinding{Name: name, Type: resultType}, nil
}

// splitReturns separates a reflective call's results into (value, error).
func splitReturns(out []reflect.Value) (any, error) {
	var result any
	var callErr error
	for _, v := range out {
		if v.Type() == errType {
			if !v.IsNil() {
				callErr = v.Interface().(error)
			}
			continue
		}
		if v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface || v.Kind() == reflect.Slice || v.Kind() == reflect.Map {
			if v.IsNil() {
				continue
			}
		}
		result = v.Interface()
	}
	return result, callErr
}

// outputName picks the blackboard name an action result is committed
// under. Default-bound outputs use the action name so successive results
// of the same type can coexist for type-based resolution.
func outputName(a *Action) string {
	if a.Output != nil && a.Output.Name != blackboard.DefaultBinding {
		return a.Output.Name
	}
	return a.Name
}
