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
	"sync"

	"github.com/google/uuid"

	"github.com/goalith/goalith/pkg/blackboard"
	"github.com/goalith/goalith/pkg/llms"
	"github.com/goalith/goalith/pkg/memory"
	"github.com/goalith/goalith/pkg/runner"
	"github.com/goalith/goalith/pkg/tools"
)

// OperationContext carries the state one agent process accumulates across
// action invocations. Action methods may declare a *OperationContext
// parameter to receive it.
type OperationContext struct {
	// ProcessID identifies the process this operation belongs to.
	ProcessID string

	// Blackboard holds the process state inputs are bound from and
	// outputs committed to.
	Blackboard *blackboard.Blackboard

	// Runner performs model calls on behalf of intercepted prompts.
	Runner *runner.Runner

	// ToolGroups resolves tool group names granted to actions.
	ToolGroups *tools.GroupRegistry

	// Options are the ambient model options for this process. Prompt
	// options take precedence over them.
	Options *llms.Options

	mu  sync.RWMutex
	ran map[string]bool
}

// NewOperationContext creates a context for a fresh process.
func NewOperationContext(r *runner.Runner, groups *tools.GroupRegistry, opts *llms.Options) *OperationContext {
	return &OperationContext{
		ProcessID:  uuid.NewString(),
		Blackboard: blackboard.New(),
		Runner:     r,
		ToolGroups: groups,
		Options:    opts,
		ran:        make(map[string]bool),
	}
}

// HasRun reports whether the named action has completed in this process.
func (op *OperationContext) HasRun(action string) bool {
	op.mu.RLock()
	defer op.mu.RUnlock()
	return op.ran[action]
}

func (op *OperationContext) markRun(action string) {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.ran == nil {
		op.ran = make(map[string]bool)
	}
	op.ran[action] = true
}

// ProcessRepository retains recently active processes, evicting the least
// recently used once the window fills.
type ProcessRepository struct {
	window *memory.WindowedRepository[*OperationContext]
}

// NewProcessRepository creates a repository holding at most windowSize
// processes. Zero or negative uses the default window.
func NewProcessRepository(windowSize int) *ProcessRepository {
	return &ProcessRepository{window: memory.NewWindowedRepository[*OperationContext](windowSize)}
}

// Save stores or refreshes a process.
func (r *ProcessRepository) Save(op *OperationContext) {
	r.window.Save(op.ProcessID, op)
}

// Get returns a process by id without affecting its recency.
func (r *ProcessRepository) Get(processID string) (*OperationContext, bool) {
	return r.window.Get(processID)
}

// Touch marks a process as most recently used.
func (r *ProcessRepository) Touch(processID string) {
	r.window.Touch(processID)
}

// Delete removes a process.
func (r *ProcessRepository) Delete(processID string) {
	r.window.Delete(processID)
}
