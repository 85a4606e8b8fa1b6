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

// Package blackboard implements the shared process state actions bind their
// parameters from.
//
// The blackboard is an explicit store threaded through every invocation:
// values are written under a name, and read back either by that name or by
// assignable type when the binding uses the default sentinel. Writers
// exclude each other; readers see the latest committed value.
package blackboard

import (
	"reflect"
	"sync"
)

// DefaultBinding is the sentinel binding name meaning "bind by type, not
// name".
const DefaultBinding = "it"

type entry struct {
	name  string
	value any
}

// Blackboard is a name- and type-indexed store of process state.
type Blackboard struct {
	mu      sync.RWMutex
	entries []entry
	byName  map[string]int
}

// New creates an empty blackboard.
func New() *Blackboard {
	return &Blackboard{byName: make(map[string]int)}
}

// Set commits value under name. Re-setting a name replaces its value and
// makes it the most recent entry for type-based resolution.
func (b *Blackboard) Set(name string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if idx, present := b.byName[name]; present {
		b.entries = append(b.entries[:idx], b.entries[idx+1:]...)
		for n, i := range b.byName {
			if i > idx {
				b.byName[n] = i - 1
			}
		}
	}
	b.byName[name] = len(b.entries)
	b.entries = append(b.entries, entry{name: name, value: value})
}

// Get returns the value stored under name.
func (b *Blackboard) Get(name string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	idx, present := b.byName[name]
	if !present {
		return nil, false
	}
	return b.entries[idx].value, true
}

// Resolve finds a value for a binding. With the default sentinel it scans
// newest-first for a value assignable to t; an explicit name forces a
// name-based lookup, which additionally must be type-compatible.
func (b *Blackboard) Resolve(name string, t reflect.Type) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if name != DefaultBinding {
		idx, present := b.byName[name]
		if !present {
			return nil, false
		}
		value := b.entries[idx].value
		if !assignable(value, t) {
			return nil, false
		}
		return value, true
	}

	for i := len(b.entries) - 1; i >= 0; i-- {
		if assignable(b.entries[i].value, t) {
			return b.entries[i].value, true
		}
	}
	return nil, false
}

// Names returns all bound names in insertion order.
func (b *Blackboard) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, len(b.entries))
	for i, e := range b.entries {
		names[i] = e.name
	}
	return names
}

// Len returns the number of bound entries.
func (b *Blackboard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.entries)
}

func assignable(value any, t reflect.Type) bool {
	if value == nil {
		return false
	}
	return reflect.TypeOf(value).AssignableTo(t)
}
