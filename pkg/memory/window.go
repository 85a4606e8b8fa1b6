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

// Package memory provides bounded, process-lifetime in-memory stores.
package memory

import (
	"sync"
)

// WindowedRepository is an LRU-bounded key/value store.
//
// Readers share a lock; writers exclude. Insertion order is tracked in a
// queue: re-inserting a present key moves it to the most-recently-used
// position without evicting anything, and eviction removes strictly the
// oldest entry, one at a time, until the store is back under the window
// size.
type WindowedRepository[V any] struct {
	mu         sync.RWMutex
	windowSize int
	entries    map[string]V
	order      []string
}

// NewWindowedRepository creates a repository retaining at most windowSize
// entries. A non-positive windowSize defaults to 100.
func NewWindowedRepository[V any](windowSize int) *WindowedRepository[V] {
	if windowSize <= 0 {
		windowSize = 100
	}
	return &WindowedRepository[V]{
		windowSize: windowSize,
		entries:    make(map[string]V),
	}
}

// Save stores value under key, marking it most recently used.
func (r *WindowedRepository[V]) Save(key string, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, present := r.entries[key]; present {
		r.entries[key] = value
		r.touch(key)
		return
	}

	r.entries[key] = value
	r.order = append(r.order, key)

	for len(r.order) > r.windowSize {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.entries, oldest)
	}
}

// Get returns the value for key. Lookups do not affect recency.
func (r *WindowedRepository[V]) Get(key string) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.entries[key]
	return value, ok
}

// Touch marks key most recently used if present.
func (r *WindowedRepository[V]) Touch(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, present := r.entries[key]; present {
		r.touch(key)
	}
}

// Delete removes key if present.
func (r *WindowedRepository[V]) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, present := r.entries[key]; !present {
		return
	}
	delete(r.entries, key)
	r.remove(key)
}

// Keys returns all keys, oldest first.
func (r *WindowedRepository[V]) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, len(r.order))
	copy(keys, r.order)
	return keys
}

// Len returns the number of stored entries.
func (r *WindowedRepository[V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

func (r *WindowedRepository[V]) touch(key string) {
	r.remove(key)
	r.order = append(r.order, key)
}

func (r *WindowedRepository[V]) remove(key string) {
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
