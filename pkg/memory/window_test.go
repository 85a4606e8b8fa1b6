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

package memory

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestSaveEvictsOldest(t *testing.T) {
	r := NewWindowedRepository[int](3)
	r.Save("a", 1)
	r.Save("b", 2)
	r.Save("c", 3)
	r.Save("d", 4)

	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
	if _, ok := r.Get("a"); ok {
		t.Error("oldest entry survived eviction")
	}
	if got := r.Keys(); !reflect.DeepEqual(got, []string{"b", "c", "d"}) {
		t.Errorf("Keys() = %v", got)
	}
}

func TestResaveMovesToMostRecentWithoutEviction(t *testing.T) {
	r := NewWindowedRepository[int](3)
	r.Save("a", 1)
	r.Save("b", 2)
	r.Save("c", 3)

	// Re-saving a present key must not evict anything.
	r.Save("a", 10)
	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
	if v, _ := r.Get("a"); v != 10 {
		t.Errorf("Get(a) = %d, want the replacement", v)
	}

	// "b" is now the oldest and goes first.
	r.Save("d", 4)
	if _, ok := r.Get("b"); ok {
		t.Error("expected b to be evicted after a was refreshed")
	}
	if _, ok := r.Get("a"); !ok {
		t.Error("refreshed entry was evicted")
	}
}

func TestGetDoesNotAffectRecency(t *testing.T) {
	r := NewWindowedRepository[int](2)
	r.Save("a", 1)
	r.Save("b", 2)

	// Reads of "a" must not protect it.
	r.Get("a")
	r.Get("a")
	r.Save("c", 3)

	if _, ok := r.Get("a"); ok {
		t.Error("Get() changed recency")
	}
}

func TestTouchProtectsEntry(t *testing.T) {
	r := NewWindowedRepository[int](2)
	r.Save("a", 1)
	r.Save("b", 2)

	r.Touch("a")
	r.Save("c", 3)

	if _, ok := r.Get("a"); !ok {
		t.Error("touched entry was evicted")
	}
	if _, ok := r.Get("b"); ok {
		t.Error("expected b to be the eviction victim")
	}
}

func TestDelete(t *testing.T) {
	r := NewWindowedRepository[int](3)
	r.Save("a", 1)
	r.Delete("a")
	r.Delete("never-there")

	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	if got := r.Keys(); len(got) != 0 {
		t.Errorf("Keys() = %v, want empty", got)
	}
}

func TestDefaultWindowSize(t *testing.T) {
	r := NewWindowedRepository[int](0)
	for i := 0; i < 150; i++ {
		r.Save(fmt.Sprintf("k%d", i), i)
	}
	if r.Len() != 100 {
		t.Errorf("Len() = %d, want the default window of 100", r.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := NewWindowedRepository[int](50)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("g%d-k%d", g, i%10)
				r.Save(key, i)
				r.Get(key)
				r.Touch(key)
			}
		}(g)
	}
	wg.Wait()

	if r.Len() > 50 {
		t.Errorf("Len() = %d, window exceeded", r.Len())
	}
}
