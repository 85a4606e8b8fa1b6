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

package dummy

import (
	"strings"
	"testing"
	"time"
)

type address struct {
	Street string
	City   string
}

type person struct {
	Name     string
	Age      int
	Height   float64
	Active   bool
	Tags     []string
	Scores   map[string]int
	Home     *address
	Joined   time.Time
	internal string
}

func TestInstantiateFillsExportedFields(t *testing.T) {
	c := NewCreator(WithSeed(42))

	p, err := Instantiate[person](c)
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}

	if p.Name == "" {
		t.Error("Name is empty")
	}
	if p.Age <= 0 || p.Age > 100 {
		t.Errorf("Age = %d, want a bounded positive number", p.Age)
	}
	if p.Height <= 0 {
		t.Errorf("Height = %v", p.Height)
	}
	if len(p.Tags) != 2 {
		t.Errorf("Tags = %v, want two elements", p.Tags)
	}
	if len(p.Scores) != 1 {
		t.Errorf("Scores = %v, want one entry", p.Scores)
	}
	if p.Home == nil || p.Home.City == "" {
		t.Errorf("Home = %+v, want a filled nested struct", p.Home)
	}
	if p.Joined.IsZero() {
		t.Error("Joined is zero")
	}
	if p.internal != "" {
		t.Error("unexported field was touched")
	}
}

func TestInstantiateDeterministicWithSeed(t *testing.T) {
	first, err := Instantiate[person](NewCreator(WithSeed(7)))
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}
	second, err := Instantiate[person](NewCreator(WithSeed(7)))
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}

	if first.Name != second.Name || first.Age != second.Age {
		t.Errorf("seeded creators diverged: %+v vs %+v", first, second)
	}
}

type greeter interface {
	Greet() string
}

type englishGreeter struct {
	Prefix string
}

func (g englishGreeter) Greet() string { return "hello" }

type frenchGreeter struct{}

func (frenchGreeter) Greet() string { return "bonjour" }

func TestInterfaceResolution(t *testing.T) {
	c := NewCreator(WithSeed(1))
	if err := RegisterImplementation[greeter](c, englishGreeter{}); err != nil {
		t.Fatalf("RegisterImplementation() error = %v", err)
	}
	// The first registration wins.
	if err := RegisterImplementation[greeter](c, frenchGreeter{}); err != nil {
		t.Fatalf("RegisterImplementation() error = %v", err)
	}

	g, err := Instantiate[greeter](c)
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}
	if g.Greet() != "hello" {
		t.Errorf("Greet() = %q, want the first-registered implementation", g.Greet())
	}

	impl, ok := g.(englishGreeter)
	if !ok {
		t.Fatalf("instance = %T", g)
	}
	if impl.Prefix == "" {
		t.Error("implementation fields were not filled")
	}
}

func TestUnregisteredInterfaceFails(t *testing.T) {
	c := NewCreator()
	if _, err := Instantiate[greeter](c); err == nil {
		t.Fatal("Instantiate() synthesized an unregistered interface")
	}
}

func TestPhrasesUseLoremWords(t *testing.T) {
	c := NewCreator(WithSeed(3))
	p, err := Instantiate[person](c)
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}

	for _, word := range strings.Fields(p.Name) {
		found := false
		for _, lorem := range loremWords {
			if word == lorem {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("phrase word %q is not from the lorem vocabulary", word)
		}
	}
}

type node struct {
	Label string
	Next  *node
}

func TestRecursionIsBounded(t *testing.T) {
	c := NewCreator(WithSeed(5))

	n, err := Instantiate[node](c)
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}

	depth := 0
	for cur := &n; cur != nil && depth < 100; cur = cur.Next {
		depth++
	}
	if depth >= 100 {
		t.Error("recursive type expansion did not terminate")
	}
}
