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

// Package dummy synthesizes structurally valid, semantically meaningless
// instances of arbitrary types.
//
// The creator serves two discovery-time needs: probing which tool callbacks
// a domain type exposes without real data, and generating few-shot JSON
// examples of an expected model output shape. Interface types resolve
// through an explicit implementation registry supplied at configuration
// time; an unregistered interface is a discovery-time error.
package dummy

import (
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"time"
)

// maxDepth bounds recursion through self-referential types.
const maxDepth = 8

var loremWords = []string{
	"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing",
	"elit", "sed", "eiusmod", "tempor", "incididunt", "labore", "magna",
	"aliqua", "veniam", "quis", "nostrud", "exercitation", "ullamco",
}

// Creator synthesizes dummy instances.
type Creator struct {
	implementations map[reflect.Type]reflect.Type
	rng             *rand.Rand
}

// Option configures a Creator.
type Option func(*Creator)

// WithSeed makes generation deterministic, for tests.
func WithSeed(seed int64) Option {
	return func(c *Creator) {
		c.rng = rand.New(rand.NewSource(seed))
	}
}

// NewCreator builds a Creator with an empty implementation registry.
func NewCreator(opts ...Option) *Creator {
	c := &Creator{
		implementations: make(map[reflect.Type]reflect.Type),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterImplementation maps the interface type I to the concrete type of
// impl. The first registration for an interface wins, which keeps selection
// deterministic when several implementations exist.
func RegisterImplementation[I any](c *Creator, impl I) error {
	ifaceType := reflect.TypeOf((*I)(nil)).Elem()
	if ifaceType.Kind() != reflect.Interface {
		return fmt.Errorf("type %s is not an interface", ifaceType)
	}
	implType := reflect.TypeOf(impl)
	if implType == nil {
		return fmt.Errorf("implementation for %s cannot be nil", ifaceType)
	}
	if _, exists := c.implementations[ifaceType]; exists {
		return nil
	}
	c.implementations[ifaceType] = implType
	return nil
}

// Instantiate synthesizes a dummy value of type T.
func Instantiate[T any](c *Creator) (T, error) {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	v, err := c.instance(t, 0)
	if err != nil {
		return zero, err
	}
	result, ok := v.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("synthesized %s is not assignable to %s", v.Type(), t)
	}
	return result, nil
}

// InstanceOf synthesizes a dummy value for a reflected type.
func (c *Creator) InstanceOf(t reflect.Type) (any, error) {
	v, err := c.instance(t, 0)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func (c *Creator) instance(t reflect.Type, depth int) (reflect.Value, error) {
	if depth > maxDepth {
		return reflect.Zero(t), nil
	}

	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(c.phrase()).Convert(t), nil

	case reflect.Bool:
		return reflect.ValueOf(c.rng.Intn(2) == 0).Convert(t), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if t == reflect.TypeOf(time.Duration(0)) {
			return reflect.ValueOf(time.Duration(c.rng.Intn(60)+1) * time.Second), nil
		}
		return reflect.ValueOf(int64(c.rng.Intn(100) + 1)).Convert(t), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.ValueOf(uint64(c.rng.Intn(100) + 1)).Convert(t), nil

	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(c.rng.Float64() * 100).Convert(t), nil

	case reflect.Pointer:
		elem, err := c.instance(t.Elem(), depth+1)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil

	case reflect.Slice:
		const sliceLen = 2
		slice := reflect.MakeSlice(t, 0, sliceLen)
		for i := 0; i < sliceLen; i++ {
			elem, err := c.instance(t.Elem(), depth+1)
			if err != nil {
				return reflect.Value{}, err
			}
			slice = reflect.Append(slice, elem)
		}
		return slice, nil

	case reflect.Map:
		m := reflect.MakeMap(t)
		key, err := c.instance(t.Key(), depth+1)
		if err != nil {
			return reflect.Value{}, err
		}
		val, err := c.instance(t.Elem(), depth+1)
		if err != nil {
			return reflect.Value{}, err
		}
		m.SetMapIndex(key, val)
		return m, nil

	case reflect.Struct:
		if t == reflect.TypeOf(time.Time{}) {
			return reflect.ValueOf(time.Now()), nil
		}
		return c.structInstance(t, depth)

	case reflect.Interface:
		implType, ok := c.implementations[t]
		if !ok {
			return reflect.Value{}, fmt.Errorf("no implementation registered for interface %s", t)
		}
		impl, err := c.instance(implType, depth+1)
		if err != nil {
			return reflect.Value{}, err
		}
		return impl, nil

	default:
		return reflect.Zero(t), nil
	}
}

func (c *Creator) structInstance(t reflect.Type, depth int) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		value, err := c.instance(field.Type, depth+1)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("field %s.%s: %w", t.Name(), field.Name, err)
		}
		v.Field(i).Set(value)
	}
	return v, nil
}

func (c *Creator) phrase() string {
	n := c.rng.Intn(3) + 2
	words := make([]string, n)
	for i := range words {
		words[i] = loremWords[c.rng.Intn(len(loremWords))]
	}
	return strings.Join(words, " ")
}
