// Copyright (c) 2023 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package juice

import (
	"fmt"
	"reflect"

	"go.uber.org/juice/internal/typename"
)

// Scope governs instance reuse for a binding.
type Scope int8

const (
	// Unscoped bindings produce a fresh instance on every resolution.
	Unscoped Scope = iota
	// Singleton bindings produce exactly one instance per Injector
	// lifetime, constructed at most once even under concurrent access.
	Singleton
)

func (s Scope) String() string {
	if s == Singleton {
		return "singleton"
	}
	return "unscoped"
}

// Binding associates a Key with a production strategy and a scope.
// Bindings are created during module configuration and become
// immutable once the Injector is built.
type Binding struct {
	key      Key
	scope    Scope
	strategy strategy
	override bool
	module   string
}

// Key reports the key this binding produces instances for.
func (b *Binding) Key() Key { return b.key }

// Scope reports the binding's scope.
func (b *Binding) Scope() Scope { return b.scope }

func (b *Binding) String() string {
	return fmt.Sprintf("%v -> %v (%v)", b.key, b.strategy, b.scope)
}

// strategy produces instances for a binding. get runs during
// resolution with the caller's frame; dependencies reports the keys
// the strategy resolves eagerly, for build-time graph validation.
// Provider-handle dependencies are deliberately excluded from
// dependencies since they never resolve eagerly.
type strategy interface {
	fmt.Stringer
	get(fr *frame, b *Binding) (any, error)
	dependencies() []Key
}

// instanceStrategy returns a fixed value. The value has no further
// dependencies; it was validated assignable at bind time.
type instanceStrategy struct {
	value any
}

func (s *instanceStrategy) get(*frame, *Binding) (any, error) { return s.value, nil }
func (s *instanceStrategy) dependencies() []Key               { return nil }

func (s *instanceStrategy) String() string {
	return fmt.Sprintf("instance(%s)", typename.Type(reflect.TypeOf(s.value)))
}

// linkedStrategy delegates resolution to another key. The link is
// followed within the caller's frame, so cycles through links are
// detected like any other.
type linkedStrategy struct {
	target Key
}

func (s *linkedStrategy) get(fr *frame, _ *Binding) (any, error) {
	return fr.resolve(s.target)
}

func (s *linkedStrategy) dependencies() []Key { return []Key{s.target} }

func (s *linkedStrategy) String() string {
	return fmt.Sprintf("linked(%v)", s.target)
}

// nullStrategy produces a no-op implementation of an interface key,
// realized as a Proxy with no target. Every method invoked on the
// proxy returns zero values.
type nullStrategy struct {
	iface reflect.Type
}

func (s *nullStrategy) get(*frame, *Binding) (any, error) {
	return newNullProxy(s.iface), nil
}

func (s *nullStrategy) dependencies() []Key { return nil }

func (s *nullStrategy) String() string { return "null" }
