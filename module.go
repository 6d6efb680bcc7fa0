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
	"strings"

	"go.uber.org/juice/juiceevent"
)

// Option configures an Injector. Options compose: a Module groups
// options under a name, Override marks a group whose bindings replace
// earlier ones, and the Bind family registers individual bindings.
//
// Applying options must be side-effect-free: no I/O, no branching on
// mutable external state. This is a usage contract, not an enforced
// invariant.
type Option interface {
	fmt.Stringer

	apply(m *moduleState)
}

// moduleState is the mutable form a module takes while options are
// applied. compose turns the root moduleState into the final registry.
type moduleState struct {
	name         string
	overrideSet  bool
	items        []any // *Binding, *setElement, *interceptRule, *moduleState, permitDupItem, error
	logger       juiceevent.Logger
	skipValidate bool
}

// Module groups options under a name. Modules nest; a nested module's
// bindings register in place, so install order across the whole tree
// is depth-first registration order.
func Module(name string, opts ...Option) Option {
	return moduleOption{name: name, opts: opts}
}

type moduleOption struct {
	name string
	opts []Option
}

func (o moduleOption) apply(m *moduleState) {
	child := &moduleState{name: o.name}
	for _, opt := range o.opts {
		opt.apply(child)
	}
	m.items = append(m.items, child)
}

func (o moduleOption) String() string {
	items := make([]string, len(o.opts))
	for i, opt := range o.opts {
		items[i] = opt.String()
	}
	return fmt.Sprintf("juice.Module(%q, %s)", o.name, strings.Join(items, ", "))
}

// Override groups options whose bindings unconditionally replace any
// earlier binding for the same key, regardless of install order. Two
// override bindings for one key is a Configuration error.
func Override(opts ...Option) Option {
	return overrideOption{opts: opts}
}

type overrideOption struct {
	opts []Option
}

func (o overrideOption) apply(m *moduleState) {
	child := &moduleState{name: "override", overrideSet: true}
	for _, opt := range o.opts {
		opt.apply(child)
	}
	m.items = append(m.items, child)
}

func (o overrideOption) String() string {
	items := make([]string, len(o.opts))
	for i, opt := range o.opts {
		items[i] = opt.String()
	}
	return fmt.Sprintf("juice.Override(%s)", strings.Join(items, ", "))
}

// BindInterceptor registers an interceptor rule: every concrete bound
// type matching classMatcher has each exported method matching
// methodMatcher routed through the given interceptors, concatenated in
// module-install order then in-module registration order.
func BindInterceptor(classMatcher ClassMatcher, methodMatcher MethodMatcher, interceptors ...Interceptor) Option {
	return interceptOption{
		rule: &interceptRule{
			class:        classMatcher,
			method:       methodMatcher,
			interceptors: interceptors,
		},
	}
}

type interceptOption struct {
	rule *interceptRule
}

func (o interceptOption) apply(m *moduleState) {
	rule := *o.rule
	rule.module = m.name
	m.items = append(m.items, &rule)
}

func (o interceptOption) String() string { return "juice." + o.rule.String() }

// WithLogger installs the event logger the Injector emits build and
// resolution events to. The default is juiceevent.NopLogger. Honored
// at the top level only.
func WithLogger(l juiceevent.Logger) Option {
	return loggerOption{logger: l}
}

type loggerOption struct {
	logger juiceevent.Logger
}

func (o loggerOption) apply(m *moduleState) { m.logger = o.logger }

func (o loggerOption) String() string { return "juice.WithLogger()" }

// WithoutValidation skips build-time graph validation. Intended for
// loading precompiled module sets whose graph was already validated
// when the artifact was produced; everyday callers should not use it.
func WithoutValidation() Option {
	return skipValidationOption{}
}

type skipValidationOption struct{}

func (skipValidationOption) apply(m *moduleState) { m.skipValidate = true }

func (skipValidationOption) String() string { return "juice.WithoutValidation()" }

// PermitDuplicates allows duplicate contributions in the Set and Map
// multibindings of element type T. For maps, the last registered value
// for a duplicated name wins.
func PermitDuplicates[T any]() Option {
	return permitDupOption{keys: []Key{SetOf[T](), MapOf[T]()}}
}

type permitDupItem struct {
	keys []Key
}

type permitDupOption permitDupItem

func (o permitDupOption) apply(m *moduleState) {
	m.items = append(m.items, permitDupItem(o))
}

func (o permitDupOption) String() string {
	return fmt.Sprintf("juice.PermitDuplicates(%v)", o.keys[0])
}
