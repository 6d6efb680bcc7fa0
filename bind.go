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

// bindSpec accumulates the per-binding options of one Bind call.
type bindSpec struct {
	qualifier     string
	targetName    string
	scope         Scope
	params        map[int]string
	setters       []string
	postConstruct string
	factoryCtx    any
	collect       flavor
	elemName      string
	elemReplace   bool
}

// BindOption refines a single binding.
type BindOption func(*bindSpec)

// AsSingleton scopes the binding to one instance per Injector.
func AsSingleton() BindOption {
	return func(s *bindSpec) { s.scope = Singleton }
}

// WithName qualifies the bound key, so several bindings of one type
// can coexist.
func WithName(qualifier string) BindOption {
	return func(s *bindSpec) { s.qualifier = qualifier }
}

// WithTargetName qualifies the target key of a linked binding.
func WithTargetName(qualifier string) BindOption {
	return func(s *bindSpec) { s.targetName = qualifier }
}

// WithParam maps constructor parameter i to the binding qualified by
// name. This is how unnamed scalar parameters, such as configuration
// values, reach named bindings. Referencing a parameter the
// constructor does not have is a Configuration error.
func WithParam(i int, name string) BindOption {
	return func(s *bindSpec) {
		if s.params == nil {
			s.params = make(map[int]string)
		}
		s.params[i] = name
	}
}

// WithSetter arranges for the named method to be called after
// construction, with its parameters resolved like constructor
// parameters. Setters run in registration order.
func WithSetter(method string) BindOption {
	return func(s *bindSpec) { s.setters = append(s.setters, method) }
}

// WithPostConstruct arranges for the named hook method to run once
// after the constructor and all setters complete.
func WithPostConstruct(method string) BindOption {
	return func(s *bindSpec) { s.postConstruct = method }
}

// WithContext attaches a bind-time context value passed to the
// factory's New call, so one factory type can serve several
// differently configured provider bindings.
func WithContext(v any) BindOption {
	return func(s *bindSpec) { s.factoryCtx = v }
}

// InSet contributes the binding as one element of the Set multibinding
// for its type instead of binding the type itself.
func InSet() BindOption {
	return func(s *bindSpec) { s.collect = flavorSet }
}

// InMap contributes the binding under name to the Map multibinding for
// its type.
func InMap(name string) BindOption {
	return func(s *bindSpec) {
		s.collect = flavorMap
		s.elemName = name
	}
}

// ReplaceInMap contributes the binding under name to the Map
// multibinding, replacing any earlier contribution under that name.
func ReplaceInMap(name string) BindOption {
	return func(s *bindSpec) {
		s.collect = flavorMap
		s.elemName = name
		s.elemReplace = true
	}
}

func newBindSpec(opts []BindOption) *bindSpec {
	s := &bindSpec{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// bindOption is the Option every Bind function returns: a prepared
// binding, or the configuration error preparing it produced.
type bindOption struct {
	binding *Binding
	element *setElement
	err     error
	desc    string
}

func (o bindOption) apply(m *moduleState) {
	switch {
	case o.err != nil:
		m.items = append(m.items, o.err)
	case o.element != nil:
		o.element.binding.module = m.name
		m.items = append(m.items, o.element)
	default:
		b := *o.binding // fresh copy per application
		b.module = m.name
		m.items = append(m.items, &b)
	}
}

func (o bindOption) String() string { return o.desc }

// finishBind turns a key, strategy, and spec into the returned Option,
// routing multibinding contributions to their aggregate key.
func finishBind(key Key, s strategy, spec *bindSpec, err error, desc string) Option {
	if err != nil {
		return bindOption{err: err, desc: desc}
	}
	b := &Binding{key: key, scope: spec.scope, strategy: s}
	if spec.collect == flavorPlain {
		return bindOption{binding: b, desc: desc}
	}
	agg := Key{typ: key.typ, flav: spec.collect}
	return bindOption{
		element: &setElement{
			agg:     agg,
			name:    spec.elemName,
			replace: spec.elemReplace,
			binding: b,
		},
		desc: desc,
	}
}

// Bind registers an untargeted binding for T: a just-in-time
// construction of T itself, declared eagerly so that T's
// constructibility is checked when the Injector is built. T must be a
// concrete struct or pointer-to-struct type.
func Bind[T any](opts ...BindOption) Option {
	spec := newBindSpec(opts)
	key := Key{typ: typeOf[T](), qualifier: spec.qualifier}
	desc := fmt.Sprintf("juice.Bind(%v)", key)
	s, err := synthesizeStruct(key)
	return finishBind(key, s, spec, err, desc)
}

// BindTo registers a linked binding: resolving T delegates to U. U
// must be assignable to T.
func BindTo[T, U any](opts ...BindOption) Option {
	spec := newBindSpec(opts)
	key := Key{typ: typeOf[T](), qualifier: spec.qualifier}
	target := Key{typ: typeOf[U](), qualifier: spec.targetName}
	desc := fmt.Sprintf("juice.BindTo(%v -> %v)", key, target)
	var err error
	if !target.typ.AssignableTo(key.typ) {
		err = &ConfigError{Key: key, Reason: fmt.Sprintf(
			"%s is not assignable to %s",
			typename.Type(target.typ), typename.Type(key.typ))}
	}
	return finishBind(key, &linkedStrategy{target: target}, spec, err, desc)
}

// BindInstance registers a fixed value for T. The value must carry no
// further dependencies; it is returned as-is on every resolution
// (singleton scope is implied by construction).
func BindInstance[T any](value T, opts ...BindOption) Option {
	spec := newBindSpec(opts)
	key := Key{typ: typeOf[T](), qualifier: spec.qualifier}
	desc := fmt.Sprintf("juice.BindInstance(%v)", key)
	return finishBind(key, &instanceStrategy{value: value}, spec, nil, desc)
}

// BindConstructor registers a constructor function for T. fn must be a
// non-variadic func returning T (or a T-assignable value), optionally
// with a trailing error. Parameters resolve by declared type; a
// context.Context parameter receives the resolution context, and a
// Provider[X] parameter receives a deferred handle.
func BindConstructor[T any](fn any, opts ...BindOption) Option {
	spec := newBindSpec(opts)
	key := Key{typ: typeOf[T](), qualifier: spec.qualifier}
	desc := fmt.Sprintf("juice.BindConstructor(%v, %s)", key, typename.Func(fn))
	s, err := newConstructorStrategy(key, fn, spec)
	if err != nil {
		return finishBind(key, nil, spec, err, desc)
	}
	return finishBind(key, s, spec, nil, desc)
}

// BindProvider registers a user factory for T. The factory type F is
// itself resolved through the Injector, so it may declare its own
// inject-tagged dependencies. A WithContext value is handed to every
// New call.
func BindProvider[T any, F Factory](opts ...BindOption) Option {
	spec := newBindSpec(opts)
	key := Key{typ: typeOf[T](), qualifier: spec.qualifier}
	factoryKey := KeyOf[F]()
	desc := fmt.Sprintf("juice.BindProvider(%v, %v)", key, factoryKey)
	s := &factoryStrategy{factoryKey: factoryKey, bindContext: spec.factoryCtx}
	return finishBind(key, s, spec, nil, desc)
}

// BindNull registers a null-object binding for the interface T:
// resolution yields a Proxy whose every method is a no-op returning
// zero values. Useful for disabled or test bindings.
func BindNull[T any](opts ...BindOption) Option {
	spec := newBindSpec(opts)
	key := Key{typ: typeOf[T](), qualifier: spec.qualifier}
	desc := fmt.Sprintf("juice.BindNull(%v)", key)
	var err error
	if key.typ.Kind() != reflect.Interface {
		err = &ConfigError{Key: key, Reason: "null bindings require an interface type"}
	}
	return finishBind(key, &nullStrategy{iface: key.typ}, spec, err, desc)
}
