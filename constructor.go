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

// paramPlan describes how one function parameter is filled during
// resolution.
type paramPlan struct {
	typ      reflect.Type
	key      Key  // zero for ctx and provider-handle params
	isCtx    bool // receives the resolution context
	provider bool // receives a fabricated Provider handle
	elemKey  Key  // key the provider handle resolves
}

// constructorStrategy invokes a user constructor function with
// resolved arguments, then runs optional setter calls and one optional
// post-construct hook.
type constructorStrategy struct {
	fn            reflect.Value
	params        []paramPlan
	setters       []setterPlan
	postConstruct string
	result        reflect.Type
	hasErr        bool
}

type setterPlan struct {
	name   string
	params []paramPlan // excludes the receiver
	hasErr bool
}

// newConstructorStrategy validates fn against the bound key type and
// precomputes the argument plan. All failures here are Configuration
// errors surfaced when the Injector is built.
func newConstructorStrategy(key Key, fn any, spec *bindSpec) (*constructorStrategy, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return nil, &ConfigError{Key: key, Reason: "constructor target must be a func"}
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, &ConfigError{Key: key, Reason: "constructor must not be variadic"}
	}
	result, hasErr, err := resultOf(key, t)
	if err != nil {
		return nil, err
	}
	if !result.AssignableTo(key.Type()) {
		return nil, &ConfigError{Key: key, Reason: fmt.Sprintf(
			"constructor %s returns %s, which is not assignable to %s",
			typename.Func(fn), typename.Type(result), typename.Type(key.Type()))}
	}

	params, err := planParams(key, t, 0, spec.params)
	if err != nil {
		return nil, err
	}
	for idx := range spec.params {
		if idx < 0 || idx >= t.NumIn() {
			return nil, &ConfigError{Key: key, Reason: fmt.Sprintf(
				"named mapping references parameter %d, but %s has %d parameters",
				idx, typename.Func(fn), t.NumIn())}
		}
	}

	s := &constructorStrategy{
		fn:            v,
		params:        params,
		postConstruct: spec.postConstruct,
		result:        result,
		hasErr:        hasErr,
	}
	for _, name := range spec.setters {
		m, ok := result.MethodByName(name)
		if !ok {
			return nil, &ConfigError{Key: key, Reason: fmt.Sprintf(
				"setter %q does not exist on %s", name, typename.Type(result))}
		}
		// Interface method types carry no receiver; concrete ones have
		// it as In(0).
		mt := m.Type
		recv := 1
		if result.Kind() == reflect.Interface {
			recv = 0
		}
		setterParams, err := planParams(key, mt, recv, nil)
		if err != nil {
			return nil, err
		}
		if mt.NumOut() > 1 || (mt.NumOut() == 1 && !mt.Out(0).Implements(errType)) {
			return nil, &ConfigError{Key: key, Reason: fmt.Sprintf(
				"setter %q must return nothing or an error", name)}
		}
		s.setters = append(s.setters, setterPlan{
			name:   name,
			params: setterParams,
			hasErr: mt.NumOut() == 1,
		})
	}
	if s.postConstruct != "" {
		if _, ok := result.MethodByName(s.postConstruct); !ok {
			return nil, &ConfigError{Key: key, Reason: fmt.Sprintf(
				"post-construct hook %q does not exist on %s",
				s.postConstruct, typename.Type(result))}
		}
	}
	return s, nil
}

// resultOf checks the constructor's result shape: exactly one value,
// or one value and an error.
func resultOf(key Key, t reflect.Type) (reflect.Type, bool, error) {
	switch t.NumOut() {
	case 1:
		return t.Out(0), false, nil
	case 2:
		if !t.Out(1).Implements(errType) {
			return nil, false, &ConfigError{
				Key:    key,
				Reason: "constructor returning two values must return an error second",
			}
		}
		return t.Out(0), true, nil
	default:
		return nil, false, &ConfigError{Key: key, Reason: fmt.Sprintf(
			"constructor must return one value or a value and an error, got %d results",
			t.NumOut())}
	}
}

// planParams computes the fill plan for the parameters of t starting
// at index from. qualifiers maps parameter index (counted from zero at
// from) to a binding qualifier.
func planParams(key Key, t reflect.Type, from int, qualifiers map[int]string) ([]paramPlan, error) {
	params := make([]paramPlan, 0, t.NumIn()-from)
	for i := from; i < t.NumIn(); i++ {
		pt := t.In(i)
		q := qualifiers[i-from]
		switch {
		case pt == ctxType:
			if q != "" {
				return nil, &ConfigError{Key: key, Reason: fmt.Sprintf(
					"parameter %d is a context.Context and cannot be qualified", i-from)}
			}
			params = append(params, paramPlan{typ: pt, isCtx: true})
		default:
			if elem, ok := isProviderHandle(pt); ok {
				params = append(params, paramPlan{
					typ:      pt,
					provider: true,
					elemKey:  Key{typ: elem, qualifier: q},
				})
				continue
			}
			params = append(params, paramPlan{typ: pt, key: Key{typ: pt, qualifier: q}})
		}
	}
	return params, nil
}

// fillParams resolves a parameter plan into call arguments for the
// binding under construction.
func fillParams(fr *frame, b *Binding, params []paramPlan) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(params))
	for i, p := range params {
		switch {
		case p.isCtx:
			args[i] = reflect.ValueOf(fr.ctx)
		case p.provider:
			args[i] = makeProviderHandle(fr.inj, p.typ, p.elemKey)
		default:
			v, err := fr.resolve(p.key)
			if err != nil {
				return nil, err
			}
			if err := checkAssignable(p.key, p.typ, v); err != nil {
				return nil, fr.instantiationErr(b.key, err)
			}
			args[i] = argValue(p.typ, v)
		}
	}
	return args, nil
}

// checkAssignable reports a mismatch between a resolved instance and
// the declared dependency type instead of letting reflect.Set panic.
// Intercepted and null-bound keys resolve as *Proxy, which no ordinary
// declared type can receive.
func checkAssignable(key Key, want reflect.Type, v any) error {
	if v == nil {
		return nil
	}
	rt := reflect.TypeOf(v)
	if rt.AssignableTo(want) || rt.ConvertibleTo(want) {
		return nil
	}
	if _, ok := v.(*Proxy); ok {
		return fmt.Errorf(
			"%v resolves as *juice.Proxy and cannot be injected as %s; resolve it through the Injector and drive calls with Invoke",
			key, typename.Type(want))
	}
	return fmt.Errorf("%v resolved to %s, want %s",
		key, typename.Type(rt), typename.Type(want))
}

// argValue converts a resolved instance to a reflect argument of the
// wanted type, mapping nil to the type's zero value.
func argValue(want reflect.Type, v any) reflect.Value {
	if v == nil {
		return reflect.Zero(want)
	}
	rv := reflect.ValueOf(v)
	if rv.Type() != want && rv.Type().ConvertibleTo(want) && !rv.Type().AssignableTo(want) {
		return rv.Convert(want)
	}
	out := reflect.New(want).Elem()
	out.Set(rv)
	return out
}

func (s *constructorStrategy) get(fr *frame, b *Binding) (any, error) {
	args, err := fillParams(fr, b, s.params)
	if err != nil {
		return nil, err
	}
	outs := s.fn.Call(args)
	if s.hasErr && !outs[1].IsNil() {
		return nil, fr.instantiationErr(b.key, outs[1].Interface().(error))
	}
	instance := outs[0]

	for _, setter := range s.setters {
		m := instance.MethodByName(setter.name)
		setterArgs, err := fillParams(fr, b, setter.params)
		if err != nil {
			return nil, err
		}
		rets := m.Call(setterArgs)
		if setter.hasErr && !rets[0].IsNil() {
			return nil, fr.instantiationErr(b.key, fmt.Errorf(
				"setter %q: %w", setter.name, rets[0].Interface().(error)))
		}
	}

	if s.postConstruct != "" {
		if err := callHook(fr, instance, s.postConstruct); err != nil {
			return nil, fr.instantiationErr(b.key, err)
		}
	}
	return instance.Interface(), nil
}

// callHook invokes a post-construct hook by name. The hook may take no
// arguments or a context.Context, and may return an error.
func callHook(fr *frame, instance reflect.Value, name string) error {
	m := instance.MethodByName(name)
	mt := m.Type()
	var args []reflect.Value
	if mt.NumIn() == 1 && mt.In(0) == ctxType {
		args = []reflect.Value{reflect.ValueOf(fr.ctx)}
	} else if mt.NumIn() != 0 {
		return fmt.Errorf("hook %q must take no arguments or a context.Context", name)
	}
	rets := m.Call(args)
	if len(rets) == 1 && mt.Out(0).Implements(errType) && !rets[0].IsNil() {
		return fmt.Errorf("hook %q: %w", name, rets[0].Interface().(error))
	}
	return nil
}

func (s *constructorStrategy) dependencies() []Key {
	var keys []Key
	for _, p := range s.params {
		if !p.isCtx && !p.provider {
			keys = append(keys, p.key)
		}
	}
	for _, setter := range s.setters {
		for _, p := range setter.params {
			if !p.isCtx && !p.provider {
				keys = append(keys, p.key)
			}
		}
	}
	return keys
}

func (s *constructorStrategy) String() string {
	return fmt.Sprintf("constructor(%s)", typename.Func(s.fn.Interface()))
}
