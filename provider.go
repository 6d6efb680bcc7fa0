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
	"context"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/juice/internal/typename"
)

// Provider is a deferred handle for a dependency of type T. Resolution
// happens on each call, so the scope of the underlying binding decides
// whether successive calls return the same instance.
//
// A constructor parameter or an inject-tagged struct field declared as
// Provider[T] receives a handle instead of an eagerly resolved T.
// Because the handle defers resolution, it is the supported way to
// break a dependency cycle.
type Provider[T any] func(ctx context.Context) (T, error)

// Get resolves and returns the dependency.
func (p Provider[T]) Get(ctx context.Context) (T, error) { return p(ctx) }

// Must resolves the dependency and panics on error.
func (p Provider[T]) Must(ctx context.Context) T {
	v, err := p(ctx)
	if err != nil {
		panic(fmt.Sprintf("juice: provider failed: %v", err))
	}
	return v
}

// ProviderOf returns a deferred handle for T, optionally qualified.
func ProviderOf[T any](inj *Injector, qualifier ...string) Provider[T] {
	key := KeyOf[T]()
	if len(qualifier) > 0 {
		key = Named[T](qualifier[0])
	}
	return func(ctx context.Context) (T, error) {
		var zero T
		v, err := inj.GetInstance(ctx, key)
		if err != nil {
			return zero, err
		}
		typed, ok := v.(T)
		if !ok {
			return zero, fmt.Errorf("juice: provider for %v: instance is %s, not %s",
				key, typename.Type(reflect.TypeOf(v)), typename.Type(typeOf[T]()))
		}
		return typed, nil
	}
}

// Factory produces instances for a provider binding. The factory
// itself is resolved through the Injector, so it may declare its own
// inject-tagged dependencies. The bind-time context value given to
// BindProvider via WithContext is passed through unchanged, letting
// one factory type serve several differently configured bindings.
type Factory interface {
	New(ctx context.Context, bindContext any) (any, error)
}

// factoryStrategy wraps a user-supplied factory bound by BindProvider.
type factoryStrategy struct {
	factoryKey  Key
	bindContext any
}

func (s *factoryStrategy) get(fr *frame, b *Binding) (any, error) {
	raw, err := fr.resolve(s.factoryKey)
	if err != nil {
		return nil, err
	}
	factory, ok := raw.(Factory)
	if !ok {
		return nil, fr.instantiationErr(b.key,
			fmt.Errorf("%v does not implement juice.Factory", s.factoryKey))
	}
	v, err := factory.New(fr.ctx, s.bindContext)
	if err != nil {
		return nil, fr.instantiationErr(b.key, err)
	}
	if v != nil && !reflect.TypeOf(v).AssignableTo(b.key.Type()) {
		return nil, fr.instantiationErr(b.key,
			fmt.Errorf("factory produced %s, want %s",
				typename.Type(reflect.TypeOf(v)), typename.Type(b.key.Type())))
	}
	return v, nil
}

func (s *factoryStrategy) dependencies() []Key { return []Key{s.factoryKey} }

func (s *factoryStrategy) String() string {
	return fmt.Sprintf("provider(%v)", s.factoryKey)
}

var (
	errType = reflect.TypeOf((*error)(nil)).Elem()
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// isProviderHandle reports whether t is an instantiation of
// Provider[T], and if so, returns T.
func isProviderHandle(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Func || t.PkgPath() != "go.uber.org/juice" {
		return nil, false
	}
	if !strings.HasPrefix(t.Name(), "Provider[") {
		return nil, false
	}
	if t.NumIn() != 1 || t.NumOut() != 2 || t.In(0) != ctxType || t.Out(1) != errType {
		return nil, false
	}
	return t.Out(0), true
}

// makeProviderHandle fabricates a Provider[T] value of the reflected
// handle type t, resolving key against inj on each call. Resolution
// starts a fresh frame, which is what makes Provider indirection break
// cycles.
func makeProviderHandle(inj *Injector, t reflect.Type, key Key) reflect.Value {
	return reflect.MakeFunc(t, func(args []reflect.Value) []reflect.Value {
		ctx, _ := args[0].Interface().(context.Context)
		if ctx == nil {
			ctx = context.Background()
		}
		out := reflect.New(t.Out(0)).Elem()
		errOut := reflect.New(errType).Elem()
		v, err := inj.GetInstance(ctx, key)
		switch {
		case err != nil:
			errOut.Set(reflect.ValueOf(err))
		case v != nil:
			rv := reflect.ValueOf(v)
			if !rv.Type().AssignableTo(t.Out(0)) {
				errOut.Set(reflect.ValueOf(fmt.Errorf(
					"juice: provider for %v: instance is %s, not %s",
					key, typename.Type(rv.Type()), typename.Type(t.Out(0)))))
				break
			}
			out.Set(rv)
		}
		return []reflect.Value{out, errOut}
	})
}
