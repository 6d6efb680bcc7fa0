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

	"go.uber.org/juice/internal/typename"
)

// Proxy wraps an instance whose type has at least one intercepted
// method. The Injector never returns such an instance directly; it
// returns the Proxy, and calls are driven through Invoke so the
// per-method interceptor chain runs around the real method.
// Non-intercepted methods pass straight through.
//
// Instances constructed by hand rather than by the Injector never
// receive interception; that is a documented limitation, not an error.
type Proxy struct {
	target reflect.Value // invalid for a null-object proxy
	typ    reflect.Type  // concrete type, or the interface for null proxies
	chains map[string][]Interceptor
}

// newNullProxy builds the no-op implementation produced by a null
// binding: a Proxy with no target whose every method returns zero
// values.
func newNullProxy(iface reflect.Type) *Proxy {
	return &Proxy{typ: iface}
}

// Unwrap returns the real instance. Calls made directly on it bypass
// interception. Returns nil for a null-object proxy.
func (p *Proxy) Unwrap() any {
	if !p.target.IsValid() {
		return nil
	}
	return p.target.Interface()
}

// Intercepted reports whether the named method has an interceptor
// chain attached.
func (p *Proxy) Intercepted(method string) bool {
	return len(p.chains[method]) > 0
}

func (p *Proxy) String() string {
	return fmt.Sprintf("proxy(%s)", typename.Type(p.typ))
}

// Invoke calls the named exported method with the given arguments,
// routing through the method's interceptor chain if one is attached.
// If the method's first parameter is a context.Context, ctx is passed
// through; args then hold the remaining parameters.
func (p *Proxy) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	inv, err := p.invocation(method, args)
	if err != nil {
		return nil, err
	}
	return inv.Proceed(ctx)
}

// Call is a typed convenience wrapper around Proxy.Invoke.
func Call[T any](ctx context.Context, p *Proxy, method string, args ...any) (T, error) {
	var zero T
	v, err := p.Invoke(ctx, method, args...)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("juice: %s.%s returned %s, want %s",
			typename.Type(p.typ), method,
			typename.Type(reflect.TypeOf(v)), typename.Type(typeOf[T]()))
	}
	return typed, nil
}

func (p *Proxy) invocation(method string, args []any) (*Invocation, error) {
	if !p.target.IsValid() {
		// Null proxy: the method must exist on the interface contract.
		m, ok := p.typ.MethodByName(method)
		if !ok {
			return nil, fmt.Errorf("juice: %s has no method %q",
				typename.Type(p.typ), method)
		}
		mt := m.Type // interface methods carry no receiver
		return &Invocation{
			mtype:    mt,
			name:     method,
			wantsCtx: mt.NumIn() > 0 && mt.In(0) == ctxType,
			args:     args,
		}, nil
	}

	mv := p.target.MethodByName(method)
	if !mv.IsValid() {
		return nil, fmt.Errorf("juice: %s has no method %q",
			typename.Type(p.typ), method)
	}
	mt := mv.Type()
	return &Invocation{
		target:   p.target,
		method:   mv,
		mtype:    mt,
		name:     method,
		wantsCtx: mt.NumIn() > 0 && mt.In(0) == ctxType,
		args:     args,
		chain:    p.chains[method],
	}, nil
}

// proxyable reports whether t can be wrapped: a named type, or pointer
// to one, with at least one exported method. The Go analogue of a
// final class is a type that offers nothing to intercept.
func proxyable(t reflect.Type) error {
	named := t.Name() != "" || (t.Kind() == reflect.Ptr && t.Elem().Name() != "")
	if !named {
		return &InterceptionError{Target: t, Reason: "not a named type"}
	}
	if t.NumMethod() == 0 {
		return &InterceptionError{Target: t, Reason: "no exported methods"}
	}
	return nil
}

// chainsFor computes the per-method interceptor table of t under the
// given rules. Rules concatenate in registration order, so the first
// registered interceptor is outermost. Returns nil when no method of t
// is intercepted.
func chainsFor(t reflect.Type, rules []*interceptRule) (map[string][]Interceptor, error) {
	var chains map[string][]Interceptor
	for _, rule := range rules {
		if !rule.class.Match(t) {
			continue
		}
		if err := proxyable(t); err != nil {
			return nil, err
		}
		for i := 0; i < t.NumMethod(); i++ {
			m := t.Method(i)
			if !rule.method.Match(m) {
				continue
			}
			if err := interceptableSignature(t, m); err != nil {
				return nil, err
			}
			if chains == nil {
				chains = make(map[string][]Interceptor)
			}
			chains[m.Name] = append(chains[m.Name], rule.interceptors...)
		}
	}
	return chains, nil
}

// interceptableSignature rejects method shapes the invocation machinery
// cannot route: more than two results, or two results where the second
// is not an error.
func interceptableSignature(t reflect.Type, m reflect.Method) error {
	mt := m.Func.Type()
	if mt.NumOut() > 2 {
		return &InterceptionError{Target: t, Method: m.Name,
			Reason: "more than two results"}
	}
	if mt.NumOut() == 2 && !mt.Out(1).Implements(errType) {
		return &InterceptionError{Target: t, Method: m.Name,
			Reason: "second result must be an error"}
	}
	return nil
}
