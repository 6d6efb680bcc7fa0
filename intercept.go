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
)

// Interceptor participates in an intercepted method call. It may
// inspect or mutate arguments before calling inv.Proceed, suppress the
// real method entirely by returning without proceeding, and transform
// the result or error after proceeding. The first-registered
// interceptor is outermost: it runs first on entry and last on exit.
type Interceptor interface {
	Intercept(ctx context.Context, inv *Invocation) (any, error)
}

// InterceptorFunc adapts a function to the Interceptor interface.
type InterceptorFunc func(ctx context.Context, inv *Invocation) (any, error)

// Intercept calls f.
func (f InterceptorFunc) Intercept(ctx context.Context, inv *Invocation) (any, error) {
	return f(ctx, inv)
}

// interceptRule is one BindInterceptor registration: which classes,
// which of their methods, which interceptors.
type interceptRule struct {
	class        ClassMatcher
	method       MethodMatcher
	interceptors []Interceptor
	module       string
}

func (r *interceptRule) String() string {
	return fmt.Sprintf("intercept(%v, %v, %d interceptors)",
		r.class, r.method, len(r.interceptors))
}

// Invocation is the reified context of one intercepted call: the
// target instance, the method identity, the arguments, and the
// interceptor chain with a cursor. The same Invocation is passed down
// the whole chain, so mutations made by outer interceptors are visible
// to inner ones and to the real method.
type Invocation struct {
	target   reflect.Value // bound method receiver; invalid for a null proxy
	method   reflect.Value // bound method value; invalid for a null proxy
	mtype    reflect.Type  // the method's func type, without receiver
	name     string
	wantsCtx bool
	args     []any
	chain    []Interceptor
	cursor   int
}

// Method reports the invoked method's name.
func (inv *Invocation) Method() string { return inv.name }

// Target returns the real instance behind the proxy, or nil for a
// null-object proxy.
func (inv *Invocation) Target() any {
	if !inv.target.IsValid() {
		return nil
	}
	return inv.target.Interface()
}

// Args returns a copy of the call arguments as currently set.
func (inv *Invocation) Args() []any {
	out := make([]any, len(inv.args))
	copy(out, inv.args)
	return out
}

// SetArg replaces argument i before the real method runs.
func (inv *Invocation) SetArg(i int, v any) {
	inv.args[i] = v
}

// Proceed advances the chain: while interceptors remain, the next one
// runs with this same Invocation; once the chain is exhausted, the
// real method runs and its result or error is returned. An interceptor
// that never calls Proceed fully suppresses the real method.
func (inv *Invocation) Proceed(ctx context.Context) (any, error) {
	if inv.cursor < len(inv.chain) {
		next := inv.chain[inv.cursor]
		inv.cursor++
		return next.Intercept(ctx, inv)
	}
	return inv.invokeTarget(ctx)
}

// invokeTarget calls the real method. For a null proxy there is no
// real method; the call quietly returns the method's zero results.
func (inv *Invocation) invokeTarget(ctx context.Context) (any, error) {
	if !inv.method.IsValid() {
		if inv.mtype.NumOut() > 0 && !inv.mtype.Out(0).Implements(errType) {
			return reflect.Zero(inv.mtype.Out(0)).Interface(), nil
		}
		return nil, nil
	}

	want := inv.mtype.NumIn()
	if inv.wantsCtx {
		want--
	}
	if len(inv.args) != want {
		return nil, fmt.Errorf("juice: %s takes %d arguments, got %d",
			inv.name, want, len(inv.args))
	}

	offset := 0
	args := make([]reflect.Value, 0, inv.mtype.NumIn())
	if inv.wantsCtx {
		offset = 1
		args = append(args, reflect.ValueOf(ctx))
	}
	for i, a := range inv.args {
		args = append(args, argValue(inv.mtype.In(i+offset), a))
	}
	return inv.call(args)
}

func (inv *Invocation) call(args []reflect.Value) (any, error) {
	outs := inv.method.Call(args)
	var result any
	var err error
	for i, out := range outs {
		if i == len(outs)-1 && inv.mtype.Out(i).Implements(errType) {
			if !out.IsNil() {
				err = out.Interface().(error)
			}
			continue
		}
		if result == nil {
			result = out.Interface()
		}
	}
	return result, err
}
