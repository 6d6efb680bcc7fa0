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

package juice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/juice"
)

type AccountService struct {
	balance int
}

func (s *AccountService) Deposit(amount int) int {
	s.balance += amount
	return s.balance
}

func (s *AccountService) Balance() int { return s.balance }

// tracer records chain order around Proceed.
type tracer struct {
	name string
	log  *[]string
}

func (tr *tracer) Intercept(ctx context.Context, inv *juice.Invocation) (any, error) {
	*tr.log = append(*tr.log, tr.name+":before")
	res, err := inv.Proceed(ctx)
	*tr.log = append(*tr.log, tr.name+":after")
	return res, err
}

func resolveProxy(t *testing.T, inj *juice.Injector, key juice.Key) *juice.Proxy {
	t.Helper()
	v, err := inj.GetInstance(context.Background(), key)
	require.NoError(t, err)
	p, ok := v.(*juice.Proxy)
	require.True(t, ok, "expected an intercepted instance")
	return p
}

func TestInterception(t *testing.T) {
	t.Parallel()

	t.Run("first registered interceptor is outermost", func(t *testing.T) {
		t.Parallel()
		var log []string
		inj, err := juice.New(
			juice.Bind[*AccountService](),
			juice.BindInterceptor(
				juice.Exactly[AccountService](),
				juice.MethodNamed("Deposit"),
				&tracer{name: "outer", log: &log},
			),
			juice.BindInterceptor(
				juice.Exactly[AccountService](),
				juice.MethodNamed("Deposit"),
				&tracer{name: "inner", log: &log},
			),
		)
		require.NoError(t, err)

		p := resolveProxy(t, inj, juice.KeyOf[*AccountService]())
		got, err := juice.Call[int](context.Background(), p, "Deposit", 10)
		require.NoError(t, err)
		assert.Equal(t, 10, got)
		assert.Equal(t, []string{
			"outer:before", "inner:before", "inner:after", "outer:after",
		}, log)
	})

	t.Run("an interceptor that never proceeds suppresses the method", func(t *testing.T) {
		t.Parallel()
		suppress := juice.InterceptorFunc(func(ctx context.Context, inv *juice.Invocation) (any, error) {
			return -1, nil
		})
		inj, err := juice.New(
			juice.Bind[*AccountService](juice.AsSingleton()),
			juice.BindInterceptor(
				juice.Exactly[AccountService](),
				juice.MethodNamed("Deposit"),
				suppress,
			),
		)
		require.NoError(t, err)

		p := resolveProxy(t, inj, juice.KeyOf[*AccountService]())
		got, err := juice.Call[int](context.Background(), p, "Deposit", 10)
		require.NoError(t, err)
		assert.Equal(t, -1, got)

		// The real method never ran, so the balance is untouched.
		balance, err := juice.Call[int](context.Background(), p, "Balance")
		require.NoError(t, err)
		assert.Zero(t, balance)
	})

	t.Run("argument mutations reach the real method", func(t *testing.T) {
		t.Parallel()
		double := juice.InterceptorFunc(func(ctx context.Context, inv *juice.Invocation) (any, error) {
			amount := inv.Args()[0].(int)
			inv.SetArg(0, amount*2)
			return inv.Proceed(ctx)
		})
		inj, err := juice.New(
			juice.Bind[*AccountService](),
			juice.BindInterceptor(
				juice.Exactly[AccountService](),
				juice.MethodNamed("Deposit"),
				double,
			),
		)
		require.NoError(t, err)

		p := resolveProxy(t, inj, juice.KeyOf[*AccountService]())
		got, err := juice.Call[int](context.Background(), p, "Deposit", 10)
		require.NoError(t, err)
		assert.Equal(t, 20, got)
	})

	t.Run("non-matched methods pass straight through", func(t *testing.T) {
		t.Parallel()
		var log []string
		inj, err := juice.New(
			juice.Bind[*AccountService](),
			juice.BindInterceptor(
				juice.Exactly[AccountService](),
				juice.MethodNamed("Deposit"),
				&tracer{name: "t", log: &log},
			),
		)
		require.NoError(t, err)

		p := resolveProxy(t, inj, juice.KeyOf[*AccountService]())
		assert.True(t, p.Intercepted("Deposit"))
		assert.False(t, p.Intercepted("Balance"))

		_, err = p.Invoke(context.Background(), "Balance")
		require.NoError(t, err)
		assert.Empty(t, log)
	})

	t.Run("non-matched types resolve unwrapped", func(t *testing.T) {
		t.Parallel()
		inj, err := juice.New(
			juice.Bind[*AccountService](),
			juice.BindInstance[string]("sk", juice.WithName("stripe.key")),
			juice.Bind[*StripeGateway](),
			juice.BindInterceptor(
				juice.Exactly[AccountService](),
				juice.AnyMethod(),
				juice.InterceptorFunc(func(ctx context.Context, inv *juice.Invocation) (any, error) {
					return inv.Proceed(ctx)
				}),
			),
		)
		require.NoError(t, err)

		g, err := juice.Get[*StripeGateway](context.Background(), inj)
		require.NoError(t, err)
		require.NotNil(t, g)
	})

	t.Run("typed Get on an intercepted key explains the proxy", func(t *testing.T) {
		t.Parallel()
		inj, err := juice.New(
			juice.Bind[*AccountService](),
			juice.BindInterceptor(
				juice.Exactly[AccountService](),
				juice.AnyMethod(),
				juice.InterceptorFunc(func(ctx context.Context, inv *juice.Invocation) (any, error) {
					return inv.Proceed(ctx)
				}),
			),
		)
		require.NoError(t, err)

		_, err = juice.Get[*AccountService](context.Background(), inj)
		require.Error(t, err)
		assert.ErrorContains(t, err, "intercepted")
	})

	t.Run("singleton proxies are cached like their targets", func(t *testing.T) {
		t.Parallel()
		inj, err := juice.New(
			juice.Bind[*AccountService](juice.AsSingleton()),
			juice.BindInterceptor(
				juice.Exactly[AccountService](),
				juice.MethodNamed("Deposit"),
				juice.InterceptorFunc(func(ctx context.Context, inv *juice.Invocation) (any, error) {
					return inv.Proceed(ctx)
				}),
			),
		)
		require.NoError(t, err)

		p1 := resolveProxy(t, inj, juice.KeyOf[*AccountService]())
		p2 := resolveProxy(t, inj, juice.KeyOf[*AccountService]())
		assert.Same(t, p1, p2)

		_, err = juice.Call[int](context.Background(), p1, "Deposit", 5)
		require.NoError(t, err)
		balance, err := juice.Call[int](context.Background(), p2, "Balance")
		require.NoError(t, err)
		assert.Equal(t, 5, balance)
	})
}

type sealedCounter struct{ n int }

func TestInterceptionConstraints(t *testing.T) {
	t.Parallel()

	t.Run("a matched type with no exported methods fails the build", func(t *testing.T) {
		t.Parallel()
		_, err := juice.New(
			juice.Bind[*sealedCounter](),
			juice.BindInterceptor(
				juice.Exactly[sealedCounter](),
				juice.AnyMethod(),
				juice.InterceptorFunc(func(ctx context.Context, inv *juice.Invocation) (any, error) {
					return inv.Proceed(ctx)
				}),
			),
		)
		require.Error(t, err)

		var ierr *juice.InterceptionError
		require.ErrorAs(t, err, &ierr)
		assert.Contains(t, ierr.Reason, "no exported methods")
	})

	t.Run("interceptors never apply to hand-constructed instances", func(t *testing.T) {
		t.Parallel()
		inj, err := juice.New(
			juice.Bind[*AccountService](),
			juice.BindInterceptor(
				juice.Exactly[AccountService](),
				juice.MethodNamed("Deposit"),
				juice.InterceptorFunc(func(ctx context.Context, inv *juice.Invocation) (any, error) {
					return -1, nil
				}),
			),
		)
		require.NoError(t, err)
		_ = inj

		byHand := &AccountService{}
		assert.Equal(t, 7, byHand.Deposit(7))
	})
}

type accountReport struct {
	Service *AccountService `inject:""`
}

func TestInterceptedDependency(t *testing.T) {
	t.Parallel()

	t.Run("an inject-tagged field of an intercepted type fails with a structured error", func(t *testing.T) {
		t.Parallel()
		inj, err := juice.New(
			juice.Bind[*AccountService](),
			juice.BindInterceptor(
				juice.Exactly[AccountService](),
				juice.AnyMethod(),
				juice.InterceptorFunc(func(ctx context.Context, inv *juice.Invocation) (any, error) {
					return inv.Proceed(ctx)
				}),
			),
		)
		require.NoError(t, err)

		_, err = juice.Get[*accountReport](context.Background(), inj)
		require.Error(t, err)

		var ierr *juice.InstantiationError
		require.ErrorAs(t, err, &ierr)
		assert.Equal(t, juice.KeyOf[*accountReport](), ierr.Key)
		assert.ErrorContains(t, err, "cannot be injected")
	})

	t.Run("a constructor parameter of an intercepted type fails the same way", func(t *testing.T) {
		t.Parallel()
		type audit struct{ svc *AccountService }
		inj, err := juice.New(
			juice.Bind[*AccountService](),
			juice.BindConstructor[*audit](func(svc *AccountService) *audit {
				return &audit{svc: svc}
			}),
			juice.BindInterceptor(
				juice.Exactly[AccountService](),
				juice.MethodNamed("Deposit"),
				juice.InterceptorFunc(func(ctx context.Context, inv *juice.Invocation) (any, error) {
					return inv.Proceed(ctx)
				}),
			),
		)
		require.NoError(t, err)

		_, err = juice.Get[*audit](context.Background(), inj)
		require.Error(t, err)

		var ierr *juice.InstantiationError
		require.ErrorAs(t, err, &ierr)
		assert.Equal(t, juice.KeyOf[*audit](), ierr.Key)
		assert.ErrorContains(t, err, "*juice.Proxy")
	})
}

func TestInvocationTarget(t *testing.T) {
	t.Parallel()

	var target any
	inj, err := juice.New(
		juice.Bind[*AccountService](),
		juice.BindInterceptor(
			juice.Exactly[AccountService](),
			juice.MethodNamed("Balance"),
			juice.InterceptorFunc(func(ctx context.Context, inv *juice.Invocation) (any, error) {
				target = inv.Target()
				return inv.Proceed(ctx)
			}),
		),
	)
	require.NoError(t, err)

	p := resolveProxy(t, inj, juice.KeyOf[*AccountService]())
	_, err = p.Invoke(context.Background(), "Balance")
	require.NoError(t, err)
	assert.Same(t, p.Unwrap(), target)
}
