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
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/juice"
)

func TestClassMatchers(t *testing.T) {
	t.Parallel()

	svc := reflect.TypeOf(&AccountService{})

	t.Run("AnyClass matches everything", func(t *testing.T) {
		t.Parallel()
		assert.True(t, juice.AnyClass().Match(svc))
		assert.True(t, juice.AnyClass().Match(reflect.TypeOf(0)))
	})

	t.Run("Exactly matches the type and its pointer", func(t *testing.T) {
		t.Parallel()
		m := juice.Exactly[AccountService]()
		assert.True(t, m.Match(reflect.TypeOf(AccountService{})))
		assert.True(t, m.Match(svc))
		assert.False(t, m.Match(reflect.TypeOf(&StripeGateway{})))
	})

	t.Run("SubtypeOf matches implementations of an interface", func(t *testing.T) {
		t.Parallel()
		m := juice.SubtypeOf[PaymentGateway]()
		assert.True(t, m.Match(reflect.TypeOf(&StripeGateway{})))
		assert.False(t, m.Match(svc))
	})

	t.Run("TypeNameContains matches on the rendered name", func(t *testing.T) {
		t.Parallel()
		m := juice.TypeNameContains("AccountService")
		assert.True(t, m.Match(svc))
		assert.False(t, m.Match(reflect.TypeOf(&StripeGateway{})))
	})
}

func TestMethodMatchers(t *testing.T) {
	t.Parallel()

	svc := reflect.TypeOf(&AccountService{})
	deposit, ok := svc.MethodByName("Deposit")
	require.True(t, ok)
	balance, ok := svc.MethodByName("Balance")
	require.True(t, ok)

	t.Run("MethodNamed", func(t *testing.T) {
		t.Parallel()
		assert.True(t, juice.MethodNamed("Deposit").Match(deposit))
		assert.False(t, juice.MethodNamed("Deposit").Match(balance))
	})

	t.Run("MethodPrefix", func(t *testing.T) {
		t.Parallel()
		assert.True(t, juice.MethodPrefix("Dep").Match(deposit))
		assert.False(t, juice.MethodPrefix("Dep").Match(balance))
	})

	t.Run("MethodReturns", func(t *testing.T) {
		t.Parallel()
		assert.True(t, juice.MethodReturns[int]().Match(deposit))
		assert.False(t, juice.MethodReturns[string]().Match(deposit))
	})

	t.Run("AnyMethod", func(t *testing.T) {
		t.Parallel()
		assert.True(t, juice.AnyMethod().Match(deposit))
	})
}

func TestMatcherComposition(t *testing.T) {
	t.Parallel()

	svc := reflect.TypeOf(&AccountService{})
	gw := reflect.TypeOf(&StripeGateway{})

	both := juice.Exactly[AccountService]().Or(juice.Exactly[StripeGateway]())
	assert.True(t, both.Match(svc))
	assert.True(t, both.Match(gw))

	neither := both.Not()
	assert.False(t, neither.Match(svc))

	narrowed := both.And(juice.TypeNameContains("Stripe"))
	assert.False(t, narrowed.Match(svc))
	assert.True(t, narrowed.Match(gw))

	assert.Contains(t, narrowed.String(), "and(")
	assert.Contains(t, neither.String(), "not(")
}
