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

func TestSetMultibinding(t *testing.T) {
	t.Parallel()

	t.Run("elements accumulate across modules in install order", func(t *testing.T) {
		t.Parallel()
		inj, err := juice.New(
			juice.Module("core",
				juice.BindInstance[string]("auth", juice.InSet()),
				juice.BindInstance[string]("logging", juice.InSet()),
			),
			juice.Module("extra",
				juice.BindInstance[string]("tracing", juice.InSet()),
			),
		)
		require.NoError(t, err)

		got, err := juice.GetSet[string](context.Background(), inj)
		require.NoError(t, err)
		assert.Equal(t, []string{"auth", "logging", "tracing"}, got)
	})

	t.Run("duplicate elements are rejected at resolution", func(t *testing.T) {
		t.Parallel()
		inj, err := juice.New(
			juice.BindInstance[string]("auth", juice.InSet()),
			juice.BindInstance[string]("auth", juice.InSet()),
		)
		require.NoError(t, err)

		_, err = juice.GetSet[string](context.Background(), inj)
		var cfg *juice.ConfigError
		require.ErrorAs(t, err, &cfg)
		assert.Contains(t, cfg.Reason, "duplicate element")
	})

	t.Run("PermitDuplicates keeps every contribution", func(t *testing.T) {
		t.Parallel()
		inj, err := juice.New(
			juice.PermitDuplicates[string](),
			juice.BindInstance[string]("auth", juice.InSet()),
			juice.BindInstance[string]("auth", juice.InSet()),
		)
		require.NoError(t, err)

		got, err := juice.GetSet[string](context.Background(), inj)
		require.NoError(t, err)
		assert.Equal(t, []string{"auth", "auth"}, got)
	})

	t.Run("an empty set was never contributed to and is unbound", func(t *testing.T) {
		t.Parallel()
		inj, err := juice.New(juice.WithoutValidation())
		require.NoError(t, err)

		_, err = juice.GetSet[string](context.Background(), inj)
		var unbound *juice.UnboundError
		require.ErrorAs(t, err, &unbound)
	})

	t.Run("element scopes are honored", func(t *testing.T) {
		t.Parallel()
		inj, err := juice.New(
			juice.BindInstance[string]("sk", juice.WithName("stripe.key")),
			juice.Bind[*StripeGateway](juice.InSet(), juice.AsSingleton()),
		)
		require.NoError(t, err)

		first, err := juice.GetSet[*StripeGateway](context.Background(), inj)
		require.NoError(t, err)
		second, err := juice.GetSet[*StripeGateway](context.Background(), inj)
		require.NoError(t, err)
		require.Len(t, first, 1)
		require.Len(t, second, 1)
		assert.Same(t, first[0], second[0])
	})
}

func TestMapMultibinding(t *testing.T) {
	t.Parallel()

	t.Run("contributions key by name", func(t *testing.T) {
		t.Parallel()
		inj, err := juice.New(
			juice.BindInstance[int](5432, juice.InMap("postgres")),
			juice.BindInstance[int](3306, juice.InMap("mysql")),
		)
		require.NoError(t, err)

		got, err := juice.GetMap[int](context.Background(), inj)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"postgres": 5432, "mysql": 3306}, got)
	})

	t.Run("a duplicated name is a configuration error", func(t *testing.T) {
		t.Parallel()
		_, err := juice.New(
			juice.Module("a", juice.BindInstance[int](1, juice.InMap("port"))),
			juice.Module("b", juice.BindInstance[int](2, juice.InMap("port"))),
		)
		require.Error(t, err)

		var cfg *juice.ConfigError
		require.ErrorAs(t, err, &cfg)
		assert.Contains(t, cfg.Reason, `duplicate name "port"`)
	})

	t.Run("PermitDuplicates lets the last registered value win", func(t *testing.T) {
		t.Parallel()
		inj, err := juice.New(
			juice.PermitDuplicates[int](),
			juice.BindInstance[int](1, juice.InMap("port")),
			juice.BindInstance[int](2, juice.InMap("port")),
		)
		require.NoError(t, err)

		got, err := juice.GetMap[int](context.Background(), inj)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"port": 2}, got)
	})

	t.Run("ReplaceInMap swaps an earlier contribution without permitting duplicates", func(t *testing.T) {
		t.Parallel()
		inj, err := juice.New(
			juice.BindInstance[int](1, juice.InMap("port")),
			juice.BindInstance[int](2, juice.ReplaceInMap("port")),
		)
		require.NoError(t, err)

		got, err := juice.GetMap[int](context.Background(), inj)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"port": 2}, got)
	})
}

func TestSetAndMapOfOneTypeCoexist(t *testing.T) {
	t.Parallel()

	inj, err := juice.New(
		juice.BindInstance[string]("a", juice.InSet()),
		juice.BindInstance[string]("b", juice.InMap("second")),
		juice.BindInstance[string]("plain"),
	)
	require.NoError(t, err)

	set, err := juice.GetSet[string](context.Background(), inj)
	require.NoError(t, err)
	m, err := juice.GetMap[string](context.Background(), inj)
	require.NoError(t, err)
	plain, err := juice.Get[string](context.Background(), inj)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, set)
	assert.Equal(t, map[string]string{"second": "b"}, m)
	assert.Equal(t, "plain", plain)
}
