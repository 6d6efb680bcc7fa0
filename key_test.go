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
	"go.uber.org/juice"
)

func TestKeyIdentity(t *testing.T) {
	t.Parallel()

	t.Run("same type and qualifier compare equal", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, juice.KeyOf[string](), juice.KeyOf[string]())
		assert.Equal(t, juice.Named[string]("db"), juice.Named[string]("db"))
	})

	t.Run("qualifier distinguishes keys of one type", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t, juice.KeyOf[string](), juice.Named[string]("db"))
		assert.NotEqual(t, juice.Named[string]("db"), juice.Named[string]("cache"))
	})

	t.Run("aggregate keys never collide with plain keys", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t, juice.KeyOf[string](), juice.SetOf[string]())
		assert.NotEqual(t, juice.SetOf[string](), juice.MapOf[string]())
	})

	t.Run("KeyForType mirrors the generic constructors", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, juice.KeyOf[int](), juice.KeyForType(reflect.TypeOf(0), ""))
		assert.Equal(t, juice.Named[int]("n"), juice.KeyForType(reflect.TypeOf(0), "n"))
	})
}

func TestKeyAccessors(t *testing.T) {
	t.Parallel()

	k := juice.Named[*StripeGateway]("primary")
	assert.Equal(t, reflect.TypeOf(&StripeGateway{}), k.Type())
	assert.Equal(t, "primary", k.Qualifier())
	assert.False(t, k.IsZero())
	assert.True(t, juice.Key{}.IsZero())
}

func TestKeyString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "string", juice.KeyOf[string]().String())
	assert.Equal(t, `string("db")`, juice.Named[string]("db").String())
	assert.Equal(t, "Set[string]", juice.SetOf[string]().String())
	assert.Equal(t, "Map[string]", juice.MapOf[string]().String())
}
