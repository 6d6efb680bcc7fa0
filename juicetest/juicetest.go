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

// Package juicetest has helpers for writing tests against an Injector.
package juicetest

import (
	"context"

	"go.uber.org/juice"
)

// TB is a subset of the standard library's testing.TB interface. It's
// satisfied by both *testing.T and *testing.B.
type TB interface {
	Errorf(string, ...interface{})
	FailNow()
}

// New builds an Injector from the given options, failing the test
// immediately if the module set does not validate.
func New(tb TB, opts ...juice.Option) *juice.Injector {
	inj, err := juice.New(opts...)
	if err != nil {
		tb.Errorf("injector didn't build cleanly: %v", err)
		tb.FailNow()
	}
	return inj
}

// RequireGet resolves the unqualified binding for T, failing the test
// on error.
func RequireGet[T any](tb TB, inj *juice.Injector) T {
	v, err := juice.Get[T](context.Background(), inj)
	if err != nil {
		tb.Errorf("resolving failed: %v", err)
		tb.FailNow()
	}
	return v
}

// RequireGetNamed resolves the binding for T qualified by name,
// failing the test on error.
func RequireGetNamed[T any](tb TB, inj *juice.Injector, name string) T {
	v, err := juice.GetNamed[T](context.Background(), inj, name)
	if err != nil {
		tb.Errorf("resolving %q failed: %v", name, err)
		tb.FailNow()
	}
	return v
}
