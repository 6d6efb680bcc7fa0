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

// Package typename formats reflected types and functions for error
// messages and event logs.
package typename

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Type renders t the way it appears in source, without the full import
// path. A nil type renders as "<nil>".
func Type(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// Func returns the formatted name of fn, or "n/a" if fn is not a func.
func Func(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return "n/a"
	}
	name := runtime.FuncForPC(v.Pointer()).Name()
	return sanitize(name) + "()"
}

// sanitize strips the -fm suffix of method values and func literal
// counters so names stay stable across builds.
func sanitize(name string) string {
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.LastIndex(name, ".func"); i >= 0 {
		rest := name[i+len(".func"):]
		if rest != "" && strings.Trim(rest, "0123456789.") == "" {
			name = name[:i] + ".func" + rest
		}
	}
	return name
}

// Join renders a chain of stringers separated by " -> ", outermost
// first. Used for dependency-chain diagnostics.
func Join[T fmt.Stringer](items []T) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, " -> ")
}
