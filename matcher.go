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
	"strings"

	"go.uber.org/juice/internal/typename"
)

// Matcher is a composable predicate over T, used to select the classes
// and methods an interceptor binding applies to.
type Matcher[T any] struct {
	desc string
	fn   func(T) bool
}

// Match reports whether v satisfies the matcher.
func (m Matcher[T]) Match(v T) bool { return m.fn(v) }

func (m Matcher[T]) String() string { return m.desc }

// And returns a matcher satisfied when both m and other are.
func (m Matcher[T]) And(other Matcher[T]) Matcher[T] {
	return Matcher[T]{
		desc: fmt.Sprintf("and(%s, %s)", m.desc, other.desc),
		fn:   func(v T) bool { return m.fn(v) && other.fn(v) },
	}
}

// Or returns a matcher satisfied when either m or other is.
func (m Matcher[T]) Or(other Matcher[T]) Matcher[T] {
	return Matcher[T]{
		desc: fmt.Sprintf("or(%s, %s)", m.desc, other.desc),
		fn:   func(v T) bool { return m.fn(v) || other.fn(v) },
	}
}

// Not returns the negation of m.
func (m Matcher[T]) Not() Matcher[T] {
	return Matcher[T]{
		desc: fmt.Sprintf("not(%s)", m.desc),
		fn:   func(v T) bool { return !m.fn(v) },
	}
}

// ClassMatcher selects target types for interception.
type ClassMatcher = Matcher[reflect.Type]

// MethodMatcher selects methods of a matched target type.
type MethodMatcher = Matcher[reflect.Method]

// AnyClass matches every type.
func AnyClass() ClassMatcher {
	return ClassMatcher{desc: "anyClass", fn: func(reflect.Type) bool { return true }}
}

// Exactly matches exactly the type T (and, for struct types, *T).
func Exactly[T any]() ClassMatcher {
	want := typeOf[T]()
	return ClassMatcher{
		desc: fmt.Sprintf("exactly(%s)", typename.Type(want)),
		fn: func(t reflect.Type) bool {
			return t == want || (t.Kind() == reflect.Ptr && t.Elem() == want)
		},
	}
}

// SubtypeOf matches every type assignable to T. T is usually an
// interface.
func SubtypeOf[T any]() ClassMatcher {
	want := typeOf[T]()
	return ClassMatcher{
		desc: fmt.Sprintf("subtypeOf(%s)", typename.Type(want)),
		fn: func(t reflect.Type) bool {
			if want.Kind() == reflect.Interface {
				return t.Implements(want)
			}
			return t.AssignableTo(want)
		},
	}
}

// TypeNameContains matches types whose rendered name contains s.
func TypeNameContains(s string) ClassMatcher {
	return ClassMatcher{
		desc: fmt.Sprintf("typeNameContains(%q)", s),
		fn: func(t reflect.Type) bool {
			return strings.Contains(typename.Type(t), s)
		},
	}
}

// AnyMethod matches every exported method.
func AnyMethod() MethodMatcher {
	return MethodMatcher{desc: "anyMethod", fn: func(reflect.Method) bool { return true }}
}

// MethodNamed matches the method with exactly the given name.
func MethodNamed(name string) MethodMatcher {
	return MethodMatcher{
		desc: fmt.Sprintf("methodNamed(%q)", name),
		fn:   func(m reflect.Method) bool { return m.Name == name },
	}
}

// MethodPrefix matches methods whose name starts with prefix.
func MethodPrefix(prefix string) MethodMatcher {
	return MethodMatcher{
		desc: fmt.Sprintf("methodPrefix(%q)", prefix),
		fn:   func(m reflect.Method) bool { return strings.HasPrefix(m.Name, prefix) },
	}
}

// MethodReturns matches methods whose first result is assignable to T.
func MethodReturns[T any]() MethodMatcher {
	want := typeOf[T]()
	return MethodMatcher{
		desc: fmt.Sprintf("methodReturns(%s)", typename.Type(want)),
		fn: func(m reflect.Method) bool {
			t := m.Func.Type()
			return t.NumOut() > 0 && t.Out(0).AssignableTo(want)
		},
	}
}
