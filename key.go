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

	"go.uber.org/juice/internal/typename"
)

// flavor distinguishes a plain key from the aggregate keys produced by
// multibinding. A set-flavored key for T resolves to []T; a map-flavored
// key resolves to map[string]T.
type flavor int8

const (
	flavorPlain flavor = iota
	flavorSet
	flavorMap
)

// Key identifies a dependency: a type plus an optional qualifier that
// distinguishes multiple bindings of the same type. Keys are comparable
// and usable as map keys; equality is field-wise.
type Key struct {
	typ       reflect.Type
	qualifier string
	flav      flavor
}

// KeyOf returns the Key for type T with no qualifier.
func KeyOf[T any]() Key {
	return Key{typ: typeOf[T]()}
}

// Named returns the Key for type T qualified by name.
func Named[T any](name string) Key {
	return Key{typ: typeOf[T](), qualifier: name}
}

// SetOf returns the aggregate Key of the Set multibinding for element
// type T. Resolving it yields a []T in contribution order.
func SetOf[T any]() Key {
	return Key{typ: typeOf[T](), flav: flavorSet}
}

// MapOf returns the aggregate Key of the Map multibinding for element
// type T. Resolving it yields a map[string]T.
func MapOf[T any]() Key {
	return Key{typ: typeOf[T](), flav: flavorMap}
}

// KeyForType builds a Key from a reflect.Type directly. Most callers
// should prefer the generic constructors; this exists for the compiler
// and for code that discovers types at runtime.
func KeyForType(t reflect.Type, qualifier string) Key {
	return Key{typ: t, qualifier: qualifier}
}

// Type reports the Go type this key identifies.
func (k Key) Type() reflect.Type { return k.typ }

// Qualifier reports the key's qualifier, or "" if unqualified.
func (k Key) Qualifier() string { return k.qualifier }

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool { return k.typ == nil }

func (k Key) String() string {
	name := typename.Type(k.typ)
	switch k.flav {
	case flavorSet:
		name = "Set[" + name + "]"
	case flavorMap:
		name = "Map[" + name + "]"
	}
	if k.qualifier != "" {
		return fmt.Sprintf("%s(%q)", name, k.qualifier)
	}
	return name
}

// resultType is the Go type GetInstance produces for this key.
func (k Key) resultType() reflect.Type {
	switch k.flav {
	case flavorSet:
		return reflect.SliceOf(k.typ)
	case flavorMap:
		return reflect.MapOf(reflect.TypeOf(""), k.typ)
	default:
		return k.typ
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
