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

// PostConstructor is the hook interface honored by just-in-time
// bindings: after a synthesized struct is fully wired, PostConstruct
// runs exactly once before the instance is handed out.
type PostConstructor interface {
	PostConstruct(ctx context.Context) error
}

var postConstructorType = reflect.TypeOf((*PostConstructor)(nil)).Elem()

// structStrategy is the production strategy of a just-in-time binding:
// allocate the struct, fill its inject-tagged fields, run the
// PostConstruct hook if the type has one.
type structStrategy struct {
	typ    reflect.Type // the struct type
	ptr    bool         // the key asked for *T rather than T
	fields []fieldPlan
}

type fieldPlan struct {
	index    int
	typ      reflect.Type
	key      Key
	provider bool
	elemKey  Key
}

// jitEligible reports whether t is a concrete, constructible type: a
// struct, or a pointer to one. Interfaces, funcs, and scalars have no
// synthesizable construction.
func jitEligible(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// synthesizeStruct builds the just-in-time strategy for key. The
// struct's exported fields carrying an `inject` tag are its parameter
// descriptors: the field type is the declared type, the tag value the
// optional qualifier. A tagged unexported field is a Configuration
// error since reflection cannot set it.
func synthesizeStruct(key Key) (*structStrategy, error) {
	t := key.Type()
	s := &structStrategy{typ: t}
	if t.Kind() == reflect.Ptr {
		s.typ = t.Elem()
		s.ptr = true
	}
	if s.typ.Kind() != reflect.Struct {
		return nil, &ConfigError{Key: key, Reason: fmt.Sprintf(
			"%s is not a constructible type", typename.Type(t))}
	}
	for i := 0; i < s.typ.NumField(); i++ {
		f := s.typ.Field(i)
		tag, ok := f.Tag.Lookup("inject")
		if !ok {
			continue
		}
		if f.PkgPath != "" {
			return nil, &ConfigError{Key: key, Reason: fmt.Sprintf(
				"inject-tagged field %s.%s must be exported",
				typename.Type(s.typ), f.Name)}
		}
		plan := fieldPlan{index: i, typ: f.Type}
		if elem, ok := isProviderHandle(f.Type); ok {
			plan.provider = true
			plan.elemKey = Key{typ: elem, qualifier: tag}
		} else {
			plan.key = Key{typ: f.Type, qualifier: tag}
		}
		s.fields = append(s.fields, plan)
	}
	return s, nil
}

func (s *structStrategy) get(fr *frame, b *Binding) (any, error) {
	ptr := reflect.New(s.typ)
	elem := ptr.Elem()
	for _, f := range s.fields {
		field := elem.Field(f.index)
		if f.provider {
			field.Set(makeProviderHandle(fr.inj, f.typ, f.elemKey))
			continue
		}
		v, err := fr.resolve(f.key)
		if err != nil {
			return nil, err
		}
		if err := checkAssignable(f.key, f.typ, v); err != nil {
			return nil, fr.instantiationErr(b.key, err)
		}
		if v != nil {
			field.Set(argValue(f.typ, v))
		}
	}
	instance := ptr.Interface()
	if hook, ok := instance.(PostConstructor); ok {
		if err := hook.PostConstruct(fr.ctx); err != nil {
			return nil, fr.instantiationErr(b.key, err)
		}
	}
	if s.ptr {
		return instance, nil
	}
	return elem.Interface(), nil
}

func (s *structStrategy) dependencies() []Key {
	var keys []Key
	for _, f := range s.fields {
		if !f.provider {
			keys = append(keys, f.key)
		}
	}
	return keys
}

func (s *structStrategy) String() string {
	return fmt.Sprintf("struct(%s)", typename.Type(s.typ))
}
