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
)

// setElement is one multibinding contribution: an anonymous element
// binding plus the aggregate key it belongs to, and for maps, its
// name.
type setElement struct {
	agg     Key
	name    string
	replace bool
	binding *Binding
}

// collectionStrategy assembles a Set or Map multibinding from its
// contributed elements. Element order is module-install order; the
// aggregate itself is unscoped, while each element binding keeps its
// own scope.
type collectionStrategy struct {
	agg       Key
	elems     []*setElement
	permitDup bool
}

func (s *collectionStrategy) get(fr *frame, b *Binding) (any, error) {
	if s.agg.flav == flavorMap {
		return s.getMap(fr)
	}
	return s.getSet(fr)
}

func (s *collectionStrategy) getSet(fr *frame) (any, error) {
	out := reflect.MakeSlice(s.agg.resultType(), 0, len(s.elems))
	seen := make([]any, 0, len(s.elems))
	for _, e := range s.elems {
		v, err := fr.resolveBinding(e.binding)
		if err != nil {
			return nil, err
		}
		if !s.permitDup {
			for _, prior := range seen {
				if reflect.DeepEqual(prior, v) {
					return nil, &ConfigError{Key: s.agg, Reason: fmt.Sprintf(
						"duplicate element %v; use PermitDuplicates to allow it",
						e.binding.strategy)}
				}
			}
			seen = append(seen, v)
		}
		if err := checkAssignable(e.binding.key, s.agg.typ, v); err != nil {
			return nil, fr.instantiationErr(s.agg, err)
		}
		out = reflect.Append(out, argValue(s.agg.typ, v))
	}
	return out.Interface(), nil
}

// getMap builds the name-keyed aggregate. Elements were deduplicated
// at composition unless duplicates are permitted, in which case the
// last registered contribution wins because later entries overwrite
// earlier ones here.
func (s *collectionStrategy) getMap(fr *frame) (any, error) {
	out := reflect.MakeMapWithSize(s.agg.resultType(), len(s.elems))
	for _, e := range s.elems {
		v, err := fr.resolveBinding(e.binding)
		if err != nil {
			return nil, err
		}
		if err := checkAssignable(e.binding.key, s.agg.typ, v); err != nil {
			return nil, fr.instantiationErr(s.agg, err)
		}
		out.SetMapIndex(reflect.ValueOf(e.name), argValue(s.agg.typ, v))
	}
	return out.Interface(), nil
}

func (s *collectionStrategy) dependencies() []Key {
	var keys []Key
	for _, e := range s.elems {
		keys = append(keys, e.binding.strategy.dependencies()...)
	}
	return keys
}

func (s *collectionStrategy) String() string {
	parts := make([]string, len(s.elems))
	for i, e := range s.elems {
		if s.agg.flav == flavorMap {
			parts[i] = fmt.Sprintf("%q: %v", e.name, e.binding.strategy)
		} else {
			parts[i] = e.binding.strategy.String()
		}
	}
	kind := "set"
	if s.agg.flav == flavorMap {
		kind = "map"
	}
	return fmt.Sprintf("%s(%s)", kind, strings.Join(parts, ", "))
}
