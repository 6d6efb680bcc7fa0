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

	"go.uber.org/multierr"
)

// registry is the finalized key-to-binding map produced by composing
// all modules under precedence rules: the first installed binding for
// a key wins over later non-override registrations, and an override
// binding unconditionally replaces whatever was there.
type registry struct {
	bindings  map[Key]*Binding
	order     []Key // registration order, for deterministic events and compilation
	elements  map[Key][]*setElement
	elemOrder []Key
	permitDup map[Key]bool
	rules     []*interceptRule
}

// compose flattens the applied module tree into a registry. All
// configuration errors found along the way are aggregated; a non-nil
// error means the registry must not be used.
func compose(root *moduleState) (*registry, error) {
	r := &registry{
		bindings:  make(map[Key]*Binding),
		elements:  make(map[Key][]*setElement),
		permitDup: make(map[Key]bool),
	}
	var errs error
	overridden := make(map[Key]string)

	var walk func(m *moduleState, override bool)
	walk = func(m *moduleState, override bool) {
		for _, item := range m.items {
			switch it := item.(type) {
			case *Binding:
				if override {
					if prev, ok := overridden[it.key]; ok {
						errs = multierr.Append(errs, &ConfigError{
							Key: it.key,
							Reason: fmt.Sprintf(
								"conflicting override bindings (modules %q and %q)",
								prev, it.module),
						})
						continue
					}
					overridden[it.key] = it.module
					it.override = true
					if _, ok := r.bindings[it.key]; !ok {
						r.order = append(r.order, it.key)
					}
					r.bindings[it.key] = it
					continue
				}
				// First install wins; an override stays in place too.
				if _, ok := r.bindings[it.key]; ok {
					continue
				}
				r.bindings[it.key] = it
				r.order = append(r.order, it.key)

			case *setElement:
				if _, ok := r.elements[it.agg]; !ok {
					r.elemOrder = append(r.elemOrder, it.agg)
				}
				if it.replace {
					kept := r.elements[it.agg][:0]
					for _, e := range r.elements[it.agg] {
						if e.name != it.name {
							kept = append(kept, e)
						}
					}
					r.elements[it.agg] = kept
				}
				r.elements[it.agg] = append(r.elements[it.agg], it)

			case *interceptRule:
				r.rules = append(r.rules, it)

			case *moduleState:
				walk(it, override || it.overrideSet)

			case permitDupItem:
				for _, k := range it.keys {
					r.permitDup[k] = true
				}

			case error:
				errs = multierr.Append(errs, it)
			}
		}
	}
	walk(root, root.overrideSet)

	// Materialize one aggregate binding per multibinding, in the order
	// the first contribution for each appeared.
	for _, agg := range r.elemOrder {
		elems := r.elements[agg]
		if agg.flav == flavorMap && !r.permitDup[agg] {
			seen := make(map[string]string)
			for _, e := range elems {
				if prev, ok := seen[e.name]; ok {
					errs = multierr.Append(errs, &ConfigError{
						Key: agg,
						Reason: fmt.Sprintf(
							"duplicate name %q (modules %q and %q); use PermitDuplicates or ReplaceInMap",
							e.name, prev, e.binding.module),
					})
					continue
				}
				seen[e.name] = e.binding.module
			}
		}
		if _, ok := r.bindings[agg]; ok {
			errs = multierr.Append(errs, &ConfigError{
				Key:    agg,
				Reason: "explicitly bound and contributed to as a multibinding",
			})
			continue
		}
		r.bindings[agg] = &Binding{
			key:      agg,
			strategy: &collectionStrategy{agg: agg, elems: elems, permitDup: r.permitDup[agg]},
			module:   "multibinding",
		}
		r.order = append(r.order, agg)
	}

	if errs != nil {
		return nil, errs
	}
	return r, nil
}
