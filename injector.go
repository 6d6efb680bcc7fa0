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
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/juice/internal/typename"
	"go.uber.org/juice/juiceevent"
	"go.uber.org/multierr"
)

// Injector owns the composed registry, the singleton cache, and the
// interception tables. It is the only entry point for resolving
// instances and is safe for concurrent use after New returns.
type Injector struct {
	reg *registry
	log juiceevent.Logger

	mu         sync.Mutex
	singletons map[*Binding]*singletonEntry

	jitMu    sync.Mutex
	jit      map[Key]*Binding
	jitOrder []Key

	chainMu    sync.Mutex
	chainCache map[reflect.Type]chainEntry
}

type singletonEntry struct {
	done chan struct{} // closed once construction finished
	gid  uint64        // goroutine constructing the entry
	val  any
	err  error
}

type chainEntry struct {
	chains map[string][]Interceptor
	err    error
}

// New composes the given options into a registry, validates the
// resulting graph, and returns the ready Injector. Configuration,
// Unbound, and CyclicDependency failures found at build time are all
// aggregated into the returned error.
func New(opts ...Option) (*Injector, error) {
	root := &moduleState{name: "root"}
	for _, opt := range opts {
		opt.apply(root)
	}
	log := root.logger
	if log == nil {
		log = juiceevent.NopLogger
	}

	reg, err := compose(root)
	if err != nil {
		return nil, err
	}

	inj := &Injector{
		reg:        reg,
		log:        log,
		singletons: make(map[*Binding]*singletonEntry),
		jit:        make(map[Key]*Binding),
		chainCache: make(map[reflect.Type]chainEntry),
	}

	var errs error
	errs = multierr.Append(errs, inj.checkInterception())
	if !root.skipValidate {
		errs = multierr.Append(errs, inj.validate())
	}
	if errs != nil {
		return nil, errs
	}

	for _, key := range reg.order {
		b := reg.bindings[key]
		if b.override {
			log.LogEvent(&juiceevent.Overridden{
				Key:      b.key.String(),
				Strategy: b.strategy.String(),
				Module:   b.module,
			})
			continue
		}
		log.LogEvent(&juiceevent.Bound{
			Key:      b.key.String(),
			Strategy: b.strategy.String(),
			Scope:    b.scope.String(),
			Module:   b.module,
		})
	}
	return inj, nil
}

// GetInstance resolves the instance bound to key, applying scope
// caching and interceptor wrapping. It may be called concurrently; for
// singleton bindings exactly one caller constructs while the others
// await its result.
func (inj *Injector) GetInstance(ctx context.Context, key Key) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	fr := &frame{ctx: ctx, inj: inj}
	v, err := fr.resolve(key)
	inj.log.LogEvent(&juiceevent.Resolved{Key: key.String(), Err: err})
	return v, err
}

// Get resolves the unqualified binding for T.
func Get[T any](ctx context.Context, inj *Injector) (T, error) {
	return getKey[T](ctx, inj, KeyOf[T]())
}

// GetNamed resolves the binding for T qualified by name.
func GetNamed[T any](ctx context.Context, inj *Injector, name string) (T, error) {
	return getKey[T](ctx, inj, Named[T](name))
}

// GetSet resolves the Set multibinding for T, in module-install order.
func GetSet[T any](ctx context.Context, inj *Injector) ([]T, error) {
	return getKey[[]T](ctx, inj, SetOf[T]())
}

// GetMap resolves the Map multibinding for T.
func GetMap[T any](ctx context.Context, inj *Injector) (map[string]T, error) {
	return getKey[map[string]T](ctx, inj, MapOf[T]())
}

func getKey[T any](ctx context.Context, inj *Injector, key Key) (T, error) {
	var zero T
	v, err := inj.GetInstance(ctx, key)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		if _, proxied := v.(*Proxy); proxied {
			return zero, fmt.Errorf(
				"juice: %v is intercepted; resolve it as *juice.Proxy and use Invoke", key)
		}
		return zero, fmt.Errorf("juice: %v resolved to %s, want %s",
			key, typename.Type(reflect.TypeOf(v)), typename.Type(typeOf[T]()))
	}
	return typed, nil
}

// Keys lists the explicitly bound keys in registration order.
func (inj *Injector) Keys() []Key {
	out := make([]Key, len(inj.reg.order))
	copy(out, inj.reg.order)
	return out
}

// frame is the per-call resolution state: the context the caller
// supplied and the in-flight key stack used for cycle detection and
// chain reporting. Frames are never shared between goroutines.
type frame struct {
	ctx   context.Context
	inj   *Injector
	stack []Key
}

func (fr *frame) resolve(key Key) (any, error) {
	for i, k := range fr.stack {
		if k == key {
			cycle := append(snapshot(fr.stack[i:]), key)
			return nil, &CycleError{Cycle: cycle}
		}
	}
	fr.stack = append(fr.stack, key)
	defer func() { fr.stack = fr.stack[:len(fr.stack)-1] }()

	b := fr.inj.reg.bindings[key]
	if b == nil {
		var err error
		b, err = fr.inj.jitBinding(key)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, &UnboundError{Key: key, Chain: snapshot(fr.stack)}
		}
	}
	return fr.resolveBinding(b)
}

// resolveBinding applies scope handling around the binding's strategy.
func (fr *frame) resolveBinding(b *Binding) (any, error) {
	if b.scope == Singleton {
		return fr.inj.singletonGet(fr, b)
	}
	return fr.provide(b)
}

// provide runs the strategy and wraps the produced instance in a Proxy
// when its concrete type has intercepted methods.
func (fr *frame) provide(b *Binding) (any, error) {
	v, err := b.strategy.get(fr, b)
	if err != nil {
		return nil, err
	}
	return fr.inj.maybeProxy(v)
}

func (fr *frame) instantiationErr(key Key, cause error) error {
	return &InstantiationError{Key: key, Chain: snapshot(fr.stack), Cause: cause}
}

// singletonGet serializes construction per binding: the first caller
// constructs while concurrent callers block on the entry. A failed
// construction removes the entry, so a later call may retry; no two
// callers ever observe distinct instances for one binding.
//
// A Provider handle invoked inside a constructor resolves on a fresh
// frame, so the frame's key stack cannot see the singleton that is
// still being constructed. Reaching the in-flight entry again from the
// constructing goroutine is therefore checked here: it is a cycle, and
// waiting on the entry would deadlock against our own construction.
func (inj *Injector) singletonGet(fr *frame, b *Binding) (any, error) {
	inj.mu.Lock()
	if e, ok := inj.singletons[b]; ok {
		inj.mu.Unlock()
		select {
		case <-e.done:
		default:
			if e.gid == curGoroutineID() {
				return nil, &CycleError{Cycle: append(snapshot(fr.stack), b.key)}
			}
		}
		<-e.done
		return e.val, e.err
	}
	e := &singletonEntry{done: make(chan struct{}), gid: curGoroutineID()}
	inj.singletons[b] = e
	inj.mu.Unlock()

	e.val, e.err = fr.provide(b)
	if e.err != nil {
		inj.mu.Lock()
		delete(inj.singletons, b)
		inj.mu.Unlock()
	}
	close(e.done)
	return e.val, e.err
}

// curGoroutineID parses the current goroutine's id out of the first
// runtime.Stack line ("goroutine N [running]: ..."). The runtime
// exposes no direct accessor.
func curGoroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// jitBinding returns the memoized just-in-time binding for key,
// synthesizing it on first request. Returns (nil, nil) when key is not
// JIT-eligible.
func (inj *Injector) jitBinding(key Key) (*Binding, error) {
	if key.flav != flavorPlain || key.typ == nil || !jitEligible(key.typ) {
		return nil, nil
	}
	inj.jitMu.Lock()
	defer inj.jitMu.Unlock()
	if b, ok := inj.jit[key]; ok {
		return b, nil
	}
	s, err := synthesizeStruct(key)
	if err != nil {
		return nil, err
	}
	b := &Binding{key: key, strategy: s, module: "just-in-time"}
	inj.jit[key] = b
	inj.jitOrder = append(inj.jitOrder, key)
	inj.log.LogEvent(&juiceevent.JITBound{Key: key.String()})
	return b, nil
}

// maybeProxy wraps v when its concrete type has at least one
// intercepted method. Already-proxied values pass through.
func (inj *Injector) maybeProxy(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if _, ok := v.(*Proxy); ok {
		return v, nil
	}
	t := reflect.TypeOf(v)
	chains, err := inj.chainsForType(t)
	if err != nil {
		return nil, err
	}
	if chains == nil {
		return v, nil
	}
	return &Proxy{target: reflect.ValueOf(v), typ: t, chains: chains}, nil
}

// chainsForType memoizes the per-method interceptor table of t. The
// table for statically known types is computed at build time; types
// first seen at runtime (factory results) are computed here under the
// same rules.
func (inj *Injector) chainsForType(t reflect.Type) (map[string][]Interceptor, error) {
	if len(inj.reg.rules) == 0 {
		return nil, nil
	}
	inj.chainMu.Lock()
	defer inj.chainMu.Unlock()
	if e, ok := inj.chainCache[t]; ok {
		return e.chains, e.err
	}
	chains, err := chainsFor(t, inj.reg.rules)
	inj.chainCache[t] = chainEntry{chains: chains, err: err}
	return chains, err
}

// checkInterception applies every interceptor rule to the concrete
// types the registry knows statically, surfacing constraint violations
// at build time and emitting one Intercepted event per chained method.
func (inj *Injector) checkInterception() error {
	if len(inj.reg.rules) == 0 {
		return nil
	}
	var errs error
	seen := make(map[reflect.Type]bool)
	for _, key := range inj.reg.order {
		for _, ct := range concreteTypes(inj.reg, inj.reg.bindings[key], 0) {
			if seen[ct] {
				continue
			}
			seen[ct] = true
			chains, err := inj.chainsForType(ct)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			methods := make([]string, 0, len(chains))
			for name := range chains {
				methods = append(methods, name)
			}
			sort.Strings(methods)
			for _, name := range methods {
				inj.log.LogEvent(&juiceevent.Intercepted{
					Target:       typename.Type(ct),
					Method:       name,
					Interceptors: len(chains[name]),
				})
			}
		}
	}
	return errs
}

// concreteTypes reports the instance types a binding is statically
// known to produce. Factory and null bindings produce types only known
// at runtime and report none.
func concreteTypes(reg *registry, b *Binding, depth int) []reflect.Type {
	if depth > len(reg.bindings) {
		return nil // defensive bound on linked chains
	}
	switch s := b.strategy.(type) {
	case *instanceStrategy:
		if t := reflect.TypeOf(s.value); t != nil {
			return []reflect.Type{t}
		}
	case *constructorStrategy:
		return []reflect.Type{s.result}
	case *structStrategy:
		if s.ptr {
			return []reflect.Type{reflect.PtrTo(s.typ)}
		}
		return []reflect.Type{s.typ}
	case *linkedStrategy:
		if target := reg.bindings[s.target]; target != nil {
			return concreteTypes(reg, target, depth+1)
		}
		if jitEligible(s.target.typ) && s.target.typ.Kind() != reflect.Interface {
			return []reflect.Type{s.target.typ}
		}
	case *collectionStrategy:
		var out []reflect.Type
		for _, e := range s.elems {
			out = append(out, concreteTypes(reg, e.binding, depth+1)...)
		}
		return out
	}
	return nil
}

// validate walks the static dependency graph of every explicit
// binding, synthesizing just-in-time bindings along the way, and
// aggregates every Unbound, CyclicDependency, and Configuration
// failure it finds. Provider-handle edges are not walked; deferring is
// what makes them legal in a cycle.
func (inj *Injector) validate() error {
	var errs error
	done := make(map[Key]bool)
	reported := make(map[Key]bool)

	var visit func(key Key, stack []Key)
	visit = func(key Key, stack []Key) {
		if done[key] {
			return
		}
		for i, k := range stack {
			if k == key {
				if !reported[key] {
					reported[key] = true
					errs = multierr.Append(errs, &CycleError{
						Cycle: append(snapshot(stack[i:]), key),
					})
				}
				return
			}
		}
		stack = append(stack, key)

		b := inj.reg.bindings[key]
		if b == nil {
			var err error
			b, err = inj.jitBinding(key)
			if err != nil {
				if !reported[key] {
					reported[key] = true
					errs = multierr.Append(errs, err)
				}
				done[key] = true
				return
			}
			if b == nil {
				if !reported[key] {
					reported[key] = true
					errs = multierr.Append(errs, &UnboundError{Key: key, Chain: snapshot(stack)})
				}
				done[key] = true
				return
			}
		}
		for _, dep := range b.strategy.dependencies() {
			visit(dep, stack)
		}
		done[key] = true
	}

	for _, key := range inj.reg.order {
		visit(key, nil)
	}
	return errs
}

// BindingInfo is the diagnostic description of one binding, used by
// the offline compiler and by tooling.
type BindingInfo struct {
	Key          string   `json:"key"`
	Scope        string   `json:"scope"`
	Strategy     string   `json:"strategy"`
	Dependencies []string `json:"dependencies,omitempty"`
	JIT          bool     `json:"jit,omitempty"`
}

// Bindings describes every binding the Injector holds: the explicit
// registry in registration order, then the just-in-time bindings
// synthesized so far in synthesis order.
func (inj *Injector) Bindings() []BindingInfo {
	out := make([]BindingInfo, 0, len(inj.reg.order))
	for _, key := range inj.reg.order {
		out = append(out, bindingInfo(inj.reg.bindings[key], false))
	}
	inj.jitMu.Lock()
	defer inj.jitMu.Unlock()
	for _, key := range inj.jitOrder {
		out = append(out, bindingInfo(inj.jit[key], true))
	}
	return out
}

func bindingInfo(b *Binding, jit bool) BindingInfo {
	deps := b.strategy.dependencies()
	info := BindingInfo{
		Key:      b.key.String(),
		Scope:    b.scope.String(),
		Strategy: b.strategy.String(),
		JIT:      jit,
	}
	for _, d := range deps {
		info.Dependencies = append(info.Dependencies, d.String())
	}
	return info
}

// Signature returns the hex-encoded digest of the composed registry.
// Two Injectors built from equivalent module sets share a signature.
func (inj *Injector) Signature() string {
	return inj.reg.fingerprint()
}

// Fingerprint composes opts without validating the graph and returns
// the registry signature. The offline compiler uses it to decide
// whether a persisted artifact still matches the current module set.
func Fingerprint(opts ...Option) (string, error) {
	root := &moduleState{name: "root"}
	for _, opt := range opts {
		opt.apply(root)
	}
	reg, err := compose(root)
	if err != nil {
		return "", err
	}
	return reg.fingerprint(), nil
}

func (r *registry) fingerprint() string {
	h := sha256.New()
	for _, key := range r.order {
		b := r.bindings[key]
		fmt.Fprintf(h, "%v|%v|%v\n", b.key, b.scope, b.strategy)
	}
	for _, rule := range r.rules {
		fmt.Fprintf(h, "%v\n", rule)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func snapshot(keys []Key) []Key {
	out := make([]Key, len(keys))
	copy(out, keys)
	return out
}
