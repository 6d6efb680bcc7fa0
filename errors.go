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

// UnboundError reports that no explicit, linked, or just-in-time
// resolution exists for a requested key. Chain holds every dependent
// key traversed, from the key originally requested down to the one
// that failed.
type UnboundError struct {
	Key   Key
	Chain []Key
}

func (e *UnboundError) Error() string {
	if len(e.Chain) <= 1 {
		return fmt.Sprintf("no binding for %v", e.Key)
	}
	return fmt.Sprintf("no binding for %v (while resolving %s)",
		e.Key, typename.Join(e.Chain))
}

// CycleError reports that resolution revisited a key already being
// resolved with no Provider indirection in between. Cycle lists the
// keys on the cycle in resolution order, ending at the repeated key.
type CycleError struct {
	Cycle []Key
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", typename.Join(e.Cycle))
}

// ConfigError reports an invalid module configuration: conflicting
// override bindings, a named constructor parameter that does not
// exist, or a disallowed multibinding duplicate. Several ConfigErrors
// may be aggregated into one build error via multierr.
type ConfigError struct {
	Key    Key
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Key.IsZero() {
		return fmt.Sprintf("invalid configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid configuration for %v: %s", e.Key, e.Reason)
}

// InstantiationError wraps a failure raised by a constructor, factory,
// or post-construct hook during resolution. The original cause is
// always chained, and Chain carries the resolution path for context.
type InstantiationError struct {
	Key   Key
	Chain []Key
	Cause error
}

func (e *InstantiationError) Error() string {
	if len(e.Chain) > 1 {
		return fmt.Sprintf("error instantiating %v (while resolving %s): %v",
			e.Key, typename.Join(e.Chain), e.Cause)
	}
	return fmt.Sprintf("error instantiating %v: %v", e.Key, e.Cause)
}

func (e *InstantiationError) Unwrap() error { return e.Cause }

// InterceptionError reports an interceptor binding that violates a
// bind-time constraint: the matched type is not proxyable or a matched
// method is not exported. Detected when the Injector is built, never
// at call time.
type InterceptionError struct {
	Target reflect.Type
	Method string
	Reason string
}

func (e *InterceptionError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("cannot intercept %v.%s: %s",
			e.Target, e.Method, e.Reason)
	}
	return fmt.Sprintf("cannot intercept %v: %s", e.Target, e.Reason)
}
