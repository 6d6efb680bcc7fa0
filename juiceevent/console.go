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

package juiceevent

import (
	"fmt"
	"io"
)

// ConsoleLogger is a Logger that writes human-readable lines to an
// io.Writer. Intended for tests and simple programs; use ZapLogger in
// production.
type ConsoleLogger struct {
	W io.Writer
}

var _ Logger = (*ConsoleLogger)(nil)

// LogEvent writes a line describing the event.
func (l *ConsoleLogger) LogEvent(event Event) {
	switch e := event.(type) {
	case *Bound:
		l.logf("BOUND\t%s -> %s (%s) from %s", e.Key, e.Strategy, e.Scope, e.Module)
	case *Overridden:
		l.logf("OVERRIDE\t%s -> %s from %s", e.Key, e.Strategy, e.Module)
	case *JITBound:
		l.logf("JIT\t%s", e.Key)
	case *Intercepted:
		l.logf("INTERCEPT\t%s.%s (%d interceptors)", e.Target, e.Method, e.Interceptors)
	case *Resolved:
		if e.Err != nil {
			l.logf("ERROR\t%s: %v", e.Key, e.Err)
		} else {
			l.logf("RESOLVED\t%s", e.Key)
		}
	}
}

func (l *ConsoleLogger) logf(msg string, args ...any) {
	fmt.Fprintf(l.W, msg+"\n", args...)
}
