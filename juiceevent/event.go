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

// Package juiceevent defines the events emitted by an Injector and the
// Logger interface that consumes them. The core never logs on its own;
// it emits these events to whatever Logger the caller installed, with
// NopLogger as the default.
package juiceevent

// Event is an event emitted by an Injector.
type Event interface {
	event() // restricts implementations to this package
}

func (*Bound) event()       {}
func (*Overridden) event()  {}
func (*JITBound) event()    {}
func (*Intercepted) event() {}
func (*Resolved) event()    {}

// Bound is emitted for every binding that made it into the composed
// registry when the Injector is built.
type Bound struct {
	// Key is the rendered key of the binding.
	Key string
	// Strategy describes how instances are produced, for example
	// "instance(*http.Client)" or "constructor(NewServer())".
	Strategy string
	// Scope is "singleton" or "unscoped".
	Scope string
	// Module names the module that contributed the binding.
	Module string
}

// Overridden is emitted when an override binding replaced an earlier
// binding for the same key.
type Overridden struct {
	Key      string
	Strategy string
	Module   string
}

// JITBound is emitted when a just-in-time binding is synthesized for an
// unbound concrete type, either during build-time validation or on
// first resolution.
type JITBound struct {
	Key string
}

// Intercepted is emitted at build time for every method that received
// an interceptor chain.
type Intercepted struct {
	Target       string
	Method       string
	Interceptors int
}

// Resolved is emitted after every top-level GetInstance call.
type Resolved struct {
	Key string
	Err error
}

// Logger consumes Injector events.
type Logger interface {
	LogEvent(Event)
}

// NopLogger discards all events. It is the default.
var NopLogger Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) LogEvent(Event) {}
