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

// Package juice is a Guice-style dependency injection container with
// method interception.
//
// Modules declare bindings: rules associating a Key (a type plus an
// optional qualifier) with a production strategy and a scope. An
// Injector composes the modules into a validated registry and resolves
// instances on demand:
//
//	inj, err := juice.New(
//		juice.Module("payments",
//			juice.BindTo[PaymentGateway, *StripeGateway](juice.AsSingleton()),
//			juice.BindInstance[string]("sk_test", juice.WithName("stripe.key")),
//		),
//	)
//	gateway, err := juice.Get[PaymentGateway](ctx, inj)
//
// Binding precedence is first-install-wins across composed modules;
// bindings grouped under Override unconditionally replace earlier
// ones. Unbound concrete struct types are constructible just in time:
// their exported fields carrying an `inject` tag are wired
// automatically. A parameter or field declared as Provider[T] receives
// a deferred handle instead of an eager instance, which is also the
// supported way to break dependency cycles.
//
// BindInterceptor attaches interceptor chains to matched methods of
// matched types. An instance with at least one intercepted method is
// returned as a *Proxy; driving calls through Proxy.Invoke runs the
// chain around the real method.
//
// The juicecompile package flattens a validated module set into
// persisted factory units so later processes can skip graph
// validation; juiceevent defines the event logging surface; juicetest
// has helpers for writing tests against an Injector.
package juice // import "go.uber.org/juice"
