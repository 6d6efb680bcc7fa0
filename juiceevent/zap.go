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

import "go.uber.org/zap"

// ZapLogger is a Logger that logs events to Zap.
type ZapLogger struct {
	Logger *zap.Logger
}

var _ Logger = (*ZapLogger)(nil)

// LogEvent logs the given event to the underlying Zap logger.
func (l *ZapLogger) LogEvent(event Event) {
	switch e := event.(type) {
	case *Bound:
		l.Logger.Info("bound",
			zap.String("key", e.Key),
			zap.String("strategy", e.Strategy),
			zap.String("scope", e.Scope),
			zap.String("module", e.Module),
		)
	case *Overridden:
		l.Logger.Info("overridden",
			zap.String("key", e.Key),
			zap.String("strategy", e.Strategy),
			zap.String("module", e.Module),
		)
	case *JITBound:
		l.Logger.Info("just-in-time binding synthesized",
			zap.String("key", e.Key),
		)
	case *Intercepted:
		l.Logger.Info("method intercepted",
			zap.String("target", e.Target),
			zap.String("method", e.Method),
			zap.Int("interceptors", e.Interceptors),
		)
	case *Resolved:
		if e.Err != nil {
			l.Logger.Error("resolution failed",
				zap.String("key", e.Key),
				zap.Error(e.Err),
			)
		} else {
			l.Logger.Debug("resolved",
				zap.String("key", e.Key),
			)
		}
	}
}
