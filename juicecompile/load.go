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

package juicecompile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/juice"
)

// ErrNotCompiled reports that dir holds no artifact for the given
// module set: nothing was compiled there, or the module set changed
// since. Recoverable by calling Compile and retrying.
var ErrNotCompiled = errors.New("juicecompile: no compiled artifact for this module set")

// Load builds an Injector from opts using the artifact in dir,
// skipping graph validation since the artifact proves the set
// validated at compile time. Fails with ErrNotCompiled when dir has no
// manifest or its signature no longer matches the current module set;
// the caller should Compile and retry.
func Load(dir string, opts ...juice.Option) (*juice.Injector, error) {
	m, err := readManifest(dir)
	if err != nil {
		return nil, err
	}

	sig, err := juice.Fingerprint(opts...)
	if err != nil {
		return nil, fmt.Errorf("juicecompile: composing module set: %w", err)
	}
	if m.Signature != sig {
		return nil, fmt.Errorf("%w: signature mismatch (artifact %.12s, modules %.12s)",
			ErrNotCompiled, m.Signature, sig)
	}

	loadOpts := make([]juice.Option, 0, len(opts)+1)
	loadOpts = append(loadOpts, opts...)
	loadOpts = append(loadOpts, juice.WithoutValidation())
	return juice.New(loadOpts...)
}

// Units returns the factory units recorded in dir's artifact, for
// tooling and diagnostics.
func Units(dir string) ([]juice.BindingInfo, error) {
	m, err := readManifest(dir)
	if err != nil {
		return nil, err
	}
	out := make([]juice.BindingInfo, 0, len(m.Units))
	for _, name := range m.Units {
		data, err := os.ReadFile(filepath.Join(dir, unitsDir, name))
		if err != nil {
			return nil, fmt.Errorf("%w: unit %s unreadable", ErrNotCompiled, name)
		}
		var info juice.BindingInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return nil, fmt.Errorf("juicecompile: decoding unit %s: %w", name, err)
		}
		out = append(out, info)
	}
	return out, nil
}

func readManifest(dir string) (*manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotCompiled
		}
		return nil, fmt.Errorf("juicecompile: reading manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest corrupt", ErrNotCompiled)
	}
	return &m, nil
}
