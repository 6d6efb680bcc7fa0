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

// Package juicecompile flattens a validated module set into persisted
// factory units so later processes can build the same Injector without
// walking and validating the dependency graph again. Missing-binding
// and cycle failures therefore surface when Compile runs rather than
// at first use.
//
// The artifact store is read-only after generation; recompiling is a
// distinct administrative operation.
package juicecompile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/juice"
)

const (
	manifestName = "manifest.json"
	unitsDir     = "units"
)

// manifest records the identity of a compiled artifact: the signature
// of the module set it was produced from and the factory units it
// contains.
type manifest struct {
	Signature string   `json:"signature"`
	Units     []string `json:"units"`
}

// Compile builds and validates an Injector from opts, then writes one
// factory unit per resolvable key under dir, plus a manifest carrying
// the module set's signature. Any existing artifact in dir is
// replaced.
func Compile(dir string, opts ...juice.Option) error {
	inj, err := juice.New(opts...)
	if err != nil {
		return fmt.Errorf("juicecompile: module set does not validate: %w", err)
	}

	// Resolve nothing; Bindings already includes the just-in-time
	// bindings synthesized during validation.
	bindings := inj.Bindings()

	if err := os.RemoveAll(filepath.Join(dir, unitsDir)); err != nil {
		return fmt.Errorf("juicecompile: clearing %s: %w", dir, err)
	}
	if err := os.MkdirAll(filepath.Join(dir, unitsDir), 0o755); err != nil {
		return fmt.Errorf("juicecompile: creating %s: %w", dir, err)
	}

	m := manifest{Signature: inj.Signature()}
	for _, b := range bindings {
		name := unitName(b.Key)
		m.Units = append(m.Units, name)
		if err := writeJSON(filepath.Join(dir, unitsDir, name), b); err != nil {
			return err
		}
	}
	return writeJSON(filepath.Join(dir, manifestName), m)
}

// unitName derives a stable file name from a rendered key.
func unitName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8]) + ".json"
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("juicecompile: encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("juicecompile: writing %s: %w", path, err)
	}
	return nil
}
