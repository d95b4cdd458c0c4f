// Copyright 2025 Antfly, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tensor provides the dense float32 array type carried across the
// attribution dispatch boundary.
//
// It is a transport type only: attribution numerics happen in the
// framework-native backends, never here.
package tensor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Tensor is a dense row-major float32 array with an explicit shape.
// The zero value is an empty tensor.
type Tensor struct {
	Data  []float32 `json:"data"`
	Shape []int     `json:"shape"`
}

// New creates a tensor from data and shape, validating that they agree.
func New(data []float32, shape ...int) (Tensor, error) {
	t := Tensor{Data: data, Shape: shape}
	if err := t.Validate(); err != nil {
		return Tensor{}, err
	}
	return t, nil
}

// Zeros creates a zero-filled tensor of the given shape.
func Zeros(shape ...int) Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return Tensor{Data: make([]float32, n), Shape: shape}
}

// NumElements returns the element count implied by the shape.
func (t Tensor) NumElements() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Validate checks that the shape is well-formed and matches the data length.
func (t Tensor) Validate() error {
	for _, d := range t.Shape {
		if d < 0 {
			return fmt.Errorf("invalid shape %v: negative dimension", t.Shape)
		}
	}
	if got, want := len(t.Data), t.NumElements(); got != want {
		return fmt.Errorf("shape %v requires %d elements, got %d", t.Shape, want, got)
	}
	return nil
}

// Fingerprint returns a stable xxhash digest of the tensor contents.
// Used for log correlation and cache keys instead of dumping payloads.
func (t Tensor) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, d := range t.Shape {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(d)))
		_, _ = h.Write(buf[:])
	}
	for _, v := range t.Data {
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(v))
		_, _ = h.Write(buf[:4])
	}
	return h.Sum64()
}
