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

package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tr, err := New([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, tr.Shape)
	assert.Equal(t, 6, tr.NumElements())
}

func TestNew_ShapeMismatch(t *testing.T) {
	_, err := New([]float32{1, 2, 3}, 2, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires 4 elements")
}

func TestValidate_NegativeDimension(t *testing.T) {
	tr := Tensor{Data: []float32{}, Shape: []int{-1, 3}}
	require.Error(t, tr.Validate())
}

func TestZeros(t *testing.T) {
	tr := Zeros(2, 2, 2)
	assert.Len(t, tr.Data, 8)
	require.NoError(t, tr.Validate())
}

func TestFingerprint(t *testing.T) {
	a, err := New([]float32{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	b, err := New([]float32{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	// Same data, different shape must fingerprint differently.
	c, err := New([]float32{1, 2, 3, 4}, 4)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	d, err := New([]float32{1, 2, 3, 5}, 2, 2)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())
}
