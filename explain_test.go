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

package attrib

import (
	"context"
	"errors"
	"testing"

	"github.com/antflydb/attrib/lib/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testInput(t *testing.T, vals ...float32) tensor.Tensor {
	t.Helper()
	in, err := tensor.New(vals, len(vals))
	require.NoError(t, err)
	return in
}

func TestExplain_TranslatesForPyTorchBackend(t *testing.T) {
	pt := &stubBackend{framework: FrameworkPyTorch, available: true}
	d := NewDispatcher(registryWith(pt), zaptest.NewLogger(t))

	target := 3
	// TensorFlow-convention method and parameter names against a
	// pytorch model: both get translated before the backend sees them.
	_, err := d.Explain(context.Background(), torchStyleModel{}, testInput(t, 1, 2), "lrp.epsilon", Options{
		TargetClass: &target,
		Params:      map[string]any{"epsilon": 0.1},
	})
	require.NoError(t, err)

	assert.Equal(t, "lrp_epsilon", pt.lastMethod)
	assert.Equal(t, 0.1, pt.lastParams["epsilon"])
	assert.Equal(t, 3, pt.lastParams["target_class"])
	assert.NotContains(t, pt.lastParams, "neuron_selection")
}

func TestExplain_TranslatesForTensorFlowBackend(t *testing.T) {
	tf := &stubBackend{framework: FrameworkTensorFlow, available: true}
	d := NewDispatcher(registryWith(tf), zaptest.NewLogger(t))

	target := 7
	_, err := d.Explain(context.Background(), kerasStyleModel{}, testInput(t, 1), "smoothgrad", Options{
		TargetClass: &target,
		Params:      map[string]any{"num_samples": 50, "noise_level": 0.2},
	})
	require.NoError(t, err)

	assert.Equal(t, "smoothgrad", tf.lastMethod)
	assert.Equal(t, 50, tf.lastParams["augment_by_n"])
	assert.Equal(t, 0.2, tf.lastParams["noise_scale"])
	assert.Equal(t, 7, tf.lastParams["neuron_selection"])
}

func TestExplain_NoTargetClassOmitsKey(t *testing.T) {
	pt := &stubBackend{framework: FrameworkPyTorch, available: true}
	d := NewDispatcher(registryWith(pt), zaptest.NewLogger(t))

	_, err := d.Explain(context.Background(), torchStyleModel{}, testInput(t, 1), "gradient", Options{})
	require.NoError(t, err)

	assert.NotContains(t, pt.lastParams, "target_class")
	assert.NotContains(t, pt.lastParams, "neuron_selection")
}

func TestExplain_UnknownMethodForwarded(t *testing.T) {
	pt := &stubBackend{framework: FrameworkPyTorch, available: true}
	d := NewDispatcher(registryWith(pt), zaptest.NewLogger(t))

	_, err := d.Explain(context.Background(), torchStyleModel{}, testInput(t, 1), "my_experimental_rule", Options{})
	require.NoError(t, err)

	assert.Equal(t, "my_experimental_rule", pt.lastMethod)
}

func TestExplain_MissingBackend(t *testing.T) {
	d := NewDispatcher(registryWith(), zaptest.NewLogger(t))

	_, err := d.Explain(context.Background(), opaqueModel{}, testInput(t, 1), "gradient", Options{
		Framework: "pytorch",
	})
	require.Error(t, err)
	assert.True(t, IsMissingBackend(err))
	assert.Contains(t, err.Error(), "pytorch")
}

func TestExplain_UnavailableBackendIsMissing(t *testing.T) {
	pt := &stubBackend{framework: FrameworkPyTorch, available: false}
	d := NewDispatcher(registryWith(pt), zaptest.NewLogger(t))

	_, err := d.Explain(context.Background(), torchStyleModel{}, testInput(t, 1), "gradient", Options{})
	require.Error(t, err)
	assert.True(t, IsMissingBackend(err))
	assert.Zero(t, pt.calls)
}

func TestExplain_BackendErrorPropagatesVerbatim(t *testing.T) {
	backendErr := errors.New("zennit: unsupported composite for layer fc2")
	pt := &stubBackend{framework: FrameworkPyTorch, available: true, err: backendErr}
	d := NewDispatcher(registryWith(pt), zaptest.NewLogger(t))

	_, err := d.Explain(context.Background(), torchStyleModel{}, testInput(t, 1), "gradient", Options{})
	require.ErrorIs(t, err, backendErr)
	assert.EqualError(t, err, backendErr.Error())
}

func TestExplain_ModelNeverMutated(t *testing.T) {
	tf := &stubBackend{framework: FrameworkTensorFlow, available: true}
	d := NewDispatcher(registryWith(tf), zaptest.NewLogger(t))

	model := kerasStyleModel{}
	_, err := d.Explain(context.Background(), model, testInput(t, 1), "gradient", Options{})
	require.NoError(t, err)
	assert.Equal(t, model, tf.lastModel)
}

func TestExplainBatch_TargetAlignment(t *testing.T) {
	seen := make([]map[string]any, 0, 3)
	rec := &recordingBackend{
		stubBackend: &stubBackend{framework: FrameworkPyTorch, available: true},
		record: func(params map[string]any) {
			seen = append(seen, params)
		},
	}
	d := NewDispatcher(registryWith(), zaptest.NewLogger(t))
	d.registry.Register(rec)

	inputs := []tensor.Tensor{testInput(t, 0), testInput(t, 1), testInput(t, 2)}
	results, err := d.ExplainBatch(context.Background(), torchStyleModel{}, inputs, "gradient", BatchOptions{
		TargetClasses: []int{7},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Item 0 carries target class 7; the rest carry none.
	require.Len(t, seen, 3)
	assert.Equal(t, 7, seen[0]["target_class"])
	assert.NotContains(t, seen[1], "target_class")
	assert.NotContains(t, seen[2], "target_class")

	// Input order preserved.
	for i, r := range results {
		assert.Equal(t, inputs[i].Data, r.Data)
	}
}

func TestExplainBatch_FirstFailureAborts(t *testing.T) {
	calls := 0
	backendErr := errors.New("backend exploded")
	rec := &recordingBackend{
		stubBackend: &stubBackend{framework: FrameworkPyTorch, available: true},
		record: func(map[string]any) {
			calls++
		},
	}
	rec.failOn = 2 // second item
	rec.failErr = backendErr

	d := NewDispatcher(registryWith(), zaptest.NewLogger(t))
	d.registry.Register(rec)

	inputs := []tensor.Tensor{testInput(t, 0), testInput(t, 1), testInput(t, 2)}
	_, err := d.ExplainBatch(context.Background(), torchStyleModel{}, inputs, "gradient", BatchOptions{})
	require.Error(t, err)
	require.ErrorIs(t, err, backendErr)
	assert.Contains(t, err.Error(), "input 1")
	assert.Equal(t, 2, calls, "third item must not run")
}

// recordingBackend decorates stubBackend with a per-call params hook and
// an optional nth-call failure.
type recordingBackend struct {
	*stubBackend
	record  func(params map[string]any)
	failOn  int
	failErr error
	n       int
}

func (r *recordingBackend) Attribute(ctx context.Context, model Model, input tensor.Tensor, method string, params map[string]any) (tensor.Tensor, error) {
	r.n++
	if r.record != nil {
		r.record(params)
	}
	if r.failOn > 0 && r.n == r.failOn {
		return tensor.Tensor{}, r.failErr
	}
	return r.stubBackend.Attribute(ctx, model, input, method, params)
}
