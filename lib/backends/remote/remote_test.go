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

package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/antflydb/attrib/lib/backends"
	"github.com/antflydb/attrib/lib/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubSidecar fakes the attribution sidecar protocol.
type stubSidecar struct {
	framework     string
	metadataHits  atomic.Int32
	lastAttribReq map[string]any
	attribErr     string
	attribStatus  int
}

func (s *stubSidecar) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /v1/models/{ref}", func(w http.ResponseWriter, r *http.Request) {
		s.metadataHits.Add(1)
		if r.PathValue("ref") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "model not found"})
			return
		}
		meta := map[string]any{"framework": s.framework}
		if s.framework == "tensorflow" {
			meta["layers"] = []string{"conv1", "fc1"}
		} else {
			meta["parameters"] = []string{"conv1.weight", "fc1.weight"}
		}
		_ = json.NewEncoder(w).Encode(meta)
	})
	mux.HandleFunc("POST /v1/attributions", func(w http.ResponseWriter, r *http.Request) {
		req := map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.lastAttribReq = req
		if s.attribStatus != 0 {
			w.WriteHeader(s.attribStatus)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": s.attribErr})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"attribution": map[string]any{"data": []float32{0.5, 0.5}, "shape": []int{2}},
		})
	})
	return mux
}

func newTestClient(t *testing.T, s *stubSidecar, fw backends.Framework) *Client {
	t.Helper()
	srv := httptest.NewServer(s.handler())
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{BaseURL: srv.URL, Framework: fw}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "not a url"}, nil)
	require.Error(t, err)
}

func TestClient_ModelCapabilities(t *testing.T) {
	tf := newTestClient(t, &stubSidecar{framework: "tensorflow"}, backends.FrameworkTensorFlow)
	handle, err := tf.Model(context.Background(), "vgg16")
	require.NoError(t, err)

	keras, ok := handle.(*KerasModel)
	require.True(t, ok)
	assert.Equal(t, "vgg16", keras.Ref())
	assert.Equal(t, []string{"conv1", "fc1"}, keras.LayerNames())
	_, isParamIter := handle.(backends.ParameterIterator)
	assert.False(t, isParamIter, "keras handle must expose only the layer probe")

	pt := newTestClient(t, &stubSidecar{framework: "pytorch"}, backends.FrameworkPyTorch)
	handle, err = pt.Model(context.Background(), "resnet18")
	require.NoError(t, err)

	torch, ok := handle.(*TorchModel)
	require.True(t, ok)
	assert.Equal(t, []string{"conv1.weight", "fc1.weight"}, torch.ParameterNames())
	_, isLayerLister := handle.(backends.LayerLister)
	assert.False(t, isLayerLister, "torch handle must expose only the parameter probe")
}

func TestClient_ModelNotFound(t *testing.T) {
	c := newTestClient(t, &stubSidecar{framework: "tensorflow"}, backends.FrameworkTensorFlow)
	_, err := c.Model(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestClient_MetadataCached(t *testing.T) {
	s := &stubSidecar{framework: "pytorch"}
	c := newTestClient(t, s, backends.FrameworkPyTorch)

	for range 3 {
		_, err := c.Model(context.Background(), "resnet18")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), s.metadataHits.Load())
}

func TestBackend_AttributePassesThrough(t *testing.T) {
	s := &stubSidecar{framework: "pytorch"}
	c := newTestClient(t, s, backends.FrameworkPyTorch)
	b := NewBackend(c)

	assert.Equal(t, backends.FrameworkPyTorch, b.Framework())
	assert.True(t, b.Available())

	handle, err := c.Model(context.Background(), "resnet18")
	require.NoError(t, err)

	input, err := tensor.New([]float32{1, 2}, 2)
	require.NoError(t, err)

	out, err := b.Attribute(context.Background(), handle, input, "lrp_epsilon", map[string]any{
		"epsilon":      0.25,
		"target_class": 3,
	})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, out.Data)

	// The wire request carries the resolved method and translated params.
	assert.Equal(t, "resnet18", s.lastAttribReq["model"])
	assert.Equal(t, "lrp_epsilon", s.lastAttribReq["method"])
	params := s.lastAttribReq["params"].(map[string]any)
	assert.Equal(t, 0.25, params["epsilon"])
	assert.Equal(t, float64(3), params["target_class"])
}

func TestBackend_SidecarErrorVerbatim(t *testing.T) {
	s := &stubSidecar{
		framework:    "pytorch",
		attribStatus: http.StatusUnprocessableEntity,
		attribErr:    "zennit: unknown composite 'nonsense'",
	}
	c := newTestClient(t, s, backends.FrameworkPyTorch)
	b := NewBackend(c)

	handle, err := c.Model(context.Background(), "resnet18")
	require.NoError(t, err)

	input, err := tensor.New([]float32{1}, 1)
	require.NoError(t, err)

	_, err = b.Attribute(context.Background(), handle, input, "nonsense", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zennit: unknown composite 'nonsense'")
}

func TestBackend_RequiresRemoteHandle(t *testing.T) {
	c := newTestClient(t, &stubSidecar{framework: "pytorch"}, backends.FrameworkPyTorch)
	b := NewBackend(c)

	input, err := tensor.New([]float32{1}, 1)
	require.NoError(t, err)

	_, err = b.Attribute(context.Background(), struct{}{}, input, "gradient", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model handle")
}

func TestBackend_AvailableFalseWhenDown(t *testing.T) {
	srv := httptest.NewServer((&stubSidecar{framework: "pytorch"}).handler())
	c, err := NewClient(ClientConfig{BaseURL: srv.URL, Framework: backends.FrameworkPyTorch}, nil)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	b := NewBackend(c)
	assert.True(t, b.Available())

	srv.Close()
	assert.False(t, b.Available())
}
