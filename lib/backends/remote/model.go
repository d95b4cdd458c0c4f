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

// Handle is satisfied by model handles that name a sidecar-hosted model.
// The remote backends require it; local in-process handles from other
// backend implementations will not carry one.
type Handle interface {
	Ref() string
}

// KerasModel is a handle to a TensorFlow/Keras model hosted by a sidecar.
// It exposes the ordered-layer-collection probe the framework detector
// looks for.
type KerasModel struct {
	ref    string
	client *Client
	layers []string
}

// Ref returns the sidecar model reference.
func (m *KerasModel) Ref() string { return m.ref }

// LayerNames returns the model's layer names in graph order.
func (m *KerasModel) LayerNames() []string { return m.layers }

// TorchModel is a handle to a PyTorch model hosted by a sidecar. It
// exposes the trainable-parameter iterator probe.
type TorchModel struct {
	ref        string
	client     *Client
	parameters []string
}

// Ref returns the sidecar model reference.
func (m *TorchModel) Ref() string { return m.ref }

// ParameterNames returns the model's trainable parameter names.
func (m *TorchModel) ParameterNames() []string { return m.parameters }
