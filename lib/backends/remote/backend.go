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
	"fmt"

	"github.com/antflydb/attrib/lib/backends"
	"github.com/antflydb/attrib/lib/tensor"
)

// Backend adapts a sidecar client to the backends.Backend contract.
type Backend struct {
	client *Client
}

// NewBackend wraps a sidecar client as a dispatchable backend.
func NewBackend(client *Client) *Backend {
	return &Backend{client: client}
}

// Framework implements backends.Backend.
func (b *Backend) Framework() backends.Framework {
	return b.client.Framework()
}

// Name implements backends.Backend.
func (b *Backend) Name() string {
	switch b.client.Framework() {
	case backends.FrameworkTensorFlow:
		return fmt.Sprintf("innvestigate (%s)", b.client.BaseURL())
	case backends.FrameworkPyTorch:
		return fmt.Sprintf("zennit (%s)", b.client.BaseURL())
	default:
		return b.client.BaseURL()
	}
}

// Available implements backends.Backend by probing the sidecar's health
// endpoint.
func (b *Backend) Available() bool {
	return b.client.Healthy(context.Background())
}

// Attribute implements backends.Backend. The two frameworks' wrapper
// functions take their arguments in different orders; both shapes are
// preserved here so each wrapper reads like its native library.
func (b *Backend) Attribute(ctx context.Context, model backends.Model, input tensor.Tensor, method string, params map[string]any) (tensor.Tensor, error) {
	handle, ok := model.(Handle)
	if !ok {
		return tensor.Tensor{}, fmt.Errorf("%s backend requires a sidecar model handle, got %T", b.client.Framework(), model)
	}

	switch b.client.Framework() {
	case backends.FrameworkPyTorch:
		return calculateRelevancemap(ctx, b.client, handle, input, method, params)
	default:
		return calculateRelevancemapTF(ctx, b.client, method, input, handle, params)
	}
}

// calculateRelevancemapTF mirrors the TensorFlow wrapper signature:
// (method, input, model, kwargs).
func calculateRelevancemapTF(ctx context.Context, c *Client, method string, input tensor.Tensor, model Handle, kwargs map[string]any) (tensor.Tensor, error) {
	return c.attribute(ctx, model.Ref(), method, input, kwargs)
}

// calculateRelevancemap mirrors the PyTorch wrapper signature:
// (model, input, method, kwargs).
func calculateRelevancemap(ctx context.Context, c *Client, model Handle, input tensor.Tensor, method string, kwargs map[string]any) (tensor.Tensor, error) {
	return c.attribute(ctx, model.Ref(), method, input, kwargs)
}
