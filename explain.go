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

// Package attrib dispatches attribution requests to framework-native
// explanation backends through one call signature.
//
// A caller names a method ("gradient", "lrp.epsilon", "grad_cam", ...)
// against either a TensorFlow/Keras or a PyTorch model; the dispatcher
// detects the framework, translates the method name and parameter names
// into the backend's convention, and delegates. The attribution numerics
// live entirely in the backends.
package attrib

import (
	"context"
	"fmt"

	"github.com/antflydb/attrib/lib/backends"
	"github.com/antflydb/attrib/lib/tensor"
	"go.uber.org/zap"
)

// Options configures one single-input attribution call.
type Options struct {
	// Framework overrides auto-detection when non-empty ("tensorflow",
	// "pytorch", or an accepted alias).
	Framework string

	// TargetClass selects the output class to explain. Nil lets the
	// backend fall back to its own default, typically the argmax
	// prediction.
	TargetClass *int

	// Params carries additional keyword parameters, spelled in either
	// framework's convention. Names the dispatcher does not recognize
	// are forwarded untouched.
	Params map[string]any
}

// BatchOptions configures a batch attribution call.
type BatchOptions struct {
	Framework string

	// TargetClasses aligns positionally with the inputs. A slice
	// shorter than the batch leaves the trailing items without an
	// explicit target.
	TargetClasses []int

	// Params is shared across every item.
	Params map[string]any
}

// Dispatcher routes attribution calls to registered backends. It holds no
// per-call state: every call constructs its lookup context fresh and
// retains nothing afterwards, so a Dispatcher is safe to share.
type Dispatcher struct {
	registry *backends.Registry
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher over the given backend registry.
func NewDispatcher(registry *backends.Registry, logger *zap.Logger) *Dispatcher {
	if registry == nil {
		registry = backends.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Explain computes one attribution map.
//
// The pipeline is: detect the framework (override or capability probes),
// resolve the method name into the backend's spelling, translate
// parameter names, inject the target class under the framework-specific
// key, and invoke the backend. Backend failures propagate verbatim; the
// dispatcher adds nothing beyond MissingBackendError when no backend is
// registered or usable for the resolved framework.
func (d *Dispatcher) Explain(ctx context.Context, model Model, input tensor.Tensor, method string, opts Options) (tensor.Tensor, error) {
	fw, err := DetectFramework(d.registry, model, opts.Framework)
	if err != nil {
		return tensor.Tensor{}, err
	}

	resolved, canonical := ResolveMethod(method, fw)

	// Caller kwargs may be spelled in the opposite framework's
	// convention; rename those into the target backend's names.
	params := TranslateParams(canonical, otherFramework(fw), opts.Params)
	if opts.TargetClass != nil {
		params[TargetClassKey(fw)] = *opts.TargetClass
	}

	backend, ok := d.registry.Get(fw)
	if !ok || !backend.Available() {
		attributionFailureOps.WithLabelValues(string(fw), "missing_backend").Inc()
		return tensor.Tensor{}, &MissingBackendError{Framework: fw}
	}

	d.logger.Debug("Dispatching attribution",
		zap.String("framework", string(fw)),
		zap.String("method", method),
		zap.String("resolved_method", resolved),
		zap.String("backend", backend.Name()),
		zap.Uint64("input_digest", input.Fingerprint()))

	out, err := backend.Attribute(ctx, model, input, resolved, params)
	if err != nil {
		attributionFailureOps.WithLabelValues(string(fw), "backend").Inc()
		return tensor.Tensor{}, err
	}
	attributionRequestOps.WithLabelValues(string(fw), canonical).Inc()
	return out, nil
}

// ExplainBatch computes attribution maps for an ordered input collection.
//
// Items run strictly sequentially through the single-input pipeline;
// backend sessions are not assumed safe for concurrent invocation from
// this layer. Item i receives TargetClasses[i] when the slice reaches
// that far, otherwise no explicit target. The first failure aborts the
// remaining batch. Results preserve input order.
func (d *Dispatcher) ExplainBatch(ctx context.Context, model Model, inputs []tensor.Tensor, method string, opts BatchOptions) ([]tensor.Tensor, error) {
	results := make([]tensor.Tensor, 0, len(inputs))
	for i, input := range inputs {
		itemOpts := Options{
			Framework: opts.Framework,
			Params:    opts.Params,
		}
		if i < len(opts.TargetClasses) {
			tc := opts.TargetClasses[i]
			itemOpts.TargetClass = &tc
		}

		out, err := d.Explain(ctx, model, input, method, itemOpts)
		if err != nil {
			return nil, fmt.Errorf("explaining input %d: %w", i, err)
		}
		results = append(results, out)
	}
	return results, nil
}

// defaultDispatcher serves the package-level entry points over the
// default backend registry.
var defaultDispatcher = NewDispatcher(backends.Default(), nil)

// Explain computes one attribution map using the default registry.
func Explain(ctx context.Context, model Model, input tensor.Tensor, method string, opts Options) (tensor.Tensor, error) {
	return defaultDispatcher.Explain(ctx, model, input, method, opts)
}

// ExplainBatch computes a batch of attribution maps using the default
// registry.
func ExplainBatch(ctx context.Context, model Model, inputs []tensor.Tensor, method string, opts BatchOptions) ([]tensor.Tensor, error) {
	return defaultDispatcher.ExplainBatch(ctx, model, inputs, method, opts)
}
