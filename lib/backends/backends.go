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

// Package backends defines the attribution backend contract and the
// registry the dispatch layer selects backends from.
//
// A backend wraps one framework-native explanation runtime (Keras
// autodiff / iNNvestigate-style analyzers for TensorFlow, Zennit
// composites for PyTorch). The dispatcher hands it a model handle, an
// input tensor, a backend-spelled method name, and already-translated
// parameters; everything past that point is the backend's business,
// including rejecting method names or parameters it does not know.
package backends

import (
	"context"
	"sort"
	"sync"

	"github.com/antflydb/attrib/lib/tensor"
)

// Framework identifies which runtime owns a model.
type Framework string

const (
	// FrameworkTensorFlow marks Keras/TensorFlow models.
	FrameworkTensorFlow Framework = "tensorflow"

	// FrameworkPyTorch marks PyTorch models.
	FrameworkPyTorch Framework = "pytorch"
)

// Frameworks lists the supported framework tags in a stable order.
func Frameworks() []Framework {
	return []Framework{FrameworkTensorFlow, FrameworkPyTorch}
}

// Model is an opaque caller-owned model handle. The dispatch layer never
// looks inside it beyond the capability probes below; backends may require
// a concrete type of their own.
type Model any

// LayerLister is the capability probe for TensorFlow/Keras-style models:
// an ordered layer collection accessor. Duck-typed and subclassed models
// qualify as long as they expose it.
type LayerLister interface {
	LayerNames() []string
}

// ParameterIterator is the capability probe for PyTorch-style models:
// a trainable-parameter name iterator.
type ParameterIterator interface {
	ParameterNames() []string
}

// Backend computes attribution maps for one framework.
type Backend interface {
	// Framework returns the framework tag this backend serves.
	Framework() Framework

	// Name returns a human-readable name (e.g. "zennit (http://...)").
	Name() string

	// Available reports whether the backend can be used right now.
	// For bridge backends this checks reachability of the sidecar.
	Available() bool

	// Attribute computes the attribution map for one input. The method
	// name is already spelled the way this backend expects and params
	// already carry backend-native keys. Backend failures are returned
	// verbatim.
	Attribute(ctx context.Context, model Model, input tensor.Tensor, method string, params map[string]any) (tensor.Tensor, error)
}

// Registry holds the backends available to one dispatcher. It is safe for
// concurrent use; registrations for the same framework overwrite.
type Registry struct {
	mu       sync.RWMutex
	backends map[Framework]Backend
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[Framework]Backend)}
}

// Register adds a backend, replacing any previous one for its framework.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Framework()] = b
}

// Get returns the backend for the given framework, if registered.
func (r *Registry) Get(f Framework) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[f]
	return b, ok
}

// Has reports whether a backend for the framework is registered. This
// stands in for "the framework module is loaded" during model detection;
// deeper availability (sidecar reachability, native library presence) is
// checked at invocation time.
func (r *Registry) Has(f Framework) bool {
	_, ok := r.Get(f)
	return ok
}

// List returns all registered backends sorted by framework tag.
func (r *Registry) List() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Backend, 0, len(r.backends))
	for _, b := range r.backends {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Framework() < out[j].Framework()
	})
	return out
}

// defaultRegistry serves the package-level convenience API.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by the package-level
// dispatch entry points.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a backend to the default registry.
func Register(b Backend) {
	defaultRegistry.Register(b)
}
