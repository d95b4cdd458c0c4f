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
	"fmt"
	"strings"

	"github.com/antflydb/attrib/lib/backends"
)

// Framework tags the runtime that owns a model. Once resolved for a call
// it is fixed and picks every lookup table used afterwards.
type Framework = backends.Framework

const (
	FrameworkTensorFlow = backends.FrameworkTensorFlow
	FrameworkPyTorch    = backends.FrameworkPyTorch
)

// Model is an opaque caller-owned model handle; see backends.Model.
type Model = backends.Model

// ParseFramework normalizes a caller-supplied framework name. Common
// aliases are accepted; anything else is ErrUnsupportedFramework.
func ParseFramework(s string) (Framework, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tensorflow", "tf", "keras":
		return FrameworkTensorFlow, nil
	case "pytorch", "torch":
		return FrameworkPyTorch, nil
	default:
		return "", fmt.Errorf("%w (got %q)", ErrUnsupportedFramework, s)
	}
}

// DetectFramework decides which backend owns a model.
//
// With an explicit override the override wins after normalization. Without
// one the model is probed for framework-characteristic capabilities: an
// ordered-layer-collection accessor marks TensorFlow/Keras, a
// trainable-parameter iterator marks PyTorch. Probes are capability
// checks, not type checks, so duck-typed and subclassed handles resolve
// correctly. A probe only counts when a backend for that framework is
// registered in reg, mirroring the "module is loaded" condition.
//
// Pure inspection: the model is never mutated or retained.
func DetectFramework(reg *backends.Registry, model Model, override string) (Framework, error) {
	if override != "" {
		return ParseFramework(override)
	}

	if _, ok := model.(backends.LayerLister); ok && reg.Has(FrameworkTensorFlow) {
		return FrameworkTensorFlow, nil
	}
	if _, ok := model.(backends.ParameterIterator); ok && reg.Has(FrameworkPyTorch) {
		return FrameworkPyTorch, nil
	}
	return "", ErrAmbiguousFramework
}
