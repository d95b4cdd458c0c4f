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

// MethodSpec describes one attribution method across both frameworks.
// The canonical token is dispatcher-internal and only used for table
// lookups; backends only ever see the per-framework spellings.
type MethodSpec struct {
	// Canonical is the framework-agnostic token.
	Canonical string `json:"canonical"`

	// TensorFlow is the iNNvestigate-style spelling (dotted LRP forms).
	TensorFlow string `json:"tensorflow"`

	// PyTorch is the Zennit-style spelling (underscored forms).
	PyTorch string `json:"pytorch"`

	// TensorFlowAliases and PyTorchAliases are legacy/alternate
	// spellings accepted on input but never produced on output.
	TensorFlowAliases []string `json:"tensorflow_aliases,omitempty"`
	PyTorchAliases    []string `json:"pytorch_aliases,omitempty"`

	// Divergent marks methods whose cross-framework mapping is a
	// documented semantic difference, not a pure renaming. See the
	// lrp_z entry.
	Divergent bool `json:"divergent,omitempty"`

	Description string `json:"description"`
}

// MethodRegistry is the catalog of attribution methods the dispatcher
// knows how to translate. Unlisted method names are forwarded to the
// backend unchanged, so backend-specific additions keep working without
// a catalog entry.
//
// Known divergence: the TensorFlow "lrp.z" rule maps to "lrp.z_plus" on
// the PyTorch side. The two rules are not numerically identical; the
// mapping reproduces the reference wrapper's behavior and is surfaced
// here rather than silently normalized away.
var MethodRegistry = []MethodSpec{
	{
		Canonical:   "gradient",
		TensorFlow:  "gradient",
		PyTorch:     "gradient",
		Description: "Raw input gradient of the target output",
	},
	{
		Canonical:   "gradient_x_input",
		TensorFlow:  "gradient_x_input",
		PyTorch:     "gradient_x_input",
		Description: "Gradient elementwise-multiplied with the input",
	},
	{
		Canonical:   "gradient_x_sign",
		TensorFlow:  "gradient_x_sign",
		PyTorch:     "gradient_x_sign",
		Description: "Gradient multiplied with the sign of the input (SIGN method)",
	},
	{
		Canonical:   "smoothgrad",
		TensorFlow:  "smoothgrad",
		PyTorch:     "smoothgrad",
		Description: "Gradient averaged over noise-augmented copies of the input",
	},
	{
		Canonical:   "vargrad",
		TensorFlow:  "vargrad",
		PyTorch:     "vargrad",
		Description: "Gradient variance over noise-augmented copies of the input",
	},
	{
		Canonical:   "integrated_gradients",
		TensorFlow:  "integrated_gradients",
		PyTorch:     "integrated_gradients",
		Description: "Gradients integrated along a path from a reference input",
	},
	{
		Canonical:         "grad_cam",
		TensorFlow:        "grad_cam",
		PyTorch:           "grad_cam",
		TensorFlowAliases: []string{"gradcam"},
		Description:       "Class activation mapping weighted by pooled gradients",
	},
	{
		Canonical:   "guided_backprop",
		TensorFlow:  "guided_backprop",
		PyTorch:     "guided_backprop",
		Description: "Backpropagation passing only positive gradients through ReLUs",
	},
	{
		Canonical:   "deconvnet",
		TensorFlow:  "deconvnet",
		PyTorch:     "deconvnet",
		Description: "Deconvolutional visualization of the target activation",
	},
	{
		Canonical:      "lrp_epsilon",
		TensorFlow:     "lrp.epsilon",
		PyTorch:        "lrp_epsilon",
		PyTorchAliases: []string{"lrp.epsilon"},
		Description:    "Layer-wise relevance propagation, epsilon rule",
	},
	{
		Canonical:      "lrp_alpha_1_beta_0",
		TensorFlow:     "lrp.alpha_1_beta_0",
		PyTorch:        "lrp_alpha1_beta0",
		PyTorchAliases: []string{"lrp_alpha_1_beta_0"},
		Description:    "Layer-wise relevance propagation, alpha=1 beta=0 rule",
	},
	{
		Canonical:      "lrp_alpha_2_beta_1",
		TensorFlow:     "lrp.alpha_2_beta_1",
		PyTorch:        "lrp_alpha2_beta1",
		PyTorchAliases: []string{"lrp_alpha_2_beta_1"},
		Description:    "Layer-wise relevance propagation, alpha=2 beta=1 rule",
	},
	{
		Canonical:   "lrp_gamma",
		TensorFlow:  "lrp.gamma",
		PyTorch:     "lrp_gamma",
		Description: "Layer-wise relevance propagation, gamma rule",
	},
	{
		Canonical:   "lrp_flat",
		TensorFlow:  "lrp.flat",
		PyTorch:     "lrp_flat",
		Description: "Layer-wise relevance propagation, flat rule",
	},
	{
		Canonical:   "lrp_w_square",
		TensorFlow:  "lrp.w_square",
		PyTorch:     "lrp_w_square",
		Description: "Layer-wise relevance propagation, w-square rule",
	},
	{
		// The z rule has no exact PyTorch counterpart in the reference
		// wrapper; it lands on the z-plus composite, which differs
		// numerically. Kept as documented behavior.
		Canonical:         "lrp_z",
		TensorFlow:        "lrp.z",
		PyTorch:           "lrp.z_plus",
		TensorFlowAliases: []string{"lrp_z"},
		Divergent:         true,
		Description:       "Layer-wise relevance propagation, z rule (maps to z-plus on PyTorch)",
	},
	{
		Canonical:         "lrp_sign_epsilon",
		TensorFlow:        "lrpsign.epsilon",
		PyTorch:           "lrpsign_epsilon",
		TensorFlowAliases: []string{"lrpsign_epsilon"},
		Description:       "Epsilon-rule LRP with SIGN input-layer treatment",
	},
}

// Spelling/canonical lookup tables derived from MethodRegistry at init.
// Read-only after that, so no locking.
var (
	methodToCanonical map[Framework]map[string]string
	canonicalSpelling map[Framework]map[string]string
)

func init() {
	methodToCanonical = map[Framework]map[string]string{
		FrameworkTensorFlow: make(map[string]string),
		FrameworkPyTorch:    make(map[string]string),
	}
	canonicalSpelling = map[Framework]map[string]string{
		FrameworkTensorFlow: make(map[string]string),
		FrameworkPyTorch:    make(map[string]string),
	}
	for _, m := range MethodRegistry {
		methodToCanonical[FrameworkTensorFlow][m.TensorFlow] = m.Canonical
		methodToCanonical[FrameworkPyTorch][m.PyTorch] = m.Canonical
		for _, a := range m.TensorFlowAliases {
			methodToCanonical[FrameworkTensorFlow][a] = m.Canonical
		}
		for _, a := range m.PyTorchAliases {
			methodToCanonical[FrameworkPyTorch][a] = m.Canonical
		}
		canonicalSpelling[FrameworkTensorFlow][m.Canonical] = m.TensorFlow
		canonicalSpelling[FrameworkPyTorch][m.Canonical] = m.PyTorch
	}
}

// ResolveMethod maps a caller-supplied method name to the spelling the
// target framework's backend expects, plus the canonical token used for
// parameter translation.
//
// The name is first looked up in the target framework's own table (so
// native spellings round-trip unchanged), then in the other framework's
// table (cross-framework translation). A name in neither table is
// forwarded as-is with itself as the canonical token; rejection, if any,
// is the backend's call. ResolveMethod never fails.
func ResolveMethod(name string, target Framework) (resolved, canonical string) {
	for _, source := range []Framework{target, otherFramework(target)} {
		if canon, ok := methodToCanonical[source][name]; ok {
			if spelled, ok := canonicalSpelling[target][canon]; ok {
				return spelled, canon
			}
		}
	}
	return name, name
}

// otherFramework returns the opposite framework tag.
func otherFramework(f Framework) Framework {
	if f == FrameworkTensorFlow {
		return FrameworkPyTorch
	}
	return FrameworkTensorFlow
}

// Methods returns the catalog, for listings and the API surface.
func Methods() []MethodSpec {
	out := make([]MethodSpec, len(MethodRegistry))
	copy(out, MethodRegistry)
	return out
}
