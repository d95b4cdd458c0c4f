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

// Parameter rename tables, keyed by canonical method, then by the
// framework the caller's keyword names are spelled in. The inner map
// renames a source-spelled key to the opposite framework's spelling.
//
// Only TensorFlow→PyTorch direction is written out; the reverse tables
// are derived at init. Keys absent from a table pass through untouched so
// backend-specific options the dispatcher has never heard of keep
// working. No value validation happens here; that is the backend's job.
var paramRenamesTF = map[string]map[string]string{
	"smoothgrad": {
		"augment_by_n": "num_samples",
		"noise_scale":  "noise_level",
	},
	"vargrad": {
		"augment_by_n": "num_samples",
		"noise_scale":  "noise_level",
	},
	"integrated_gradients": {
		"steps":            "n_steps",
		"reference_inputs": "baselines",
	},
	"grad_cam": {
		"last_conv_layer_name": "target_layer",
	},
}

// paramRenames[canonical][source] — source-spelled key → target spelling.
var paramRenames map[string]map[Framework]map[string]string

func init() {
	paramRenames = make(map[string]map[Framework]map[string]string, len(paramRenamesTF))
	for canon, tfToPT := range paramRenamesTF {
		ptToTF := make(map[string]string, len(tfToPT))
		for tfKey, ptKey := range tfToPT {
			ptToTF[ptKey] = tfKey
		}
		paramRenames[canon] = map[Framework]map[string]string{
			FrameworkTensorFlow: tfToPT,
			FrameworkPyTorch:    ptToTF,
		}
	}
}

// targetClassKeys names the backend parameter that selects the output
// class. The target class arrives as a dedicated call argument, never as
// a caller kwarg, so it is injected under this key instead of going
// through the rename tables.
var targetClassKeys = map[Framework]string{
	FrameworkTensorFlow: "neuron_selection",
	FrameworkPyTorch:    "target_class",
}

// TranslateParams returns a fresh parameter set with keys spelled in the
// source framework's convention renamed to the opposite framework's
// spelling, per the method's rename table. Unlisted keys are copied
// unchanged. The input map is never mutated.
func TranslateParams(canonical string, source Framework, params map[string]any) map[string]any {
	out := make(map[string]any, len(params)+1)
	table := paramRenames[canonical][source]
	for k, v := range params {
		if renamed, ok := table[k]; ok {
			out[renamed] = v
		} else {
			out[k] = v
		}
	}
	return out
}

// TargetClassKey returns the parameter name the framework's backend uses
// for explicit output-class selection.
func TargetClassKey(f Framework) string {
	return targetClassKeys[f]
}
