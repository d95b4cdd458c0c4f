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

// Config configures the attrib service node.
type Config struct {
	// ListenAddr is the API listen address, e.g. "127.0.0.1:4310".
	ListenAddr string `mapstructure:"listen_addr"`

	// TensorFlowURL is the base URL of the TensorFlow attribution
	// sidecar. Empty leaves the tensorflow backend unregistered.
	TensorFlowURL string `mapstructure:"tensorflow_url"`

	// PyTorchURL is the base URL of the PyTorch attribution sidecar.
	// Empty leaves the pytorch backend unregistered.
	PyTorchURL string `mapstructure:"pytorch_url"`

	// MaxInFlight bounds concurrently served attribution requests.
	// The dispatch pipeline itself is synchronous; this only throttles
	// the HTTP surface. 0 means a default of 4.
	MaxInFlight int `mapstructure:"max_in_flight"`

	// MetadataTTL is how long sidecar model metadata stays cached,
	// as a duration string ("5m"). Empty uses the client default.
	MetadataTTL string `mapstructure:"metadata_ttl"`
}
