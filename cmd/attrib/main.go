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

// Command attrib runs the cross-framework attribution dispatch service.
//
// attrib routes attribution requests ("gradient", "lrp.epsilon",
// "grad_cam", ...) to framework-native explanation sidecars, translating
// method and parameter names between the TensorFlow and PyTorch
// conventions.
//
// Usage:
//
//	attrib run                     # Start the dispatch server
//	attrib methods                 # List the method catalog
//	attrib explain -m model ...    # One-shot attribution from the CLI
package main

import (
	"os"

	"github.com/antflydb/attrib/cmd/attrib/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
