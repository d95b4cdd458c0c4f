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
	"errors"
	"fmt"

	"github.com/antflydb/attrib/lib/backends"
)

var (
	// ErrUnsupportedFramework is returned when an explicit framework
	// override names something other than tensorflow or pytorch.
	ErrUnsupportedFramework = errors.New("unsupported framework: expected \"tensorflow\" or \"pytorch\"")

	// ErrAmbiguousFramework is returned when neither capability probe
	// matches the model and no explicit framework was given.
	ErrAmbiguousFramework = errors.New("could not detect model framework: pass an explicit framework (\"tensorflow\" or \"pytorch\")")
)

// MissingBackendError reports that no backend is registered (or none is
// available) for the framework a call resolved to. It names the install
// extra so the message is actionable rather than a bare lookup failure.
type MissingBackendError struct {
	Framework backends.Framework
}

func (e *MissingBackendError) Error() string {
	return fmt.Sprintf("no %s backend available: install the %q extra or point attrib at a running %s sidecar",
		e.Framework, e.Framework, e.Framework)
}

// IsMissingBackend reports whether err is a MissingBackendError.
func IsMissingBackend(err error) bool {
	var mbe *MissingBackendError
	return errors.As(err, &mbe)
}
