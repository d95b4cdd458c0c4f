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
	"net/http"

	"github.com/labstack/echo/v5"
)

// Version information - set at build time via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// HealthResponse is the response for /healthz
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse is the response for /readyz
type ReadyResponse struct {
	Status   string          `json:"status"`
	Backends []FrameworkInfo `json:"backends"`
}

// handleHealthz returns 200 if the service is running (liveness check)
func (a *API) handleHealthz(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, HealthResponse{Status: "ok", Version: Version})
}

// handleReadyz returns 200 once at least one backend answers its health
// probe (readiness check)
func (a *API) handleReadyz(c *echo.Context) error {
	resp := ReadyResponse{Status: "ready"}
	anyAvailable := false
	for _, b := range a.node.registry.List() {
		info := FrameworkInfo{
			Framework: string(b.Framework()),
			Backend:   b.Name(),
			Available: b.Available(),
		}
		anyAvailable = anyAvailable || info.Available
		resp.Backends = append(resp.Backends, info)
	}

	if !anyAvailable {
		resp.Status = "not_ready"
		return writeJSON(c, http.StatusServiceUnavailable, resp)
	}
	return writeJSON(c, http.StatusOK, resp)
}
