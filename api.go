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
	"net/http"
	"time"

	"github.com/antflydb/attrib/lib/backends"
	"github.com/antflydb/attrib/lib/tensor"
	"github.com/bytedance/sonic/decoder"
	"github.com/bytedance/sonic/encoder"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ExplainRequest is the body of POST /api/explain.
type ExplainRequest struct {
	Model       string         `json:"model"`
	Method      string         `json:"method"`
	Framework   string         `json:"framework,omitempty"`
	TargetClass *int           `json:"target_class,omitempty"`
	Input       tensor.Tensor  `json:"input"`
	Params      map[string]any `json:"params,omitempty"`
}

// ExplainResponse carries one attribution map.
type ExplainResponse struct {
	Attribution tensor.Tensor `json:"attribution"`
	Framework   string        `json:"framework"`
	Method      string        `json:"method"`
}

// BatchExplainRequest is the body of POST /api/explain/batch.
type BatchExplainRequest struct {
	Model         string          `json:"model"`
	Method        string          `json:"method"`
	Framework     string          `json:"framework,omitempty"`
	TargetClasses []int           `json:"target_classes,omitempty"`
	Inputs        []tensor.Tensor `json:"inputs"`
	Params        map[string]any  `json:"params,omitempty"`
}

// BatchExplainResponse carries per-item attribution maps in input order.
type BatchExplainResponse struct {
	Attributions []tensor.Tensor `json:"attributions"`
	Framework    string          `json:"framework"`
	Method       string          `json:"method"`
}

// FrameworkInfo describes one registered backend for GET /api/frameworks.
type FrameworkInfo struct {
	Framework string `json:"framework"`
	Backend   string `json:"backend"`
	Available bool   `json:"available"`
}

// API is the HTTP surface over a Node.
type API struct {
	logger *zap.Logger
	node   *Node
}

// NewAPI builds the echo server for a node.
func NewAPI(logger *zap.Logger, node *Node) *echo.Echo {
	a := &API{logger: logger, node: node}

	e := echo.New()
	e.Use(middleware.Recover())

	e.POST("/api/explain", a.handleExplain)
	e.POST("/api/explain/batch", a.handleExplainBatch)
	e.GET("/api/methods", a.handleMethods)
	e.GET("/api/frameworks", a.handleFrameworks)
	e.GET("/healthz", a.handleHealthz)
	e.GET("/readyz", a.handleReadyz)
	e.GET("/metrics", func(c *echo.Context) error {
		promhttp.Handler().ServeHTTP(c.Response(), c.Request())
		return nil
	})
	return e
}

// writeJSON streams v out with sonic.
func writeJSON(c *echo.Context, code int, v any) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c.Response().WriteHeader(code)
	return encoder.NewStreamEncoder(c.Response()).Encode(v)
}

func writeError(c *echo.Context, code int, msg string) error {
	return writeJSON(c, code, map[string]any{"error": msg})
}

// httpStatusFor maps dispatch-layer failures onto status codes. Backend
// errors land on 502 with the backend's message intact.
func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnsupportedFramework), errors.Is(err, ErrAmbiguousFramework):
		return http.StatusBadRequest
	case IsMissingBackend(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (a *API) handleExplain(c *echo.Context) error {
	reqID := uuid.NewString()
	c.Response().Header().Set("X-Request-Id", reqID)

	ctx := c.Request().Context()
	if err := a.node.sem.Acquire(ctx, 1); err != nil {
		return writeError(c, http.StatusServiceUnavailable, "request cancelled while queued")
	}
	defer a.node.sem.Release(1)

	req := ExplainRequest{}
	if err := decoder.NewStreamDecoder(c.Request().Body).Decode(&req); err != nil {
		return writeError(c, http.StatusBadRequest, fmt.Sprintf("decoding request: %v", err))
	}
	if req.Model == "" || req.Method == "" {
		return writeError(c, http.StatusBadRequest, "model and method are required")
	}
	if err := req.Input.Validate(); err != nil {
		return writeError(c, http.StatusBadRequest, fmt.Sprintf("invalid input: %v", err))
	}

	handle, err := a.node.modelHandle(ctx, req.Model, req.Framework)
	if err != nil {
		a.logger.Warn("Model resolution failed",
			zap.String("request_id", reqID),
			zap.String("model", req.Model),
			zap.Error(err))
		return writeError(c, httpStatusFor(err), err.Error())
	}

	start := time.Now()
	out, err := a.node.dispatcher.Explain(ctx, handle, req.Input, req.Method, Options{
		Framework:   req.Framework,
		TargetClass: req.TargetClass,
		Params:      req.Params,
	})
	if err != nil {
		a.logger.Warn("Attribution failed",
			zap.String("request_id", reqID),
			zap.String("model", req.Model),
			zap.String("method", req.Method),
			zap.Error(err))
		return writeError(c, httpStatusFor(err), err.Error())
	}

	fw := handleFramework(handle)
	RecordRequestDuration(string(fw), req.Method, time.Since(start).Seconds())

	return writeJSON(c, http.StatusOK, ExplainResponse{
		Attribution: out,
		Framework:   string(fw),
		Method:      req.Method,
	})
}

func (a *API) handleExplainBatch(c *echo.Context) error {
	reqID := uuid.NewString()
	c.Response().Header().Set("X-Request-Id", reqID)

	ctx := c.Request().Context()
	if err := a.node.sem.Acquire(ctx, 1); err != nil {
		return writeError(c, http.StatusServiceUnavailable, "request cancelled while queued")
	}
	defer a.node.sem.Release(1)

	req := BatchExplainRequest{}
	if err := decoder.NewStreamDecoder(c.Request().Body).Decode(&req); err != nil {
		return writeError(c, http.StatusBadRequest, fmt.Sprintf("decoding request: %v", err))
	}
	if req.Model == "" || req.Method == "" {
		return writeError(c, http.StatusBadRequest, "model and method are required")
	}
	if len(req.Inputs) == 0 {
		return writeError(c, http.StatusBadRequest, "inputs must not be empty")
	}
	for i, in := range req.Inputs {
		if err := in.Validate(); err != nil {
			return writeError(c, http.StatusBadRequest, fmt.Sprintf("invalid input %d: %v", i, err))
		}
	}

	handle, err := a.node.modelHandle(ctx, req.Model, req.Framework)
	if err != nil {
		return writeError(c, httpStatusFor(err), err.Error())
	}

	fw := handleFramework(handle)
	RecordBatchRequest(string(fw))

	start := time.Now()
	outs, err := a.node.dispatcher.ExplainBatch(ctx, handle, req.Inputs, req.Method, BatchOptions{
		Framework:     req.Framework,
		TargetClasses: req.TargetClasses,
		Params:        req.Params,
	})
	if err != nil {
		a.logger.Warn("Batch attribution failed",
			zap.String("request_id", reqID),
			zap.String("model", req.Model),
			zap.String("method", req.Method),
			zap.Int("batch_size", len(req.Inputs)),
			zap.Error(err))
		return writeError(c, httpStatusFor(err), err.Error())
	}
	RecordRequestDuration(string(fw), req.Method, time.Since(start).Seconds())

	return writeJSON(c, http.StatusOK, BatchExplainResponse{
		Attributions: outs,
		Framework:    string(fw),
		Method:       req.Method,
	})
}

func (a *API) handleMethods(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, Methods())
}

func (a *API) handleFrameworks(c *echo.Context) error {
	infos := []FrameworkInfo{}
	for _, b := range a.node.registry.List() {
		infos = append(infos, FrameworkInfo{
			Framework: string(b.Framework()),
			Backend:   b.Name(),
			Available: b.Available(),
		})
	}
	return writeJSON(c, http.StatusOK, infos)
}

// handleFramework reports which framework a resolved handle belongs to,
// using the same capability probes as detection. Empty when neither
// probe matches.
func handleFramework(m Model) Framework {
	if _, ok := m.(backends.LayerLister); ok {
		return FrameworkTensorFlow
	}
	if _, ok := m.(backends.ParameterIterator); ok {
		return FrameworkPyTorch
	}
	return ""
}
