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
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/antflydb/attrib/lib/backends"
	"github.com/antflydb/attrib/lib/backends/remote"
	"github.com/antflydb/attrib/lib/tensor"
	"github.com/labstack/echo/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxInFlight bounds concurrent API requests when the config does
// not say otherwise.
const DefaultMaxInFlight = 4

// Node is one attrib service instance: a dispatcher over the sidecar
// backends named in the config, plus the HTTP surface around it.
type Node struct {
	logger     *zap.Logger
	registry   *backends.Registry
	dispatcher *Dispatcher

	// Sidecar clients by framework, for resolving model references
	// arriving over the API into capability-bearing handles.
	clients map[Framework]*remote.Client

	// Backpressure for the HTTP surface only; the dispatch pipeline
	// stays strictly sequential per call.
	sem *semaphore.Weighted
}

// NewNode builds a node from config: one remote backend per configured
// sidecar URL, registered into a fresh registry.
func NewNode(config Config, logger *zap.Logger) (*Node, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var metadataTTL time.Duration
	if config.MetadataTTL != "" {
		ttl, err := time.ParseDuration(config.MetadataTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid metadata_ttl %q: %w", config.MetadataTTL, err)
		}
		metadataTTL = ttl
	}

	maxInFlight := config.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}

	node := &Node{
		logger:   logger,
		registry: backends.NewRegistry(),
		clients:  make(map[Framework]*remote.Client),
		sem:      semaphore.NewWeighted(int64(maxInFlight)),
	}
	node.dispatcher = NewDispatcher(node.registry, logger.Named("dispatch"))

	sidecars := []struct {
		framework Framework
		url       string
	}{
		{FrameworkTensorFlow, config.TensorFlowURL},
		{FrameworkPyTorch, config.PyTorchURL},
	}
	for _, sc := range sidecars {
		if sc.url == "" {
			continue
		}
		client, err := remote.NewClient(remote.ClientConfig{
			BaseURL:     sc.url,
			Framework:   sc.framework,
			MetadataTTL: metadataTTL,
		}, logger.Named(string(sc.framework)))
		if err != nil {
			return nil, fmt.Errorf("configuring %s sidecar: %w", sc.framework, err)
		}
		node.clients[sc.framework] = client
		node.registry.Register(remote.NewBackend(client))
		logger.Info("Registered attribution backend",
			zap.String("framework", string(sc.framework)),
			zap.String("url", sc.url))
	}

	return node, nil
}

// Close releases sidecar clients.
func (n *Node) Close() {
	for _, c := range n.clients {
		c.Close()
	}
}

// Registry exposes the node's backend registry, mainly for tests.
func (n *Node) Registry() *backends.Registry {
	return n.registry
}

// modelHandle resolves an API model reference into a capability-bearing
// handle. With an explicit framework only that sidecar is asked;
// otherwise each configured sidecar is tried in a stable order and the
// first that knows the reference wins.
func (n *Node) modelHandle(ctx context.Context, ref, framework string) (Model, error) {
	if framework != "" {
		fw, err := ParseFramework(framework)
		if err != nil {
			return nil, err
		}
		client, ok := n.clients[fw]
		if !ok {
			return nil, &MissingBackendError{Framework: fw}
		}
		return client.Model(ctx, ref)
	}

	var lastErr error
	for _, fw := range backends.Frameworks() {
		client, ok := n.clients[fw]
		if !ok {
			continue
		}
		handle, err := client.Model(ctx, ref)
		if err != nil {
			lastErr = err
			continue
		}
		return handle, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("resolving model %q: %w", ref, lastErr)
	}
	return nil, fmt.Errorf("resolving model %q: %w", ref, ErrAmbiguousFramework)
}

// ExplainRef resolves a sidecar model reference into a handle and runs
// one attribution through the dispatch pipeline.
func (n *Node) ExplainRef(ctx context.Context, ref string, input tensor.Tensor, method string, opts Options) (tensor.Tensor, error) {
	handle, err := n.modelHandle(ctx, ref, opts.Framework)
	if err != nil {
		return tensor.Tensor{}, err
	}
	return n.dispatcher.Explain(ctx, handle, input, method, opts)
}

// Run starts the attrib node and serves until ctx is cancelled. If readyC
// is non-nil it is closed once the server is about to accept requests.
func Run(ctx context.Context, zl *zap.Logger, config Config, readyC chan struct{}) {
	zl = zl.Named("attrib")
	zl.Info("Starting attrib node", zap.Any("config", config))

	node, err := NewNode(config, zl)
	if err != nil {
		zl.Fatal("Failed to initialize node", zap.Error(err))
	}
	defer node.Close()

	if len(node.clients) == 0 {
		zl.Warn("No sidecars configured; every request will fail with a missing-backend error")
	}

	e := NewAPI(zl.Named("api"), node)

	addr := config.ListenAddr
	if addr == "" {
		addr = "127.0.0.1:4310"
	}
	zl.Info("Serving attrib API", zap.String("addr", addr))

	sc := echo.StartConfig{
		Address: addr,
		BeforeServeFunc: func(srv *http.Server) error {
			srv.ReadHeaderTimeout = 30 * time.Second
			if readyC != nil {
				close(readyC)
			}
			return nil
		},
	}
	if err := sc.Start(ctx, e); err != nil && ctx.Err() == nil {
		zl.Fatal("API server failed", zap.Error(err))
	}
}
