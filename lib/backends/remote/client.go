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

// Package remote bridges the dispatch layer to framework-native
// attribution sidecars over HTTP.
//
// A sidecar hosts the actual explanation runtime (iNNvestigate-style
// analyzers for TensorFlow, Zennit composites for PyTorch) and exposes
// two endpoints:
//
//	GET  /v1/models/{ref}    model metadata (layer / parameter names)
//	POST /v1/attributions    compute one attribution map
//
// Model metadata backs the dispatcher's capability probes and is cached
// with a TTL; attribution calls are never cached here since methods like
// smoothgrad are intentionally non-deterministic.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/antflydb/attrib/lib/backends"
	"github.com/antflydb/attrib/lib/tensor"
	json "github.com/goccy/go-json"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultMetadataTTL is how long model metadata stays cached.
const DefaultMetadataTTL = 5 * time.Minute

// ClientConfig configures a sidecar client.
type ClientConfig struct {
	// BaseURL of the sidecar, e.g. "http://localhost:5171".
	BaseURL string

	// Framework the sidecar serves.
	Framework backends.Framework

	// MetadataTTL overrides DefaultMetadataTTL when non-zero.
	MetadataTTL time.Duration

	// HTTPClient overrides the default client when non-nil.
	HTTPClient *http.Client
}

// Client talks to one attribution sidecar.
type Client struct {
	baseURL   string
	framework backends.Framework
	http      *http.Client
	logger    *zap.Logger

	// Model metadata cache; concurrent fetches for the same ref are
	// collapsed through the singleflight group.
	metadata *ttlcache.Cache[string, *modelMetadata]
	sfGroup  *singleflight.Group
}

// NewClient creates a sidecar client.
func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid sidecar URL %q", cfg.BaseURL)
	}

	ttl := cfg.MetadataTTL
	if ttl == 0 {
		ttl = DefaultMetadataTTL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	c := &Client{
		baseURL:   u.String(),
		framework: cfg.Framework,
		http:      httpClient,
		logger:    logger,
		metadata:  ttlcache.New(ttlcache.WithTTL[string, *modelMetadata](ttl)),
		sfGroup:   &singleflight.Group{},
	}
	go c.metadata.Start()
	return c, nil
}

// Close stops the metadata cache janitor.
func (c *Client) Close() {
	c.metadata.Stop()
}

// Framework returns the framework tag the sidecar serves.
func (c *Client) Framework() backends.Framework {
	return c.framework
}

// BaseURL returns the sidecar base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Healthy reports whether the sidecar answers its health endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// modelMetadata is the sidecar's description of a hosted model.
type modelMetadata struct {
	Framework  string   `json:"framework"`
	Layers     []string `json:"layers,omitempty"`
	Parameters []string `json:"parameters,omitempty"`
}

// Model fetches (or reuses cached) metadata for a hosted model and wraps
// it in a handle satisfying the matching capability probe.
func (c *Client) Model(ctx context.Context, ref string) (backends.Model, error) {
	meta, err := c.fetchMetadata(ctx, ref)
	if err != nil {
		return nil, err
	}

	switch backends.Framework(meta.Framework) {
	case backends.FrameworkTensorFlow:
		return &KerasModel{ref: ref, client: c, layers: meta.Layers}, nil
	case backends.FrameworkPyTorch:
		return &TorchModel{ref: ref, client: c, parameters: meta.Parameters}, nil
	default:
		return nil, fmt.Errorf("sidecar reports unknown framework %q for model %s", meta.Framework, ref)
	}
}

func (c *Client) fetchMetadata(ctx context.Context, ref string) (*modelMetadata, error) {
	if item := c.metadata.Get(ref); item != nil {
		return item.Value(), nil
	}

	v, err, _ := c.sfGroup.Do(ref, func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+"/v1/models/"+url.PathEscape(ref), nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching metadata for model %s: %w", ref, err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading metadata for model %s: %w", ref, err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("sidecar returned %d for model %s: %s",
				resp.StatusCode, ref, sidecarError(body))
		}

		meta := &modelMetadata{}
		if err := json.Unmarshal(body, meta); err != nil {
			return nil, fmt.Errorf("decoding metadata for model %s: %w", ref, err)
		}

		c.metadata.Set(ref, meta, ttlcache.DefaultTTL)
		c.logger.Debug("Cached model metadata",
			zap.String("model", ref),
			zap.String("framework", meta.Framework))
		return meta, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*modelMetadata), nil
}

// attributionRequest is the wire form of one attribution call.
type attributionRequest struct {
	Model  string         `json:"model"`
	Method string         `json:"method"`
	Input  tensor.Tensor  `json:"input"`
	Params map[string]any `json:"params,omitempty"`
}

// attributionResponse is the sidecar's answer.
type attributionResponse struct {
	Attribution tensor.Tensor `json:"attribution"`
	Error       string        `json:"error,omitempty"`
}

// attribute performs one attribution round-trip. Sidecar-reported errors
// come back verbatim so the original backend diagnostic survives.
func (c *Client) attribute(ctx context.Context, ref, method string, input tensor.Tensor, params map[string]any) (tensor.Tensor, error) {
	payload, err := json.Marshal(attributionRequest{
		Model:  ref,
		Method: method,
		Input:  input,
		Params: params,
	})
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("encoding attribution request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/attributions", bytes.NewReader(payload))
	if err != nil {
		return tensor.Tensor{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("calling %s sidecar: %w", c.framework, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("reading attribution response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return tensor.Tensor{}, fmt.Errorf("%s backend: %s", c.framework, sidecarError(body))
	}

	out := attributionResponse{}
	if err := json.Unmarshal(body, &out); err != nil {
		return tensor.Tensor{}, fmt.Errorf("decoding attribution response: %w", err)
	}
	if out.Error != "" {
		return tensor.Tensor{}, fmt.Errorf("%s backend: %s", c.framework, out.Error)
	}

	c.logger.Debug("Attribution computed",
		zap.String("model", ref),
		zap.String("method", method),
		zap.Uint64("input_digest", input.Fingerprint()),
		zap.Duration("duration", time.Since(start)))
	return out.Attribution, nil
}

// sidecarError extracts the error message from a sidecar body, falling
// back to the raw text when it is not the JSON envelope.
func sidecarError(body []byte) string {
	e := struct {
		Error string `json:"error"`
	}{}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return string(bytes.TrimSpace(body))
}
