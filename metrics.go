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

import "github.com/prometheus/client_golang/prometheus"

var (
	attributionRequestOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "antfly",
			Subsystem: "attrib",
			Name:      "attribution_request_ops_total",
			Help:      "The total number of successful attribution dispatches.",
		},
		[]string{"framework", "method"},
	)
	attributionFailureOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "antfly",
			Subsystem: "attrib",
			Name:      "attribution_failure_ops_total",
			Help:      "The total number of failed attribution dispatches.",
		},
		[]string{"framework", "reason"},
	)
	batchRequestOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "antfly",
			Subsystem: "attrib",
			Name:      "batch_request_ops_total",
			Help:      "The total number of batch attribution requests.",
		},
		[]string{"framework"},
	)
	attributionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "antfly",
			Subsystem: "attrib",
			Name:      "attribution_duration_seconds",
			Help:      "Wall time of attribution requests, including backend compute.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"framework", "method"},
	)
)

func init() {
	prometheus.MustRegister(
		attributionRequestOps,
		attributionFailureOps,
		batchRequestOps,
		attributionDuration,
	)
}

// RecordBatchRequest increments the batch request counter.
func RecordBatchRequest(framework string) {
	batchRequestOps.WithLabelValues(framework).Inc()
}

// RecordRequestDuration observes one request's wall time, backend compute
// included. Called from the API layer where timing wraps the whole call.
func RecordRequestDuration(framework, method string, seconds float64) {
	attributionDuration.WithLabelValues(framework, method).Observe(seconds)
}
