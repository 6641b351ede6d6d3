// SPDX-License-Identifier: MIT
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelgen_generation_requests_total",
		Help: "Generation API calls by endpoint and outcome",
	}, []string{"endpoint", "outcome"}) // outcome=success|validation|connection|server_reported|malformed

	generationRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reelgen_generation_request_duration_seconds",
		Help:    "Round-trip latency of generation API calls",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"endpoint"})

	generationPayloadBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reelgen_generation_payload_bytes",
		Help:    "Size of decoded media payloads by media kind",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
	}, []string{"kind"}) // kind=audio|image|video
)

// ObserveGeneration records the outcome and latency of one generation call.
func ObserveGeneration(endpoint, outcome string, d time.Duration) {
	generationRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	generationRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// GenerationCounter exposes the counter for a label pair (used by tests).
func GenerationCounter(endpoint, outcome string) prometheus.Counter {
	return generationRequestsTotal.WithLabelValues(endpoint, outcome)
}

// ObservePayload records the decoded size of a media payload.
func ObservePayload(kind string, n int) {
	generationPayloadBytes.WithLabelValues(kind).Observe(float64(n))
}
