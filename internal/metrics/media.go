// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mediaLiveHandles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reelgen_media_live_handles",
		Help: "Ephemeral media handles currently registered and not yet revoked",
	})

	mediaDecodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelgen_media_decode_errors_total",
		Help: "Media payloads that failed to decode by reason",
	}, []string{"reason"}) // reason=invalid_base64|unsupported_type

	mediaRevocations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelgen_media_revocations_total",
		Help: "Ephemeral media handles revoked",
	})
)

// AddLiveHandles adjusts the live handle gauge by delta.
func AddLiveHandles(delta int) { mediaLiveHandles.Add(float64(delta)) }

// IncDecodeError counts a decode failure.
func IncDecodeError(reason string) { mediaDecodeErrors.WithLabelValues(reason).Inc() }

// IncRevocation counts a revoked handle.
func IncRevocation() { mediaRevocations.Inc() }
