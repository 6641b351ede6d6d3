// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	screenState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reelgen_screen_state",
		Help: "Current state per screen (active state=1; others 0)",
	}, []string{"screen", "state"})

	screenSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelgen_screen_submissions_total",
		Help: "Screen submissions by result",
	}, []string{"screen", "result"}) // result=success|failure|busy|stale|validation

	screenStaleDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelgen_screen_stale_responses_total",
		Help: "Responses dropped because a newer request or teardown superseded them",
	}, []string{"screen"})
)

var screenStates = []string{"idle", "submitting", "success", "failure"}

// SetScreenState records the active state for a screen.
func SetScreenState(screen, state string) {
	for _, s := range screenStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		screenState.WithLabelValues(screen, s).Set(value)
	}
}

// IncSubmission counts a submission attempt by result.
func IncSubmission(screen, result string) {
	screenSubmissions.WithLabelValues(screen, result).Inc()
}

// IncStaleDrop counts a dropped late response.
func IncStaleDrop(screen string) {
	screenStaleDrops.WithLabelValues(screen).Inc()
}

// StaleDropCounter exposes the stale-drop counter for a screen (used by tests).
func StaleDropCounter(screen string) prometheus.Counter {
	return screenStaleDrops.WithLabelValues(screen)
}
