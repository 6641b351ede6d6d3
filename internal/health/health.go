// SPDX-License-Identifier: MIT

// Package health serves /healthz and /readyz for the preview server.
//
// Liveness always answers 200 and only runs the checkers when asked for a
// verbose report. Readiness always runs them and answers 503 once any checker
// reports unhealthy; a degraded generation API still counts as ready because
// previously generated media keeps being served.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ManuGH/reelgen/internal/log"
)

// Status is the outcome of a check, ordered from best to worst.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) rank() int {
	switch s {
	case StatusDegraded:
		return 1
	case StatusUnhealthy:
		return 2
	}
	return 0
}

// CheckResult is what a single Checker reports.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Checker inspects one dependency of the server.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Report is the body shared by both endpoints.
type Report struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Details   map[string]any         `json:"details,omitempty"`
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Report
	Version string `json:"version,omitempty"`
}

// ReadinessResponse is the /readyz body.
type ReadinessResponse struct {
	Ready bool `json:"ready"`
	Report
}

// Manager aggregates checkers and detail values. Registration happens before
// the server starts.
type Manager struct {
	version  string
	checkers []Checker
	details  map[string]func() any
}

// NewManager returns a manager reporting version on /healthz.
func NewManager(version string) *Manager {
	return &Manager{version: version, details: map[string]func() any{}}
}

// RegisterChecker adds a checker.
func (m *Manager) RegisterChecker(c Checker) {
	m.checkers = append(m.checkers, c)
}

// RegisterDetail adds a value reported under details in verbose responses,
// such as the number of live media handles.
func (m *Manager) RegisterDetail(key string, fn func() any) {
	m.details[key] = fn
}

func (m *Manager) report(ctx context.Context, runChecks, verbose bool) Report {
	rep := Report{Status: StatusHealthy, Timestamp: time.Now()}
	if verbose && len(m.details) > 0 {
		rep.Details = make(map[string]any, len(m.details))
		for k, fn := range m.details {
			rep.Details[k] = fn()
		}
	}
	if !runChecks || len(m.checkers) == 0 {
		return rep
	}
	rep.Checks = make(map[string]CheckResult, len(m.checkers))
	for _, c := range m.checkers {
		res := c.Check(ctx)
		rep.Checks[c.Name()] = res
		if res.Status.rank() > rep.Status.rank() {
			rep.Status = res.Status
		}
	}
	return rep
}

// Health reports liveness. Checkers run only when verbose is set.
func (m *Manager) Health(ctx context.Context, verbose bool) HealthResponse {
	return HealthResponse{Report: m.report(ctx, verbose, verbose), Version: m.version}
}

// Ready reports readiness: ready unless a checker is unhealthy.
func (m *Manager) Ready(ctx context.Context, verbose bool) ReadinessResponse {
	rep := m.report(ctx, true, verbose)
	return ReadinessResponse{Ready: rep.Status != StatusUnhealthy, Report: rep}
}

// ServeHealth handles GET /healthz. It always answers 200.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	verbose := r.URL.Query().Get("verbose") == "true"
	resp := m.Health(r.Context(), verbose)
	writeReport(w, r, "health", http.StatusOK, resp.Status, resp)
}

// ServeReady handles GET /readyz, answering 503 when not ready.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	verbose := r.URL.Query().Get("verbose") == "true"
	resp := m.Ready(r.Context(), verbose)
	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}
	writeReport(w, r, "readiness", code, resp.Status, resp)
}

func writeReport(w http.ResponseWriter, r *http.Request, kind string, code int, status Status, body any) {
	logger := log.WithComponentFromContext(r.Context(), kind)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, kind+".encode_error").Msg("failed to encode response")
		return
	}
	logger.Debug().
		Str(log.FieldEvent, kind+".checked").
		Str("status", string(status)).
		Int("code", code).
		Msg("check served")
}
