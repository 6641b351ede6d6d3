// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api is the local preview server: it exposes screen views as JSON and
// serves decoded media under their ephemeral handles.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/reelgen/internal/api/middleware"
	"github.com/ManuGH/reelgen/internal/config"
	"github.com/ManuGH/reelgen/internal/health"
	"github.com/ManuGH/reelgen/internal/log"
	"github.com/ManuGH/reelgen/internal/media"
	"github.com/ManuGH/reelgen/internal/screen"
)

// Deps holds the screens and registry the server exposes.
// Story is nil when the session is not authorized. Health defaults to a
// manager without checkers.
type Deps struct {
	Voice    *screen.VoiceScreen
	Story    *screen.StoryScreen
	Registry *media.Registry
	Health   *health.Manager
}

// Validate checks that the mandatory dependencies are present.
func (d Deps) Validate() error {
	if d.Voice == nil {
		return errors.New("voice screen is required")
	}
	if d.Registry == nil {
		return errors.New("media registry is required")
	}
	return nil
}

// Server is the preview HTTP server.
type Server struct {
	mu  sync.RWMutex
	cfg config.AppConfig

	voice    *screen.VoiceScreen
	story    *screen.StoryScreen
	registry *media.Registry
	health   *health.Manager
	logger   zerolog.Logger

	handlerOnce sync.Once
	handler     http.Handler
}

// New builds a server for cfg.
func New(cfg config.AppConfig, deps Deps) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	hm := deps.Health
	if hm == nil {
		hm = health.NewManager(cfg.Version)
	}
	hm.RegisterDetail("live_handles", func() any { return deps.Registry.Live() })
	return &Server{
		cfg:      cfg,
		voice:    deps.Voice,
		story:    deps.Story,
		registry: deps.Registry,
		health:   hm,
		logger:   log.WithComponent("api"),
	}, nil
}

// ApplyConfig swaps in a reloaded configuration. Only the token and login path
// take effect at runtime; listen address and rate limit need a restart.
func (s *Server) ApplyConfig(cfg config.AppConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.logger.Info().
		Str(log.FieldEvent, "api.config_applied").
		Bool("token_required", cfg.Server.Token != "").
		Msg("applied reloaded configuration")
}

func (s *Server) authSettings() (token, loginPath string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Server.Token, s.cfg.LoginPath
}

// Handler returns the router with all middleware applied.
func (s *Server) Handler() http.Handler {
	s.handlerOnce.Do(func() {
		s.handler = s.routes()
	})
	return s.handler
}

func (s *Server) routes() http.Handler {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	stack := middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		EnableLogging:         true,
		RateLimitRPS:          cfg.Server.RateLimitRPS,
	}
	if cfg.Telemetry.Enabled {
		stack.TracingService = cfg.LogService
	}
	r := middleware.NewRouter(stack)

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/media/{id}", s.handleMedia)
		r.Route("/api/screens", func(r chi.Router) {
			r.Get("/{name}", s.handleGetScreen)
			r.Delete("/{name}", s.handleResetScreen)
			r.Post("/{name}/cancel", s.handleCancelScreen)
			r.Post("/voice", s.handleSubmitVoice)
			r.Post("/story", s.handleSubmitStory)
		})
	})
	return r
}

// Shutdown closes every screen, which releases their media, then revokes
// whatever handles remain.
func (s *Server) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("shutdown context is nil")
	}
	var errs []error
	for _, sc := range s.screens() {
		if err := sc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s screen: %w", sc.Name(), err))
		}
	}
	revoked := s.registry.RevokeAll()
	s.logger.Info().
		Str(log.FieldEvent, "api.shutdown").
		Int("revoked", revoked).
		Msg("preview server released media")
	return errors.Join(errs...)
}

// viewer is what every screen offers the server.
type viewer interface {
	Name() string
	View() screen.View
	Reset() error
	Cancel() bool
	Close() error
}

func (s *Server) screens() []viewer {
	out := []viewer{s.voice}
	if s.story != nil {
		out = append(out, s.story)
	}
	return out
}

func (s *Server) screen(name string) (viewer, bool) {
	for _, sc := range s.screens() {
		if sc.Name() == name {
			return sc, true
		}
	}
	return nil, false
}
