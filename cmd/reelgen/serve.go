// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ManuGH/reelgen/internal/api"
	"github.com/ManuGH/reelgen/internal/auth"
	"github.com/ManuGH/reelgen/internal/config"
	"github.com/ManuGH/reelgen/internal/daemon"
	"github.com/ManuGH/reelgen/internal/health"
	xglog "github.com/ManuGH/reelgen/internal/log"
	"github.com/ManuGH/reelgen/internal/screen"
)

// runServe runs the preview server until ctx is cancelled.
func runServe(ctx context.Context, cfg config.AppConfig, loader *config.Loader, stderr io.Writer) int {
	logger := xglog.WithComponent("serve")

	rt, err := newRuntime(ctx, cfg, "")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer rt.close(ctx)

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewUpstreamChecker("generation_api", cfg.API.BaseURL))
	hm.RegisterChecker(health.NewWritableDirChecker("output_dir", cfg.OutputDir))

	holder := config.NewHolder(cfg, loader)
	// story requests pick up a reloaded api.token without a restart
	tokens := auth.TokenFunc(func(context.Context) (string, error) {
		return strings.TrimSpace(holder.Get().API.Token), nil
	})

	deps := api.Deps{
		Voice:    screen.NewVoiceScreen(rt.client, rt.decoder, nil),
		Registry: rt.registry,
		Health:   hm,
	}
	story, err := screen.NewStoryScreen(rt.session, tokens, rt.client, rt.decoder, nil, rt.storyDefaults())
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		logger.Warn().
			Str("event", "auth.session_unauthorized").
			Str("login_path", cfg.LoginPath).
			Msg("story screen disabled until a user and token are configured")
	case err != nil:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	default:
		deps.Story = story
	}

	srv, err := api.New(cfg, deps)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	mgr, err := daemon.NewManager(cfg.Server, daemon.Deps{
		Logger:     xglog.WithComponent("daemon"),
		APIHandler: srv.Handler(),
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	mgr.RegisterShutdownHook("screens", srv.Shutdown)

	app := daemon.NewApp(xglog.WithComponent("daemon"), mgr, holder, srv)
	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Str("event", "serve.failed").Msg("preview server stopped with error")
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	return exitOK
}
