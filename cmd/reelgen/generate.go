// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ManuGH/reelgen/internal/auth"
	"github.com/ManuGH/reelgen/internal/config"
	"github.com/ManuGH/reelgen/internal/genapi"
	xglog "github.com/ManuGH/reelgen/internal/log"
	"github.com/ManuGH/reelgen/internal/media"
	"github.com/ManuGH/reelgen/internal/present"
	"github.com/ManuGH/reelgen/internal/screen"
	"github.com/ManuGH/reelgen/internal/telemetry"
)

// runtime is what every command builds from the loaded config.
type runtime struct {
	cfg      config.AppConfig
	client   *genapi.Client
	registry *media.Registry
	decoder  *media.Decoder
	session  *auth.Session
	tracing  *telemetry.Provider
}

func newRuntime(ctx context.Context, cfg config.AppConfig, variant string) (*runtime, error) {
	if variant == "" {
		variant = cfg.Content.Variant
	}
	v, err := genapi.ParseVariant(variant)
	if err != nil {
		return nil, err
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	client, err := genapi.New(cfg.API.BaseURL, genapi.Options{
		Timeout:          cfg.API.Timeout,
		MaxResponseBytes: cfg.API.MaxResponseBytes,
		Variant:          v,
	})
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	reg := media.NewRegistry()
	return &runtime{
		cfg:      cfg,
		client:   client,
		registry: reg,
		decoder:  media.NewDecoder(reg),
		session:  auth.NewSession(cfg.API.User, cfg.API.Token),
		tracing:  tp,
	}, nil
}

func (rt *runtime) close(ctx context.Context) {
	logger := xglog.WithComponent("cli")
	if n := rt.registry.RevokeAll(); n > 0 {
		logger.Debug().Int("revoked", n).Msg("released remaining media")
	}
	if err := rt.tracing.Shutdown(context.WithoutCancel(ctx)); err != nil {
		logger.Warn().Err(err).Msg("telemetry shutdown failed")
	}
}

func (rt *runtime) storyDefaults() screen.StoryOptions {
	genre, err := genapi.ParseGenre(rt.cfg.Content.Genre)
	if err != nil {
		genre = genapi.DefaultGenre
	}
	return screen.StoryOptions{Genre: genre, Iterations: rt.cfg.Content.Iterations}
}

func runVoice(ctx context.Context, cfg config.AppConfig, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reelgen voice", flag.ContinueOnError)
	fs.SetOutput(stderr)
	text := fs.String("text", "", "text to speak")
	out := fs.String("out", cfg.OutputDir, "directory for the audio file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	rt, err := newRuntime(ctx, cfg, "")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer rt.close(ctx)

	sc := screen.NewVoiceScreen(rt.client, rt.decoder, present.NewConsole(stdout))
	defer func() { _ = sc.Close() }()

	if err := sc.Submit(ctx, *text); err != nil {
		return exitFailure
	}
	return save(sc.View(), *out, stdout, stderr)
}

func runStory(ctx context.Context, cfg config.AppConfig, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reelgen story", flag.ContinueOnError)
	fs.SetOutput(stderr)
	prompt := fs.String("prompt", "", "story prompt")
	genre := fs.String("genre", "", "Horror, Adventure or Fantasy (default from config)")
	iterations := fs.Int("iterations", 0, "number of drafts (default from config)")
	variant := fs.String("variant", "", "single or multi (default from config)")
	out := fs.String("out", cfg.OutputDir, "directory for downloaded media")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	in := screen.StoryInput{Prompt: *prompt, Iterations: *iterations}
	if *genre != "" {
		g, err := genapi.ParseGenre(*genre)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitUsage
		}
		in.Genre = g
	}

	rt, err := newRuntime(ctx, cfg, *variant)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer rt.close(ctx)

	sc, err := screen.NewStoryScreen(rt.session, auth.StaticToken(rt.session.AccessToken), rt.client, rt.decoder, present.NewConsole(stdout), rt.storyDefaults())
	if errors.Is(err, auth.ErrUnauthorized) {
		fmt.Fprintf(stderr, "%s: %s\n", screen.MsgLoginRequired, cfg.LoginPath)
		return exitFailure
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer func() { _ = sc.Close() }()

	if err := sc.Submit(ctx, in); err != nil {
		return exitFailure
	}
	return save(sc.View(), *out, stdout, stderr)
}

// save downloads the media of a successful view and lists the written files.
func save(v screen.View, dir string, stdout, stderr io.Writer) int {
	paths, err := present.NewSaver(dir).Save(v)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	for _, p := range paths {
		fmt.Fprintf(stdout, "saved %s\n", p)
	}
	return exitOK
}
