// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command reelgen generates voice clips and story reels from the command line
// and runs the local preview server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/reelgen/internal/config"
	xglog "github.com/ManuGH/reelgen/internal/log"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// maskURL removes user info from a URL string for safe logging.
func maskURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	return parsedURL.String()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  reelgen [--config FILE] voice --text TEXT [--out DIR]")
	fmt.Fprintln(w, "  reelgen [--config FILE] story --prompt TEXT [--genre G] [--iterations N] [--variant single|multi] [--out DIR]")
	fmt.Fprintln(w, "  reelgen [--config FILE] serve")
	fmt.Fprintln(w, "  reelgen [--config FILE] config schema|validate|dump [--format yaml|json]")
	fmt.Fprintln(w, "  reelgen --version")
}

// run parses global flags, loads the configuration and dispatches the subcommand.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reelgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }
	showVersion := fs.Bool("version", false, "print version and exit")
	configPath := fs.String("config", "", "path to config file (YAML)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s (commit: %s, built: %s)\n", version, commit, buildDate)
		return exitOK
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	// schema output must not depend on a loadable config
	if rest[0] == "config" && len(rest) > 1 && rest[1] == "schema" {
		return runConfigSchema(stdout, stderr)
	}

	// Configure logger with safe defaults until config is loaded
	xglog.Configure(xglog.Config{Level: "info", Output: stderr, Service: "reelgen", Version: version})
	logger := xglog.WithComponent("cli")

	loader := config.NewLoader(strings.TrimSpace(*configPath), version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Error().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", loader.ConfigPath()).
			Msg("failed to load configuration")
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitFailure
	}

	xglog.Reconfigure(xglog.Config{Level: cfg.LogLevel, Output: stderr, Service: cfg.LogService, Version: cfg.Version})
	logger = xglog.WithComponent("cli")
	logger.Debug().
		Str("event", "config.loaded").
		Str("config_path", loader.ConfigPath()).
		Str(xglog.FieldBaseURL, maskURL(cfg.API.BaseURL)).
		Msg("configuration loaded")

	switch rest[0] {
	case "voice":
		return runVoice(ctx, cfg, rest[1:], stdout, stderr)
	case "story":
		return runStory(ctx, cfg, rest[1:], stdout, stderr)
	case "serve":
		return runServe(ctx, cfg, loader, stderr)
	case "config":
		return runConfigCLI(cfg, rest[1:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", rest[0])
		printUsage(stderr)
		return exitUsage
	}
}
