// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ManuGH/reelgen/internal/config"
	"gopkg.in/yaml.v3"
)

const redacted = "***"

func runConfigCLI(cfg config.AppConfig, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return exitOK
	}

	switch args[0] {
	case "validate":
		// Load already validated; reaching here means the config is valid
		fmt.Fprintln(stdout, "configuration is valid")
		return exitOK
	case "dump":
		return runConfigDump(cfg, args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return exitUsage
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  reelgen config schema")
	fmt.Fprintln(w, "  reelgen [--config FILE] config validate")
	fmt.Fprintln(w, "  reelgen [--config FILE] config dump [--format=yaml|json]")
}

func runConfigSchema(stdout, stderr io.Writer) int {
	schema, err := config.Schema()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to build schema: %v\n", err)
		return exitFailure
	}
	_, _ = stdout.Write(schema)
	fmt.Fprintln(stdout)
	return exitOK
}

func runConfigDump(cfg config.AppConfig, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reelgen config dump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "yaml", "output format: yaml or json")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	redactSecrets(&cfg)

	switch strings.ToLower(strings.TrimSpace(*format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode YAML: %v\n", err)
			return exitFailure
		}
		_ = enc.Close()
		return exitOK
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
			return exitFailure
		}
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown format: %s\n", *format)
		return exitUsage
	}
}

func redactSecrets(cfg *config.AppConfig) {
	if cfg.API.Token != "" {
		cfg.API.Token = redacted
	}
	if cfg.Server.Token != "" {
		cfg.Server.Token = redacted
	}
	cfg.API.BaseURL = maskURL(cfg.API.BaseURL)
}
