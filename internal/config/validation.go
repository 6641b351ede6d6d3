// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"strings"

	"github.com/ManuGH/reelgen/internal/genapi"
	"github.com/ManuGH/reelgen/internal/validate"
)

// Exporters lists the accepted telemetry.exporter values.
var Exporters = []string{"grpc", "http"}

// Genres lists the accepted content.genre values in canonical case.
// Matching is case-insensitive.
func Genres() []string {
	gs := genapi.Genres()
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = string(g)
	}
	return out
}

// Variants lists the accepted content.variant values.
func Variants() []string {
	return []string{string(genapi.VariantSingle), string(genapi.VariantMulti)}
}

// normalizeContent rewrites genre and variant to their canonical spelling.
// Unknown values are left alone for Validate to report.
func normalizeContent(c *ContentConfig) {
	if g, err := genapi.ParseGenre(c.Genre); err == nil {
		c.Genre = string(g)
	}
	if strings.TrimSpace(c.Variant) != "" {
		if v, err := genapi.ParseVariant(c.Variant); err == nil {
			c.Variant = string(v)
		}
	}
}

// Validate checks the configuration and returns all problems at once as
// validate.Errors.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.URL("api.base_url", cfg.API.BaseURL, "http", "https")
	v.PositiveDuration("api.timeout", cfg.API.Timeout)
	v.PositiveInt("api.max_response_bytes", cfg.API.MaxResponseBytes)

	content := cfg.Content
	normalizeContent(&content)
	v.OneOf("content.variant", content.Variant, Variants())
	v.OneOf("content.genre", content.Genre, Genres())
	v.IntRange("content.iterations", content.Iterations, 1, genapi.MaxIterations)

	v.ListenAddr("server.listen", cfg.Server.Listen)
	v.IntRange("server.rate_limit_rps", cfg.Server.RateLimitRPS, 0, 100000)
	v.PositiveDuration("server.shutdown_timeout", cfg.Server.ShutdownTimeout)

	v.AbsPath("login_path", cfg.LoginPath)
	v.NotBlank("output_dir", cfg.OutputDir)
	v.LogLevel("log_level", cfg.LogLevel)

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, Exporters)
		v.NotBlank("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("telemetry.sampling_rate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	return v.Err()
}
