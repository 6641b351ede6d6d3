// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads reelgen configuration from defaults, a YAML file and
// REELGEN_* environment variables, in that order of increasing precedence.
package config

import "time"

// AppConfig is the root of the configuration tree.
type AppConfig struct {
	// Version is injected from the binary, never read from the file.
	Version string `yaml:"-" json:"-"`

	API       APIConfig       `yaml:"api" json:"api"`
	Content   ContentConfig   `yaml:"content" json:"content"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`

	LoginPath  string `yaml:"login_path" json:"login_path" jsonschema_description:"Login entry point for unauthorized sessions"`
	OutputDir  string `yaml:"output_dir" json:"output_dir" jsonschema_description:"Directory for downloaded media"`
	LogLevel   string `yaml:"log_level" json:"log_level"`
	LogService string `yaml:"log_service" json:"log_service"`
}

// APIConfig describes the remote generation service.
type APIConfig struct {
	BaseURL          string        `yaml:"base_url" json:"base_url" jsonschema_description:"Base URL of the generation API"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout" jsonschema_description:"Per-request timeout (Go duration)"`
	MaxResponseBytes int64         `yaml:"max_response_bytes" json:"max_response_bytes"`
	Token            string        `yaml:"token" json:"token" jsonschema_description:"Bearer token sent to generate-content"`
	User             string        `yaml:"user" json:"user"`
}

// ContentConfig holds the defaults for story generation.
type ContentConfig struct {
	Variant    string `yaml:"variant" json:"variant"`
	Genre      string `yaml:"genre" json:"genre" jsonschema_description:"Default genre, matched case-insensitively"`
	Iterations int    `yaml:"iterations" json:"iterations" jsonschema:"minimum=1"`
}

// ServerConfig configures the local preview server.
type ServerConfig struct {
	Listen          string        `yaml:"listen" json:"listen"`
	Token           string        `yaml:"token" json:"token" jsonschema_description:"When set, /api and /media require this token"`
	RateLimitRPS    int           `yaml:"rate_limit_rps" json:"rate_limit_rps" jsonschema_description:"Requests per second per client, 0 disables"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter" jsonschema:"enum=grpc,enum=http"`
	Endpoint     string  `yaml:"endpoint" json:"endpoint"`
	Environment  string  `yaml:"environment" json:"environment"`
	SamplingRate float64 `yaml:"sampling_rate" json:"sampling_rate" jsonschema:"minimum=0,maximum=1"`
}

// Defaults returns a configuration populated with built-in defaults.
func Defaults() AppConfig {
	return AppConfig{
		API: APIConfig{
			BaseURL:          "http://localhost:8000",
			Timeout:          120 * time.Second,
			MaxResponseBytes: 64 << 20,
		},
		Content: ContentConfig{
			Variant:    "single",
			Genre:      "Adventure",
			Iterations: 4,
		},
		Server: ServerConfig{
			Listen:          "127.0.0.1:8088",
			RateLimitRPS:    10,
			ShutdownTimeout: 10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			Environment:  "development",
			SamplingRate: 1.0,
		},
		LoginPath:  "/login",
		OutputDir:  ".",
		LogLevel:   "info",
		LogService: "reelgen",
	}
}
