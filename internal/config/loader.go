// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/reelgen/internal/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvAPIBaseURL          = "REELGEN_API_BASE_URL"
	EnvAPITimeout          = "REELGEN_API_TIMEOUT"
	EnvAPIMaxResponseBytes = "REELGEN_API_MAX_RESPONSE_BYTES"
	EnvAPIToken            = "REELGEN_API_TOKEN"
	EnvUser                = "REELGEN_USER"
	EnvContentVariant      = "REELGEN_CONTENT_VARIANT"
	EnvContentGenre        = "REELGEN_CONTENT_GENRE"
	EnvContentIterations   = "REELGEN_CONTENT_ITERATIONS"
	EnvListen              = "REELGEN_LISTEN"
	EnvServerToken         = "REELGEN_SERVER_TOKEN"
	EnvRateLimitRPS        = "REELGEN_RATE_LIMIT_RPS"
	EnvShutdownTimeout     = "REELGEN_SHUTDOWN_TIMEOUT"
	EnvLoginPath           = "REELGEN_LOGIN_PATH"
	EnvOutputDir           = "REELGEN_OUTPUT_DIR"
	EnvLogLevel            = "REELGEN_LOG_LEVEL"
	EnvLogService          = "REELGEN_LOG_SERVICE"
	EnvTelemetryEnabled    = "REELGEN_TELEMETRY_ENABLED"
	EnvTelemetryExporter   = "REELGEN_TELEMETRY_EXPORTER"
	EnvTelemetryEndpoint   = "REELGEN_TELEMETRY_ENDPOINT"
	EnvTelemetryEnv        = "REELGEN_TELEMETRY_ENVIRONMENT"
	EnvTelemetrySampling   = "REELGEN_TELEMETRY_SAMPLING_RATE"
)

// DefaultEnvFile is read when present in the working directory.
const DefaultEnvFile = ".env"

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	envFile    string
	version    string
}

// NewLoader creates a new configuration loader. configPath may be empty,
// in which case only defaults and the environment are used.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath: configPath,
		envFile:    DefaultEnvFile,
		version:    version,
	}
}

// WithEnvFile overrides the dotenv file. An empty path disables dotenv loading.
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// ConfigPath returns the YAML file this loader reads, if any.
func (l *Loader) ConfigPath() string {
	return l.configPath
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order: dotenv -> defaults -> strict file parse -> env overrides -> validate.
func (l *Loader) Load() (AppConfig, error) {
	if err := l.loadEnvFile(); err != nil {
		return AppConfig{}, err
	}

	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	mergeEnv(&cfg)
	cfg.Version = l.version
	cfg.LoginPath = normalizeLoginPath(cfg.LoginPath)
	normalizeContent(&cfg.Content)

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadEnvFile populates the process environment from a dotenv file.
// Variables already set in the environment win.
func (l *Loader) loadEnvFile() error {
	if l.envFile == "" {
		return nil
	}
	if _, err := os.Stat(l.envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(l.envFile); err != nil {
		return fmt.Errorf("load env file %s: %w", l.envFile, err)
	}
	logger := log.WithComponent("config")
	logger.Debug().
		Str("event", "config.dotenv_loaded").
		Str("path", l.envFile).
		Msg("loaded environment file")
	return nil
}

// loadFile decodes a YAML file with STRICT parsing over cfg.
// Unknown fields cause an error to prevent misconfiguration; keys absent from
// the file keep their current value.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

// mergeEnv overrides cfg with every REELGEN_* variable that is set and non-empty.
func mergeEnv(cfg *AppConfig) {
	cfg.API.BaseURL = ParseString(EnvAPIBaseURL, cfg.API.BaseURL)
	cfg.API.Timeout = ParseDuration(EnvAPITimeout, cfg.API.Timeout)
	cfg.API.MaxResponseBytes = ParseInt64(EnvAPIMaxResponseBytes, cfg.API.MaxResponseBytes)
	cfg.API.Token = ParseString(EnvAPIToken, cfg.API.Token)
	cfg.API.User = ParseString(EnvUser, cfg.API.User)

	cfg.Content.Variant = ParseString(EnvContentVariant, cfg.Content.Variant)
	cfg.Content.Genre = ParseString(EnvContentGenre, cfg.Content.Genre)
	cfg.Content.Iterations = ParseInt(EnvContentIterations, cfg.Content.Iterations)

	cfg.Server.Listen = ParseString(EnvListen, cfg.Server.Listen)
	cfg.Server.Token = ParseString(EnvServerToken, cfg.Server.Token)
	cfg.Server.RateLimitRPS = ParseInt(EnvRateLimitRPS, cfg.Server.RateLimitRPS)
	cfg.Server.ShutdownTimeout = ParseDuration(EnvShutdownTimeout, cfg.Server.ShutdownTimeout)

	cfg.LoginPath = ParseString(EnvLoginPath, cfg.LoginPath)
	cfg.OutputDir = ParseString(EnvOutputDir, cfg.OutputDir)
	cfg.LogLevel = ParseString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = ParseString(EnvLogService, cfg.LogService)

	cfg.Telemetry.Enabled = ParseBool(EnvTelemetryEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = ParseString(EnvTelemetryExporter, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = ParseString(EnvTelemetryEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.Environment = ParseString(EnvTelemetryEnv, cfg.Telemetry.Environment)
	cfg.Telemetry.SamplingRate = ParseFloat(EnvTelemetrySampling, cfg.Telemetry.SamplingRate)
}

func normalizeLoginPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/login"
	}
	return p
}
