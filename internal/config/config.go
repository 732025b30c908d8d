// Package config loads process settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jonwraymond/datasentry/observe"
)

// ServiceName identifies the process in telemetry.
const ServiceName = "datasentry"

// Environment variables.
const (
	EnvConfig          = "DATASENTRY_CONFIG"
	EnvInterval        = "DATASENTRY_INTERVAL"
	EnvPause           = "DATASENTRY_PAUSE"
	EnvCheckTimeout    = "DATASENTRY_CHECK_TIMEOUT"
	EnvListen          = "DATASENTRY_LISTEN"
	EnvLogLevel        = "DATASENTRY_LOG_LEVEL"
	EnvLogFile         = "DATASENTRY_LOG_FILE"
	EnvTracingExporter = "DATASENTRY_TRACING_EXPORTER"
	EnvMetricsExporter = "DATASENTRY_METRICS_EXPORTER"
	EnvSamplePct       = "DATASENTRY_TRACE_SAMPLE"
	EnvAPIKeys         = "DATASENTRY_API_KEYS"
	EnvJWTSecret       = "DATASENTRY_JWT_SECRET"
)

// DefaultEnvFiles are tried in order; the first one found is loaded.
var DefaultEnvFiles = []string{".env", "/etc/datasentry/.env"}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid setting")

// Config holds the process settings.
type Config struct {
	// ConfigPath is the check configuration document (.json, .yaml, .yml).
	ConfigPath string

	// Interval is the daemon period.
	Interval time.Duration

	// Pause separates records within a sweep.
	Pause time.Duration

	// CheckTimeout bounds one check. Zero means no bound.
	CheckTimeout time.Duration

	// Listen is the status server address. Empty disables the server.
	Listen string

	LogLevel string

	// LogFile enables rotated file logging in addition to stderr.
	LogFile string

	TracingExporter string
	MetricsExporter string
	SamplePct       float64

	// APIKeys and JWTSecret guard the status server's result endpoints.
	// Values may be secret references. Both empty leaves the server open.
	APIKeys   []string
	JWTSecret string

	// EnvFile is the .env file that was loaded, if any.
	EnvFile string
}

// Load reads settings from the environment after loading the first .env
// file found among envFiles (DefaultEnvFiles when none are given).
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = DefaultEnvFiles
	}

	cfg := &Config{}
	for _, path := range envFiles {
		if err := godotenv.Load(path); err == nil {
			cfg.EnvFile = path
			break
		}
	}

	cfg.ConfigPath = getEnvOrDefault(EnvConfig, "config.json")
	cfg.Listen = getEnvOrDefault(EnvListen, ":8080")
	cfg.LogLevel = getEnvOrDefault(EnvLogLevel, "info")
	cfg.LogFile = os.Getenv(EnvLogFile)
	cfg.TracingExporter = getEnvOrDefault(EnvTracingExporter, "none")
	cfg.MetricsExporter = getEnvOrDefault(EnvMetricsExporter, "prometheus")
	cfg.JWTSecret = os.Getenv(EnvJWTSecret)
	for _, k := range strings.Split(os.Getenv(EnvAPIKeys), ",") {
		if k = strings.TrimSpace(k); k != "" {
			cfg.APIKeys = append(cfg.APIKeys, k)
		}
	}

	var err error
	if cfg.Interval, err = durationEnv(EnvInterval, "1h"); err != nil {
		return nil, err
	}
	if cfg.Pause, err = durationEnv(EnvPause, "100ms"); err != nil {
		return nil, err
	}
	if cfg.CheckTimeout, err = durationEnv(EnvCheckTimeout, "0s"); err != nil {
		return nil, err
	}

	sample := getEnvOrDefault(EnvSamplePct, "1")
	if cfg.SamplePct, err = strconv.ParseFloat(sample, 64); err != nil {
		return nil, fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvSamplePct, sample, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	if c.ConfigPath == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalid, EnvConfig)
	}
	if c.Interval < time.Second {
		return fmt.Errorf("%w: %s must be at least 1s, got %s", ErrInvalid, EnvInterval, c.Interval)
	}
	if c.Pause < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalid, EnvPause)
	}
	if c.CheckTimeout < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalid, EnvCheckTimeout)
	}
	if !slices.Contains(observe.ValidLogLevels, c.LogLevel) {
		return fmt.Errorf("%w: %s=%q", ErrInvalid, EnvLogLevel, c.LogLevel)
	}
	if !slices.Contains(observe.ValidTracingExporters, c.TracingExporter) {
		return fmt.Errorf("%w: %s=%q", ErrInvalid, EnvTracingExporter, c.TracingExporter)
	}
	if !slices.Contains(observe.ValidMetricsExporters, c.MetricsExporter) {
		return fmt.Errorf("%w: %s=%q", ErrInvalid, EnvMetricsExporter, c.MetricsExporter)
	}
	if c.SamplePct < observe.MinSamplePct || c.SamplePct > observe.MaxSamplePct {
		return fmt.Errorf("%w: %s must be within [0, 1]", ErrInvalid, EnvSamplePct)
	}
	return nil
}

// Observe builds the telemetry configuration.
func (c *Config) Observe(version string) observe.Config {
	return observe.Config{
		ServiceName: ServiceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   c.TracingExporter != "none" && c.TracingExporter != "",
			Exporter:  c.TracingExporter,
			SamplePct: c.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.MetricsExporter != "none" && c.MetricsExporter != "",
			Exporter: c.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.LogLevel,
		},
	}
}

func durationEnv(key, def string) (time.Duration, error) {
	raw := getEnvOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrInvalid, key, raw, err)
	}
	return d, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
