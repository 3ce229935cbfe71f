// Package config loads apidoc.yaml: input and output locations, pipeline
// tuning, logging, metrics, the build journal and page handoff.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/retry"
)

// Version is the configuration format understood by this build.
const Version = "1"

// Config is the root of apidoc.yaml.
type Config struct {
	Version  string         `yaml:"version"`
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Journal  JournalConfig  `yaml:"journal"`
	Handoff  HandoffConfig  `yaml:"handoff"`
}

// InputConfig locates the declaration file produced by the front-end.
type InputConfig struct {
	Path string `yaml:"path"`
	// Debounce delays a watch rebuild until input stops changing.
	Debounce string `yaml:"debounce"`
}

// OutputConfig is where the page tree file is written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// PipelineConfig tunes stage execution.
type PipelineConfig struct {
	// Workers bounds concurrently processed top-level declarations; 0 means GOMAXPROCS.
	Workers     int   `yaml:"workers"`
	StopOnError *bool `yaml:"stop_on_error,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// JournalConfig controls the SQLite build journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	History int    `yaml:"history"`
}

// HandoffConfig controls delivery of the page tree.
type HandoffConfig struct {
	NATS  NATSConfig  `yaml:"nats"`
	Retry RetryConfig `yaml:"retry"`
}

// NATSConfig enables per-page publication on JetStream.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Stream  string `yaml:"stream"`
	Timeout string `yaml:"timeout"`
}

// RetryConfig is the backoff applied to retryable handoff and journal failures.
type RetryConfig struct {
	Mode         string `yaml:"mode"`
	InitialDelay string `yaml:"initial_delay"`
	MaxDelay     string `yaml:"max_delay"`
	MaxRetries   *int   `yaml:"max_retries,omitempty"`
}

// Load reads a configuration file. .env and .env.local next to it are loaded
// first and ${VAR} references in the file are expanded from the environment.
func Load(path string) (*Config, error) {
	loadEnvFiles(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", path).
				UserAction().
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read configuration file").
			WithContext("path", path).
			Build()
	}
	return Parse(data)
}

// Parse decodes, defaults and validates configuration content.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration").Build()
	}
	if cfg.Version != Version {
		return nil, errors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			WithContext("expected", Version).
			Build()
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: Version}
	applyDefaults(cfg)
	return cfg
}

// StopOnError reports whether the pipeline stops at the first failed stage.
func (c *Config) StopOnError() bool {
	return c.Pipeline.StopOnError == nil || *c.Pipeline.StopOnError
}

// DebounceDuration returns the watch debounce. Call after Validate.
func (c *Config) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(c.Input.Debounce)
	return d
}

// NATSTimeout returns the per-message publish timeout. Call after Validate.
func (c *Config) NATSTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Handoff.NATS.Timeout)
	return d
}

// RetryPolicy builds the retry policy. Call after Validate.
func (c *Config) RetryPolicy() retry.Policy {
	r := c.Handoff.Retry
	initial, _ := time.ParseDuration(r.InitialDelay)
	maxDelay, _ := time.ParseDuration(r.MaxDelay)
	maxRetries := retry.DefaultPolicy().MaxRetries
	if r.MaxRetries != nil {
		maxRetries = *r.MaxRetries
	}
	return retry.NewPolicy(retryModes.Normalize(r.Mode), initial, maxDelay, maxRetries)
}
