package config

import "path/filepath"

const (
	defaultInputPath   = "declarations.yaml"
	defaultDebounce    = "500ms"
	defaultOutputDir   = "build"
	defaultMetricsAddr = ":9464"
	defaultMetricsPath = "/metrics"
	defaultHistory     = 100
	defaultNATSURL     = "nats://127.0.0.1:4222"
	defaultSubject     = "apidoc.pages"
	defaultNATSTimeout = "5s"
)

func applyDefaults(cfg *Config) {
	if cfg.Input.Path == "" {
		cfg.Input.Path = defaultInputPath
	}
	if cfg.Input.Debounce == "" {
		cfg.Input.Debounce = defaultDebounce
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = defaultOutputDir
	}

	// Unknown values are left as written for Validate to report.
	if v, err := logLevels.Parse(cfg.Logging.Level); err == nil {
		cfg.Logging.Level = string(v)
	}
	if v, err := logFormats.Parse(cfg.Logging.Format); err == nil {
		cfg.Logging.Format = string(v)
	}

	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = defaultMetricsAddr
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}

	if cfg.Journal.Path == "" {
		cfg.Journal.Path = filepath.Join(cfg.Output.Directory, "journal.db")
	}
	if cfg.Journal.History == 0 {
		cfg.Journal.History = defaultHistory
	}

	n := &cfg.Handoff.NATS
	if n.URL == "" {
		n.URL = defaultNATSURL
	}
	if n.Subject == "" {
		n.Subject = defaultSubject
	}
	if n.Timeout == "" {
		n.Timeout = defaultNATSTimeout
	}

	r := &cfg.Handoff.Retry
	if v, err := retryModes.Parse(r.Mode); err == nil {
		r.Mode = string(v)
	}
	if r.InitialDelay == "" {
		r.InitialDelay = "1s"
	}
	if r.MaxDelay == "" {
		r.MaxDelay = "30s"
	}
}
