package config

import (
	"strings"
	"time"

	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/retry"
)

var retryModes = newEnum("retry mode", retry.ModeLinear, retry.ModeFixed, retry.ModeExponential)

// Validate checks a defaulted configuration.
func (c *Config) Validate() error {
	if c.Pipeline.Workers < 0 {
		return invalid("pipeline.workers", "must not be negative")
	}
	if _, err := logLevels.Parse(c.Logging.Level); err != nil {
		return err
	}
	if _, err := logFormats.Parse(c.Logging.Format); err != nil {
		return err
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path", "must start with /")
	}
	if c.Journal.History < 0 {
		return invalid("journal.history", "must not be negative")
	}
	if c.Handoff.NATS.Enabled && strings.TrimSpace(c.Handoff.NATS.Subject) == "" {
		return invalid("handoff.nats.subject", "required when NATS handoff is enabled")
	}
	if _, err := retryModes.Parse(c.Handoff.Retry.Mode); err != nil {
		return err
	}
	for field, value := range map[string]string{
		"input.debounce":              c.Input.Debounce,
		"handoff.nats.timeout":        c.Handoff.NATS.Timeout,
		"handoff.retry.initial_delay": c.Handoff.Retry.InitialDelay,
		"handoff.retry.max_delay":     c.Handoff.Retry.MaxDelay,
	} {
		if d, err := time.ParseDuration(value); err != nil || d < 0 {
			return invalid(field, "must be a non-negative duration").WithContext("value", value)
		}
	}
	if n := c.Handoff.Retry.MaxRetries; n != nil && *n < 0 {
		return invalid("handoff.retry.max_retries", "must not be negative")
	}
	return nil
}

func invalid(field, message string) *errors.ClassifiedError {
	return errors.ValidationError(field + " " + message).
		WithContext("field", field).
		Build()
}
