package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateYtDlp(); err != nil {
		return err
	}
	if err := c.validateAcquire(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateYtDlp() error {
	if err := ensurePositiveMap(map[string]int{
		"ytdlp.socket_timeout":   c.YtDlp.SocketTimeout,
		"ytdlp.tool_retries":     c.YtDlp.ToolRetries,
		"ytdlp.fragment_retries": c.YtDlp.FragmentRetries,
	}); err != nil {
		return err
	}
	if c.YtDlp.SleepRequests < 0 || c.YtDlp.MinSleepInterval < 0 || c.YtDlp.MaxSleepInterval < 0 {
		return errors.New("ytdlp sleep settings must not be negative")
	}
	if c.YtDlp.MaxSleepInterval < c.YtDlp.MinSleepInterval {
		return errors.New("ytdlp.max_sleep_interval must be at least ytdlp.min_sleep_interval")
	}
	return nil
}

func (c *Config) validateAcquire() error {
	return ensurePositiveMap(map[string]int{
		"acquire.max_attempts":      c.Acquire.MaxAttempts,
		"acquire.attempt_timeout":   c.Acquire.AttemptTimeout,
		"acquire.fallback_cooldown": c.Acquire.FallbackCooldown,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
