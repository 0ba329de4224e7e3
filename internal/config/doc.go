// Package config loads, normalizes, and validates the TOML configuration
// for ytcc. Defaults apply when no config file exists; path fields are
// tilde-expanded and made absolute during load.
package config
