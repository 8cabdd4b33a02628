// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a configuration that failed validation.
var ErrInvalid = errors.New("config error")

// Load reads the YAML file at path over [Default], applies the environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, formatYAMLError(path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("%w: batch_size must not be negative, got %d", ErrInvalid, c.BatchSize)
	}
	if c.BatchTimeout < 0 {
		return fmt.Errorf("%w: batch_timeout must not be negative, got %s", ErrInvalid, c.BatchTimeout)
	}

	switch c.DNS.Transport {
	case "udp", "tcp", "tcp-tls":
	default:
		return fmt.Errorf("%w: invalid dns transport %q, must be one of: udp, tcp, tcp-tls", ErrInvalid, c.DNS.Transport)
	}
	if c.DNS.Timeout <= 0 {
		return fmt.Errorf("%w: dns timeout must be positive, got %s", ErrInvalid, c.DNS.Timeout)
	}
	if c.DNS.MaxRetries < 0 || c.DNS.CacheTTL < 0 || c.DNS.PoolSize < 0 {
		return fmt.Errorf("%w: dns max_retries, cache_ttl and pool_size must not be negative", ErrInvalid)
	}

	switch c.Output.Format {
	case "table", "json":
	default:
		return fmt.Errorf("%w: invalid output format %q, must be one of: table, json", ErrInvalid, c.Output.Format)
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: invalid log level %q", ErrInvalid, c.Log.Level)
	}
	return nil
}

func formatYAMLError(path string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "line") {
		return fmt.Errorf("syntax error in %s: %s", path, msg)
	}
	return fmt.Errorf("failed to parse %s: %s", path, msg)
}
