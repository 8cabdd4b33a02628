// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package config loads the probekit command configuration and batch
// request files.
package config

import "time"

// Config is the application configuration, read from YAML and then
// overridden by PROBEKIT_* environment variables.
type Config struct {
	Workers      int           `yaml:"workers"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	Log          LogConfig     `yaml:"log"`
	DNS          DNSConfig     `yaml:"dns"`
	Output       OutputConfig  `yaml:"output"`
}

// LogConfig controls the command logger.
type LogConfig struct {
	Dir   string `yaml:"dir"`   // rolling JSON file when set, stderr otherwise
	Level string `yaml:"level"` // debug, info, warn, error
}

// DNSConfig tunes the resolver shared by the DNS-based checkers.
type DNSConfig struct {
	Server     string        `yaml:"server"` // empty means the system nameserver
	Transport  string        `yaml:"transport"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	CacheTTL   time.Duration `yaml:"cache_ttl"` // 0 disables the answer cache
	PoolSize   int           `yaml:"pool_size"` // 0 disables TCP connection reuse
}

// OutputConfig selects the default report format.
type OutputConfig struct {
	Format string `yaml:"format"` // "table" or "json"
	Color  bool   `yaml:"color"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Workers:   10,
		BatchSize: 0,
		Log: LogConfig{
			Level: "warn",
		},
		DNS: DNSConfig{
			Transport:  "udp",
			Timeout:    5 * time.Second,
			MaxRetries: 2,
			CacheTTL:   30 * time.Second,
		},
		Output: OutputConfig{
			Format: "table",
			Color:  true,
		},
	}
}
