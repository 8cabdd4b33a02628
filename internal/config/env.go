// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package config

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/multierr"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PROBEKIT_"

// LookupFunc matches [os.LookupEnv].
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides c with the PROBEKIT_* variables found by lookup:
//
//	PROBEKIT_WORKERS          PROBEKIT_DNS_SERVER
//	PROBEKIT_BATCH_SIZE       PROBEKIT_DNS_TRANSPORT
//	PROBEKIT_BATCH_TIMEOUT    PROBEKIT_DNS_TIMEOUT
//	PROBEKIT_LOG_DIR          PROBEKIT_DNS_CACHE_TTL
//	PROBEKIT_LOG_LEVEL        PROBEKIT_DNS_POOL_SIZE
//	PROBEKIT_OUTPUT           PROBEKIT_NO_COLOR
//
// Durations accept Go syntax ("30s") or plain seconds. Every unparsable
// value is reported; the remaining ones are still applied.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	e := envReader{lookup: lookup}

	e.setInt("WORKERS", &c.Workers)
	e.setInt("BATCH_SIZE", &c.BatchSize)
	e.setDuration("BATCH_TIMEOUT", &c.BatchTimeout)
	e.setString("LOG_DIR", &c.Log.Dir)
	e.setString("LOG_LEVEL", &c.Log.Level)
	e.setString("DNS_SERVER", &c.DNS.Server)
	e.setString("DNS_TRANSPORT", &c.DNS.Transport)
	e.setDuration("DNS_TIMEOUT", &c.DNS.Timeout)
	e.setDuration("DNS_CACHE_TTL", &c.DNS.CacheTTL)
	e.setInt("DNS_POOL_SIZE", &c.DNS.PoolSize)
	e.setString("OUTPUT", &c.Output.Format)

	var noColor bool
	if e.setBool("NO_COLOR", &noColor) && noColor {
		c.Output.Color = false
	}
	return e.err
}

type envReader struct {
	lookup LookupFunc
	err    error
}

func (e *envReader) get(name string) (string, bool) {
	v, ok := e.lookup(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (e *envReader) setString(name string, dst *string) {
	if v, ok := e.get(name); ok {
		*dst = v
	}
}

func (e *envReader) setInt(name string, dst *int) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.err = multierr.Append(e.err, fmt.Errorf("%s%s: %q is not an integer", EnvPrefix, name, v))
		return
	}
	*dst = n
}

func (e *envReader) setDuration(name string, dst *time.Duration) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = time.Duration(secs * float64(time.Second))
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.err = multierr.Append(e.err, fmt.Errorf("%s%s: %q is not a duration", EnvPrefix, name, v))
		return
	}
	*dst = d
}

func (e *envReader) setBool(name string, dst *bool) bool {
	v, ok := e.get(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.err = multierr.Append(e.err, fmt.Errorf("%s%s: %q is not a boolean", EnvPrefix, name, v))
		return false
	}
	*dst = b
	return true
}
