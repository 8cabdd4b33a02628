// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package sslcert

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/H0llyW00dzZ/probekit/src/resolver"
)

// Configuration keys.
const (
	keyHostname       = "hostname"
	keyPort           = "port"
	keyTimeout        = "timeout"
	keyWarningDays    = "warning_days"
	keyCriticalDays   = "critical_days"
	keyCheckChain     = "check_chain"
	keyVerifyHostname = "verify_hostname"
	keyCheckOCSP      = "check_ocsp"
)

var (
	requiredKeys = []string{keyHostname}
	optionalKeys = []string{
		keyPort, keyTimeout, keyWarningDays, keyCriticalDays,
		keyCheckChain, keyVerifyHostname, keyCheckOCSP,
	}
)

const (
	defaultPort         = 443
	defaultTimeout      = 10 * time.Second
	defaultWarningDays  = 30
	defaultCriticalDays = 14
)

type config struct {
	hostname       string
	port           int
	timeout        time.Duration
	warningDays    int
	criticalDays   int
	checkChain     bool
	verifyHostname bool
	checkOCSP      bool
}

func (c config) address() string {
	return net.JoinHostPort(c.hostname, strconv.Itoa(c.port))
}

type settings struct {
	Hostname       string        `mapstructure:"hostname"`
	Port           int           `mapstructure:"port"`
	Timeout        time.Duration `mapstructure:"timeout"`
	WarningDays    int           `mapstructure:"warning_days"`
	CriticalDays   int           `mapstructure:"critical_days"`
	CheckChain     bool          `mapstructure:"check_chain"`
	VerifyHostname bool          `mapstructure:"verify_hostname"`
	CheckOCSP      bool          `mapstructure:"check_ocsp"`
}

func decodeConfig(raw check.Config) (config, []check.Violation) {
	s := settings{
		Port:           defaultPort,
		Timeout:        defaultTimeout,
		WarningDays:    defaultWarningDays,
		CriticalDays:   defaultCriticalDays,
		VerifyHostname: true,
	}
	d := check.NewDecoder(raw)
	d.Decode(&s)
	d.Require(requiredKeys...)

	cfg := config{
		port:           s.Port,
		timeout:        s.Timeout,
		warningDays:    s.WarningDays,
		criticalDays:   s.CriticalDays,
		checkChain:     s.CheckChain,
		verifyHostname: s.VerifyHostname,
		checkOCSP:      s.CheckOCSP,
	}

	if host := strings.TrimSpace(s.Hostname); host != "" {
		norm, err := resolver.NormalizeHost(host)
		if err != nil {
			d.Invalid(keyHostname, "invalid hostname %q", host)
		}
		cfg.hostname = norm
	}

	if cfg.port < 1 || cfg.port > 65535 {
		d.Invalid(keyPort, "must be between 1 and 65535, got %d", cfg.port)
	}
	if cfg.timeout <= 0 {
		d.Invalid(keyTimeout, "must be positive")
	}
	if cfg.warningDays < 0 {
		d.Invalid(keyWarningDays, "must not be negative, got %d", cfg.warningDays)
	}
	if cfg.criticalDays < 0 {
		d.Invalid(keyCriticalDays, "must not be negative, got %d", cfg.criticalDays)
	}
	if cfg.criticalDays > cfg.warningDays {
		d.Invalid(keyCriticalDays, "must not exceed warning_days (%d > %d)", cfg.criticalDays, cfg.warningDays)
	}

	return cfg, d.Violations()
}
