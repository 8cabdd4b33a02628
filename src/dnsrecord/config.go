// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package dnsrecord

import (
	"strings"
	"time"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/H0llyW00dzZ/probekit/src/resolver"
)

// Configuration keys.
const (
	keyDomain             = "domain"
	keyRecordType         = "record_type"
	keyExpectedValue      = "expected_value"
	keySubdomain          = "subdomain"
	keyNameserver         = "nameserver"
	keyTimeout            = "timeout"
	keyCheckPropagation   = "check_propagation"
	keyResolvers          = "resolvers"
	keyThreshold          = "propagation_threshold"
	keyCheckAuthoritative = "check_authoritative"
	keyCheckDNSSEC        = "check_dnssec"
	keyMaxWorkers         = "max_workers"
	keyFailureStatus      = "propagation_failure_status"
	keyTransport          = "transport"
	keyMaxRetries         = "max_retries"
)

var (
	requiredKeys = []string{keyDomain, keyRecordType}
	optionalKeys = []string{
		keyExpectedValue, keySubdomain, keyNameserver, keyTimeout,
		keyCheckPropagation, keyResolvers, keyThreshold,
		keyCheckAuthoritative, keyCheckDNSSEC, keyMaxWorkers,
		keyFailureStatus, keyTransport, keyMaxRetries,
	}
)

const (
	defaultTimeout    = 10 * time.Second
	defaultThreshold  = 80.0
	defaultMaxWorkers = 10
	defaultMaxRetries = 2
)

// config is the validated configuration of one dns_record probe.
type config struct {
	domain        string
	fqdn          string
	recordType    string
	qtype         uint16
	expected      []string
	nameserver    string
	timeout       time.Duration
	propagation   bool
	resolvers     []string
	threshold     float64
	authoritative bool
	dnssec        bool
	maxWorkers    int
	failureStatus check.Status
	transport     string
	maxRetries    int
}

type settings struct {
	Domain             string        `mapstructure:"domain"`
	RecordType         string        `mapstructure:"record_type"`
	ExpectedValue      []string      `mapstructure:"expected_value"`
	Subdomain          string        `mapstructure:"subdomain"`
	Nameserver         string        `mapstructure:"nameserver"`
	Timeout            time.Duration `mapstructure:"timeout"`
	CheckPropagation   bool          `mapstructure:"check_propagation"`
	Resolvers          []string      `mapstructure:"resolvers"`
	Threshold          float64       `mapstructure:"propagation_threshold"`
	CheckAuthoritative bool          `mapstructure:"check_authoritative"`
	CheckDNSSEC        bool          `mapstructure:"check_dnssec"`
	MaxWorkers         int           `mapstructure:"max_workers"`
	FailureStatus      string        `mapstructure:"propagation_failure_status"`
	Transport          string        `mapstructure:"transport"`
	MaxRetries         int           `mapstructure:"max_retries"`
}

func decodeConfig(raw check.Config) (config, []check.Violation) {
	s := settings{
		Timeout:       defaultTimeout,
		Threshold:     defaultThreshold,
		MaxWorkers:    defaultMaxWorkers,
		FailureStatus: string(check.StatusError),
		Transport:     resolver.TransportUDP,
		MaxRetries:    defaultMaxRetries,
	}
	d := check.NewDecoder(raw)
	d.Decode(&s)
	d.Require(requiredKeys...)

	cfg := config{
		nameserver:    strings.TrimSpace(s.Nameserver),
		timeout:       s.Timeout,
		propagation:   s.CheckPropagation,
		threshold:     s.Threshold,
		authoritative: s.CheckAuthoritative,
		dnssec:        s.CheckDNSSEC,
		maxWorkers:    s.MaxWorkers,
		maxRetries:    s.MaxRetries,
	}

	if domain := strings.TrimSpace(s.Domain); domain != "" {
		norm, err := resolver.Normalize(domain)
		if err != nil {
			d.Invalid(keyDomain, "invalid domain %q", domain)
		}
		cfg.domain = norm
	}

	cfg.recordType = strings.ToUpper(strings.TrimSpace(s.RecordType))
	if cfg.recordType != "" {
		qtype, err := resolver.ParseType(cfg.recordType)
		if err != nil {
			d.Invalid(keyRecordType, "unknown record type %q", cfg.recordType)
		}
		cfg.qtype = qtype
	}

	for _, v := range s.ExpectedValue {
		if v = strings.TrimSpace(v); v != "" {
			cfg.expected = append(cfg.expected, v)
		}
	}

	cfg.fqdn = cfg.domain
	if sub := strings.Trim(strings.TrimSpace(s.Subdomain), "."); sub != "" && cfg.domain != "" {
		fqdn, err := resolver.Normalize(sub + "." + cfg.domain)
		if err != nil {
			d.Invalid(keySubdomain, "invalid subdomain %q", sub)
		}
		cfg.fqdn = fqdn
	}

	if cfg.timeout <= 0 {
		d.Invalid(keyTimeout, "must be positive")
	}

	cfg.resolvers = s.Resolvers
	if d.Present(keyResolvers) && len(cfg.resolvers) == 0 {
		d.Invalid(keyResolvers, "must list at least one resolver")
	}
	if len(cfg.resolvers) == 0 {
		cfg.resolvers = resolver.DefaultResolvers()
	}

	if cfg.threshold < 0 || cfg.threshold > 100 {
		d.Invalid(keyThreshold, "must be between 0 and 100, got %v", cfg.threshold)
	}
	if cfg.maxWorkers < 1 {
		d.Invalid(keyMaxWorkers, "must be at least 1, got %d", cfg.maxWorkers)
	}

	cfg.failureStatus = check.Status(d.OneOf(keyFailureStatus, s.FailureStatus,
		string(check.StatusError), string(check.StatusWarning)))
	cfg.transport = d.OneOf(keyTransport, s.Transport,
		resolver.TransportUDP, resolver.TransportTCP, resolver.TransportTLS)

	if cfg.maxRetries < 0 {
		d.Invalid(keyMaxRetries, "must not be negative, got %d", cfg.maxRetries)
	}

	return cfg, d.Violations()
}
