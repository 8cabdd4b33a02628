// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package dnsrecord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/H0llyW00dzZ/probekit/src/resolver"
	"github.com/miekg/dns"
	"go.uber.org/zap"
)

// CheckType is the registry key of the DNS record checker.
const CheckType = "dns_record"

// Checker builds dns_record probes. A Checker holds no per-probe state and
// is safe for concurrent use; the optional cache and connection pool are
// shared by every probe it builds.
type Checker struct {
	logger    *zap.Logger
	exchanger resolver.Exchanger
	cache     resolver.Cache
	pool      *resolver.ConnPool
}

// New creates a [Checker].
func New(opts ...Option) *Checker {
	c := &Checker{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Entry returns the registry entry for this checker.
func (c *Checker) Entry() check.Entry {
	return check.Entry{
		Type:     CheckType,
		Factory:  c.Factory,
		Required: requiredKeys,
		Optional: optionalKeys,
	}
}

// Factory returns an unvalidated probe for cfg.
func (c *Checker) Factory(cfg check.Config) (check.Check, error) {
	return &probe{checker: c, raw: cfg}, nil
}

type probe struct {
	checker   *Checker
	raw       check.Config
	cfg       config
	validated bool
}

func (p *probe) Validate() []check.Violation {
	cfg, violations := decodeConfig(p.raw)
	p.cfg = cfg
	p.validated = len(violations) == 0
	return violations
}

func (p *probe) Run(ctx context.Context) check.Result {
	if !p.validated {
		if v := p.Validate(); len(v) > 0 {
			return check.InvalidConfig(v)
		}
	}

	cfg := p.cfg
	start := time.Now()
	client := p.checker.client(cfg)

	raw := check.NewFields().
		Set("domain", cfg.fqdn).
		Set("record_type", cfg.recordType).
		Set("nameserver", client.Server())

	ans, err := client.Query(ctx, resolver.Question{Name: cfg.fqdn, Type: cfg.qtype, DNSSEC: cfg.dnssec})
	if err != nil {
		p.checker.logger.Debug("dns_record_query_failed",
			zap.String("domain", cfg.fqdn),
			zap.String("record_type", cfg.recordType),
			zap.Error(err),
		)
		msg := fmt.Sprintf("DNS query for %s %s failed: %v", cfg.fqdn, cfg.recordType, err)
		if errors.Is(err, resolver.ErrTimeout) {
			msg = fmt.Sprintf("DNS query for %s %s timed out", cfg.fqdn, cfg.recordType)
		}
		return check.FromError(msg, check.NetworkError(err), time.Since(start), raw)
	}

	raw.Set("response_code", ans.RcodeName())
	if err := ans.Err(cfg.qtype); err != nil {
		raw.Set("records", []string{})
		msg := fmt.Sprintf("no %s records found for %s", cfg.recordType, cfg.fqdn)
		switch {
		case errors.Is(err, resolver.ErrNXDomain):
			msg = fmt.Sprintf("domain does not exist: %s", cfg.fqdn)
		case errors.Is(err, resolver.ErrUnexpectedRcode):
			msg = fmt.Sprintf("DNS query for %s %s failed with %s", cfg.fqdn, cfg.recordType, ans.RcodeName())
		}
		return check.FromError(msg, check.NetworkError(err), time.Since(start), raw)
	}

	records, ttl := ans.Records(cfg.qtype)
	raw.Set("records", records).Set("ttl", ttl)

	v := verdict{status: check.StatusSuccess}

	if len(cfg.expected) > 0 {
		matched := matchesAny(records, cfg.expected, cfg.qtype)
		raw.Set("expected_value", cfg.expected).Set("expected_match", matched)
		if !matched {
			v.add(check.StatusError, fmt.Sprintf("expected value mismatch for %s %s: expected %s, got %s",
				cfg.fqdn, cfg.recordType, formatList(cfg.expected), formatList(records)))
		}
	}

	if cfg.propagation {
		sub, passed, pct := p.propagation(ctx, client, records)
		raw.Set("propagation", sub)
		if !passed {
			v.add(cfg.failureStatus, fmt.Sprintf("propagation %.1f%% is below the %.1f%% threshold", pct, cfg.threshold))
		}
	}

	if cfg.authoritative {
		sub, problem := p.authoritative(ctx, client, ans, records)
		raw.Set("authoritative", sub)
		if problem != "" {
			v.add(check.StatusWarning, problem)
		}
	}

	if cfg.dnssec {
		signed := ans.Signatures() > 0
		validated := ans.AuthenticatedData()
		raw.Set("dnssec", check.NewFields().
			Set("signed", signed).
			Set("validated", validated).
			Set("rrsig_count", ans.Signatures()))
		switch {
		case !signed && !validated:
			v.add(check.StatusWarning, "DNSSEC is not enabled for "+cfg.fqdn)
		case !validated:
			v.add(check.StatusWarning, "DNSSEC signatures present but not validated by the resolver")
		}
	}

	rt := time.Since(start)
	if len(v.problems) == 0 {
		return check.Success(fmt.Sprintf("found %d %s record(s) for %s", len(records), cfg.recordType, cfg.fqdn), rt, raw)
	}
	res, err := check.NewResult(v.status, strings.Join(v.problems, "; "), rt, raw)
	if err != nil {
		return check.FromError("", err, rt, raw)
	}
	return res
}

// client builds the resolver client for one probe.
func (c *Checker) client(cfg config) *resolver.Client {
	opts := []resolver.Option{
		resolver.WithTimeout(cfg.timeout),
		resolver.WithMaxRetries(cfg.maxRetries),
		resolver.WithTransport(cfg.transport),
		resolver.WithLogger(c.logger),
	}
	if cfg.nameserver != "" {
		opts = append(opts, resolver.WithServer(cfg.nameserver))
	}
	if c.exchanger != nil {
		opts = append(opts, resolver.WithExchanger(c.exchanger))
	}
	if c.cache != nil {
		opts = append(opts, resolver.WithCache(c.cache))
	}
	if c.pool != nil {
		opts = append(opts, resolver.WithConnPool(c.pool))
	}
	return resolver.New(opts...)
}

// verdict accumulates problems and keeps the worst status seen.
type verdict struct {
	status   check.Status
	problems []string
}

func (v *verdict) add(s check.Status, problem string) {
	if s.Worse(v.status) {
		v.status = s
	}
	v.problems = append(v.problems, problem)
}

// matchesAny reports whether any record equals any expected value.
// For MX records the host alone also matches.
func matchesAny(records, expected []string, qtype uint16) bool {
	for _, r := range records {
		for _, e := range expected {
			if resolver.EqualValues(r, e) {
				return true
			}
			if qtype == dns.TypeMX {
				if _, host, ok := strings.Cut(r, " "); ok && resolver.EqualValues(host, e) {
					return true
				}
			}
		}
	}
	return false
}

func formatList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	return "[" + strings.Join(values, ", ") + "]"
}
