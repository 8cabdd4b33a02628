// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package dnsrecord

import (
	"context"
	"fmt"
	"time"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/H0llyW00dzZ/probekit/src/resolver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// resolverResult is what one resolver of the propagation set returned.
type resolverResult struct {
	server  string
	records []string
	matches bool
	elapsed time.Duration
	err     error
}

// propagation queries every resolver of the set with at most maxWorkers
// queries in flight. A resolver is consistent when its answer matches the
// expected values, or the primary answer when none are configured. Failed
// queries count as inconsistent.
func (p *probe) propagation(ctx context.Context, client *resolver.Client, primary []string) (*check.Fields, bool, float64) {
	cfg := p.cfg
	results := make([]resolverResult, len(cfg.resolvers))

	var g errgroup.Group
	g.SetLimit(cfg.maxWorkers)

	for i, server := range cfg.resolvers {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					results[i] = resolverResult{server: server, err: fmt.Errorf("%w: %v", check.ErrInternalPanic, r)}
				}
			}()
			results[i] = p.queryResolver(ctx, client, server, primary)
			return nil
		})
	}
	_ = g.Wait()

	consistent := 0
	list := make([]any, len(results))
	for i, r := range results {
		if r.matches {
			consistent++
		}
		entry := check.NewFields().
			Set("resolver", r.server).
			Set("records", r.records).
			Set("matches", r.matches).
			Set("response_time", r.elapsed.Seconds())
		if r.err != nil {
			entry.Set("error", r.err.Error())
		}
		list[i] = entry
	}

	total := len(results)
	pct := 0.0
	if total > 0 {
		// Multiply before dividing so 8 of 10 is exactly 80.
		pct = float64(consistent*100) / float64(total)
	}
	passed := total > 0 && pct >= cfg.threshold

	p.checker.logger.Debug("dns_propagation_completed",
		zap.String("domain", cfg.fqdn),
		zap.Int("consistent", consistent),
		zap.Int("total", total),
		zap.Float64("percentage", pct),
	)

	sub := check.NewFields().
		Set("resolvers_queried", total).
		Set("consistent_count", consistent).
		Set("consistency_percentage", pct).
		Set("threshold", cfg.threshold).
		Set("passed", passed).
		Set("results", list)
	return sub, passed, pct
}

func (p *probe) queryResolver(ctx context.Context, client *resolver.Client, server string, primary []string) resolverResult {
	cfg := p.cfg
	start := time.Now()
	res := resolverResult{server: server, records: []string{}}

	ans, err := client.Query(ctx, resolver.Question{Name: cfg.fqdn, Type: cfg.qtype, Server: server})
	res.elapsed = time.Since(start)
	if err != nil {
		res.err = err
		return res
	}
	res.server = ans.Server
	if err := ans.Err(cfg.qtype); err != nil {
		res.err = err
		return res
	}

	res.records, _ = ans.Records(cfg.qtype)
	if len(cfg.expected) > 0 {
		res.matches = matchesAny(res.records, cfg.expected, cfg.qtype)
	} else {
		res.matches = resolver.EqualSets(res.records, primary)
	}
	return res
}
