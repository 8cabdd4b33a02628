// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package dnsrecord

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/H0llyW00dzZ/probekit/src/resolver"
	"github.com/miekg/dns"
)

// authoritative finds the zone's nameservers, asks the first reachable one
// directly with recursion disabled and reports whether it set the AA flag.
// It returns the sub-object and a problem description, empty when the
// answer was authoritative.
func (p *probe) authoritative(ctx context.Context, client *resolver.Client, primary *resolver.Answer, records []string) (*check.Fields, string) {
	cfg := p.cfg
	sub := check.NewFields().Set("primary_authoritative", primary.Authoritative())

	zone, nameservers, err := findZone(ctx, client, cfg.fqdn)
	if err != nil {
		sub.Set("authoritative", false).Set("error", err.Error())
		return sub, fmt.Sprintf("could not verify authoritative answer for %s: %v", cfg.fqdn, err)
	}
	sub.Set("zone", zone).Set("nameservers", nameservers)

	var lastErr error
	for _, ns := range nameservers {
		addrs, err := client.LookupAddrs(ctx, ns, "")
		if err != nil {
			lastErr = fmt.Errorf("resolve %s: %w", ns, err)
			continue
		}

		addr := resolver.WithPort(addrs[0], "53")
		ans, err := client.Query(ctx, resolver.Question{
			Name:        cfg.fqdn,
			Type:        cfg.qtype,
			Server:      addr,
			NoRecursion: true,
		})
		if err != nil {
			lastErr = fmt.Errorf("query %s: %w", ns, err)
			continue
		}

		authRecords, _ := ans.Records(cfg.qtype)
		sub.Set("nameserver", ns).
			Set("nameserver_address", ans.Server).
			Set("authoritative", ans.Authoritative()).
			Set("records", authRecords).
			Set("matches_primary", resolver.EqualSets(authRecords, records))

		if !ans.Authoritative() {
			return sub, fmt.Sprintf("answer from %s is not authoritative", ns)
		}
		return sub, ""
	}

	sub.Set("authoritative", false)
	if lastErr != nil {
		sub.Set("error", lastErr.Error())
	}
	return sub, fmt.Sprintf("no authoritative nameserver of %s answered", zone)
}

// findZone walks from name towards the root until a name with NS records
// is found. A SOA in the authority section short-cuts the walk.
func findZone(ctx context.Context, client *resolver.Client, name string) (string, []string, error) {
	candidate := name
	for resolver.IsValidDomain(candidate) {
		ans, err := client.Query(ctx, resolver.Question{Name: candidate, Type: dns.TypeNS})
		if err != nil {
			return "", nil, err
		}

		var nameservers []string
		for _, rr := range ans.Msg.Answer {
			if ns, ok := rr.(*dns.NS); ok && strings.EqualFold(ns.Hdr.Name, dns.Fqdn(candidate)) {
				nameservers = append(nameservers, strings.ToLower(strings.TrimSuffix(ns.Ns, ".")))
			}
		}
		if len(nameservers) > 0 {
			sort.Strings(nameservers)
			return candidate, nameservers, nil
		}

		if zone, ok := ans.ZoneFromAuthority(); ok && !strings.EqualFold(zone, candidate) {
			candidate = strings.ToLower(zone)
			continue
		}

		_, parent, ok := strings.Cut(candidate, ".")
		if !ok {
			break
		}
		candidate = parent
	}
	return "", nil, fmt.Errorf("%w: no NS records found for %s", resolver.ErrNoAnswer, name)
}
