// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package resolver is the DNS plumbing shared by the DNS and mail
// checkers: queries over UDP, TCP or DNS over TLS, retries with
// exponential backoff, an optional answer cache, TCP connection reuse,
// record formatting, MX lookup and resolver health reports.
//
// # Queries
//
//	c := resolver.New(resolver.WithServer("9.9.9.9"))
//	ans, err := c.Query(ctx, resolver.Question{
//	    Name: "example.com",
//	    Type: dns.TypeMX,
//	})
//	if err != nil {
//	    // network failure, after retries
//	}
//	if err := ans.Err(dns.TypeMX); err != nil {
//	    // NXDOMAIN, SERVFAIL or no MX records
//	}
//	for _, mx := range ans.MX() {
//	    fmt.Println(mx.Pref, mx.Host)
//	}
//
// Names are normalized with [Normalize]: internationalized names are
// converted to punycode before they go on the wire.
//
// # Resolver health
//
// [Client.Status] resolves a probe name on each server concurrently and
// reports whether it answered and how fast:
//
//	statuses, err := c.Status(ctx) // the public resolver set
//	for _, s := range statuses {
//	    fmt.Printf("%-20s online=%t latency=%s\n", s.Server, s.Online, s.Latency)
//	}
//
// # Caching
//
// Pass [NewMemoryCache] (or any [Cache]) with [WithCache] to reuse
// NOERROR and NXDOMAIN answers for a fixed TTL.
package resolver
