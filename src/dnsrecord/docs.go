// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package dnsrecord implements the dns_record check: resolve a record,
// compare it with expected values and optionally measure propagation
// across public resolvers, verify an authoritative answer and inspect
// DNSSEC.
//
// Configuration keys:
//
//	domain                      required
//	record_type                 required, e.g. A, AAAA, MX, TXT
//	expected_value              string or list; any element may match
//	subdomain                   prepended to domain
//	nameserver                  default: first nameserver in resolv.conf
//	timeout                     per query, default 10s
//	check_propagation           default false
//	resolvers                   default: 10 public resolvers
//	propagation_threshold       percent, default 80; inclusive
//	propagation_failure_status  error (default) or warning
//	check_authoritative         default false
//	check_dnssec                default false
//	max_workers                 propagation concurrency, default 10
//	transport                   udp (default), tcp or tcp-tls
//	max_retries                 per query, default 2
//
// NXDOMAIN, an empty answer, a timeout and an expected-value mismatch are
// errors. A non-authoritative answer or a missing DNSSEC validation is a
// warning.
package dnsrecord
