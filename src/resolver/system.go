// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"net"
	"strings"

	"github.com/miekg/dns"
)

// defaultResolvers is the public resolver set used for propagation checks
// and resolver health reports: Google, Cloudflare, Quad9, OpenDNS and
// Verisign, two addresses each.
var defaultResolvers = []string{
	"8.8.8.8",
	"8.8.4.4",
	"1.1.1.1",
	"1.0.0.1",
	"9.9.9.9",
	"149.112.112.112",
	"208.67.222.222",
	"208.67.220.220",
	"64.6.64.6",
	"64.6.65.6",
}

// resolvConfPath is a variable so tests can point it elsewhere.
var resolvConfPath = "/etc/resolv.conf"

// DefaultResolvers returns a copy of the public resolver set.
func DefaultResolvers() []string {
	out := make([]string, len(defaultResolvers))
	copy(out, defaultResolvers)
	return out
}

// SystemNameserver returns the first nameserver from resolv.conf, with
// its port. When none can be read it returns the first public resolver.
func SystemNameserver() string {
	cfg, err := dns.ClientConfigFromFile(resolvConfPath)
	if err != nil || len(cfg.Servers) == 0 {
		return WithPort(defaultResolvers[0], "53")
	}
	port := cfg.Port
	if port == "" {
		port = "53"
	}
	return WithPort(cfg.Servers[0], port)
}

// WithPort returns addr with port appended unless it already has one.
// IPv6 literals are bracketed as needed.
func WithPort(addr, port string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(strings.Trim(addr, "[]"), port)
}
