// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/idna"
)

// Normalize trims, lowercases and converts name to its ASCII (punycode)
// form without a trailing dot. It fails with [ErrInvalidDomain] if the
// result is not a valid domain.
//
//	resolver.Normalize(" Bücher.Example. ") // "xn--bcher-kva.example"
func Normalize(name string) (string, error) {
	name = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidDomain)
	}

	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		// Underscore labels (_dmarc, _sip._tcp) are legal DNS but not
		// IDNA; keep them as typed when the name is plain ASCII.
		if !isASCII(name) {
			return "", fmt.Errorf("%w: %s: %v", ErrInvalidDomain, name, err)
		}
		ascii = name
	}

	if !IsValidDomain(ascii) {
		return "", fmt.Errorf("%w: %s", ErrInvalidDomain, name)
	}
	return ascii, nil
}

// NormalizeHost is [Normalize] for names that reach a server directly.
// Next to domains it accepts IP literals, bracketed or not, and single
// labels such as "localhost" or an intranet "mailhost".
//
//	resolver.NormalizeHost("[::1]")     // "::1"
//	resolver.NormalizeHost("MailHost.") // "mailhost"
func NormalizeHost(host string) (string, error) {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		return ip.String(), nil
	}
	if norm, err := Normalize(host); err == nil {
		return norm, nil
	}
	if isSingleLabel(host) {
		return host, nil
	}
	return "", fmt.Errorf("%w: invalid hostname %q", ErrInvalidDomain, host)
}

func isSingleLabel(host string) bool {
	if host == "" || len(host) > 63 || host[0] == '-' || host[len(host)-1] == '-' {
		return false
	}
	for _, r := range host {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}

// IsValidDomain reports whether domain is a syntactically valid ASCII
// domain name.
//
// A valid domain has at least two labels of 1-63 characters, made of
// ASCII letters, digits, hyphens and underscores, that neither start nor
// end with a hyphen. The TLD (last label) is letters only, or an IDNA
// "xn--" label. The whole name is at most 253 characters.
func IsValidDomain(domain string) bool {
	domain = strings.TrimSuffix(domain, ".")
	if domain == "" || len(domain) > 253 {
		return false
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}

	for i, label := range labels {
		if len(label) < 1 || len(label) > 63 {
			return false
		}

		// Labels must not start or end with a hyphen.
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}

		if i == len(labels)-1 {
			if !isValidTLD(label) {
				return false
			}
			continue
		}

		for _, c := range label {
			switch {
			case c >= 'a' && c <= 'z':
			case c >= 'A' && c <= 'Z':
			case c >= '0' && c <= '9':
			case c == '-', c == '_':
			default:
				return false
			}
		}
	}

	return true
}

func isValidTLD(label string) bool {
	if len(label) < 2 {
		return false
	}
	if strings.HasPrefix(strings.ToLower(label), "xn--") {
		if len(label) == 4 {
			return false
		}
		for _, c := range label[4:] {
			switch {
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			default:
				return false
			}
		}
		return true
	}
	for _, c := range label {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
