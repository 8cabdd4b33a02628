// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Answer is the reply to a [Question].
type Answer struct {
	Msg    *dns.Msg
	Server string
	RTT    time.Duration
}

// MX is a mail exchanger for a domain.
type MX struct {
	Host string `json:"host"`
	Pref uint16 `json:"priority"`
}

// Rcode returns the response code.
func (a *Answer) Rcode() int { return a.Msg.Rcode }

// RcodeName returns the response code mnemonic, e.g. "NXDOMAIN".
func (a *Answer) RcodeName() string { return dns.RcodeToString[a.Msg.Rcode] }

// Authoritative reports whether the AA flag is set.
func (a *Answer) Authoritative() bool { return a.Msg.Authoritative }

// AuthenticatedData reports whether the AD flag is set, i.e. the
// resolver validated the answer with DNSSEC.
func (a *Answer) AuthenticatedData() bool { return a.Msg.AuthenticatedData }

// Signatures returns the number of RRSIG records in the answer section.
func (a *Answer) Signatures() int { return CountType(a.Msg, dns.TypeRRSIG) }

// Records returns the formatted answers of type qtype and their lowest TTL.
func (a *Answer) Records(qtype uint16) ([]string, uint32) { return Records(a.Msg, qtype) }

// Err returns [ErrNXDomain] for NXDOMAIN, [ErrUnexpectedRcode] for any
// other failure code and [ErrNoAnswer] when there is no record of type
// qtype. It returns nil when at least one such record is present.
func (a *Answer) Err(qtype uint16) error {
	name := ""
	if len(a.Msg.Question) > 0 {
		name = strings.TrimSuffix(a.Msg.Question[0].Name, ".")
	}
	switch a.Msg.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return fmt.Errorf("%w: %s", ErrNXDomain, name)
	default:
		return fmt.Errorf("%w: %s from %s", ErrUnexpectedRcode, a.RcodeName(), a.Server)
	}
	if CountType(a.Msg, qtype) == 0 {
		return fmt.Errorf("%w: no %s records for %s", ErrNoAnswer, TypeName(qtype), name)
	}
	return nil
}

// MX returns the MX records of the answer ordered by preference, lowest
// first, then by host. Null MX targets are skipped.
func (a *Answer) MX() []MX {
	var out []MX
	for _, rr := range a.Msg.Answer {
		mx, ok := rr.(*dns.MX)
		if !ok {
			continue
		}
		host := trimDot(mx.Mx)
		if host == "" {
			continue
		}
		out = append(out, MX{Host: strings.ToLower(host), Pref: mx.Preference})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pref != out[j].Pref {
			return out[i].Pref < out[j].Pref
		}
		return out[i].Host < out[j].Host
	})
	return out
}

// Glue returns the addresses for host found in the additional section.
func (a *Answer) Glue(host string) []string {
	host = dns.Fqdn(strings.ToLower(host))
	var out []string
	for _, rr := range a.Msg.Extra {
		if !strings.EqualFold(rr.Header().Name, host) {
			continue
		}
		switch v := rr.(type) {
		case *dns.A:
			out = append(out, v.A.String())
		case *dns.AAAA:
			out = append(out, v.AAAA.String())
		}
	}
	return out
}

// ZoneFromAuthority returns the owner name of the SOA record in the
// authority section, which names the enclosing zone of a negative answer.
func (a *Answer) ZoneFromAuthority() (string, bool) {
	for _, rr := range a.Msg.Ns {
		if soa, ok := rr.(*dns.SOA); ok {
			return trimDot(soa.Hdr.Name), true
		}
	}
	return "", false
}

func (a *Answer) clone() *Answer {
	if a == nil {
		return nil
	}
	cp := *a
	if a.Msg != nil {
		cp.Msg = a.Msg.Copy()
	}
	return &cp
}
