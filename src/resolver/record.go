// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

// ParseType converts a record type name (e.g., "A", "mx", "TXT") to the
// corresponding dns library constant.
func ParseType(name string) (uint16, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if t, ok := dns.StringToType[name]; ok && t != dns.TypeNone {
		return t, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// TypeName returns the mnemonic for qtype, e.g. "AAAA".
func TypeName(qtype uint16) string {
	return dns.TypeToString[qtype]
}

// FormatRR renders the data part of rr the way operators write it:
//
//	A / AAAA  192.0.2.1
//	CNAME/NS  target.example.com
//	MX        10 mx1.example.com
//	TXT       v=spf1 -all
//	SRV       10 5 5060 sip.example.com
//
// Other types fall back to the presentation format without the header.
func FormatRR(rr dns.RR) string {
	switch v := rr.(type) {
	case *dns.A:
		return v.A.String()
	case *dns.AAAA:
		return v.AAAA.String()
	case *dns.CNAME:
		return trimDot(v.Target)
	case *dns.NS:
		return trimDot(v.Ns)
	case *dns.PTR:
		return trimDot(v.Ptr)
	case *dns.MX:
		return strconv.Itoa(int(v.Preference)) + " " + trimDot(v.Mx)
	case *dns.TXT:
		return strings.Join(v.Txt, "")
	case *dns.SRV:
		return fmt.Sprintf("%d %d %d %s", v.Priority, v.Weight, v.Port, trimDot(v.Target))
	case *dns.SOA:
		return fmt.Sprintf("%s %s %d %d %d %d %d",
			trimDot(v.Ns), trimDot(v.Mbox), v.Serial, v.Refresh, v.Retry, v.Expire, v.Minttl)
	case *dns.CAA:
		return fmt.Sprintf("%d %s %q", v.Flag, v.Tag, v.Value)
	}
	hdr := rr.Header().String()
	return strings.TrimSpace(strings.TrimPrefix(rr.String(), hdr))
}

// Records returns the formatted answers of type qtype in msg, sorted, and
// the lowest TTL among them.
func Records(msg *dns.Msg, qtype uint16) ([]string, uint32) {
	if msg == nil {
		return nil, 0
	}
	var (
		out    []string
		minTTL uint32
	)
	for _, rr := range msg.Answer {
		if rr.Header().Rrtype != qtype {
			continue
		}
		if ttl := rr.Header().Ttl; len(out) == 0 || ttl < minTTL {
			minTTL = ttl
		}
		out = append(out, FormatRR(rr))
	}
	sort.Strings(out)
	return out, minTTL
}

// CountType returns the number of answers of type rrtype in msg.
func CountType(msg *dns.Msg, rrtype uint16) int {
	if msg == nil {
		return 0
	}
	n := 0
	for _, rr := range msg.Answer {
		if rr.Header().Rrtype == rrtype {
			n++
		}
	}
	return n
}

// EqualValues compares two record values the way a human would: case and
// a trailing dot on names are ignored, as are quotes around TXT data.
func EqualValues(a, b string) bool {
	return canonicalValue(a) == canonicalValue(b)
}

// EqualSets reports whether a and b hold the same values, ignoring order.
func EqualSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	ca := make([]string, len(a))
	cb := make([]string, len(b))
	for i := range a {
		ca[i] = canonicalValue(a[i])
		cb[i] = canonicalValue(b[i])
	}
	sort.Strings(ca)
	sort.Strings(cb)
	for i := range ca {
		if ca[i] != cb[i] {
			return false
		}
	}
	return true
}

func canonicalValue(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSuffix(strings.ToLower(s), ".")
}

func trimDot(name string) string {
	return strings.TrimSuffix(name, ".")
}
