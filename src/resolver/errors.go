// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import "errors"

// Sentinel errors for the resolver package.
var (
	// ErrInvalidDomain is returned when a name is not a valid domain.
	ErrInvalidDomain = errors.New("resolver: invalid domain name")

	// ErrUnknownType is returned when a record type name is not recognized.
	ErrUnknownType = errors.New("resolver: unknown record type")

	// ErrNoServers is returned when no DNS server is available to query.
	ErrNoServers = errors.New("resolver: no DNS servers configured")

	// ErrTimeout is returned when a DNS query is cancelled or times out.
	ErrTimeout = errors.New("resolver: DNS query timeout")

	// ErrNXDomain is returned when the queried name does not exist.
	ErrNXDomain = errors.New("resolver: domain does not exist")

	// ErrNoAnswer is returned when the name exists but has no record of
	// the requested type.
	ErrNoAnswer = errors.New("resolver: no answer for record type")

	// ErrUnexpectedRcode is returned for response codes other than
	// NOERROR and NXDOMAIN where an answer was required.
	ErrUnexpectedRcode = errors.New("resolver: unexpected response code")

	// ErrInternalPanic is returned when a panic is recovered while
	// probing a server.
	ErrInternalPanic = errors.New("resolver: internal panic recovered")
)
