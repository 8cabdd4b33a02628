// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package check

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Sentinel errors for the check package.
var (
	// ErrInvalidStatus is returned when a status outside the closed set
	// is used to build a Result.
	ErrInvalidStatus = errors.New("check: invalid status")

	// ErrInvalidResponseTime is returned when a negative response time
	// is used to build a Result.
	ErrInvalidResponseTime = errors.New("check: negative response time")

	// ErrUnknownCheckType is returned when a check type is not registered.
	ErrUnknownCheckType = errors.New("check: unknown check type")

	// ErrDuplicateRegistration is returned when a check type is registered twice.
	ErrDuplicateRegistration = errors.New("check: check type already registered")

	// ErrConfigValidation wraps every configuration failure.
	ErrConfigValidation = errors.New("check: invalid configuration")

	// ErrNetwork wraps timeouts, refused connections, TLS handshake and
	// DNS resolution failures.
	ErrNetwork = errors.New("check: network failure")

	// ErrProtocol wraps unexpected server responses, rejected
	// authentication and missing server capabilities.
	ErrProtocol = errors.New("check: protocol failure")

	// ErrInternalPanic is returned when a panic is recovered while a
	// check runs.
	ErrInternalPanic = errors.New("check: internal panic recovered")

	// ErrBatchDeadline is reported for requests that were never
	// dispatched because the batch deadline fired first.
	ErrBatchDeadline = errors.New("check: batch deadline exceeded")
)

// ErrorKind classifies a probe failure in the raw data of an error Result.
type ErrorKind string

// Known error kinds.
const (
	KindConfig   ErrorKind = "config"
	KindNetwork  ErrorKind = "network"
	KindProtocol ErrorKind = "protocol"
	KindInternal ErrorKind = "internal"
)

// NetworkError marks err as a network-level failure.
func NetworkError(err error) error {
	if err == nil || errors.Is(err, ErrNetwork) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

// ProtocolError returns a protocol-level failure with a formatted message.
func ProtocolError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}

// ConfigError carries every violation found while validating a
// check configuration. It matches [ErrConfigValidation] with [errors.Is].
type ConfigError struct {
	Violations []Violation
}

func (e *ConfigError) Error() string {
	var err error
	for _, v := range e.Violations {
		err = multierr.Append(err, v)
	}
	if err == nil {
		return ErrConfigValidation.Error()
	}
	return ErrConfigValidation.Error() + ": " + err.Error()
}

// Unwrap returns [ErrConfigValidation].
func (e *ConfigError) Unwrap() error { return ErrConfigValidation }

// KindOf classifies err. Errors wrapped with the package sentinels are
// classified by sentinel; well-known transport errors count as network
// failures; anything else is internal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfigValidation), errors.Is(err, ErrUnknownCheckType):
		return KindConfig
	case errors.Is(err, ErrProtocol):
		return KindProtocol
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrInternalPanic):
		return KindInternal
	}

	var (
		netErr       net.Error
		certInvalid  x509.CertificateInvalidError
		unknownAuth  x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		recordHeader tls.RecordHeaderError
	)
	switch {
	case errors.As(err, &netErr),
		errors.As(err, &certInvalid),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostnameErr),
		errors.As(err, &recordHeader),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return KindNetwork
	}
	return KindInternal
}

// FromError returns an error [Result] for err. The raw data receives
// error, error_kind and error_type entries after whatever raw already holds.
func FromError(message string, err error, responseTime time.Duration, raw *Fields) Result {
	if raw == nil {
		raw = NewFields()
	} else {
		raw = raw.Clone()
	}
	if err != nil {
		raw.Set("error", err.Error())
		raw.Set("error_kind", string(KindOf(err)))
		raw.Set("error_type", errorType(err))
		if message == "" {
			message = err.Error()
		}
	}
	return Failure(message, responseTime, raw)
}

// InvalidConfig returns the error [Result] for a configuration that failed
// validation. No I/O is performed to build it.
func InvalidConfig(violations []Violation) Result {
	cerr := &ConfigError{Violations: violations}
	list := make([]any, len(violations))
	for i, v := range violations {
		list[i] = NewFields().Set("key", v.Key).Set("reason", v.Reason)
	}
	raw := NewFields().Set("violations", list)
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Error()
	}
	return FromError("invalid configuration: "+strings.Join(msgs, "; "), cerr, 0, raw)
}

// errorType returns the Go type of the innermost cause of err, skipping
// the fmt wrappers.
func errorType(err error) string {
	for {
		switch x := err.(type) {
		case interface{ Unwrap() []error }:
			errs := x.Unwrap()
			if len(errs) == 0 || !isFmtWrapper(err) {
				return fmt.Sprintf("%T", err)
			}
			err = errs[len(errs)-1]
			continue
		case interface{ Unwrap() error }:
			if !isFmtWrapper(err) {
				return fmt.Sprintf("%T", err)
			}
			inner := x.Unwrap()
			if inner == nil {
				return fmt.Sprintf("%T", err)
			}
			err = inner
			continue
		}
		return fmt.Sprintf("%T", err)
	}
}

func isFmtWrapper(err error) bool {
	t := fmt.Sprintf("%T", err)
	return t == "*fmt.wrapError" || t == "*fmt.wrapErrors"
}
