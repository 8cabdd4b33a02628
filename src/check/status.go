// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package check

import (
	"fmt"
	"strings"
)

// Status is the outcome class of a probe. It is a closed set:
// [StatusSuccess], [StatusWarning] and [StatusError].
type Status string

// Known statuses.
const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// ParseStatus converts s into a [Status]. Any value outside the closed set
// fails with [ErrInvalidStatus].
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusWarning, StatusError:
		return true
	}
	return false
}

// ExitCode maps the status onto the process exit code contract:
// 0 success, 1 warning, 2 error.
func (s Status) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusWarning:
		return 1
	default:
		return 2
	}
}

// Worse reports whether s is more severe than other.
func (s Status) Worse(other Status) bool {
	return s.ExitCode() > other.ExitCode()
}

func (s Status) String() string { return string(s) }
