// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package sslcert implements the ssl_certificate check.
//
// The probe completes a TLS handshake without verification, then inspects
// the leaf certificate itself. Rules are applied in order and the first
// match decides the status:
//
//   - expired, not yet valid, hostname mismatch, revoked (check_ocsp) or an
//     invalid chain (check_chain): error
//   - days_until_expiration <= critical_days: error
//   - days_until_expiration <= warning_days: warning
//   - OCSP responder unreachable: warning
//   - otherwise: success
//
// days_until_expiration is the number of whole days left, rounded down.
package sslcert
