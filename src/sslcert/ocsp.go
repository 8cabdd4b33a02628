// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package sslcert

import (
	"bytes"
	"context"
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/ocsp"
)

// OCSP status values reported in raw data.
const (
	ocspGood        = "good"
	ocspRevoked     = "revoked"
	ocspUnknown     = "unknown"
	ocspUnavailable = "unavailable"
	ocspFailed      = "error"
)

var (
	errNoOCSPServer = errors.New("sslcert: certificate lists no OCSP responder")
	errNoIssuer     = errors.New("sslcert: issuer certificate not presented")
)

// maxOCSPResponse bounds the responder body.
const maxOCSPResponse = 1 << 20

type ocspOutcome struct {
	status string
	err    error
}

// checkOCSP asks the leaf's OCSP responder for its revocation status.
// A missing responder is reported as unavailable, not as a failure.
func (c *Checker) checkOCSP(ctx context.Context, certs []*x509.Certificate) ocspOutcome {
	leaf := certs[0]
	if len(leaf.OCSPServer) == 0 {
		return ocspOutcome{status: ocspUnavailable}
	}
	if len(certs) < 2 {
		return ocspOutcome{status: ocspFailed, err: errNoIssuer}
	}
	issuer := certs[1]

	resp, err := c.queryOCSP(ctx, leaf.OCSPServer[0], leaf, issuer)
	if err != nil {
		c.logger.Debug("ocsp_query_failed", zap.String("responder", leaf.OCSPServer[0]), zap.Error(err))
		return ocspOutcome{status: ocspFailed, err: err}
	}
	switch resp.Status {
	case ocsp.Good:
		return ocspOutcome{status: ocspGood}
	case ocsp.Revoked:
		return ocspOutcome{status: ocspRevoked}
	}
	return ocspOutcome{status: ocspUnknown}
}

func (c *Checker) queryOCSP(ctx context.Context, responder string, leaf, issuer *x509.Certificate) (*ocsp.Response, error) {
	body, err := ocsp.CreateRequest(leaf, issuer, &ocsp.RequestOptions{Hash: crypto.SHA1})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responder, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/ocsp-request")
	req.Header.Set("Accept", "application/ocsp-response")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sslcert: OCSP responder returned %s", resp.Status)
	}

	der, err := io.ReadAll(io.LimitReader(resp.Body, maxOCSPResponse))
	if err != nil {
		return nil, err
	}
	return ocsp.ParseResponseForCert(der, leaf, issuer)
}
