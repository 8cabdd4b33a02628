// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package check is the execution engine of probekit: the [Check] contract,
// the immutable [Result], the [Registry] of check types and the [Runner]
// that executes checks singly or as bounded-concurrency batches.
//
// # Results
//
// Every probe produces exactly one [Result] whose [Status] is one of
// success, warning or error. Network and protocol failures are never
// returned as Go errors; they become error Results whose raw data carries
// error, error_kind and error_type entries.
//
// # Registry
//
// A [Registry] is created explicitly and populated at start-up. Packages
// under src/ expose a Register function; [builtin.NewRegistry] wires all
// of them:
//
//	reg := check.NewRegistry()
//	if err := dnsrecord.Register(reg); err != nil {
//	    log.Fatal(err)
//	}
//
// # Running checks
//
//	r := check.NewRunner(reg)
//
//	// Single check. err is non-nil only for an unknown check type.
//	res, err := r.Run(ctx, "dns_record", check.Config{
//	    "domain":      "example.com",
//	    "record_type": "A",
//	})
//
//	// Batch: at most 20 probes in flight, 500 requests per wave.
//	outcomes := r.RunBatch(ctx, requests, 500, 20)
//
// Batch results are positional: outcomes[i] always belongs to requests[i].
// A panic, an unknown check type or an invalid configuration only affects
// its own request.
//
// # Errors
//
// Sentinel errors for use with [errors.Is]:
//
//	var (
//	    ErrInvalidStatus         // Status outside success/warning/error
//	    ErrInvalidResponseTime   // Negative response time
//	    ErrUnknownCheckType      // Check type not registered
//	    ErrDuplicateRegistration // Check type registered twice
//	    ErrConfigValidation      // Invalid check configuration
//	    ErrNetwork               // Timeout, refused connection, TLS or DNS failure
//	    ErrProtocol              // Unexpected response, rejected auth, missing capability
//	    ErrInternalPanic         // A panic was recovered while a check ran
//	    ErrBatchDeadline         // Request not dispatched before the batch deadline
//	)
//
// [builtin.NewRegistry]: https://pkg.go.dev/github.com/H0llyW00dzZ/probekit/src/builtin#NewRegistry
package check
