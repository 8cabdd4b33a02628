// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package resolver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"
)

// ServerStatus is the health of one DNS server.
type ServerStatus struct {
	Server  string        `json:"server"`
	Online  bool          `json:"online"`
	Latency time.Duration `json:"latency"`
	Error   error         `json:"-"`
}

// Status checks the health of each server by resolving the probe name
// and measuring the latency. An empty servers list checks the public
// resolver set.
//
// Statuses are returned in the order of servers. If ctx is cancelled,
// servers not yet probed carry the context error and Status returns it.
func (c *Client) Status(ctx context.Context, servers ...string) ([]ServerStatus, error) {
	if len(servers) == 0 {
		servers = DefaultResolvers()
	}

	statuses := make([]ServerStatus, len(servers))
	var wg sync.WaitGroup

	// Semaphore to limit concurrency.
	// We use a buffered channel to limit the number
	// of concurrent goroutines.
	sem := make(chan struct{}, c.concurrency)

Loop:
	for i, srv := range servers {
		// Check context before starting new work
		select {
		case <-ctx.Done():
			// Fill remaining results with context error
			for j := i; j < len(servers); j++ {
				statuses[j] = ServerStatus{
					Server: c.address(servers[j]),
					Error:  ctx.Err(),
				}
			}
			break Loop
		default:
		}

		wg.Add(1)

		// Acquire semaphore before spawning goroutine.
		sem <- struct{}{}

		go func(idx int, server string) {
			defer wg.Done()
			defer func() { <-sem }() // Release semaphore
			defer func() {
				if r := recover(); r != nil {
					statuses[idx] = ServerStatus{
						Server: c.address(server),
						Error:  fmt.Errorf("%w: %v", ErrInternalPanic, r),
					}
				}
			}()

			statuses[idx] = c.checkHealth(ctx, server)
		}(i, srv)
	}

	wg.Wait()
	if ctx.Err() != nil {
		return statuses, ctx.Err()
	}
	return statuses, nil
}

// checkHealth resolves the probe name on one server.
func (c *Client) checkHealth(ctx context.Context, server string) ServerStatus {
	addr := c.address(server)
	start := time.Now()

	ans, err := c.Query(ctx, Question{Name: c.probeName, Type: dns.TypeA, Server: addr})
	latency := time.Since(start)

	if err != nil {
		c.logger.Debug("dns_server_offline", zap.String("server", addr), zap.Error(err))
		return ServerStatus{Server: addr, Error: err}
	}

	if ans.Rcode() != dns.RcodeSuccess {
		return ServerStatus{
			Server: addr,
			Error:  fmt.Errorf("%w: %s", ErrUnexpectedRcode, ans.RcodeName()),
		}
	}

	return ServerStatus{
		Server:  addr,
		Online:  true,
		Latency: latency,
	}
}
