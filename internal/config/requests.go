// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// RequestFile is the layout of a batch requests file:
//
//	defaults:
//	  website_status:
//	    timeout: 5
//	checks:
//	  - id: home
//	    check_type: website_status
//	    config:
//	      url: https://example.com
//
// Defaults are merged under each check of the matching type; keys set on
// the check win.
type RequestFile struct {
	Defaults map[string]check.Config `yaml:"defaults"`
	Checks   []check.Request         `yaml:"checks"`
}

// LoadRequests reads a batch requests file.
func LoadRequests(path string) ([]check.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read requests file %q: %w", path, err)
	}
	defer f.Close()

	reqs, err := ParseRequests(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reqs, nil
}

// ParseRequests decodes a requests document from r. Checks without an id
// get a random UUID; unknown check types are left for the runner to
// report.
func ParseRequests(r io.Reader) ([]check.Request, error) {
	var file RequestFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no checks defined, add at least one entry under 'checks'", ErrInvalid)
		}
		return nil, fmt.Errorf("failed to parse requests: %w", err)
	}
	if len(file.Checks) == 0 {
		return nil, fmt.Errorf("%w: no checks defined, add at least one entry under 'checks'", ErrInvalid)
	}

	seen := make(map[string]int, len(file.Checks))
	reqs := make([]check.Request, len(file.Checks))
	for i, req := range file.Checks {
		req.Type = strings.TrimSpace(req.Type)
		if req.Type == "" {
			return nil, fmt.Errorf("%w: check #%d is missing the 'check_type' field", ErrInvalid, i+1)
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		if prev, dup := seen[req.ID]; dup {
			return nil, fmt.Errorf("%w: check #%d reuses id %q of check #%d", ErrInvalid, i+1, req.ID, prev)
		}
		seen[req.ID] = i + 1
		req.Config = merge(file.Defaults[req.Type], req.Config)
		reqs[i] = req
	}
	return reqs, nil
}

func merge(defaults, cfg check.Config) check.Config {
	out := make(check.Config, len(defaults)+len(cfg))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range cfg {
		out[k] = v
	}
	return out
}
