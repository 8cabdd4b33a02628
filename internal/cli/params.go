// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"gopkg.in/yaml.v3"
)

// buildConfig reads the optional YAML check configuration at path and
// applies the key=value settings on top of it.
func buildConfig(path string, settings []string) (check.Config, error) {
	cfg := check.Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read check config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if cfg == nil {
			cfg = check.Config{}
		}
	}
	for _, s := range settings {
		key, value, err := parseSetting(s)
		if err != nil {
			return nil, err
		}
		cfg[key] = value
	}
	return cfg, nil
}

// parseSetting splits key=value. The value is read as a YAML scalar or
// flow collection, so "timeout=5", "verify_ssl=false" and
// "expected_status=[200,301]" keep their types; anything YAML rejects is
// taken verbatim as a string.
func parseSetting(s string) (string, any, error) {
	key, raw, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid setting %q, want key=value", s)
	}
	if raw == "" {
		return key, "", nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
		return key, raw, nil
	}
	return key, v, nil
}
