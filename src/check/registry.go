// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package check

import (
	"fmt"
	"strings"
	"sync"
)

// Entry describes one registered check type.
type Entry struct {
	// Type is the unique check type name, e.g. "dns_record".
	Type string

	// Factory builds a Check for this type.
	Factory Factory

	// Required lists the configuration keys that must be present.
	Required []string

	// Optional lists the configuration keys that may be present.
	Optional []string
}

// Metadata is the discovery view of an [Entry].
type Metadata struct {
	CheckType      string   `json:"check_type" yaml:"check_type"`
	RequiredConfig []string `json:"required_config" yaml:"required_config"`
	OptionalConfig []string `json:"optional_config" yaml:"optional_config"`
}

// missing returns a violation for every required key absent from cfg.
func (e Entry) missing(cfg Config) []Violation {
	var out []Violation
	for _, k := range e.Required {
		v, ok := cfg[k]
		if !ok || v == nil {
			out = append(out, Violation{Key: k, Reason: "is required"})
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			out = append(out, Violation{Key: k, Reason: "is required"})
		}
	}
	return out
}

// Registry maps check type names to factories.
//
// A Registry is created explicitly with [NewRegistry], populated during
// start-up and then handed to a [Runner]. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

// NewRegistry returns an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds e to the registry. It fails with
// [ErrDuplicateRegistration] if e.Type is already registered.
func (r *Registry) Register(e Entry) error {
	e.Type = strings.TrimSpace(e.Type)
	if e.Type == "" {
		return fmt.Errorf("%w: empty check type", ErrConfigValidation)
	}
	if e.Factory == nil {
		return fmt.Errorf("%w: nil factory for %q", ErrConfigValidation, e.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.Type]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateRegistration, e.Type)
	}
	e.Required = append([]string(nil), e.Required...)
	e.Optional = append([]string(nil), e.Optional...)
	r.entries[e.Type] = e
	r.order = append(r.order, e.Type)
	return nil
}

// MustRegister is like [Registry.Register] but panics on error.
// It is meant for start-up wiring only.
func (r *Registry) MustRegister(entries ...Entry) {
	for _, e := range entries {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the entry registered for checkType.
func (r *Registry) Lookup(checkType string) (Entry, error) {
	r.mu.RLock()
	e, ok := r.entries[checkType]
	r.mu.RUnlock()
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownCheckType, checkType)
	}
	return e, nil
}

// Resolve returns the factory registered for checkType, or
// [ErrUnknownCheckType].
func (r *Registry) Resolve(checkType string) (Factory, error) {
	e, err := r.Lookup(checkType)
	if err != nil {
		return nil, err
	}
	return e.Factory, nil
}

// Types returns the registered check types in registration order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Metadata returns the discovery metadata of every entry in registration
// order.
func (r *Registry) Metadata() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metadata, 0, len(r.order))
	for _, t := range r.order {
		e := r.entries[t]
		out = append(out, Metadata{
			CheckType:      e.Type,
			RequiredConfig: append([]string{}, e.Required...),
			OptionalConfig: append([]string{}, e.Optional...),
		})
	}
	return out
}
