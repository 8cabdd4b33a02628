// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package check

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Config is the loosely typed configuration of a single check, as it
// arrives from a caller (decoded JSON, YAML or CLI flags).
type Config map[string]any

// Violation describes one problem with a [Config].
type Violation struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

func (v Violation) Error() string {
	if v.Key == "" {
		return v.Reason
	}
	return v.Key + ": " + v.Reason
}

// Decoder decodes a [Config] into a typed settings struct and collects
// violations instead of failing on the first one.
//
//	s := settings{Port: 443}
//	d := check.NewDecoder(cfg)
//	d.Decode(&s)
//	d.Require("hostname")
//	if s.Port < 1 || s.Port > 65535 {
//	    d.Invalid("port", "must be between 1 and 65535, got %d", s.Port)
//	}
//	if v := d.Violations(); len(v) > 0 {
//	    return v
//	}
//
// Only the first violation recorded for a key is kept.
type Decoder struct {
	cfg        Config
	violations []Violation
}

// NewDecoder returns a [Decoder] for cfg.
func NewDecoder(cfg Config) *Decoder {
	return &Decoder{cfg: cfg}
}

// Decode decodes the configuration into out, a pointer to a struct whose
// fields carry `mapstructure` tags. Fields without a matching key keep
// their value, so out is usually pre-filled with defaults.
//
// Input is weakly typed: "8443" decodes into an int and a single value
// into a list. Durations are seconds when given as a number and Go
// durations ("1500ms") when given as text. Keys that match no field are
// reported as unknown.
func (d *Decoder) Decode(out any) {
	for _, key := range sortedKeys(d.cfg) {
		var md mapstructure.Metadata
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           out,
			Metadata:         &md,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			MatchName:        func(mapKey, fieldName string) bool { return mapKey == fieldName },
			DecodeHook:       decodeHook,
		})
		if err != nil {
			d.Invalid("", "%v", err)
			return
		}
		err = dec.Decode(map[string]any{key: d.cfg[key]})
		switch {
		case len(md.Unused) > 0:
			d.Invalid(key, "unknown configuration key")
		case err != nil:
			d.Invalid(key, "%s", decodeReason(err))
		}
	}
}

// Invalid records a violation for key unless key already has one.
func (d *Decoder) Invalid(key, format string, args ...any) {
	if key != "" && d.Failed(key) {
		return
	}
	d.violations = append(d.violations, Violation{Key: key, Reason: fmt.Sprintf(format, args...)})
}

// Failed reports whether a violation was recorded for key.
func (d *Decoder) Failed(key string) bool {
	for _, v := range d.violations {
		if v.Key == key {
			return true
		}
	}
	return false
}

// Present reports whether key is set to a non-nil value.
func (d *Decoder) Present(key string) bool {
	v, ok := d.cfg[key]
	return ok && v != nil
}

// Require records an "is required" violation for every key that is
// missing, nil or a blank string.
func (d *Decoder) Require(keys ...string) {
	for _, key := range keys {
		if !d.Present(key) {
			d.Invalid(key, "is required")
			continue
		}
		if s, ok := d.cfg[key].(string); ok && strings.TrimSpace(s) == "" {
			d.Invalid(key, "is required")
		}
	}
}

// OneOf checks that value is one of allowed (case-insensitive) and
// returns it lower-cased.
func (d *Decoder) OneOf(key, value string, allowed ...string) string {
	s := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	d.Invalid(key, "must be one of %s, got %q", strings.Join(allowed, ", "), s)
	return s
}

// Violations returns the violations collected so far.
func (d *Decoder) Violations() []Violation {
	out := make([]Violation, len(d.violations))
	copy(out, d.violations)
	return out
}

var decodeHook = mapstructure.ComposeDecodeHookFunc(
	mapstructure.DecodeHookFuncType(secondsHook),
	mapstructure.StringToTimeDurationHookFunc(),
	mapstructure.DecodeHookFuncType(boolWordsHook),
	mapstructure.DecodeHookFuncType(integerHook),
)

var durationType = reflect.TypeOf(time.Duration(0))

// secondsHook reads numbers, and strings holding a number, as seconds.
func secondsHook(from, to reflect.Type, data any) (any, error) {
	if to != durationType || from == durationType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		s := strings.TrimSpace(v)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return secondsToDuration(f), nil
		}
		return s, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q", v.String())
		}
		return secondsToDuration(f), nil
	}
	rv := reflect.ValueOf(data)
	switch from.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Duration(rv.Int()) * time.Second, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return time.Duration(rv.Uint()) * time.Second, nil
	case reflect.Float32, reflect.Float64:
		return secondsToDuration(rv.Float()), nil
	}
	return data, nil
}

// boolWordsHook accepts yes/no and on/off next to what strconv.ParseBool takes.
func boolWordsHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Bool || from.Kind() != reflect.String {
		return data, nil
	}
	switch strings.ToLower(strings.TrimSpace(data.(string))) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strings.TrimSpace(data.(string)), nil
}

// integerHook rejects fractional numbers for integer fields, which a
// plain conversion would silently truncate.
func integerHook(from, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	default:
		return data, nil
	}
	if from.Kind() != reflect.Float32 && from.Kind() != reflect.Float64 {
		return data, nil
	}
	f := reflect.ValueOf(data).Float()
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("expected an integer, got %v", f)
	}
	return int64(f), nil
}

// decodeReason returns the last line of a decode error, which is the one
// naming the offending value.
func decodeReason(err error) string {
	msg := strings.TrimSpace(err.Error())
	if i := strings.LastIndex(msg, "\n"); i >= 0 {
		msg = msg[i+1:]
	}
	return strings.TrimPrefix(strings.TrimSpace(msg), "* ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
