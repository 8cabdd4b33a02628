// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package check

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Result is the immutable outcome of a single probe.
//
// A Result is created once by the checker that ran the probe and is never
// mutated afterwards. The accessors return copies where the underlying
// value is mutable.
type Result struct {
	status       Status
	message      string
	responseTime time.Duration
	rawData      *Fields
	timestamp    time.Time
}

// NewResult builds a [Result] stamped with the current time.
// It fails with [ErrInvalidStatus] if status is not one of the known
// statuses, or with [ErrInvalidResponseTime] if responseTime is negative.
//
// rawData is copied; later changes by the caller are not observed.
func NewResult(status Status, message string, responseTime time.Duration, rawData *Fields) (Result, error) {
	return newResultAt(status, message, responseTime, rawData, time.Now())
}

func newResultAt(status Status, message string, responseTime time.Duration, rawData *Fields, ts time.Time) (Result, error) {
	if !status.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidStatus, string(status))
	}
	if responseTime < 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidResponseTime, responseTime)
	}
	return Result{
		status:       status,
		message:      message,
		responseTime: responseTime,
		rawData:      rawData.Clone(),
		timestamp:    ts.UTC(),
	}, nil
}

// mustResult is used by the helpers below whose status is a constant.
func mustResult(status Status, message string, responseTime time.Duration, rawData *Fields) Result {
	if responseTime < 0 {
		responseTime = 0
	}
	r, err := NewResult(status, message, responseTime, rawData)
	if err != nil {
		panic(err)
	}
	return r
}

// Success returns a success [Result].
func Success(message string, responseTime time.Duration, rawData *Fields) Result {
	return mustResult(StatusSuccess, message, responseTime, rawData)
}

// Warning returns a warning [Result].
func Warning(message string, responseTime time.Duration, rawData *Fields) Result {
	return mustResult(StatusWarning, message, responseTime, rawData)
}

// Failure returns an error [Result].
func Failure(message string, responseTime time.Duration, rawData *Fields) Result {
	return mustResult(StatusError, message, responseTime, rawData)
}

// Status returns the outcome class.
func (r Result) Status() Status { return r.status }

// Message returns the human-readable summary.
func (r Result) Message() string { return r.message }

// ResponseTime returns the time the probe took.
func (r Result) ResponseTime() time.Duration { return r.responseTime }

// Timestamp returns when the Result was created, in UTC.
func (r Result) Timestamp() time.Time { return r.timestamp }

// RawData returns a copy of the diagnostic payload.
func (r Result) RawData() *Fields { return r.rawData.Clone() }

// Get is a shortcut for RawData().Get(key) that avoids the copy.
// The returned value must not be modified.
func (r Result) Get(key string) (any, bool) { return r.rawData.Get(key) }

// IsSuccess reports whether the status is [StatusSuccess].
func (r Result) IsSuccess() bool { return r.status == StatusSuccess }

// IsWarning reports whether the status is [StatusWarning].
func (r Result) IsWarning() bool { return r.status == StatusWarning }

// IsError reports whether the status is [StatusError].
func (r Result) IsError() bool { return r.status == StatusError }

// String returns a one-line summary.
func (r Result) String() string {
	return fmt.Sprintf("[%s] %s (%.3fs)", r.status, r.message, r.responseTime.Seconds())
}

// ToDict returns the canonical serialization of r:
//
//	status        string
//	message       string
//	response_time float64 (seconds)
//	raw_data      *Fields
//	timestamp     string (RFC 3339, nanosecond precision)
func (r Result) ToDict() map[string]any {
	return map[string]any{
		"status":        string(r.status),
		"message":       r.message,
		"response_time": r.responseTime.Seconds(),
		"raw_data":      r.rawData.Clone(),
		"timestamp":     r.timestamp.Format(time.RFC3339Nano),
	}
}

// FromDict rebuilds a [Result] from the output of [Result.ToDict] or from
// its decoded JSON form. raw_data may be a *Fields or a map[string]any.
func FromDict(d map[string]any) (Result, error) {
	statusStr, _ := d["status"].(string)
	status, err := ParseStatus(statusStr)
	if err != nil {
		return Result{}, err
	}
	message, _ := d["message"].(string)

	var seconds float64
	switch v := d["response_time"].(type) {
	case float64:
		seconds = v
	case json.Number:
		seconds, err = v.Float64()
		if err != nil {
			return Result{}, fmt.Errorf("check: response_time: %w", err)
		}
	case int64:
		seconds = float64(v)
	case int:
		seconds = float64(v)
	case nil:
	default:
		return Result{}, fmt.Errorf("check: response_time: unexpected type %T", v)
	}

	var raw *Fields
	switch v := d["raw_data"].(type) {
	case *Fields:
		raw = v
	case map[string]any:
		raw = fieldsFromMap(v)
	case nil:
		raw = NewFields()
	default:
		return Result{}, fmt.Errorf("check: raw_data: unexpected type %T", v)
	}

	ts := time.Now()
	if s, ok := d["timestamp"].(string); ok && s != "" {
		ts, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Result{}, fmt.Errorf("check: timestamp: %w", err)
		}
	}

	return newResultAt(status, message, secondsToDuration(seconds), raw, ts)
}

// MarshalJSON encodes r in its canonical form with a stable key order.
func (r Result) MarshalJSON() ([]byte, error) {
	type wire struct {
		Status       string  `json:"status"`
		Message      string  `json:"message"`
		ResponseTime float64 `json:"response_time"`
		RawData      *Fields `json:"raw_data"`
		Timestamp    string  `json:"timestamp"`
	}
	raw := r.rawData
	if raw == nil {
		raw = NewFields()
	}
	return json.Marshal(wire{
		Status:       string(r.status),
		Message:      r.message,
		ResponseTime: r.responseTime.Seconds(),
		RawData:      raw,
		Timestamp:    r.timestamp.Format(time.RFC3339Nano),
	})
}

// UnmarshalJSON decodes the canonical form produced by [Result.MarshalJSON].
func (r *Result) UnmarshalJSON(b []byte) error {
	var wire struct {
		Status       string          `json:"status"`
		Message      string          `json:"message"`
		ResponseTime json.Number     `json:"response_time"`
		RawData      json.RawMessage `json:"raw_data"`
		Timestamp    string          `json:"timestamp"`
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&wire); err != nil {
		return err
	}
	raw := NewFields()
	if len(wire.RawData) > 0 {
		if err := raw.UnmarshalJSON(wire.RawData); err != nil {
			return err
		}
	}
	d := map[string]any{
		"status":    wire.Status,
		"message":   wire.Message,
		"raw_data":  raw,
		"timestamp": wire.Timestamp,
	}
	if wire.ResponseTime != "" {
		d["response_time"] = wire.ResponseTime
	}
	res, err := FromDict(d)
	if err != nil {
		return err
	}
	*r = res
	return nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

func fieldsFromMap(m map[string]any) *Fields {
	f := NewFields()
	keys := sortedKeys(m)
	for _, k := range keys {
		v := m[k]
		if nested, ok := v.(map[string]any); ok {
			f.Set(k, fieldsFromMap(nested))
			continue
		}
		f.Set(k, v)
	}
	return f
}
