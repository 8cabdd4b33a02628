// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package check

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dict returns ToDict with raw_data flattened so it can be diffed.
func dict(r Result) map[string]any {
	d := r.ToDict()
	d["raw_data"] = d["raw_data"].(*Fields).Map()
	return d
}

func TestNewResultClosedStatusSet(t *testing.T) {
	tests := []struct {
		status Status
		valid  bool
	}{
		{StatusSuccess, true},
		{StatusWarning, true},
		{StatusError, true},
		{"", false},
		{"ok", false},
		{"SUCCESS", false},
		{"failed", false},
		{"unknown", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			_, err := NewResult(tt.status, "msg", 0, nil)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidStatus)
		})
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Warning ")
	require.NoError(t, err)
	assert.Equal(t, StatusWarning, st)

	_, err = ParseStatus("critical")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestNewResultNegativeResponseTime(t *testing.T) {
	_, err := NewResult(StatusSuccess, "msg", -time.Second, nil)
	assert.ErrorIs(t, err, ErrInvalidResponseTime)
}

func TestResultPredicatesMutuallyExclusive(t *testing.T) {
	for _, st := range []Status{StatusSuccess, StatusWarning, StatusError} {
		r, err := NewResult(st, "msg", time.Millisecond, nil)
		require.NoError(t, err)

		count := 0
		for _, b := range []bool{r.IsSuccess(), r.IsWarning(), r.IsError()} {
			if b {
				count++
			}
		}
		assert.Equal(t, 1, count, "status %s", st)
	}
}

func TestStatusExitCode(t *testing.T) {
	assert.Equal(t, 0, StatusSuccess.ExitCode())
	assert.Equal(t, 1, StatusWarning.ExitCode())
	assert.Equal(t, 2, StatusError.ExitCode())
	assert.True(t, StatusError.Worse(StatusWarning))
	assert.False(t, StatusSuccess.Worse(StatusWarning))
}

func TestResultIsImmutable(t *testing.T) {
	raw := NewFields().Set("status_code", 200)
	r := Success("ok", time.Second, raw)

	raw.Set("status_code", 500)
	raw.Set("extra", true)

	got, _ := r.Get("status_code")
	assert.Equal(t, 200, got)
	assert.False(t, r.RawData().Has("extra"))

	copied := r.RawData()
	copied.Set("status_code", 404)
	got, _ = r.Get("status_code")
	assert.Equal(t, 200, got)
}

func TestResultDictRoundTrip(t *testing.T) {
	nested := NewFields().
		Set("consistent_count", 8).
		Set("resolvers", []any{"8.8.8.8", "1.1.1.1"})

	cases := []Result{
		Success("ok", 0, nil),
		Warning("expires soon", 1234567890*time.Nanosecond, NewFields().Set("days_until_expiration", 20)),
		Failure("mismatch", 42*time.Millisecond, NewFields().
			Set("records", []string{"192.0.2.2"}).
			Set("propagation", nested)),
	}

	for _, want := range cases {
		t.Run(want.Message(), func(t *testing.T) {
			got, err := FromDict(want.ToDict())
			require.NoError(t, err)

			assert.Equal(t, want.Status(), got.Status())
			assert.Equal(t, want.Message(), got.Message())
			assert.Equal(t, want.ResponseTime(), got.ResponseTime())
			assert.True(t, want.Timestamp().Equal(got.Timestamp()))
			assert.Equal(t, want.RawData().Keys(), got.RawData().Keys())
			if diff := cmp.Diff(dict(want), dict(got)); diff != "" {
				t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResultJSONRoundTrip(t *testing.T) {
	want := Failure("connection refused", 1500*time.Millisecond, NewFields().
		Set("error", "dial tcp: connection refused").
		Set("error_kind", "network").
		Set("mx_records", []any{
			NewFields().Set("priority", 10).Set("host", "mx1"),
		}))

	b, err := json.Marshal(want)
	require.NoError(t, err)

	var got Result
	require.NoError(t, json.Unmarshal(b, &got))

	assert.Equal(t, want.Status(), got.Status())
	assert.Equal(t, want.Message(), got.Message())
	assert.Equal(t, want.ResponseTime(), got.ResponseTime())
	assert.True(t, want.Timestamp().Equal(got.Timestamp()))

	again, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(b), string(again))
}

func TestResultJSONKeyOrder(t *testing.T) {
	r := Success("ok", 0, NewFields().Set("zeta", 1).Set("alpha", 2))
	b, err := json.Marshal(r)
	require.NoError(t, err)

	s := string(b)
	assert.Less(t, indexOf(s, `"status"`), indexOf(s, `"message"`))
	assert.Less(t, indexOf(s, `"response_time"`), indexOf(s, `"raw_data"`))
	assert.Less(t, indexOf(s, `"zeta"`), indexOf(s, `"alpha"`))
}

func TestFromDictRejectsInvalidStatus(t *testing.T) {
	_, err := FromDict(map[string]any{"status": "meh"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
