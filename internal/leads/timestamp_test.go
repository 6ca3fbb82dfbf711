package leads

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestampLayouts(t *testing.T) {
	want := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339 utc", "2026-03-04T10:30:00Z", want},
		{"rfc3339 offset", "2026-03-04T12:30:00+02:00", want},
		{"rfc3339 nano", "2026-03-04T10:30:00.000Z", want},
		{"no zone", "2026-03-04T10:30:00", want},
		{"space separated", "2026-03-04 10:30:00", want},
		{"date only", "2026-03-04", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := ParseTimestamp(tt.raw)
			require.True(t, ts.IsValid())
			assert.True(t, tt.want.Equal(ts.Time()), "got %s", ts.Time())
			assert.Equal(t, time.UTC, ts.Time().Location())
		})
	}
}

func TestParseTimestampInvalidAndEmpty(t *testing.T) {
	empty := ParseTimestamp("  ")
	assert.False(t, empty.IsSet())
	assert.False(t, empty.Invalid())

	bad := ParseTimestamp("next tuesday")
	assert.True(t, bad.IsSet())
	assert.True(t, bad.Invalid())
	assert.False(t, bad.IsValid())
	assert.True(t, bad.Time().IsZero())
	assert.Equal(t, "next tuesday", bad.String())
	assert.Nil(t, bad.Ptr())
}

func TestTimestampUnmarshalNeverFails(t *testing.T) {
	var payload struct {
		A Timestamp `json:"a"`
		B Timestamp `json:"b"`
		C Timestamp `json:"c"`
		D Timestamp `json:"d"`
		E Timestamp `json:"e"`
	}
	err := json.Unmarshal([]byte(`{"a":"2026-01-02T03:04:05Z","b":null,"c":"garbage","d":1767225600,"e":true}`), &payload)
	require.NoError(t, err)

	assert.True(t, payload.A.IsValid())
	assert.False(t, payload.B.IsSet())
	assert.True(t, payload.C.Invalid())
	assert.True(t, payload.D.IsValid())
	assert.Equal(t, int64(1767225600), payload.D.Time().Unix())
	assert.True(t, payload.E.Invalid())
}

func TestTimestampMarshal(t *testing.T) {
	ts := NewTimestamp(time.Date(2026, 5, 1, 8, 0, 0, 0, time.FixedZone("x", 3600)))
	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `"2026-05-01T07:00:00Z"`, string(out))

	out, err = json.Marshal(ParseTimestamp("bogus"))
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestTimestampFromPtr(t *testing.T) {
	assert.False(t, TimestampFromPtr(nil).IsSet())
	now := time.Now()
	assert.True(t, TimestampFromPtr(&now).IsValid())
	assert.False(t, NewTimestamp(time.Time{}).IsSet())
}
