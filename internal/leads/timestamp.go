package leads

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// timestampLayouts are tried in order when decoding a timestamp. Layouts
// without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	time.DateOnly,
}

// Timestamp is an optional instant that tolerates malformed input. A value
// that cannot be parsed decodes without error and reports Invalid, so one
// bad record never fails a whole batch.
type Timestamp struct {
	t     time.Time
	raw   string
	set   bool
	valid bool
}

// NewTimestamp returns a valid timestamp normalized to UTC.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{t: t.UTC(), set: true, valid: true}
}

// TimestampFromPtr converts a nullable column value.
func TimestampFromPtr(t *time.Time) Timestamp {
	if t == nil {
		return Timestamp{}
	}
	return NewTimestamp(*t)
}

// ParseTimestamp parses raw text. Empty input yields an unset timestamp.
func ParseTimestamp(raw string) Timestamp {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Timestamp{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp{t: t.UTC(), raw: raw, set: true, valid: true}
		}
	}
	return Timestamp{raw: raw, set: true}
}

// IsSet reports whether any value was supplied, valid or not.
func (ts Timestamp) IsSet() bool { return ts.set }

// IsValid reports whether the value parsed to an instant.
func (ts Timestamp) IsValid() bool { return ts.set && ts.valid }

// Invalid reports a supplied value that could not be parsed.
func (ts Timestamp) Invalid() bool { return ts.set && !ts.valid }

// Time returns the UTC instant, or the zero time when not valid.
func (ts Timestamp) Time() time.Time {
	if !ts.valid {
		return time.Time{}
	}
	return ts.t
}

// Raw returns the original text, if the value was decoded from text.
func (ts Timestamp) Raw() string { return ts.raw }

// Ptr returns a pointer suitable for a nullable column.
func (ts Timestamp) Ptr() *time.Time {
	if !ts.IsValid() {
		return nil
	}
	t := ts.t
	return &t
}

func (ts Timestamp) String() string {
	switch {
	case ts.IsValid():
		return ts.t.Format(time.RFC3339)
	case ts.set:
		return ts.raw
	default:
		return ""
	}
}

// MarshalJSON writes RFC3339 UTC for valid values and null otherwise.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.IsValid() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.t.Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts strings, null, and unix seconds.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*ts = Timestamp{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*ts = Timestamp{raw: string(data), set: true}
			return nil
		}
		*ts = ParseTimestamp(s)
		return nil
	}
	var secs json.Number
	if err := json.Unmarshal(data, &secs); err == nil {
		if n, err := secs.Int64(); err == nil {
			*ts = Timestamp{t: time.Unix(n, 0).UTC(), raw: string(data), set: true, valid: true}
			return nil
		}
	}
	*ts = Timestamp{raw: string(data), set: true}
	return nil
}
