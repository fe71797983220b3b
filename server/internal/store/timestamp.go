package store

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order for string timestamps. They cover what
// reporting clients send and what older state files hold.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTime parses a timestamp string: RFC 3339 and its common variants, a
// bare date, or Unix milliseconds. Layouts without a zone are read as UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, encodable(t)
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromMillis(ms)
	}
	return time.Time{}, false
}

// DecodeTime decodes one JSON timestamp value: a string accepted by
// ParseTime or a number of Unix milliseconds. Null, absent, unparseable and
// out-of-range values yield nil.
func DecodeTime(raw []byte) *time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var (
		t  time.Time
		ok bool
	)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		t, ok = ParseTime(s)
	} else if ms, err := strconv.ParseFloat(string(raw), 64); err == nil {
		// float64(math.MaxInt64) rounds up to 2^63, hence >=.
		if math.IsNaN(ms) || ms < math.MinInt64 || ms >= math.MaxInt64 {
			return nil
		}
		t, ok = fromMillis(int64(ms))
	}
	if !ok {
		return nil
	}
	return &t
}

// DecodeText decodes a JSON string, number or boolean to its text. Objects,
// arrays, null and absent values yield "".
func DecodeText(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var v string
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
		return ""
	case '{', '[', 'n':
		return ""
	default:
		return string(raw)
	}
}

func fromMillis(ms int64) (time.Time, bool) {
	t := time.UnixMilli(ms).UTC()
	return t, encodable(t)
}

// encodable reports whether t survives a JSON round trip; MarshalJSON
// rejects years outside [0, 9999] and a single such value would make every
// later save of the state file fail.
func encodable(t time.Time) bool {
	y := t.Year()
	return y >= 0 && y <= 9999
}
