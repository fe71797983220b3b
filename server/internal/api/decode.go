package api

import (
	"time"

	"github.com/pingtools/jobtrack/server/internal/store"
)

// Timestamp decodes the time formats reporting clients send: RFC 3339 and
// its common variants as strings, or Unix milliseconds as a number. Anything
// else leaves the Timestamp unset without failing the decode.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	*ts = Timestamp{}
	if t := store.DecodeTime(b); t != nil {
		ts.Time, ts.Valid = *t, true
	}
	return nil
}

// Ptr returns the decoded time, or nil when unset.
func (ts Timestamp) Ptr() *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

// looseString accepts a JSON string, number or boolean and keeps its text.
// Objects, arrays and null decode to "".
type looseString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *looseString) UnmarshalJSON(b []byte) error {
	*s = looseString(store.DecodeText(b))
	return nil
}
