package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_Unmarshal(t *testing.T) {
	want := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	cases := []struct {
		in    string
		valid bool
	}{
		{`"2026-03-02T08:00:00Z"`, true},
		{`"2026-03-02T09:00:00+01:00"`, true},
		{`"2026-03-02T08:00:00.000Z"`, true},
		{`"2026-03-02T08:00:00"`, true},
		{`"2026-03-02 08:00:00"`, true},
		{`1772438400000`, true},
		{`"1772438400000"`, true},
		{`null`, false},
		{`""`, false},
		{`"yesterday"`, false},
		{`1e300`, false},
		{`-1e300`, false},
		{`9.3e18`, false},
		{`"99999999999999999"`, false},
		{`true`, false},
		{`{}`, false},
	}
	for _, c := range cases {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(c.in), &ts), c.in)
		assert.Equal(t, c.valid, ts.Valid, c.in)
		if c.valid {
			assert.True(t, ts.Time.Equal(want), "%s: got %v", c.in, ts.Time)
			require.NotNil(t, ts.Ptr())
		} else {
			assert.Nil(t, ts.Ptr(), c.in)
		}
	}
}

func TestTimestamp_DateOnly(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-02"`), &ts))
	assert.True(t, ts.Valid)
	assert.True(t, ts.Time.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))
}

func TestLooseString_Unmarshal(t *testing.T) {
	cases := map[string]looseString{
		`"abc"`:     "abc",
		`42`:        "42",
		`4.5`:       "4.5",
		`true`:      "true",
		`null`:      "",
		`{"a":1}`:   "",
		`[1,2]`:     "",
		`"Échec"`:   "Échec",
		`"a\"b"`:    `a"b`,
	}
	for in, want := range cases {
		var s looseString
		require.NoError(t, json.Unmarshal([]byte(in), &s), in)
		assert.Equal(t, want, s, in)
	}
}

func TestEventRequest_MissingFieldsStayAbsent(t *testing.T) {
	var req EventRequest
	require.NoError(t, json.Unmarshal([]byte(`{"ChaineAleatoire":"abc"}`), &req))

	ev := req.toEvent()
	assert.Equal(t, "abc", ev.Token)
	assert.Nil(t, ev.StartTime)
	assert.Nil(t, ev.ExpectedEndTime)
	assert.Nil(t, ev.ActualEndTime)
	assert.Empty(t, ev.Status)
}
