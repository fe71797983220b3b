package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTime(t *testing.T) {
	want := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	cases := map[string]bool{
		`"2026-03-02T08:00:00Z"`:      true,
		`"2026-03-02T09:00:00+01:00"`: true,
		`"2026-03-02T08:00:00"`:       true,
		`"2026-03-02 08:00:00"`:       true,
		`1772438400000`:               true,
		`1772438400000.0`:             true,
		`"1772438400000"`:             true,
		``:                            false,
		`null`:                        false,
		`""`:                          false,
		`"garbage"`:                   false,
		`false`:                       false,
		`1e300`:                       false,
		`-1e300`:                      false,
		`9.3e18`:                      false,
		`1e15`:                        false, // year 33658 cannot be written back
		`"10000-01-01T00:00:00Z"`:     false,
	}
	for in, valid := range cases {
		got := DecodeTime([]byte(in))
		if !valid {
			assert.Nil(t, got, "%s", in)
			continue
		}
		require.NotNil(t, got, "%s", in)
		assert.True(t, got.Equal(want), "%s: got %v", in, got)
	}
}

func TestDecodeTime_DateOnly(t *testing.T) {
	got := DecodeTime([]byte(`"2026-03-02"`))
	require.NotNil(t, got)
	assert.True(t, got.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))
}

func TestDecodeText(t *testing.T) {
	cases := map[string]string{
		`"PC-01"`: "PC-01",
		`42`:      "42",
		`true`:    "true",
		`null`:    "",
		``:        "",
		`{"a":1}`: "",
		`[1]`:     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, DecodeText([]byte(in)), "%s", in)
	}
}

func TestRecord_UnmarshalLenient(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{
		"NomDuPoste": 42,
		"DateDebut": "2026-03-02 08:00:00",
		"DateFinTheorique": 1772439000000,
		"DateFinReelle": "not a date",
		"Statut": "Échec"
	}`), &rec))

	assert.Equal(t, "42", rec.StationName)
	require.NotNil(t, rec.StartTime)
	assert.True(t, rec.StartTime.Equal(t0))
	require.NotNil(t, rec.ExpectedEndTime)
	assert.True(t, rec.ExpectedEndTime.Equal(t0.Add(10*time.Minute)))
	assert.Nil(t, rec.ActualEndTime)
	assert.Equal(t, Status("Échec"), rec.Status, "aliases are resolved by Store.Load")
}

func TestRecord_UnmarshalNotObject(t *testing.T) {
	var rec Record
	assert.Error(t, json.Unmarshal([]byte(`"just a string"`), &rec))
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &rec))
}
