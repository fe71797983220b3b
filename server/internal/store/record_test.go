package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"":            "",
		"   ":         "",
		"Succeeded":   StatusSucceeded,
		"succeeded":   StatusSucceeded,
		"SUCCESS":     StatusSucceeded,
		"Réussi":      StatusSucceeded,
		"Failed":      StatusFailed,
		"Échec":       StatusFailed,
		"echec":       StatusFailed,
		"En Cours":    StatusInProgress,
		"InProgress":  StatusInProgress,
		" Failed ":    StatusFailed,
		"Partial":     Status("Partial"),
		"custom-code": Status("custom-code"),
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseStatus(in), "ParseStatus(%q)", in)
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusSucceeded.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, Status("Partial").Terminal())
}

func TestRecord_Overdue(t *testing.T) {
	now := t0.Add(time.Hour)

	assert.True(t, (&Record{Status: StatusInProgress, ExpectedEndTime: at(time.Minute)}).Overdue(now))
	assert.False(t, (&Record{Status: StatusInProgress, ExpectedEndTime: at(time.Hour)}).Overdue(now), "equal is not overdue")
	assert.False(t, (&Record{Status: StatusInProgress, ExpectedEndTime: at(2 * time.Hour)}).Overdue(now))
	assert.False(t, (&Record{Status: StatusInProgress}).Overdue(now))
	assert.False(t, (&Record{Status: StatusSucceeded, ExpectedEndTime: at(time.Minute)}).Overdue(now))
}
