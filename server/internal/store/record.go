package store

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Status is the lifecycle state of a tracked job.
//
// The values are persisted in the state file and served by the API.
type Status string

const (
	StatusInProgress Status = "InProgress"
	StatusSucceeded  Status = "Succeeded"
	StatusFailed     Status = "Failed"
)

// Terminal reports whether s is a final status. Anything other than
// InProgress is final, including unrecognised values reported by clients.
func (s Status) Terminal() bool {
	return s != StatusInProgress
}

// statusAliases maps lower-cased inbound labels to canonical statuses.
// The French labels are what the first reporting clients sent.
var statusAliases = map[string]Status{
	"inprogress":  StatusInProgress,
	"in_progress": StatusInProgress,
	"running":     StatusInProgress,
	"en cours":    StatusInProgress,
	"succeeded":   StatusSucceeded,
	"success":     StatusSucceeded,
	"succès":      StatusSucceeded,
	"succes":      StatusSucceeded,
	"réussi":      StatusSucceeded,
	"reussi":      StatusSucceeded,
	"failed":      StatusFailed,
	"failure":     StatusFailed,
	"échec":       StatusFailed,
	"echec":       StatusFailed,
}

// ParseStatus normalises a reported status label. Known labels map to the
// canonical constants; any other non-empty value is kept verbatim. An empty
// or blank label returns "".
func ParseStatus(s string) Status {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	if st, ok := statusAliases[strings.ToLower(trimmed)]; ok {
		return st
	}
	return Status(trimmed)
}

// Record is the tracked state of one job. The token is the map key in the
// state file, so it is not repeated in the JSON body.
type Record struct {
	Token           string     `json:"-"`
	StationName     string     `json:"NomDuPoste"`
	StartTime       *time.Time `json:"DateDebut,omitempty"`
	ExpectedEndTime *time.Time `json:"DateFinTheorique,omitempty"`
	ActualEndTime   *time.Time `json:"DateFinReelle,omitempty"`
	Status          Status     `json:"Statut"`
}

// UnmarshalJSON decodes a record leniently. Timestamps go through
// DecodeTime and text fields through DecodeText, so a field in an older or
// unexpected format comes back absent instead of failing the whole record.
// Only a value that is not a JSON object is an error.
func (r *Record) UnmarshalJSON(b []byte) error {
	var raw struct {
		StationName     json.RawMessage `json:"NomDuPoste"`
		StartTime       json.RawMessage `json:"DateDebut"`
		ExpectedEndTime json.RawMessage `json:"DateFinTheorique"`
		ActualEndTime   json.RawMessage `json:"DateFinReelle"`
		Status          json.RawMessage `json:"Statut"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = Record{
		StationName:     DecodeText(raw.StationName),
		StartTime:       DecodeTime(raw.StartTime),
		ExpectedEndTime: DecodeTime(raw.ExpectedEndTime),
		ActualEndTime:   DecodeTime(raw.ActualEndTime),
		Status:          Status(DecodeText(raw.Status)),
	}
	return nil
}

// Overdue reports whether r is still InProgress and its expected end time is
// strictly before now. A record without an expected end time is never overdue.
func (r *Record) Overdue(now time.Time) bool {
	return r.Status == StatusInProgress &&
		r.ExpectedEndTime != nil &&
		r.ExpectedEndTime.Before(now)
}

// Event is one inbound status report. Only Token is required; every other
// field may be empty.
type Event struct {
	Token           string
	StationName     string
	StartTime       *time.Time
	ExpectedEndTime *time.Time
	ActualEndTime   *time.Time
	Status          string
}

var (
	// ErrTokenRequired is returned by Submit when the event has no token.
	ErrTokenRequired = errors.New("store: token is required")

	// ErrTerminal is returned by Submit when the addressed record already
	// holds a terminal status. The record is returned unchanged.
	ErrTerminal = errors.New("store: record is in a terminal status")
)
