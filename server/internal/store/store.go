package store

import (
	"errors"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// Persister mirrors the full record map to durable storage.
//
// Save is called with the store lock held and must not retain data after it
// returns. Load is called once at startup.
type Persister interface {
	Load() (map[string]*Record, error)
	Save(data map[string]*Record) error
}

// Stats is a point-in-time view of the store, used by the metrics endpoint.
type Stats struct {
	ByStatus        map[Status]int
	Events          uint64
	Rejected        uint64
	Ignored         uint64
	Sweeps          uint64
	Expired         uint64
	Persists        uint64
	PersistFailures uint64
}

// Store is the single owner of the token to Record map.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	data    map[string]*Record
	persist Persister

	events          uint64
	rejected        uint64
	ignored         uint64
	sweeps          uint64
	expired         uint64
	persists        uint64
	persistFailures uint64
}

// New creates an empty Store. A nil Persister keeps the store memory-only.
func New(p Persister) *Store {
	return &Store{
		data:    make(map[string]*Record),
		persist: p,
	}
}

// Load replaces the in-memory map with the persisted state and returns the
// number of records loaded. A missing, unreadable or malformed file leaves
// the store empty; Load never fails.
func (s *Store) Load() int {
	if s.persist == nil {
		return 0
	}

	data, err := s.persist.Load()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Info("store: no state file yet, starting empty")
		data = nil
	case err != nil:
		slog.Warn("store: state file unusable, starting empty", "err", err)
		data = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]*Record, len(data))
	for token, rec := range data {
		if rec == nil || strings.TrimSpace(token) == "" {
			continue
		}
		rec.Token = token
		if st := ParseStatus(string(rec.Status)); st != "" {
			rec.Status = st
		} else {
			rec.Status = StatusInProgress
		}
		s.data[token] = rec
	}
	return len(s.data)
}

// Submit applies ev and persists the result before returning.
//
// An unseen token creates an InProgress record from the event's station name,
// start time and expected end time; any status in the event is ignored. A
// known InProgress token takes the event's actual end time and status, with
// Failed standing in for a missing status. A terminal record is returned
// unchanged together with ErrTerminal.
func (s *Store) Submit(ev Event) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(ev.Token) == "" {
		s.rejected++
		return Record{}, ErrTokenRequired
	}
	s.events++

	rec, ok := s.data[ev.Token]
	switch {
	case !ok:
		rec = &Record{
			Token:           ev.Token,
			StationName:     ev.StationName,
			StartTime:       ev.StartTime,
			ExpectedEndTime: ev.ExpectedEndTime,
			Status:          StatusInProgress,
		}
		s.data[ev.Token] = rec
	case rec.Status.Terminal():
		s.ignored++
		return *rec, ErrTerminal
	default:
		rec.ActualEndTime = ev.ActualEndTime
		rec.Status = ParseStatus(ev.Status)
		if rec.Status == "" {
			rec.Status = StatusFailed
		}
	}

	s.persistLocked()
	return *rec, nil
}

// ExpireOverdue marks every overdue InProgress record as Failed, persists the
// map unconditionally and returns the records it changed, ordered by token.
func (s *Store) ExpireOverdue(now time.Time) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweeps++
	var out []Record
	for _, rec := range s.data {
		if rec.Overdue(now) {
			rec.Status = StatusFailed
			out = append(out, *rec)
		}
	}
	s.expired += uint64(len(out))
	s.persistLocked()

	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out
}

// Get returns a copy of the record for token.
func (s *Store) Get(token string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[token]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// List returns copies of all records, newest start time first. Records
// without a start time sort last; ties are broken by token.
func (s *Store) List() []Record {
	s.mu.RLock()
	out := make([]Record, 0, len(s.data))
	for _, rec := range s.data {
		out = append(out, *rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].StartTime, out[j].StartTime
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].Token < out[j].Token
	})
	return out
}

// Snapshot returns a copy of the full map keyed by token.
func (s *Store) Snapshot() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Record, len(s.data))
	for token, rec := range s.data {
		out[token] = *rec
	}
	return out
}

// Count returns the number of tracked records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Stats returns record counts by status and the store's lifetime counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		ByStatus:        make(map[Status]int),
		Events:          s.events,
		Rejected:        s.rejected,
		Ignored:         s.ignored,
		Sweeps:          s.sweeps,
		Expired:         s.expired,
		Persists:        s.persists,
		PersistFailures: s.persistFailures,
	}
	for _, rec := range s.data {
		st.ByStatus[rec.Status]++
	}
	return st
}

func (s *Store) persistLocked() {
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(s.data); err != nil {
		s.persistFailures++
		slog.Error("store: persist failed, keeping in-memory state", "err", err)
		return
	}
	s.persists++
}
