package api

import (
	"time"

	"github.com/pingtools/jobtrack/server/internal/store"
)

// EventRequest is the body of POST /api/data.
type EventRequest struct {
	ChaineAleatoire  looseString `json:"ChaineAleatoire" validate:"required"`
	NomDuPoste       looseString `json:"NomDuPoste"`
	DateDebut        Timestamp   `json:"DateDebut"`
	DateFinTheorique Timestamp   `json:"DateFinTheorique"`
	DateFinReelle    Timestamp   `json:"DateFinReelle"`
	Statut           looseString `json:"Statut"`
}

// toEvent maps the wire request onto a store event.
func (r EventRequest) toEvent() store.Event {
	return store.Event{
		Token:           string(r.ChaineAleatoire),
		StationName:     string(r.NomDuPoste),
		StartTime:       r.DateDebut.Ptr(),
		ExpectedEndTime: r.DateFinTheorique.Ptr(),
		ActualEndTime:   r.DateFinReelle.Ptr(),
		Status:          string(r.Statut),
	}
}

// AckResponse is the body returned by POST /api/data.
type AckResponse struct {
	Status  string `json:"Status"`
	Message string `json:"Message"`
}

// JobResponse is one job in GET /api/jobs and GET /api/jobs/{token}.
type JobResponse struct {
	Token string `json:"ChaineAleatoire"`
	store.Record
}

// ListingResponse is the full job map with the time it was taken. The
// WebSocket hub sends the same payload.
type ListingResponse struct {
	Jobs        map[string]store.Record `json:"jobs"`
	GeneratedAt string                  `json:"generated_at"` // RFC3339
}

// HealthResponse is the payload for GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Jobs   int    `json:"jobs"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

// BuildListing captures the current job map from st.
func BuildListing(st *store.Store) ListingResponse {
	return ListingResponse{
		Jobs:        st.Snapshot(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}
