package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/pingtools/jobtrack/server/internal/alerts"
	"github.com/pingtools/jobtrack/server/internal/store"
)

const maxEventBytes = 1 << 20

const ackMessage = "Request processed successfully"

var validate = validator.New()

// Alerter receives failed-job notifications and exposes the recent ones.
type Alerter interface {
	JobFailed(rec store.Record, reason alerts.Reason)
	Recent() []alerts.Alert
}

// Handler is the HTTP handler for the jobtrack API.
type Handler struct {
	store  *store.Store
	alerts Alerter
	router *mux.Router
}

// New creates a Handler over st and registers all routes. alerter may be nil.
func New(st *store.Store, alerter Alerter) http.Handler {
	h := &Handler{store: st, alerts: alerter, router: mux.NewRouter()}

	h.router.HandleFunc("/api/data", h.ingest).Methods(http.MethodPost)
	h.router.HandleFunc("/api/data", h.listData).Methods(http.MethodGet)
	h.router.HandleFunc("/api/jobs", h.listJobs).Methods(http.MethodGet)
	h.router.HandleFunc("/api/jobs/{token}", h.getJob).Methods(http.MethodGet)
	h.router.HandleFunc("/api/alerts", h.listAlerts).Methods(http.MethodGet)
	h.router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	h.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	h.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// ingest handles POST /api/data.
//
// Every event is acknowledged with 200 Success except one that carries no
// token, which is answered 400 and not stored. A body that does not decode
// as JSON has no readable token, so it takes the same 400.
func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err := dec.Decode(&req); err != nil {
		slog.Debug("api: undecodable event body", "err", err)
		ackErr(w, "request body must be a JSON object")
		return
	}
	if err := validate.Struct(req); err != nil {
		ackErr(w, "ChaineAleatoire is required")
		return
	}

	rec, err := h.store.Submit(req.toEvent())
	switch {
	case errors.Is(err, store.ErrTokenRequired):
		ackErr(w, "ChaineAleatoire is required")
		return
	case errors.Is(err, store.ErrTerminal):
		slog.Info("api: event for finished job ignored",
			"token", rec.Token, "status", rec.Status)
	case err != nil:
		slog.Error("api: submit failed", "token", req.ChaineAleatoire, "err", err)
	default:
		slog.Debug("api: event applied", "token", rec.Token, "status", rec.Status)
		// Creation always yields InProgress, so Failed here comes from a
		// completion event.
		if rec.Status == store.StatusFailed && h.alerts != nil {
			h.alerts.JobFailed(rec, alerts.ReasonReported)
		}
	}

	jsonResp(w, http.StatusOK, AckResponse{Status: "Success", Message: ackMessage})
}

// listData handles GET /api/data: the job map keyed by token.
func (h *Handler) listData(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.store.Snapshot())
}

// listJobs handles GET /api/jobs.
func (h *Handler) listJobs(w http.ResponseWriter, _ *http.Request) {
	recs := h.store.List()
	out := make([]JobResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, JobResponse{Token: rec.Token, Record: rec})
	}
	jsonResp(w, http.StatusOK, out)
}

// getJob handles GET /api/jobs/{token}.
func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	rec, ok := h.store.Get(token)
	if !ok {
		jsonErr(w, http.StatusNotFound, "job not found")
		return
	}
	jsonResp(w, http.StatusOK, JobResponse{Token: rec.Token, Record: rec})
}

// listAlerts handles GET /api/alerts.
func (h *Handler) listAlerts(w http.ResponseWriter, _ *http.Request) {
	if h.alerts == nil {
		jsonResp(w, http.StatusOK, []alerts.Alert{})
		return
	}
	jsonResp(w, http.StatusOK, h.alerts.Recent())
}

// health handles GET /healthz.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, HealthResponse{Status: "ok", Jobs: h.store.Count()})
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// ackErr answers an unusable event in the acknowledgement shape clients parse.
func ackErr(w http.ResponseWriter, msg string) {
	jsonResp(w, http.StatusBadRequest, AckResponse{Status: "Error", Message: msg})
}
