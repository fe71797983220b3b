// Package api implements the jobtrack HTTP API.
//
// New(store, notifier) returns an http.Handler that serves:
//
//	POST /api/data           ingest a status event; always 200 {"Status":"Success"}
//	                         unless the token is missing or the body is not JSON (400)
//	GET  /api/data           every job as an object keyed by token
//	GET  /api/jobs           every job as a list, newest start time first
//	GET  /api/jobs/{token}   one job; 404 if unknown
//	GET  /api/alerts         recent failed-job alerts, newest first
//	GET  /healthz            liveness with the tracked job count
//
// The only rejected event is one without a token: an empty or blank
// ChaineAleatoire, or a body that is not JSON and so has no readable token.
//
// Inbound event bodies use the reporting client's field names
// (ChaineAleatoire, NomDuPoste, DateDebut, DateFinTheorique, DateFinReelle,
// Statut). Decoding is lenient: timestamps that do not parse and fields of an
// unexpected JSON type are stored as absent rather than rejected.
//
// Routing uses gorilla/mux; unmatched paths and methods answer with a JSON
// error body.
package api
