// Package shipper posts job status events to jobtrack-server.
//
// Shipper.Send() marshals an Event to the POST /api/data body and retries
// network errors and 5xx responses with truncated exponential backoff
// (retry.initial doubling to retry.max, ±25% jitter) for up to
// retry.attempts sends. A 4xx or a non-success acknowledgement is permanent
// and returned as ErrRejected without retrying.
//
// https server URLs may use a private CA and a client certificate.
package shipper
