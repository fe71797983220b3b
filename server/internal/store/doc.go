// Package store owns the job tracking state: an in-memory map of token to
// Record mirrored to a single JSON file after every mutation.
//
// Submit applies an inbound event. The first event for a token creates an
// InProgress record; the next one records the actual end time and the reported
// status (Failed when none is given). Records in a terminal status ignore
// further events.
//
// ExpireOverdue is the timeout sweep step: every InProgress record whose
// expected end time is before now becomes Failed. The map is persisted after
// every sweep whether or not anything changed.
//
// Mutation and persistence happen under the same lock, so the file always
// holds a state the map actually passed through. A failed write is logged and
// counted; memory stays authoritative for the life of the process.
package store
