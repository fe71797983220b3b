// Package web serves the human-facing job listing.
//
// GET / renders every tracked job (token, station, start, expected end and
// status) from an embedded template. The page script under /static/ then
// follows /ws/stream and falls back to polling /api/data every refresh
// interval when the socket is unavailable.
package web
