// Package runner wraps a command with jobtrack status reports.
//
// Runner.Run generates a random token, reports the job as InProgress with
// an expected end time, runs the command, then reports Succeeded or Failed
// with the actual end time. The completion report is sent even when the
// caller's context is cancelled so an interrupted job shows up as Failed
// right away instead of waiting for the server's timeout sweep.
package runner
