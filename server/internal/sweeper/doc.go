// Package sweeper runs the periodic timeout sweep over the job store.
//
// Each tick captures the current time, lets the store fail every InProgress
// record whose expected end time has passed (persisting the map whether or
// not anything changed) and reports the expired jobs to the notifier.
// Scheduling uses robfig/cron with a constant-delay schedule; overlapping
// ticks are skipped.
package sweeper
