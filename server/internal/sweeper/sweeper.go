package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pingtools/jobtrack/server/internal/alerts"
	"github.com/pingtools/jobtrack/server/internal/store"
)

// Notifier is told about every job a sweep marks as Failed.
type Notifier interface {
	JobFailed(rec store.Record, reason alerts.Reason)
}

// Sweeper fails overdue jobs on a fixed interval.
type Sweeper struct {
	store    *store.Store
	interval time.Duration
	notify   Notifier
	now      func() time.Time // injectable for deterministic tests
}

// New creates a Sweeper over st. A nil Notifier disables notifications.
func New(st *store.Store, interval time.Duration, n Notifier) *Sweeper {
	return &Sweeper{
		store:    st,
		interval: interval,
		notify:   n,
		now:      time.Now,
	}
}

// Tick runs one sweep at now and returns the jobs it failed.
func (s *Sweeper) Tick(now time.Time) []store.Record {
	expired := s.store.ExpireOverdue(now)
	if len(expired) > 0 {
		slog.Info("sweeper: jobs timed out", "count", len(expired))
	} else {
		slog.Debug("sweeper: nothing overdue")
	}
	if s.notify != nil {
		for _, rec := range expired {
			s.notify.JobFailed(rec, alerts.ReasonTimeout)
		}
	}
	return expired
}

// Run schedules Tick every interval and blocks until ctx is cancelled. The
// first sweep happens one interval after Run starts. On return any sweep in
// progress has completed.
func (s *Sweeper) Run(ctx context.Context) {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(cron.Every(s.interval), cron.FuncJob(func() {
		s.Tick(s.now())
	}))

	slog.Info("sweeper: started", "interval", s.interval)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("sweeper: stopped")
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("sweeper: cron "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("sweeper: cron "+msg, append([]interface{}{"err", err}, keysAndValues...)...)
}
