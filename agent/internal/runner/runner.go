package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"github.com/pingtools/jobtrack/agent/internal/shipper"
)

// Status values sent as Statut.
const (
	StatusInProgress = "InProgress"
	StatusSucceeded  = "Succeeded"
	StatusFailed     = "Failed"
)

// completionTimeout bounds the final report after the command exits.
const completionTimeout = 2 * time.Minute

// Sender delivers one event. *shipper.Shipper satisfies it.
type Sender interface {
	Send(ctx context.Context, ev shipper.Event) error
}

// Result describes one finished run.
type Result struct {
	Token    string
	Status   string
	ExitCode int // -1 when the command could not be started
	Started  time.Time
	Ended    time.Time
}

// Runner runs commands and reports them through a Sender.
type Runner struct {
	sender   Sender
	station  string
	expected time.Duration

	// Stdout and Stderr receive the command's output. Default: os.Stdout/os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	now      func() time.Time
	newToken func() string
}

// New creates a Runner that reports as station and expects each command to
// finish within expected.
func New(sender Sender, station string, expected time.Duration) *Runner {
	return &Runner{
		sender:   sender,
		station:  station,
		expected: expected,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

// Run executes name with args. A failed start report is logged and the
// command still runs; the returned error is non-nil only when the
// completion report could not be delivered.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	res := Result{Token: r.newToken(), Started: r.now().UTC()}
	expectedEnd := res.Started.Add(r.expected)

	log := slog.With("token", res.Token, "command", name)

	err := r.sender.Send(ctx, shipper.Event{
		Token:           res.Token,
		Station:         r.station,
		StartTime:       &res.Started,
		ExpectedEndTime: &expectedEnd,
		Status:          StatusInProgress,
	})
	if err != nil {
		log.Warn("runner: start report failed, running anyway", "err", err)
	} else {
		log.Info("runner: job started", "expected_end", expectedEnd)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	runErr := cmd.Run()

	res.Ended = r.now().UTC()
	res.Status, res.ExitCode = outcome(runErr)
	if runErr != nil {
		log.Warn("runner: command failed", "exit_code", res.ExitCode, "err", runErr)
	}

	// Report even if ctx was cancelled: an interrupted job is a failed job.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), completionTimeout)
	defer cancel()
	err = r.sender.Send(sendCtx, shipper.Event{
		Token:         res.Token,
		Station:       r.station,
		ActualEndTime: &res.Ended,
		Status:        res.Status,
	})
	if err != nil {
		return res, fmt.Errorf("runner: completion report: %w", err)
	}

	log.Info("runner: job finished", "status", res.Status, "duration", res.Ended.Sub(res.Started))
	return res, nil
}

// outcome maps the command error to a status and exit code.
func outcome(err error) (string, int) {
	if err == nil {
		return StatusSucceeded, 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return StatusFailed, exitErr.ExitCode()
	}
	return StatusFailed, -1
}
