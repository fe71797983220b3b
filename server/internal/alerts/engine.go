package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pingtools/jobtrack/server/internal/config"
	"github.com/pingtools/jobtrack/server/internal/store"
)

const maxHistoryLen = 200

// Reason explains why a job ended up Failed.
type Reason string

const (
	// ReasonTimeout: the sweeper found the job still running past its
	// expected end time.
	ReasonTimeout Reason = "timeout"

	// ReasonReported: the completion event reported a failure, or carried
	// no status at all.
	ReasonReported Reason = "reported"
)

// Alert is one failed-job notification.
type Alert struct {
	ID          string     `json:"id"`
	Token       string     `json:"token"`
	StationName string     `json:"station_name,omitempty"`
	Reason      Reason     `json:"reason"`
	Message     string     `json:"message"`
	ExpectedEnd *time.Time `json:"expected_end,omitempty"`
	FiredAt     time.Time  `json:"fired_at"`
}

// Notifier records failed-job alerts and fans them out to webhooks.
//
// Notifier is safe for concurrent use.
type Notifier struct {
	client *http.Client
	now    func() time.Time

	mu       sync.Mutex
	webhooks []config.WebhookConfig
	history  []Alert

	pending sync.WaitGroup
}

// New creates a Notifier from the alert configuration.
// A Notifier with no webhooks still keeps the history.
func New(cfg config.AlertsConfig) *Notifier {
	return &Notifier{
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
		webhooks: cfg.Webhooks,
	}
}

// SetWebhooks replaces the delivery targets, typically after a config reload.
func (n *Notifier) SetWebhooks(cfg config.AlertsConfig) {
	n.mu.Lock()
	n.webhooks = cfg.Webhooks
	n.mu.Unlock()
}

// JobFailed records an alert for rec and delivers it in the background.
func (n *Notifier) JobFailed(rec store.Record, reason Reason) {
	a := Alert{
		ID:          uuid.NewString(),
		Token:       rec.Token,
		StationName: rec.StationName,
		Reason:      reason,
		ExpectedEnd: rec.ExpectedEndTime,
		FiredAt:     n.now().UTC(),
	}
	a.Message = message(a)

	n.mu.Lock()
	n.history = append(n.history, a)
	if len(n.history) > maxHistoryLen {
		n.history = n.history[len(n.history)-maxHistoryLen:]
	}
	targets := make([]config.WebhookConfig, len(n.webhooks))
	copy(targets, n.webhooks)
	n.mu.Unlock()

	slog.Warn("alert: job failed",
		"token", a.Token,
		"station", a.StationName,
		"reason", a.Reason,
	)

	if len(targets) == 0 {
		return
	}
	n.pending.Add(1)
	go func() {
		defer n.pending.Done()
		n.deliver(targets, a)
	}()
}

// Recent returns the recorded alerts, newest first.
func (n *Notifier) Recent() []Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Alert, len(n.history))
	for i, a := range n.history {
		out[len(out)-1-i] = a
	}
	return out
}

// Wait blocks until every in-flight delivery has finished.
func (n *Notifier) Wait() {
	n.pending.Wait()
}

func message(a Alert) string {
	station := a.StationName
	if station == "" {
		station = "unknown station"
	}
	switch a.Reason {
	case ReasonTimeout:
		if a.ExpectedEnd != nil {
			return fmt.Sprintf("job %s on %s timed out (expected end %s)",
				a.Token, station, a.ExpectedEnd.UTC().Format(time.RFC3339))
		}
		return fmt.Sprintf("job %s on %s timed out", a.Token, station)
	default:
		return fmt.Sprintf("job %s on %s reported failure", a.Token, station)
	}
}
