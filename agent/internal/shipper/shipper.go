package shipper

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pingtools/jobtrack/agent/internal/config"
)

const (
	backoffMultiplier = 2.0
	maxAckBytes       = 64 << 10
	ingestPath        = "/api/data"
)

// ErrRejected is returned when the server refuses an event. Rejections are
// not retried.
var ErrRejected = errors.New("shipper: event rejected")

// Event is the body of POST /api/data.
type Event struct {
	Token           string     `json:"ChaineAleatoire"`
	Station         string     `json:"NomDuPoste,omitempty"`
	StartTime       *time.Time `json:"DateDebut,omitempty"`
	ExpectedEndTime *time.Time `json:"DateFinTheorique,omitempty"`
	ActualEndTime   *time.Time `json:"DateFinReelle,omitempty"`
	Status          string     `json:"Statut,omitempty"`
}

type ack struct {
	Status  string `json:"Status"`
	Message string `json:"Message"`
}

// Shipper delivers events to jobtrack-server. Send retries transient
// failures with truncated exponential backoff.
type Shipper struct {
	cfg    config.ReporterConfig
	url    string
	client *http.Client
}

// New creates a Shipper for cfg. It fails only when the TLS material cannot
// be loaded.
func New(cfg config.ReporterConfig) (*Shipper, error) {
	tlsCfg, err := buildTLSConfig(cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("shipper: build tls config: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsCfg

	return &Shipper{
		cfg:    cfg,
		url:    strings.TrimRight(cfg.ServerURL, "/") + ingestPath,
		client: &http.Client{Transport: transport, Timeout: cfg.SendTimeout},
	}, nil
}

// Send posts ev, retrying network errors and 5xx responses up to
// cfg.Retry.Attempts times. It returns ErrRejected (wrapped) on a 4xx or a
// non-success acknowledgement, and ctx.Err() if ctx ends while waiting.
func (s *Shipper) Send(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("shipper: encode event: %w", err)
	}

	bo := newBackoff(s.cfg.Retry.Initial, s.cfg.Retry.Max)
	var lastErr error
	for attempt := 1; attempt <= s.cfg.Retry.Attempts; attempt++ {
		lastErr = s.post(ctx, body)
		if lastErr == nil {
			slog.Debug("shipper: event delivered", "token", ev.Token, "status", ev.Status, "attempt", attempt)
			return nil
		}
		if errors.Is(lastErr, ErrRejected) {
			return lastErr
		}
		if attempt == s.cfg.Retry.Attempts {
			break
		}

		wait := bo.next()
		slog.Warn("shipper: send failed, will retry",
			"url", s.url,
			"token", ev.Token,
			"attempt", attempt,
			"err", lastErr,
			"retry_in", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("shipper: giving up after %d attempts: %w", s.cfg.Retry.Attempts, lastErr)
}

// post performs one delivery attempt.
func (s *Shipper) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	var a ack
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxAckBytes)).Decode(&a)

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("post: server returned %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: %d %s", ErrRejected, resp.StatusCode, a.Message)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("post: unexpected status %d", resp.StatusCode)
	case decodeErr != nil:
		return fmt.Errorf("post: decode ack: %w", decodeErr)
	case a.Status != "Success":
		return fmt.Errorf("%w: %s", ErrRejected, a.Message)
	}
	return nil
}

// buildTLSConfig loads the optional client certificate and CA from cfg.
// It returns nil when nothing is configured so the transport keeps its
// defaults.
func buildTLSConfig(cfg config.TLSConfig) (*tls.Config, error) {
	if cfg.CAFile == "" && cfg.CertFile == "" && !cfg.InsecureSkipVerify {
		return nil, nil
	}

	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}

	if cfg.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}

	if cfg.CAFile != "" {
		caPEM, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("no valid certs in ca file %q", cfg.CAFile)
		}
		tlsCfg.RootCAs = pool
	}

	return tlsCfg, nil
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	current time.Duration
	max     time.Duration
}

func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{current: initial, max: max}
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	// Apply ±25 % jitter.
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > b.max {
		b.current = b.max
	}
	return d
}
