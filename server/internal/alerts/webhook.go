package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pingtools/jobtrack/server/internal/config"
)

// deliver posts a to every target. Errors are logged and dropped.
func (n *Notifier) deliver(targets []config.WebhookConfig, a Alert) {
	for _, wh := range targets {
		url := wh.URL()
		if url == "" {
			continue
		}

		var err error
		switch wh.Type {
		case "slack":
			err = n.sendSlack(url, a)
		case "teams":
			err = n.sendTeams(url, a)
		case "http":
			err = n.sendHTTP(url, a)
		default:
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		if err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type,
				"token", a.Token,
				"err", err,
			)
		} else {
			slog.Debug("alerts: webhook delivered",
				"type", wh.Type,
				"token", a.Token,
			)
		}
	}
}

func (n *Notifier) sendSlack(url string, a Alert) error {
	body, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf("*%s* %s", reasonLabel(a.Reason), a.Message),
	})
	return n.post(url, body)
}

func (n *Notifier) sendTeams(url string, a Alert) error {
	payload := map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": reasonColor(a.Reason),
		"summary":    "Job failed: " + a.Token,
		"title":      fmt.Sprintf("jobtrack: %s", reasonLabel(a.Reason)),
		"text":       a.Message,
	}
	body, _ := json.Marshal(payload)
	return n.post(url, body)
}

func (n *Notifier) sendHTTP(url string, a Alert) error {
	body, _ := json.Marshal(map[string]interface{}{"alert": a})
	return n.post(url, body)
}

func (n *Notifier) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func reasonLabel(r Reason) string {
	switch r {
	case ReasonTimeout:
		return "[TIMEOUT]"
	default:
		return "[FAILED]"
	}
}

func reasonColor(r Reason) string {
	switch r {
	case ReasonTimeout:
		return "FFAB40"
	default:
		return "FF4F6A"
	}
}
