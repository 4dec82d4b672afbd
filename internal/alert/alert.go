// Package alert posts webhook notifications for noteworthy log events.
package alert

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rag-engine/ragctl/internal/logger"
)

// Config controls when an alert fires.
type Config struct {
	WebhookURL string
	LatencyMs  float64 // threshold in ms; used only when hasLatency is set
	hasLatency bool
}

// FromEnv builds a Config from RAG_ALERT_WEBHOOK and RAG_ALERT_LATENCY_MS.
func FromEnv() Config {
	cfg := Config{WebhookURL: os.Getenv("RAG_ALERT_WEBHOOK")}
	if v := os.Getenv("RAG_ALERT_LATENCY_MS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.LatencyMs = f
			cfg.hasLatency = true
		}
	}
	return cfg
}

// Notifier posts alerts for events exceeding the configured latency
// threshold or whose name ends in "_error".
type Notifier struct {
	cfg    Config
	client *http.Client
}

// New constructs a Notifier and wires it into the logger as the global
// alert hook, matching spec §7's "emit an alert when..." policy.
func New(cfg Config) *Notifier {
	n := &Notifier{cfg: cfg, client: &http.Client{Timeout: 5 * time.Second}}
	if cfg.WebhookURL != "" {
		logger.SetAlertHook(n.Handle)
	}
	return n
}

// Handle is invoked by logger.Event for every emitted event.
func (n *Notifier) Handle(event string, fields map[string]any) {
	if n.cfg.WebhookURL == "" {
		return
	}
	if !n.shouldAlert(event, fields) {
		return
	}
	n.post(event, fields)
}

func (n *Notifier) shouldAlert(event string, fields map[string]any) bool {
	if strings.HasSuffix(event, "_error") {
		return true
	}
	if !n.cfg.hasLatency {
		return false
	}
	for k, v := range fields {
		if !strings.HasPrefix(k, "latency_") || !strings.HasSuffix(k, "_ms") {
			continue
		}
		if f, ok := toFloat(v); ok && f > n.cfg.LatencyMs {
			return true
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func (n *Notifier) post(event string, fields map[string]any) {
	payload := map[string]any{"event": event}
	for k, v := range fields {
		payload[k] = v
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	req, err := http.NewRequest(http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		logger.Warn("alert webhook delivery failed", "error", err)
		return
	}
	resp.Body.Close()
}
