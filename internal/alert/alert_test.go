package alert

import "testing"

func TestShouldAlertOnErrorSuffix(t *testing.T) {
	n := &Notifier{cfg: Config{WebhookURL: "http://example.invalid"}}
	if !n.shouldAlert("fetch_url_error", nil) {
		t.Errorf("expected alert on _error-suffixed event")
	}
	if n.shouldAlert("fetch_url_ok", nil) {
		t.Errorf("did not expect alert on non-error event with no latency threshold")
	}
}

func TestShouldAlertOnLatencyThreshold(t *testing.T) {
	n := &Notifier{cfg: Config{WebhookURL: "http://example.invalid", LatencyMs: 100, hasLatency: true}}
	tests := []struct {
		name   string
		fields map[string]any
		want   bool
	}{
		{"under threshold", map[string]any{"latency_total_ms": 50.0}, false},
		{"over threshold", map[string]any{"latency_total_ms": 150.0}, true},
		{"non-latency field ignored", map[string]any{"count": 999.0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.shouldAlert("query", tt.fields); got != tt.want {
				t.Errorf("shouldAlert() = %v, want %v", got, tt.want)
			}
		})
	}
}
