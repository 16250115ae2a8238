package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wardwatch/wardwatch/internal/config"
	"github.com/wardwatch/wardwatch/internal/telemetry"
	"github.com/wardwatch/wardwatch/internal/triage"
	"github.com/wardwatch/wardwatch/pkg/plugin"
	"github.com/wardwatch/wardwatch/pkg/plugin/plugintest"
	"github.com/wardwatch/wardwatch/pkg/vitals"
)

func TestContract(t *testing.T) {
	plugintest.TestPluginContract(t, func() plugin.Plugin { return New() })
}

// initModule builds a webhook module pointed at url with the given extra
// config values.
func initModule(t *testing.T, url string, extra map[string]any) *Module {
	t.Helper()

	v := viper.New()
	if url != "" {
		v.Set("url", url)
	}
	v.Set("timeout", "5s")
	for k, val := range extra {
		v.Set(k, val)
	}

	m := New()
	if err := m.Init(context.Background(), plugin.Dependencies{
		Logger: zap.NewNop(),
		Config: config.New(v),
	}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return m
}

// captureServer records every payload POSTed to it.
type captureServer struct {
	mu       sync.Mutex
	received []Payload
	srv      *httptest.Server
}

func newCaptureServer(t *testing.T) *captureServer {
	t.Helper()

	c := &captureServer{}
	c.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		c.mu.Lock()
		c.received = append(c.received, p)
		c.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(c.srv.Close)
	return c
}

func (c *captureServer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

func TestSubscriptions_ReturnsExpectedTopics(t *testing.T) {
	m := New()
	if err := m.Init(context.Background(), plugin.Dependencies{Logger: zap.NewNop()}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	subs := m.Subscriptions()
	if len(subs) != 3 {
		t.Fatalf("Subscriptions() returned %d, want 3", len(subs))
	}

	topics := make(map[string]bool)
	for _, s := range subs {
		if s.Handler == nil {
			t.Errorf("subscription %q has nil handler", s.Topic)
		}
		topics[s.Topic] = true
	}

	expected := []string{
		triage.TopicAlertTriggered,
		triage.TopicAlertResolved,
		telemetry.TopicDeviceStale,
	}
	for _, topic := range expected {
		if !topics[topic] {
			t.Errorf("missing subscription for topic %q", topic)
		}
	}
}

func TestAlertDelivery_RespectsMinSeverity(t *testing.T) {
	tests := []struct {
		name        string
		severity    vitals.Severity
		minSeverity string // empty = default (HIGH)
		want        bool
	}{
		{name: "critical passes default", severity: vitals.SeverityCritical, want: true},
		{name: "high passes default", severity: vitals.SeverityHigh, want: true},
		{name: "medium dropped by default", severity: vitals.SeverityMedium, want: false},
		{name: "medium passes low floor", severity: vitals.SeverityMedium, minSeverity: "LOW", want: true},
		{name: "high dropped by critical floor", severity: vitals.SeverityHigh, minSeverity: "CRITICAL", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			capture := newCaptureServer(t)

			extra := map[string]any{}
			if tc.minSeverity != "" {
				extra["min_severity"] = tc.minSeverity
			}
			m := initModule(t, capture.srv.URL, extra)

			m.handleAlertEvent(context.Background(), plugin.Event{
				Topic:     triage.TopicAlertTriggered,
				Source:    "triage",
				Timestamp: time.Now(),
				Payload: &vitals.AlertRecord{
					ID:            "al-1",
					DeviceID:      "bed-2",
					SeverityLevel: tc.severity,
					Message:       "test alert",
				},
			})

			got := capture.count() == 1
			if got != tc.want {
				t.Errorf("delivered = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDeliver_SendsEnvelope(t *testing.T) {
	var mu sync.Mutex
	var received []Payload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("User-Agent") != "WardWatch-Webhook/0.1" {
			t.Errorf("User-Agent = %q, want WardWatch-Webhook/0.1", r.Header.Get("User-Agent"))
		}
		var p Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		received = append(received, p)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := initModule(t, srv.URL, nil)

	m.handleAlertEvent(context.Background(), plugin.Event{
		Topic:     triage.TopicAlertTriggered,
		Source:    "triage",
		Timestamp: time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC),
		Payload: &vitals.AlertRecord{
			ID:            "al-7",
			DeviceID:      "bed-4",
			SeverityLevel: vitals.SeverityCritical,
			Message:       "CRITICAL alert for bed-4: hypoxemia_critical",
		},
	})

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("received %d webhooks, want 1", len(received))
	}
	p := received[0]
	if p.Event != triage.TopicAlertTriggered {
		t.Errorf("event = %q, want %q", p.Event, triage.TopicAlertTriggered)
	}
	if p.Source != "triage" {
		t.Errorf("source = %q, want triage", p.Source)
	}
	if p.Timestamp != "2025-06-10T08:00:00Z" {
		t.Errorf("timestamp = %q, want 2025-06-10T08:00:00Z", p.Timestamp)
	}
	data, ok := p.Data.(map[string]any)
	if !ok {
		t.Fatalf("data is %T, want object", p.Data)
	}
	if data["device_id"] != "bed-4" {
		t.Errorf("data.device_id = %v, want bed-4", data["device_id"])
	}
}

func TestDeviceStale_BypassesSeverityFilter(t *testing.T) {
	capture := newCaptureServer(t)
	m := initModule(t, capture.srv.URL, map[string]any{"min_severity": "CRITICAL"})

	m.handleDeviceEvent(context.Background(), plugin.Event{
		Topic:     telemetry.TopicDeviceStale,
		Source:    "telemetry",
		Timestamp: time.Now(),
		Payload: telemetry.DeviceStaleEvent{
			DeviceID: "room-12",
			Kind:     "room_sensor",
			LastSeen: time.Now().Add(-time.Hour),
		},
	})

	if capture.count() != 1 {
		t.Errorf("received %d webhooks, want 1 (stale events ignore min_severity)", capture.count())
	}
}

func TestAlertEvent_IgnoresUnexpectedPayload(t *testing.T) {
	capture := newCaptureServer(t)
	m := initModule(t, capture.srv.URL, nil)

	m.handleAlertEvent(context.Background(), plugin.Event{
		Topic:     triage.TopicAlertTriggered,
		Source:    "triage",
		Timestamp: time.Now(),
		Payload:   "not an alert record",
	})

	if capture.count() != 0 {
		t.Errorf("received %d webhooks, want 0 for unexpected payload", capture.count())
	}
}

func TestDeliver_SkipsWhenDisabled(t *testing.T) {
	capture := newCaptureServer(t)
	m := initModule(t, capture.srv.URL, map[string]any{"enabled": false})

	m.handleAlertEvent(context.Background(), plugin.Event{
		Topic:     triage.TopicAlertTriggered,
		Source:    "triage",
		Timestamp: time.Now(),
		Payload: &vitals.AlertRecord{
			SeverityLevel: vitals.SeverityCritical,
		},
	})

	if capture.count() != 0 {
		t.Error("expected webhook NOT to be called when disabled")
	}
}

func TestDeliver_SkipsWhenNoURL(t *testing.T) {
	m := New()
	if err := m.Init(context.Background(), plugin.Dependencies{Logger: zap.NewNop()}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// Should not panic when URL is empty.
	m.handleAlertEvent(context.Background(), plugin.Event{
		Topic:     triage.TopicAlertTriggered,
		Source:    "triage",
		Timestamp: time.Now(),
		Payload: &vitals.AlertRecord{
			SeverityLevel: vitals.SeverityCritical,
		},
	})
}

func TestDeliver_SurvivesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := initModule(t, srv.URL, nil)

	// Should not panic; warning is logged.
	m.handleAlertEvent(context.Background(), plugin.Event{
		Topic:     triage.TopicAlertTriggered,
		Source:    "triage",
		Timestamp: time.Now(),
		Payload: &vitals.AlertRecord{
			DeviceID:      "bed-1",
			SeverityLevel: vitals.SeverityHigh,
		},
	})
}
