// Package webhook forwards ward events to an external HTTP endpoint, such as
// a nurse-call bridge or paging gateway. Delivery is fire-and-forget: a
// failed POST is logged and dropped, never retried into the hot path.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wardwatch/wardwatch/internal/telemetry"
	"github.com/wardwatch/wardwatch/internal/triage"
	"github.com/wardwatch/wardwatch/pkg/plugin"
	"github.com/wardwatch/wardwatch/pkg/roles"
	"github.com/wardwatch/wardwatch/pkg/vitals"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin          = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
)

// Config holds the webhook plugin configuration.
type Config struct {
	URL         string
	Timeout     time.Duration
	MinSeverity vitals.Severity
	Enabled     bool
}

// Module implements the webhook notifier plugin.
type Module struct {
	logger *zap.Logger
	cfg    Config
	client *http.Client
}

// New creates a new webhook plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "webhook",
		Version:     "0.1.0",
		Description: "Sends HTTP POST notifications to a configurable webhook URL on alert and device events",
		Roles:       []string{roles.RoleNotification},
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	// Defaults.
	m.cfg = Config{
		Timeout:     10 * time.Second,
		MinSeverity: vitals.SeverityHigh,
		Enabled:     true,
	}

	if deps.Config != nil {
		if u := deps.Config.GetString("url"); u != "" {
			m.cfg.URL = u
		}
		if d := deps.Config.GetDuration("timeout"); d > 0 {
			m.cfg.Timeout = d
		}
		if s := deps.Config.GetString("min_severity"); s != "" {
			sev := vitals.Severity(s)
			if sev.Rank() < 0 {
				m.logger.Warn("unknown min_severity, keeping default",
					zap.String("min_severity", s),
					zap.String("default", string(m.cfg.MinSeverity)),
				)
			} else {
				m.cfg.MinSeverity = sev
			}
		}
		if deps.Config.IsSet("enabled") {
			m.cfg.Enabled = deps.Config.GetBool("enabled")
		}
	}

	m.client = &http.Client{Timeout: m.cfg.Timeout}

	if m.cfg.URL == "" {
		m.logger.Warn("webhook URL not configured; notifications will be dropped")
	}

	m.logger.Info("webhook module initialized",
		zap.String("url", m.cfg.URL),
		zap.Duration("timeout", m.cfg.Timeout),
		zap.String("min_severity", string(m.cfg.MinSeverity)),
		zap.Bool("enabled", m.cfg.Enabled),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("webhook module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("webhook module stopped")
	return nil
}

// Subscriptions implements plugin.EventSubscriber. Alert events are filtered
// by min_severity; a stale device is an equipment problem and always goes out.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: triage.TopicAlertTriggered, Handler: m.handleAlertEvent},
		{Topic: triage.TopicAlertResolved, Handler: m.handleAlertEvent},
		{Topic: telemetry.TopicDeviceStale, Handler: m.handleDeviceEvent},
	}
}

// Payload is the JSON body sent to the webhook URL.
type Payload struct {
	Event     string `json:"event"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

func (m *Module) handleAlertEvent(ctx context.Context, event plugin.Event) {
	rec, ok := event.Payload.(*vitals.AlertRecord)
	if !ok {
		return
	}
	if rec.SeverityLevel.Rank() < m.cfg.MinSeverity.Rank() {
		return
	}
	m.deliver(ctx, event)
}

func (m *Module) handleDeviceEvent(ctx context.Context, event plugin.Event) {
	m.deliver(ctx, event)
}

func (m *Module) deliver(ctx context.Context, event plugin.Event) {
	if !m.cfg.Enabled || m.cfg.URL == "" {
		return
	}

	body, err := json.Marshal(Payload{
		Event:     event.Topic,
		Source:    event.Source,
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Data:      event.Payload,
	})
	if err != nil {
		m.logger.Error("failed to marshal webhook payload",
			zap.String("topic", event.Topic),
			zap.Error(err),
		)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.URL, bytes.NewReader(body))
	if err != nil {
		m.logger.Error("failed to create webhook request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "WardWatch-Webhook/0.1")

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Warn("webhook delivery failed",
			zap.String("url", m.cfg.URL),
			zap.String("topic", event.Topic),
			zap.Error(err),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		m.logger.Warn("webhook endpoint returned error",
			zap.String("url", m.cfg.URL),
			zap.String("topic", event.Topic),
			zap.Int("status_code", resp.StatusCode),
		)
		return
	}

	m.logger.Debug("webhook delivered",
		zap.String("topic", event.Topic),
		zap.Int("status_code", resp.StatusCode),
	)
}
