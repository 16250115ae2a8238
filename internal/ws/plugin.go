// Package ws streams ward events to dashboard clients over WebSocket: every
// ingested reading, every detection that flags an anomaly, the alert
// lifecycle, and model retrain completions.
package ws

import (
	"context"
	"strconv"

	"github.com/wardwatch/wardwatch/internal/telemetry"
	"github.com/wardwatch/wardwatch/internal/triage"
	"github.com/wardwatch/wardwatch/pkg/plugin"
	"github.com/wardwatch/wardwatch/pkg/roles"
	"github.com/wardwatch/wardwatch/pkg/vitals"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin          = (*Module)(nil)
	_ plugin.HTTPProvider    = (*Module)(nil)
	_ plugin.HealthChecker   = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
)

// Module implements the realtime event-streaming plugin.
type Module struct {
	logger *zap.Logger
	hub    *Hub
}

// New creates a new ws plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "ws",
		Version:     "0.1.0",
		Description: "Real-time event streaming over WebSocket",
		Roles:       []string{roles.RoleRealtime},
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.hub = NewHub(deps.Logger)
	m.logger.Info("ws module initialized")
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("ws module started")
	return nil
}

// Stop leaves open connections to the HTTP server's shutdown; their pumps
// exit with the request contexts.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("ws module stopped")
	return nil
}

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/events", Handler: m.handleEventStream},
	}
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	return plugin.HealthStatus{
		Status: "healthy",
		Details: map[string]string{
			"clients": strconv.Itoa(m.hub.ClientCount()),
		},
	}
}

// Subscriptions implements plugin.EventSubscriber: each ward event topic is
// forwarded to connected clients as a typed envelope.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: telemetry.TopicReadingReceived, Handler: m.onReadingReceived},
		{Topic: telemetry.TopicDeviceStale, Handler: m.onDeviceStale},
		{Topic: triage.TopicAnomalyDetected, Handler: m.onAnomalyDetected},
		{Topic: triage.TopicAlertTriggered, Handler: m.onAlertTriggered},
		{Topic: triage.TopicAlertResolved, Handler: m.onAlertResolved},
		{Topic: triage.TopicModelTrained, Handler: m.onModelTrained},
	}
}

func (m *Module) onReadingReceived(_ context.Context, event plugin.Event) {
	reading, ok := event.Payload.(vitals.Reading)
	if !ok {
		return
	}
	m.hub.Broadcast(Message{
		Type:      MessageReadingReceived,
		DeviceID:  reading.DeviceID,
		Timestamp: event.Timestamp,
		Data:      reading,
	})
}

func (m *Module) onDeviceStale(_ context.Context, event plugin.Event) {
	stale, ok := event.Payload.(telemetry.DeviceStaleEvent)
	if !ok {
		return
	}
	m.hub.Broadcast(Message{
		Type:      MessageDeviceStale,
		DeviceID:  stale.DeviceID,
		Timestamp: event.Timestamp,
		Data:      stale,
	})
}

func (m *Module) onAnomalyDetected(_ context.Context, event plugin.Event) {
	record, ok := event.Payload.(*vitals.AnomalyRecord)
	if !ok {
		return
	}
	m.hub.Broadcast(Message{
		Type:      MessageAnomalyDetected,
		DeviceID:  record.DeviceID,
		Timestamp: event.Timestamp,
		Data:      record,
	})
}

func (m *Module) onAlertTriggered(_ context.Context, event plugin.Event) {
	alert, ok := event.Payload.(*vitals.AlertRecord)
	if !ok {
		return
	}
	m.hub.Broadcast(Message{
		Type:      MessageAlertTriggered,
		DeviceID:  alert.DeviceID,
		Timestamp: event.Timestamp,
		Data:      alert,
	})
}

func (m *Module) onAlertResolved(_ context.Context, event plugin.Event) {
	alert, ok := event.Payload.(*vitals.AlertRecord)
	if !ok {
		return
	}
	m.hub.Broadcast(Message{
		Type:      MessageAlertResolved,
		DeviceID:  alert.DeviceID,
		Timestamp: event.Timestamp,
		Data:      alert,
	})
}

// onModelTrained broadcasts the retrain summary. ModelSnapshot serializes to
// its version metadata only; the fitted parameters never leave the server.
func (m *Module) onModelTrained(_ context.Context, event plugin.Event) {
	snap, ok := event.Payload.(*triage.ModelSnapshot)
	if !ok {
		return
	}
	m.hub.Broadcast(Message{
		Type:      MessageModelTrained,
		Timestamp: event.Timestamp,
		Data:      snap,
	})
}
