// Package telemetry ingests readings from bedside monitors and room sensors,
// keeps the raw reading log and a per-device inventory, and fans each
// accepted reading out on the event bus for the detection pipeline.
package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wardwatch/wardwatch/pkg/plugin"
	"github.com/wardwatch/wardwatch/pkg/roles"
	"github.com/wardwatch/wardwatch/pkg/vitals"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin         = (*Module)(nil)
	_ plugin.HTTPProvider   = (*Module)(nil)
	_ plugin.HealthChecker  = (*Module)(nil)
	_ plugin.Validator      = (*Module)(nil)
	_ roles.ReadingProvider = (*Module)(nil)
)

// Module implements the Telemetry ingestion plugin.
type Module struct {
	logger *zap.Logger
	cfg    TelemetryConfig
	store  *TelemetryStore
	bus    plugin.EventBus
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Telemetry plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "telemetry",
		Version:     "0.1.0",
		Description: "Reading ingestion and device inventory",
		Roles:       []string{roles.RoleTelemetry},
		Required:    true,
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if deps.Config.IsSet("retention_window") {
			m.cfg.RetentionWindow = deps.Config.GetDuration("retention_window")
		}
		if d := deps.Config.GetDuration("maintenance_interval"); d > 0 {
			m.cfg.MaintenanceInterval = d
		}
		if deps.Config.IsSet("device_stale_after") {
			m.cfg.DeviceStaleAfter = deps.Config.GetDuration("device_stale_after")
		}
	}

	if deps.Store != nil {
		if err := deps.Store.Migrate(ctx, "telemetry", migrations()); err != nil {
			return fmt.Errorf("telemetry migrations: %w", err)
		}
		m.store = NewTelemetryStore(deps.Store.DB())
	}

	m.logger.Info("telemetry module initialized",
		zap.Duration("retention_window", m.cfg.RetentionWindow),
		zap.Duration("device_stale_after", m.cfg.DeviceStaleAfter),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.startMaintenance()
	m.startStaleChecker()

	m.logger.Info("telemetry module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.logger.Info("telemetry module stopped")
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	return m.cfg.Validate()
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	details := map[string]string{
		"stale_checker": strconv.FormatBool(m.cfg.DeviceStaleAfter > 0),
	}
	if m.store != nil {
		if n, err := m.store.CountDevices(ctx); err == nil {
			details["devices"] = strconv.Itoa(n)
		}
		if n, err := m.store.CountReadings(ctx); err == nil {
			details["readings_stored"] = strconv.Itoa(n)
		}
	}
	return plugin.HealthStatus{Status: "healthy", Details: details}
}

// Ingest validates and records one reading, then fans it out on the bus.
// A reading with a zero timestamp is stamped with the current time. The
// returned record carries the assigned id and ingestion time.
func (m *Module) Ingest(ctx context.Context, r vitals.Reading) (*StoredReading, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}

	kind := kindFromFields(r.Fields)
	rec := &StoredReading{
		ID:         uuid.NewString(),
		DeviceID:   r.DeviceID,
		Timestamp:  r.Timestamp,
		Fields:     r.Fields,
		ReceivedAt: time.Now().UTC(),
	}

	if m.store != nil {
		if err := m.store.InsertReading(ctx, rec); err != nil {
			return nil, fmt.Errorf("store reading: %w", err)
		}
		// Inventory last_seen tracks contact time, not the reading's own
		// timestamp, so backfilled history cannot re-trigger staleness.
		if err := m.store.TouchDevice(ctx, r.DeviceID, kind, rec.ReceivedAt); err != nil {
			return nil, fmt.Errorf("update device inventory: %w", err)
		}
	}

	readingsIngestedTotal.WithLabelValues(kind).Inc()
	m.publish(ctx, TopicReadingReceived, r)
	m.logger.Debug("reading ingested",
		zap.String("device_id", r.DeviceID),
		zap.String("kind", kind),
		zap.Int("fields", len(r.Fields)),
	)
	return rec, nil
}

// -- roles.ReadingProvider --

// LatestReading implements roles.ReadingProvider.
func (m *Module) LatestReading(ctx context.Context, deviceID string) (*vitals.Reading, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.LatestReading(ctx, deviceID)
}

// ReadingsSince implements roles.ReadingProvider.
func (m *Module) ReadingsSince(ctx context.Context, deviceID string, since time.Time) ([]vitals.Reading, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.ReadingsSince(ctx, deviceID, since)
}

// publish sends an event to the bus when one is wired.
func (m *Module) publish(ctx context.Context, topic string, payload any) {
	if m.bus == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	m.bus.PublishAsync(ctx, plugin.Event{
		Topic:     topic,
		Source:    "telemetry",
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}
