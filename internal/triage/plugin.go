// Package triage hosts the detection pipeline: every reading is classified
// by the rule engine, the trained outlier and cluster models, and the trend
// analyzer, then fused into one severity decision that is persisted and, if
// alert-worthy, raised as an alert.
package triage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wardwatch/wardwatch/internal/triage/feature"
	"github.com/wardwatch/wardwatch/pkg/plugin"
	"github.com/wardwatch/wardwatch/pkg/roles"
	"github.com/wardwatch/wardwatch/pkg/vitals"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin           = (*Module)(nil)
	_ plugin.HTTPProvider     = (*Module)(nil)
	_ plugin.HealthChecker    = (*Module)(nil)
	_ plugin.EventSubscriber  = (*Module)(nil)
	_ plugin.Validator        = (*Module)(nil)
	_ roles.DetectionProvider = (*Module)(nil)
)

// Module implements the Triage detection plugin.
type Module struct {
	logger  *zap.Logger
	cfg     TriageConfig
	store   *TriageStore
	bus     plugin.EventBus
	plugins plugin.PluginResolver

	engine   *engine
	history  *historyManager
	model    modelHandle
	trainer  *trainer
	corpus   CorpusProvider
	readings roles.ReadingProvider

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Triage plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "triage",
		Version:      "0.1.0",
		Description:  "Multi-algorithm anomaly detection and alerting",
		Dependencies: []string{"telemetry"},
		Roles:        []string{roles.RoleDetection},
		Required:     true,
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal triage config: %w", err)
		}
	}

	if deps.Store != nil {
		if err := deps.Store.Migrate(ctx, "triage", migrations()); err != nil {
			return fmt.Errorf("triage migrations: %w", err)
		}
		m.store = NewTriageStore(deps.Store.DB())
	}

	m.bus = deps.Bus
	m.plugins = deps.Plugins
	m.engine = newEngine(m.cfg)
	m.history = newHistoryManager(m.cfg.HistoryWindow)
	m.trainer = newTrainer(m.cfg)

	// Reload the last trained generation so a restart does not degrade to
	// rule-based fallback. A corrupt row is not fatal: log and stay untrained.
	if m.store != nil {
		snap, err := m.store.LatestModel(ctx)
		switch {
		case err != nil:
			m.logger.Warn("failed to restore persisted model, starting untrained", zap.Error(err))
		case snap != nil:
			m.model.swap(snap)
			m.logger.Info("restored persisted model",
				zap.Int("version", snap.Version),
				zap.Time("trained_at", snap.TrainedAt),
				zap.Int("samples", snap.Samples),
			)
		}
	}

	m.logger.Info("triage module initialized",
		zap.Float64("contamination", m.cfg.Contamination),
		zap.Int("trees", m.cfg.Trees),
		zap.Int("clusters", m.cfg.Clusters),
		zap.Int("history_window", m.cfg.HistoryWindow),
		zap.Int("threshold_fields", len(m.cfg.Thresholds)),
		zap.Int("escalations", len(m.cfg.Escalations)),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())

	// Resolve the telemetry plugin for the training corpus and the
	// detect-latest path. Tests may inject their own corpus beforehand.
	if m.plugins != nil {
		for _, p := range m.plugins.ResolveByRole(roles.RoleTelemetry) {
			if rp, ok := p.(roles.ReadingProvider); ok {
				m.readings = rp
				if m.corpus == nil {
					m.corpus = newReadingCorpus(rp, feature.CombinedSchema)
				}
				break
			}
		}
	}
	if m.corpus == nil {
		m.logger.Warn("no telemetry provider resolved; retraining unavailable")
	}

	m.startMaintenance()
	m.logger.Info("triage module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.logger.Info("triage module stopped")
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	return m.cfg.Validate()
}

// -- plugin.HealthChecker --

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	details := map[string]string{
		"devices_tracked": strconv.Itoa(m.history.count()),
		"retrain_running": strconv.FormatBool(m.trainer.isRunning()),
	}
	if snap := m.model.load(); snap != nil {
		details["model_status"] = vitals.ModelStatusActive
		details["model_version"] = strconv.Itoa(snap.Version)
	} else {
		details["model_status"] = "untrained"
	}
	return plugin.HealthStatus{Status: "healthy", Details: details}
}

// -- plugin.EventSubscriber --

// Subscriptions implements plugin.EventSubscriber.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: TopicReadingReceived, Handler: m.handleReadingReceived},
	}
}

// handleReadingReceived runs the pipeline on every ingested reading.
func (m *Module) handleReadingReceived(_ context.Context, event plugin.Event) {
	reading, ok := event.Payload.(vitals.Reading)
	if !ok {
		m.logger.Debug("ignored reading event: unexpected payload type",
			zap.String("source", event.Source))
		return
	}

	base := m.ctx
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithTimeout(base, 10*time.Second)
	defer cancel()

	if _, err := m.Detect(ctx, reading); err != nil {
		if errors.Is(err, vitals.ErrInvalidReading) || errors.Is(err, feature.ErrSchemaMismatch) {
			m.logger.Debug("skipped unprocessable reading",
				zap.String("device_id", reading.DeviceID), zap.Error(err))
			return
		}
		m.logger.Warn("detection failed for ingested reading",
			zap.String("device_id", reading.DeviceID), zap.Error(err))
	}
}

// -- roles.DetectionProvider --

// Detect implements roles.DetectionProvider: it classifies one reading,
// records it in the device's rolling history, appends the anomaly log entry,
// and raises an alert when warranted. The model snapshot is loaded once, so
// a retrain landing mid-call never produces a torn read. On persistence
// failure the decision is still returned alongside the error.
func (m *Module) Detect(ctx context.Context, r vitals.Reading) (*vitals.DetectionResult, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}

	snap := m.model.load()

	// Reject unrecognizable readings before they consume a history slot.
	schema := feature.CombinedSchema
	if snap != nil {
		schema = snap.Schema
	}
	if _, err := feature.Build(r, schema, nil); err != nil {
		return nil, err
	}

	window := m.history.record(r)
	result, err := m.engine.evaluate(r, snap, window)
	if err != nil {
		return nil, err
	}

	if err := m.emit(ctx, r, &result); err != nil {
		return &result, err
	}
	return &result, nil
}

// ActiveAlerts implements roles.DetectionProvider.
func (m *Module) ActiveAlerts(ctx context.Context) ([]vitals.AlertRecord, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.ActiveAlerts(ctx)
}

// -- Alert/log emitter --

// emit materializes one decision: always an anomaly record, plus an alert
// when the decision is alert-worthy. A persistence failure logs the full
// decision before propagating so no classification is ever silently lost.
func (m *Module) emit(ctx context.Context, r vitals.Reading, result *vitals.DetectionResult) error {
	detectionsTotal.WithLabelValues(string(result.SeverityLevel)).Inc()

	record := &vitals.AnomalyRecord{
		ID:            uuid.NewString(),
		DeviceID:      result.DeviceID,
		Timestamp:     result.Timestamp,
		Fields:        r.Fields,
		IsAnomaly:     result.IsAnomaly,
		AnomalyScore:  result.AnomalyScore,
		SeverityLevel: result.SeverityLevel,
		SeverityScore: result.SeverityScore,
		AnomalyTypes:  result.AnomalyTypes,
		TrendAnomaly:  result.Trend.TrendAnomaly,
		TrendType:     result.Trend.TrendType,
		ModelStatus:   result.Details.ModelStatus,
		Details:       result.Details,
		RecordedAt:    time.Now().UTC(),
	}

	if m.store == nil {
		return nil
	}

	if err := m.store.InsertAnomaly(ctx, record); err != nil {
		m.logDecision(result, err)
		return fmt.Errorf("append anomaly record: %w", err)
	}

	if result.IsAnomaly {
		m.publish(TopicAnomalyDetected, record)
		m.logger.Info("anomaly detected",
			zap.String("device_id", result.DeviceID),
			zap.String("severity", string(result.SeverityLevel)),
			zap.Float64("severity_score", result.SeverityScore),
			zap.Float64("anomaly_score", result.AnomalyScore),
			zap.Strings("anomaly_types", result.AnomalyTypes),
			zap.String("model_status", result.Details.ModelStatus),
		)
	}

	if !result.AlertWorthy {
		return nil
	}

	alert := &vitals.AlertRecord{
		ID:            uuid.NewString(),
		AnomalyID:     record.ID,
		DeviceID:      record.DeviceID,
		Timestamp:     record.Timestamp,
		SeverityLevel: record.SeverityLevel,
		Message:       alertMessage(result),
		AnomalyTypes:  record.AnomalyTypes,
		CreatedAt:     time.Now().UTC(),
	}
	if err := m.store.InsertAlert(ctx, alert); err != nil {
		m.logDecision(result, err)
		return fmt.Errorf("append alert record: %w", err)
	}

	alertsTriggeredTotal.Inc()
	m.publish(TopicAlertTriggered, alert)
	m.logger.Info("alert triggered",
		zap.String("alert_id", alert.ID),
		zap.String("device_id", alert.DeviceID),
		zap.String("severity", string(alert.SeverityLevel)),
		zap.String("message", alert.Message),
	)
	return nil
}

// logDecision writes the complete decision to the log when persistence
// fails, so the classification survives even if the store does not.
func (m *Module) logDecision(result *vitals.DetectionResult, cause error) {
	m.logger.Error("decision persist failed, logging full decision",
		zap.String("device_id", result.DeviceID),
		zap.Time("timestamp", result.Timestamp),
		zap.Bool("is_anomaly", result.IsAnomaly),
		zap.String("severity", string(result.SeverityLevel)),
		zap.Float64("severity_score", result.SeverityScore),
		zap.Strings("anomaly_types", result.AnomalyTypes),
		zap.Bool("alert_worthy", result.AlertWorthy),
		zap.Error(cause),
	)
}

func alertMessage(result *vitals.DetectionResult) string {
	if len(result.AnomalyTypes) == 0 {
		return fmt.Sprintf("%s alert for %s: anomalous reading", result.SeverityLevel, result.DeviceID)
	}
	return fmt.Sprintf("%s alert for %s: %s",
		result.SeverityLevel, result.DeviceID, strings.Join(result.AnomalyTypes, ", "))
}

// ResolveAlert flips an unresolved alert and publishes the resolution.
func (m *Module) ResolveAlert(ctx context.Context, deviceID string, ts time.Time, resolver string) (*vitals.AlertRecord, error) {
	alert, err := m.store.ResolveAlert(ctx, deviceID, ts, resolver)
	if err != nil {
		return nil, err
	}

	alertsResolvedTotal.Inc()
	m.publish(TopicAlertResolved, alert)
	m.logger.Info("alert resolved",
		zap.String("alert_id", alert.ID),
		zap.String("device_id", alert.DeviceID),
		zap.String("resolved_by", resolver),
	)
	return alert, nil
}

// -- Retraining --

// StartRetrain launches the background retrain job. Only one job runs at a
// time; a second request gets ErrRetrainInProgress. The job is cancelled by
// Stop and on failure leaves the active model untouched.
func (m *Module) StartRetrain() error {
	if m.corpus == nil {
		return fmt.Errorf("no training corpus provider available")
	}
	if !m.trainer.tryAcquire() {
		return ErrRetrainInProgress
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.trainer.release()
		m.runRetrain()
	}()
	return nil
}

func (m *Module) runRetrain() {
	ctx, cancel := context.WithTimeout(m.ctx, 5*time.Minute)
	defer cancel()

	start := time.Now()
	data, err := m.corpus.FetchTrainingVectors(ctx, m.cfg.TrainWindow)
	if err != nil {
		retrainsTotal.WithLabelValues("corpus_error").Inc()
		m.logger.Warn("retrain failed fetching corpus, previous model stays active", zap.Error(err))
		return
	}

	snap, err := m.trainer.fit(ctx, feature.CombinedSchema, data)
	if err != nil {
		outcome := "fit_error"
		if errors.Is(err, ErrCorpusTooSmall) {
			outcome = "corpus_too_small"
		}
		retrainsTotal.WithLabelValues(outcome).Inc()
		m.logger.Warn("retrain failed, previous model stays active",
			zap.Int("samples", len(data)), zap.Error(err))
		return
	}

	version, err := m.store.SaveModel(ctx, snap)
	if err != nil {
		retrainsTotal.WithLabelValues("persist_error").Inc()
		m.logger.Warn("retrain failed persisting model, previous model stays active", zap.Error(err))
		return
	}
	snap.Version = version

	m.model.swap(snap)
	retrainsTotal.WithLabelValues("success").Inc()
	m.publish(TopicModelTrained, snap)
	m.logger.Info("model retrained",
		zap.Int("version", snap.Version),
		zap.Int("samples", snap.Samples),
		zap.String("schema", snap.Schema.Name),
		zap.Duration("took", time.Since(start)),
	)
}

// publish sends an event without blocking the caller.
func (m *Module) publish(topic string, payload any) {
	if m.bus == nil {
		return
	}
	ctx := m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	m.bus.PublishAsync(ctx, plugin.Event{
		Topic:     topic,
		Source:    "triage",
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}
