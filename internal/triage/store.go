package triage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wardwatch/wardwatch/pkg/vitals"
)

// TriageStore provides database access for the Triage detection plugin.
type TriageStore struct {
	db *sql.DB
}

// NewTriageStore creates a new TriageStore backed by the given database.
func NewTriageStore(db *sql.DB) *TriageStore {
	return &TriageStore{db: db}
}

// -- Anomaly log --

// InsertAnomaly appends one detection record. Records are never updated or
// deleted by the detection path.
func (s *TriageStore) InsertAnomaly(ctx context.Context, a *vitals.AnomalyRecord) error {
	fieldsJSON, err := json.Marshal(a.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	typesJSON, err := json.Marshal(a.AnomalyTypes)
	if err != nil {
		return fmt.Errorf("marshal anomaly types: %w", err)
	}
	detailsJSON, err := json.Marshal(a.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	isAnomaly := 0
	if a.IsAnomaly {
		isAnomaly = 1
	}
	trendAnomaly := 0
	if a.TrendAnomaly {
		trendAnomaly = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO triage_anomalies (
			id, device_id, timestamp, fields, is_anomaly, anomaly_score,
			severity_level, severity_score, anomaly_types, trend_anomaly,
			trend_type, model_status, details, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.DeviceID, a.Timestamp.UTC(), string(fieldsJSON), isAnomaly,
		a.AnomalyScore, string(a.SeverityLevel), a.SeverityScore,
		string(typesJSON), trendAnomaly, a.TrendType, a.ModelStatus,
		string(detailsJSON), a.RecordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert anomaly: %w", err)
	}
	return nil
}

// AnomalyFilter narrows ListAnomalies. Zero values mean "no constraint".
type AnomalyFilter struct {
	DeviceID string
	Since    time.Time
	Severity vitals.Severity
	Limit    int
}

// ListAnomalies returns detection records newest first.
func (s *TriageStore) ListAnomalies(ctx context.Context, f AnomalyFilter) ([]vitals.AnomalyRecord, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, device_id, timestamp, fields, is_anomaly, anomaly_score,
			severity_level, severity_score, anomaly_types, trend_anomaly,
			trend_type, model_status, details, recorded_at
		FROM triage_anomalies`
	var conds []string
	var args []any
	if f.DeviceID != "" {
		conds = append(conds, "device_id = ?")
		args = append(args, f.DeviceID)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, f.Since.UTC())
	}
	if f.Severity != "" {
		conds = append(conds, "severity_level = ?")
		args = append(args, string(f.Severity))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list anomalies: %w", err)
	}
	defer rows.Close()

	var records []vitals.AnomalyRecord
	for rows.Next() {
		a, err := scanAnomaly(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

func scanAnomaly(rows *sql.Rows) (vitals.AnomalyRecord, error) {
	var a vitals.AnomalyRecord
	var fieldsJSON, typesJSON, detailsJSON string
	var isAnomaly, trendAnomaly int
	if err := rows.Scan(
		&a.ID, &a.DeviceID, &a.Timestamp, &fieldsJSON, &isAnomaly,
		&a.AnomalyScore, &a.SeverityLevel, &a.SeverityScore, &typesJSON,
		&trendAnomaly, &a.TrendType, &a.ModelStatus, &detailsJSON, &a.RecordedAt,
	); err != nil {
		return a, fmt.Errorf("scan anomaly row: %w", err)
	}
	a.IsAnomaly = isAnomaly != 0
	a.TrendAnomaly = trendAnomaly != 0
	if err := json.Unmarshal([]byte(fieldsJSON), &a.Fields); err != nil {
		return a, fmt.Errorf("unmarshal fields: %w", err)
	}
	if err := json.Unmarshal([]byte(typesJSON), &a.AnomalyTypes); err != nil {
		return a, fmt.Errorf("unmarshal anomaly types: %w", err)
	}
	if err := json.Unmarshal([]byte(detailsJSON), &a.Details); err != nil {
		return a, fmt.Errorf("unmarshal details: %w", err)
	}
	return a, nil
}

// DeleteOldAnomalies deletes anomaly log entries older than the given time.
// Alerts are never touched. Returns the number of rows deleted.
func (s *TriageStore) DeleteOldAnomalies(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM triage_anomalies WHERE timestamp < ?`,
		before.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete old anomalies: %w", err)
	}
	return result.RowsAffected()
}

// -- Alerts --

// InsertAlert persists a newly raised alert with resolved = false.
func (s *TriageStore) InsertAlert(ctx context.Context, a *vitals.AlertRecord) error {
	typesJSON, err := json.Marshal(a.AnomalyTypes)
	if err != nil {
		return fmt.Errorf("marshal anomaly types: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO triage_alerts (
			id, anomaly_id, device_id, timestamp, severity_level,
			message, anomaly_types, resolved, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		a.ID, a.AnomalyID, a.DeviceID, a.Timestamp.UTC(), string(a.SeverityLevel),
		a.Message, string(typesJSON), a.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// ActiveAlerts returns unresolved alerts, most severe first, newest first
// within a level.
func (s *TriageStore) ActiveAlerts(ctx context.Context) ([]vitals.AlertRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, anomaly_id, device_id, timestamp, severity_level,
			message, anomaly_types, resolved, resolved_by, resolved_at, created_at
		FROM triage_alerts
		WHERE resolved = 0
		ORDER BY CASE severity_level
			WHEN 'CRITICAL' THEN 0
			WHEN 'HIGH' THEN 1
			WHEN 'MEDIUM' THEN 2
			WHEN 'LOW' THEN 3
			ELSE 4
		END, created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list active alerts: %w", err)
	}
	defer rows.Close()

	var alerts []vitals.AlertRecord
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func scanAlert(rows *sql.Rows) (vitals.AlertRecord, error) {
	var a vitals.AlertRecord
	var typesJSON string
	var resolved int
	var resolvedAt sql.NullTime
	if err := rows.Scan(
		&a.ID, &a.AnomalyID, &a.DeviceID, &a.Timestamp, &a.SeverityLevel,
		&a.Message, &typesJSON, &resolved, &a.ResolvedBy, &resolvedAt, &a.CreatedAt,
	); err != nil {
		return a, fmt.Errorf("scan alert row: %w", err)
	}
	a.Resolved = resolved != 0
	if resolvedAt.Valid {
		a.ResolvedAt = &resolvedAt.Time
	}
	if err := json.Unmarshal([]byte(typesJSON), &a.AnomalyTypes); err != nil {
		return a, fmt.Errorf("unmarshal anomaly types: %w", err)
	}
	return a, nil
}

// ResolveAlert flips the unresolved alert matching device id and timestamp.
// The timestamp is compared as an instant, so callers may pass any zone.
// Returns ErrAlertNotFound when no unresolved alert matches; resolved alerts
// never match again, making a second resolve a miss by construction.
func (s *TriageStore) ResolveAlert(ctx context.Context, deviceID string, ts time.Time, resolver string) (*vitals.AlertRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, anomaly_id, device_id, timestamp, severity_level,
			message, anomaly_types, resolved, resolved_by, resolved_at, created_at
		FROM triage_alerts
		WHERE device_id = ? AND resolved = 0`,
		deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("find alert: %w", err)
	}
	defer rows.Close()

	var target *vitals.AlertRecord
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		if a.Timestamp.Equal(ts) {
			target = &a
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find alert: %w", err)
	}
	// Release the connection before the update; the pool holds a single
	// connection and open rows would starve the exec below.
	rows.Close()
	if target == nil {
		return nil, fmt.Errorf("%w: device %s at %s", ErrAlertNotFound, deviceID, ts.UTC().Format(time.RFC3339))
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE triage_alerts SET resolved = 1, resolved_by = ?, resolved_at = ?
		WHERE id = ? AND resolved = 0`,
		resolver, now, target.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("resolve alert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("resolve alert: %w", err)
	}
	if affected == 0 {
		// Lost a race with a concurrent resolve.
		return nil, fmt.Errorf("%w: device %s at %s", ErrAlertNotFound, deviceID, ts.UTC().Format(time.RFC3339))
	}

	target.Resolved = true
	target.ResolvedBy = resolver
	target.ResolvedAt = &now
	return target, nil
}

// countActiveAlerts returns the number of unresolved alerts.
func (s *TriageStore) countActiveAlerts(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM triage_alerts WHERE resolved = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active alerts: %w", err)
	}
	return n, nil
}

// -- Model snapshots --

// SaveModel persists a trained snapshot and returns its assigned version.
func (s *TriageStore) SaveModel(ctx context.Context, snap *ModelSnapshot) (int, error) {
	params, err := snap.marshalParams()
	if err != nil {
		return 0, err
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO triage_models (trained_at, samples, schema, params)
		VALUES (?, ?, ?, ?)`,
		snap.TrainedAt.UTC(), snap.Samples, snap.Schema.Name, string(params),
	)
	if err != nil {
		return 0, fmt.Errorf("save model: %w", err)
	}
	version, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save model: %w", err)
	}
	return int(version), nil
}

// LatestModel loads the most recent persisted snapshot, or nil when no model
// has ever been trained.
func (s *TriageStore) LatestModel(ctx context.Context) (*ModelSnapshot, error) {
	var version, samples int
	var trainedAt time.Time
	var schemaName, params string
	err := s.db.QueryRowContext(ctx, `
		SELECT version, trained_at, samples, schema, params
		FROM triage_models ORDER BY version DESC LIMIT 1`,
	).Scan(&version, &trainedAt, &samples, &schemaName, &params)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest model: %w", err)
	}
	return restoreSnapshot(version, trainedAt, samples, schemaName, []byte(params))
}

// -- Statistics --

// Statistics summarizes detection activity over a window.
type Statistics struct {
	WindowHours          int            `json:"window_hours"`
	TotalDetections      int            `json:"total_detections"`
	TotalAnomalies       int            `json:"total_anomalies"`
	AnomalyRatePercent   float64        `json:"anomaly_rate_percent"`
	SeverityDistribution map[string]int `json:"severity_distribution"`
	DeviceAnomalyCounts  map[string]int `json:"device_anomaly_counts"`
	ActiveAlerts         int            `json:"active_alerts"`
	EngineStatus         string         `json:"engine_status"`
	Model                *ModelSnapshot `json:"model,omitempty"`
}

// Statistics aggregates the anomaly log since the given time. EngineStatus
// and Model are filled in by the caller from the live snapshot.
func (s *TriageStore) Statistics(ctx context.Context, since time.Time) (*Statistics, error) {
	stats := &Statistics{
		SeverityDistribution: make(map[string]int),
		DeviceAnomalyCounts:  make(map[string]int),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(is_anomaly), 0)
		FROM triage_anomalies WHERE timestamp >= ?`,
		since.UTC(),
	).Scan(&stats.TotalDetections, &stats.TotalAnomalies)
	if err != nil {
		return nil, fmt.Errorf("count detections: %w", err)
	}
	if stats.TotalDetections > 0 {
		rate := float64(stats.TotalAnomalies) / float64(stats.TotalDetections) * 100
		stats.AnomalyRatePercent = float64(int(rate*100)) / 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT severity_level, COUNT(*)
		FROM triage_anomalies
		WHERE timestamp >= ? AND is_anomaly = 1
		GROUP BY severity_level`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("severity distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("scan severity row: %w", err)
		}
		stats.SeverityDistribution[level] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	deviceRows, err := s.db.QueryContext(ctx, `
		SELECT device_id, COUNT(*)
		FROM triage_anomalies
		WHERE timestamp >= ? AND is_anomaly = 1
		GROUP BY device_id`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("device anomaly counts: %w", err)
	}
	defer deviceRows.Close()
	for deviceRows.Next() {
		var device string
		var count int
		if err := deviceRows.Scan(&device, &count); err != nil {
			return nil, fmt.Errorf("scan device row: %w", err)
		}
		stats.DeviceAnomalyCounts[device] = count
	}
	if err := deviceRows.Err(); err != nil {
		return nil, err
	}

	active, err := s.countActiveAlerts(ctx)
	if err != nil {
		return nil, err
	}
	stats.ActiveAlerts = active

	return stats, nil
}
