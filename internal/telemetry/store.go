package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wardwatch/wardwatch/pkg/vitals"
)

// Device reporting states.
const (
	DeviceReporting = "reporting"
	DeviceStale     = "stale"
)

// StoredReading is one persisted reading with its ingestion envelope.
type StoredReading struct {
	ID         string             `json:"id"`
	DeviceID   string             `json:"device_id"`
	Timestamp  time.Time          `json:"timestamp"`
	Fields     map[string]float64 `json:"fields"`
	ReceivedAt time.Time          `json:"received_at"`
}

// DeviceSummary is the inventory row for one reporting device.
type DeviceSummary struct {
	DeviceID     string    `json:"device_id"`
	Kind         string    `json:"kind"`
	Status       string    `json:"status"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	ReadingCount int       `json:"reading_count"`
}

// ListReadingsOptions controls filtering for reading queries.
type ListReadingsOptions struct {
	DeviceID string
	Since    time.Time
	Limit    int
}

// TelemetryStore provides database operations for the Telemetry module.
type TelemetryStore struct {
	db *sql.DB
}

// NewTelemetryStore creates a new TelemetryStore backed by the given database.
func NewTelemetryStore(db *sql.DB) *TelemetryStore {
	return &TelemetryStore{db: db}
}

// InsertReading appends one reading to the log.
func (s *TelemetryStore) InsertReading(ctx context.Context, rec *StoredReading) error {
	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO telemetry_readings (id, device_id, timestamp, fields, received_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.DeviceID, rec.Timestamp.UTC(), string(fieldsJSON), rec.ReceivedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// TouchDevice upserts the device inventory row for a reading: first contact
// creates the row, later contacts bump last_seen and the reading count and
// flip a stale device back to reporting. The stored kind widens to mixed when
// the observed kind disagrees.
func (s *TelemetryStore) TouchDevice(ctx context.Context, deviceID, kind string, seen time.Time) error {
	seen = seen.UTC()

	var storedKind string
	err := s.db.QueryRowContext(ctx,
		`SELECT kind FROM telemetry_devices WHERE device_id = ?`, deviceID,
	).Scan(&storedKind)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO telemetry_devices (device_id, kind, status, first_seen, last_seen, reading_count)
			VALUES (?, ?, ?, ?, ?, 1)`,
			deviceID, kind, DeviceReporting, seen, seen,
		)
		if err != nil {
			return fmt.Errorf("insert device: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("lookup device: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE telemetry_devices
		SET kind = ?, status = ?, last_seen = ?, reading_count = reading_count + 1
		WHERE device_id = ?`,
		mergeKind(storedKind, kind), DeviceReporting, seen, deviceID,
	)
	if err != nil {
		return fmt.Errorf("update device: %w", err)
	}
	return nil
}

// LatestReading returns the most recent reading for a device, or nil when the
// device has never reported.
func (s *TelemetryStore) LatestReading(ctx context.Context, deviceID string) (*vitals.Reading, error) {
	var (
		r          vitals.Reading
		fieldsJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT device_id, timestamp, fields FROM telemetry_readings
		WHERE device_id = ? ORDER BY timestamp DESC LIMIT 1`, deviceID,
	).Scan(&r.DeviceID, &r.Timestamp, &fieldsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest reading: %w", err)
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &r.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return &r, nil
}

// ReadingsSince returns readings at or after the given time, oldest first.
// Pass empty deviceID to list across all devices.
func (s *TelemetryStore) ReadingsSince(ctx context.Context, deviceID string, since time.Time) ([]vitals.Reading, error) {
	query := `SELECT device_id, timestamp, fields FROM telemetry_readings WHERE timestamp >= ?`
	args := []any{since.UTC()}
	if deviceID != "" {
		query += ` AND device_id = ?`
		args = append(args, deviceID)
	}
	query += ` ORDER BY timestamp ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("readings since: %w", err)
	}
	defer rows.Close()

	var readings []vitals.Reading
	for rows.Next() {
		var (
			r          vitals.Reading
			fieldsJSON string
		)
		if err := rows.Scan(&r.DeviceID, &r.Timestamp, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("scan reading row: %w", err)
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &r.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal fields: %w", err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// ListReadings returns readings newest first for the HTTP API.
func (s *TelemetryStore) ListReadings(ctx context.Context, opts ListReadingsOptions) ([]StoredReading, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, device_id, timestamp, fields, received_at FROM telemetry_readings WHERE timestamp >= ?`
	args := []any{opts.Since.UTC()}
	if opts.DeviceID != "" {
		query += ` AND device_id = ?`
		args = append(args, opts.DeviceID)
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	var readings []StoredReading
	for rows.Next() {
		var (
			rec        StoredReading
			fieldsJSON string
		)
		if err := rows.Scan(&rec.ID, &rec.DeviceID, &rec.Timestamp, &fieldsJSON, &rec.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan reading row: %w", err)
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &rec.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal fields: %w", err)
		}
		readings = append(readings, rec)
	}
	return readings, rows.Err()
}

// Devices returns the device inventory, most recently seen first.
func (s *TelemetryStore) Devices(ctx context.Context) ([]DeviceSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT device_id, kind, status, first_seen, last_seen, reading_count
		FROM telemetry_devices ORDER BY last_seen DESC`)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []DeviceSummary
	for rows.Next() {
		var d DeviceSummary
		if err := rows.Scan(&d.DeviceID, &d.Kind, &d.Status, &d.FirstSeen, &d.LastSeen, &d.ReadingCount); err != nil {
			return nil, fmt.Errorf("scan device row: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// GetDevice returns one inventory row, or nil when the device is unknown.
func (s *TelemetryStore) GetDevice(ctx context.Context, deviceID string) (*DeviceSummary, error) {
	var d DeviceSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT device_id, kind, status, first_seen, last_seen, reading_count
		FROM telemetry_devices WHERE device_id = ?`, deviceID,
	).Scan(&d.DeviceID, &d.Kind, &d.Status, &d.FirstSeen, &d.LastSeen, &d.ReadingCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	return &d, nil
}

// FindStaleDevices returns reporting devices whose last reading predates the
// threshold.
func (s *TelemetryStore) FindStaleDevices(ctx context.Context, threshold time.Time) ([]DeviceSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT device_id, kind, status, first_seen, last_seen, reading_count
		FROM telemetry_devices WHERE status = ? AND last_seen < ?`,
		DeviceReporting, threshold.UTC())
	if err != nil {
		return nil, fmt.Errorf("find stale devices: %w", err)
	}
	defer rows.Close()

	var devices []DeviceSummary
	for rows.Next() {
		var d DeviceSummary
		if err := rows.Scan(&d.DeviceID, &d.Kind, &d.Status, &d.FirstSeen, &d.LastSeen, &d.ReadingCount); err != nil {
			return nil, fmt.Errorf("scan device row: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// MarkDeviceStale flags a silent device.
func (s *TelemetryStore) MarkDeviceStale(ctx context.Context, deviceID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE telemetry_devices SET status = ? WHERE device_id = ?`,
		DeviceStale, deviceID)
	if err != nil {
		return fmt.Errorf("mark device stale: %w", err)
	}
	return nil
}

// DeleteOldReadings removes readings older than the cutoff and reports how
// many were deleted.
func (s *TelemetryStore) DeleteOldReadings(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM telemetry_readings WHERE timestamp < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old readings: %w", err)
	}
	return result.RowsAffected()
}

// CountReadings returns the total number of stored readings.
func (s *TelemetryStore) CountReadings(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM telemetry_readings`).Scan(&n)
	return n, err
}

// CountDevices returns the number of devices in the inventory.
func (s *TelemetryStore) CountDevices(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM telemetry_devices`).Scan(&n)
	return n, err
}
