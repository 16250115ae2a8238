package telemetry

import (
	"database/sql"

	"github.com/wardwatch/wardwatch/pkg/plugin"
)

// migrations returns the Telemetry module's database migrations.
func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create telemetry tables (readings, devices)",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE telemetry_readings (
						id          TEXT PRIMARY KEY,
						device_id   TEXT NOT NULL,
						timestamp   DATETIME NOT NULL,
						fields      TEXT NOT NULL DEFAULT '{}',
						received_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX idx_telemetry_readings_device_ts ON telemetry_readings(device_id, timestamp)`,
					`CREATE INDEX idx_telemetry_readings_ts ON telemetry_readings(timestamp)`,
					`CREATE TABLE telemetry_devices (
						device_id     TEXT PRIMARY KEY,
						kind          TEXT NOT NULL DEFAULT 'unknown',
						status        TEXT NOT NULL DEFAULT 'reporting',
						first_seen    DATETIME NOT NULL,
						last_seen     DATETIME NOT NULL,
						reading_count INTEGER NOT NULL DEFAULT 0
					)`,
					`CREATE INDEX idx_telemetry_devices_last_seen ON telemetry_devices(last_seen)`,
					`CREATE INDEX idx_telemetry_devices_status ON telemetry_devices(status)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
