package triage

import (
	"database/sql"

	"github.com/wardwatch/wardwatch/pkg/plugin"
)

// migrations returns the Triage module's database migrations.
func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create triage tables",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS triage_anomalies (
						id             TEXT PRIMARY KEY,
						device_id      TEXT NOT NULL,
						timestamp      DATETIME NOT NULL,
						fields         TEXT NOT NULL DEFAULT '{}',
						is_anomaly     INTEGER NOT NULL DEFAULT 0,
						anomaly_score  REAL NOT NULL DEFAULT 0,
						severity_level TEXT NOT NULL DEFAULT 'NORMAL',
						severity_score REAL NOT NULL DEFAULT 0,
						anomaly_types  TEXT NOT NULL DEFAULT '[]',
						trend_anomaly  INTEGER NOT NULL DEFAULT 0,
						trend_type     TEXT NOT NULL DEFAULT '',
						model_status   TEXT NOT NULL DEFAULT '',
						details        TEXT NOT NULL DEFAULT '{}',
						recorded_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_triage_anomalies_device ON triage_anomalies(device_id, timestamp)`,
					`CREATE INDEX IF NOT EXISTS idx_triage_anomalies_time ON triage_anomalies(timestamp)`,
					`CREATE INDEX IF NOT EXISTS idx_triage_anomalies_severity ON triage_anomalies(severity_level)`,

					`CREATE TABLE IF NOT EXISTS triage_alerts (
						id             TEXT PRIMARY KEY,
						anomaly_id     TEXT NOT NULL,
						device_id      TEXT NOT NULL,
						timestamp      DATETIME NOT NULL,
						severity_level TEXT NOT NULL,
						message        TEXT NOT NULL DEFAULT '',
						anomaly_types  TEXT NOT NULL DEFAULT '[]',
						resolved       INTEGER NOT NULL DEFAULT 0,
						resolved_by    TEXT NOT NULL DEFAULT '',
						resolved_at    DATETIME,
						created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_triage_alerts_device_time ON triage_alerts(device_id, timestamp)`,
					`CREATE INDEX IF NOT EXISTS idx_triage_alerts_resolved ON triage_alerts(resolved)`,

					`CREATE TABLE IF NOT EXISTS triage_models (
						version    INTEGER PRIMARY KEY AUTOINCREMENT,
						trained_at DATETIME NOT NULL,
						samples    INTEGER NOT NULL,
						schema     TEXT NOT NULL,
						params     TEXT NOT NULL
					)`,
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
