package triage

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// startMaintenance launches the periodic retention sweep. Anomaly log
// entries older than the retention window are purged; alerts are kept
// indefinitely for audit.
func (m *Module) startMaintenance() {
	if m.store == nil || m.cfg.AnomalyRetention <= 0 {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.cfg.MaintenanceInterval)
		defer ticker.Stop()

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.runMaintenance()
			}
		}
	}()
}

func (m *Module) runMaintenance() {
	ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-m.cfg.AnomalyRetention)
	purged, err := m.store.DeleteOldAnomalies(ctx, cutoff)
	if err != nil {
		m.logger.Warn("anomaly retention sweep failed", zap.Error(err))
		return
	}
	if purged > 0 {
		m.logger.Info("purged expired anomaly records",
			zap.Int64("purged", purged),
			zap.Time("cutoff", cutoff),
		)
	}
}
