package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// startMaintenance launches the periodic retention sweep over the raw
// reading log. The device inventory is never purged.
func (m *Module) startMaintenance() {
	if m.store == nil || m.cfg.RetentionWindow <= 0 {
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

	cutoff := time.Now().UTC().Add(-m.cfg.RetentionWindow)
	purged, err := m.store.DeleteOldReadings(ctx, cutoff)
	if err != nil {
		m.logger.Warn("reading retention sweep failed", zap.Error(err))
		return
	}
	if purged > 0 {
		readingsPurgedTotal.Add(float64(purged))
		m.logger.Info("purged expired readings",
			zap.Int64("purged", purged),
			zap.Time("cutoff", cutoff),
		)
	}
}

// startStaleChecker launches the loop that flags devices that stopped
// reporting. The check runs at a quarter of the stale threshold, at least
// every 30 seconds.
func (m *Module) startStaleChecker() {
	if m.store == nil || m.cfg.DeviceStaleAfter <= 0 {
		return
	}

	interval := m.cfg.DeviceStaleAfter / 4
	if interval < 30*time.Second {
		interval = 30 * time.Second
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		m.logger.Info("device stale checker started",
			zap.Duration("check_interval", interval),
			zap.Duration("device_stale_after", m.cfg.DeviceStaleAfter),
		)

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.checkForStaleDevices()
			}
		}
	}()
}

func (m *Module) checkForStaleDevices() {
	ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
	defer cancel()

	threshold := time.Now().UTC().Add(-m.cfg.DeviceStaleAfter)
	stale, err := m.store.FindStaleDevices(ctx, threshold)
	if err != nil {
		m.logger.Error("failed to find stale devices", zap.Error(err))
		return
	}

	for i := range stale {
		if err := m.store.MarkDeviceStale(ctx, stale[i].DeviceID); err != nil {
			m.logger.Error("failed to mark device stale",
				zap.String("device_id", stale[i].DeviceID),
				zap.Error(err),
			)
			continue
		}

		devicesStaleTotal.Inc()
		m.publish(ctx, TopicDeviceStale, DeviceStaleEvent{
			DeviceID: stale[i].DeviceID,
			Kind:     stale[i].Kind,
			LastSeen: stale[i].LastSeen,
		})
		m.logger.Info("device marked stale",
			zap.String("device_id", stale[i].DeviceID),
			zap.String("kind", stale[i].Kind),
			zap.Time("last_seen", stale[i].LastSeen),
		)
	}
}
