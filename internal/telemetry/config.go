package telemetry

import (
	"fmt"
	"time"
)

// TelemetryConfig holds the Telemetry module configuration.
type TelemetryConfig struct {
	// RetentionWindow bounds how long raw readings are kept. Zero or
	// negative disables purging.
	RetentionWindow time.Duration `mapstructure:"retention_window"`
	// MaintenanceInterval is how often the purge job runs.
	MaintenanceInterval time.Duration `mapstructure:"maintenance_interval"`
	// DeviceStaleAfter is how long a device may stay silent before it is
	// marked stale. Zero or negative disables the checker.
	DeviceStaleAfter time.Duration `mapstructure:"device_stale_after"`
}

// DefaultConfig returns the default configuration for the Telemetry module.
func DefaultConfig() TelemetryConfig {
	return TelemetryConfig{
		RetentionWindow:     30 * 24 * time.Hour,
		MaintenanceInterval: time.Hour,
		DeviceStaleAfter:    10 * time.Minute,
	}
}

// Validate checks the configuration for nonsensical values.
func (c TelemetryConfig) Validate() error {
	if c.RetentionWindow > 0 && c.MaintenanceInterval <= 0 {
		return fmt.Errorf("maintenance_interval must be positive when retention is enabled")
	}
	if c.DeviceStaleAfter > 0 && c.DeviceStaleAfter < time.Minute {
		return fmt.Errorf("device_stale_after must be at least one minute")
	}
	return nil
}
