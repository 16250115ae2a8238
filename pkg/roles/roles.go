// Package roles defines typed contracts for plugin roles.
// Plugins that fill a role (declared via PluginInfo.Roles) should implement
// the corresponding interface so callers can use type-safe access via
// PluginResolver.ResolveByRole followed by a type assertion.
package roles

import (
	"context"
	"time"

	"github.com/wardwatch/wardwatch/pkg/vitals"
)

// Role name constants match the strings used in PluginInfo.Roles.
// RoleNotification carries no resolver contract; notifiers are reached
// through the event bus, never called directly.
const (
	RoleTelemetry    = "telemetry"
	RoleDetection    = "detection"
	RoleRealtime     = "realtime"
	RoleNotification = "notification"
)

// ReadingProvider is implemented by plugins that ingest and store device
// readings. Resolve via PluginResolver.ResolveByRole(RoleTelemetry) then
// type-assert.
type ReadingProvider interface {
	// LatestReading returns the most recent reading for a device, or nil
	// when the device has never reported.
	LatestReading(ctx context.Context, deviceID string) (*vitals.Reading, error)

	// ReadingsSince returns the device's readings at or after the given
	// time, oldest first. Pass empty deviceID to list across all devices.
	ReadingsSince(ctx context.Context, deviceID string, since time.Time) ([]vitals.Reading, error)
}

// DetectionProvider is implemented by plugins that classify readings.
// Resolve via PluginResolver.ResolveByRole(RoleDetection) then type-assert.
type DetectionProvider interface {
	// Detect runs the detection pipeline on one reading and returns the
	// fused decision.
	Detect(ctx context.Context, reading vitals.Reading) (*vitals.DetectionResult, error)

	// ActiveAlerts returns unresolved alerts ordered by severity.
	ActiveAlerts(ctx context.Context) ([]vitals.AlertRecord, error)
}
