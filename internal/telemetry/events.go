package telemetry

import "time"

// Event topics published by the Telemetry module.
const (
	TopicReadingReceived = "telemetry.reading.received"
	TopicDeviceStale     = "telemetry.device.stale"
)

// DeviceStaleEvent is the payload for TopicDeviceStale events.
type DeviceStaleEvent struct {
	DeviceID string    `json:"device_id"`
	Kind     string    `json:"kind"`
	LastSeen time.Time `json:"last_seen"`
}
