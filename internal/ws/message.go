package ws

import "time"

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageReadingReceived MessageType = "reading.received"
	MessageDeviceStale     MessageType = "device.stale"
	MessageAnomalyDetected MessageType = "anomaly.detected"
	MessageAlertTriggered  MessageType = "alert.triggered"
	MessageAlertResolved   MessageType = "alert.resolved"
	MessageModelTrained    MessageType = "model.trained"
)

// Message is the envelope for all WebSocket messages. DeviceID is empty for
// messages that do not concern a single device (model.trained).
type Message struct {
	Type      MessageType `json:"type"`
	DeviceID  string      `json:"device_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}
