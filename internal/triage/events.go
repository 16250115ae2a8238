package triage

// Event topics consumed by the Triage module.
const (
	TopicReadingReceived = "telemetry.reading.received"
)

// Event topics published by the Triage module.
const (
	TopicAnomalyDetected = "triage.anomaly.detected"
	TopicAlertTriggered  = "triage.alert.triggered"
	TopicAlertResolved   = "triage.alert.resolved"
	TopicModelTrained    = "triage.model.trained"
)
