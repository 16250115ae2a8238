package telemetry

import "github.com/wardwatch/wardwatch/pkg/vitals"

// Device kinds inferred from which fields a device reports.
const (
	KindPatientMonitor = "patient_monitor"
	KindRoomSensor     = "room_sensor"
	KindMixed          = "mixed"
	KindUnknown        = "unknown"
)

var (
	vitalFieldSet = fieldSet(vitals.VitalFields)
	envFieldSet   = fieldSet(vitals.EnvironmentFields)
)

func fieldSet(fields []string) map[string]struct{} {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// kindFromFields classifies a device by the fields in one reading. A bedside
// monitor reports vitals, a room sensor environment values; a combined unit
// reports both.
func kindFromFields(fields map[string]float64) string {
	var hasVital, hasEnv bool
	for name := range fields {
		if _, ok := vitalFieldSet[name]; ok {
			hasVital = true
		}
		if _, ok := envFieldSet[name]; ok {
			hasEnv = true
		}
	}
	switch {
	case hasVital && hasEnv:
		return KindMixed
	case hasVital:
		return KindPatientMonitor
	case hasEnv:
		return KindRoomSensor
	}
	return KindUnknown
}

// mergeKind reconciles a device's stored kind with the kind observed in a new
// reading. A device seen reporting both vitals and environment over time is a
// combined unit even if no single reading carries both.
func mergeKind(stored, observed string) string {
	switch {
	case stored == observed:
		return stored
	case stored == "" || stored == KindUnknown:
		return observed
	case observed == KindUnknown:
		return stored
	}
	return KindMixed
}
