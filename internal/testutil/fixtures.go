package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/wardwatch/wardwatch/pkg/vitals"
)

// NewReading returns a patient-monitor Reading with every vital inside its
// normal band, suitable as a test fixture. Override individual fields with
// options as needed.
func NewReading(opts ...func(*vitals.Reading)) vitals.Reading {
	r := vitals.Reading{
		DeviceID:  "monitor-" + uuid.New().String()[:8],
		Timestamp: time.Now().UTC(),
		Fields: map[string]float64{
			vitals.FieldHeartRate:       72,
			vitals.FieldSystolicBP:      118,
			vitals.FieldDiastolicBP:     76,
			vitals.FieldTemperature:     36.8,
			vitals.FieldOxygenLevel:     98,
			vitals.FieldRespiratoryRate: 15,
			vitals.FieldGlucose:         95,
		},
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// NewEnvironmentReading returns a room-sensor Reading with ambient values
// inside their normal bands.
func NewEnvironmentReading(opts ...func(*vitals.Reading)) vitals.Reading {
	r := vitals.Reading{
		DeviceID:  "room-" + uuid.New().String()[:8],
		Timestamp: time.Now().UTC(),
		Fields: map[string]float64{
			vitals.FieldRoomTemperature: 22.5,
			vitals.FieldHumidity:        45,
			vitals.FieldAirQuality:      35,
			vitals.FieldNoiseLevel:      40,
			vitals.FieldCO2Level:        600,
			vitals.FieldLightLevel:      300,
			vitals.FieldPressure:        1013,
		},
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// WithDevice sets the reading's device ID.
func WithDevice(id string) func(*vitals.Reading) {
	return func(r *vitals.Reading) { r.DeviceID = id }
}

// WithTimestamp sets the reading's timestamp.
func WithTimestamp(t time.Time) func(*vitals.Reading) {
	return func(r *vitals.Reading) { r.Timestamp = t }
}

// WithField sets a single field value, adding it if absent.
func WithField(name string, value float64) func(*vitals.Reading) {
	return func(r *vitals.Reading) { r.Fields[name] = value }
}

// WithFields replaces the reading's field map entirely.
func WithFields(fields map[string]float64) func(*vitals.Reading) {
	return func(r *vitals.Reading) { r.Fields = fields }
}

// WithoutField removes a field from the reading.
func WithoutField(name string) func(*vitals.Reading) {
	return func(r *vitals.Reading) { delete(r.Fields, name) }
}
