package telemetry

import (
	"testing"

	"github.com/wardwatch/wardwatch/pkg/vitals"
)

func TestKindFromFields(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]float64
		want   string
	}{
		{
			name: "vitals only",
			fields: map[string]float64{
				vitals.FieldHeartRate:   72,
				vitals.FieldOxygenLevel: 98,
			},
			want: KindPatientMonitor,
		},
		{
			name: "environment only",
			fields: map[string]float64{
				vitals.FieldHumidity: 45,
				vitals.FieldCO2Level: 600,
			},
			want: KindRoomSensor,
		},
		{
			name: "both",
			fields: map[string]float64{
				vitals.FieldHeartRate: 72,
				vitals.FieldHumidity:  45,
			},
			want: KindMixed,
		},
		{
			name:   "unrecognized fields",
			fields: map[string]float64{"battery_voltage": 3.7},
			want:   KindUnknown,
		},
		{
			name:   "empty",
			fields: map[string]float64{},
			want:   KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := kindFromFields(tt.fields); got != tt.want {
				t.Errorf("kindFromFields() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMergeKind(t *testing.T) {
	tests := []struct {
		stored   string
		observed string
		want     string
	}{
		{KindPatientMonitor, KindPatientMonitor, KindPatientMonitor},
		{KindUnknown, KindRoomSensor, KindRoomSensor},
		{"", KindPatientMonitor, KindPatientMonitor},
		{KindRoomSensor, KindUnknown, KindRoomSensor},
		{KindPatientMonitor, KindRoomSensor, KindMixed},
		{KindMixed, KindPatientMonitor, KindMixed},
	}

	for _, tt := range tests {
		if got := mergeKind(tt.stored, tt.observed); got != tt.want {
			t.Errorf("mergeKind(%q, %q) = %q, want %q", tt.stored, tt.observed, got, tt.want)
		}
	}
}
