package feature

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/wardwatch/wardwatch/pkg/vitals"
)

const epsilon = 1e-9

func testReading(fields map[string]float64) vitals.Reading {
	return vitals.Reading{
		DeviceID:  "monitor-001",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Fields:    fields,
	}
}

func TestBuildFullVitals(t *testing.T) {
	t.Parallel()

	r := testReading(map[string]float64{
		vitals.FieldHeartRate:       72,
		vitals.FieldSystolicBP:      118,
		vitals.FieldDiastolicBP:     76,
		vitals.FieldTemperature:     36.8,
		vitals.FieldOxygenLevel:     98,
		vitals.FieldRespiratoryRate: 16,
		vitals.FieldGlucose:         95,
	})

	vec, err := Build(r, VitalsSchema, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(vec.Values) != VitalsSchema.Len() {
		t.Fatalf("vector length = %d, want %d", len(vec.Values), VitalsSchema.Len())
	}
	if len(vec.Substituted) != 0 {
		t.Errorf("substituted = %v, want none", vec.Substituted)
	}
	if got := vec.Values[VitalsSchema.Index(vitals.FieldHeartRate)]; got != 72 {
		t.Errorf("heart_rate position = %v, want 72", got)
	}
	if got := vec.Values[VitalsSchema.Index(vitals.FieldGlucose)]; got != 95 {
		t.Errorf("glucose position = %v, want 95", got)
	}
}

func TestBuildPartialReadingSubstitutes(t *testing.T) {
	t.Parallel()

	r := testReading(map[string]float64{
		vitals.FieldHeartRate:   80,
		vitals.FieldOxygenLevel: 97,
	})
	fill := make([]float64, VitalsSchema.Len())
	for i := range fill {
		fill[i] = float64(10 * (i + 1))
	}

	vec, err := Build(r, VitalsSchema, fill)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if want := VitalsSchema.Len() - 2; len(vec.Substituted) != want {
		t.Fatalf("substituted %d fields, want %d", len(vec.Substituted), want)
	}
	// Present fields keep the observed value, absent fields take the fill.
	if got := vec.Values[VitalsSchema.Index(vitals.FieldHeartRate)]; got != 80 {
		t.Errorf("heart_rate = %v, want 80", got)
	}
	tempIdx := VitalsSchema.Index(vitals.FieldTemperature)
	if got := vec.Values[tempIdx]; got != fill[tempIdx] {
		t.Errorf("temperature = %v, want fill value %v", got, fill[tempIdx])
	}
	for _, f := range vec.Substituted {
		if _, present := r.Fields[f]; present {
			t.Errorf("field %q recorded as substituted but was present", f)
		}
	}
}

func TestBuildNoOverlapIsSchemaMismatch(t *testing.T) {
	t.Parallel()

	r := testReading(map[string]float64{
		vitals.FieldRoomTemperature: 22,
		vitals.FieldHumidity:        45,
	})

	_, err := Build(r, VitalsSchema, nil)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Build() error = %v, want ErrSchemaMismatch", err)
	}
}

func TestBuildFillLengthValidated(t *testing.T) {
	t.Parallel()

	r := testReading(map[string]float64{vitals.FieldHeartRate: 70})
	if _, err := Build(r, VitalsSchema, []float64{1, 2}); err == nil {
		t.Fatal("Build() with short fill slice should fail")
	}
}

func TestCombinedSchemaOrder(t *testing.T) {
	t.Parallel()

	if got, want := CombinedSchema.Len(), len(vitals.VitalFields)+len(vitals.EnvironmentFields); got != want {
		t.Fatalf("combined schema length = %d, want %d", got, want)
	}
	// Vitals come first, environment after, in declaration order.
	for i, f := range vitals.VitalFields {
		if CombinedSchema.Fields[i] != f {
			t.Errorf("combined[%d] = %q, want %q", i, CombinedSchema.Fields[i], f)
		}
	}
	for i, f := range vitals.EnvironmentFields {
		j := len(vitals.VitalFields) + i
		if CombinedSchema.Fields[j] != f {
			t.Errorf("combined[%d] = %q, want %q", j, CombinedSchema.Fields[j], f)
		}
	}
}

func TestFitScaler(t *testing.T) {
	t.Parallel()

	data := [][]float64{
		{1, 10, 5},
		{3, 10, 7},
		{5, 10, 9},
	}
	s, err := FitScaler(data)
	if err != nil {
		t.Fatalf("FitScaler() error = %v", err)
	}
	wantMeans := []float64{3, 10, 7}
	for i, want := range wantMeans {
		if math.Abs(s.Means[i]-want) > epsilon {
			t.Errorf("mean[%d] = %v, want %v", i, s.Means[i], want)
		}
	}
	// Population stddev of {1,3,5} is sqrt(8/3); constant column falls back to 1.
	if want := math.Sqrt(8.0 / 3.0); math.Abs(s.Stddevs[0]-want) > epsilon {
		t.Errorf("stddev[0] = %v, want %v", s.Stddevs[0], want)
	}
	if s.Stddevs[1] != 1 {
		t.Errorf("zero-variance stddev = %v, want 1", s.Stddevs[1])
	}
}

func TestScalerTransform(t *testing.T) {
	t.Parallel()

	s := Scaler{Means: []float64{10, 0}, Stddevs: []float64{2, 1}}
	out, err := s.Transform([]float64{14, 3})
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if math.Abs(out[0]-2) > epsilon || math.Abs(out[1]-3) > epsilon {
		t.Errorf("Transform() = %v, want [2 3]", out)
	}

	if _, err := s.Transform([]float64{1}); err == nil {
		t.Error("Transform() with wrong dimensionality should fail")
	}
}

func TestScalerRoundTripCentering(t *testing.T) {
	t.Parallel()

	data := [][]float64{
		{62, 110}, {75, 125}, {88, 140}, {71, 118}, {79, 132},
	}
	s, err := FitScaler(data)
	if err != nil {
		t.Fatalf("FitScaler() error = %v", err)
	}
	scaled, err := s.TransformAll(data)
	if err != nil {
		t.Fatalf("TransformAll() error = %v", err)
	}
	for dim := 0; dim < 2; dim++ {
		var sum float64
		for _, row := range scaled {
			sum += row[dim]
		}
		if mean := sum / float64(len(scaled)); math.Abs(mean) > epsilon {
			t.Errorf("scaled mean[%d] = %v, want 0", dim, mean)
		}
	}
}
