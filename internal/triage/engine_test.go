package triage

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/wardwatch/wardwatch/internal/triage/feature"
	"github.com/wardwatch/wardwatch/pkg/vitals"
)

var testBase = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

// fullReading returns a reading with every combined-schema field inside its
// normal band.
func fullReading(device string) vitals.Reading {
	return vitals.Reading{
		DeviceID:  device,
		Timestamp: testBase,
		Fields: map[string]float64{
			vitals.FieldHeartRate:       72,
			vitals.FieldSystolicBP:      118,
			vitals.FieldDiastolicBP:     76,
			vitals.FieldTemperature:     36.8,
			vitals.FieldOxygenLevel:     98,
			vitals.FieldRespiratoryRate: 15,
			vitals.FieldGlucose:         95,
			vitals.FieldRoomTemperature: 22.5,
			vitals.FieldHumidity:        45,
			vitals.FieldAirQuality:      35,
			vitals.FieldNoiseLevel:      40,
			vitals.FieldCO2Level:        600,
			vitals.FieldLightLevel:      300,
			vitals.FieldPressure:        1013,
		},
	}
}

// trainedSnapshot fits a model generation on a tightly clustered synthetic
// corpus around the fullReading values.
func trainedSnapshot(t *testing.T) *ModelSnapshot {
	t.Helper()

	base := fullReading("corpus").Fields
	spread := map[string]float64{
		vitals.FieldHeartRate:       3,
		vitals.FieldSystolicBP:      4,
		vitals.FieldDiastolicBP:     3,
		vitals.FieldTemperature:     0.2,
		vitals.FieldOxygenLevel:     1,
		vitals.FieldRespiratoryRate: 1,
		vitals.FieldGlucose:         5,
		vitals.FieldRoomTemperature: 0.5,
		vitals.FieldHumidity:        2,
		vitals.FieldAirQuality:      5,
		vitals.FieldNoiseLevel:      3,
		vitals.FieldCO2Level:        30,
		vitals.FieldLightLevel:      20,
		vitals.FieldPressure:        2,
	}

	rng := rand.New(rand.NewSource(7))
	data := make([][]float64, 200)
	for i := range data {
		vec := make([]float64, feature.CombinedSchema.Len())
		for j, field := range feature.CombinedSchema.Fields {
			vec[j] = base[field] + rng.NormFloat64()*spread[field]
		}
		data[i] = vec
	}

	tr := newTrainer(DefaultConfig())
	snap, err := tr.fit(context.Background(), feature.CombinedSchema, data)
	if err != nil {
		t.Fatalf("fit training corpus: %v", err)
	}
	return snap
}

func TestEvaluate_NormalReading(t *testing.T) {
	e := newEngine(DefaultConfig())

	result, err := e.evaluate(fullReading("monitor-1"), nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if result.IsAnomaly {
		t.Error("IsAnomaly = true for an all-normal reading")
	}
	if result.SeverityLevel != vitals.SeverityNormal {
		t.Errorf("SeverityLevel = %q, want %q", result.SeverityLevel, vitals.SeverityNormal)
	}
	if result.SeverityScore != 0 {
		t.Errorf("SeverityScore = %v, want 0", result.SeverityScore)
	}
	if result.AlertWorthy {
		t.Error("AlertWorthy = true for an all-normal reading")
	}
	if len(result.AnomalyTypes) != 0 {
		t.Errorf("AnomalyTypes = %v, want empty", result.AnomalyTypes)
	}
	if result.Details.ModelStatus != vitals.ModelStatusFallback {
		t.Errorf("ModelStatus = %q, want %q", result.Details.ModelStatus, vitals.ModelStatusFallback)
	}
	// Complete reading, no model: 14/14 * 0.5.
	if result.Details.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", result.Details.Confidence)
	}
}

func TestEvaluate_CriticalViolationFloorsHigh(t *testing.T) {
	e := newEngine(DefaultConfig())

	r := fullReading("monitor-1")
	r.Fields[vitals.FieldHeartRate] = 190

	result, err := e.evaluate(r, nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	// One critical violation scores 3 (MEDIUM range) but any critical
	// violation floors the severity at HIGH.
	if result.SeverityScore != 3 {
		t.Errorf("SeverityScore = %v, want 3", result.SeverityScore)
	}
	if result.SeverityLevel != vitals.SeverityHigh {
		t.Errorf("SeverityLevel = %q, want %q", result.SeverityLevel, vitals.SeverityHigh)
	}
	if !result.IsAnomaly {
		t.Error("IsAnomaly = false")
	}
	if !result.AlertWorthy {
		t.Error("AlertWorthy = false for a HIGH decision")
	}
	want := []string{"tachycardia_critical"}
	if !reflect.DeepEqual(result.AnomalyTypes, want) {
		t.Errorf("AnomalyTypes = %v, want %v", result.AnomalyTypes, want)
	}
}

func TestEvaluate_EscalationForcesCritical(t *testing.T) {
	e := newEngine(DefaultConfig())

	r := fullReading("monitor-1")
	r.Fields[vitals.FieldOxygenLevel] = 79

	result, err := e.evaluate(r, nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if result.SeverityLevel != vitals.SeverityCritical {
		t.Errorf("SeverityLevel = %q, want %q", result.SeverityLevel, vitals.SeverityCritical)
	}
	if !result.AlertWorthy {
		t.Error("AlertWorthy = false for an escalated decision")
	}
	if !reflect.DeepEqual(result.Details.Escalations, []string{"hypoxemia_critical"}) {
		t.Errorf("Escalations = %v, want [hypoxemia_critical]", result.Details.Escalations)
	}
	if !reflect.DeepEqual(result.AnomalyTypes, []string{"hypoxemia_critical"}) {
		t.Errorf("AnomalyTypes = %v, want [hypoxemia_critical]", result.AnomalyTypes)
	}
}

func TestEvaluate_WarningViolationIsLow(t *testing.T) {
	e := newEngine(DefaultConfig())

	r := fullReading("monitor-1")
	r.Fields[vitals.FieldGlucose] = 150

	result, err := e.evaluate(r, nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if result.SeverityLevel != vitals.SeverityLow {
		t.Errorf("SeverityLevel = %q, want %q", result.SeverityLevel, vitals.SeverityLow)
	}
	if !result.IsAnomaly {
		t.Error("IsAnomaly = false for a LOW decision")
	}
	if result.AlertWorthy {
		t.Error("AlertWorthy = true for a LOW decision")
	}
	if !reflect.DeepEqual(result.AnomalyTypes, []string{"hyperglycemia"}) {
		t.Errorf("AnomalyTypes = %v, want [hyperglycemia]", result.AnomalyTypes)
	}
}

func TestEvaluate_MultipleViolationsOrdered(t *testing.T) {
	e := newEngine(DefaultConfig())

	r := fullReading("monitor-1")
	r.Fields[vitals.FieldHeartRate] = 130  // critical high
	r.Fields[vitals.FieldOxygenLevel] = 92 // warning low
	r.Fields[vitals.FieldGlucose] = 150    // warning high

	result, err := e.evaluate(r, nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	// 3 + 1 + 1 = 5 lands in the HIGH band before any floor applies.
	if result.SeverityScore != 5 {
		t.Errorf("SeverityScore = %v, want 5", result.SeverityScore)
	}
	if result.SeverityLevel != vitals.SeverityHigh {
		t.Errorf("SeverityLevel = %q, want %q", result.SeverityLevel, vitals.SeverityHigh)
	}

	// Labels follow canonical field order regardless of map iteration.
	want := []string{"tachycardia_critical", "hypoxemia", "hyperglycemia"}
	if !reflect.DeepEqual(result.AnomalyTypes, want) {
		t.Errorf("AnomalyTypes = %v, want %v", result.AnomalyTypes, want)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := newEngine(DefaultConfig())
	snap := trainedSnapshot(t)

	r := fullReading("monitor-1")
	r.Fields[vitals.FieldHeartRate] = 130
	r.Fields[vitals.FieldGlucose] = 150

	window := []vitals.Reading{r}

	first, err := e.evaluate(r, snap, window)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := e.evaluate(r, snap, window)
		if err != nil {
			t.Fatalf("evaluate run %d: %v", i, err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d diverged:\nfirst = %+v\nagain = %+v", i, first, again)
		}
	}
}

func TestEvaluate_TrendContributes(t *testing.T) {
	e := newEngine(DefaultConfig())

	// Glucose climbing 20-30 units per minute, far above the 5/min rate.
	values := []float64{140, 160, 185, 210, 240}
	window := make([]vitals.Reading, len(values))
	for i, v := range values {
		window[i] = vitals.Reading{
			DeviceID:  "monitor-1",
			Timestamp: testBase.Add(time.Duration(i) * time.Minute),
			Fields:    map[string]float64{vitals.FieldGlucose: v},
		}
	}

	result, err := e.evaluate(window[len(window)-1], nil, window)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if !result.Trend.TrendAnomaly {
		t.Fatal("Trend.TrendAnomaly = false for a steep sustained climb")
	}
	if result.Trend.TrendType != "rising" {
		t.Errorf("Trend.TrendType = %q, want %q", result.Trend.TrendType, "rising")
	}
	// Glucose 240 is a critical violation (3) plus the trend point (1).
	if result.SeverityScore != 4 {
		t.Errorf("SeverityScore = %v, want 4", result.SeverityScore)
	}
	want := []string{"hyperglycemia_critical", "trend_rising"}
	if !reflect.DeepEqual(result.AnomalyTypes, want) {
		t.Errorf("AnomalyTypes = %v, want %v", result.AnomalyTypes, want)
	}
}

func TestEvaluate_TrendColdStart(t *testing.T) {
	e := newEngine(DefaultConfig())

	window := []vitals.Reading{
		{DeviceID: "monitor-1", Timestamp: testBase, Fields: map[string]float64{vitals.FieldGlucose: 100}},
		{DeviceID: "monitor-1", Timestamp: testBase.Add(time.Minute), Fields: map[string]float64{vitals.FieldGlucose: 130}},
	}

	result, err := e.evaluate(window[1], nil, window)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if result.Trend.TrendAnomaly {
		t.Error("Trend.TrendAnomaly = true with fewer samples than the minimum")
	}
	if len(result.Trend.Fields) != 0 {
		t.Errorf("Trend.Fields = %v, want empty below the sample minimum", result.Trend.Fields)
	}
}

func TestEvaluate_TrainedModelScoresInlier(t *testing.T) {
	e := newEngine(DefaultConfig())
	snap := trainedSnapshot(t)

	result, err := e.evaluate(fullReading("monitor-1"), snap, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if result.Details.ModelStatus != vitals.ModelStatusActive {
		t.Errorf("ModelStatus = %q, want %q", result.Details.ModelStatus, vitals.ModelStatusActive)
	}
	if !result.Details.Outlier.Evaluated || !result.Details.Cluster.Evaluated {
		t.Fatal("model outputs not evaluated despite an active snapshot")
	}
	if result.Details.Outlier.IsOutlier {
		t.Errorf("Outlier.IsOutlier = true for the corpus center (score %v)", result.Details.Outlier.Score)
	}
	if result.Details.Cluster.IsOutlier {
		t.Errorf("Cluster.IsOutlier = true for the corpus center (distance %v, threshold %v)",
			result.Details.Cluster.Distance, result.Details.Cluster.Threshold)
	}
	if result.SeverityLevel != vitals.SeverityNormal {
		t.Errorf("SeverityLevel = %q, want %q", result.SeverityLevel, vitals.SeverityNormal)
	}
	// Complete reading scored by an active model: full confidence.
	if result.Details.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", result.Details.Confidence)
	}
}

func TestEvaluate_TrainedModelScoresOutlier(t *testing.T) {
	e := newEngine(DefaultConfig())
	snap := trainedSnapshot(t)

	r := fullReading("monitor-1")
	r.Fields[vitals.FieldHeartRate] = 190
	r.Fields[vitals.FieldTemperature] = 41
	r.Fields[vitals.FieldOxygenLevel] = 70

	result, err := e.evaluate(r, snap, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if !result.Details.Outlier.IsOutlier {
		t.Errorf("Outlier.IsOutlier = false for an extreme reading (score %v)", result.Details.Outlier.Score)
	}
	if !result.Details.Cluster.IsOutlier {
		t.Errorf("Cluster.IsOutlier = false for an extreme reading (distance %v, threshold %v)",
			result.Details.Cluster.Distance, result.Details.Cluster.Threshold)
	}
	if result.AnomalyScore != result.Details.Outlier.Score {
		t.Errorf("AnomalyScore = %v, want outlier score %v", result.AnomalyScore, result.Details.Outlier.Score)
	}
	if result.SeverityLevel != vitals.SeverityCritical {
		t.Errorf("SeverityLevel = %q, want %q", result.SeverityLevel, vitals.SeverityCritical)
	}

	for _, label := range []string{"statistical_outlier", "cluster_outlier"} {
		found := false
		for _, got := range result.AnomalyTypes {
			if got == label {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("AnomalyTypes = %v, missing %q", result.AnomalyTypes, label)
		}
	}
}

func TestEvaluate_PartialReadingSubstitution(t *testing.T) {
	e := newEngine(DefaultConfig())
	snap := trainedSnapshot(t)

	r := fullReading("monitor-1")
	for _, field := range vitals.EnvironmentFields {
		delete(r.Fields, field)
	}

	result, err := e.evaluate(r, snap, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if len(result.Details.SubstitutedFields) != len(vitals.EnvironmentFields) {
		t.Errorf("SubstitutedFields = %v, want the %d environment fields",
			result.Details.SubstitutedFields, len(vitals.EnvironmentFields))
	}
	// 7 of 14 fields observed, model active: 0.5.
	if result.Details.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", result.Details.Confidence)
	}
}

func TestEvaluate_UnrecognizedFieldsRejected(t *testing.T) {
	e := newEngine(DefaultConfig())

	r := vitals.Reading{
		DeviceID:  "monitor-1",
		Timestamp: testBase,
		Fields:    map[string]float64{"flux_capacitance": 1.21},
	}

	_, err := e.evaluate(r, nil, nil)
	if !errors.Is(err, feature.ErrSchemaMismatch) {
		t.Errorf("evaluate error = %v, want ErrSchemaMismatch", err)
	}
}

func TestSeverityForScore_Breakpoints(t *testing.T) {
	e := newEngine(DefaultConfig())

	tests := []struct {
		score float64
		want  vitals.Severity
	}{
		{0, vitals.SeverityNormal},
		{1, vitals.SeverityLow},
		{2, vitals.SeverityLow},
		{3, vitals.SeverityMedium},
		{4, vitals.SeverityMedium},
		{5, vitals.SeverityHigh},
		{8, vitals.SeverityHigh},
		{9, vitals.SeverityCritical},
		{13, vitals.SeverityCritical},
	}
	for _, tt := range tests {
		if got := e.severityForScore(tt.score); got != tt.want {
			t.Errorf("severityForScore(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
