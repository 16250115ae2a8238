// Package vitals provides public SDK types for the WardWatch detection system.
// Readings flow in from bedside monitors and room sensors; detection results,
// anomaly records, and alert records flow out.
package vitals

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Patient vital sign fields.
const (
	FieldHeartRate       = "heart_rate"
	FieldSystolicBP      = "systolic_bp"
	FieldDiastolicBP     = "diastolic_bp"
	FieldTemperature     = "temperature"
	FieldOxygenLevel     = "oxygen_level"
	FieldRespiratoryRate = "respiratory_rate"
	FieldGlucose         = "glucose"
)

// Room environment fields.
const (
	FieldRoomTemperature = "room_temperature"
	FieldHumidity        = "humidity"
	FieldAirQuality      = "air_quality"
	FieldNoiseLevel      = "noise_level"
	FieldCO2Level        = "co2_level"
	FieldLightLevel      = "light_level"
	FieldPressure        = "pressure"
)

// VitalFields lists the patient vital fields in canonical order.
var VitalFields = []string{
	FieldHeartRate,
	FieldSystolicBP,
	FieldDiastolicBP,
	FieldTemperature,
	FieldOxygenLevel,
	FieldRespiratoryRate,
	FieldGlucose,
}

// EnvironmentFields lists the room environment fields in canonical order.
var EnvironmentFields = []string{
	FieldRoomTemperature,
	FieldHumidity,
	FieldAirQuality,
	FieldNoiseLevel,
	FieldCO2Level,
	FieldLightLevel,
	FieldPressure,
}

// CombinedFields lists all fields in canonical order: the seven vitals
// followed by the seven environment fields. Models train on this order.
var CombinedFields = append(append([]string{}, VitalFields...), EnvironmentFields...)

// ErrInvalidReading marks a malformed reading: empty device id or a
// non-finite field value. Match with errors.Is.
var ErrInvalidReading = errors.New("invalid reading")

// Reading is one timestamped snapshot of field values from a device.
// Fields may be sparse: a bedside monitor reports vitals only, a room
// sensor environment only. Immutable once recorded.
type Reading struct {
	DeviceID  string             `json:"device_id"`
	Timestamp time.Time          `json:"timestamp"`
	Fields    map[string]float64 `json:"fields"`
}

// Validate rejects readings that cannot be processed: an empty device id,
// no fields at all, or any NaN/Inf value. Returns an error wrapping
// ErrInvalidReading describing the first problem found.
func (r Reading) Validate() error {
	if r.DeviceID == "" {
		return fmt.Errorf("%w: empty device id", ErrInvalidReading)
	}
	if len(r.Fields) == 0 {
		return fmt.Errorf("%w: no fields", ErrInvalidReading)
	}
	for name, v := range r.Fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: field %q is not finite", ErrInvalidReading, name)
		}
	}
	return nil
}

// Severity is the ordinal classification of a detection decision.
type Severity string

// Severity levels, lowest to highest.
const (
	SeverityNormal   Severity = "NORMAL"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank returns the severity's ordinal position (NORMAL=0 .. CRITICAL=4).
// Unknown severities rank below NORMAL.
func (s Severity) Rank() int {
	switch s {
	case SeverityNormal:
		return 0
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return -1
}

// AtLeast reports whether s is at or above the other severity.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// Max returns the higher of the two severities.
func (s Severity) Max(other Severity) Severity {
	if other.Rank() > s.Rank() {
		return other
	}
	return s
}

// ValidSeverity reports whether the string names a known severity level.
func ValidSeverity(s string) bool {
	return Severity(s).Rank() >= 0
}

// Model status values reported in DetectionResult details.
const (
	ModelStatusActive   = "active"
	ModelStatusFallback = "rule_based_fallback"
)

// Threshold bands assigned by the rule engine.
const (
	BandNormal          = "within_normal"
	BandOutsideNormal   = "outside_normal"
	BandOutsideCritical = "outside_critical"
)

// RuleViolation describes one field outside its configured band.
type RuleViolation struct {
	Field string  `json:"field"`
	Value float64 `json:"value"`
	Band  string  `json:"band"` // "outside_normal" or "outside_critical"
	Label string  `json:"label"`
	Low   float64 `json:"low"`  // Normal range lower bound
	High  float64 `json:"high"` // Normal range upper bound
}

// OutlierOutput is the raw outlier model output for one reading.
// Score follows the decision-function convention: lower = more anomalous.
type OutlierOutput struct {
	Evaluated bool    `json:"evaluated"`
	IsOutlier bool    `json:"is_outlier"`
	Score     float64 `json:"score"`
}

// ClusterOutput is the raw cluster model output for one reading.
type ClusterOutput struct {
	Evaluated bool    `json:"evaluated"`
	IsOutlier bool    `json:"is_outlier"`
	Distance  float64 `json:"distance"`
	Centroid  int     `json:"centroid"` // Index of nearest centroid
	Threshold float64 `json:"threshold"`
}

// FieldTrend is the fitted drift for a single tracked field.
type FieldTrend struct {
	Field     string  `json:"field"`
	Slope     float64 `json:"slope"` // Units per minute
	TrendType string  `json:"trend_type"`
	Samples   int     `json:"samples"`
}

// TrendAnalysis summarizes directional drift over the device's recent readings.
// TrendType is the steepest flagged field's direction, empty when no flag.
type TrendAnalysis struct {
	TrendAnomaly bool         `json:"trend_anomaly"`
	TrendType    string       `json:"trend_type,omitempty"`
	Fields       []FieldTrend `json:"fields,omitempty"`
}

// Trend directions.
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
)

// Details carries per-model raw outputs and input-quality notes for one
// detection call.
type Details struct {
	ModelStatus       string          `json:"model_status"`
	RuleViolations    []RuleViolation `json:"rule_violations"`
	Outlier           OutlierOutput   `json:"outlier"`
	Cluster           ClusterOutput   `json:"cluster"`
	Escalations       []string        `json:"escalations,omitempty"`
	SubstitutedFields []string        `json:"substituted_fields,omitempty"`
	Confidence        float64         `json:"confidence"`
}

// DetectionResult is the engine's decision for one reading.
type DetectionResult struct {
	DeviceID      string        `json:"device_id"`
	Timestamp     time.Time     `json:"timestamp"`
	IsAnomaly     bool          `json:"is_anomaly"`
	AnomalyScore  float64       `json:"anomaly_score"`
	SeverityLevel Severity      `json:"severity_level"`
	SeverityScore float64       `json:"severity_score"`
	AnomalyTypes  []string      `json:"anomaly_type"`
	AlertWorthy   bool          `json:"alert_worthy"`
	Details       Details       `json:"details"`
	Trend         TrendAnalysis `json:"trend_analysis"`
}

// AnomalyRecord is the persisted log entry for one detection call.
// Append-only: one record per call, alerting or not.
type AnomalyRecord struct {
	ID            string             `json:"id"`
	DeviceID      string             `json:"device_id"`
	Timestamp     time.Time          `json:"timestamp"`
	Fields        map[string]float64 `json:"fields"` // Input reading values
	IsAnomaly     bool               `json:"is_anomaly"`
	AnomalyScore  float64            `json:"anomaly_score"`
	SeverityLevel Severity           `json:"severity_level"`
	SeverityScore float64            `json:"severity_score"`
	AnomalyTypes  []string           `json:"anomaly_type"`
	TrendAnomaly  bool               `json:"trend_anomaly"`
	TrendType     string             `json:"trend_type,omitempty"`
	ModelStatus   string             `json:"model_status"`
	Details       Details            `json:"details"`
	RecordedAt    time.Time          `json:"recorded_at"`
}

// AlertRecord is a raised alert with its resolution lifecycle. Every alert
// traces to exactly one AnomalyRecord; alerts are never deleted.
type AlertRecord struct {
	ID            string     `json:"id"`
	AnomalyID     string     `json:"anomaly_id"`
	DeviceID      string     `json:"device_id"`
	Timestamp     time.Time  `json:"timestamp"`
	SeverityLevel Severity   `json:"severity_level"`
	Message       string     `json:"message"`
	AnomalyTypes  []string   `json:"anomaly_type"`
	Resolved      bool       `json:"resolved"`
	ResolvedBy    string     `json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
