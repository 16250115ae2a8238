package triage

import (
	"fmt"
	"time"

	"github.com/wardwatch/wardwatch/internal/triage/rules"
	"github.com/wardwatch/wardwatch/pkg/vitals"
)

// Breakpoints map the fused severity score onto levels. Each bound is
// exclusive: a score must strictly exceed it to reach the level.
type Breakpoints struct {
	Critical float64 `mapstructure:"critical"`
	High     float64 `mapstructure:"high"`
	Medium   float64 `mapstructure:"medium"`
	Low      float64 `mapstructure:"low"`
}

// TriageConfig holds configuration for the Triage detection plugin.
// Loaded once at Init and read-only afterwards.
type TriageConfig struct {
	Thresholds  rules.Table        `mapstructure:"thresholds"`
	Escalations []rules.Escalation `mapstructure:"escalations"`

	// Outlier model hyperparameters.
	Contamination float64 `mapstructure:"contamination"`
	Trees         int     `mapstructure:"trees"`
	SampleSize    int     `mapstructure:"sample_size"`
	Seed          int64   `mapstructure:"seed"`

	// Cluster model hyperparameters.
	Clusters     int     `mapstructure:"clusters"`
	ClusterSigma float64 `mapstructure:"cluster_sigma"`

	// Trend analyzer.
	HistoryWindow    int                `mapstructure:"history_window"`
	TrendMinSamples  int                `mapstructure:"trend_min_samples"`
	TrendConsecutive int                `mapstructure:"trend_consecutive"`
	TrendRates       map[string]float64 `mapstructure:"trend_rates"` // Units per minute

	// Severity fusion.
	Breakpoints Breakpoints `mapstructure:"breakpoints"`

	// Retraining.
	MinTrainingSamples int           `mapstructure:"min_training_samples"`
	TrainWindow        time.Duration `mapstructure:"train_window"`

	// Maintenance. Alerts are never purged; only old anomaly log entries.
	AnomalyRetention    time.Duration `mapstructure:"anomaly_retention"`
	MaintenanceInterval time.Duration `mapstructure:"maintenance_interval"`
}

// DefaultConfig returns the clinical defaults for the Triage module.
func DefaultConfig() TriageConfig {
	return TriageConfig{
		Thresholds: rules.Table{
			vitals.FieldHeartRate:       {Low: 60, High: 100, CriticalLow: 40, CriticalHigh: 120},
			vitals.FieldSystolicBP:      {Low: 90, High: 140, CriticalLow: 70, CriticalHigh: 180},
			vitals.FieldDiastolicBP:     {Low: 60, High: 90, CriticalLow: 40, CriticalHigh: 110},
			vitals.FieldTemperature:     {Low: 36.1, High: 37.2, CriticalLow: 35.0, CriticalHigh: 39.0},
			vitals.FieldOxygenLevel:     {Low: 95, High: 100, CriticalLow: 90, CriticalHigh: 100},
			vitals.FieldRespiratoryRate: {Low: 12, High: 20, CriticalLow: 8, CriticalHigh: 30},
			vitals.FieldGlucose:         {Low: 70, High: 140, CriticalLow: 50, CriticalHigh: 200},
			vitals.FieldRoomTemperature: {Low: 20, High: 24, CriticalLow: 15, CriticalHigh: 30},
			vitals.FieldHumidity:        {Low: 40, High: 60, CriticalLow: 20, CriticalHigh: 80},
			vitals.FieldAirQuality:      {Low: 0, High: 50, CriticalLow: 0, CriticalHigh: 100},
		},
		Escalations: []rules.Escalation{
			{Name: "hypoxemia_critical", Field: vitals.FieldOxygenLevel, Op: rules.OpLess, Value: 80, Severity: vitals.SeverityCritical},
			{Name: "hypertensive_crisis", Field: vitals.FieldSystolicBP, Op: rules.OpGreater, Value: 180, Severity: vitals.SeverityCritical},
			{Name: "hypothermia_critical", Field: vitals.FieldTemperature, Op: rules.OpLess, Value: 35, Severity: vitals.SeverityCritical},
			{Name: "hyperglycemia_critical", Field: vitals.FieldGlucose, Op: rules.OpGreater, Value: 400, Severity: vitals.SeverityCritical},
			{Name: "hypoglycemia_critical", Field: vitals.FieldGlucose, Op: rules.OpLess, Value: 50, Severity: vitals.SeverityCritical},
		},

		Contamination: 0.1,
		Trees:         100,
		SampleSize:    256,
		Seed:          42,

		Clusters:     3,
		ClusterSigma: 2.0,

		HistoryWindow:    10,
		TrendMinSamples:  3,
		TrendConsecutive: 3,
		TrendRates: map[string]float64{
			vitals.FieldHeartRate:       2,
			vitals.FieldSystolicBP:      1.5,
			vitals.FieldDiastolicBP:     1.0,
			vitals.FieldTemperature:     0.05,
			vitals.FieldOxygenLevel:     0.5,
			vitals.FieldRespiratoryRate: 0.5,
			vitals.FieldGlucose:         5,
		},

		Breakpoints: Breakpoints{Critical: 8, High: 4, Medium: 2, Low: 0},

		MinTrainingSamples: 50,
		TrainWindow:        168 * time.Hour,

		AnomalyRetention:    90 * 24 * time.Hour,
		MaintenanceInterval: 1 * time.Hour,
	}
}

// Validate implements the checks behind plugin.Validator. Escalation rules,
// threshold band nesting, hyperparameter ranges, and breakpoint ordering are
// all rejected at startup rather than at detection time.
func (c TriageConfig) Validate() error {
	for field, band := range c.Thresholds {
		if band.Low > band.High {
			return fmt.Errorf("thresholds[%s]: low %v above high %v", field, band.Low, band.High)
		}
		if band.CriticalLow > band.Low || band.CriticalHigh < band.High {
			return fmt.Errorf("thresholds[%s]: critical band must contain the normal band", field)
		}
	}
	for _, e := range c.Escalations {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	if c.Contamination <= 0 || c.Contamination >= 0.5 {
		return fmt.Errorf("contamination must be in (0, 0.5), got %v", c.Contamination)
	}
	if c.Trees <= 0 {
		return fmt.Errorf("trees must be positive, got %d", c.Trees)
	}
	if c.SampleSize <= 0 {
		return fmt.Errorf("sample_size must be positive, got %d", c.SampleSize)
	}
	if c.Clusters <= 0 {
		return fmt.Errorf("clusters must be positive, got %d", c.Clusters)
	}
	if c.ClusterSigma <= 0 {
		return fmt.Errorf("cluster_sigma must be positive, got %v", c.ClusterSigma)
	}
	if c.HistoryWindow < 2 {
		return fmt.Errorf("history_window must be at least 2, got %d", c.HistoryWindow)
	}
	if c.TrendMinSamples < 2 {
		return fmt.Errorf("trend_min_samples must be at least 2, got %d", c.TrendMinSamples)
	}
	if c.TrendConsecutive < 1 {
		return fmt.Errorf("trend_consecutive must be at least 1, got %d", c.TrendConsecutive)
	}
	for field, rate := range c.TrendRates {
		if rate <= 0 {
			return fmt.Errorf("trend_rates[%s] must be positive, got %v", field, rate)
		}
	}
	b := c.Breakpoints
	if !(b.Critical > b.High && b.High > b.Medium && b.Medium > b.Low && b.Low >= 0) {
		return fmt.Errorf("breakpoints must descend critical > high > medium > low >= 0, got %+v", b)
	}
	if c.MinTrainingSamples < 2 {
		return fmt.Errorf("min_training_samples must be at least 2, got %d", c.MinTrainingSamples)
	}
	if c.TrainWindow <= 0 {
		return fmt.Errorf("train_window must be positive, got %v", c.TrainWindow)
	}
	return nil
}
