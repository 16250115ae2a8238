package triage

import (
	"fmt"
	"math"
	"sort"

	"github.com/wardwatch/wardwatch/internal/triage/feature"
	"github.com/wardwatch/wardwatch/internal/triage/rules"
	"github.com/wardwatch/wardwatch/internal/triage/trend"
	"github.com/wardwatch/wardwatch/pkg/vitals"
)

// Anomaly-type labels contributed by the statistical models and the trend
// analyzer, appended after the rule labels in that order.
const (
	labelStatisticalOutlier = "statistical_outlier"
	labelClusterOutlier     = "cluster_outlier"
	labelTrendPrefix        = "trend_"
)

// engine is the pure detection pipeline: rules, models, trend, fusion.
// It holds only immutable configuration; all mutable state (history, model
// snapshot) is passed per call, so identical inputs produce identical
// outputs.
type engine struct {
	cfg TriageConfig
}

func newEngine(cfg TriageConfig) *engine {
	return &engine{cfg: cfg}
}

// evaluate classifies one reading. snap is the model generation to score
// against (nil when never trained: rule-based fallback). window is the
// device's rolling history including this reading, oldest first.
func (e *engine) evaluate(r vitals.Reading, snap *ModelSnapshot, window []vitals.Reading) (vitals.DetectionResult, error) {
	if err := r.Validate(); err != nil {
		return vitals.DetectionResult{}, err
	}

	ruleRes := rules.Evaluate(r, e.cfg.Thresholds)
	escalated, escFloor := rules.ApplyEscalations(r, e.cfg.Escalations)

	details := vitals.Details{
		ModelStatus:    vitals.ModelStatusFallback,
		RuleViolations: ruleRes.Violations,
		Escalations:    escalated,
	}
	schemaLen := feature.CombinedSchema.Len()

	if snap != nil {
		vec, err := feature.Build(r, snap.Schema, snap.Scaler.Means)
		if err != nil {
			return vitals.DetectionResult{}, err
		}
		scaled, err := snap.Scaler.Transform(vec.Values)
		if err != nil {
			return vitals.DetectionResult{}, fmt.Errorf("scale feature vector: %w", err)
		}

		outFlag, outScore := snap.Forest.Score(scaled)
		details.Outlier = vitals.OutlierOutput{Evaluated: true, IsOutlier: outFlag, Score: outScore}

		centroid, dist := snap.Clusters.Nearest(scaled)
		details.Cluster = vitals.ClusterOutput{
			Evaluated: true,
			IsOutlier: dist > snap.Clusters.Threshold,
			Distance:  dist,
			Centroid:  centroid,
			Threshold: snap.Clusters.Threshold,
		}

		details.ModelStatus = vitals.ModelStatusActive
		details.SubstitutedFields = vec.Substituted
		schemaLen = snap.Schema.Len()
	} else {
		// No trained model: the reading must still overlap the combined
		// schema to be recognizable at all.
		vec, err := feature.Build(r, feature.CombinedSchema, nil)
		if err != nil {
			return vitals.DetectionResult{}, err
		}
		details.SubstitutedFields = vec.Substituted
	}

	trendRes := e.analyzeTrend(window)

	// Fusion: rule points, +2 per flagging model, +1 for a trend flag.
	score := ruleRes.Score
	if details.Outlier.IsOutlier {
		score += 2
	}
	if details.Cluster.IsOutlier {
		score += 2
	}
	if trendRes.TrendAnomaly {
		score++
	}

	severity := e.severityForScore(score)
	if ruleRes.CriticalCount > 0 {
		severity = severity.Max(vitals.SeverityHigh)
	}
	severity = severity.Max(escFloor)

	details.Confidence = e.confidence(details, schemaLen)

	result := vitals.DetectionResult{
		DeviceID:      r.DeviceID,
		Timestamp:     r.Timestamp,
		IsAnomaly:     severity != vitals.SeverityNormal,
		AnomalyScore:  details.Outlier.Score,
		SeverityLevel: severity,
		SeverityScore: score,
		AnomalyTypes:  e.anomalyTypes(ruleRes.Violations, details, trendRes),
		AlertWorthy:   severity.AtLeast(vitals.SeverityMedium) || len(escalated) > 0,
		Details:       details,
		Trend:         trendRes,
	}
	return result, nil
}

// analyzeTrend runs the drift detector over every configured field present
// in the window, canonical fields first, extra configured fields sorted.
func (e *engine) analyzeTrend(window []vitals.Reading) vitals.TrendAnalysis {
	var analysis vitals.TrendAnalysis
	var steepest float64

	track := func(field string, rate float64) {
		var points []trend.Point
		for _, r := range window {
			if v, ok := r.Fields[field]; ok {
				points = append(points, trend.Point{T: r.Timestamp, V: v})
			}
		}
		if len(points) < e.cfg.TrendMinSamples {
			return
		}
		res := trend.Analyze(points, rate, e.cfg.TrendMinSamples, e.cfg.TrendConsecutive)
		ft := vitals.FieldTrend{Field: field, Slope: res.Slope, Samples: res.Samples}
		if res.Flagged {
			ft.TrendType = res.Direction
			analysis.TrendAnomaly = true
			if math.Abs(res.Slope) > steepest {
				steepest = math.Abs(res.Slope)
				analysis.TrendType = res.Direction
			}
		}
		analysis.Fields = append(analysis.Fields, ft)
	}

	seen := make(map[string]bool, len(vitals.CombinedFields))
	for _, field := range vitals.CombinedFields {
		seen[field] = true
		if rate, ok := e.cfg.TrendRates[field]; ok {
			track(field, rate)
		}
	}
	var extra []string
	for field := range e.cfg.TrendRates {
		if !seen[field] {
			extra = append(extra, field)
		}
	}
	sort.Strings(extra)
	for _, field := range extra {
		track(field, e.cfg.TrendRates[field])
	}

	return analysis
}

func (e *engine) severityForScore(score float64) vitals.Severity {
	b := e.cfg.Breakpoints
	switch {
	case score > b.Critical:
		return vitals.SeverityCritical
	case score > b.High:
		return vitals.SeverityHigh
	case score > b.Medium:
		return vitals.SeverityMedium
	case score > b.Low:
		return vitals.SeverityLow
	default:
		return vitals.SeverityNormal
	}
}

// anomalyTypes assembles the ordered, deduplicated label list: rule labels
// in canonical field order, then model labels, then the trend label.
func (e *engine) anomalyTypes(violations []vitals.RuleViolation, details vitals.Details, trendRes vitals.TrendAnalysis) []string {
	var labels []string
	seen := make(map[string]bool)
	add := func(l string) {
		if l != "" && !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}

	for _, v := range violations {
		add(v.Label)
	}
	if details.Outlier.IsOutlier {
		add(labelStatisticalOutlier)
	}
	if details.Cluster.IsOutlier {
		add(labelClusterOutlier)
	}
	if trendRes.TrendAnomaly {
		add(labelTrendPrefix + trendRes.TrendType)
	}
	return labels
}

// confidence is input completeness times pipeline completeness: the fraction
// of schema fields actually observed, halved when the statistical models
// were unavailable. Rounded to three decimals.
func (e *engine) confidence(details vitals.Details, schemaLen int) float64 {
	present := schemaLen - len(details.SubstitutedFields)
	c := float64(present) / float64(schemaLen)
	if details.ModelStatus != vitals.ModelStatusActive {
		c *= 0.5
	}
	return math.Round(c*1000) / 1000
}
