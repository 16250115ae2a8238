// Package rules implements threshold-band checks against configured clinical
// ranges. Each field has a normal band and a wider critical band; values
// outside them produce labeled violations that feed severity fusion.
package rules

import (
	"sort"

	"github.com/wardwatch/wardwatch/pkg/vitals"
)

// Band is the configured range pair for one field. The critical band must
// contain the normal band.
type Band struct {
	Low          float64 `json:"low" mapstructure:"low"`
	High         float64 `json:"high" mapstructure:"high"`
	CriticalLow  float64 `json:"critical_low" mapstructure:"critical_low"`
	CriticalHigh float64 `json:"critical_high" mapstructure:"critical_high"`
}

// Classify places a value in one of the three bands.
func (b Band) Classify(v float64) string {
	if v < b.CriticalLow || v > b.CriticalHigh {
		return vitals.BandOutsideCritical
	}
	if v < b.Low || v > b.High {
		return vitals.BandOutsideNormal
	}
	return vitals.BandNormal
}

// Table maps field names to their configured bands. Fields absent from the
// table are never rule-checked (they still reach the statistical models).
type Table map[string]Band

// Severity points contributed per violation.
const (
	criticalPoints = 3
	warningPoints  = 1
)

// Result is the rule engine's verdict for one reading.
type Result struct {
	Violations    []vitals.RuleViolation
	Score         float64 // criticalPoints per critical violation, warningPoints per warning
	CriticalCount int
}

// Evaluate checks every reading field that has a configured band. Violations
// come back in canonical field order so repeated calls on the same reading
// are byte-identical; fields outside the canonical set follow, sorted.
func Evaluate(r vitals.Reading, table Table) Result {
	var res Result

	check := func(field string) {
		v, ok := r.Fields[field]
		if !ok {
			return
		}
		band, ok := table[field]
		if !ok {
			return
		}
		cls := band.Classify(v)
		if cls == vitals.BandNormal {
			return
		}
		res.Violations = append(res.Violations, vitals.RuleViolation{
			Field: field,
			Value: v,
			Band:  cls,
			Label: violationLabel(field, v, band, cls),
			Low:   band.Low,
			High:  band.High,
		})
		if cls == vitals.BandOutsideCritical {
			res.Score += criticalPoints
			res.CriticalCount++
		} else {
			res.Score += warningPoints
		}
	}

	seen := make(map[string]bool, len(vitals.CombinedFields))
	for _, field := range vitals.CombinedFields {
		seen[field] = true
		check(field)
	}
	var extra []string
	for field := range r.Fields {
		if !seen[field] {
			extra = append(extra, field)
		}
	}
	sort.Strings(extra)
	for _, field := range extra {
		check(field)
	}

	return res
}

// labelPair holds the clinical names for a field's high and low excursions.
type labelPair struct {
	high string
	low  string
}

var clinicalLabels = map[string]labelPair{
	vitals.FieldHeartRate:       {high: "tachycardia", low: "bradycardia"},
	vitals.FieldSystolicBP:      {high: "hypertension", low: "hypotension"},
	vitals.FieldDiastolicBP:     {high: "hypertension", low: "hypotension"},
	vitals.FieldTemperature:     {high: "fever", low: "hypothermia"},
	vitals.FieldOxygenLevel:     {high: "hyperoxia", low: "hypoxemia"},
	vitals.FieldRespiratoryRate: {high: "tachypnea", low: "bradypnea"},
	vitals.FieldGlucose:         {high: "hyperglycemia", low: "hypoglycemia"},
}

// violationLabel names a violation clinically where a term exists, falling
// back to <field>_high / <field>_low. Critical-band excursions get a
// "_critical" suffix.
func violationLabel(field string, v float64, band Band, cls string) string {
	pair, ok := clinicalLabels[field]
	if !ok {
		pair = labelPair{high: field + "_high", low: field + "_low"}
	}
	mid := (band.Low + band.High) / 2
	label := pair.high
	if v < mid {
		label = pair.low
	}
	if cls == vitals.BandOutsideCritical {
		label += "_critical"
	}
	return label
}
