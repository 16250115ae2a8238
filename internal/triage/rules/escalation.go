package rules

import (
	"fmt"

	"github.com/wardwatch/wardwatch/pkg/vitals"
)

// Comparison operators for escalation rules.
const (
	OpGreater = "gt"
	OpLess    = "lt"
)

// Escalation forces a minimum severity when a single field crosses a hard
// clinical limit, regardless of what the fused score says. A matched
// escalation always makes the reading alert-worthy.
type Escalation struct {
	Name     string          `json:"name" mapstructure:"name"`
	Field    string          `json:"field" mapstructure:"field"`
	Op       string          `json:"op" mapstructure:"op"`
	Value    float64         `json:"value" mapstructure:"value"`
	Severity vitals.Severity `json:"severity" mapstructure:"severity"`
}

// Matches reports whether the reading trips this escalation. Readings
// missing the field never match.
func (e Escalation) Matches(r vitals.Reading) bool {
	v, ok := r.Fields[e.Field]
	if !ok {
		return false
	}
	switch e.Op {
	case OpGreater:
		return v > e.Value
	case OpLess:
		return v < e.Value
	default:
		return false
	}
}

// Validate rejects malformed escalation rules at config load time.
func (e Escalation) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("escalation rule missing name")
	}
	if e.Field == "" {
		return fmt.Errorf("escalation rule %q missing field", e.Name)
	}
	if e.Op != OpGreater && e.Op != OpLess {
		return fmt.Errorf("escalation rule %q: op must be %q or %q, got %q", e.Name, OpGreater, OpLess, e.Op)
	}
	if !vitals.ValidSeverity(string(e.Severity)) {
		return fmt.Errorf("escalation rule %q: unknown severity %q", e.Name, e.Severity)
	}
	return nil
}

// ApplyEscalations evaluates every rule against the reading. It returns the
// names of matched rules in rule order and the highest severity they demand
// (NORMAL when nothing matched).
func ApplyEscalations(r vitals.Reading, escalations []Escalation) ([]string, vitals.Severity) {
	var matched []string
	floor := vitals.SeverityNormal
	for _, e := range escalations {
		if e.Matches(r) {
			matched = append(matched, e.Name)
			floor = floor.Max(e.Severity)
		}
	}
	return matched, floor
}
