// Package feature turns sparse readings into the fixed-order numeric vectors
// the statistical models consume. A schema pins the field order; missing
// fields are filled with the schema's trained mean so vector length never
// varies for a given model.
package feature

import (
	"errors"
	"fmt"

	"github.com/wardwatch/wardwatch/pkg/vitals"
)

// ErrSchemaMismatch is returned when a reading shares no fields with the
// target schema. Match with errors.Is.
var ErrSchemaMismatch = errors.New("reading shares no fields with schema")

// Schema is an ordered list of field names defining one vector layout.
type Schema struct {
	Name   string
	Fields []string
}

// The three schemas WardWatch models are trained against.
var (
	VitalsSchema      = Schema{Name: "vitals", Fields: vitals.VitalFields}
	EnvironmentSchema = Schema{Name: "environment", Fields: vitals.EnvironmentFields}
	CombinedSchema    = Schema{Name: "combined", Fields: vitals.CombinedFields}
)

// SchemaByName resolves a schema from its persisted name.
func SchemaByName(name string) (Schema, bool) {
	switch name {
	case VitalsSchema.Name:
		return VitalsSchema, true
	case EnvironmentSchema.Name:
		return EnvironmentSchema, true
	case CombinedSchema.Name:
		return CombinedSchema, true
	default:
		return Schema{}, false
	}
}

// Len returns the vector length this schema produces.
func (s Schema) Len() int { return len(s.Fields) }

// Index returns the position of a field in the schema, or -1 if absent.
func (s Schema) Index(field string) int {
	for i, f := range s.Fields {
		if f == field {
			return i
		}
	}
	return -1
}

// Vector is one reading encoded against a schema.
type Vector struct {
	Values      []float64 // Schema order, always Schema.Len() long
	Substituted []string  // Fields that were absent and filled from defaults
}

// Build encodes a reading against the schema. Absent fields take the
// corresponding fill value (the schema's trained mean; pass nil for zeros
// when no model has been trained yet). Substituted field names are recorded
// in schema order so callers can down-weight confidence.
func Build(r vitals.Reading, schema Schema, fill []float64) (Vector, error) {
	if fill != nil && len(fill) != schema.Len() {
		return Vector{}, fmt.Errorf("fill length %d does not match schema %q length %d",
			len(fill), schema.Name, schema.Len())
	}

	overlap := 0
	values := make([]float64, schema.Len())
	var substituted []string
	for i, field := range schema.Fields {
		if v, ok := r.Fields[field]; ok {
			values[i] = v
			overlap++
			continue
		}
		if fill != nil {
			values[i] = fill[i]
		}
		substituted = append(substituted, field)
	}

	if overlap == 0 {
		return Vector{}, fmt.Errorf("%w: schema %q", ErrSchemaMismatch, schema.Name)
	}

	return Vector{Values: values, Substituted: substituted}, nil
}
