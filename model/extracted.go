package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/siherrmann/preserver/helper"
)

// Measurement is a measured domain value, either a single reading or a
// min/max range. Exactly one of the two forms is populated.
type Measurement struct {
	Value *float64 `json:"value,omitempty"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

// NewScalarMeasurement creates a single-value measurement.
func NewScalarMeasurement(value float64) *Measurement {
	return &Measurement{Value: &value}
}

// NewRangeMeasurement creates a min/max range measurement.
func NewRangeMeasurement(min, max float64) *Measurement {
	return &Measurement{Min: &min, Max: &max}
}

// IsRange reports whether the measurement carries a min/max range.
func (m *Measurement) IsRange() bool {
	return m != nil && m.Min != nil && m.Max != nil
}

// Concentration is a dosed amount with its unit (ppm, mg/kg, %, g/kg, µL/g).
type Concentration struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// ExtractedMetadata holds the structured facts recognized in one chunk's
// text. Every field is optional: a nil pointer or nil slice means the
// pattern found nothing, never a placeholder zero. The record is a pure
// function of the chunk content.
type ExtractedMetadata struct {
	Acidity        *Measurement   `json:"ph,omitempty"`
	WaterActivity  *Measurement   `json:"aw,omitempty"`
	Concentration  *Concentration `json:"concentration,omitempty"`
	Microorganisms []string       `json:"microorganisms,omitempty"`
	Conservants    []string       `json:"conservants,omitempty"`
	HasNumericData bool           `json:"has_numeric_data"`
}

// IsEmpty reports whether no pattern matched at all.
func (e *ExtractedMetadata) IsEmpty() bool {
	return e == nil || (e.Acidity == nil && e.WaterActivity == nil &&
		e.Concentration == nil && len(e.Microorganisms) == 0 && len(e.Conservants) == 0)
}

// Value implements the driver.Valuer interface for database storage
func (e ExtractedMetadata) Value() (driver.Value, error) {
	return json.Marshal(e)
}

// Scan implements the sql.Scanner interface for database retrieval
func (e *ExtractedMetadata) Scan(value interface{}) error {
	if value == nil {
		*e = ExtractedMetadata{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(b, e)
}
