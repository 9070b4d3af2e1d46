package fhir

import (
	"encoding/json"
	"fmt"
	"time"
)

// Precision records how much of a FHIR dateTime was actually supplied.
type Precision string

const (
	PrecisionYear  Precision = "YYYY"
	PrecisionMonth Precision = "YYYY-MM"
	PrecisionDay   Precision = "YYYY-MM-DD"
	PrecisionFull  Precision = "FULL"
)

var precisionLayouts = map[Precision]string{
	PrecisionYear:  "2006",
	PrecisionMonth: "2006-01",
	PrecisionDay:   "2006-01-02",
}

// DateTime represents a FHIR dateTime, e.g. ConceptMap.date or
// Meta.lastUpdated.
type DateTime struct {
	time.Time
	Precision Precision
}

// NewDateTime creates a full-precision DateTime.
func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t, Precision: PrecisionFull}
}

// String renders the value at its recorded precision. Full values always
// carry milliseconds and an explicit zone.
func (d DateTime) String() string {
	if d.Time.IsZero() {
		return ""
	}
	if layout, ok := precisionLayouts[d.Precision]; ok {
		return d.Time.Format(layout)
	}
	return d.Time.Format("2006-01-02T15:04:05.000Z07:00")
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("dateTime must be a string: %w", err)
	}
	if s == "" {
		*d = DateTime{}
		return nil
	}

	for precision, layout := range precisionLayouts {
		if len(s) != len(layout) {
			continue
		}
		if t, err := time.Parse(layout, s); err == nil {
			*d = DateTime{Time: t, Precision: precision}
			return nil
		}
	}

	// RFC3339Nano accepts both with and without fractional seconds.
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid datetime format: %s: %w", s, err)
	}
	*d = DateTime{Time: t, Precision: PrecisionFull}
	return nil
}
