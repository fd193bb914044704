// ABOUTME: Reading model with explicit Shape discriminant for health metrics.
// ABOUTME: Covers quantity, blood pressure, heart rate, and sleep readings.
package models

import "time"

// Shape identifies the structural form of a reading. It is decided once
// at ingestion and carried on the record so downstream code never has to
// probe fields to figure out what it is holding.
type Shape string

const (
	ShapeQuantity      Shape = "quantity"
	ShapeBloodPressure Shape = "blood_pressure"
	ShapeHeartRate     Shape = "heart_rate"
	ShapeSleep         Shape = "sleep"
)

// Reading represents a single health data point. Which value fields are
// populated depends on Shape; the rest stay nil and are omitted from JSON.
type Reading struct {
	Shape  Shape     `json:"shape"`
	Type   string    `json:"type"`
	Date   time.Time `json:"date"`
	Source string    `json:"source,omitempty"`
	Units  string    `json:"units,omitempty"`

	// quantity
	Qty *float64 `json:"qty,omitempty"`

	// blood_pressure
	Systolic  *float64 `json:"systolic,omitempty"`
	Diastolic *float64 `json:"diastolic,omitempty"`

	// heart_rate
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
	Avg *float64 `json:"avg,omitempty"`

	// sleep
	SleepStart *time.Time `json:"sleep_start,omitempty"`
	SleepEnd   *time.Time `json:"sleep_end,omitempty"`
	Asleep     *float64   `json:"asleep,omitempty"`
	InBed      *float64   `json:"in_bed,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewQuantity creates a scalar reading such as weight or step count.
func NewQuantity(metricType string, date time.Time, qty float64, units string) *Reading {
	return &Reading{
		Shape: ShapeQuantity,
		Type:  metricType,
		Date:  date,
		Qty:   &qty,
		Units: units,
	}
}

// NewBloodPressure creates a blood pressure reading.
func NewBloodPressure(date time.Time, systolic, diastolic float64) *Reading {
	return &Reading{
		Shape:     ShapeBloodPressure,
		Type:      "blood_pressure",
		Date:      date,
		Systolic:  &systolic,
		Diastolic: &diastolic,
		Units:     "mmHg",
	}
}

// NewHeartRate creates an aggregated heart rate reading.
func NewHeartRate(date time.Time, min, max, avg float64) *Reading {
	return &Reading{
		Shape: ShapeHeartRate,
		Type:  "heart_rate",
		Date:  date,
		Min:   &min,
		Max:   &max,
		Avg:   &avg,
		Units: "bpm",
	}
}

// NewSleep creates a sleep session reading. Hours are split between time
// asleep and total time in bed.
func NewSleep(start, end time.Time, asleep, inBed float64) *Reading {
	date := end
	return &Reading{
		Shape:      ShapeSleep,
		Type:       "sleep_analysis",
		Date:       date,
		SleepStart: &start,
		SleepEnd:   &end,
		Asleep:     &asleep,
		InBed:      &inBed,
		Units:      "hours",
	}
}

// WithSource sets the originating device or app label.
func (r *Reading) WithSource(source string) *Reading {
	r.Source = source
	return r
}

// WithUnits overrides the default units.
func (r *Reading) WithUnits(units string) *Reading {
	r.Units = units
	return r
}

// WithMetadata attaches extra key/value data carried through to storage.
func (r *Reading) WithMetadata(md map[string]any) *Reading {
	r.Metadata = md
	return r
}

// InferShape derives the shape from which value fields are populated, for
// records arriving from payloads that omit the discriminant. The ingest
// boundary stamps this once; downstream code trusts Shape.
func InferShape(r Reading) Shape {
	switch {
	case r.SleepStart != nil || r.SleepEnd != nil || r.Asleep != nil || r.InBed != nil:
		return ShapeSleep
	case r.Systolic != nil && r.Diastolic != nil:
		return ShapeBloodPressure
	case r.Min != nil && r.Max != nil && r.Avg != nil:
		return ShapeHeartRate
	default:
		return ShapeQuantity
	}
}

// Day returns the UTC calendar date (YYYY-MM-DD) this reading belongs to.
// Sleep sessions that cross midnight attribute to the day of wake, so a
// night starting 23:00 Monday lands in Tuesday's file.
func (r *Reading) Day() string {
	if r.Shape == ShapeSleep && r.SleepEnd != nil {
		return r.SleepEnd.UTC().Format("2006-01-02")
	}
	return r.Date.UTC().Format("2006-01-02")
}

// MetricSeries is one ingested metric type with its readings, as delivered
// by an upstream exporter payload.
type MetricSeries struct {
	Name     string    `json:"name"`
	Units    string    `json:"units,omitempty"`
	Readings []Reading `json:"data"`
}
