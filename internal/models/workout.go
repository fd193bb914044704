// ABOUTME: Workout and Route models for exercise sessions.
// ABOUTME: Workouts carry an external id used for upsert semantics.
package models

import "time"

// Quantity is a measured value with its units.
type Quantity struct {
	Qty   float64 `json:"qty"`
	Units string  `json:"units"`
}

// Workout represents one exercise session. ID is the external identifier
// assigned by the exporting app; re-ingesting a session with the same ID
// replaces the stored copy rather than duplicating it.
type Workout struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	StartedAt time.Time      `json:"start"`
	EndedAt   *time.Time     `json:"end,omitempty"`
	Source    string         `json:"source,omitempty"`
	Duration  *float64       `json:"duration,omitempty"`
	Distance  *Quantity      `json:"distance,omitempty"`
	Energy    *Quantity      `json:"energy,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewWorkout creates a workout session.
func NewWorkout(id, name string, startedAt time.Time) *Workout {
	return &Workout{
		ID:        id,
		Name:      name,
		StartedAt: startedAt,
	}
}

// WithEndedAt sets the session end time.
func (w *Workout) WithEndedAt(t time.Time) *Workout {
	w.EndedAt = &t
	return w
}

// WithDuration sets the duration in minutes.
func (w *Workout) WithDuration(minutes float64) *Workout {
	w.Duration = &minutes
	return w
}

// WithSource sets the originating device or app label.
func (w *Workout) WithSource(source string) *Workout {
	w.Source = source
	return w
}

// WithDistance sets the distance covered.
func (w *Workout) WithDistance(qty float64, units string) *Workout {
	w.Distance = &Quantity{Qty: qty, Units: units}
	return w
}

// WithEnergy sets the energy burned.
func (w *Workout) WithEnergy(qty float64, units string) *Workout {
	w.Energy = &Quantity{Qty: qty, Units: units}
	return w
}

// Day returns the UTC calendar date (YYYY-MM-DD) the workout belongs to,
// attributed by its start time.
func (w *Workout) Day() string {
	return w.StartedAt.UTC().Format("2006-01-02")
}

// RoutePoint is one GPS sample on a workout route.
type RoutePoint struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Alt       *float64  `json:"alt,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Route is the GPS trace for a workout, stored alongside it keyed by
// the workout's external id.
type Route struct {
	WorkoutID string       `json:"workout_id"`
	Points    []RoutePoint `json:"points"`
}
