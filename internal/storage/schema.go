// ABOUTME: Daily document schema for the JSON cache files.
// ABOUTME: One versioned document per UTC date, grouped by type or id.
package storage

import "github.com/harperreed/vitals/internal/models"

// DocVersion is the current daily document schema version.
const DocVersion = 1

// MetricsDay is the daily document for metric readings, keyed by
// metric type name.
type MetricsDay struct {
	Date    string                      `json:"date"`
	Version int                         `json:"version"`
	Metrics map[string][]models.Reading `json:"metrics"`
}

// NewMetricsDay creates an empty metrics document for the given day.
func NewMetricsDay(day string) MetricsDay {
	return MetricsDay{
		Date:    day,
		Version: DocVersion,
		Metrics: make(map[string][]models.Reading),
	}
}

// WorkoutsDay is the daily document for workouts and their routes,
// keyed by external workout id.
type WorkoutsDay struct {
	Date     string                    `json:"date"`
	Version  int                       `json:"version"`
	Workouts map[string]models.Workout `json:"workouts"`
	Routes   map[string]models.Route   `json:"routes"`
}

// NewWorkoutsDay creates an empty workouts document for the given day.
func NewWorkoutsDay(day string) WorkoutsDay {
	return WorkoutsDay{
		Date:     day,
		Version:  DocVersion,
		Workouts: make(map[string]models.Workout),
		Routes:   make(map[string]models.Route),
	}
}
