// ABOUTME: Path conventions for the daily-file cache layout.
// ABOUTME: One pure function maps (kind, date) to base/kind/YYYY/MM/YYYY-MM-DD.json.
package storage

import (
	"path/filepath"
	"strings"
	"time"
)

// Kind selects one of the two top-level data directories.
type Kind string

const (
	KindMetrics  Kind = "metrics"
	KindWorkouts Kind = "workouts"
)

// DayFormat is the canonical calendar-date layout used in file names and
// document keys.
const DayFormat = "2006-01-02"

// PathFor returns the path of the daily file for the given kind and date.
// Layout: <base>/<kind>/<YYYY>/<MM>/<YYYY-MM-DD>.json.
func PathFor(base string, kind Kind, day time.Time) string {
	day = day.UTC()
	return filepath.Join(
		base,
		string(kind),
		day.Format("2006"),
		day.Format("01"),
		day.Format(DayFormat)+".json",
	)
}

// ParseDayFile extracts the date from a daily file name like
// "2024-12-14.json". Returns false for anything else.
func ParseDayFile(name string) (time.Time, bool) {
	base, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation(DayFormat, base, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}
