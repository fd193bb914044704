// ABOUTME: Lock-guarded read-merge-write of daily workout documents.
// ABOUTME: Upserts workouts and routes keyed by external workout id.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/harperreed/vitals/internal/dedup"
	"github.com/harperreed/vitals/internal/models"
)

// SaveWorkouts merges batches of workouts into their daily files, keyed
// by external workout id. Routes travel with the workout that owns them.
// Same sequencing and partial-failure semantics as SaveMetrics.
func (s *Store) SaveWorkouts(byDay map[string][]models.Workout, routes map[string]models.Route) *SaveResult {
	res := &SaveResult{}

	for _, day := range sortedDays(byDay) {
		workouts := byDay[day]
		if len(workouts) == 0 {
			continue
		}

		dayT, err := parseDay(day)
		if err != nil {
			res.addError(day, err)
			continue
		}
		path := PathFor(s.baseDir, KindWorkouts, dayT)

		counts, err := WithLock(s.locker, path, func() (mergeCounts, error) {
			doc, err := ReadJSONFile(path, NewWorkoutsDay(day))
			if err != nil {
				return mergeCounts{}, err
			}
			if doc.Workouts == nil {
				doc.Workouts = make(map[string]models.Workout)
			}
			if doc.Routes == nil {
				doc.Routes = make(map[string]models.Route)
			}

			c := mergeWorkouts(&doc, workouts, routes)
			if c.saved == 0 && c.updated == 0 {
				return c, nil
			}

			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return mergeCounts{}, fmt.Errorf("marshal %s: %w", day, err)
			}
			return c, AtomicWrite(path, data)
		})
		if err != nil {
			res.addError(day, err)
			continue
		}
		res.Saved += counts.saved
		res.Updated += counts.updated
	}

	if !res.Ok() {
		s.logger.Warn("workouts save finished with errors", "errors", len(res.Errors))
	}
	return res
}

func mergeWorkouts(doc *WorkoutsDay, incoming []models.Workout, routes map[string]models.Route) mergeCounts {
	var c mergeCounts
	for _, w := range incoming {
		id := dedup.WorkoutIdentity(w)
		if existing, ok := doc.Workouts[id]; ok {
			if dedup.WorkoutFingerprint(existing) == dedup.WorkoutFingerprint(w) {
				continue
			}
			c.updated++
		} else {
			c.saved++
		}
		doc.Workouts[id] = w

		if route, ok := routes[id]; ok {
			doc.Routes[id] = route
		}
	}
	return c
}
