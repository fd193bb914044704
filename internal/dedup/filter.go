// ABOUTME: Batch filtering of incoming records against known fingerprints.
// ABOUTME: At most one survivor per fingerprint per batch; cache set untouched.
package dedup

import "github.com/harperreed/vitals/internal/models"

// FilterResult holds the survivors of a batch filter and how many
// records were dropped as duplicates.
type FilterResult struct {
	Kept       []models.Reading
	Duplicates int
}

// Filter drops every incoming reading whose fingerprint is already in
// known or was seen earlier in this batch. Batch-local fingerprints go
// into a separate set; the caller's known set is never mutated, so it can
// be derived from cached data and reused safely.
func Filter(incoming []models.Reading, known map[string]struct{}) FilterResult {
	var res FilterResult
	seen := make(map[string]struct{}, len(incoming))

	for _, r := range incoming {
		fp := Fingerprint(r)
		if _, ok := known[fp]; ok {
			res.Duplicates++
			continue
		}
		if _, ok := seen[fp]; ok {
			res.Duplicates++
			continue
		}
		seen[fp] = struct{}{}
		res.Kept = append(res.Kept, r)
	}
	return res
}

// WorkoutFilterResult holds the survivors of a workout batch filter.
type WorkoutFilterResult struct {
	Kept       []models.Workout
	Duplicates int
}

// FilterWorkouts is Filter for workout batches.
func FilterWorkouts(incoming []models.Workout, known map[string]struct{}) WorkoutFilterResult {
	var res WorkoutFilterResult
	seen := make(map[string]struct{}, len(incoming))

	for _, w := range incoming {
		fp := WorkoutFingerprint(w)
		if _, ok := known[fp]; ok {
			res.Duplicates++
			continue
		}
		if _, ok := seen[fp]; ok {
			res.Duplicates++
			continue
		}
		seen[fp] = struct{}{}
		res.Kept = append(res.Kept, w)
	}
	return res
}
