// ABOUTME: Tests for the KV note key derivation helpers.
// ABOUTME: Keys must be stable per identity and disjoint per record kind.
package charm

import (
	"strings"
	"testing"
	"time"

	"github.com/harperreed/vitals/internal/models"
)

func TestMetricNoteKeyShape(t *testing.T) {
	date := time.Date(2024, 12, 14, 7, 30, 0, 0, time.UTC)
	r := *models.NewQuantity("weight", date, 82.5, "kg").WithSource("scale")

	key := metricNoteKey(r)
	if !strings.HasPrefix(key, MetricNotePrefix+"2024-12-14:weight:") {
		t.Errorf("key = %s, prefix wrong", key)
	}

	parts := strings.Split(key, ":")
	if len(parts[len(parts)-1]) != 8 {
		t.Errorf("key id segment = %q, want 8 chars", parts[len(parts)-1])
	}
}

func TestMetricNoteKeyStableAcrossValues(t *testing.T) {
	date := time.Date(2024, 12, 14, 7, 30, 0, 0, time.UTC)
	a := *models.NewQuantity("weight", date, 82.5, "kg").WithSource("scale")
	b := *models.NewQuantity("weight", date, 82.7, "kg").WithSource("scale")

	// Same identity, revised value: the KV entry is overwritten in place.
	if metricNoteKey(a) != metricNoteKey(b) {
		t.Error("revised reading mapped to a different key")
	}

	c := *models.NewQuantity("weight", date.Add(time.Hour), 82.5, "kg").WithSource("scale")
	if metricNoteKey(a) == metricNoteKey(c) {
		t.Error("distinct readings collided on one key")
	}
}

func TestWorkoutNoteKeyUsesExternalID(t *testing.T) {
	start := time.Date(2024, 12, 14, 18, 0, 0, 0, time.UTC)
	a := *models.NewWorkout("w1", "run", start).WithDuration(30)
	b := *models.NewWorkout("w1", "run", start).WithDuration(35)

	if workoutNoteKey(a) != workoutNoteKey(b) {
		t.Error("revised workout mapped to a different key")
	}
	if !strings.HasPrefix(workoutNoteKey(a), WorkoutNotePrefix+"2024-12-14:") {
		t.Errorf("key = %s, prefix wrong", workoutNoteKey(a))
	}
}
