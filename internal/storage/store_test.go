// ABOUTME: Tests for the daily file store merge and query operations.
// ABOUTME: Covers upserts, partial failure isolation, and debounce.
package storage

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/vitals/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(Options{
		BaseDir:         t.TempDir(),
		LockRetryDelay:  time.Millisecond,
		LockMaxAttempts: 50,
		CleanupDebounce: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s
}

func qty(t *testing.T, typ, at string, v float64) models.Reading {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, at)
	if err != nil {
		t.Fatalf("bad timestamp %s: %v", at, err)
	}
	return *models.NewQuantity(typ, ts, v, "kg").WithSource("scale")
}

func TestSaveMetricsCreatesDailyFile(t *testing.T) {
	s := setupTestStore(t)

	r := qty(t, "weight", "2024-12-14T07:30:00Z", 82.5)
	res := s.SaveMetrics(map[string][]models.Reading{"2024-12-14": {r}})
	if !res.Ok() {
		t.Fatalf("SaveMetrics errors: %v", res.Errors)
	}
	if res.Saved != 1 || res.Updated != 0 {
		t.Errorf("counts = %d/%d, want 1/0", res.Saved, res.Updated)
	}

	path := PathFor(s.BaseDir(), KindMetrics, time.Date(2024, 12, 14, 0, 0, 0, 0, time.UTC))
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("daily file not created: %v", err)
	}

	doc, err := s.LoadMetricsDay("2024-12-14")
	if err != nil {
		t.Fatalf("LoadMetricsDay failed: %v", err)
	}
	if doc.Version != DocVersion {
		t.Errorf("version = %d, want %d", doc.Version, DocVersion)
	}
	if len(doc.Metrics["weight"]) != 1 {
		t.Fatalf("weight readings = %d, want 1", len(doc.Metrics["weight"]))
	}
	if *doc.Metrics["weight"][0].Qty != 82.5 {
		t.Errorf("qty = %v, want 82.5", *doc.Metrics["weight"][0].Qty)
	}
}

func TestSaveMetricsIdentityUpsert(t *testing.T) {
	s := setupTestStore(t)

	// Same timestamp, source, and type: second value replaces the first.
	a := qty(t, "weight", "2024-12-14T07:30:00Z", 10)
	res := s.SaveMetrics(map[string][]models.Reading{"2024-12-14": {a}})
	if res.Saved != 1 {
		t.Fatalf("first save: saved = %d, want 1", res.Saved)
	}

	b := qty(t, "weight", "2024-12-14T07:30:00Z", 20)
	res = s.SaveMetrics(map[string][]models.Reading{"2024-12-14": {b}})
	if res.Saved != 0 || res.Updated != 1 {
		t.Errorf("second save counts = %d/%d, want 0/1", res.Saved, res.Updated)
	}

	doc, err := s.LoadMetricsDay("2024-12-14")
	if err != nil {
		t.Fatalf("LoadMetricsDay failed: %v", err)
	}
	readings := doc.Metrics["weight"]
	if len(readings) != 1 {
		t.Fatalf("readings = %d, want exactly 1", len(readings))
	}
	if *readings[0].Qty != 20 {
		t.Errorf("stored qty = %v, want 20", *readings[0].Qty)
	}
}

func TestSaveMetricsIdenticalContentIsNoop(t *testing.T) {
	s := setupTestStore(t)

	r := qty(t, "weight", "2024-12-14T07:30:00Z", 82.5)
	s.SaveMetrics(map[string][]models.Reading{"2024-12-14": {r}})

	// Identical record slipping past upstream dedup (concurrent batch race).
	res := s.SaveMetrics(map[string][]models.Reading{"2024-12-14": {r}})
	if res.Saved != 0 || res.Updated != 0 {
		t.Errorf("counts = %d/%d, want 0/0 for identical content", res.Saved, res.Updated)
	}
}

func TestSaveMetricsDifferentTimestampsAppend(t *testing.T) {
	s := setupTestStore(t)

	res := s.SaveMetrics(map[string][]models.Reading{"2024-12-14": {
		qty(t, "weight", "2024-12-14T07:30:00Z", 82.5),
		qty(t, "weight", "2024-12-14T21:00:00Z", 82.1),
	}})
	if res.Saved != 2 {
		t.Errorf("saved = %d, want 2", res.Saved)
	}

	doc, _ := s.LoadMetricsDay("2024-12-14")
	if len(doc.Metrics["weight"]) != 2 {
		t.Errorf("readings = %d, want 2", len(doc.Metrics["weight"]))
	}
}

func TestSaveMetricsBadDayDoesNotAbortOthers(t *testing.T) {
	s := setupTestStore(t)

	res := s.SaveMetrics(map[string][]models.Reading{
		"not-a-date": {qty(t, "weight", "2024-12-14T07:30:00Z", 1)},
		"2024-12-14": {qty(t, "weight", "2024-12-14T07:30:00Z", 82.5)},
	})

	if res.Saved != 1 {
		t.Errorf("saved = %d, want 1 despite bad sibling day", res.Saved)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly 1", res.Errors)
	}
	if res.Ok() {
		t.Error("Ok() = true, want false")
	}
}

func TestSaveWorkoutsUpsertByID(t *testing.T) {
	s := setupTestStore(t)

	start := time.Date(2024, 12, 14, 18, 0, 0, 0, time.UTC)
	w := *models.NewWorkout("w1", "run", start).WithDuration(30)
	res := s.SaveWorkouts(map[string][]models.Workout{"2024-12-14": {w}}, nil)
	if res.Saved != 1 {
		t.Fatalf("saved = %d, want 1", res.Saved)
	}

	// Same id, revised duration: replaces.
	w2 := *models.NewWorkout("w1", "run", start).WithDuration(35)
	res = s.SaveWorkouts(map[string][]models.Workout{"2024-12-14": {w2}}, nil)
	if res.Saved != 0 || res.Updated != 1 {
		t.Errorf("counts = %d/%d, want 0/1", res.Saved, res.Updated)
	}

	doc, err := s.LoadWorkoutsDay("2024-12-14")
	if err != nil {
		t.Fatalf("LoadWorkoutsDay failed: %v", err)
	}
	if len(doc.Workouts) != 1 {
		t.Fatalf("workouts = %d, want 1", len(doc.Workouts))
	}
	if *doc.Workouts["w1"].Duration != 35 {
		t.Errorf("duration = %v, want 35", *doc.Workouts["w1"].Duration)
	}
}

func TestSaveWorkoutsStoresRoutes(t *testing.T) {
	s := setupTestStore(t)

	start := time.Date(2024, 12, 14, 18, 0, 0, 0, time.UTC)
	w := *models.NewWorkout("w1", "run", start)
	route := models.Route{
		WorkoutID: "w1",
		Points:    []models.RoutePoint{{Lat: 41.88, Lon: -87.63, Timestamp: start}},
	}

	res := s.SaveWorkouts(
		map[string][]models.Workout{"2024-12-14": {w}},
		map[string]models.Route{"w1": route},
	)
	if !res.Ok() {
		t.Fatalf("SaveWorkouts errors: %v", res.Errors)
	}

	doc, _ := s.LoadWorkoutsDay("2024-12-14")
	if len(doc.Routes["w1"].Points) != 1 {
		t.Errorf("route points = %d, want 1", len(doc.Routes["w1"].Points))
	}
}

func TestListDays(t *testing.T) {
	s := setupTestStore(t)

	for _, day := range []string{"2024-12-14", "2024-11-02", "2025-01-03"} {
		ts := day + "T08:00:00Z"
		res := s.SaveMetrics(map[string][]models.Reading{day: {qty(t, "weight", ts, 80)}})
		if !res.Ok() {
			t.Fatalf("save %s errors: %v", day, res.Errors)
		}
	}

	days, err := s.ListDays(KindMetrics)
	if err != nil {
		t.Fatalf("ListDays failed: %v", err)
	}
	want := []string{"2024-11-02", "2024-12-14", "2025-01-03"}
	if len(days) != len(want) {
		t.Fatalf("days = %v, want %v", days, want)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("days[%d] = %s, want %s", i, days[i], want[i])
		}
	}
}

func TestLoadReadingsGroupsByType(t *testing.T) {
	s := setupTestStore(t)

	s.SaveMetrics(map[string][]models.Reading{
		"2024-12-13": {qty(t, "weight", "2024-12-13T07:30:00Z", 82.7)},
		"2024-12-14": {
			qty(t, "weight", "2024-12-14T07:30:00Z", 82.5),
			qty(t, "hrv", "2024-12-14T07:00:00Z", 48),
		},
	})

	byType, err := s.LoadReadings([]string{"2024-12-13", "2024-12-14"})
	if err != nil {
		t.Fatalf("LoadReadings failed: %v", err)
	}
	if len(byType["weight"]) != 2 {
		t.Errorf("weight readings = %d, want 2", len(byType["weight"]))
	}
	if len(byType["hrv"]) != 1 {
		t.Errorf("hrv readings = %d, want 1", len(byType["hrv"]))
	}
}

func TestTriggerCleanupCoalesces(t *testing.T) {
	s, err := NewStore(Options{
		BaseDir:         t.TempDir(),
		RetentionDays:   7,
		CleanupDebounce: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	var mu sync.Mutex
	runs := 0
	s.runSweep = func() {
		mu.Lock()
		runs++
		mu.Unlock()
	}

	for i := 0; i < 10; i++ {
		s.TriggerCleanup()
	}

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if runs != 1 {
		t.Errorf("sweep ran %d times for 10 triggers, want 1", runs)
	}
}

func TestTriggerCleanupNoopWhenDisabled(t *testing.T) {
	s, err := NewStore(Options{
		BaseDir:         t.TempDir(),
		RetentionDays:   0,
		CleanupDebounce: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	ran := false
	s.runSweep = func() { ran = true }

	s.TriggerCleanup()
	time.Sleep(20 * time.Millisecond)
	if ran {
		t.Error("sweep ran with retention window 0")
	}
}
