// ABOUTME: Tests for the ingest pipeline ordering and dedup integration.
// ABOUTME: A fake note store verifies the cache is gated on render success.
package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/harperreed/vitals/internal/models"
	"github.com/harperreed/vitals/internal/storage"
)

// fakeDocStore records calls and can be primed to fail a number of times.
type fakeDocStore struct {
	metricCalls  int
	workoutCalls int
	failures     int
}

func (f *fakeDocStore) SaveMetrics(byType map[string][]models.Reading) (DocResult, error) {
	f.metricCalls++
	if f.failures > 0 {
		f.failures--
		return DocResult{}, errors.New("renderer unavailable")
	}
	n := 0
	for _, readings := range byType {
		n += len(readings)
	}
	return DocResult{Saved: n}, nil
}

func (f *fakeDocStore) SaveWorkouts(workouts []models.Workout) (DocResult, error) {
	f.workoutCalls++
	if f.failures > 0 {
		f.failures--
		return DocResult{}, errors.New("renderer unavailable")
	}
	return DocResult{Saved: len(workouts)}, nil
}

func newTestService(t *testing.T, docs DocStore) *Service {
	t.Helper()
	store, err := storage.NewStore(storage.Options{
		BaseDir:         t.TempDir(),
		LockRetryDelay:  time.Millisecond,
		LockMaxAttempts: 50,
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	svc, err := NewService(Options{
		Store:          store,
		Docs:           docs,
		RetryAttempts:  3,
		RetryBaseDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func weightSeries(t *testing.T, at string, v float64) models.MetricSeries {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, at)
	if err != nil {
		t.Fatalf("bad timestamp %s: %v", at, err)
	}
	r := *models.NewQuantity("", ts, v, "").WithSource("scale")
	return models.MetricSeries{Name: "weight", Units: "kg", Readings: []models.Reading{r}}
}

func TestSaveMetricsStampsTypeAndWritesCache(t *testing.T) {
	docs := &fakeDocStore{}
	svc := newTestService(t, docs)

	res, err := svc.SaveMetrics([]models.MetricSeries{weightSeries(t, "2024-12-14T07:30:00Z", 82.5)})
	if err != nil {
		t.Fatalf("SaveMetrics failed: %v", err)
	}
	if res.Saved != 1 || res.Duplicates != 0 {
		t.Errorf("saved/dups = %d/%d, want 1/0", res.Saved, res.Duplicates)
	}
	if docs.metricCalls != 1 {
		t.Errorf("doc store called %d times, want 1", docs.metricCalls)
	}

	doc, err := svc.Store().LoadMetricsDay("2024-12-14")
	if err != nil {
		t.Fatalf("LoadMetricsDay failed: %v", err)
	}
	readings := doc.Metrics["weight"]
	if len(readings) != 1 {
		t.Fatalf("cached readings = %d, want 1", len(readings))
	}
	if readings[0].Type != "weight" || readings[0].Units != "kg" {
		t.Errorf("series name/units not stamped: %+v", readings[0])
	}
}

func TestSaveMetricsReimportIsAllDuplicates(t *testing.T) {
	docs := &fakeDocStore{}
	svc := newTestService(t, docs)

	batch := []models.MetricSeries{weightSeries(t, "2024-12-14T07:30:00Z", 82.5)}
	if _, err := svc.SaveMetrics(batch); err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	res, err := svc.SaveMetrics(batch)
	if err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	if res.Saved != 0 || res.Duplicates != 1 {
		t.Errorf("saved/dups = %d/%d, want 0/1", res.Saved, res.Duplicates)
	}
	// All-duplicate batches never reach the renderer.
	if docs.metricCalls != 1 {
		t.Errorf("doc store called %d times, want 1", docs.metricCalls)
	}
}

func TestSaveMetricsRendererFailureLeavesCacheUntouched(t *testing.T) {
	docs := &fakeDocStore{failures: 99}
	svc := newTestService(t, docs)

	_, err := svc.SaveMetrics([]models.MetricSeries{weightSeries(t, "2024-12-14T07:30:00Z", 82.5)})
	if err == nil {
		t.Fatal("expected error when renderer never succeeds")
	}
	if docs.metricCalls != 3 {
		t.Errorf("renderer attempts = %d, want 3", docs.metricCalls)
	}

	doc, lerr := svc.Store().LoadMetricsDay("2024-12-14")
	if lerr != nil {
		t.Fatalf("LoadMetricsDay failed: %v", lerr)
	}
	if len(doc.Metrics) != 0 {
		t.Error("cache written despite renderer failure")
	}
}

func TestSaveMetricsRendererRecoversWithinRetries(t *testing.T) {
	docs := &fakeDocStore{failures: 2}
	svc := newTestService(t, docs)

	res, err := svc.SaveMetrics([]models.MetricSeries{weightSeries(t, "2024-12-14T07:30:00Z", 82.5)})
	if err != nil {
		t.Fatalf("SaveMetrics failed after recoverable errors: %v", err)
	}
	if res.Saved != 1 {
		t.Errorf("saved = %d, want 1", res.Saved)
	}
	if docs.metricCalls != 3 {
		t.Errorf("renderer attempts = %d, want 3", docs.metricCalls)
	}
}

func TestSaveMetricsInfersShapeForShapelessSleepPayload(t *testing.T) {
	docs := &fakeDocStore{}
	svc := newTestService(t, docs)

	// Exporters routinely omit the shape discriminant; the pipeline must
	// infer it before day attribution, or a sleep session crossing
	// midnight files under the day it started instead of the day of wake.
	payload := []byte(`{
		"metrics": [{
			"name": "sleep_analysis",
			"units": "hours",
			"data": [{
				"date": "2024-12-14T23:00:00Z",
				"sleep_start": "2024-12-14T23:00:00Z",
				"sleep_end": "2024-12-15T07:00:00Z",
				"asleep": 7.2,
				"in_bed": 8,
				"source": "watch"
			}]
		}]
	}`)
	p, err := ParsePayload(payload)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}

	res, err := svc.SaveMetrics(p.Metrics)
	if err != nil {
		t.Fatalf("SaveMetrics failed: %v", err)
	}
	if res.Saved != 1 {
		t.Errorf("saved = %d, want 1", res.Saved)
	}

	doc, err := svc.Store().LoadMetricsDay("2024-12-15")
	if err != nil {
		t.Fatalf("LoadMetricsDay failed: %v", err)
	}
	readings := doc.Metrics["sleep_analysis"]
	if len(readings) != 1 {
		t.Fatalf("readings on day of wake = %d, want 1", len(readings))
	}
	if readings[0].Shape != models.ShapeSleep {
		t.Errorf("shape = %q, want %q", readings[0].Shape, models.ShapeSleep)
	}

	startDay, err := svc.Store().LoadMetricsDay("2024-12-14")
	if err != nil {
		t.Fatalf("LoadMetricsDay failed: %v", err)
	}
	if len(startDay.Metrics) != 0 {
		t.Errorf("sleep session also filed under the day it started: %+v", startDay.Metrics)
	}
}

func TestSaveWorkoutsPipeline(t *testing.T) {
	docs := &fakeDocStore{}
	svc := newTestService(t, docs)

	start := time.Date(2024, 12, 14, 18, 0, 0, 0, time.UTC)
	w := *models.NewWorkout("w1", "run", start).WithDuration(30)
	route := models.Route{
		WorkoutID: "w1",
		Points:    []models.RoutePoint{{Lat: 41.88, Lon: -87.63, Timestamp: start}},
	}

	res, err := svc.SaveWorkouts([]models.Workout{w}, []models.Route{route})
	if err != nil {
		t.Fatalf("SaveWorkouts failed: %v", err)
	}
	if res.Saved != 1 {
		t.Errorf("saved = %d, want 1", res.Saved)
	}

	doc, err := svc.Store().LoadWorkoutsDay("2024-12-14")
	if err != nil {
		t.Fatalf("LoadWorkoutsDay failed: %v", err)
	}
	if len(doc.Workouts) != 1 || len(doc.Routes["w1"].Points) != 1 {
		t.Errorf("workouts/routes = %d/%d points, want 1/1", len(doc.Workouts), len(doc.Routes["w1"].Points))
	}

	// Re-import: duplicate, renderer not called again.
	res, err = svc.SaveWorkouts([]models.Workout{w}, nil)
	if err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	if res.Duplicates != 1 || docs.workoutCalls != 1 {
		t.Errorf("dups = %d, renderer calls = %d, want 1 and 1", res.Duplicates, docs.workoutCalls)
	}
}

func TestSavePayloadMergesResults(t *testing.T) {
	docs := &fakeDocStore{}
	svc := newTestService(t, docs)

	payload := []byte(`{
		"metrics": [{
			"name": "weight",
			"units": "kg",
			"data": [{"shape": "quantity", "date": "2024-12-14T07:30:00Z", "qty": 82.5, "source": "scale"}]
		}],
		"workouts": [{"id": "w1", "name": "run", "start": "2024-12-14T18:00:00Z"}]
	}`)

	p, err := ParsePayload(payload)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if len(p.Metrics) != 1 || len(p.Workouts) != 1 {
		t.Fatalf("payload parsed as %d metrics / %d workouts, want 1/1", len(p.Metrics), len(p.Workouts))
	}

	res, err := svc.Save(p)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if res.Saved != 2 {
		t.Errorf("saved = %d, want 2", res.Saved)
	}
	if !res.Ok() {
		t.Errorf("errors: %v", res.Errors)
	}
}

func TestParsePayloadRejectsBadJSON(t *testing.T) {
	if _, err := ParsePayload([]byte("{nope")); err == nil {
		t.Error("expected parse error")
	}
}

func TestNewServiceRequiresStoreAndDocs(t *testing.T) {
	if _, err := NewService(Options{Docs: &fakeDocStore{}}); err == nil {
		t.Error("expected error without store")
	}

	store, err := storage.NewStore(storage.Options{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if _, err := NewService(Options{Store: store}); err == nil {
		t.Error("expected error without doc store")
	}
}
