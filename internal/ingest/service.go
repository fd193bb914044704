// ABOUTME: Ingest pipeline: dedup, retried note rendering, cache write.
// ABOUTME: Cache state is only updated after the note store succeeds.
package ingest

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/vitals/internal/dedup"
	"github.com/harperreed/vitals/internal/models"
	"github.com/harperreed/vitals/internal/retry"
	"github.com/harperreed/vitals/internal/storage"
)

// DocResult reports what a note store wrote.
type DocResult struct {
	Saved   int `json:"saved"`
	Updated int `json:"updated"`
}

// DocStore is the downstream human-readable document renderer. Its
// success gates whether the cache is touched at all: a record is never
// marked "seen" unless it reached the durable human-facing store.
type DocStore interface {
	SaveMetrics(byType map[string][]models.Reading) (DocResult, error)
	SaveWorkouts(workouts []models.Workout) (DocResult, error)
}

// Options configures a Service.
type Options struct {
	Store          *storage.Store
	Docs           DocStore
	RetryAttempts  int
	RetryBaseDelay time.Duration
	Logger         *log.Logger
}

const (
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = time.Second
)

// Service orchestrates one ingest batch end to end.
type Service struct {
	store          *storage.Store
	docs           DocStore
	retryAttempts  int
	retryBaseDelay time.Duration
	logger         *log.Logger
}

// NewService creates an ingest Service.
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store not configured")
	}
	if opts.Docs == nil {
		return nil, fmt.Errorf("doc store not configured")
	}
	attempts := opts.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	delay := opts.RetryBaseDelay
	if delay <= 0 {
		delay = defaultRetryBaseDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{
		store:          opts.Store,
		docs:           opts.Docs,
		retryAttempts:  attempts,
		retryBaseDelay: delay,
		logger:         logger,
	}, nil
}

// Store exposes the underlying daily file store for query surfaces.
func (s *Service) Store() *storage.Store { return s.store }

// Result is the aggregated outcome of one ingest batch.
type Result struct {
	Saved      int      `json:"saved"`
	Updated    int      `json:"updated"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors,omitempty"`
}

// Ok reports whether the batch saved without per-day errors.
func (r *Result) Ok() bool { return len(r.Errors) == 0 }

// SaveMetrics runs a batch of metric series through the pipeline:
// stamp types, units, and shapes, filter against cached fingerprints, render
// notes (with retry), then merge into the daily cache files and trigger
// a debounced retention sweep.
func (s *Service) SaveMetrics(series []models.MetricSeries) (*Result, error) {
	res := &Result{}

	byType := make(map[string][]models.Reading)
	touched := make(map[string]struct{})
	for _, ms := range series {
		for _, r := range ms.Readings {
			r.Type = ms.Name
			if r.Units == "" {
				r.Units = ms.Units
			}
			// Shape is decided here, once; Day() and identity keys
			// downstream depend on it.
			if r.Shape == "" {
				r.Shape = models.InferShape(r)
			}
			byType[ms.Name] = append(byType[ms.Name], r)
			touched[r.Day()] = struct{}{}
		}
	}
	if len(byType) == 0 {
		return res, nil
	}

	cached, err := s.store.LoadReadings(sortedKeys(touched))
	if err != nil {
		return nil, fmt.Errorf("load cached readings: %w", err)
	}

	filtered := make(map[string][]models.Reading)
	for typ, incoming := range byType {
		fr := dedup.Filter(incoming, dedup.FingerprintSet(cached[typ]))
		res.Duplicates += fr.Duplicates
		if len(fr.Kept) > 0 {
			filtered[typ] = fr.Kept
		}
	}
	if len(filtered) == 0 {
		s.logger.Debug("metrics batch was all duplicates", "duplicates", res.Duplicates)
		return res, nil
	}

	// Notes first. If the renderer never succeeds the cache stays
	// untouched and the batch can be retried wholesale.
	_, err = retry.Do(func() (DocResult, error) {
		return s.docs.SaveMetrics(filtered)
	}, s.retryAttempts, s.retryBaseDelay)
	if err != nil {
		return nil, fmt.Errorf("save metric notes: %w", err)
	}

	byDay := make(map[string][]models.Reading)
	for _, readings := range filtered {
		for _, r := range readings {
			day := r.Day()
			byDay[day] = append(byDay[day], r)
		}
	}

	sr := s.store.SaveMetrics(byDay)
	res.Saved = sr.Saved
	res.Updated = sr.Updated
	res.Errors = sr.Errors

	s.store.TriggerCleanup()
	return res, nil
}

// SaveWorkouts runs a batch of workouts and their routes through the
// same pipeline as SaveMetrics.
func (s *Service) SaveWorkouts(workouts []models.Workout, routes []models.Route) (*Result, error) {
	res := &Result{}
	if len(workouts) == 0 {
		return res, nil
	}

	touched := make(map[string]struct{})
	for _, w := range workouts {
		touched[w.Day()] = struct{}{}
	}

	cached, err := s.store.LoadWorkouts(sortedKeys(touched))
	if err != nil {
		return nil, fmt.Errorf("load cached workouts: %w", err)
	}

	fr := dedup.FilterWorkouts(workouts, dedup.WorkoutFingerprintSet(cached))
	res.Duplicates = fr.Duplicates
	if len(fr.Kept) == 0 {
		s.logger.Debug("workout batch was all duplicates", "duplicates", res.Duplicates)
		return res, nil
	}

	_, err = retry.Do(func() (DocResult, error) {
		return s.docs.SaveWorkouts(fr.Kept)
	}, s.retryAttempts, s.retryBaseDelay)
	if err != nil {
		return nil, fmt.Errorf("save workout notes: %w", err)
	}

	byDay := make(map[string][]models.Workout)
	for _, w := range fr.Kept {
		byDay[w.Day()] = append(byDay[w.Day()], w)
	}
	routesByID := make(map[string]models.Route, len(routes))
	for _, route := range routes {
		routesByID[route.WorkoutID] = route
	}

	sr := s.store.SaveWorkouts(byDay, routesByID)
	res.Saved = sr.Saved
	res.Updated = sr.Updated
	res.Errors = sr.Errors

	s.store.TriggerCleanup()
	return res, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
