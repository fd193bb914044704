// ABOUTME: Daily file store coordinating locks, atomic writes, and cleanup.
// ABOUTME: Owns the debounced cleanup scheduler; no package-level state.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/vitals/internal/models"
)

// Options configures a Store. Zero fields fall back to defaults.
type Options struct {
	BaseDir            string
	LockRetryDelay     time.Duration
	LockMaxAttempts    int
	LockStaleAfter     time.Duration
	RetentionDays      int
	CleanupDebounce    time.Duration
	MaxCleanupFailures int
	Logger             *log.Logger
}

const defaultCleanupDebounce = 5 * time.Second

// Store persists daily JSON documents under BaseDir. Every mutation of a
// daily file runs under the file's advisory lock followed by an atomic
// write, so correctness holds across processes sharing the filesystem.
type Store struct {
	baseDir string
	locker  *Locker
	sweeper *Sweeper
	logger  *log.Logger

	cleanupDebounce time.Duration
	cleanupMu       sync.Mutex
	cleanupTimer    *time.Timer
	runSweep        func()
}

// NewStore creates a Store rooted at opts.BaseDir.
func NewStore(opts Options) (*Store, error) {
	if opts.BaseDir == "" {
		return nil, fmt.Errorf("base directory not configured")
	}
	if err := os.MkdirAll(opts.BaseDir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	debounce := opts.CleanupDebounce
	if debounce <= 0 {
		debounce = defaultCleanupDebounce
	}

	s := &Store{
		baseDir:         opts.BaseDir,
		locker:          NewLocker(opts.LockRetryDelay, opts.LockMaxAttempts, opts.LockStaleAfter, logger),
		sweeper:         NewSweeper(opts.BaseDir, opts.RetentionDays, opts.MaxCleanupFailures, logger),
		logger:          logger,
		cleanupDebounce: debounce,
	}
	s.runSweep = s.sweepNow
	return s, nil
}

// BaseDir returns the root of the daily-file tree.
func (s *Store) BaseDir() string { return s.baseDir }

// Sweeper returns the retention sweeper for synchronous runs.
func (s *Store) Sweeper() *Sweeper { return s.sweeper }

// SaveResult reports the outcome of a multi-date save. A failure on one
// date never aborts the others; its message lands in Errors instead.
type SaveResult struct {
	Saved   int
	Updated int
	Errors  []string
}

// Ok reports whether every date was written successfully.
func (r *SaveResult) Ok() bool { return len(r.Errors) == 0 }

func (r *SaveResult) addError(day string, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", day, err))
}

// mergeCounts is the per-day insert/update tally from an in-lock merge.
type mergeCounts struct {
	saved   int
	updated int
}

// sortedDays returns map keys in ascending day order so dates within one
// call are processed deterministically and one at a time.
func sortedDays[T any](byDay map[string]T) []string {
	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

func parseDay(day string) (time.Time, error) {
	t, err := time.ParseInLocation(DayFormat, day, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q: %w", day, err)
	}
	return t, nil
}

// LoadMetricsDay reads the metrics document for one day, returning an
// empty document when the day has no file yet.
func (s *Store) LoadMetricsDay(day string) (MetricsDay, error) {
	dayT, err := parseDay(day)
	if err != nil {
		return NewMetricsDay(day), err
	}
	return ReadJSONFile(PathFor(s.baseDir, KindMetrics, dayT), NewMetricsDay(day))
}

// LoadWorkoutsDay reads the workouts document for one day.
func (s *Store) LoadWorkoutsDay(day string) (WorkoutsDay, error) {
	dayT, err := parseDay(day)
	if err != nil {
		return NewWorkoutsDay(day), err
	}
	return ReadJSONFile(PathFor(s.baseDir, KindWorkouts, dayT), NewWorkoutsDay(day))
}

// LoadReadings collects cached readings across days, grouped by metric
// type. Used to build dedup fingerprint sets before a save.
func (s *Store) LoadReadings(days []string) (map[string][]models.Reading, error) {
	byType := make(map[string][]models.Reading)
	for _, day := range days {
		doc, err := s.LoadMetricsDay(day)
		if err != nil {
			return nil, err
		}
		for typ, readings := range doc.Metrics {
			byType[typ] = append(byType[typ], readings...)
		}
	}
	return byType, nil
}

// LoadWorkouts collects cached workouts across days.
func (s *Store) LoadWorkouts(days []string) ([]models.Workout, error) {
	var workouts []models.Workout
	for _, day := range days {
		doc, err := s.LoadWorkoutsDay(day)
		if err != nil {
			return nil, err
		}
		for _, w := range doc.Workouts {
			workouts = append(workouts, w)
		}
	}
	return workouts, nil
}

// ListDays returns every cached day for a kind in ascending order.
func (s *Store) ListDays(kind Kind) ([]string, error) {
	kindDir := filepath.Join(s.baseDir, string(kind))
	years, err := os.ReadDir(kindDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", kindDir, err)
	}

	var days []string
	for _, yearEnt := range years {
		if !yearEnt.IsDir() || len(yearEnt.Name()) != 4 {
			continue
		}
		yearDir := filepath.Join(kindDir, yearEnt.Name())
		months, err := os.ReadDir(yearDir)
		if err != nil {
			continue
		}
		for _, monthEnt := range months {
			if !monthEnt.IsDir() || len(monthEnt.Name()) != 2 {
				continue
			}
			files, err := os.ReadDir(filepath.Join(yearDir, monthEnt.Name()))
			if err != nil {
				continue
			}
			for _, file := range files {
				if day, ok := ParseDayFile(file.Name()); ok {
					days = append(days, day.Format(DayFormat))
				}
			}
		}
	}
	sort.Strings(days)
	return days, nil
}

// TriggerCleanup schedules a retention sweep after the debounce interval.
// Near-simultaneous triggers coalesce into a single run regardless of
// caller count.
func (s *Store) TriggerCleanup() {
	if s.sweeper.Window() <= 0 {
		return
	}

	s.cleanupMu.Lock()
	defer s.cleanupMu.Unlock()
	if s.cleanupTimer != nil {
		return
	}
	s.cleanupTimer = time.AfterFunc(s.cleanupDebounce, func() {
		s.cleanupMu.Lock()
		s.cleanupTimer = nil
		s.cleanupMu.Unlock()
		s.runSweep()
	})
}

func (s *Store) sweepNow() {
	if _, err := s.sweeper.Cleanup(); err != nil {
		s.logger.Error("retention sweep", "error", err)
	}
}
