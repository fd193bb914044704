// ABOUTME: Retention sweeper deleting daily files past the horizon.
// ABOUTME: Swallows isolated failures, fails loudly after repeated ones.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// SweepFailureError is returned once the sweeper has failed whole runs
// the configured number of times in a row.
type SweepFailureError struct {
	Consecutive int
	Last        error
}

func (e *SweepFailureError) Error() string {
	return fmt.Sprintf("retention sweep failed %d times in a row: %v", e.Consecutive, e.Last)
}

func (e *SweepFailureError) Unwrap() error { return e.Last }

// IsSweepFailure reports whether err is a repeated-failure sweep error.
func IsSweepFailure(err error) bool {
	var sf *SweepFailureError
	return errors.As(err, &sf)
}

// CleanupResult reports what a sweep run deleted.
type CleanupResult struct {
	DeletedFiles int
}

// Sweeper deletes daily files older than the retention window. Isolated
// run failures are logged and swallowed; once maxFailures consecutive
// runs have failed the error surfaces so a persistent problem cannot
// stay silent forever. A window of 0 disables cleanup entirely.
type Sweeper struct {
	baseDir     string
	window      int
	maxFailures int
	logger      *log.Logger
	now         func() time.Time

	mu          sync.Mutex
	consecutive int
}

const defaultMaxSweepFailures = 3

// NewSweeper creates a Sweeper over baseDir keeping window days of files.
func NewSweeper(baseDir string, window, maxFailures int, logger *log.Logger) *Sweeper {
	if maxFailures <= 0 {
		maxFailures = defaultMaxSweepFailures
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Sweeper{
		baseDir:     baseDir,
		window:      window,
		maxFailures: maxFailures,
		logger:      logger,
		now:         time.Now,
	}
}

// Window returns the configured retention window in days.
func (s *Sweeper) Window() int { return s.window }

// Cleanup runs one retention sweep across both data directories.
func (s *Sweeper) Cleanup() (*CleanupResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.window <= 0 {
		return &CleanupResult{}, nil
	}

	now := s.now().UTC()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -s.window)

	res := &CleanupResult{}
	var runErr error
	for _, kind := range []Kind{KindMetrics, KindWorkouts} {
		if err := s.sweepKind(kind, cutoff, res); err != nil {
			runErr = err
		}
	}

	if runErr != nil {
		s.consecutive++
		if s.consecutive >= s.maxFailures {
			return res, &SweepFailureError{Consecutive: s.consecutive, Last: runErr}
		}
		s.logger.Warn("retention sweep failed", "consecutive", s.consecutive, "error", runErr)
		return res, nil
	}

	s.consecutive = 0
	if res.DeletedFiles > 0 {
		s.logger.Debug("retention sweep done", "deleted", res.DeletedFiles, "cutoff", cutoff.Format(DayFormat))
	}
	return res, nil
}

// sweepKind walks one kind directory: 4-digit year dirs, 2-digit month
// dirs, YYYY-MM-DD.json files. Years and months entirely after the cutoff
// are skipped without descending; the cutoff month itself is visited so
// the per-file date check decides.
func (s *Sweeper) sweepKind(kind Kind, cutoff time.Time, res *CleanupResult) error {
	kindDir := filepath.Join(s.baseDir, string(kind))
	years, err := os.ReadDir(kindDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", kindDir, err)
	}

	var lastErr error
	for _, yearEnt := range years {
		if !yearEnt.IsDir() || len(yearEnt.Name()) != 4 {
			continue
		}
		year, err := strconv.Atoi(yearEnt.Name())
		if err != nil || year > cutoff.Year() {
			continue
		}

		yearDir := filepath.Join(kindDir, yearEnt.Name())
		months, err := os.ReadDir(yearDir)
		if err != nil {
			lastErr = fmt.Errorf("read %s: %w", yearDir, err)
			continue
		}

		for _, monthEnt := range months {
			if !monthEnt.IsDir() || len(monthEnt.Name()) != 2 {
				continue
			}
			month, err := strconv.Atoi(monthEnt.Name())
			if err != nil {
				continue
			}
			if year == cutoff.Year() && month > int(cutoff.Month()) {
				continue
			}

			monthDir := filepath.Join(yearDir, monthEnt.Name())
			files, err := os.ReadDir(monthDir)
			if err != nil {
				lastErr = fmt.Errorf("read %s: %w", monthDir, err)
				continue
			}

			for _, file := range files {
				day, ok := ParseDayFile(file.Name())
				if !ok || !day.Before(cutoff) {
					continue
				}
				path := filepath.Join(monthDir, file.Name())
				if err := os.Remove(path); err != nil {
					lastErr = fmt.Errorf("remove %s: %w", path, err)
					continue
				}
				res.DeletedFiles++
			}

			// Not-empty failures expected here, ignore them.
			_ = os.Remove(monthDir)
		}

		_ = os.Remove(yearDir)
	}
	return lastErr
}
