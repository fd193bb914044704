// ABOUTME: Advisory file locking with stale-lock takeover.
// ABOUTME: One exclusive lock per logical file, safe across processes.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
)

// LockTimeoutError is returned when a lock could not be acquired within
// the bounded retry schedule.
type LockTimeoutError struct {
	Path     string
	Attempts int
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("could not lock %s after %d attempts", e.Path, e.Attempts)
}

// IsLockTimeout reports whether err is a lock acquisition timeout.
func IsLockTimeout(err error) bool {
	var lt *LockTimeoutError
	return errors.As(err, &lt)
}

// lockRecord is the JSON body of a .lock file.
type lockRecord struct {
	PID       int       `json:"pid"`
	Timestamp time.Time `json:"timestamp"`
}

// Lock is a held advisory lock.
type Lock struct {
	lockPath string
}

// Locker acquires per-file advisory locks by exclusive creation of a
// co-located .lock marker file. Locks left behind by crashed processes
// are taken over once they exceed StaleAfter and their recorded owner
// is verified dead.
type Locker struct {
	RetryDelay  time.Duration
	MaxAttempts int
	StaleAfter  time.Duration
	Logger      *log.Logger
}

const (
	defaultLockRetryDelay  = 100 * time.Millisecond
	defaultLockMaxAttempts = 50
	defaultLockStaleAfter  = 30 * time.Second
)

// NewLocker creates a Locker, filling zero fields with defaults.
func NewLocker(retryDelay time.Duration, maxAttempts int, staleAfter time.Duration, logger *log.Logger) *Locker {
	if retryDelay <= 0 {
		retryDelay = defaultLockRetryDelay
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultLockMaxAttempts
	}
	if staleAfter <= 0 {
		staleAfter = defaultLockStaleAfter
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Locker{
		RetryDelay:  retryDelay,
		MaxAttempts: maxAttempts,
		StaleAfter:  staleAfter,
		Logger:      logger,
	}
}

// Acquire takes the exclusive lock for path, retrying on conflict until
// MaxAttempts is exhausted.
func (l *Locker) Acquire(path string) (*Lock, error) {
	lockPath := path + ".lock"

	for attempt := 0; attempt < l.MaxAttempts; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			body, merr := json.Marshal(lockRecord{PID: os.Getpid(), Timestamp: time.Now().UTC()})
			if merr == nil {
				_, merr = f.Write(body)
			}
			cerr := f.Close()
			if merr != nil || cerr != nil {
				_ = os.Remove(lockPath)
				return nil, fmt.Errorf("write lock %s: %w", lockPath, errors.Join(merr, cerr))
			}
			return &Lock{lockPath: lockPath}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock %s: %w", lockPath, err)
		}

		if l.tryBreak(lockPath) {
			// Stale lock removed; retry immediately.
			continue
		}
		time.Sleep(l.RetryDelay)
	}

	return nil, &LockTimeoutError{Path: path, Attempts: l.MaxAttempts}
}

// tryBreak inspects an existing lock file and removes it when it is both
// older than StaleAfter and provably abandoned. Returns true if the lock
// was removed. A holder that is merely slow is never broken.
func (l *Locker) tryBreak(lockPath string) bool {
	age, pid, haveOwner := l.inspect(lockPath)
	if age < l.StaleAfter {
		return false
	}

	if haveOwner && pidAlive(pid) {
		l.Logger.Warn("lock held past stale threshold by live process", "lock", lockPath, "pid", pid, "age", age)
		return false
	}

	// Owner is dead, or the lock body is unreadable. Favor liveness:
	// an unreadable lock past the threshold is assumed abandoned.
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		l.Logger.Warn("could not remove stale lock", "lock", lockPath, "error", err)
		return false
	}
	l.Logger.Warn("removed stale lock", "lock", lockPath, "pid", pid, "age", age)
	return true
}

// inspect reads the lock's age and recorded owner. When the body is
// unreadable the age falls back to the file's mtime and haveOwner is
// false.
func (l *Locker) inspect(lockPath string) (age time.Duration, pid int, haveOwner bool) {
	data, err := os.ReadFile(lockPath)
	if err == nil {
		var rec lockRecord
		if jerr := json.Unmarshal(data, &rec); jerr == nil && rec.PID > 0 {
			return time.Since(rec.Timestamp), rec.PID, true
		}
	}

	info, err := os.Stat(lockPath)
	if err != nil {
		return 0, 0, false
	}
	return time.Since(info.ModTime()), 0, false
}

// pidAlive performs a non-destructive liveness probe of pid.
func pidAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// Release removes the lock file. It never fails the caller: a missing
// lock is fine, anything else is logged and swallowed.
func (l *Locker) Release(lock *Lock) {
	if lock == nil {
		return
	}
	if err := os.Remove(lock.lockPath); err != nil && !os.IsNotExist(err) {
		l.Logger.Warn("release lock", "lock", lock.lockPath, "error", err)
	}
}

// WithLock runs fn while holding the exclusive lock for path. The lock
// is released on every exit path, and release can never mask fn's result.
func WithLock[T any](l *Locker, path string, fn func() (T, error)) (T, error) {
	lock, err := l.Acquire(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer l.Release(lock)
	return fn()
}
