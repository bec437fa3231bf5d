// Package lock provides advisory, file-based mutual exclusion for writers
// to a shared file. A sidecar marker file is created exclusively; stale
// markers left behind by dead processes are reclaimed after a fixed
// threshold.
package lock

import (
	"os"
	"time"

	"github.com/cairnhq/cairn/internal/errors"
)

const (
	// StaleThreshold is the age past which a marker is considered
	// abandoned and may be reclaimed.
	StaleThreshold = 30 * time.Second

	// RetryInterval is the sleep between acquisition attempts.
	RetryInterval = 10 * time.Millisecond

	// MaxAttempts bounds the retry loop (~30s total).
	MaxAttempts = 3000
)

// Acquire takes the lock guarding path and returns a release function.
// It fails with a LOCK_TIMEOUT error once the retry budget is exhausted.
func Acquire(path string) (func(), error) {
	return acquire(path, StaleThreshold, RetryInterval, MaxAttempts)
}

// WithLock runs fn while holding the lock for path, releasing it on success
// or failure.
func WithLock(path string, fn func() error) error {
	release, err := Acquire(path)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func acquire(path string, stale, interval time.Duration, maxAttempts int) (func(), error) {
	marker := markerPath(path)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		f, err := os.OpenFile(marker, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			_, werr := f.WriteString(time.Now().UTC().Format(time.RFC3339Nano))
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(marker)
				return nil, errors.NewInternal(firstErr(werr, cerr))
			}
			return func() { release(marker) }, nil
		}
		if !os.IsExist(err) {
			return nil, errors.NewInternal(err)
		}

		// Marker exists: reclaim it if its recorded timestamp is stale.
		if isStale(marker, stale) {
			// Remove may race with another reclaimer; both outcomes
			// lead back to a fresh create attempt.
			os.Remove(marker)
			continue
		}

		time.Sleep(interval)
	}

	return nil, errors.NewLockTimeout(path)
}

// release deletes the marker, tolerating "already gone": another process may
// have reclaimed a stale lock.
func release(marker string) {
	if err := os.Remove(marker); err != nil && !os.IsNotExist(err) {
		// Nothing actionable for the caller; the marker will be
		// reclaimed as stale by the next acquirer.
		_ = err
	}
}

// isStale reports whether the marker's recorded timestamp is older than the
// threshold. Unreadable or unparseable markers fall back to the file mtime.
func isStale(marker string, threshold time.Duration) bool {
	data, err := os.ReadFile(marker)
	if err == nil {
		if ts, perr := time.Parse(time.RFC3339Nano, string(data)); perr == nil {
			return time.Since(ts) > threshold
		}
	}
	info, err := os.Stat(marker)
	if err != nil {
		// Marker vanished between attempts; not stale, just retry.
		return false
	}
	return time.Since(info.ModTime()) > threshold
}

func markerPath(path string) string {
	return path + ".lock"
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
