package lock

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cairnhq/cairn/internal/errors"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2026-03-14.md")

	release, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	marker := markerPath(path)
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("marker not created: %v", err)
	}

	release()
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Errorf("marker still present after release")
	}
}

func TestReleaseTolerates_AlreadyGone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.md")
	release, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	// Simulate another process reclaiming a stale lock.
	if err := os.Remove(markerPath(path)); err != nil {
		t.Fatalf("remove marker: %v", err)
	}
	release() // must not panic
}

func TestAcquire_TimesOutWhileHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.md")

	release, err := Acquire(path)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer release()

	// Fresh marker, tiny retry budget: second acquirer must time out.
	_, err = acquire(path, StaleThreshold, time.Millisecond, 5)
	if !errors.Is(err, errors.ErrLockTimeout) {
		t.Fatalf("err = %v, want LOCK_TIMEOUT", err)
	}
}

func TestAcquire_ReclaimsStaleMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.md")
	marker := markerPath(path)

	// Write a marker with a timestamp far in the past.
	old := time.Now().UTC().Add(-time.Minute).Format(time.RFC3339Nano)
	if err := os.WriteFile(marker, []byte(old), 0o644); err != nil {
		t.Fatalf("write stale marker: %v", err)
	}

	release, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire should reclaim stale marker: %v", err)
	}
	release()
}

func TestAcquire_GarbageMarkerFallsBackToMtime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.md")
	marker := markerPath(path)

	if err := os.WriteFile(marker, []byte("not a timestamp"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	old := time.Now().Add(-time.Minute)
	if err := os.Chtimes(marker, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	release, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire should reclaim old unparseable marker: %v", err)
	}
	release()
}

func TestWithLock_ReleasesOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.md")

	wantErr := errors.NewInvalidRequest("boom")
	err := WithLock(path, func() error { return wantErr })
	if err != wantErr {
		t.Fatalf("WithLock err = %v, want %v", err, wantErr)
	}

	// Lock must be free again.
	release, err := Acquire(path)
	if err != nil {
		t.Fatalf("lock not released after fn error: %v", err)
	}
	release()
}

func TestWithLock_MutualExclusion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.md")

	const goroutines = 16
	counter := 0
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(path, func() error {
				v := counter
				time.Sleep(time.Millisecond)
				counter = v + 1
				return nil
			})
			if err != nil {
				t.Errorf("WithLock failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if counter != goroutines {
		t.Errorf("counter = %d, want %d (lost update)", counter, goroutines)
	}
}
