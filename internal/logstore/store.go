// Package logstore persists checkpoints as per-workspace, per-day
// append-only markdown logs. All mutation of a daily log is serialized
// through the lock package; writes become visible atomically via rename.
package logstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cairnhq/cairn/internal/checkpoint"
	"github.com/cairnhq/cairn/internal/errors"
	"github.com/cairnhq/cairn/internal/lock"
)

// Store is a checkpoint log store rooted at a user-level directory, one
// subdirectory per workspace.
type Store struct {
	root string
}

// New creates a Store rooted at root. The directory is created lazily on
// first write.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// WorkspaceDir returns the directory holding one workspace's data.
func (s *Store) WorkspaceDir(workspace string) string {
	return filepath.Join(s.root, workspace)
}

// CheckpointsDir returns the directory holding one workspace's daily logs.
func (s *Store) CheckpointsDir(workspace string) string {
	return filepath.Join(s.root, workspace, "checkpoints")
}

// DayPath returns the daily log path for a workspace and date.
func (s *Store) DayPath(workspace string, date time.Time) string {
	name := date.UTC().Format(checkpoint.DateLayout) + ".md"
	return filepath.Join(s.CheckpointsDir(workspace), name)
}

// Append writes one checkpoint to the daily log for its date. The write
// happens under the log's lock: existing content is read (or a header
// synthesized), the formatted entry appended, and the result written to a
// temporary sibling and renamed over the target. The rename is the sole
// point of visibility.
func (s *Store) Append(workspace string, cp checkpoint.Checkpoint) error {
	dir := s.CheckpointsDir(workspace)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.NewInternal(fmt.Errorf("create checkpoints dir: %w", err))
	}

	path := s.DayPath(workspace, cp.Timestamp)
	return lock.WithLock(path, func() error {
		content, err := readFileOrEmpty(path)
		if err != nil {
			return err
		}
		if content == "" {
			content = checkpoint.DayHeader(cp.Timestamp) + "\n\n"
		} else if !strings.HasSuffix(content, "\n\n") {
			if !strings.HasSuffix(content, "\n") {
				content += "\n"
			}
			content += "\n"
		}
		content += checkpoint.FormatEntry(cp)

		return writeAtomic(path, []byte(content))
	})
}

// ReadDay parses one daily log. A missing file yields an empty result, not
// an error.
func (s *Store) ReadDay(workspace string, date time.Time) ([]checkpoint.Checkpoint, error) {
	content, err := readFileOrEmpty(s.DayPath(workspace, date))
	if err != nil {
		return nil, err
	}
	return checkpoint.ParseDay(content, date), nil
}

// ReadRange returns all checkpoints in [from, to], sorted ascending by
// timestamp. Daily files are pre-filtered by filename date; the per-entry
// timestamp filter is authoritative.
func (s *Store) ReadRange(workspace string, from, to time.Time) ([]checkpoint.Checkpoint, error) {
	dir := s.CheckpointsDir(workspace)
	dirents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewInternal(err)
	}

	from = from.UTC()
	to = to.UTC()
	fromDay := from.Truncate(24 * time.Hour)
	toDay := to.Truncate(24 * time.Hour)

	var results []checkpoint.Checkpoint
	for _, dirent := range dirents {
		if dirent.IsDir() {
			continue
		}
		name := dirent.Name()
		if !strings.HasSuffix(name, ".md") {
			continue
		}
		date, perr := time.ParseInLocation(checkpoint.DateLayout, strings.TrimSuffix(name, ".md"), time.UTC)
		if perr != nil {
			continue
		}
		if date.Before(fromDay) || date.After(toDay) {
			continue
		}

		entries, rerr := s.ReadDay(workspace, date)
		if rerr != nil {
			return nil, rerr
		}
		for _, cp := range entries {
			if cp.Timestamp.Before(from) || cp.Timestamp.After(to) {
				continue
			}
			results = append(results, cp)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.Before(results[j].Timestamp)
	})
	return results, nil
}

// Days lists the dates with a daily log in a workspace, ascending. A missing
// workspace yields an empty result.
func (s *Store) Days(workspace string) ([]time.Time, error) {
	dirents, err := os.ReadDir(s.CheckpointsDir(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewInternal(err)
	}

	var days []time.Time
	for _, dirent := range dirents {
		name := dirent.Name()
		if dirent.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		date, perr := time.ParseInLocation(checkpoint.DateLayout, strings.TrimSuffix(name, ".md"), time.UTC)
		if perr != nil {
			continue
		}
		days = append(days, date)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

// Workspaces lists the known workspace slugs under the root.
func (s *Store) Workspaces() ([]string, error) {
	dirents, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewInternal(err)
	}

	var names []string
	for _, dirent := range dirents {
		if !dirent.IsDir() || strings.HasPrefix(dirent.Name(), ".") {
			continue
		}
		names = append(names, dirent.Name())
	}
	sort.Strings(names)
	return names, nil
}

// DeleteWorkspace removes a workspace directory and everything under it.
func (s *Store) DeleteWorkspace(workspace string) error {
	if err := os.RemoveAll(s.WorkspaceDir(workspace)); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// readFileOrEmpty reads a file, mapping "not found" to empty content.
func readFileOrEmpty(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.NewInternal(err)
	}
	return string(data), nil
}

// writeAtomic writes data to a temporary sibling of path and renames it over
// the target, so readers never observe a partial write.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp")
	if err != nil {
		return errors.NewInternal(err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewInternal(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewInternal(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewInternal(err)
	}
	return nil
}
