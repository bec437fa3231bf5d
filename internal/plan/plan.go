// Package plan stores longer-lived plans alongside a workspace's
// checkpoints: one markdown file per plan plus a plain-text pointer to the
// active plan. Plan mutations take the same lock primitive as checkpoint
// writes, so a delete waits on any in-flight update to the same plan.
package plan

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cairnhq/cairn/internal/errors"
	"github.com/cairnhq/cairn/internal/lock"
)

// Plan is one stored plan.
type Plan struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists plans under <root>/<workspace>/plans.
type Store struct {
	root string
}

// New creates a plan store rooted at the same directory as the log store.
func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) plansDir(workspace string) string {
	return filepath.Join(s.root, workspace, "plans")
}

func (s *Store) planPath(workspace, id string) string {
	return filepath.Join(s.plansDir(workspace), id+".md")
}

func (s *Store) activePath(workspace string) string {
	return filepath.Join(s.root, workspace, ".active-plan")
}

// Save creates a new plan and returns it.
func (s *Store) Save(workspace, title, content string) (*Plan, error) {
	if strings.TrimSpace(title) == "" {
		return nil, errors.NewInvalidRequest("title is required")
	}

	id, err := newULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	p := &Plan{
		ID:        id,
		Title:     strings.TrimSpace(title),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := os.MkdirAll(s.plansDir(workspace), 0o700); err != nil {
		return nil, errors.NewInternal(err)
	}

	path := s.planPath(workspace, id)
	if err := lock.WithLock(path, func() error {
		return writeAtomic(path, []byte(format(p)))
	}); err != nil {
		return nil, err
	}
	return p, nil
}

// Update rewrites a plan's title and/or content. Nil arguments leave the
// field unchanged.
func (s *Store) Update(workspace, id string, title, content *string) (*Plan, error) {
	path := s.planPath(workspace, id)
	if _, serr := os.Stat(path); serr != nil {
		if os.IsNotExist(serr) {
			return nil, errors.NewNotFound(fmt.Sprintf("plan %s", id))
		}
		return nil, errors.NewInternal(serr)
	}

	var updated *Plan
	err := lock.WithLock(path, func() error {
		p, err := s.read(workspace, id)
		if err != nil {
			return err
		}
		if title != nil {
			if strings.TrimSpace(*title) == "" {
				return errors.NewInvalidRequest("title must not be empty")
			}
			p.Title = strings.TrimSpace(*title)
		}
		if content != nil {
			p.Content = *content
		}
		p.UpdatedAt = time.Now().UTC().Truncate(time.Second)
		updated = p
		return writeAtomic(path, []byte(format(p)))
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Get reads one plan by ID.
func (s *Store) Get(workspace, id string) (*Plan, error) {
	return s.read(workspace, id)
}

// List returns all plans in a workspace, newest-updated first.
func (s *Store) List(workspace string) ([]Plan, error) {
	dirents, err := os.ReadDir(s.plansDir(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewInternal(err)
	}

	var plans []Plan
	for _, dirent := range dirents {
		name := dirent.Name()
		if dirent.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		p, err := s.read(workspace, strings.TrimSuffix(name, ".md"))
		if err != nil {
			// Skip unreadable entries rather than failing the listing.
			continue
		}
		plans = append(plans, *p)
	}

	sort.Slice(plans, func(i, j int) bool {
		return plans[i].UpdatedAt.After(plans[j].UpdatedAt)
	})
	return plans, nil
}

// SetActive marks a plan as the workspace's active plan.
func (s *Store) SetActive(workspace, id string) error {
	if _, err := s.read(workspace, id); err != nil {
		return err
	}
	path := s.activePath(workspace)
	return lock.WithLock(path, func() error {
		return writeAtomic(path, []byte(id+"\n"))
	})
}

// Active returns the workspace's active plan, or nil when none is set.
func (s *Store) Active(workspace string) (*Plan, error) {
	data, err := os.ReadFile(s.activePath(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewInternal(err)
	}

	id := strings.TrimSpace(string(data))
	if id == "" {
		return nil, nil
	}
	p, err := s.read(workspace, id)
	if errors.Is(err, errors.ErrNotFound) {
		// Stale pointer: the plan was deleted.
		return nil, nil
	}
	return p, err
}

// Delete removes a plan, waiting on the plan's lock so an in-flight update
// finishes first. A stale active pointer is cleared.
func (s *Store) Delete(workspace, id string) error {
	path := s.planPath(workspace, id)
	if _, serr := os.Stat(path); serr != nil {
		if os.IsNotExist(serr) {
			return errors.NewNotFound(fmt.Sprintf("plan %s", id))
		}
		return errors.NewInternal(serr)
	}

	err := lock.WithLock(path, func() error {
		if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
			return errors.NewInternal(rerr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	activePath := s.activePath(workspace)
	return lock.WithLock(activePath, func() error {
		data, rerr := os.ReadFile(activePath)
		if rerr != nil {
			if os.IsNotExist(rerr) {
				return nil
			}
			return errors.NewInternal(rerr)
		}
		if strings.TrimSpace(string(data)) == id {
			if rerr := os.Remove(activePath); rerr != nil && !os.IsNotExist(rerr) {
				return errors.NewInternal(rerr)
			}
		}
		return nil
	})
}

// read parses one plan file.
func (s *Store) read(workspace, id string) (*Plan, error) {
	data, err := os.ReadFile(s.planPath(workspace, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound(fmt.Sprintf("plan %s", id))
		}
		return nil, errors.NewInternal(err)
	}
	return parse(id, string(data)), nil
}

// Plan file format mirrors the checkpoint metadata comment:
//
//	# <Title>
//
//	<!--
//	createdAt: RFC3339
//	updatedAt: RFC3339
//	-->
//
//	<content>

func format(p *Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	b.WriteString("<!--\n")
	fmt.Fprintf(&b, "createdAt: %s\n", p.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "updatedAt: %s\n", p.UpdatedAt.Format(time.RFC3339))
	b.WriteString("-->\n")
	if p.Content != "" {
		b.WriteString("\n")
		b.WriteString(p.Content)
		if !strings.HasSuffix(p.Content, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func parse(id, content string) *Plan {
	p := &Plan{ID: id}
	lines := strings.Split(content, "\n")

	i := 0
	if i < len(lines) && strings.HasPrefix(lines[i], "# ") {
		p.Title = strings.TrimPrefix(lines[i], "# ")
		i++
	}

	// Skip blanks, then the metadata comment if present.
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i < len(lines) && lines[i] == "<!--" {
		i++
		for i < len(lines) && lines[i] != "-->" {
			if after, ok := strings.CutPrefix(lines[i], "createdAt: "); ok {
				if ts, err := time.Parse(time.RFC3339, after); err == nil {
					p.CreatedAt = ts
				}
			}
			if after, ok := strings.CutPrefix(lines[i], "updatedAt: "); ok {
				if ts, err := time.Parse(time.RFC3339, after); err == nil {
					p.UpdatedAt = ts
				}
			}
			i++
		}
		i++ // past "-->"
	}

	// Everything after the next blank separator is content.
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i < len(lines) {
		p.Content = strings.TrimRight(strings.Join(lines[i:], "\n"), "\n")
	}
	return p
}

func newULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// writeAtomic writes data via a temporary sibling and rename, matching the
// checkpoint log store's visibility guarantee.
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
