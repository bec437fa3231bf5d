// Package gitinfo captures optional version-control provenance for the
// working tree at checkpoint write time. Every field is independently
// optional; a directory outside any repository yields an empty context.
package gitinfo

import (
	"os/exec"
	"sort"
	"strings"
)

// Context is the version-control state captured for one checkpoint.
type Context struct {
	// Branch is the current branch name, if resolvable.
	Branch string
	// Commit is the short hash of HEAD, if resolvable.
	Commit string
	// Files is the union of staged, unstaged, and untracked paths relative
	// to the repository root, deduplicated and sorted.
	Files []string
}

// Provider resolves the version-control context for a directory.
type Provider interface {
	Context(dir string) Context
}

// ExecProvider shells out to git.
type ExecProvider struct{}

// Context returns whatever git state is resolvable for dir. Failures leave
// the corresponding fields empty.
func (ExecProvider) Context(dir string) Context {
	var ctx Context

	if out, err := runGit(dir, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		branch := strings.TrimSpace(out)
		if branch != "" && branch != "HEAD" {
			ctx.Branch = branch
		}
	}

	if out, err := runGit(dir, "rev-parse", "--short", "HEAD"); err == nil {
		ctx.Commit = strings.TrimSpace(out)
	}

	if out, err := runGit(dir, "status", "--porcelain"); err == nil {
		ctx.Files = parseStatus(out)
	}

	return ctx
}

// parseStatus extracts paths from `git status --porcelain` output,
// deduplicated and sorted. Renames contribute both sides.
func parseStatus(out string) []string {
	seen := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		// Two status columns, a space, then the path.
		path := strings.TrimSpace(line[3:])
		for _, p := range strings.Split(path, " -> ") {
			p = strings.Trim(p, `"`)
			if p != "" {
				seen[p] = true
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}

	files := make([]string, 0, len(seen))
	for p := range seen {
		files = append(files, p)
	}
	sort.Strings(files)
	return files
}

func runGit(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	return string(out), err
}

// NoneProvider always returns an empty context. Used where provenance
// capture is disabled, and in tests.
type NoneProvider struct{}

func (NoneProvider) Context(string) Context { return Context{} }
