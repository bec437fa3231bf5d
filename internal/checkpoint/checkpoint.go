package checkpoint

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultWorkspace is the slug used when normalization yields nothing.
const DefaultWorkspace = "default"

// Checkpoint represents one immutable, timestamped progress note.
type Checkpoint struct {
	// Timestamp is the UTC instant the checkpoint was written. Storage
	// keeps second precision; the on-disk heading keeps minute precision.
	Timestamp time.Time `json:"timestamp"`

	// Description is the free-text body. Required, non-empty.
	Description string `json:"description"`

	// Summary is an auto-derived short form, generated once at write time
	// when the description is 150 chars or longer. Never regenerated.
	Summary string `json:"summary,omitempty"`

	// Tags is an ordered list of short labels.
	Tags []string `json:"tags,omitempty"`

	// GitBranch is the branch name at write time, when available.
	GitBranch string `json:"gitBranch,omitempty"`

	// GitCommit is the short commit hash at write time, when available.
	GitCommit string `json:"gitCommit,omitempty"`

	// Files is the union of staged, unstaged, and untracked paths relative
	// to the repository root, deduplicated and sorted.
	Files []string `json:"files,omitempty"`
}

// nonAlnumRegex matches one or more characters outside [a-z0-9].
var nonAlnumRegex = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeWorkspace derives a workspace slug from a path or package name:
// lowercased, non-alphanumeric runs collapsed to a single "-", leading and
// trailing "-" trimmed. An empty result maps to DefaultWorkspace.
func NormalizeWorkspace(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnumRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return DefaultWorkspace
	}
	return s
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}
