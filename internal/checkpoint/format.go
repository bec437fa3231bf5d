package checkpoint

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Daily log format:
//
//	# Checkpoints for YYYY-MM-DD
//
//	## HH:MM - <description>
//
//	<!--
//	summary: <optional>
//	charCount: <optional integer>
//	-->
//
//	- **Tags**: tag1, tag2
//	- **Branch**: <name>
//	- **Commit**: <short hash>
//	- **Files**: path1, path2
//
// The heading encodes minute precision; full timestamps are reconstructed by
// combining the file's date with the heading's time.

// DateLayout is the date format used in headers and daily log filenames.
const DateLayout = "2006-01-02"

// entryHeadingRegex matches an entry heading line.
var entryHeadingRegex = regexp.MustCompile(`^## (\d{2}):(\d{2}) - (.+)$`)

// DayHeader returns the header line for a daily log file.
func DayHeader(date time.Time) string {
	return fmt.Sprintf("# Checkpoints for %s", date.UTC().Format(DateLayout))
}

// FormatEntry renders a checkpoint as a daily log block, including the
// trailing blank separator. Descriptions are flattened to a single line.
func FormatEntry(cp Checkpoint) string {
	var b strings.Builder

	desc := flattenText(cp.Description)
	fmt.Fprintf(&b, "## %s - %s\n\n", cp.Timestamp.UTC().Format("15:04"), desc)

	if cp.Summary != "" {
		b.WriteString("<!--\n")
		fmt.Fprintf(&b, "summary: %s\n", flattenText(cp.Summary))
		fmt.Fprintf(&b, "charCount: %d\n", CountChars(desc))
		b.WriteString("-->\n\n")
	}

	if len(cp.Tags) > 0 {
		fmt.Fprintf(&b, "- **Tags**: %s\n", strings.Join(cp.Tags, ", "))
	}
	if cp.GitBranch != "" {
		fmt.Fprintf(&b, "- **Branch**: %s\n", cp.GitBranch)
	}
	if cp.GitCommit != "" {
		fmt.Fprintf(&b, "- **Commit**: %s\n", cp.GitCommit)
	}
	if len(cp.Files) > 0 {
		fmt.Fprintf(&b, "- **Files**: %s\n", strings.Join(cp.Files, ", "))
	}
	if len(cp.Tags) > 0 || cp.GitBranch != "" || cp.GitCommit != "" || len(cp.Files) > 0 {
		b.WriteString("\n")
	}

	return b.String()
}

// ParseDay parses the content of one daily log file. The date argument
// supplies the day for reconstructing full timestamps. Blocks whose heading
// does not match the expected pattern are skipped, and missing optional
// fields are tolerated.
func ParseDay(content string, date time.Time) []Checkpoint {
	lines := strings.Split(content, "\n")
	date = date.UTC()

	var entries []Checkpoint
	i := 0
	for i < len(lines) {
		line := lines[i]
		if !strings.HasPrefix(line, "## ") {
			i++
			continue
		}

		m := entryHeadingRegex.FindStringSubmatch(line)
		if m == nil {
			// Malformed heading: skip the block.
			i++
			continue
		}

		cp := Checkpoint{Description: m[3]}
		hour := mustAtoi(m[1])
		minute := mustAtoi(m[2])
		cp.Timestamp = time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)

		// Consume block lines up to the next heading.
		i++
		for i < len(lines) && !strings.HasPrefix(lines[i], "## ") {
			blockLine := strings.TrimRight(lines[i], "\r")
			switch {
			case blockLine == "<!--":
				i = parseMetaComment(lines, i+1, &cp)
				continue
			case strings.HasPrefix(blockLine, "- **Tags**: "):
				cp.Tags = splitList(strings.TrimPrefix(blockLine, "- **Tags**: "))
			case strings.HasPrefix(blockLine, "- **Branch**: "):
				cp.GitBranch = strings.TrimPrefix(blockLine, "- **Branch**: ")
			case strings.HasPrefix(blockLine, "- **Commit**: "):
				cp.GitCommit = strings.TrimPrefix(blockLine, "- **Commit**: ")
			case strings.HasPrefix(blockLine, "- **Files**: "):
				cp.Files = splitList(strings.TrimPrefix(blockLine, "- **Files**: "))
			}
			i++
		}

		entries = append(entries, cp)
	}

	return entries
}

// parseMetaComment consumes a metadata comment body starting at index i and
// returns the index just past the closing marker.
func parseMetaComment(lines []string, i int, cp *Checkpoint) int {
	for i < len(lines) {
		line := strings.TrimRight(lines[i], "\r")
		if line == "-->" {
			return i + 1
		}
		if after, ok := strings.CutPrefix(line, "summary: "); ok {
			cp.Summary = after
		}
		// charCount is derivable from the description; ignored on parse.
		i++
	}
	return i
}

// splitList splits a comma-separated bullet value into its items.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			items = append(items, p)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

// flattenText collapses newlines so free text stays on one log line.
func flattenText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// mustAtoi converts a digits-only string already validated by regexp.
func mustAtoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
