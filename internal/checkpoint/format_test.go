package checkpoint

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

var testDay = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

// at builds a minute-precision UTC timestamp on testDay.
func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
}

func TestFormatParse_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cp   Checkpoint
	}{
		{
			name: "description only",
			cp: Checkpoint{
				Timestamp:   at(9, 30),
				Description: "Fixed the flaky lock test",
			},
		},
		{
			name: "all fields",
			cp: Checkpoint{
				Timestamp:   at(14, 5),
				Description: "Wired the embedding store into recall",
				Summary:     "Wired the embedding store into recall.",
				Tags:        []string{"recall", "embeddings"},
				GitBranch:   "feat/vector-recall",
				GitCommit:   "a1b2c3d",
				Files:       []string{"internal/ops/recall.go", "internal/vecstore/store.go"},
			},
		},
		{
			name: "tags only",
			cp: Checkpoint{
				Timestamp:   at(23, 59),
				Description: "End of day note",
				Tags:        []string{"wrap-up"},
			},
		},
		{
			name: "git fields without tags",
			cp: Checkpoint{
				Timestamp:   at(0, 0),
				Description: "Midnight deploy checkpoint",
				GitBranch:   "main",
				GitCommit:   "deadbee",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := DayHeader(testDay) + "\n\n" + FormatEntry(tt.cp)
			parsed := ParseDay(content, testDay)
			if len(parsed) != 1 {
				t.Fatalf("ParseDay returned %d entries, want 1", len(parsed))
			}
			if !reflect.DeepEqual(parsed[0], tt.cp) {
				t.Errorf("round trip mismatch:\n got: %+v\nwant: %+v", parsed[0], tt.cp)
			}
		})
	}
}

func TestFormatEntry_HeadingMinutePrecision(t *testing.T) {
	cp := Checkpoint{
		Timestamp:   time.Date(2026, 3, 14, 9, 5, 42, 0, time.UTC), // seconds dropped
		Description: "second precision is not stored",
	}
	entry := FormatEntry(cp)
	if !strings.HasPrefix(entry, "## 09:05 - ") {
		t.Errorf("entry heading = %q, want prefix %q", strings.SplitN(entry, "\n", 2)[0], "## 09:05 - ")
	}
}

func TestFormatEntry_FlattensMultilineDescription(t *testing.T) {
	cp := Checkpoint{
		Timestamp:   at(8, 0),
		Description: "first line\nsecond line",
	}
	entry := FormatEntry(cp)
	if !strings.Contains(entry, "## 08:00 - first line second line") {
		t.Errorf("description not flattened: %q", entry)
	}
}

func TestFormatEntry_SummaryComment(t *testing.T) {
	cp := Checkpoint{
		Timestamp:   at(10, 0),
		Description: strings.Repeat("x", 200),
		Summary:     "short form",
	}
	entry := FormatEntry(cp)
	if !strings.Contains(entry, "<!--\nsummary: short form\ncharCount: 200\n-->") {
		t.Errorf("metadata comment missing or malformed:\n%s", entry)
	}
}

func TestParseDay_MultipleEntries(t *testing.T) {
	var b strings.Builder
	b.WriteString(DayHeader(testDay) + "\n\n")
	b.WriteString(FormatEntry(Checkpoint{Timestamp: at(9, 0), Description: "A"}))
	b.WriteString(FormatEntry(Checkpoint{Timestamp: at(10, 0), Description: "B"}))
	b.WriteString(FormatEntry(Checkpoint{Timestamp: at(11, 0), Description: "C"}))

	parsed := ParseDay(b.String(), testDay)
	if len(parsed) != 3 {
		t.Fatalf("ParseDay returned %d entries, want 3", len(parsed))
	}
	for i, want := range []string{"A", "B", "C"} {
		if parsed[i].Description != want {
			t.Errorf("entry %d description = %q, want %q", i, parsed[i].Description, want)
		}
	}
}

func TestParseDay_SkipsMalformedHeading(t *testing.T) {
	content := DayHeader(testDay) + "\n\n" +
		"## not a timestamp heading\n\nsome stray text\n\n" +
		FormatEntry(Checkpoint{Timestamp: at(12, 30), Description: "valid"})

	parsed := ParseDay(content, testDay)
	if len(parsed) != 1 {
		t.Fatalf("ParseDay returned %d entries, want 1 (malformed block skipped)", len(parsed))
	}
	if parsed[0].Description != "valid" {
		t.Errorf("Description = %q, want %q", parsed[0].Description, "valid")
	}
}

func TestParseDay_EmptyContent(t *testing.T) {
	if got := ParseDay("", testDay); len(got) != 0 {
		t.Errorf("ParseDay(empty) returned %d entries, want 0", len(got))
	}
}

func TestParseDay_TimestampCombinesFileDate(t *testing.T) {
	content := DayHeader(testDay) + "\n\n" +
		FormatEntry(Checkpoint{Timestamp: at(16, 45), Description: "check the clock"})
	parsed := ParseDay(content, testDay)
	if len(parsed) != 1 {
		t.Fatalf("ParseDay returned %d entries, want 1", len(parsed))
	}
	want := time.Date(2026, 3, 14, 16, 45, 0, 0, time.UTC)
	if !parsed[0].Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", parsed[0].Timestamp, want)
	}
}
