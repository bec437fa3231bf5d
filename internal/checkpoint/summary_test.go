package checkpoint

import (
	"strings"
	"testing"
)

func TestDeriveSummary_BelowThreshold(t *testing.T) {
	// Exactly 149 chars: no summary.
	desc := strings.Repeat("a", 149)
	if got := DeriveSummary(desc); got != "" {
		t.Errorf("DeriveSummary(149 chars) = %q, want empty", got)
	}
}

func TestDeriveSummary_AtThreshold(t *testing.T) {
	// Exactly 150 chars: summary present and at most 150 chars.
	desc := strings.Repeat("a", 150)
	got := DeriveSummary(desc)
	if got == "" {
		t.Fatal("DeriveSummary(150 chars) = empty, want summary")
	}
	if CountChars(got) > MaxSummaryChars {
		t.Errorf("summary length = %d, want <= %d", CountChars(got), MaxSummaryChars)
	}
}

func TestDeriveSummary_FirstSentence(t *testing.T) {
	first := "Implemented the retry loop for the lock primitive."
	desc := first + " " + strings.Repeat("Then wrote more detail. ", 10)
	got := DeriveSummary(desc)
	if got != first {
		t.Errorf("DeriveSummary() = %q, want first sentence %q", got, first)
	}
}

func TestDeriveSummary_LongFirstSentence(t *testing.T) {
	// One sentence far beyond the cap gets truncated to the cap.
	desc := strings.Repeat("word ", 60) + "end."
	got := DeriveSummary(desc)
	if CountChars(got) > MaxSummaryChars {
		t.Errorf("summary length = %d, want <= %d", CountChars(got), MaxSummaryChars)
	}
	if got == "" {
		t.Error("summary should not be empty for a long description")
	}
}

func TestDeriveSummary_QuestionTerminator(t *testing.T) {
	first := "Should the parser skip malformed blocks?"
	desc := first + " " + strings.Repeat("Notes follow here with padding text. ", 5)
	if got := DeriveSummary(desc); got != first {
		t.Errorf("DeriveSummary() = %q, want %q", got, first)
	}
}

func TestDeriveSummary_MultibyteRunes(t *testing.T) {
	desc := strings.Repeat("é", 200)
	got := DeriveSummary(desc)
	if CountChars(got) > MaxSummaryChars {
		t.Errorf("summary rune length = %d, want <= %d", CountChars(got), MaxSummaryChars)
	}
}
