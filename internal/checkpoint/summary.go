package checkpoint

import "strings"

// SummaryThreshold is the description length (in runes) at or above which a
// summary is derived at write time.
const SummaryThreshold = 150

// MaxSummaryChars caps the derived summary length in runes.
const MaxSummaryChars = 150

// DeriveSummary returns the auto-derived short form for a description: its
// first sentence, truncated to MaxSummaryChars runes. Descriptions shorter
// than SummaryThreshold runes yield no summary.
func DeriveSummary(description string) string {
	if CountChars(description) < SummaryThreshold {
		return ""
	}

	sentence := firstSentence(description)
	runes := []rune(sentence)
	if len(runes) > MaxSummaryChars {
		sentence = strings.TrimSpace(string(runes[:MaxSummaryChars]))
	}
	return sentence
}

// firstSentence returns the text up to and including the first sentence
// terminator followed by whitespace, or the whole text if none is found.
func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Terminator at end of text, or followed by whitespace.
		if i == len(runes)-1 {
			return text
		}
		next := runes[i+1]
		if next == ' ' || next == '\n' || next == '\t' {
			return strings.TrimSpace(string(runes[:i+1]))
		}
	}
	return text
}
