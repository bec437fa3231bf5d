package ops

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/cairnhq/cairn/internal/checkpoint"
	"github.com/cairnhq/cairn/internal/errors"
)

// Window is a resolved half-open-ish time range; both bounds are inclusive
// at checkpoint granularity.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// WindowInput carries the raw time-range parameters of a recall.
type WindowInput struct {
	From  string
	To    string
	Since string
	Days  int
}

var relativeRegex = regexp.MustCompile(`^(\d+)([mhd])$`)

// ResolveWindow turns raw time parameters into a concrete window, in
// priority order: explicit from+to, then a relative or literal "since"
// expression, then from-only (open-ended to now), then to-only (a fixed
// seven-day window ending there), then a day count, then the two-day
// default.
func ResolveWindow(in WindowInput, now time.Time) (Window, error) {
	now = now.UTC()

	hasFrom := in.From != ""
	hasTo := in.To != ""

	switch {
	case hasFrom && hasTo:
		from, err := parseTimeArg(in.From, false)
		if err != nil {
			return Window{}, err
		}
		to, err := parseTimeArg(in.To, true)
		if err != nil {
			return Window{}, err
		}
		return Window{From: from, To: to}, nil

	case in.Since != "":
		from, err := resolveSince(in.Since, now)
		if err != nil {
			return Window{}, err
		}
		return Window{From: from, To: now}, nil

	case hasFrom:
		from, err := parseTimeArg(in.From, false)
		if err != nil {
			return Window{}, err
		}
		return Window{From: from, To: now}, nil

	case hasTo:
		to, err := parseTimeArg(in.To, true)
		if err != nil {
			return Window{}, err
		}
		return Window{From: to.AddDate(0, 0, -ToOnlyWindowDays), To: to}, nil

	case in.Days > 0:
		return Window{From: now.AddDate(0, 0, -in.Days), To: now}, nil

	default:
		return Window{From: now.AddDate(0, 0, -DefaultWindowDays), To: now}, nil
	}
}

// resolveSince handles a relative expression like "90m", "6h" or "3d", or a
// literal date/timestamp passed through as the window start.
func resolveSince(expr string, now time.Time) (time.Time, error) {
	if m := relativeRegex.FindStringSubmatch(expr); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, errors.NewInvalidRequest(fmt.Sprintf("invalid time expression %q", expr))
		}
		switch m[2] {
		case "m":
			return now.Add(-time.Duration(n) * time.Minute), nil
		case "h":
			return now.Add(-time.Duration(n) * time.Hour), nil
		default:
			return now.AddDate(0, 0, -n), nil
		}
	}

	t, err := parseTimeArg(expr, false)
	if err != nil {
		return time.Time{}, errors.NewInvalidRequest(fmt.Sprintf("invalid time expression %q", expr))
	}
	return t, nil
}

// parseTimeArg accepts an RFC 3339 timestamp or a bare date. A bare date
// used as an end bound covers the whole day.
func parseTimeArg(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(checkpoint.DateLayout, s); err == nil {
		t = t.UTC()
		if endOfDay {
			t = t.Add(24*time.Hour - time.Second)
		}
		return t, nil
	}
	return time.Time{}, errors.NewInvalidRequest(fmt.Sprintf("invalid time %q, expected YYYY-MM-DD or RFC 3339", s))
}
