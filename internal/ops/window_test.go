package ops

import (
	"strings"
	"testing"
	"time"

	"github.com/cairnhq/cairn/internal/errors"
)

var windowNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestResolveWindow_ExplicitFromTo(t *testing.T) {
	w, err := ResolveWindow(WindowInput{From: "2026-03-01", To: "2026-03-10"}, windowNow)
	if err != nil {
		t.Fatal(err)
	}
	wantFrom := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !w.From.Equal(wantFrom) {
		t.Errorf("From = %v, want %v", w.From, wantFrom)
	}
	// A bare end date covers the whole day.
	wantTo := time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)
	if !w.To.Equal(wantTo) {
		t.Errorf("To = %v, want %v", w.To, wantTo)
	}
}

func TestResolveWindow_SinceRelative(t *testing.T) {
	tests := []struct {
		expr string
		want time.Time
	}{
		{"90m", windowNow.Add(-90 * time.Minute)},
		{"6h", windowNow.Add(-6 * time.Hour)},
		{"3d", windowNow.AddDate(0, 0, -3)},
	}
	for _, tt := range tests {
		w, err := ResolveWindow(WindowInput{Since: tt.expr}, windowNow)
		if err != nil {
			t.Errorf("since %q: %v", tt.expr, err)
			continue
		}
		if !w.From.Equal(tt.want) {
			t.Errorf("since %q: From = %v, want %v", tt.expr, w.From, tt.want)
		}
		if !w.To.Equal(windowNow) {
			t.Errorf("since %q: To = %v, want now", tt.expr, w.To)
		}
	}
}

func TestResolveWindow_SinceLiteralDate(t *testing.T) {
	w, err := ResolveWindow(WindowInput{Since: "2026-03-01"}, windowNow)
	if err != nil {
		t.Fatal(err)
	}
	if !w.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("From = %v, want 2026-03-01", w.From)
	}
}

func TestResolveWindow_SinceInvalid(t *testing.T) {
	_, err := ResolveWindow(WindowInput{Since: "yesterdayish"}, windowNow)
	if err == nil {
		t.Fatal("expected an error for a malformed since expression")
	}
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("error code = %v, want INVALID_REQUEST", err)
	}
	if !strings.Contains(err.Error(), "yesterdayish") {
		t.Errorf("error %q does not name the offending input", err)
	}
}

func TestResolveWindow_SinceBeatsDays(t *testing.T) {
	withBoth, err := ResolveWindow(WindowInput{Since: "6h", Days: 30}, windowNow)
	if err != nil {
		t.Fatal(err)
	}
	sinceOnly, err := ResolveWindow(WindowInput{Since: "6h"}, windowNow)
	if err != nil {
		t.Fatal(err)
	}
	if !withBoth.From.Equal(sinceOnly.From) || !withBoth.To.Equal(sinceOnly.To) {
		t.Errorf("since+days window %v differs from since-only window %v", withBoth, sinceOnly)
	}
}

func TestResolveWindow_FromOnly(t *testing.T) {
	w, err := ResolveWindow(WindowInput{From: "2026-03-10"}, windowNow)
	if err != nil {
		t.Fatal(err)
	}
	if !w.To.Equal(windowNow) {
		t.Errorf("To = %v, want now", w.To)
	}
}

func TestResolveWindow_ToOnlyIsSevenDays(t *testing.T) {
	w, err := ResolveWindow(WindowInput{To: "2026-03-10"}, windowNow)
	if err != nil {
		t.Fatal(err)
	}
	if got := w.To.Sub(w.From); got != 7*24*time.Hour {
		t.Errorf("window span = %v, want 7 days", got)
	}
}

func TestResolveWindow_DayCount(t *testing.T) {
	w, err := ResolveWindow(WindowInput{Days: 5}, windowNow)
	if err != nil {
		t.Fatal(err)
	}
	if !w.From.Equal(windowNow.AddDate(0, 0, -5)) {
		t.Errorf("From = %v, want now-5d", w.From)
	}
}

func TestResolveWindow_DefaultTwoDays(t *testing.T) {
	w, err := ResolveWindow(WindowInput{}, windowNow)
	if err != nil {
		t.Fatal(err)
	}
	if !w.From.Equal(windowNow.AddDate(0, 0, -DefaultWindowDays)) {
		t.Errorf("From = %v, want now-2d", w.From)
	}
	if !w.To.Equal(windowNow) {
		t.Errorf("To = %v, want now", w.To)
	}
}

func TestResolveWindow_RFC3339Timestamps(t *testing.T) {
	w, err := ResolveWindow(WindowInput{
		From: "2026-03-14T09:30:00Z",
		To:   "2026-03-14T11:00:00Z",
	}, windowNow)
	if err != nil {
		t.Fatal(err)
	}
	if w.From.Hour() != 9 || w.From.Minute() != 30 {
		t.Errorf("From = %v, want 09:30", w.From)
	}
	if w.To.Hour() != 11 {
		t.Errorf("To = %v, want 11:00", w.To)
	}
}

