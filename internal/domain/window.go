package domain

import (
	"fmt"
	"time"
)

// DateKeyLayout is the layout of daily total keys ("YYYY-MM-DD", UTC).
const DateKeyLayout = "2006-01-02"

// TargetDay selects which UTC calendar date an aggregation run covers,
// relative to the moment it fires.
type TargetDay string

const (
	// TargetToday aggregates the current UTC date up to the time of the run.
	TargetToday TargetDay = "today"
	// TargetYesterday aggregates the previous, completed UTC date.
	TargetYesterday TargetDay = "yesterday"
)

// ParseTargetDay validates a target day name.
func ParseTargetDay(s string) (TargetDay, error) {
	switch TargetDay(s) {
	case TargetToday, TargetYesterday:
		return TargetDay(s), nil
	default:
		return "", fmt.Errorf("unknown target day %q (want %q or %q)", s, TargetToday, TargetYesterday)
	}
}

// DayWindow is the half-open UTC interval [Start, End) of one calendar date.
type DayWindow struct {
	Start time.Time
	End   time.Time
}

// WindowForDate returns the window of the UTC calendar date containing t.
func WindowForDate(t time.Time) DayWindow {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return DayWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// DayWindowFor returns the window selected by target for a run firing at now.
func DayWindowFor(now time.Time, target TargetDay) DayWindow {
	w := WindowForDate(now)
	if target == TargetYesterday {
		return WindowForDate(w.Start.AddDate(0, 0, -1))
	}
	return w
}

// DateKey returns the ISO date of the window start.
func (w DayWindow) DateKey() string {
	return w.Start.Format(DateKeyLayout)
}

// StartMillis returns the inclusive lower bound as epoch milliseconds.
func (w DayWindow) StartMillis() int64 {
	return w.Start.UnixMilli()
}

// EndMillis returns the exclusive upper bound as epoch milliseconds.
func (w DayWindow) EndMillis() int64 {
	return w.End.UnixMilli()
}

// Contains reports whether the epoch-millisecond timestamp ts lies in the window.
func (w DayWindow) Contains(ts int64) bool {
	return ts >= w.StartMillis() && ts < w.EndMillis()
}

// ParseDateKey validates a "YYYY-MM-DD" key and returns its window.
func ParseDateKey(key string) (DayWindow, error) {
	t, err := time.Parse(DateKeyLayout, key)
	if err != nil {
		return DayWindow{}, fmt.Errorf("%w: date key %q", ErrInvalidInput, key)
	}
	return WindowForDate(t), nil
}
