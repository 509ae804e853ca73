// Package calendar turns instants into calendar-day windows for a fixed location.
package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the storage format of a calendar day.
const DateLayout = "2006-01-02"

// StartOfDay returns midnight of the day containing t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns midnight of the following day, the exclusive upper bound of t's day.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1)
}

// Window is a half-open [Start, End) interval covering one calendar day.
type Window struct {
	Start time.Time
	End   time.Time
}

// DayWindow returns the window of the day containing t.
func DayWindow(t time.Time, loc *time.Location) Window {
	return Window{Start: StartOfDay(t, loc), End: EndOfDay(t, loc)}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// DateKey formats the day containing t as YYYY-MM-DD.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD key as midnight in loc.
func ParseDate(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", key, err)
	}
	return t, nil
}

// AddDays shifts a day start by n calendar days, keeping midnight across DST changes.
func AddDays(day time.Time, n int, loc *time.Location) time.Time {
	return StartOfDay(day, loc).AddDate(0, 0, n)
}

// Clock supplies the current time.
type Clock func() time.Time

// SystemClock returns time.Now.
func SystemClock() time.Time {
	return time.Now()
}
