package spaced_repetition

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidIntervals is returned when an interval table is empty or not strictly increasing.
var ErrInvalidIntervals = errors.New("interval table must be non-empty and strictly increasing")

// DefaultIntervals are the review intervals in days, indexed by review stage.
var DefaultIntervals = []int{1, 2, 4, 7, 15, 30}

// IntervalTable maps a review stage to the number of days until the next review.
// The zero value is not usable; build one with NewIntervalTable or DefaultTable.
type IntervalTable struct {
	days []int
}

// NewIntervalTable validates and copies the given day intervals.
func NewIntervalTable(days ...int) (IntervalTable, error) {
	if len(days) == 0 {
		return IntervalTable{}, ErrInvalidIntervals
	}
	for i, d := range days {
		if d <= 0 {
			return IntervalTable{}, fmt.Errorf("stage %d has %d days: %w", i, d, ErrInvalidIntervals)
		}
		if i > 0 && d <= days[i-1] {
			return IntervalTable{}, fmt.Errorf("stage %d (%d days) after %d days: %w", i, d, days[i-1], ErrInvalidIntervals)
		}
	}
	cp := make([]int, len(days))
	copy(cp, days)
	return IntervalTable{days: cp}, nil
}

// DefaultTable returns the table built from DefaultIntervals.
func DefaultTable() IntervalTable {
	t, _ := NewIntervalTable(DefaultIntervals...)
	return t
}

// Len returns the number of stages.
func (t IntervalTable) Len() int {
	return len(t.days)
}

// MaxStage returns the highest valid stage index.
func (t IntervalTable) MaxStage() int {
	return len(t.days) - 1
}

// Days returns a copy of the intervals.
func (t IntervalTable) Days() []int {
	cp := make([]int, len(t.days))
	copy(cp, t.days)
	return cp
}

// Interval returns the duration for a stage; out-of-range stages are clamped.
func (t IntervalTable) Interval(stage int) time.Duration {
	return time.Duration(t.days[t.Clamp(stage)]) * 24 * time.Hour
}

// Clamp bounds a stage to [0, MaxStage].
func (t IntervalTable) Clamp(stage int) int {
	if stage < 0 {
		return 0
	}
	if stage > t.MaxStage() {
		return t.MaxStage()
	}
	return stage
}

// NextReview computes the next review time after a review at last.
func (t IntervalTable) NextReview(last time.Time, stage int) time.Time {
	return last.Add(t.Interval(stage))
}
