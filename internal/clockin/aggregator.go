// Package clockin aggregates daily learning activity into clock-in records and streaks.
package clockin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/wordtrail/internal/calendar"
	"github.com/example/wordtrail/internal/database"
	"github.com/example/wordtrail/internal/learning"
	"github.com/example/wordtrail/pkg/models"
)

// HistoryDays is the length of WeeklyHistory.
const HistoryDays = 7

// DaySummary is one day of a user's clock-in history.
type DaySummary struct {
	Date                 string `json:"date"`
	Status               bool   `json:"status"`
	NewItemsCompleted    int    `json:"new_items_completed"`
	NewItemsTarget       int    `json:"new_items_target"`
	ReviewItemsCompleted int    `json:"review_items_completed"`
	ReviewItemsTarget    int    `json:"review_items_target"`
	StreakDays           int    `json:"streak_days"`
}

// Stats is the refreshed view of today's clock-in.
type Stats struct {
	TodayStatus          bool `json:"today_status"`
	StreakDays           int  `json:"streak_days"`
	NewItemsTarget       int  `json:"new_items_target"`
	NewItemsCompleted    int  `json:"new_items_completed"`
	ReviewItemsTarget    int  `json:"review_items_target"`
	ReviewItemsCompleted int  `json:"review_items_completed"`
}

// Aggregator maintains the per-day clock-in records.
type Aggregator struct {
	clockIns ClockInStore
	goals    GoalStore
	activity ActivityCounter
	loc      *time.Location
	now      calendar.Clock
	logger   *zap.Logger
}

// NewAggregator creates an aggregator whose calendar days are computed in loc.
func NewAggregator(clockIns ClockInStore, goals GoalStore, activity ActivityCounter, loc *time.Location, clock calendar.Clock, logger *zap.Logger) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = calendar.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		clockIns: clockIns,
		goals:    goals,
		activity: activity,
		loc:      loc,
		now:      clock,
		logger:   logger,
	}
}

// Location returns the time zone calendar days are computed in.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// GetOrCreateToday returns today's record, creating it from the current goal when absent.
// Concurrent callers for the same user converge on one stored record.
func (a *Aggregator) GetOrCreateToday(ctx context.Context, userID string) (*models.ClockIn, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is empty: %w", learning.ErrInvalidArgument)
	}
	now := a.now()
	today := calendar.DateKey(now, a.loc)

	existing, err := a.clockIns.Get(ctx, userID, today)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("get clock-in: user %s day %s: %w", userID, today, err)
	}

	goal, err := a.GetGoal(ctx, userID)
	if err != nil {
		return nil, err
	}
	yesterdayKey := calendar.DateKey(calendar.AddDays(now, -1, a.loc), a.loc)
	yesterday, err := a.clockIns.Get(ctx, userID, yesterdayKey)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("get clock-in: user %s day %s: %w", userID, yesterdayKey, err)
	}

	c := &models.ClockIn{
		UserID:            userID,
		Date:              today,
		NewItemsTarget:    goal.DailyNewItemsGoal,
		ReviewItemsTarget: goal.DailyReviewItemsGoal,
		StreakDays:        NextStreak(yesterday),
		CreatedAt:         now.UTC(),
		UpdatedAt:         now.UTC(),
	}
	err = a.clockIns.InsertIfAbsent(ctx, c)
	switch {
	case err == nil:
		a.logger.Debug("clock-in created",
			zap.String("user_id", userID),
			zap.String("date", today),
			zap.Int("streak_days", c.StreakDays),
		)
		return c, nil
	case errors.Is(err, database.ErrConflict):
		winner, err := a.clockIns.Get(ctx, userID, today)
		if err != nil {
			return nil, fmt.Errorf("reread clock-in: user %s day %s: %w", userID, today, err)
		}
		return winner, nil
	default:
		return nil, fmt.Errorf("create clock-in: user %s day %s: %w", userID, today, err)
	}
}

// Refresh recounts today's activity and stores it in today's record.
func (a *Aggregator) Refresh(ctx context.Context, userID string) (*models.ClockIn, error) {
	c, err := a.GetOrCreateToday(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := a.recount(ctx, c, calendar.DayWindow(a.now(), a.loc)); err != nil {
		return nil, err
	}
	return c, nil
}

// RefreshForDate recounts the activity of an existing record for day.
// It returns nil without error when the user has no record for that day.
func (a *Aggregator) RefreshForDate(ctx context.Context, userID string, day time.Time) (*models.ClockIn, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is empty: %w", learning.ErrInvalidArgument)
	}
	key := calendar.DateKey(day, a.loc)
	c, err := a.clockIns.Get(ctx, userID, key)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get clock-in: user %s day %s: %w", userID, key, err)
	}
	if err := a.recount(ctx, c, calendar.DayWindow(day, a.loc)); err != nil {
		return nil, err
	}
	return c, nil
}

// TryClockIn refreshes today's record and reports whether the day is achieved.
// An achieved day is returned as stored.
func (a *Aggregator) TryClockIn(ctx context.Context, userID string) (*models.ClockIn, bool, error) {
	c, err := a.GetOrCreateToday(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if c.Status {
		return c, true, nil
	}
	if err := a.recount(ctx, c, calendar.DayWindow(a.now(), a.loc)); err != nil {
		return nil, false, err
	}
	if c.Status {
		a.logger.Info("clock-in achieved",
			zap.String("user_id", userID),
			zap.String("date", c.Date),
			zap.Int("streak_days", c.StreakDays),
		)
	}
	return c, c.Status, nil
}

// WeeklyHistory returns the last seven days, today first. Days without a record are reported as not achieved.
func (a *Aggregator) WeeklyHistory(ctx context.Context, userID string) ([]DaySummary, error) {
	today, err := a.Refresh(ctx, userID)
	if err != nil {
		return nil, err
	}
	history := make([]DaySummary, 0, HistoryDays)
	history = append(history, summarize(today))

	now := a.now()
	for i := 1; i < HistoryDays; i++ {
		day := calendar.AddDays(now, -i, a.loc)
		c, err := a.RefreshForDate(ctx, userID, day)
		if err != nil {
			return nil, err
		}
		if c == nil {
			history = append(history, DaySummary{Date: calendar.DateKey(day, a.loc)})
			continue
		}
		history = append(history, summarize(c))
	}
	return history, nil
}

// Stats returns the refreshed snapshot of today's record.
func (a *Aggregator) Stats(ctx context.Context, userID string) (*Stats, error) {
	c, err := a.Refresh(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TodayStatus:          c.Status,
		StreakDays:           c.StreakDays,
		NewItemsTarget:       c.NewItemsTarget,
		NewItemsCompleted:    c.NewItemsCompleted,
		ReviewItemsTarget:    c.ReviewItemsTarget,
		ReviewItemsCompleted: c.ReviewItemsCompleted,
	}, nil
}

// SetGoal stores new daily targets. Records already created keep their targets.
func (a *Aggregator) SetGoal(ctx context.Context, userID string, newItems, reviewItems int) (*models.LearningGoal, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is empty: %w", learning.ErrInvalidArgument)
	}
	if newItems < 0 || reviewItems < 0 {
		return nil, fmt.Errorf("goal %d/%d for user %s must not be negative: %w", newItems, reviewItems, userID, learning.ErrInvalidArgument)
	}
	now := a.now().UTC()
	goal := &models.LearningGoal{
		UserID:               userID,
		DailyNewItemsGoal:    newItems,
		DailyReviewItemsGoal: reviewItems,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := a.goals.Upsert(ctx, goal); err != nil {
		return nil, fmt.Errorf("set goal: user %s: %w", userID, err)
	}
	return a.GetGoal(ctx, userID)
}

// GetGoal returns the user's goal, or the defaults when none was set.
func (a *Aggregator) GetGoal(ctx context.Context, userID string) (*models.LearningGoal, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is empty: %w", learning.ErrInvalidArgument)
	}
	goal, err := a.goals.Get(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		def := models.DefaultLearningGoal(userID)
		return &def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: user %s: %w", userID, err)
	}
	return goal, nil
}

// UsersWithRecord lists users that have a record on day.
func (a *Aggregator) UsersWithRecord(ctx context.Context, day time.Time) ([]string, error) {
	key := calendar.DateKey(day, a.loc)
	ids, err := a.clockIns.UserIDsForDate(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("users with clock-in on %s: %w", key, err)
	}
	return ids, nil
}

// recount updates c's completions for the day window and persists them.
// Status only moves from false to true; targets and streak are never touched.
func (a *Aggregator) recount(ctx context.Context, c *models.ClockIn, day calendar.Window) error {
	learned, err := a.activity.CountLearnedBetween(ctx, c.UserID, day.Start, day.End)
	if err != nil {
		return fmt.Errorf("count new items: user %s day %s: %w", c.UserID, c.Date, err)
	}
	reviewed, err := a.activity.CountReviewedBetween(ctx, c.UserID, day.Start, day.End)
	if err != nil {
		return fmt.Errorf("count reviews: user %s day %s: %w", c.UserID, c.Date, err)
	}

	c.NewItemsCompleted = learned
	c.ReviewItemsCompleted = reviewed
	c.Status = c.Status || c.GoalsMet()
	c.UpdatedAt = a.now().UTC()

	if err := a.clockIns.UpdateProgress(ctx, c); err != nil {
		return fmt.Errorf("update clock-in: user %s day %s: %w", c.UserID, c.Date, err)
	}
	return nil
}

func summarize(c *models.ClockIn) DaySummary {
	return DaySummary{
		Date:                 c.Date,
		Status:               c.Status,
		NewItemsCompleted:    c.NewItemsCompleted,
		NewItemsTarget:       c.NewItemsTarget,
		ReviewItemsCompleted: c.ReviewItemsCompleted,
		ReviewItemsTarget:    c.ReviewItemsTarget,
		StreakDays:           c.StreakDays,
	}
}
