// Package learning tracks per-item proficiency and answers review scheduling queries.
package learning

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/wordtrail/internal/calendar"
	"github.com/example/wordtrail/internal/database"
	"github.com/example/wordtrail/internal/spaced_repetition"
	"github.com/example/wordtrail/pkg/models"
)

// Tracker owns the progress record of each (user, item) pair.
type Tracker struct {
	store  ProgressStore
	table  spaced_repetition.IntervalTable
	now    calendar.Clock
	logger *zap.Logger
}

// NewTracker creates a tracker. A nil clock means the system clock and a nil logger discards output.
func NewTracker(store ProgressStore, table spaced_repetition.IntervalTable, clock calendar.Clock, logger *zap.Logger) *Tracker {
	if clock == nil {
		clock = calendar.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: store, table: table, now: clock, logger: logger}
}

// StartLearning creates the record for a pair, or returns the existing one unchanged.
func (t *Tracker) StartLearning(ctx context.Context, userID, itemID string) (*models.Progress, error) {
	if err := validateIDs(userID, itemID); err != nil {
		return nil, err
	}

	existing, err := t.store.Get(ctx, userID, itemID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("start learning: user %s item %s: %w", userID, itemID, err)
	}

	p := spaced_repetition.NewProgress(userID, itemID, t.now().UTC())
	err = t.store.InsertIfAbsent(ctx, p)
	switch {
	case err == nil:
		t.logger.Debug("learn",
			zap.String("user_id", userID),
			zap.String("item_id", itemID),
			zap.Time("at", p.FirstLearnTime),
		)
		return p, nil
	case errors.Is(err, database.ErrConflict):
		// a concurrent call created it first
		winner, err := t.store.Get(ctx, userID, itemID)
		if err != nil {
			return nil, fmt.Errorf("start learning: user %s item %s: %w", userID, itemID, err)
		}
		return winner, nil
	default:
		return nil, fmt.Errorf("start learning: user %s item %s: %w", userID, itemID, err)
	}
}

// RecordReview applies one review outcome. Reviewing an item that was never started fails with ErrNotFound.
func (t *Tracker) RecordReview(ctx context.Context, userID, itemID string, remembered bool) (*models.Progress, error) {
	if err := validateIDs(userID, itemID); err != nil {
		return nil, err
	}

	p, err := t.store.Get(ctx, userID, itemID)
	if err != nil {
		return nil, t.lookupError("record review", userID, itemID, err)
	}

	entry := spaced_repetition.ApplyReview(p, remembered, t.now().UTC(), t.table)
	if err := t.store.SaveReview(ctx, p, &entry); err != nil {
		return nil, t.lookupError("record review", userID, itemID, err)
	}
	p.ReviewHistory[len(p.ReviewHistory)-1] = entry

	t.logger.Debug("review",
		zap.String("user_id", userID),
		zap.String("item_id", itemID),
		zap.Bool("remembered", remembered),
		zap.Int("stage", p.ReviewStage),
		zap.Float64("proficiency", p.Proficiency),
	)
	return p, nil
}

// GetProgress returns the record for a pair with its review history.
func (t *Tracker) GetProgress(ctx context.Context, userID, itemID string) (*models.Progress, error) {
	if err := validateIDs(userID, itemID); err != nil {
		return nil, err
	}
	p, err := t.store.Get(ctx, userID, itemID)
	if err != nil {
		return nil, t.lookupError("get progress", userID, itemID, err)
	}
	return p, nil
}

// GetProgressForItems returns the stored records among itemIDs. Items never started are omitted.
func (t *Tracker) GetProgressForItems(ctx context.Context, userID string, itemIDs []string) ([]models.Progress, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is empty: %w", ErrInvalidArgument)
	}
	records, err := t.store.ListByItems(ctx, userID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("get progress for items: user %s: %w", userID, err)
	}
	return records, nil
}

// UserStats summarizes all records of a user.
func (t *Tracker) UserStats(ctx context.Context, userID string) (*models.ProgressStats, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is empty: %w", ErrInvalidArgument)
	}
	records, err := t.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user stats: user %s: %w", userID, err)
	}
	stats := summarize(records)
	stats.TotalItems = len(records)
	return stats, nil
}

func (t *Tracker) lookupError(op, userID, itemID string, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%s: user %s item %s: %w", op, userID, itemID, ErrNotFound)
	}
	return fmt.Errorf("%s: user %s item %s: %w", op, userID, itemID, err)
}

// summarize fills every field except TotalItems, whose meaning depends on the caller.
func summarize(records []models.Progress) *models.ProgressStats {
	stats := &models.ProgressStats{LearnedItems: len(records)}
	if len(records) == 0 {
		return stats
	}
	var sum float64
	for _, p := range records {
		sum += p.Proficiency
		switch {
		case p.Proficiency >= spaced_repetition.MasteredThreshold:
			stats.MasteredItems++
		case p.Proficiency > 0:
			stats.LearningItems++
		}
	}
	stats.AverageProficiency = sum / float64(len(records))
	return stats
}

func validateIDs(userID, itemID string) error {
	if userID == "" {
		return fmt.Errorf("user id is empty: %w", ErrInvalidArgument)
	}
	if itemID == "" {
		return fmt.Errorf("item id is empty: %w", ErrInvalidArgument)
	}
	return nil
}
