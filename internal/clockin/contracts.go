package clockin

import (
	"context"
	"time"

	"github.com/example/wordtrail/pkg/models"
)

// ClockInStore persists one record per user and calendar day.
type ClockInStore interface {
	Get(ctx context.Context, userID, date string) (*models.ClockIn, error)
	InsertIfAbsent(ctx context.Context, c *models.ClockIn) error
	UpdateProgress(ctx context.Context, c *models.ClockIn) error
	UserIDsForDate(ctx context.Context, date string) ([]string, error)
}

// GoalStore persists each user's current learning goal.
type GoalStore interface {
	Get(ctx context.Context, userID string) (*models.LearningGoal, error)
	Upsert(ctx context.Context, goal *models.LearningGoal) error
}

// ActivityCounter counts learning events from progress records in a time range.
type ActivityCounter interface {
	CountLearnedBetween(ctx context.Context, userID string, start, end time.Time) (int, error)
	CountReviewedBetween(ctx context.Context, userID string, start, end time.Time) (int, error)
}
