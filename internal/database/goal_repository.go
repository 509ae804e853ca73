package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordtrail/pkg/models"
)

// GoalRepository handles database operations for learning goals
type GoalRepository struct {
	db *sqlx.DB
}

// NewGoalRepository creates a new repository instance
func NewGoalRepository(db *sqlx.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Get returns the stored goal of a user or ErrNotFound.
func (r *GoalRepository) Get(ctx context.Context, userID string) (*models.LearningGoal, error) {
	var goal models.LearningGoal
	query := r.db.Rebind(`
		SELECT user_id, daily_new_items_goal, daily_review_items_goal, created_at, updated_at
		FROM learning_goals WHERE user_id = ?`)
	if err := r.db.GetContext(ctx, &goal, query, userID); err != nil {
		return nil, fmt.Errorf("get learning goal: %w", notFound(err))
	}
	return &goal, nil
}

// Upsert creates or overwrites the goal of a user. CreatedAt is kept on overwrite.
func (r *GoalRepository) Upsert(ctx context.Context, goal *models.LearningGoal) error {
	query := r.db.Rebind(`
		INSERT INTO learning_goals (user_id, daily_new_items_goal, daily_review_items_goal, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			daily_new_items_goal = excluded.daily_new_items_goal,
			daily_review_items_goal = excluded.daily_review_items_goal,
			updated_at = excluded.updated_at`)
	_, err := r.db.ExecContext(ctx, query,
		goal.UserID,
		goal.DailyNewItemsGoal,
		goal.DailyReviewItemsGoal,
		goal.CreatedAt.UTC(),
		goal.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert learning goal: %w", err)
	}
	return nil
}
