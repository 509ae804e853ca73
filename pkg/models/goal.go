package models

import "time"

// Default daily goals used until a user sets their own.
const (
	DefaultDailyNewItemsGoal    = 10
	DefaultDailyReviewItemsGoal = 30
)

// LearningGoal holds a user's daily targets
type LearningGoal struct {
	UserID               string    `json:"user_id" db:"user_id"`
	DailyNewItemsGoal    int       `json:"daily_new_items_goal" db:"daily_new_items_goal"`
	DailyReviewItemsGoal int       `json:"daily_review_items_goal" db:"daily_review_items_goal"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultLearningGoal returns the goal used for users that never set one.
func DefaultLearningGoal(userID string) LearningGoal {
	return LearningGoal{
		UserID:               userID,
		DailyNewItemsGoal:    DefaultDailyNewItemsGoal,
		DailyReviewItemsGoal: DefaultDailyReviewItemsGoal,
	}
}
