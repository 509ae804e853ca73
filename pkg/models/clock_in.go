package models

import "time"

// ClockIn is a user's daily-goal record for one calendar day
type ClockIn struct {
	UserID               string    `json:"user_id" db:"user_id"`
	Date                 string    `json:"date" db:"clock_in_date"` // YYYY-MM-DD
	Status               bool      `json:"status" db:"status"`
	NewItemsCompleted    int       `json:"new_items_completed" db:"new_items_completed"`
	NewItemsTarget       int       `json:"new_items_target" db:"new_items_target"`
	ReviewItemsCompleted int       `json:"review_items_completed" db:"review_items_completed"`
	ReviewItemsTarget    int       `json:"review_items_target" db:"review_items_target"`
	StreakDays           int       `json:"streak_days" db:"streak_days"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// GoalsMet reports whether the stored completions reach the stored targets.
func (c *ClockIn) GoalsMet() bool {
	return c.NewItemsCompleted >= c.NewItemsTarget && c.ReviewItemsCompleted >= c.ReviewItemsTarget
}
