package models

import "time"

// ReviewEntry is one outcome in a progress record's review history
type ReviewEntry struct {
	UserID     string    `json:"-" db:"user_id"`
	ItemID     string    `json:"-" db:"item_id"`
	Seq        int       `json:"-" db:"seq"`
	ReviewedAt time.Time `json:"time" db:"reviewed_at"`
	Remembered bool      `json:"remembered" db:"remembered"`
}

// Progress tracks a user's proficiency and review schedule for one item
type Progress struct {
	UserID         string        `json:"user_id" db:"user_id"`
	ItemID         string        `json:"item_id" db:"item_id"`
	Proficiency    float64       `json:"proficiency" db:"proficiency"`   // 0.0 - 1.0
	ReviewStage    int           `json:"review_stage" db:"review_stage"` // index into the interval table
	FirstLearnTime time.Time     `json:"first_learn_time" db:"first_learn_time"`
	LastReviewTime time.Time     `json:"last_review_time" db:"last_review_time"`
	NextReviewTime time.Time     `json:"next_review_time" db:"next_review_time"`
	ReviewHistory  []ReviewEntry `json:"review_history" db:"-"`

	// FromDatabase is false for records synthesized for items that were never started.
	FromDatabase bool `json:"from_database" db:"-"`
}

// ProgressStats summarizes a user's progress records
type ProgressStats struct {
	TotalItems         int     `json:"total_items"`
	LearnedItems       int     `json:"learned_items"`
	MasteredItems      int     `json:"mastered_items"`
	LearningItems      int     `json:"learning_items"`
	AverageProficiency float64 `json:"average_proficiency"`
}
