package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordtrail/pkg/models"
)

const clockInColumns = `user_id, clock_in_date, status, new_items_completed, new_items_target,
	review_items_completed, review_items_target, streak_days, created_at, updated_at`

// ClockInRepository handles database operations for daily clock-in records
type ClockInRepository struct {
	db *sqlx.DB
}

// NewClockInRepository creates a new repository instance
func NewClockInRepository(db *sqlx.DB) *ClockInRepository {
	return &ClockInRepository{db: db}
}

// Get returns the record of a user for a YYYY-MM-DD date or ErrNotFound.
func (r *ClockInRepository) Get(ctx context.Context, userID, date string) (*models.ClockIn, error) {
	var c models.ClockIn
	query := r.db.Rebind("SELECT " + clockInColumns + " FROM clock_ins WHERE user_id = ? AND clock_in_date = ?")
	if err := r.db.GetContext(ctx, &c, query, userID, date); err != nil {
		return nil, fmt.Errorf("get clock-in %s: %w", date, notFound(err))
	}
	return &c, nil
}

// InsertIfAbsent stores c unless a record for the same user and date exists,
// in which case it returns ErrConflict and leaves the stored row untouched.
func (r *ClockInRepository) InsertIfAbsent(ctx context.Context, c *models.ClockIn) error {
	query := r.db.Rebind(`
		INSERT INTO clock_ins (` + clockInColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, clock_in_date) DO NOTHING`)
	res, err := r.db.ExecContext(ctx, query,
		c.UserID,
		c.Date,
		c.Status,
		c.NewItemsCompleted,
		c.NewItemsTarget,
		c.ReviewItemsCompleted,
		c.ReviewItemsTarget,
		c.StreakDays,
		c.CreatedAt.UTC(),
		c.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert clock-in: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert clock-in: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// UpdateProgress writes the completion counts and status. Targets and streak are never changed.
// The stored status is OR-ed with the new one so it cannot go back to false.
func (r *ClockInRepository) UpdateProgress(ctx context.Context, c *models.ClockIn) error {
	query := r.db.Rebind(`
		UPDATE clock_ins SET
			new_items_completed = ?,
			review_items_completed = ?,
			status = (status OR ?),
			updated_at = ?
		WHERE user_id = ? AND clock_in_date = ?`)
	res, err := r.db.ExecContext(ctx, query,
		c.NewItemsCompleted,
		c.ReviewItemsCompleted,
		c.Status,
		c.UpdatedAt.UTC(),
		c.UserID,
		c.Date,
	)
	if err != nil {
		return fmt.Errorf("update clock-in %s: %w", c.Date, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update clock-in %s: %w", c.Date, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UserIDsForDate returns the users that have a record on date.
func (r *ClockInRepository) UserIDsForDate(ctx context.Context, date string) ([]string, error) {
	ids := []string{}
	query := r.db.Rebind("SELECT user_id FROM clock_ins WHERE clock_in_date = ? ORDER BY user_id")
	if err := r.db.SelectContext(ctx, &ids, query, date); err != nil {
		return nil, fmt.Errorf("list clock-in users for %s: %w", date, err)
	}
	return ids, nil
}
