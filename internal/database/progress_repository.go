package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordtrail/pkg/models"
)

const progressColumns = `wp.user_id, wp.item_id, wp.proficiency, wp.review_stage,
	wp.first_learn_time, wp.last_review_time, wp.next_review_time`

// ProgressRepository handles database operations for progress records and their review history
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Get returns the progress record for a user and item, including its review history.
func (r *ProgressRepository) Get(ctx context.Context, userID, itemID string) (*models.Progress, error) {
	var p models.Progress
	query := r.db.Rebind("SELECT " + progressColumns + " FROM word_progress wp WHERE wp.user_id = ? AND wp.item_id = ?")
	if err := r.db.GetContext(ctx, &p, query, userID, itemID); err != nil {
		return nil, fmt.Errorf("get progress: %w", notFound(err))
	}

	history := []models.ReviewEntry{}
	query = r.db.Rebind(`
		SELECT user_id, item_id, seq, reviewed_at, remembered
		FROM review_history
		WHERE user_id = ? AND item_id = ?
		ORDER BY seq`)
	if err := r.db.SelectContext(ctx, &history, query, userID, itemID); err != nil {
		return nil, fmt.Errorf("get review history: %w", err)
	}
	p.ReviewHistory = history
	p.FromDatabase = true
	return &p, nil
}

// InsertIfAbsent stores a new record. It returns ErrConflict when the pair already has one.
func (r *ProgressRepository) InsertIfAbsent(ctx context.Context, p *models.Progress) error {
	query := r.db.Rebind(`
		INSERT INTO word_progress (
			user_id, item_id, proficiency, review_stage,
			first_learn_time, last_review_time, next_review_time
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, item_id) DO NOTHING`)
	res, err := r.db.ExecContext(ctx, query,
		p.UserID,
		p.ItemID,
		p.Proficiency,
		p.ReviewStage,
		p.FirstLearnTime.UTC(),
		p.LastReviewTime.UTC(),
		p.NextReviewTime.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert progress: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// SaveReview writes the reviewed record and appends entry to its history in one transaction.
// The stored sequence number is assigned inside the transaction and copied back to entry.
func (r *ProgressRepository) SaveReview(ctx context.Context, p *models.Progress, entry *models.ReviewEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE word_progress SET
			proficiency = ?,
			review_stage = ?,
			last_review_time = ?,
			next_review_time = ?
		WHERE user_id = ? AND item_id = ?`),
		p.Proficiency,
		p.ReviewStage,
		p.LastReviewTime.UTC(),
		p.NextReviewTime.UTC(),
		p.UserID,
		p.ItemID,
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update progress: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}

	var seq int
	err = tx.GetContext(ctx, &seq, tx.Rebind(
		"SELECT COALESCE(MAX(seq) + 1, 0) FROM review_history WHERE user_id = ? AND item_id = ?"),
		p.UserID, p.ItemID)
	if err != nil {
		return fmt.Errorf("next history seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO review_history (user_id, item_id, seq, reviewed_at, remembered)
		VALUES (?, ?, ?, ?, ?)`),
		p.UserID, p.ItemID, seq, entry.ReviewedAt.UTC(), entry.Remembered)
	if err != nil {
		return fmt.Errorf("append review history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit review: %w", err)
	}
	entry.Seq = seq
	return nil
}

// ListByUser returns all records of a user ordered by item id. History is not loaded.
func (r *ProgressRepository) ListByUser(ctx context.Context, userID string) ([]models.Progress, error) {
	records := []models.Progress{}
	query := r.db.Rebind("SELECT " + progressColumns + " FROM word_progress wp WHERE wp.user_id = ? ORDER BY wp.item_id")
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return markStored(records), nil
}

// ListByItems returns the user's records for the given items. Items without a record are skipped.
func (r *ProgressRepository) ListByItems(ctx context.Context, userID string, itemIDs []string) ([]models.Progress, error) {
	records := []models.Progress{}
	if len(itemIDs) == 0 {
		return records, nil
	}
	query, args, err := sqlx.In(
		"SELECT "+progressColumns+" FROM word_progress wp WHERE wp.user_id = ? AND wp.item_id IN (?) ORDER BY wp.item_id",
		userID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("build progress query: %w", err)
	}
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list progress by items: %w", err)
	}
	return markStored(records), nil
}

// ListByBook returns the user's records for items of a book, in book order.
func (r *ProgressRepository) ListByBook(ctx context.Context, userID, bookID string) ([]models.Progress, error) {
	records := []models.Progress{}
	query := r.db.Rebind(`
		SELECT ` + progressColumns + `
		FROM word_progress wp
		JOIN book_items bi ON bi.item_id = wp.item_id AND bi.book_id = ?
		WHERE wp.user_id = ?
		ORDER BY bi.position`)
	if err := r.db.SelectContext(ctx, &records, query, bookID, userID); err != nil {
		return nil, fmt.Errorf("list progress for book %s: %w", bookID, err)
	}
	return markStored(records), nil
}

// ListDue returns records with next review before end that were not reviewed at or after since.
// An empty bookID means all of the user's records.
func (r *ProgressRepository) ListDue(ctx context.Context, userID, bookID string, since, end time.Time) ([]models.Progress, error) {
	records := []models.Progress{}
	from, args := scopedFrom(bookID)
	query := r.db.Rebind("SELECT " + progressColumns + from + `
		WHERE wp.user_id = ? AND wp.next_review_time < ? AND wp.last_review_time < ?
		ORDER BY wp.next_review_time, wp.item_id`)
	args = append(args, userID, end.UTC(), since.UTC())
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list due progress: %w", err)
	}
	return markStored(records), nil
}

// CountDue is the count form of ListDue.
func (r *ProgressRepository) CountDue(ctx context.Context, userID, bookID string, since, end time.Time) (int, error) {
	var n int
	from, args := scopedFrom(bookID)
	query := r.db.Rebind("SELECT COUNT(*)" + from + `
		WHERE wp.user_id = ? AND wp.next_review_time < ? AND wp.last_review_time < ?`)
	args = append(args, userID, end.UTC(), since.UTC())
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count due progress: %w", err)
	}
	return n, nil
}

// CountOverdue counts records whose next review is at or before now.
func (r *ProgressRepository) CountOverdue(ctx context.Context, userID, bookID string, now time.Time) (int, error) {
	var n int
	from, args := scopedFrom(bookID)
	query := r.db.Rebind("SELECT COUNT(*)" + from + " WHERE wp.user_id = ? AND wp.next_review_time <= ?")
	args = append(args, userID, now.UTC())
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count overdue progress: %w", err)
	}
	return n, nil
}

// CountLearnedBetween counts records first learned in [start, end).
func (r *ProgressRepository) CountLearnedBetween(ctx context.Context, userID string, start, end time.Time) (int, error) {
	var n int
	query := r.db.Rebind(`
		SELECT COUNT(*) FROM word_progress
		WHERE user_id = ? AND first_learn_time >= ? AND first_learn_time < ?`)
	if err := r.db.GetContext(ctx, &n, query, userID, start.UTC(), end.UTC()); err != nil {
		return 0, fmt.Errorf("count learned items: %w", err)
	}
	return n, nil
}

// CountReviewedBetween counts distinct items with at least one review in [start, end).
func (r *ProgressRepository) CountReviewedBetween(ctx context.Context, userID string, start, end time.Time) (int, error) {
	var n int
	query := r.db.Rebind(`
		SELECT COUNT(DISTINCT item_id) FROM review_history
		WHERE user_id = ? AND reviewed_at >= ? AND reviewed_at < ?`)
	if err := r.db.GetContext(ctx, &n, query, userID, start.UTC(), end.UTC()); err != nil {
		return 0, fmt.Errorf("count reviewed items: %w", err)
	}
	return n, nil
}

// scopedFrom returns the FROM clause, joined to book_items when a book is given, and its arguments.
func scopedFrom(bookID string) (string, []interface{}) {
	if bookID == "" {
		return " FROM word_progress wp", nil
	}
	return " FROM word_progress wp JOIN book_items bi ON bi.item_id = wp.item_id AND bi.book_id = ?", []interface{}{bookID}
}

func markStored(records []models.Progress) []models.Progress {
	for i := range records {
		records[i].FromDatabase = true
	}
	return records
}
