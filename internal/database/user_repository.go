package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordtrail/pkg/models"
)

const userColumns = "id, chat_id, reminders_enabled, created_at"

// UserRepository handles database operations for users
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert creates the user or refreshes its chat id.
func (r *UserRepository) Upsert(ctx context.Context, u *models.User) error {
	query := r.db.Rebind(`
		INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET chat_id = excluded.chat_id`)
	if _, err := r.db.ExecContext(ctx, query, u.ID, u.ChatID, u.RemindersEnabled, u.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("upsert user %s: %w", u.ID, err)
	}
	return nil
}

// GetByID returns a user or ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	query := r.db.Rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, notFound(err))
	}
	return &u, nil
}

// SetReminders turns reminder notifications on or off.
func (r *UserRepository) SetReminders(ctx context.Context, id string, enabled bool) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("UPDATE users SET reminders_enabled = ? WHERE id = ?"), enabled, id)
	if err != nil {
		return fmt.Errorf("set reminders for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set reminders for %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRemindable returns users with a chat and reminders enabled.
func (r *UserRepository) ListRemindable(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	query := r.db.Rebind("SELECT " + userColumns + " FROM users WHERE reminders_enabled = ? AND chat_id <> 0 ORDER BY id")
	if err := r.db.SelectContext(ctx, &users, query, true); err != nil {
		return nil, fmt.Errorf("list remindable users: %w", err)
	}
	return users, nil
}
