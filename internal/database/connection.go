package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database types.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Options describes how to reach the store.
type Options struct {
	Type         string
	Path         string
	URL          string
	MaxOpenConns int
}

// Open establishes a connection and makes sure the schema exists.
func Open(ctx context.Context, opts Options) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch opts.Type {
	case TypePostgres:
		if opts.URL == "" {
			return nil, fmt.Errorf("postgres requires a database url")
		}
		db, err = sqlx.ConnectContext(ctx, "postgres", opts.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
	case TypeSQLite, "":
		path := opts.Path
		if path == "" {
			path = filepath.Join("data", "wordtrail.db")
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		db, err = sqlx.ConnectContext(ctx, "sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
		if err != nil {
			return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	default:
		return nil, fmt.Errorf("unsupported database type %q", opts.Type)
	}

	if err := initializeSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// initializeSchema creates necessary tables if they don't exist.
// Statements are kept portable between SQLite and PostgreSQL.
func initializeSchema(ctx context.Context, db *sqlx.DB) error {
	statements := []struct {
		name  string
		query string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				chat_id BIGINT NOT NULL DEFAULT 0,
				reminders_enabled BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMP NOT NULL
			)`},
		{"books", `
			CREATE TABLE IF NOT EXISTS books (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				owner_id TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL
			)`},
		{"book_items", `
			CREATE TABLE IF NOT EXISTS book_items (
				book_id TEXT NOT NULL REFERENCES books(id),
				item_id TEXT NOT NULL,
				position INTEGER NOT NULL,
				PRIMARY KEY (book_id, item_id)
			)`},
		{"word_progress", `
			CREATE TABLE IF NOT EXISTS word_progress (
				user_id TEXT NOT NULL,
				item_id TEXT NOT NULL,
				proficiency DOUBLE PRECISION NOT NULL DEFAULT 0,
				review_stage INTEGER NOT NULL DEFAULT 0,
				first_learn_time TIMESTAMP NOT NULL,
				last_review_time TIMESTAMP NOT NULL,
				next_review_time TIMESTAMP NOT NULL,
				PRIMARY KEY (user_id, item_id)
			)`},
		{"review_history", `
			CREATE TABLE IF NOT EXISTS review_history (
				user_id TEXT NOT NULL,
				item_id TEXT NOT NULL,
				seq INTEGER NOT NULL,
				reviewed_at TIMESTAMP NOT NULL,
				remembered BOOLEAN NOT NULL,
				PRIMARY KEY (user_id, item_id, seq)
			)`},
		{"learning_goals", `
			CREATE TABLE IF NOT EXISTS learning_goals (
				user_id TEXT PRIMARY KEY,
				daily_new_items_goal INTEGER NOT NULL,
				daily_review_items_goal INTEGER NOT NULL,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`},
		{"clock_ins", `
			CREATE TABLE IF NOT EXISTS clock_ins (
				user_id TEXT NOT NULL,
				clock_in_date TEXT NOT NULL,
				status BOOLEAN NOT NULL DEFAULT FALSE,
				new_items_completed INTEGER NOT NULL DEFAULT 0,
				new_items_target INTEGER NOT NULL,
				review_items_completed INTEGER NOT NULL DEFAULT 0,
				review_items_target INTEGER NOT NULL,
				streak_days INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL,
				PRIMARY KEY (user_id, clock_in_date)
			)`},
		{"idx_word_progress_next_review", `CREATE INDEX IF NOT EXISTS idx_word_progress_next_review ON word_progress (user_id, next_review_time)`},
		{"idx_review_history_reviewed_at", `CREATE INDEX IF NOT EXISTS idx_review_history_reviewed_at ON review_history (user_id, reviewed_at)`},
	}

	for _, st := range statements {
		if _, err := db.ExecContext(ctx, st.query); err != nil {
			return fmt.Errorf("failed to create %s: %w", st.name, err)
		}
	}
	return nil
}
