package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/wordtrail/pkg/models"
)

// BookRepository handles database operations for books and their items
type BookRepository struct {
	db *sqlx.DB
}

// NewBookRepository creates a new repository instance
func NewBookRepository(db *sqlx.DB) *BookRepository {
	return &BookRepository{db: db}
}

// Create stores a book with its items in the given order. An empty ID is
// replaced by a generated one. Duplicate item ids keep their first position.
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin book transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind("INSERT INTO books (id, name, owner_id, created_at) VALUES (?, ?, ?, ?)"),
		book.ID, book.Name, book.OwnerID, book.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert book: %w", err)
	}

	if err := insertItems(ctx, tx, book.ID, book.ItemIDs, 0); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit book: %w", err)
	}
	return nil
}

// AddItems appends items to the end of an existing book and returns how many were new.
func (r *BookRepository) AddItems(ctx context.Context, bookID string, itemIDs []string) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin book transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.GetContext(ctx, &exists, tx.Rebind("SELECT EXISTS (SELECT 1 FROM books WHERE id = ?)"), bookID)
	if err != nil {
		return 0, fmt.Errorf("check book %s: %w", bookID, err)
	}
	if !exists {
		return 0, ErrNotFound
	}

	var before int
	err = tx.GetContext(ctx, &before, tx.Rebind("SELECT COUNT(*) FROM book_items WHERE book_id = ?"), bookID)
	if err != nil {
		return 0, fmt.Errorf("count book items: %w", err)
	}
	var next int
	err = tx.GetContext(ctx, &next, tx.Rebind("SELECT COALESCE(MAX(position) + 1, 0) FROM book_items WHERE book_id = ?"), bookID)
	if err != nil {
		return 0, fmt.Errorf("next book position: %w", err)
	}

	if err := insertItems(ctx, tx, bookID, itemIDs, next); err != nil {
		return 0, err
	}

	var after int
	err = tx.GetContext(ctx, &after, tx.Rebind("SELECT COUNT(*) FROM book_items WHERE book_id = ?"), bookID)
	if err != nil {
		return 0, fmt.Errorf("count book items: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit book items: %w", err)
	}
	return after - before, nil
}

func insertItems(ctx context.Context, tx *sqlx.Tx, bookID string, itemIDs []string, start int) error {
	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO book_items (book_id, item_id, position) VALUES (?, ?, ?)
		ON CONFLICT (book_id, item_id) DO NOTHING`))
	if err != nil {
		return fmt.Errorf("prepare book items: %w", err)
	}
	defer stmt.Close()

	for i, itemID := range itemIDs {
		if _, err := stmt.ExecContext(ctx, bookID, itemID, start+i); err != nil {
			return fmt.Errorf("insert book item %s: %w", itemID, err)
		}
	}
	return nil
}

// Get returns a book with its items or ErrNotFound.
func (r *BookRepository) Get(ctx context.Context, bookID string) (*models.Book, error) {
	var book models.Book
	query := r.db.Rebind("SELECT id, name, owner_id, created_at FROM books WHERE id = ?")
	if err := r.db.GetContext(ctx, &book, query, bookID); err != nil {
		return nil, fmt.Errorf("get book %s: %w", bookID, notFound(err))
	}
	items, err := r.itemIDs(ctx, bookID)
	if err != nil {
		return nil, err
	}
	book.ItemIDs = items
	return &book, nil
}

// List returns all books without their items, ordered by name.
func (r *BookRepository) List(ctx context.Context) ([]models.Book, error) {
	books := []models.Book{}
	if err := r.db.SelectContext(ctx, &books, "SELECT id, name, owner_id, created_at FROM books ORDER BY name, id"); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// Exists reports whether a book with the id is stored.
func (r *BookRepository) Exists(ctx context.Context, bookID string) (bool, error) {
	var exists bool
	query := r.db.Rebind("SELECT EXISTS (SELECT 1 FROM books WHERE id = ?)")
	if err := r.db.GetContext(ctx, &exists, query, bookID); err != nil {
		return false, fmt.Errorf("check book %s: %w", bookID, err)
	}
	return exists, nil
}

// ItemIDs returns the item ids of a book in book order, or ErrNotFound for an unknown book.
func (r *BookRepository) ItemIDs(ctx context.Context, bookID string) ([]string, error) {
	ok, err := r.Exists(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return r.itemIDs(ctx, bookID)
}

func (r *BookRepository) itemIDs(ctx context.Context, bookID string) ([]string, error) {
	ids := []string{}
	query := r.db.Rebind("SELECT item_id FROM book_items WHERE book_id = ? ORDER BY position")
	if err := r.db.SelectContext(ctx, &ids, query, bookID); err != nil {
		return nil, fmt.Errorf("list items of book %s: %w", bookID, err)
	}
	return ids, nil
}
