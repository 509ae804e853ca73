package learning

import (
	"context"
	"time"

	"github.com/example/wordtrail/pkg/models"
)

// ProgressStore persists progress records and their review history.
type ProgressStore interface {
	Get(ctx context.Context, userID, itemID string) (*models.Progress, error)
	InsertIfAbsent(ctx context.Context, p *models.Progress) error
	SaveReview(ctx context.Context, p *models.Progress, entry *models.ReviewEntry) error
	ListByUser(ctx context.Context, userID string) ([]models.Progress, error)
	ListByItems(ctx context.Context, userID string, itemIDs []string) ([]models.Progress, error)
	ListByBook(ctx context.Context, userID, bookID string) ([]models.Progress, error)
	ListDue(ctx context.Context, userID, bookID string, since, end time.Time) ([]models.Progress, error)
	CountDue(ctx context.Context, userID, bookID string, since, end time.Time) (int, error)
	CountOverdue(ctx context.Context, userID, bookID string, now time.Time) (int, error)
}

// BookCatalog resolves book membership. ItemIDs returns ids in book order and
// database.ErrNotFound for an unknown book.
type BookCatalog interface {
	Exists(ctx context.Context, bookID string) (bool, error)
	ItemIDs(ctx context.Context, bookID string) ([]string, error)
}
