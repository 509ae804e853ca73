package learning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/wordtrail/internal/calendar"
	"github.com/example/wordtrail/internal/database"
	"github.com/example/wordtrail/internal/spaced_repetition"
	"github.com/example/wordtrail/pkg/models"
)

// MaxBatchSize caps the number of new items returned by one NewItems call.
const MaxBatchSize = 200

// Buckets partitions a book's items by proficiency band.
type Buckets struct {
	Unlearned    []models.Progress `json:"unlearned"`
	NewlyLearned []models.Progress `json:"newly_learned"`
	Fuzzy        []models.Progress `json:"fuzzy"`
	Familiar     []models.Progress `json:"familiar"`
}

// Band returns the list for one band.
func (b *Buckets) Band(band spaced_repetition.Band) []models.Progress {
	switch band {
	case spaced_repetition.BandUnlearned:
		return b.Unlearned
	case spaced_repetition.BandNewlyLearned:
		return b.NewlyLearned
	case spaced_repetition.BandFuzzy:
		return b.Fuzzy
	case spaced_repetition.BandFamiliar:
		return b.Familiar
	}
	return nil
}

// ReviewScheduler answers due, overdue and new-item queries over progress records.
type ReviewScheduler struct {
	store        ProgressStore
	books        BookCatalog
	loc          *time.Location
	now          calendar.Clock
	maxBatchSize int
	logger       *zap.Logger
}

// NewReviewScheduler creates a scheduler whose days are computed in loc.
func NewReviewScheduler(store ProgressStore, books BookCatalog, loc *time.Location, clock calendar.Clock, logger *zap.Logger) *ReviewScheduler {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = calendar.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewScheduler{
		store:        store,
		books:        books,
		loc:          loc,
		now:          clock,
		maxBatchSize: MaxBatchSize,
		logger:       logger,
	}
}

// WithMaxBatchSize overrides the NewItems ceiling. Non-positive values are ignored.
func (s *ReviewScheduler) WithMaxBatchSize(n int) *ReviewScheduler {
	if n > 0 {
		s.maxBatchSize = n
	}
	return s
}

// DueToday returns records due before the end of today that were not reviewed today.
// An empty bookID covers all of the user's records.
func (s *ReviewScheduler) DueToday(ctx context.Context, userID, bookID string) ([]models.Progress, error) {
	if err := s.checkScope(ctx, userID, bookID); err != nil {
		return nil, err
	}
	day := calendar.DayWindow(s.now(), s.loc)
	records, err := s.store.ListDue(ctx, userID, bookID, day.Start, day.End)
	if err != nil {
		return nil, fmt.Errorf("due today: user %s book %q: %w", userID, bookID, err)
	}
	return records, nil
}

// DueTodayCount is the count form of DueToday.
func (s *ReviewScheduler) DueTodayCount(ctx context.Context, userID, bookID string) (int, error) {
	if err := s.checkScope(ctx, userID, bookID); err != nil {
		return 0, err
	}
	day := calendar.DayWindow(s.now(), s.loc)
	n, err := s.store.CountDue(ctx, userID, bookID, day.Start, day.End)
	if err != nil {
		return 0, fmt.Errorf("due today count: user %s book %q: %w", userID, bookID, err)
	}
	return n, nil
}

// OverdueCount counts records whose next review time has passed, reviewed today or not.
func (s *ReviewScheduler) OverdueCount(ctx context.Context, userID, bookID string) (int, error) {
	if err := s.checkScope(ctx, userID, bookID); err != nil {
		return 0, err
	}
	n, err := s.store.CountOverdue(ctx, userID, bookID, s.now())
	if err != nil {
		return 0, fmt.Errorf("overdue count: user %s book %q: %w", userID, bookID, err)
	}
	return n, nil
}

// NewItems returns up to batchSize item ids of the book, in book order, that the user has not started.
// Batch sizes above the ceiling are capped; non-positive sizes yield an empty list.
func (s *ReviewScheduler) NewItems(ctx context.Context, userID, bookID string, batchSize int) ([]string, error) {
	if bookID == "" {
		return nil, fmt.Errorf("new items: book id is empty: %w", ErrInvalidArgument)
	}
	if userID == "" {
		return nil, fmt.Errorf("new items: user id is empty: %w", ErrInvalidArgument)
	}
	if batchSize <= 0 {
		return []string{}, nil
	}
	if batchSize > s.maxBatchSize {
		s.logger.Debug("batch size capped",
			zap.String("user_id", userID),
			zap.Int("requested", batchSize),
			zap.Int("max", s.maxBatchSize),
		)
		batchSize = s.maxBatchSize
	}

	fresh, err := s.unstarted(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("new items: %w", err)
	}
	if len(fresh) > batchSize {
		fresh = fresh[:batchSize]
	}
	return fresh, nil
}

// NewItemsCount returns how many items of the book the user has not started.
func (s *ReviewScheduler) NewItemsCount(ctx context.Context, userID, bookID string) (int, error) {
	if bookID == "" || userID == "" {
		return 0, fmt.Errorf("new items count: user and book are required: %w", ErrInvalidArgument)
	}
	fresh, err := s.unstarted(ctx, userID, bookID)
	if err != nil {
		return 0, fmt.Errorf("new items count: %w", err)
	}
	return len(fresh), nil
}

// BucketByProficiency partitions the book's items into the four display bands.
// Unlearned entries are synthesized records that were never stored.
func (s *ReviewScheduler) BucketByProficiency(ctx context.Context, userID, bookID string) (*Buckets, error) {
	if bookID == "" || userID == "" {
		return nil, fmt.Errorf("bucket by proficiency: user and book are required: %w", ErrInvalidArgument)
	}
	itemIDs, err := s.itemIDs(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("bucket by proficiency: %w", err)
	}
	records, err := s.store.ListByBook(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("bucket by proficiency: user %s book %s: %w", userID, bookID, err)
	}

	byItem := make(map[string]models.Progress, len(records))
	for _, p := range records {
		byItem[p.ItemID] = p
	}

	b := &Buckets{
		Unlearned:    []models.Progress{},
		NewlyLearned: []models.Progress{},
		Fuzzy:        []models.Progress{},
		Familiar:     []models.Progress{},
	}
	for _, id := range itemIDs {
		p, ok := byItem[id]
		if !ok {
			b.Unlearned = append(b.Unlearned, models.Progress{UserID: userID, ItemID: id})
			continue
		}
		switch spaced_repetition.BandOf(p.Proficiency) {
		case spaced_repetition.BandNewlyLearned:
			b.NewlyLearned = append(b.NewlyLearned, p)
		case spaced_repetition.BandFuzzy:
			b.Fuzzy = append(b.Fuzzy, p)
		default:
			b.Familiar = append(b.Familiar, p)
		}
	}
	return b, nil
}

// ProgressForBook returns the user's stored records for the book, in book order.
func (s *ReviewScheduler) ProgressForBook(ctx context.Context, userID, bookID string) ([]models.Progress, error) {
	if bookID == "" || userID == "" {
		return nil, fmt.Errorf("progress for book: user and book are required: %w", ErrInvalidArgument)
	}
	if err := s.checkScope(ctx, userID, bookID); err != nil {
		return nil, err
	}
	records, err := s.store.ListByBook(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("progress for book: user %s book %s: %w", userID, bookID, err)
	}
	return records, nil
}

// BookStats summarizes the user's progress in one book. TotalItems is the book size.
func (s *ReviewScheduler) BookStats(ctx context.Context, userID, bookID string) (*models.ProgressStats, error) {
	if bookID == "" || userID == "" {
		return nil, fmt.Errorf("book stats: user and book are required: %w", ErrInvalidArgument)
	}
	itemIDs, err := s.itemIDs(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("book stats: %w", err)
	}
	records, err := s.store.ListByBook(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("book stats: user %s book %s: %w", userID, bookID, err)
	}
	stats := summarize(records)
	stats.TotalItems = len(itemIDs)
	return stats, nil
}

// unstarted computes the book's item ids minus those the user has a record for.
// It loads every record of the book; keep an eye on it if books grow large.
func (s *ReviewScheduler) unstarted(ctx context.Context, userID, bookID string) ([]string, error) {
	itemIDs, err := s.itemIDs(ctx, bookID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListByBook(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("user %s book %s: %w", userID, bookID, err)
	}

	started := make(map[string]struct{}, len(records))
	for _, p := range records {
		started[p.ItemID] = struct{}{}
	}
	fresh := make([]string, 0, len(itemIDs))
	for _, id := range itemIDs {
		if _, ok := started[id]; !ok {
			fresh = append(fresh, id)
		}
	}
	return fresh, nil
}

func (s *ReviewScheduler) itemIDs(ctx context.Context, bookID string) ([]string, error) {
	ids, err := s.books.ItemIDs(ctx, bookID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("book %s: %w", bookID, ErrCollectionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("book %s: %w", bookID, err)
	}
	return ids, nil
}

// checkScope validates the user id and, when a book is given, that it exists.
func (s *ReviewScheduler) checkScope(ctx context.Context, userID, bookID string) error {
	if userID == "" {
		return fmt.Errorf("user id is empty: %w", ErrInvalidArgument)
	}
	if bookID == "" {
		return nil
	}
	ok, err := s.books.Exists(ctx, bookID)
	if err != nil {
		return fmt.Errorf("book %s: %w", bookID, err)
	}
	if !ok {
		return fmt.Errorf("book %s: %w", bookID, ErrCollectionNotFound)
	}
	return nil
}
