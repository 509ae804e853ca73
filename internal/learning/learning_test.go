package learning

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/example/wordtrail/internal/database"
	"github.com/example/wordtrail/internal/spaced_repetition"
	"github.com/example/wordtrail/pkg/models"
)

// fakeClock is a settable clock shared by the services under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type fixture struct {
	clock     *fakeClock
	tracker   *Tracker
	scheduler *ReviewScheduler
	books     *database.BookRepository
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	db, err := database.Open(context.Background(), database.Options{
		Type: database.TypeSQLite,
		Path: filepath.Join(t.TempDir(), "learning.db"),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clock := newFakeClock(now)
	progress := database.NewProgressRepository(db)
	books := database.NewBookRepository(db)
	return &fixture{
		clock:     clock,
		tracker:   NewTracker(progress, spaced_repetition.DefaultTable(), clock.Now, nil),
		scheduler: NewReviewScheduler(progress, books, time.UTC, clock.Now, nil),
		books:     books,
	}
}

func (f *fixture) createBook(t *testing.T, id string, items ...string) {
	t.Helper()
	if err := f.books.Create(context.Background(), &models.Book{ID: id, Name: id, ItemIDs: items}); err != nil {
		t.Fatalf("Create(%s) error = %v", id, err)
	}
}
