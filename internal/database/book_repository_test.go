package database

import (
	"context"
	"errors"
	"testing"

	"github.com/example/wordtrail/pkg/models"
)

func TestBookCreateAndItems(t *testing.T) {
	ctx := context.Background()
	repo := NewBookRepository(openTestDB(t))

	book := &models.Book{Name: "CET-4", ItemIDs: []string{"w3", "w1", "w2", "w1"}}
	if err := repo.Create(ctx, book); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if book.ID == "" {
		t.Fatal("Create() did not assign an id")
	}

	ids, err := repo.ItemIDs(ctx, book.ID)
	if err != nil {
		t.Fatalf("ItemIDs() error = %v", err)
	}
	if !equalStrings(ids, []string{"w3", "w1", "w2"}) {
		t.Fatalf("ItemIDs() = %v", ids)
	}

	added, err := repo.AddItems(ctx, book.ID, []string{"w2", "w4"})
	if err != nil {
		t.Fatalf("AddItems() error = %v", err)
	}
	if added != 1 {
		t.Fatalf("AddItems() = %d, want 1", added)
	}

	got, err := repo.Get(ctx, book.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "CET-4" || !equalStrings(got.ItemIDs, []string{"w3", "w1", "w2", "w4"}) {
		t.Fatalf("Get() = %+v", got)
	}

	if err := repo.Create(ctx, &models.Book{ID: book.ID, Name: "again"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate Create() error = %v, want ErrConflict", err)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List() = %v, %v", list, err)
	}
}

func TestBookUnknown(t *testing.T) {
	ctx := context.Background()
	repo := NewBookRepository(openTestDB(t))

	ok, err := repo.Exists(ctx, "nope")
	if err != nil || ok {
		t.Fatalf("Exists() = %v, %v", ok, err)
	}
	if _, err := repo.ItemIDs(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ItemIDs() error = %v, want ErrNotFound", err)
	}
	if _, err := repo.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
	if _, err := repo.AddItems(ctx, "nope", []string{"x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("AddItems() error = %v, want ErrNotFound", err)
	}
}

func TestUserRemindable(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	for _, u := range []*models.User{
		{ID: "a", ChatID: 100, RemindersEnabled: true, CreatedAt: base},
		{ID: "b", ChatID: 200, RemindersEnabled: true, CreatedAt: base},
		{ID: "c", ChatID: 0, RemindersEnabled: true, CreatedAt: base},
	} {
		if err := repo.Upsert(ctx, u); err != nil {
			t.Fatalf("Upsert(%s) error = %v", u.ID, err)
		}
	}
	if err := repo.SetReminders(ctx, "b", false); err != nil {
		t.Fatalf("SetReminders() error = %v", err)
	}
	if err := repo.SetReminders(ctx, "zz", false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SetReminders(missing) error = %v, want ErrNotFound", err)
	}

	users, err := repo.ListRemindable(ctx)
	if err != nil {
		t.Fatalf("ListRemindable() error = %v", err)
	}
	if len(users) != 1 || users[0].ID != "a" {
		t.Fatalf("ListRemindable() = %+v", users)
	}

	got, err := repo.GetByID(ctx, "b")
	if err != nil || got.ChatID != 200 || got.RemindersEnabled {
		t.Fatalf("GetByID() = %+v, %v", got, err)
	}
}
