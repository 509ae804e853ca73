package excel

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/example/wordtrail/internal/database"
)

func newStore(t *testing.T) *database.BookRepository {
	t.Helper()
	db, err := database.Open(context.Background(), database.Options{
		Type: database.TypeSQLite,
		Path: filepath.Join(t.TempDir(), "import.db"),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return database.NewBookRepository(db)
}

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName() error = %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cellName, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "books.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	return path
}

func TestImportExcel(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	path := writeWorkbook(t, [][]interface{}{
		{"item", "book"},
		{"apple", "Fruit"},
		{"go (went, gone)", "Verbs"},
		{"pear", "Fruit"},
		{"", "Fruit"},
		{"apple", "Fruit"},
		{"run", ""},
	})

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	cfg.BookName = "Misc"

	res, err := NewImporter(store, nil).Import(ctx, cfg)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.TotalProcessed != 6 || res.BooksCreated != 3 || res.ItemsAdded != 4 || res.Skipped != 1 {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v", res.Errors)
	}

	fruit, err := store.ItemIDs(ctx, res.BookIDs["Fruit"])
	if err != nil {
		t.Fatalf("ItemIDs() error = %v", err)
	}
	if !reflect.DeepEqual(fruit, []string{"apple", "pear"}) {
		t.Fatalf("Fruit = %v", fruit)
	}
	verbs, err := store.ItemIDs(ctx, res.BookIDs["Verbs"])
	if err != nil || !reflect.DeepEqual(verbs, []string{"go"}) {
		t.Fatalf("Verbs = %v, %v", verbs, err)
	}

	// A second import appends to the existing books.
	path = writeWorkbook(t, [][]interface{}{
		{"item", "book"},
		{"pear", "fruit"},
		{"plum", "Fruit"},
	})
	cfg.FilePath = path
	res2, err := NewImporter(store, nil).Import(ctx, cfg)
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if res2.BooksCreated != 0 || res2.ItemsAdded != 1 || res2.Skipped != 1 {
		t.Fatalf("second result = %+v", res2)
	}
	fruit, _ = store.ItemIDs(ctx, res.BookIDs["Fruit"])
	if !reflect.DeepEqual(fruit, []string{"apple", "pear", "plum"}) {
		t.Fatalf("Fruit after append = %v", fruit)
	}
}

func TestImportCSVSections(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	path := filepath.Join(t.TempDir(), "words.csv")
	body := "word,note\nMotion,,\nwalk,x\nrun,y\nFood,,\nbread,z\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	cfg := ImportConfig{FilePath: path, ItemColumn: "A", StartRow: 2}
	res, err := NewImporter(store, nil).Import(ctx, cfg)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.TotalProcessed != 3 || res.BooksCreated != 2 || len(res.Errors) != 0 {
		t.Fatalf("result = %+v", res)
	}
	motion, err := store.ItemIDs(ctx, res.BookIDs["Motion"])
	if err != nil || !reflect.DeepEqual(motion, []string{"walk", "run"}) {
		t.Fatalf("Motion = %v, %v", motion, err)
	}
}

func TestColumnToIndex(t *testing.T) {
	for col, want := range map[string]int{"A": 0, "b": 1, "Z": 25, "AA": 26, "": -1} {
		if got := columnToIndex(col); got != want {
			t.Errorf("columnToIndex(%q) = %d, want %d", col, got, want)
		}
	}
}
