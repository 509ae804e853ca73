package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/example/wordtrail/pkg/models"
)

// BookStore receives imported books.
type BookStore interface {
	List(ctx context.Context) ([]models.Book, error)
	Create(ctx context.Context, book *models.Book) error
	AddItems(ctx context.Context, bookID string, itemIDs []string) (int, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath   string // Path to the Excel or CSV file
	ItemColumn string // Column with the item id
	BookColumn string // Column with the book name, optional
	BookName   string // Book used when the row has none
	OwnerID    string // Owner of created books, empty for system books
	SheetName  string // Name of the sheet to import
	StartRow   int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		ItemColumn: "A",
		BookColumn: "B",
		SheetName:  "Sheet1",
		StartRow:   2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	BooksCreated   int
	ItemsAdded     int
	Skipped        int
	BookIDs        map[string]string // book name -> id
	Errors         []string
}

// Importer loads books from spreadsheets.
type Importer struct {
	books  BookStore
	logger *zap.Logger
}

// NewImporter creates an importer writing to books.
func NewImporter(books BookStore, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{books: books, logger: logger}
}

// bookRows collects item ids per book in first-seen order. Book names are case-insensitive.
type bookRows struct {
	order []string
	names map[string]string
	items map[string][]string
}

func (b *bookRows) add(book, item string) {
	if b.items == nil {
		b.items = make(map[string][]string)
		b.names = make(map[string]string)
	}
	key := strings.ToLower(book)
	if _, ok := b.items[key]; !ok {
		b.order = append(b.order, key)
		b.names[key] = book
	}
	b.items[key] = append(b.items[key], item)
}

// Import reads an Excel or CSV file and stores its items into books.
// Books are matched by name and owner; missing ones are created.
func (im *Importer) Import(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	result := &ImportResult{
		BookIDs: make(map[string]string),
		Errors:  make([]string, 0),
	}

	var (
		rows *bookRows
		err  error
	)
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config, result)
	} else {
		rows, err = readExcel(config, result)
	}
	if err != nil {
		return nil, err
	}

	existing, err := im.books.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing books: %w", err)
	}
	byName := make(map[string]string)
	for _, b := range existing {
		if b.OwnerID == config.OwnerID {
			byName[strings.ToLower(b.Name)] = b.ID
		}
	}

	for _, key := range rows.order {
		name, items := rows.names[key], rows.items[key]
		if id, ok := byName[key]; ok {
			added, err := im.books.AddItems(ctx, id, items)
			if err != nil {
				return result, fmt.Errorf("failed to add items to book %q: %w", name, err)
			}
			result.ItemsAdded += added
			result.Skipped += len(items) - added
			result.BookIDs[name] = id
			continue
		}

		book := &models.Book{Name: name, OwnerID: config.OwnerID, ItemIDs: items}
		if err := im.books.Create(ctx, book); err != nil {
			return result, fmt.Errorf("failed to create book %q: %w", name, err)
		}
		unique := countUnique(items)
		result.BooksCreated++
		result.ItemsAdded += unique
		result.Skipped += len(items) - unique
		result.BookIDs[name] = book.ID
	}

	im.logger.Info("import finished",
		zap.String("file", filepath.Base(config.FilePath)),
		zap.Int("rows", result.TotalProcessed),
		zap.Int("books_created", result.BooksCreated),
		zap.Int("items_added", result.ItemsAdded),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// readExcel collects rows from an Excel sheet
func readExcel(config ImportConfig, result *ImportResult) (*bookRows, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	collected := &bookRows{}
	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++

		item := cell(row, config.ItemColumn)
		book := cell(row, config.BookColumn)
		if book == "" {
			book = config.BookName
		}
		if err := validateRow(item, book); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		collected.add(book, item)
	}
	return collected, nil
}

// readCSV collects rows from a CSV file. A row holding only a first cell
// starts a new book section, e.g. "Verbs,,".
func readCSV(config ImportConfig, result *ImportResult) (*bookRows, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	collected := &bookRows{}
	currentBook := config.BookName
	rowNum := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++

		// Skip header rows
		if rowNum < config.StartRow {
			continue
		}

		if isSectionHeader(row) {
			currentBook = strings.Trim(strings.TrimSpace(row[0]), "\"")
			continue
		}
		result.TotalProcessed++

		item := cell(row, config.ItemColumn)
		book := cell(row, config.BookColumn)
		if book == "" {
			book = currentBook
		}
		if err := validateRow(item, book); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		collected.add(book, item)
	}
	return collected, nil
}

func isSectionHeader(row []string) bool {
	if len(row) < 2 || strings.TrimSpace(row[0]) == "" {
		return false
	}
	for _, v := range row[1:] {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func validateRow(item, book string) error {
	if item == "" {
		return fmt.Errorf("item cannot be empty")
	}
	if book == "" {
		return fmt.Errorf("no book for item %q", item)
	}
	return nil
}

// cell returns the cleaned value of a column, or "" when the column is unset or missing.
func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	idx := columnToIndex(column)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return cleanItem(row[idx])
}

// cleanItem drops trailing details in parentheses, "go (went, gone)" -> "go"
func cleanItem(v string) string {
	if i := strings.Index(v, "("); i > 0 {
		return strings.TrimSpace(v[:i])
	}
	return strings.TrimSpace(v)
}

// columnToIndex converts an Excel column name to a 0-based index
func columnToIndex(column string) int {
	n, err := excelize.ColumnNameToNumber(strings.ToUpper(column))
	if err != nil {
		return -1
	}
	return n - 1
}

func countUnique(items []string) int {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		seen[it] = struct{}{}
	}
	return len(seen)
}
