package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/wordtrail/internal/clockin"
	"github.com/example/wordtrail/internal/database"
	"github.com/example/wordtrail/internal/learning"
	"github.com/example/wordtrail/internal/spaced_repetition"
	"github.com/example/wordtrail/pkg/models"
)

func newTestRouter(t *testing.T, now time.Time) (*gin.Engine, *database.BookRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(context.Background(), database.Options{
		Type: database.TypeSQLite,
		Path: filepath.Join(t.TempDir(), "api.db"),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clock := func() time.Time { return now }
	progress := database.NewProgressRepository(db)
	books := database.NewBookRepository(db)
	svc := Services{
		Tracker:   learning.NewTracker(progress, spaced_repetition.DefaultTable(), clock, nil),
		Scheduler: learning.NewReviewScheduler(progress, books, time.UTC, clock, nil),
		Aggregator: clockin.NewAggregator(
			database.NewClockInRepository(db),
			database.NewGoalRepository(db),
			progress,
			time.UTC, clock, nil,
		),
		Books: books,
	}
	return NewRouter(svc, nil), books
}

func doJSON(t *testing.T, r *gin.Engine, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestMissingUserHeader(t *testing.T) {
	r, _ := newTestRouter(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))

	w := doJSON(t, r, http.MethodGet, "/api/v1/learning/stats", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestStartAndReview(t *testing.T) {
	r, _ := newTestRouter(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))

	w := doJSON(t, r, http.MethodPost, "/api/v1/learning/start", "u1", gin.H{"item_id": "apple"})
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/learning/review", "u1", gin.H{"item_id": "apple", "remembered": true})
	if w.Code != http.StatusOK {
		t.Fatalf("review status = %d body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/learning/progress/apple", "u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("progress status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/learning/stats", "u1", nil)
	stats := decode[models.ProgressStats](t, w)
	if stats.LearnedItems != 1 {
		t.Errorf("LearnedItems = %d, want 1", stats.LearnedItems)
	}
}

func TestErrorMapping(t *testing.T) {
	r, _ := newTestRouter(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
		code   string
	}{
		{"review unknown item", http.MethodPost, "/api/v1/learning/review", gin.H{"item_id": "ghost", "remembered": false}, http.StatusNotFound, "not_found"},
		{"progress unknown item", http.MethodGet, "/api/v1/learning/progress/ghost", nil, http.StatusNotFound, "not_found"},
		{"unknown book", http.MethodGet, "/api/v1/learning/book/nope/stats", nil, http.StatusNotFound, "collection_not_found"},
		{"review missing flag", http.MethodPost, "/api/v1/learning/review", gin.H{"item_id": "x"}, http.StatusBadRequest, "invalid_request"},
		{"negative goal", http.MethodPost, "/api/v1/clock-in/goal", gin.H{"daily_new_items_goal": -1, "daily_review_items_goal": 5}, http.StatusBadRequest, "invalid_argument"},
		{"bad band", http.MethodGet, "/api/v1/learning/book/b/band/mystery", nil, http.StatusBadRequest, "invalid_band"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, tt.method, tt.path, "u1", tt.body)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
			env := decode[ErrorEnvelope](t, w)
			if env.Error.Code != tt.code {
				t.Errorf("code = %q, want %q", env.Error.Code, tt.code)
			}
		})
	}
}

func TestBookRoutes(t *testing.T) {
	r, books := newTestRouter(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))

	w := doJSON(t, r, http.MethodPost, "/api/v1/books", "u1", gin.H{"id": "b1", "name": "Basics", "item_ids": []string{"a", "b", "c"}})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodPost, "/api/v1/books", "u1", gin.H{"id": "b1", "name": "Again"})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", w.Code)
	}
	if _, err := books.Get(context.Background(), "b1"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	doJSON(t, r, http.MethodPost, "/api/v1/learning/start", "u1", gin.H{"item_id": "a"})

	w = doJSON(t, r, http.MethodGet, "/api/v1/learning/book/b1/new-words?batch_size=5", "u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("new-words status = %d", w.Code)
	}
	ids := decode[[]string](t, w)
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "c" {
		t.Errorf("new words = %v, want [b c]", ids)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/learning/book/b1/new-words-count", "u1", nil)
	count := decode[map[string]int](t, w)
	if count["count"] != 2 {
		t.Errorf("new-words-count = %d, want 2", count["count"])
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/learning/book/b1/band/newly_learned", "u1", nil)
	band := decode[[]models.Progress](t, w)
	if len(band) != 1 || band[0].ItemID != "a" {
		t.Errorf("newly_learned band = %+v", band)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/books/missing", "u1", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing book status = %d, want 404", w.Code)
	}
}

func TestClockInRoutes(t *testing.T) {
	r, _ := newTestRouter(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))

	w := doJSON(t, r, http.MethodGet, "/api/v1/clock-in/goal", "u1", nil)
	goal := decode[models.LearningGoal](t, w)
	if goal.DailyNewItemsGoal != models.DefaultDailyNewItemsGoal || goal.DailyReviewItemsGoal != models.DefaultDailyReviewItemsGoal {
		t.Fatalf("default goal = %+v", goal)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/clock-in/goal", "u1", gin.H{"daily_new_items_goal": 1, "daily_review_items_goal": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("set goal status = %d body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/clock-in/try", "u1", nil)
	try := decode[map[string]any](t, w)
	if try["success"] != false {
		t.Fatalf("try before learning = %v, want false", try)
	}

	doJSON(t, r, http.MethodPost, "/api/v1/learning/start", "u1", gin.H{"item_id": "apple"})

	w = doJSON(t, r, http.MethodGet, "/api/v1/clock-in/today", "u1", nil)
	today := decode[models.ClockIn](t, w)
	if today.NewItemsCompleted != 1 {
		t.Errorf("NewItemsCompleted = %d, want 1", today.NewItemsCompleted)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/clock-in/weekly", "u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("weekly status = %d", w.Code)
	}
	week := decode[[]clockin.DaySummary](t, w)
	if len(week) != clockin.HistoryDays {
		t.Errorf("weekly len = %d, want %d", len(week), clockin.HistoryDays)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/clock-in/stats", "u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/clock-in/day/2025-03-10", "u1", nil)
	if day := decode[models.ClockIn](t, w); w.Code != http.StatusOK || day.Date != "2025-03-10" {
		t.Errorf("day status = %d, record = %+v", w.Code, day)
	}
	w = doJSON(t, r, http.MethodGet, "/api/v1/clock-in/day/2025-03-01", "u1", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("day without record status = %d, want 404", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/api/v1/clock-in/day/10.03.2025", "u1", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", w.Code)
	}
}
