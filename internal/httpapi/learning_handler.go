package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/wordtrail/internal/learning"
	"github.com/example/wordtrail/internal/spaced_repetition"
)

type LearningHandler struct {
	tracker   *learning.Tracker
	scheduler *learning.ReviewScheduler
}

func NewLearningHandler(tracker *learning.Tracker, scheduler *learning.ReviewScheduler) *LearningHandler {
	return &LearningHandler{tracker: tracker, scheduler: scheduler}
}

type startRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

type reviewRequest struct {
	ItemID     string `json:"item_id" binding:"required"`
	Remembered *bool  `json:"remembered" binding:"required"`
}

type batchRequest struct {
	ItemIDs []string `json:"item_ids" binding:"required"`
}

// POST /api/v1/learning/start
func (h *LearningHandler) StartLearning(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.tracker.StartLearning(c.Request.Context(), currentUser(c), req.ItemID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, p)
}

// POST /api/v1/learning/review
func (h *LearningHandler) RecordReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.tracker.RecordReview(c.Request.Context(), currentUser(c), req.ItemID, *req.Remembered)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, p)
}

// GET /api/v1/learning/today-review?book_id=
func (h *LearningHandler) TodayReview(c *gin.Context) {
	records, err := h.scheduler.DueToday(c.Request.Context(), currentUser(c), c.Query("book_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, records)
}

// GET /api/v1/learning/overdue-count?book_id=
func (h *LearningHandler) OverdueCount(c *gin.Context) {
	n, err := h.scheduler.OverdueCount(c.Request.Context(), currentUser(c), c.Query("book_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"count": n})
}

// GET /api/v1/learning/stats
func (h *LearningHandler) UserStats(c *gin.Context) {
	stats, err := h.tracker.UserStats(c.Request.Context(), currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, stats)
}

// GET /api/v1/learning/progress/:itemId
func (h *LearningHandler) GetProgress(c *gin.Context) {
	p, err := h.tracker.GetProgress(c.Request.Context(), currentUser(c), c.Param("itemId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, p)
}

// POST /api/v1/learning/progress/batch
func (h *LearningHandler) GetProgressBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	records, err := h.tracker.GetProgressForItems(c.Request.Context(), currentUser(c), req.ItemIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, records)
}

// GET /api/v1/learning/book/:bookId/stats
func (h *LearningHandler) BookStats(c *gin.Context) {
	stats, err := h.scheduler.BookStats(c.Request.Context(), currentUser(c), c.Param("bookId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, stats)
}

// GET /api/v1/learning/book/:bookId/review
func (h *LearningHandler) BookReview(c *gin.Context) {
	records, err := h.scheduler.DueToday(c.Request.Context(), currentUser(c), c.Param("bookId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, records)
}

// GET /api/v1/learning/book/:bookId/progress
func (h *LearningHandler) BookProgress(c *gin.Context) {
	records, err := h.scheduler.ProgressForBook(c.Request.Context(), currentUser(c), c.Param("bookId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, records)
}

// GET /api/v1/learning/book/:bookId/new-words?batch_size=
func (h *LearningHandler) NewItems(c *gin.Context) {
	batch, err := strconv.Atoi(c.DefaultQuery("batch_size", "10"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ids, err := h.scheduler.NewItems(c.Request.Context(), currentUser(c), c.Param("bookId"), batch)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, ids)
}

// GET /api/v1/learning/book/:bookId/new-words-count
func (h *LearningHandler) NewItemsCount(c *gin.Context) {
	n, err := h.scheduler.NewItemsCount(c.Request.Context(), currentUser(c), c.Param("bookId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"count": n})
}

// GET /api/v1/learning/book/:bookId/today-review-count
func (h *LearningHandler) BookReviewCount(c *gin.Context) {
	n, err := h.scheduler.DueTodayCount(c.Request.Context(), currentUser(c), c.Param("bookId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"count": n})
}

// GET /api/v1/learning/book/:bookId/buckets
func (h *LearningHandler) Buckets(c *gin.Context) {
	b, err := h.scheduler.BucketByProficiency(c.Request.Context(), currentUser(c), c.Param("bookId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, b)
}

// GET /api/v1/learning/book/:bookId/band/:band
func (h *LearningHandler) Band(c *gin.Context) {
	band := spaced_repetition.Band(c.Param("band"))
	switch band {
	case spaced_repetition.BandUnlearned, spaced_repetition.BandNewlyLearned,
		spaced_repetition.BandFuzzy, spaced_repetition.BandFamiliar:
	default:
		RespondError(c, http.StatusBadRequest, "invalid_band", nil)
		return
	}
	b, err := h.scheduler.BucketByProficiency(c.Request.Context(), currentUser(c), c.Param("bookId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, b.Band(band))
}
