package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/wordtrail/internal/calendar"
	"github.com/example/wordtrail/internal/clockin"
)

type ClockInHandler struct {
	aggregator *clockin.Aggregator
}

func NewClockInHandler(aggregator *clockin.Aggregator) *ClockInHandler {
	return &ClockInHandler{aggregator: aggregator}
}

type goalRequest struct {
	DailyNewItemsGoal    *int `json:"daily_new_items_goal" binding:"required"`
	DailyReviewItemsGoal *int `json:"daily_review_items_goal" binding:"required"`
}

// POST /api/v1/clock-in/goal
func (h *ClockInHandler) SetGoal(c *gin.Context) {
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	goal, err := h.aggregator.SetGoal(c.Request.Context(), currentUser(c), *req.DailyNewItemsGoal, *req.DailyReviewItemsGoal)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, goal)
}

// GET /api/v1/clock-in/goal
func (h *ClockInHandler) GetGoal(c *gin.Context) {
	goal, err := h.aggregator.GetGoal(c.Request.Context(), currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, goal)
}

// GET /api/v1/clock-in/today
func (h *ClockInHandler) Today(c *gin.Context) {
	rec, err := h.aggregator.Refresh(c.Request.Context(), currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, rec)
}

// POST /api/v1/clock-in/try
func (h *ClockInHandler) Try(c *gin.Context) {
	rec, ok, err := h.aggregator.TryClockIn(c.Request.Context(), currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	message := "daily goals not reached yet"
	if ok {
		message = "clock-in successful"
	}
	RespondOK(c, gin.H{"success": ok, "message": message, "clock_in": rec})
}

// GET /api/v1/clock-in/stats
func (h *ClockInHandler) Stats(c *gin.Context) {
	stats, err := h.aggregator.Stats(c.Request.Context(), currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, stats)
}

// GET /api/v1/clock-in/weekly
func (h *ClockInHandler) Weekly(c *gin.Context) {
	history, err := h.aggregator.WeeklyHistory(c.Request.Context(), currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, history)
}

// GET /api/v1/clock-in/day/:date
func (h *ClockInHandler) Day(c *gin.Context) {
	day, err := calendar.ParseDate(c.Param("date"), h.aggregator.Location())
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_date", err)
		return
	}
	rec, err := h.aggregator.RefreshForDate(c.Request.Context(), currentUser(c), day)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if rec == nil {
		RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	RespondOK(c, rec)
}
