// Package httpapi exposes the learning engine over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/wordtrail/internal/clockin"
	"github.com/example/wordtrail/internal/learning"
)

// UserHeader carries the caller's user id. Authentication happens in front of this service.
const UserHeader = "X-User-ID"

// Services bundles what the handlers call into.
type Services struct {
	Tracker    *learning.Tracker
	Scheduler  *learning.ReviewScheduler
	Aggregator *clockin.Aggregator
	Books      BookStore
}

// NewRouter builds the gin engine with all routes.
func NewRouter(svc Services, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	api := r.Group("/api/v1")
	api.Use(requireUser())

	lh := NewLearningHandler(svc.Tracker, svc.Scheduler)
	learningGroup := api.Group("/learning")
	{
		learningGroup.POST("/start", lh.StartLearning)
		learningGroup.POST("/review", lh.RecordReview)
		learningGroup.GET("/today-review", lh.TodayReview)
		learningGroup.GET("/overdue-count", lh.OverdueCount)
		learningGroup.GET("/stats", lh.UserStats)
		learningGroup.GET("/progress/:itemId", lh.GetProgress)
		learningGroup.POST("/progress/batch", lh.GetProgressBatch)
		learningGroup.GET("/book/:bookId/stats", lh.BookStats)
		learningGroup.GET("/book/:bookId/review", lh.BookReview)
		learningGroup.GET("/book/:bookId/progress", lh.BookProgress)
		learningGroup.GET("/book/:bookId/new-words", lh.NewItems)
		learningGroup.GET("/book/:bookId/new-words-count", lh.NewItemsCount)
		learningGroup.GET("/book/:bookId/today-review-count", lh.BookReviewCount)
		learningGroup.GET("/book/:bookId/buckets", lh.Buckets)
		learningGroup.GET("/book/:bookId/band/:band", lh.Band)
	}

	ch := NewClockInHandler(svc.Aggregator)
	clockInGroup := api.Group("/clock-in")
	{
		clockInGroup.POST("/goal", ch.SetGoal)
		clockInGroup.GET("/goal", ch.GetGoal)
		clockInGroup.GET("/today", ch.Today)
		clockInGroup.POST("/try", ch.Try)
		clockInGroup.GET("/stats", ch.Stats)
		clockInGroup.GET("/weekly", ch.Weekly)
		clockInGroup.GET("/day/:date", ch.Day)
	}

	bh := NewBookHandler(svc.Books)
	booksGroup := api.Group("/books")
	{
		booksGroup.POST("", bh.Create)
		booksGroup.GET("", bh.List)
		booksGroup.GET("/:bookId", bh.Get)
	}

	return r
}

func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserHeader)
		if userID == "" {
			RespondError(c, http.StatusUnauthorized, "missing_user", nil)
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString("user_id")
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			logger.Error("request failed", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		logger.Debug("request", fields...)
	}
}
