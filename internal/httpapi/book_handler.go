package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/wordtrail/internal/database"
	"github.com/example/wordtrail/pkg/models"
)

// BookStore is the book catalog used by the book routes.
type BookStore interface {
	Create(ctx context.Context, book *models.Book) error
	Get(ctx context.Context, bookID string) (*models.Book, error)
	List(ctx context.Context) ([]models.Book, error)
}

type BookHandler struct {
	books BookStore
}

func NewBookHandler(books BookStore) *BookHandler {
	return &BookHandler{books: books}
}

type createBookRequest struct {
	ID      string   `json:"id"`
	Name    string   `json:"name" binding:"required"`
	ItemIDs []string `json:"item_ids"`
	System  bool     `json:"system"`
}

// POST /api/v1/books
func (h *BookHandler) Create(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	book := &models.Book{ID: req.ID, Name: req.Name, ItemIDs: req.ItemIDs}
	if !req.System {
		book.OwnerID = currentUser(c)
	}
	if err := h.books.Create(c.Request.Context(), book); err != nil {
		if errors.Is(err, database.ErrConflict) {
			RespondError(c, http.StatusConflict, "book_exists", err)
			return
		}
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

// GET /api/v1/books
func (h *BookHandler) List(c *gin.Context) {
	books, err := h.books.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"books": books})
}

// GET /api/v1/books/:bookId
func (h *BookHandler) Get(c *gin.Context) {
	book, err := h.books.Get(c.Request.Context(), c.Param("bookId"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "collection_not_found", err)
			return
		}
		respondServiceError(c, err)
		return
	}
	RespondOK(c, book)
}
