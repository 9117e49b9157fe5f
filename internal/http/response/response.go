package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nordiska/pricewatch-backend/internal/pkg/apperrs"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func Error(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// FromErr maps service errors onto HTTP statuses.
func FromErr(c *gin.Context, err error) {
	var conflict *apperrs.ConflictPendingReview
	switch {
	case errors.Is(err, apperrs.ErrNotFound):
		Error(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, apperrs.ErrInvalidArgument):
		Error(c, http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, apperrs.ErrReviewNotPending):
		Error(c, http.StatusConflict, "review_not_pending", err)
	case errors.As(err, &conflict):
		Error(c, http.StatusConflict, "pending_review", err)
	default:
		Error(c, http.StatusInternalServerError, "internal", err)
	}
}

func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func Created(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
