package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nordiska/pricewatch-backend/internal/domain/reviews"
	"github.com/nordiska/pricewatch-backend/internal/http/response"
	"github.com/nordiska/pricewatch-backend/internal/platform/ctxutil"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
	"github.com/nordiska/pricewatch-backend/internal/services"
)

type ReviewHandler struct {
	log     *logger.Logger
	reviews services.ReviewService
}

func NewReviewHandler(log *logger.Logger, reviewSvc services.ReviewService) *ReviewHandler {
	return &ReviewHandler{log: log.With("handler", "ReviewHandler"), reviews: reviewSvc}
}

func (h *ReviewHandler) List(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	status := reviews.ReviewStatus(c.DefaultQuery("status", string(reviews.StatusPending)))
	switch status {
	case reviews.StatusPending, reviews.StatusApprovedMatch, reviews.StatusDeclinedMatch:
	default:
		response.Error(c, http.StatusBadRequest, "invalid_argument", errInvalidStatus(string(status)))
		return
	}

	items, err := h.reviews.List(c.Request.Context(), rd.TenantID, status,
		queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		response.FromErr(c, err)
		return
	}
	response.OK(c, gin.H{"reviews": items})
}

func (h *ReviewHandler) CountPending(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	n, err := h.reviews.CountPending(c.Request.Context(), rd.TenantID)
	if err != nil {
		response.FromErr(c, err)
		return
	}
	response.OK(c, gin.H{"pending": n})
}

func (h *ReviewHandler) Approve(c *gin.Context) {
	h.resolve(c, h.reviews.Approve)
}

func (h *ReviewHandler) Decline(c *gin.Context) {
	h.resolve(c, h.reviews.Decline)
}

func (h *ReviewHandler) ApproveAll(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var body struct {
		ReviewIDs []uuid.UUID `json:"review_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	outcomes, err := h.reviews.ApproveAll(c.Request.Context(), rd.TenantID, rd.TenantID, body.ReviewIDs)
	if err != nil {
		response.FromErr(c, err)
		return
	}
	approved := 0
	for _, o := range outcomes {
		if o.Approved {
			approved++
		}
	}
	response.OK(c, gin.H{"approved": approved, "results": outcomes})
}

func (h *ReviewHandler) resolve(c *gin.Context, fn func(ctx context.Context, userID, reviewID, reviewer uuid.UUID) (*services.ReviewResolution, error)) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	reviewID, err := uuidParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	res, err := fn(c.Request.Context(), rd.TenantID, reviewID, rd.TenantID)
	if err != nil {
		response.FromErr(c, err)
		return
	}
	response.OK(c, res)
}
