package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nordiska/pricewatch-backend/internal/http/response"
	"github.com/nordiska/pricewatch-backend/internal/platform/ctxutil"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
	"github.com/nordiska/pricewatch-backend/internal/services"
)

type ProductHandler struct {
	log      *logger.Logger
	products services.ProductService
}

func NewProductHandler(log *logger.Logger, products services.ProductService) *ProductHandler {
	return &ProductHandler{log: log.With("handler", "ProductHandler"), products: products}
}

func (h *ProductHandler) List(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	items, total, err := h.products.List(c.Request.Context(), rd.TenantID,
		queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		response.FromErr(c, err)
		return
	}
	response.OK(c, gin.H{"products": items, "total": total})
}

func (h *ProductHandler) Get(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	product, err := h.products.Get(c.Request.Context(), rd.TenantID, id)
	if err != nil {
		response.FromErr(c, err)
		return
	}
	response.OK(c, product)
}

func (h *ProductHandler) PriceHistory(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	history, err := h.products.PriceHistory(c.Request.Context(), rd.TenantID, id, queryInt(c, "limit", 100))
	if err != nil {
		response.FromErr(c, err)
		return
	}
	response.OK(c, gin.H{"price_changes": history})
}

func (h *ProductHandler) Delete(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	if err := h.products.Delete(c.Request.Context(), rd.TenantID, []uuid.UUID{id}); err != nil {
		response.FromErr(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": 1})
}

func (h *ProductHandler) DeleteAll(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	n, err := h.products.DeleteAll(c.Request.Context(), rd.TenantID)
	if err != nil {
		response.FromErr(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": n})
}
