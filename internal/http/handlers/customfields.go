package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nordiska/pricewatch-backend/internal/http/response"
	"github.com/nordiska/pricewatch-backend/internal/platform/ctxutil"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
	"github.com/nordiska/pricewatch-backend/internal/services"
)

type CustomFieldHandler struct {
	log    *logger.Logger
	fields services.CustomFieldService
}

func NewCustomFieldHandler(log *logger.Logger, fields services.CustomFieldService) *CustomFieldHandler {
	return &CustomFieldHandler{log: log.With("handler", "CustomFieldHandler"), fields: fields}
}

func (h *CustomFieldHandler) ListDefinitions(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	defs, err := h.fields.ListDefinitions(c.Request.Context(), rd.TenantID)
	if err != nil {
		response.FromErr(c, err)
		return
	}
	response.OK(c, gin.H{"custom_fields": defs})
}

func (h *CustomFieldHandler) ListProductValues(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	productID, err := uuidParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	values, err := h.fields.ListValues(c.Request.Context(), productID)
	if err != nil {
		response.FromErr(c, err)
		return
	}
	response.OK(c, gin.H{"values": values})
}
