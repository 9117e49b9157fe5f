package handlers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nordiska/pricewatch-backend/internal/http/response"
	"github.com/nordiska/pricewatch-backend/internal/platform/ctxutil"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
	"github.com/nordiska/pricewatch-backend/internal/services"
)

type CSVUploadHandler struct {
	log     *logger.Logger
	imports services.CSVImportService
}

func NewCSVUploadHandler(log *logger.Logger, imports services.CSVImportService) *CSVUploadHandler {
	return &CSVUploadHandler{log: log.With("handler", "CSVUploadHandler"), imports: imports}
}

// UploadCompetitorPrices takes a multipart "file" plus optional
// "delimiter" and "encoding" form fields and feeds the rows through the
// pipeline against the competitor in the path.
func (h *CSVUploadHandler) UploadCompetitorPrices(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	competitorID, err := uuidParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	file, opts, err := openUpload(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	defer file.Close()

	result, err := h.imports.ImportCompetitorPrices(c.Request.Context(), rd.TenantID, competitorID, file, opts)
	if err != nil {
		response.FromErr(c, err)
		return
	}
	response.OK(c, result)
}

// UploadCatalog imports the tenant's own product list and retail prices.
func (h *CSVUploadHandler) UploadCatalog(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	file, opts, err := openUpload(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	defer file.Close()

	result, err := h.imports.ImportCatalog(c.Request.Context(), rd.TenantID, file, opts)
	if err != nil {
		response.FromErr(c, err)
		return
	}
	response.OK(c, result)
}

func openUpload(c *gin.Context) (multipart.File, services.CSVOptions, error) {
	var opts services.CSVOptions
	header, err := c.FormFile("file")
	if err != nil {
		return nil, opts, err
	}
	if d := strings.TrimSpace(c.PostForm("delimiter")); d != "" {
		opts.Delimiter = rune(d[0])
	}
	opts.Encoding = c.PostForm("encoding")

	file, err := header.Open()
	if err != nil {
		return nil, opts, err
	}
	return file, opts, nil
}
