package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
	"github.com/nordiska/pricewatch-backend/internal/http/response"
	"github.com/nordiska/pricewatch-backend/internal/platform/ctxutil"
	"github.com/nordiska/pricewatch-backend/internal/platform/envutil"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
	"github.com/nordiska/pricewatch-backend/internal/services"
)

type IngestHandler struct {
	log      *logger.Logger
	pipeline services.PipelineService
}

func NewIngestHandler(log *logger.Logger, pipeline services.PipelineService) *IngestHandler {
	return &IngestHandler{log: log.With("handler", "IngestHandler"), pipeline: pipeline}
}

type ingestRequest struct {
	Observations []services.RawObservation `json:"observations"`
}

// Ingest accepts a batch of observations for one source kind and runs the
// pipeline over them synchronously.
func (h *IngestHandler) Ingest(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	kind := staging.SourceKind(c.Param("kind"))
	if !kind.Valid() {
		response.Error(c, http.StatusBadRequest, "invalid_argument", errInvalidKind(c.Param("kind")))
		return
	}

	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	if len(req.Observations) == 0 {
		response.OK(c, &services.BatchResult{})
		return
	}

	result, err := h.pipeline.Ingest(c.Request.Context(), rd.TenantID, kind, req.Observations)
	if err != nil {
		response.FromErr(c, err)
		return
	}
	response.OK(c, result)
}

// Process runs the pipeline over staged rows for one source kind.
// With a staged_ids body it targets exactly those rows; without one it
// drains pending rows up to the limit. Producers that stage rows out of
// band call this to run the pipeline over them.
func (h *IngestHandler) Process(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	kind := staging.SourceKind(c.Param("kind"))
	if !kind.Valid() {
		response.Error(c, http.StatusBadRequest, "invalid_argument", errInvalidKind(c.Param("kind")))
		return
	}

	var body struct {
		StagedIDs []uuid.UUID `json:"staged_ids"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Error(c, http.StatusBadRequest, "invalid_argument", err)
			return
		}
	}

	var result *services.BatchResult
	var err error
	if len(body.StagedIDs) > 0 {
		result, err = h.pipeline.ProcessBatch(c.Request.Context(), rd.TenantID, kind, body.StagedIDs)
	} else {
		limit := queryInt(c, "limit", envutil.Int("PIPELINE_BATCH_LIMIT", 500))
		result, err = h.pipeline.ProcessPending(c.Request.Context(), rd.TenantID, kind, limit)
	}
	if err != nil {
		response.FromErr(c, err)
		return
	}
	response.OK(c, result)
}
