package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cropadvisor/internal/model"
	"cropadvisor/internal/service"

	"github.com/gin-gonic/gin"
)

// HistoryHandler handles detection-log HTTP requests
type HistoryHandler struct {
	adviceService *service.AdviceService
	defaultLimit  int
	maxLimit      int
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(adviceService *service.AdviceService, defaultLimit, maxLimit int) *HistoryHandler {
	return &HistoryHandler{
		adviceService: adviceService,
		defaultLimit:  defaultLimit,
		maxLimit:      maxLimit,
	}
}

// Recent handles GET /api/v1/detections
func (h *HistoryHandler) Recent(c *gin.Context) {
	limit := h.parseLimit(c)

	records, err := h.adviceService.RecentDetections(c.Request.Context(), limit)
	if err != nil {
		respondHistoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.HistoryResponse{
		Detections: records,
		Count:      len(records),
	})
}

// Similar handles GET /api/v1/detections/similar
func (h *HistoryHandler) Similar(c *gin.Context) {
	crop := strings.TrimSpace(c.Query("crop"))
	disease := strings.TrimSpace(c.Query("disease"))
	if crop == "" || disease == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "crop and disease query parameters are required"})
		return
	}

	limit := h.parseLimit(c)

	records, err := h.adviceService.SimilarDetections(c.Request.Context(), crop, disease, limit)
	if err != nil {
		respondHistoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.HistoryResponse{
		Detections: records,
		Count:      len(records),
	})
}

// parseLimit reads the optional limit query parameter, capped to the
// configured maximum
func (h *HistoryHandler) parseLimit(c *gin.Context) int {
	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}
	return limit
}

func respondHistoryError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrHistoryUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	var upstreamErr *service.UpstreamError
	if errors.As(err, &upstreamErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
