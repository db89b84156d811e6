package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cropadvisor/internal/model"
	"cropadvisor/internal/service"

	"github.com/gin-gonic/gin"
)

// AdviceHandler handles advice-generation HTTP requests
type AdviceHandler struct {
	adviceService *service.AdviceService
}

// NewAdviceHandler creates a new advice handler
func NewAdviceHandler(adviceService *service.AdviceService) *AdviceHandler {
	return &AdviceHandler{
		adviceService: adviceService,
	}
}

// Generate handles POST /api/v1/advice
func (h *AdviceHandler) Generate(c *gin.Context) {
	var req model.AdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	in, err := validateDetection(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.adviceService.Generate(c.Request.Context(), in)
	if err != nil {
		respondAdviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GenerateBatch handles POST /api/v1/advice/batch
func (h *AdviceHandler) GenerateBatch(c *gin.Context) {
	var req model.BatchAdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if len(req.Detections) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No detections provided"})
		return
	}

	inputs := make([]model.DetectionInput, len(req.Detections))
	for i := range req.Detections {
		in, err := validateDetection(&req.Detections[i])
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Detection %d: %v", i, err)})
			return
		}
		inputs[i] = in
	}

	results, err := h.adviceService.GenerateBatch(c.Request.Context(), inputs)
	if err != nil {
		respondAdviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.BatchAdviceResponse{
		Results: results,
		Count:   len(results),
	})
}

// validateDetection enforces the boundary invariants: crop and disease
// non-empty, confidence (when given) in [0,1]. Omitted fields get their
// defaults: severity "unknown", confidence 0.0.
func validateDetection(req *model.AdviceRequest) (model.DetectionInput, error) {
	in := model.DetectionInput{
		Crop:     strings.TrimSpace(req.Crop),
		Disease:  strings.TrimSpace(req.Disease),
		Severity: req.Severity,
	}

	if in.Crop == "" {
		return model.DetectionInput{}, errors.New("crop must not be empty")
	}
	if in.Disease == "" {
		return model.DetectionInput{}, errors.New("disease must not be empty")
	}

	if req.Confidence != nil {
		if *req.Confidence < 0 || *req.Confidence > 1 {
			return model.DetectionInput{}, fmt.Errorf("confidence must be between 0 and 1, got %v", *req.Confidence)
		}
		in.Confidence = *req.Confidence
	}

	in.ApplyDefaults()
	return in, nil
}

// respondAdviceError maps core failures onto HTTP statuses. Batch failures
// are mapped by their underlying cause.
func respondAdviceError(c *gin.Context, err error) {
	var batchErr *service.BatchError
	if errors.As(err, &batchErr) {
		status := adviceErrorStatus(batchErr.Err)
		c.JSON(status, gin.H{"error": batchErr.Error(), "failed_index": batchErr.Index})
		return
	}

	c.JSON(adviceErrorStatus(err), gin.H{"error": err.Error()})
}

func adviceErrorStatus(err error) int {
	var upstreamErr *service.UpstreamError
	if errors.As(err, &upstreamErr) {
		return http.StatusBadGateway
	}

	var parseErr *service.ParseError
	if errors.As(err, &parseErr) {
		return http.StatusInternalServerError
	}

	return http.StatusInternalServerError
}
