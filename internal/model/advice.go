package model

import (
	"strings"
	"time"
)

// DetectionInput is a single crop-disease detection record produced by the
// upstream detection process. Crop and disease are guaranteed non-empty and
// confidence lies in [0,1] once the HTTP boundary has validated the request.
type DetectionInput struct {
	Crop       string  `json:"crop"`
	Disease    string  `json:"disease"`
	Severity   string  `json:"severity"`
	Confidence float64 `json:"confidence"`
}

// ApplyDefaults fills the optional fields the caller may omit
func (d *DetectionInput) ApplyDefaults() {
	d.Crop = strings.TrimSpace(d.Crop)
	d.Disease = strings.TrimSpace(d.Disease)
	if strings.TrimSpace(d.Severity) == "" {
		d.Severity = "unknown"
	}
}

// AdviceFields holds the six remediation sections extracted from the model
// reply. Every field is always populated: extracted text or its fallback.
type AdviceFields struct {
	Cause      string `json:"cause"`
	Symptoms   string `json:"symptoms"`
	Immediate  string `json:"immediate"`
	Chemical   string `json:"chemical"`
	Organic    string `json:"organic"`
	Prevention string `json:"prevention"`
}

// AdviceMetadata echoes the detection record alongside generation details
type AdviceMetadata struct {
	Crop        string    `json:"crop"`
	Disease     string    `json:"disease"`
	Severity    string    `json:"severity"`
	Confidence  float64   `json:"confidence"`
	GeneratedAt time.Time `json:"generated_at"`
	Model       string    `json:"model"`
}

// AdviceResult is the advice payload returned to the caller. It is built
// fresh per request and never stored.
type AdviceResult struct {
	AdviceFields
	Metadata AdviceMetadata `json:"metadata"`
}

// AdviceRequest represents a single advice request at the HTTP boundary
type AdviceRequest struct {
	Crop       string   `json:"crop" binding:"required"`
	Disease    string   `json:"disease" binding:"required"`
	Severity   string   `json:"severity,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// BatchAdviceRequest represents a batch advice request
type BatchAdviceRequest struct {
	Detections []AdviceRequest `json:"detections" binding:"required"`
}

// BatchAdviceResponse wraps the ordered batch results
type BatchAdviceResponse struct {
	Results []*AdviceResult `json:"results"`
	Count   int             `json:"count"`
}

// DetectionRecord is a detection-log row. It records what was detected and
// how generation went, never the advice text itself.
type DetectionRecord struct {
	ID             int64     `db:"id" json:"id"`
	Crop           string    `db:"crop" json:"crop"`
	Disease        string    `db:"disease" json:"disease"`
	Severity       string    `db:"severity" json:"severity"`
	Confidence     float64   `db:"confidence" json:"confidence"`
	Model          string    `db:"model" json:"model"`
	ResponseTimeMs int64     `db:"response_time_ms" json:"response_time_ms"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Summary renders the record as the short text used for embeddings
func (r *DetectionRecord) Summary() string {
	return r.Crop + " " + r.Disease + " " + r.Severity
}

// HistoryResponse wraps a detection-log listing
type HistoryResponse struct {
	Detections []DetectionRecord `json:"detections"`
	Count      int               `json:"count"`
}
