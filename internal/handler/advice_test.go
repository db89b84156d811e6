package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cropadvisor/internal/service"

	"github.com/gin-gonic/gin"
)

// stubAIClient backs the advice service in handler tests
type stubAIClient struct {
	reply string
	err   error
}

func (s *stubAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return s.reply, s.err
}

func (s *stubAIClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("embeddings not supported in stub")
}

func (s *stubAIClient) Model() string { return "stub-model" }

func (s *stubAIClient) IsEnabled() bool { return true }

const stubReply = `CAUSE: Fungal spores.
SYMPTOMS: Brown spots.
IMMEDIATE: Remove affected leaves.
CHEMICAL: Copper fungicide.
ORGANIC: Neem oil.
PREVENTION: Rotate crops.`

func newTestRouter(ai service.AIClient) *gin.Engine {
	gin.SetMode(gin.TestMode)

	adviceService := service.NewAdviceService(ai, nil)
	adviceHandler := NewAdviceHandler(adviceService)

	router := gin.New()
	router.POST("/api/v1/advice", adviceHandler.Generate)
	router.POST("/api/v1/advice/batch", adviceHandler.GenerateBatch)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerateEndpoint_Validation(t *testing.T) {
	router := newTestRouter(&stubAIClient{reply: stubReply})

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "Valid request",
			body:       `{"crop": "Tomato", "disease": "Early Blight", "severity": "medium", "confidence": 0.93}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "Missing crop",
			body:       `{"disease": "Early Blight"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Whitespace crop",
			body:       `{"crop": "   ", "disease": "Early Blight"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Missing disease",
			body:       `{"crop": "Tomato"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Confidence above one",
			body:       `{"crop": "Tomato", "disease": "Early Blight", "confidence": 1.5}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Negative confidence",
			body:       `{"crop": "Tomato", "disease": "Early Blight", "confidence": -0.1}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Malformed JSON",
			body:       `{"crop": `,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, "/api/v1/advice", tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body: %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestGenerateEndpoint_SeverityDefault(t *testing.T) {
	router := newTestRouter(&stubAIClient{reply: stubReply})

	w := postJSON(router, "/api/v1/advice", `{"crop": "Potato", "disease": "Late Blight"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	body := w.Body.String()
	if !strings.Contains(body, `"severity":"unknown"`) {
		t.Errorf("response should echo defaulted severity: %s", body)
	}
	if !strings.Contains(body, `"confidence":0`) {
		t.Errorf("response should echo defaulted confidence: %s", body)
	}
}

func TestGenerateEndpoint_UpstreamFailure(t *testing.T) {
	router := newTestRouter(&stubAIClient{
		err: &service.UpstreamError{Provider: "stub", StatusCode: 500, Message: "provider down"},
	})

	w := postJSON(router, "/api/v1/advice", `{"crop": "Tomato", "disease": "Early Blight"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
}

func TestBatchEndpoint_EmptyBatch(t *testing.T) {
	router := newTestRouter(&stubAIClient{reply: stubReply})

	for _, body := range []string{`{"detections": []}`, `{}`} {
		w := postJSON(router, "/api/v1/advice/batch", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status for %s = %d, want %d", body, w.Code, http.StatusBadRequest)
		}
	}
}

func TestBatchEndpoint_InvalidItem(t *testing.T) {
	router := newTestRouter(&stubAIClient{reply: stubReply})

	body := `{"detections": [
		{"crop": "Tomato", "disease": "Early Blight"},
		{"crop": "Potato", "disease": "Late Blight", "confidence": 2.0}
	]}`

	w := postJSON(router, "/api/v1/advice/batch", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), "Detection 1") {
		t.Errorf("error should name the failed item index: %s", w.Body.String())
	}
}

func TestBatchEndpoint_Success(t *testing.T) {
	router := newTestRouter(&stubAIClient{reply: stubReply})

	body := `{"detections": [
		{"crop": "Tomato", "disease": "Early Blight", "severity": "medium", "confidence": 0.9},
		{"crop": "Maize", "disease": "Rust", "severity": "low", "confidence": 0.7}
	]}`

	w := postJSON(router, "/api/v1/advice/batch", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"count":2`) {
		t.Errorf("response should report two results: %s", w.Body.String())
	}
}
