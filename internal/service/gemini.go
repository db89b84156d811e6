package service

import (
	"context"
	"errors"
	"fmt"

	"cropadvisor/internal/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiClient talks to the Google Gemini API. The underlying handle is
// created once at startup and reused across requests; it is read-only after
// initialization so concurrent calls need no locking.
type GeminiClient struct {
	config *config.GenAIConfig
	client *genai.Client
}

// NewGeminiClient creates a new Gemini client. A missing API key is not an
// error here: the client is constructed disabled and every call fails until
// a credential is configured.
func NewGeminiClient(cfg *config.GenAIConfig) (*GeminiClient, error) {
	c := &GeminiClient{config: cfg}

	if !cfg.Enabled {
		return c, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client

	return c, nil
}

// Close releases the underlying API connection
func (c *GeminiClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Model returns the configured model identifier
func (c *GeminiClient) Model() string {
	return c.config.Model
}

// IsEnabled returns whether the client is configured and ready
func (c *GeminiClient) IsEnabled() bool {
	return c.config.Enabled && c.client != nil
}

// GenerateText sends a single-turn user prompt and returns the reply text
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if !c.IsEnabled() {
		return "", &UpstreamError{Provider: "gemini", Message: "API key is not configured"}
	}

	m := c.client.GenerativeModel(c.config.Model)
	m.SetTemperature(float32(c.config.Temperature))
	if c.config.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(c.config.MaxTokens))
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", upstreamFromGemini(err)
	}

	text := firstText(resp)
	if text == "" {
		return "", &UpstreamError{Provider: "gemini", Message: "empty response"}
	}

	return text, nil
}

// CreateEmbeddings creates embeddings for the given texts
func (c *GeminiClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if !c.IsEnabled() {
		return nil, &UpstreamError{Provider: "gemini", Message: "API key is not configured"}
	}

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	em := c.client.EmbeddingModel(c.config.EmbeddingModel)
	batch := em.NewBatch()
	for _, text := range texts {
		batch = batch.AddContent(genai.Text(text))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, upstreamFromGemini(err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, &UpstreamError{
			Provider: "gemini",
			Message:  fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)),
		}
	}

	embeddings := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		embeddings[i] = e.Values
	}

	return embeddings, nil
}

// upstreamFromGemini maps an SDK error onto UpstreamError, pulling out the
// HTTP status code when the API surfaced one
func upstreamFromGemini(err error) *UpstreamError {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &UpstreamError{
			Provider:   "gemini",
			StatusCode: apiErr.Code,
			Message:    apiErr.Message,
			Err:        err,
		}
	}
	return &UpstreamError{Provider: "gemini", Message: err.Error(), Err: err}
}

// firstText returns the first text part of the first candidate
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
