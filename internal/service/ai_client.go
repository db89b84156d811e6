package service

import (
	"context"
	"fmt"
	"strings"

	"cropadvisor/internal/config"
)

// AIClient is the interface for generative-text providers. One client is
// constructed at startup and injected into the advice service, so tests can
// substitute a fake provider without touching global state.
type AIClient interface {
	// GenerateText sends a single-turn user prompt and returns the reply text
	GenerateText(ctx context.Context, prompt string) (string, error)

	// CreateEmbeddings generates embedding vectors for texts
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the fixed model identifier used for the process lifetime
	Model() string

	// IsEnabled returns whether the client holds a usable credential
	IsEnabled() bool
}

// NewAIClient builds the provider selected by configuration
func NewAIClient(cfg *config.GenAIConfig) (AIClient, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gemini", "":
		return NewGeminiClient(cfg)
	case "openai":
		return NewOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown GENAI_PROVIDER %q (expected gemini or openai)", cfg.Provider)
	}
}

// IsOpenAIProvider checks if the base URL is the official OpenAI API
func IsOpenAIProvider(baseURL string) bool {
	return strings.Contains(baseURL, "api.openai.com")
}

// IsNVIDIAProvider checks if the base URL is the NVIDIA integrate API
func IsNVIDIAProvider(baseURL string) bool {
	return baseURL == "https://integrate.api.nvidia.com/v1"
}

// Ensure both providers implement AIClient
var (
	_ AIClient = (*GeminiClient)(nil)
	_ AIClient = (*OpenAIClient)(nil)
)
