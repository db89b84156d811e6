package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	PostgreSQL PostgreSQLConfig
	GenAI      GenAIConfig
	Advice     AdviceConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// PostgreSQLConfig holds the optional detection-log database configuration.
// The service runs without a database when no DSN or host is configured.
type PostgreSQLConfig struct {
	DSN                string
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
	Enabled            bool
}

// GenAIConfig holds the generative-text provider configuration.
// One provider and one model identifier are fixed for the process lifetime.
type GenAIConfig struct {
	Provider            string // "gemini" or "openai"
	APIKey              string
	APIBase             string // OpenAI-compatible API base URL
	Model               string
	Temperature         float64
	MaxTokens           int
	Timeout             int // seconds, imposed by the transport
	EmbeddingModel      string
	EmbeddingDimensions int
	EmbeddingBatchSize  int
	Enabled             bool
}

// AdviceConfig holds advice/history tuning
type AdviceConfig struct {
	HistoryDefaultLimit int
	HistoryMaxLimit     int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	provider := getEnv("GENAI_PROVIDER", "gemini")
	apiKey := providerAPIKey(provider)

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		PostgreSQL: PostgreSQLConfig{
			// Prefer a full DSN when one is provided
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", ""),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "crop_advisor"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		GenAI: GenAIConfig{
			Provider:            provider,
			APIKey:              apiKey,
			APIBase:             getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			Model:               providerModel(provider),
			Temperature:         getEnvAsFloat("GENAI_TEMPERATURE", 0.4),
			MaxTokens:           getEnvAsInt("GENAI_MAX_TOKENS", 1024),
			Timeout:             getEnvAsInt("GENAI_TIMEOUT", 30),
			EmbeddingModel:      providerEmbeddingModel(provider),
			EmbeddingDimensions: getEnvAsInt("GENAI_EMBEDDING_DIMENSIONS", 768),
			EmbeddingBatchSize:  getEnvAsInt("GENAI_EMBEDDING_BATCH_SIZE", 100),
			Enabled:             apiKey != "",
		},
		Advice: AdviceConfig{
			HistoryDefaultLimit: getEnvAsInt("HISTORY_DEFAULT_LIMIT", 20),
			HistoryMaxLimit:     getEnvAsInt("HISTORY_MAX_LIMIT", 100),
		},
	}

	// The detection log is enabled only when a database is actually configured
	cfg.PostgreSQL.Enabled = cfg.PostgreSQL.DSN != "" || cfg.PostgreSQL.Host != ""

	return cfg, nil
}

// GetPostgreSQLDSN returns the PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// providerAPIKey resolves the credential for the selected provider.
// GENAI_API_KEY always wins so deployments can stay provider-agnostic.
func providerAPIKey(provider string) string {
	if key := os.Getenv("GENAI_API_KEY"); key != "" {
		return key
	}
	if provider == "gemini" {
		return os.Getenv("GEMINI_API_KEY")
	}
	return os.Getenv("OPENAI_API_KEY")
}

func providerModel(provider string) string {
	if provider == "gemini" {
		return getEnv("GEMINI_MODEL", "gemini-2.0-flash")
	}
	return getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini")
}

func providerEmbeddingModel(provider string) string {
	if provider == "gemini" {
		return getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004")
	}
	return getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small")
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}
