package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cropadvisor/internal/config"
	"cropadvisor/internal/handler"
	"cropadvisor/internal/repository"
	"cropadvisor/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Print version info
	log.Printf("Crop Disease Advisor")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize the optional detection-log database
	var repo *repository.PostgresRepository
	if cfg.PostgreSQL.Enabled {
		repo, err = repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer repo.Close()
		log.Println("✅ Connected to PostgreSQL database")
	} else {
		log.Println("⚠️  No database configured - detection history is disabled")
		log.Println("   Set DATABASE_URL (or PG_HOST) to enable the detection log")
	}

	// Initialize the generative-text client (one handle per process)
	aiClient, err := service.NewAIClient(&cfg.GenAI)
	if err != nil {
		log.Fatalf("Failed to initialize AI client: %v", err)
	}
	if closer, ok := aiClient.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	if aiClient.IsEnabled() {
		log.Printf("✅ GenAI client initialized (provider: %s)", cfg.GenAI.Provider)
		log.Printf("   - Model: %s", cfg.GenAI.Model)
		log.Printf("   - Embedding model: %s", cfg.GenAI.EmbeddingModel)
		log.Printf("   - Temperature: %.2f", cfg.GenAI.Temperature)
		log.Printf("   - Timeout: %ds", cfg.GenAI.Timeout)
	} else {
		log.Printf("⚠️  No API key configured for provider %q - advice generation will fail", cfg.GenAI.Provider)
		log.Println("   Set GENAI_API_KEY (or GEMINI_API_KEY / OPENAI_API_KEY) to enable advice")
	}

	// Initialize services
	adviceService := service.NewAdviceService(aiClient, repo)

	log.Println("✅ Services initialized")

	// Initialize handlers
	adviceHandler := handler.NewAdviceHandler(adviceService)
	historyHandler := handler.NewHistoryHandler(adviceService, cfg.Advice.HistoryDefaultLimit, cfg.Advice.HistoryMaxLimit)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "crop-disease-advisor",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		// Advice endpoints
		apiV1.POST("/advice", adviceHandler.Generate)
		apiV1.POST("/advice/batch", adviceHandler.GenerateBatch)

		// Detection history endpoints
		apiV1.GET("/detections", historyHandler.Recent)
		apiV1.GET("/detections/similar", historyHandler.Similar)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Starting server on %s", addr)
	log.Printf("📝 API: http://localhost:%d/api/v1", cfg.Server.Port)

	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	log.Println("✅ Server stopped")
}
