package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chunkreading/internal/config"
	"chunkreading/internal/database"
	"chunkreading/internal/handlers"
	"chunkreading/internal/repository"
	"chunkreading/internal/scoring"
	"chunkreading/internal/security"
	"chunkreading/internal/service"

	"github.com/rs/cors"
)

func main() {
	// Load configuration
	cfg := config.Load()

	startup := handlers.NewStartupStatus()

	// Initialize database with config (supports sqlite, postgres, mysql)
	startup.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)
	startup.CompleteStep(handlers.StepDatabase)

	// Run migrations
	startup.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")
	startup.CompleteStep(handlers.StepMigrations)

	if cfg.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET not configured, every API request will be rejected")
	}

	// Initialize repositories
	startup.SetCurrentStep(handlers.StepServices)
	passageRepo := repository.NewPassageRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)

	// Initialize services
	scorer := scoring.NewGeminiClient(scoring.GeminiConfig{
		APIKey:      cfg.GeminiAPIKey,
		Model:       cfg.GeminiModel,
		BaseURL:     cfg.AIBaseURL,
		BearerToken: cfg.AIBearerToken,
		Timeout:     cfg.AITimeout,
		Language:    cfg.FeedbackLanguage,
		Debug:       cfg.Debug,
	})

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.NotifyEmail, cfg.Debug)
	if err != nil {
		log.Printf("Warning: Failed to initialize email service: %v", err)
		emailService, _ = service.NewEmailService("", "", "", "", cfg.Debug)
	}

	passageService := service.NewPassageService(passageRepo, scorer)
	gradingService := service.NewGradingService(scorer)
	studyService := service.NewStudyService(passageRepo, progressRepo, analysisRepo, gradingService, scorer, emailService)

	// Initialize handlers
	limiter := security.NewRateLimiter(cfg.SubmitRateLimit, time.Minute)
	defer limiter.Stop()
	middleware := handlers.NewMiddleware(security.NewTokenVerifier(cfg.JWTSecret), limiter, cfg.Debug)
	passageHandler := handlers.NewPassageHandler(passageService, studyService)
	studyHandler := handlers.NewStudyHandler(studyService)
	startup.CompleteStep(handlers.StepServices)

	// Setup routes
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, middleware, passageHandler, studyHandler, startup)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		Debug:          cfg.Debug,
	})

	// Wrap with logging middleware
	handler := handlers.Logging(corsHandler.Handler(mux))

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()
	startup.MarkReady()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Failed to shut down cleanly: %v", err)
	}
}
