package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frostdev-ops/ranalyzer-go/internal/ai"
	"github.com/frostdev-ops/ranalyzer-go/internal/ai/providers"
	"github.com/frostdev-ops/ranalyzer-go/internal/api"
	"github.com/frostdev-ops/ranalyzer-go/internal/api/handlers"
	"github.com/frostdev-ops/ranalyzer-go/internal/config"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/analysis"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/classifier"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/drift"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/files"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/kpi"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/normalizer"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/outlier"
	"github.com/frostdev-ops/ranalyzer-go/internal/database"
	"github.com/frostdev-ops/ranalyzer-go/internal/database/sqlite"
	"github.com/frostdev-ops/ranalyzer-go/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	logger.SetLevel(log, cfg.Logging.Level)

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.Migrate(db, cfg.Database.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Load counter mappings and threshold table
	tables, err := kpi.LoadTables(cfg.Analysis.TablesPath)
	if err != nil {
		log.Fatal("Failed to load analysis tables:", err)
	}

	// Build the analysis pipeline
	baselineRepo := sqlite.NewBaselineRepository(db)
	comparator := drift.New(baselineRepo, drift.Config{
		Significance: cfg.Analysis.Drift.Significance,
		FullScale:    cfg.Analysis.Drift.FullScale,
		Epsilon:      cfg.Analysis.Drift.Epsilon,
	}, log)

	var provider ai.Provider
	if cfg.AI.Provider == "openai" && cfg.AI.APIKey != "" {
		provider = providers.NewOpenAIProvider(cfg.AI, log)
		log.WithField("provider", provider.GetName()).Info("LLM provider configured")
	}
	summarizer := ai.NewSummarizer(provider, cfg.AI.AllowCloud, log)
	responder := ai.NewResponder(provider, cfg.AI.AllowCloud, log)

	service := analysis.NewService(
		normalizer.New(tables, log),
		classifier.New(tables.Thresholds, classifier.Config{
			SeverityDeviation: cfg.Analysis.SeverityDeviation,
		}),
		outlier.New(outlier.Config{
			Trees:         cfg.Analysis.Outlier.Trees,
			SubSample:     cfg.Analysis.Outlier.SubSample,
			Contamination: cfg.Analysis.Outlier.Contamination,
			Seed:          cfg.Analysis.Outlier.Seed,
		}, log),
		comparator,
		summarizer,
		log,
	)

	// Upload store with retention sweep
	store, err := files.NewStore(cfg.Storage.UploadPath, cfg.Storage.RetentionHours, log)
	if err != nil {
		log.Fatal("Failed to initialize upload store:", err)
	}
	if err := store.StartSweeper(cfg.Storage.SweepSchedule); err != nil {
		log.Fatal("Failed to start retention sweep:", err)
	}
	defer store.StopSweeper()

	// Initialize router
	h := handlers.NewHandlers(cfg, log, service, comparator, responder, store)
	router := api.NewRouter(cfg, h, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Infof("Starting RAN analyzer on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Info("Server exited")
}
