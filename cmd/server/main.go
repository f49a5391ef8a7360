package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kdimtricp/deepcheck/internal/api"
	"github.com/kdimtricp/deepcheck/internal/bootstrap"
	"github.com/kdimtricp/deepcheck/internal/config"
	"github.com/kdimtricp/deepcheck/internal/database"
	"github.com/kdimtricp/deepcheck/internal/detection"
	"github.com/kdimtricp/deepcheck/internal/processing"
	"github.com/kdimtricp/deepcheck/internal/render"
	"github.com/kdimtricp/deepcheck/internal/reports"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	logger, err := bootstrap.Logger(cfg)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	db, err := bootstrap.OpenDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	defer db.Close()

	ids := processing.NewIDGenerator(cfg.ReportIDPrefix)
	store := reports.NewStore(database.NewReportRepository(db), ids, logger)

	archive, err := bootstrap.Archive(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize evidence archive", "backend", cfg.ArchiveBackend, "error", err)
	}

	docCache := bootstrap.DocumentCache(cfg, logger)
	if docCache != nil {
		defer docCache.Close()
	}

	renderer := render.NewRenderer()
	app := &api.App{
		Detection: detection.NewService(
			bootstrap.Gateway(cfg, ids, logger),
			store,
			archive,
			detection.Config{MaxUploadSize: cfg.MaxUploadSize, AnalysisTimeout: cfg.AnalysisTimeout},
			logger,
		),
		History:   reports.NewHistoryService(store),
		Reports:   store,
		Renderer:  renderer,
		Documents: bootstrap.Documents(renderer, docCache, logger),
		Logger:    logger,
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(app, cfg.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			"addr", srv.Addr,
			"env", cfg.Environment,
			"db_type", cfg.DBType,
			"provider", cfg.CapabilityProvider,
			"archive", cfg.ArchiveBackend,
			"document_cache", docCache != nil,
			"max_upload_size", cfg.MaxUploadSize,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
}
