// Package bootstrap builds the service's components from configuration so
// every binary wires them the same way.
package bootstrap

import (
	"fmt"

	"github.com/kdimtricp/deepcheck/internal/ai"
	"github.com/kdimtricp/deepcheck/internal/cache"
	"github.com/kdimtricp/deepcheck/internal/config"
	"github.com/kdimtricp/deepcheck/internal/database"
	"github.com/kdimtricp/deepcheck/internal/logger"
	"github.com/kdimtricp/deepcheck/internal/processing"
	"github.com/kdimtricp/deepcheck/internal/render"
	"github.com/kdimtricp/deepcheck/internal/storage"
)

func Logger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(cfg.Environment, cfg.LogLevel)
}

func DatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Type:       cfg.DBType,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		Name:       cfg.DBName,
		SSLMode:    cfg.DBSSLMode,
		SQLitePath: cfg.DBPath,
	}
}

// OpenDatabase connects and brings the schema up to date.
func OpenDatabase(cfg *config.Config, log *logger.Logger) (*database.DB, error) {
	db, err := database.NewDB(DatabaseConfig(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	log.Info("Running database migrations", "path", cfg.MigrationsPath, "type", cfg.DBType)
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func Gateway(cfg *config.Config, ids *processing.IDGenerator, log *logger.Logger) ai.Gateway {
	if cfg.CapabilityProvider == config.ProviderFake {
		log.Warn("Using synthetic classification capability", "provider", cfg.CapabilityProvider)
		return ai.NewFakeGateway(ids)
	}

	aiConfig := ai.NewConfig()
	aiConfig.GeminiAPIKey = cfg.GeminiAPIKey
	if cfg.GeminiModel != "" {
		aiConfig.GeminiModel = cfg.GeminiModel
	}
	if cfg.GeminiBaseURL != "" {
		aiConfig.GeminiBaseURL = cfg.GeminiBaseURL
	}
	if cfg.AnalysisTimeout > 0 {
		aiConfig.Timeout = cfg.AnalysisTimeout
	}
	if aiConfig.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY is not set; analysis requests will fail until it is configured")
	}
	return ai.NewCapabilityGateway(ai.NewGeminiClient(aiConfig), ids, log)
}

// Archive returns nil when evidence archiving is disabled.
func Archive(cfg *config.Config) (storage.Storage, error) {
	switch cfg.ArchiveBackend {
	case config.ArchiveLocal:
		local, err := storage.NewLocalStorage(cfg.ArchiveDir)
		if err != nil {
			return nil, err
		}
		return local, nil
	case config.ArchiveAzure:
		azure, err := storage.NewAzureStorage(storage.AzureConfig{
			AccountName: cfg.AzureStorageAccount,
			AccountKey:  cfg.AzureStorageKey,
			Container:   cfg.AzureStorageContainer,
		})
		if err != nil {
			return nil, err
		}
		return azure, nil
	default:
		return nil, nil
	}
}

// DocumentCache returns a nil cache when Redis is not configured or not
// reachable. The renderer works without one.
func DocumentCache(cfg *config.Config, log *logger.Logger) *cache.DocumentCache {
	if cfg.RedisAddr == "" {
		return nil
	}
	dc, err := cache.NewDocumentCache(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.DocumentCacheTTL,
	}, log)
	if err != nil {
		log.Warn("Document cache disabled", "error", err)
		return nil
	}
	return dc
}

// Documents wraps renderer with dc when one is available.
func Documents(renderer *render.Renderer, dc *cache.DocumentCache, log *logger.Logger) *render.CachedRenderer {
	if dc == nil {
		return render.NewCachedRenderer(renderer, nil, log)
	}
	return render.NewCachedRenderer(renderer, dc, log)
}
