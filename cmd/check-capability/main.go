package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kdimtricp/deepcheck/internal/bootstrap"
	"github.com/kdimtricp/deepcheck/internal/config"
	"github.com/kdimtricp/deepcheck/internal/database"
	"github.com/kdimtricp/deepcheck/internal/logger"
	"github.com/kdimtricp/deepcheck/internal/models"
	"github.com/kdimtricp/deepcheck/internal/processing"
	"github.com/kdimtricp/deepcheck/internal/reports"
)

var errCapabilityUnreachable = errors.New("classification capability is not reachable")

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	appLogger, err := bootstrap.Logger(cfg)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	err = run(ctx, cfg, appLogger)
	cancel()
	if err != nil {
		appLogger.Error("Capability check failed", "error", err)
		appLogger.Sync()
		os.Exit(1)
	}
	appLogger.Sync()
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	fmt.Println("Checking classification capability")
	fmt.Println("==================================")
	fmt.Printf("Provider: %s\n", cfg.CapabilityProvider)

	ids := processing.NewIDGenerator(cfg.ReportIDPrefix)
	gateway := bootstrap.Gateway(cfg, ids, log)
	capabilityOK := gateway.TestConnection(ctx)
	if capabilityOK {
		fmt.Println("Capability: connected")
	} else {
		fmt.Println("Capability: NOT reachable (check GEMINI_API_KEY and network access)")
	}
	fmt.Println()

	db, err := database.NewDB(bootstrap.DatabaseConfig(cfg), log)
	if err != nil {
		fmt.Println("Storage: NOT reachable")
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repo := database.NewReportRepository(db)
	if err := repo.Ping(ctx); err != nil {
		fmt.Println("Storage: NOT reachable")
		return fmt.Errorf("failed to ping database: %w", err)
	}
	fmt.Printf("Storage: connected (%s)\n\n", db.Type())

	counts, err := repo.CountByVerdict(ctx)
	if err != nil {
		return fmt.Errorf("failed to count reports: %w", err)
	}
	var total int64
	fmt.Println("Reports by verdict:")
	for _, v := range models.Verdicts {
		fmt.Printf("   %-13s %d\n", v, counts[string(v)])
		total += counts[string(v)]
	}
	fmt.Printf("   %-13s %d\n\n", "total", total)

	history := reports.NewHistoryService(reports.NewStore(repo, ids, log))
	page, err := history.List(ctx, reports.HistoryQuery{Page: 1, PageSize: 5})
	if err != nil {
		return fmt.Errorf("failed to list recent reports: %w", err)
	}

	if len(page.Items) == 0 {
		fmt.Println("No reports stored yet. Analyze a file to test!")
	} else {
		fmt.Println("Most recent reports:")
		for _, r := range page.Items {
			fmt.Printf("   %s  %-12s %5.1f%%  %s  %s\n",
				r.ReportID, r.OverallVerdict, r.AverageConfidence*100,
				r.CreatedAt.Format(time.RFC3339), r.FileMetadata.FileName)
		}
	}

	if !capabilityOK {
		return errCapabilityUnreachable
	}
	return nil
}
