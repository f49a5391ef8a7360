package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/kdimtricp/deepcheck/internal/bootstrap"
	"github.com/kdimtricp/deepcheck/internal/config"
	"github.com/kdimtricp/deepcheck/internal/database"
	"github.com/kdimtricp/deepcheck/internal/detection"
	"github.com/kdimtricp/deepcheck/internal/logger"
	"github.com/kdimtricp/deepcheck/internal/processing"
	"github.com/kdimtricp/deepcheck/internal/render"
	"github.com/kdimtricp/deepcheck/internal/reports"
)

func main() {
	var (
		filePath = flag.String("file", "", "Media file to analyze")
		pdfPath  = flag.String("pdf", "", "Write the rendered report to this path")
	)
	flag.Parse()

	if *filePath == "" {
		log.Fatal("Please provide a media file with -file flag")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	appLogger, err := bootstrap.Logger(cfg)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}

	if err := run(context.Background(), cfg, appLogger, *filePath, *pdfPath); err != nil {
		appLogger.Error("Analysis failed", "file", *filePath, "error", err)
		appLogger.Sync()
		os.Exit(1)
	}
	appLogger.Sync()
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, filePath, pdfPath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	mimeType := detection.NormalizeMimeType("", data)

	db, err := bootstrap.OpenDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := database.NewReportRepository(db)
	ids := processing.NewIDGenerator(cfg.ReportIDPrefix)
	store := reports.NewStore(repo, ids, log)

	fingerprint := processing.Fingerprint(data)
	previous, err := repo.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		log.Warn("Failed to look up earlier reports", "fingerprint", fingerprint, "error", err)
	} else if len(previous) > 0 {
		fmt.Printf("This content was analyzed %d time(s) before; latest report %s (%s)\n",
			len(previous), previous[0].ReportID, previous[0].OverallVerdict)
	}

	archive, err := bootstrap.Archive(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize evidence archive: %w", err)
	}

	svc := detection.NewService(
		bootstrap.Gateway(cfg, ids, log),
		store,
		archive,
		detection.Config{MaxUploadSize: cfg.MaxUploadSize, AnalysisTimeout: cfg.AnalysisTimeout},
		log,
	)

	fmt.Printf("Analyzing %s (%s, %d bytes)\n", filepath.Base(filePath), mimeType, len(data))
	result, err := svc.Analyze(ctx, detection.Upload{
		FileName: filepath.Base(filePath),
		MimeType: mimeType,
		Data:     data,
		Request:  reports.RequestContext{IPAddress: "local", UserAgent: "analyze-file"},
	})
	if err != nil {
		return err
	}

	report := result.Report
	fmt.Printf("Report ID:          %s\n", report.ReportID)
	fmt.Printf("Verdict:            %s\n", report.OverallVerdict)
	fmt.Printf("Average confidence: %.1f%%\n", report.AverageConfidence*100)
	fmt.Printf("Frames:             %d total, %d fake, %d real\n",
		report.TotalFramesAnalyzed, report.FakeFramesDetected, report.RealFramesDetected)
	fmt.Printf("Persisted:          %t\n", result.Persisted)
	if result.Evidence != "" {
		fmt.Printf("Evidence:           %s\n", result.Evidence)
	}

	if pdfPath == "" {
		return nil
	}

	renderer := render.NewRenderer()
	var doc []byte
	if result.CreatedAt != nil {
		doc, err = renderer.RenderAt(report, *result.CreatedAt)
	} else {
		doc, err = renderer.Render(report)
	}
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if err := os.WriteFile(pdfPath, doc, 0644); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", pdfPath, len(doc))
	return nil
}
