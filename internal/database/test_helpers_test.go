package database

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kdimtricp/deepcheck/internal/models"
)

func setupSQLiteDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(Config{Type: TypeSQLite, SQLitePath: filepath.Join(t.TempDir(), "reports.db")}, nil)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	if err := db.RunMigrations(""); err != nil {
		t.Fatalf("Failed to migrate sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to resolve caller path")
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

func setupPostgresDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("deepcheck_test"),
		postgres.WithUsername("deepcheck_test"),
		postgres.WithPassword("deepcheck_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	testcontainers.CleanupContainer(t, pgContainer)

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	db, err := NewDB(Config{
		Type:     TypePostgres,
		Host:     host,
		Port:     port.Int(),
		User:     "deepcheck_test",
		Password: "deepcheck_test_password",
		Name:     "deepcheck_test",
	}, nil)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.RunMigrations(migrationsDir(t)); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// forEachBackend runs fn against SQLite and, when a container provider is
// available, PostgreSQL.
func forEachBackend(t *testing.T, fn func(t *testing.T, db *DB)) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, setupSQLiteDB(t))
	})
	t.Run("postgres", func(t *testing.T) {
		fn(t, setupPostgresDB(t))
	})
}

var testEpoch = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func sampleStoredReport(id string, verdict models.Verdict, createdAt time.Time) models.StoredReport {
	return models.StoredReport{
		Report: models.Report{
			ReportID:               id,
			PreparedBy:             "Analysis System",
			DateOfAnalysis:         "1 June 2025",
			ToolModelUsed:          "Gemini 2.5 Pro",
			DetectionEngineVersion: "2.5.0",
			CaseOverview: models.CaseOverview{
				CaseReference:        "CYB/0001/2025/",
				SourceOfVideo:        "User Upload",
				SuspectedContentType: "Video Content",
			},
			FileMetadata: models.FileMetadata{
				FileName:           "clip.mp4",
				FileFormat:         "MP4",
				Duration:           "00:05",
				FrameRate:          "30 fps",
				ContentFingerprint: fmt.Sprintf("%032x", len(id)),
				DateOfFileCreation: "unknown",
			},
			DetectionParameters: models.DetectionParameters{
				FrameSamplingRate:       "1 frame/sec",
				FacialLandmarkDetection: "Enabled",
				AudioVisualSyncCheck:    "Enabled",
				ClassificationThreshold: 0.85,
			},
			FrameClassifications: []models.FrameClassification{
				{FrameNumber: 1, Timestamp: "00:01", Confidence: 0.9, Label: models.LabelFake},
				{FrameNumber: 2, Timestamp: "00:02", Confidence: 0.3, Label: models.LabelReal},
			},
			OverallVerdict:      verdict,
			AverageConfidence:   0.6,
			TotalFramesAnalyzed: 2,
			FakeFramesDetected:  1,
			RealFramesDetected:  1,
		},
		IPAddress: "203.0.113.7",
		UserAgent: "test-agent",
		CreatedAt: createdAt,
	}
}
