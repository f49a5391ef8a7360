package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdimtricp/deepcheck/internal/bootstrap"
	"github.com/kdimtricp/deepcheck/internal/config"
	"github.com/kdimtricp/deepcheck/internal/database"
	"github.com/kdimtricp/deepcheck/internal/logger"
	"github.com/kdimtricp/deepcheck/internal/processing"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment:        "test",
		AnalysisTimeout:    time.Minute,
		MaxUploadSize:      50 * 1024 * 1024,
		ReportIDPrefix:     "DFVD",
		DBType:             database.TypeSQLite,
		DBPath:             filepath.Join(t.TempDir(), "analyze.db"),
		CapabilityProvider: config.ProviderFake,
		ArchiveBackend:     config.ArchiveNone,
	}
}

func TestRunAnalyzesQuickTimeFileAndWritesPDF(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()

	media := append([]byte("\x00\x00\x00\x14ftypqt  \x00\x00\x00\x00qt  "), make([]byte, 64)...)
	mediaPath := filepath.Join(dir, "clip.mov")
	require.NoError(t, os.WriteFile(mediaPath, media, 0644))
	pdfPath := filepath.Join(dir, "report.pdf")

	require.NoError(t, run(context.Background(), cfg, logger.Nop(), mediaPath, pdfPath))

	doc, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(doc[:4]))

	db, err := database.NewDB(bootstrap.DatabaseConfig(cfg), nil)
	require.NoError(t, err)
	defer db.Close()
	stored, err := database.NewReportRepository(db).FindByFingerprint(context.Background(), processing.Fingerprint(media))
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRunReturnsErrorsInsteadOfExiting(t *testing.T) {
	cfg := testConfig(t)

	err := run(context.Background(), cfg, logger.Nop(), filepath.Join(t.TempDir(), "missing.mp4"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")

	notes := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("plain words"), 0644))
	err = run(context.Background(), cfg, logger.Nop(), notes, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid file type")
}
