package detection

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdimtricp/deepcheck/internal/ai"
	"github.com/kdimtricp/deepcheck/internal/apperrors"
	"github.com/kdimtricp/deepcheck/internal/database"
	"github.com/kdimtricp/deepcheck/internal/database/dbtest"
	"github.com/kdimtricp/deepcheck/internal/models"
	"github.com/kdimtricp/deepcheck/internal/processing"
	"github.com/kdimtricp/deepcheck/internal/reports"
	"github.com/kdimtricp/deepcheck/internal/storage"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		mime     string
		size     int64
		wantMsg  string
	}{
		{"missing file", "", "", 0, "No file provided"},
		{"too large", "big.mp4", "video/mp4", MaxUploadSize + 1, "File size too large. Maximum size is 50MB"},
		{"bad type", "doc.pdf", "application/pdf", 10, msgInvalidType},
		{"video ok", "clip.webm", "video/webm", 10, ""},
		{"image ok", "face.jpg", "image/jpg", MaxUploadSize, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.fileName, tt.mime, tt.size, 0)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
			assert.Equal(t, tt.wantMsg, message(t, err))
		})
	}
}

func TestValidateUploadHonoursConfiguredCeiling(t *testing.T) {
	err := ValidateUpload("clip.mp4", "video/mp4", 3*1024*1024, 2*1024*1024)
	require.Error(t, err)
	assert.Equal(t, "File size too large. Maximum size is 2MB", message(t, err))
}

func TestNormalizeMimeType(t *testing.T) {
	quickTime := append([]byte("\x00\x00\x00\x14ftypqt  \x00\x00\x00\x00qt  "), make([]byte, 32)...)
	avi := append([]byte("RIFF\x24\x00\x00\x00AVI LIST\x00\x00\x00\x00hdrl"), make([]byte, 32)...)
	png := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

	tests := []struct {
		name     string
		declared string
		data     []byte
		want     string
	}{
		{"quicktime header", "", quickTime, "video/mov"},
		{"avi header", "application/octet-stream", avi, "video/avi"},
		{"png header", "", png, "image/png"},
		{"declared type wins", "Video/MP4 ", png, "video/mp4"},
		{"unknown content", "", []byte("plain words"), "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeMimeType(tt.declared, tt.data)
			assert.Equal(t, tt.want, got)
			if AllowedType(tt.want) {
				assert.NoError(t, ValidateUpload("upload", got, int64(len(tt.data)), 0))
			}
		})
	}
}

func message(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Message
}

func newSQLiteStore(t *testing.T) *reports.Store {
	t.Helper()
	db := dbtest.NewSQLite(t)
	return reports.NewStore(database.NewReportRepository(db), processing.NewIDGenerator("DFVD"), nil)
}

func TestAnalyzePersistsReport(t *testing.T) {
	store := newSQLiteStore(t)
	svc := NewService(ai.NewFakeGateway(processing.NewIDGenerator("DFVD")), store, nil, Config{}, nil)
	ctx := context.Background()

	res, err := svc.Analyze(ctx, Upload{
		FileName: "clip.mp4",
		MimeType: "video/mp4",
		Data:     []byte("frame data"),
		Request:  reports.RequestContext{IPAddress: "198.51.100.4", UserAgent: "test"},
	})
	require.NoError(t, err)
	assert.True(t, res.Persisted)
	require.NotNil(t, res.CreatedAt)

	found, err := store.FindByID(ctx, res.Report.ReportID)
	require.NoError(t, err)
	assert.Equal(t, res.Report, found.Report)
	assert.Equal(t, "198.51.100.4", found.IPAddress)
	assert.Equal(t, processing.Fingerprint([]byte("frame data")), found.FileMetadata.ContentFingerprint)
}

func TestAnalyzeRejectsInvalidUploadBeforeClassifying(t *testing.T) {
	gw := &countingGateway{}
	svc := NewService(gw, nil, nil, Config{}, nil)

	_, err := svc.Analyze(context.Background(), Upload{FileName: "notes.txt", MimeType: "text/plain", Data: []byte("x")})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
	assert.Zero(t, gw.calls)
}

func TestAnalyzeFailsWhenClassificationFails(t *testing.T) {
	fake := ai.NewFakeGateway(processing.NewIDGenerator("DFVD"))
	fake.Offline = true
	svc := NewService(fake, newSQLiteStore(t), nil, Config{}, nil)

	_, err := svc.Analyze(context.Background(), Upload{FileName: "a.png", MimeType: "image/png", Data: []byte("png")})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeCapabilityUnavailable))
}

type failingSaver struct {
	err error
}

func (f failingSaver) Save(ctx context.Context, report models.Report, rc reports.RequestContext) (models.StoredReport, error) {
	last := report.WithIdentifier("DFVD-20250601-120000-LASTID")
	return models.StoredReport{Report: last}, f.err
}

func (f failingSaver) Ping(ctx context.Context) error {
	return f.err
}

func TestAnalyzeSwallowsPersistenceFailures(t *testing.T) {
	for _, saveErr := range []error{
		apperrors.PersistenceConflict("DFVD-20250601-120000-LASTID", reports.MaxSaveAttempts),
		apperrors.PersistenceUnavailable(errors.New("connection refused")),
	} {
		svc := NewService(ai.NewFakeGateway(processing.NewIDGenerator("DFVD")), failingSaver{err: saveErr}, nil, Config{}, nil)

		res, err := svc.Analyze(context.Background(), Upload{FileName: "a.png", MimeType: "image/png", Data: []byte("png")})
		require.NoError(t, err)
		assert.False(t, res.Persisted)
		assert.Nil(t, res.CreatedAt)
		assert.Equal(t, "DFVD-20250601-120000-LASTID", res.Report.ReportID)
	}
}

func TestAnalyzeArchivesEvidence(t *testing.T) {
	dir := t.TempDir()
	archive, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	svc := NewService(ai.NewFakeGateway(processing.NewIDGenerator("DFVD")), nil, archive, Config{}, nil)

	res, err := svc.Analyze(context.Background(), Upload{FileName: "face.webp", MimeType: "image/webp", Data: []byte("webp bytes")})
	require.NoError(t, err)
	require.NotEmpty(t, res.Evidence)

	saved, err := os.ReadFile(filepath.Join(dir, res.Evidence))
	require.NoError(t, err)
	assert.Equal(t, []byte("webp bytes"), saved)
	assert.False(t, res.Persisted)
}

func TestAnalyzeDiscardsEvidenceWhenNotPersisted(t *testing.T) {
	dir := t.TempDir()
	archive, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	saver := failingSaver{err: apperrors.PersistenceUnavailable(errors.New("connection refused"))}
	svc := NewService(ai.NewFakeGateway(processing.NewIDGenerator("DFVD")), saver, archive, Config{}, nil)

	res, err := svc.Analyze(context.Background(), Upload{FileName: "a.png", MimeType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.False(t, res.Persisted)
	assert.Empty(t, res.Evidence)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEvidence(t *testing.T) {
	archive, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewService(ai.NewFakeGateway(processing.NewIDGenerator("DFVD")), newSQLiteStore(t), archive, Config{}, nil)
	ctx := context.Background()

	res, err := svc.Analyze(ctx, Upload{FileName: "clip.mp4", MimeType: "video/mp4", Data: []byte("mp4 bytes")})
	require.NoError(t, err)
	require.True(t, res.Persisted)

	rc, err := svc.Evidence(ctx, res.Evidence)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, []byte("mp4 bytes"), data)

	_, err = svc.Evidence(ctx, "absent.mp4")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	_, err = svc.Evidence(ctx, "../etc/passwd")
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))

	_, err = NewService(ai.NewFakeGateway(processing.NewIDGenerator("DFVD")), nil, nil, Config{}, nil).Evidence(ctx, res.Evidence)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

type brokenArchive struct{}

func (brokenArchive) Save(ctx context.Context, data []byte, info storage.FileInfo) (string, error) {
	return "", errors.New("disk full")
}

func (brokenArchive) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return nil, errors.New("disk full")
}

func (brokenArchive) Delete(ctx context.Context, name string) error {
	return errors.New("disk full")
}

func TestAnalyzeIgnoresArchiveFailure(t *testing.T) {
	svc := NewService(ai.NewFakeGateway(processing.NewIDGenerator("DFVD")), newSQLiteStore(t), brokenArchive{}, Config{}, nil)

	res, err := svc.Analyze(context.Background(), Upload{FileName: "a.png", MimeType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.Empty(t, res.Evidence)
	assert.True(t, res.Persisted)
}

type countingGateway struct {
	calls     int
	connected bool
}

func (g *countingGateway) Analyze(ctx context.Context, data []byte, fileName, mimeType string) (models.Report, error) {
	g.calls++
	return models.Report{}, errors.New("not used")
}

func (g *countingGateway) TestConnection(ctx context.Context) bool {
	return g.connected
}

func TestHealth(t *testing.T) {
	ctx := context.Background()

	ok := NewService(&countingGateway{connected: true}, newSQLiteStore(t), nil, Config{}, nil).Health(ctx)
	assert.Equal(t, "online", ok.Status)
	assert.True(t, ok.CapabilityConnected)
	assert.True(t, ok.StorageConnected)
	assert.False(t, ok.Timestamp.IsZero())

	offline := NewService(&countingGateway{}, nil, nil, Config{}, nil).Health(ctx)
	assert.Equal(t, "online", offline.Status)
	assert.False(t, offline.CapabilityConnected)

	broken := NewService(&countingGateway{connected: true}, failingSaver{err: errors.New("db down")}, nil, Config{}, nil).Health(ctx)
	assert.Equal(t, "error", broken.Status)
	assert.Equal(t, "db down", broken.Error)
	assert.False(t, broken.StorageConnected)
}
