// Package detection runs the analyze flow from an upload to a stored report.
package detection

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/kdimtricp/deepcheck/internal/ai"
	"github.com/kdimtricp/deepcheck/internal/apperrors"
	"github.com/kdimtricp/deepcheck/internal/logger"
	"github.com/kdimtricp/deepcheck/internal/models"
	"github.com/kdimtricp/deepcheck/internal/reports"
	"github.com/kdimtricp/deepcheck/internal/storage"
)

// ReportSaver is the part of reports.Store the analyze flow needs.
type ReportSaver interface {
	Save(ctx context.Context, report models.Report, rc reports.RequestContext) (models.StoredReport, error)
	Ping(ctx context.Context) error
}

type Upload struct {
	FileName string
	MimeType string
	Data     []byte
	Request  reports.RequestContext
}

type Result struct {
	Report    models.Report `json:"report"`
	Persisted bool          `json:"persisted"`
	CreatedAt *time.Time    `json:"createdAt,omitempty"`
	Evidence  string        `json:"evidence,omitempty"`
}

type HealthStatus struct {
	Status              string    `json:"status"`
	CapabilityConnected bool      `json:"geminiConnected"`
	StorageConnected    bool      `json:"storageConnected"`
	Error               string    `json:"error,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}

type Config struct {
	MaxUploadSize   int64
	AnalysisTimeout time.Duration
}

type Service struct {
	gateway ai.Gateway
	store   ReportSaver
	archive storage.Storage
	config  Config
	now     func() time.Time
	logger  *logger.Logger
}

// NewService wires the analyze flow. store and archive may be nil, in which
// case reports are not persisted or media is not archived.
func NewService(gateway ai.Gateway, store ReportSaver, archive storage.Storage, config Config, log *logger.Logger) *Service {
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = MaxUploadSize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		gateway: gateway,
		store:   store,
		archive: archive,
		config:  config,
		now:     time.Now,
		logger:  log,
	}
}

func (s *Service) MaxUploadSize() int64 {
	return s.config.MaxUploadSize
}

// Analyze classifies up. A classification failure fails the call; archive
// and persistence failures are logged and reported through Result only.
func (s *Service) Analyze(ctx context.Context, up Upload) (Result, error) {
	if err := ValidateUpload(up.FileName, up.MimeType, int64(len(up.Data)), s.config.MaxUploadSize); err != nil {
		return Result{}, err
	}

	analyzeCtx := ctx
	if s.config.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		analyzeCtx, cancel = context.WithTimeout(ctx, s.config.AnalysisTimeout)
		defer cancel()
	}

	report, err := s.gateway.Analyze(analyzeCtx, up.Data, up.FileName, up.MimeType)
	if err != nil {
		s.logger.Error("analysis failed", "file_name", up.FileName, "mime_type", up.MimeType, "error", err)
		return Result{}, err
	}

	result := Result{Report: report}
	result.Evidence = s.archiveEvidence(ctx, up, report)

	if s.store == nil {
		return result, nil
	}

	stored, err := s.store.Save(ctx, report, up.Request)
	if stored.ReportID != "" {
		result.Report = stored.Report
	}
	if err != nil {
		s.logger.Warn("failed to persist analysis report",
			"report_id", stored.ReportID,
			"attempt", reports.MaxSaveAttempts,
			"code", apperrors.CodeOf(err),
			"error", err,
		)
		// Evidence is only kept next to a stored report.
		s.discardEvidence(ctx, result.Evidence)
		result.Evidence = ""
		return result, nil
	}

	createdAt := stored.CreatedAt
	result.Persisted = true
	result.CreatedAt = &createdAt
	s.logger.Info("analysis report saved", "report_id", stored.ReportID, "verdict", stored.OverallVerdict)
	return result, nil
}

func (s *Service) archiveEvidence(ctx context.Context, up Upload, report models.Report) string {
	if s.archive == nil {
		return ""
	}

	name, err := s.archive.Save(ctx, up.Data, storage.FileInfo{
		Filename:    up.FileName,
		ContentType: up.MimeType,
		Size:        int64(len(up.Data)),
		Fingerprint: report.FileMetadata.ContentFingerprint,
	})
	if err != nil {
		s.logger.Warn("failed to archive evidence", "report_id", report.ReportID, "error", err)
		return ""
	}
	return name
}

func (s *Service) discardEvidence(ctx context.Context, name string) {
	if s.archive == nil || name == "" {
		return
	}
	if err := s.archive.Delete(ctx, name); err != nil {
		s.logger.Warn("failed to discard evidence", "evidence", name, "error", err)
	}
}

// Evidence opens an archived upload by the name returned from Analyze.
func (s *Service) Evidence(ctx context.Context, name string) (io.ReadCloser, error) {
	if s.archive == nil {
		return nil, apperrors.NotFound("Evidence archive is not enabled")
	}

	rc, err := s.archive.Open(ctx, name)
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		return nil, apperrors.InvalidInput("Invalid evidence name")
	case errors.Is(err, storage.ErrNotFound):
		return nil, apperrors.NotFound("Evidence not found")
	case err != nil:
		return nil, apperrors.Internal(err, "Failed to open evidence")
	}
	return rc, nil
}

// Health probes the capability and storage. It never fails; problems are
// reported in the returned status.
func (s *Service) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{Status: "online", Timestamp: s.now().UTC()}

	status.CapabilityConnected = s.gateway != nil && s.gateway.TestConnection(ctx)
	if !status.CapabilityConnected {
		s.logger.Warn("capability probe failed")
	}

	if s.store == nil {
		return status
	}
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("storage probe failed", "error", err)
		status.Status = "error"
		status.Error = err.Error()
		return status
	}
	status.StorageConnected = true
	return status
}
