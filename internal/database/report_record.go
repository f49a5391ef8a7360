package database

import (
	"time"

	"gorm.io/datatypes"

	"github.com/kdimtricp/deepcheck/internal/models"
)

// ReportRecord is the persisted row for one analysis report. ID is a
// surrogate key that records insertion order.
type ReportRecord struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	ReportID string `gorm:"size:64;not null;uniqueIndex:idx_analysis_reports_report_id"`

	PreparedBy             string `gorm:"not null"`
	DateOfAnalysis         string `gorm:"not null"`
	ToolModelUsed          string `gorm:"not null"`
	DetectionEngineVersion string `gorm:"not null"`

	CaseReference        string `gorm:"not null"`
	SourceOfVideo        string `gorm:"not null"`
	SuspectedContentType string `gorm:"not null"`

	FileName           string `gorm:"not null"`
	FileFormat         string `gorm:"not null"`
	Duration           string `gorm:"not null"`
	FrameRate          string `gorm:"not null"`
	ContentFingerprint string `gorm:"size:64;not null;index:idx_analysis_reports_content_fingerprint"`
	DateOfFileCreation string `gorm:"not null"`

	FrameSamplingRate       string  `gorm:"not null"`
	FacialLandmarkDetection string  `gorm:"not null"`
	AudioVisualSyncCheck    string  `gorm:"not null"`
	ClassificationThreshold float64 `gorm:"not null"`

	FrameClassifications datatypes.JSONSlice[models.FrameClassification] `gorm:"not null"`

	OverallVerdict      string  `gorm:"size:16;not null;index:idx_analysis_reports_overall_verdict"`
	AverageConfidence   float64 `gorm:"not null"`
	TotalFramesAnalyzed int     `gorm:"not null"`
	FakeFramesDetected  int     `gorm:"not null"`
	RealFramesDetected  int     `gorm:"not null"`

	Enrichments datatypes.JSONType[models.Enrichments]

	IPAddress string    `gorm:"size:64"`
	UserAgent string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;index:idx_analysis_reports_created_at,sort:desc"`
}

func (ReportRecord) TableName() string {
	return "analysis_reports"
}

func NewReportRecord(s models.StoredReport) *ReportRecord {
	r := s.Report
	frames := append([]models.FrameClassification{}, r.FrameClassifications...)
	return &ReportRecord{
		ReportID:                r.ReportID,
		PreparedBy:              r.PreparedBy,
		DateOfAnalysis:          r.DateOfAnalysis,
		ToolModelUsed:           r.ToolModelUsed,
		DetectionEngineVersion:  r.DetectionEngineVersion,
		CaseReference:           r.CaseOverview.CaseReference,
		SourceOfVideo:           r.CaseOverview.SourceOfVideo,
		SuspectedContentType:    r.CaseOverview.SuspectedContentType,
		FileName:                r.FileMetadata.FileName,
		FileFormat:              r.FileMetadata.FileFormat,
		Duration:                r.FileMetadata.Duration,
		FrameRate:               r.FileMetadata.FrameRate,
		ContentFingerprint:      r.FileMetadata.ContentFingerprint,
		DateOfFileCreation:      r.FileMetadata.DateOfFileCreation,
		FrameSamplingRate:       r.DetectionParameters.FrameSamplingRate,
		FacialLandmarkDetection: r.DetectionParameters.FacialLandmarkDetection,
		AudioVisualSyncCheck:    r.DetectionParameters.AudioVisualSyncCheck,
		ClassificationThreshold: r.DetectionParameters.ClassificationThreshold,
		FrameClassifications:    datatypes.NewJSONSlice(frames),
		OverallVerdict:          string(r.OverallVerdict),
		AverageConfidence:       r.AverageConfidence,
		TotalFramesAnalyzed:     r.TotalFramesAnalyzed,
		FakeFramesDetected:      r.FakeFramesDetected,
		RealFramesDetected:      r.RealFramesDetected,
		Enrichments:             datatypes.NewJSONType(r.Enrichments()),
		IPAddress:               s.IPAddress,
		UserAgent:               s.UserAgent,
		CreatedAt:               s.CreatedAt,
	}
}

func (rec *ReportRecord) ToStoredReport() models.StoredReport {
	frames := []models.FrameClassification(rec.FrameClassifications)
	if frames == nil {
		frames = []models.FrameClassification{}
	}
	report := models.Report{
		ReportID:               rec.ReportID,
		PreparedBy:             rec.PreparedBy,
		DateOfAnalysis:         rec.DateOfAnalysis,
		ToolModelUsed:          rec.ToolModelUsed,
		DetectionEngineVersion: rec.DetectionEngineVersion,
		CaseOverview: models.CaseOverview{
			CaseReference:        rec.CaseReference,
			SourceOfVideo:        rec.SourceOfVideo,
			SuspectedContentType: rec.SuspectedContentType,
		},
		FileMetadata: models.FileMetadata{
			FileName:           rec.FileName,
			FileFormat:         rec.FileFormat,
			Duration:           rec.Duration,
			FrameRate:          rec.FrameRate,
			ContentFingerprint: rec.ContentFingerprint,
			DateOfFileCreation: rec.DateOfFileCreation,
		},
		DetectionParameters: models.DetectionParameters{
			FrameSamplingRate:       rec.FrameSamplingRate,
			FacialLandmarkDetection: rec.FacialLandmarkDetection,
			AudioVisualSyncCheck:    rec.AudioVisualSyncCheck,
			ClassificationThreshold: rec.ClassificationThreshold,
		},
		FrameClassifications: frames,
		OverallVerdict:       models.Verdict(rec.OverallVerdict),
		AverageConfidence:    rec.AverageConfidence,
		TotalFramesAnalyzed:  rec.TotalFramesAnalyzed,
		FakeFramesDetected:   rec.FakeFramesDetected,
		RealFramesDetected:   rec.RealFramesDetected,
	}
	report.ApplyEnrichments(rec.Enrichments.Data())

	return models.StoredReport{
		Report:    report,
		IPAddress: rec.IPAddress,
		UserAgent: rec.UserAgent,
		CreatedAt: rec.CreatedAt.UTC(),
	}
}
