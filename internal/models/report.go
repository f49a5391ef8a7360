package models

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Verdict string

const (
	VerdictFake         Verdict = "FAKE"
	VerdictReal         Verdict = "REAL"
	VerdictInconclusive Verdict = "INCONCLUSIVE"
)

var Verdicts = []Verdict{VerdictFake, VerdictReal, VerdictInconclusive}

func (v Verdict) Valid() bool {
	switch v {
	case VerdictFake, VerdictReal, VerdictInconclusive:
		return true
	}
	return false
}

type FrameLabel string

const (
	LabelFake FrameLabel = "FAKE"
	LabelReal FrameLabel = "REAL"
)

func (l FrameLabel) Valid() bool {
	return l == LabelFake || l == LabelReal
}

// ParseVerdict normalises s and reports whether it names one of the closed
// verdict values.
func ParseVerdict(s string) (Verdict, bool) {
	// Casers carry state, so each call gets its own.
	v := Verdict(cases.Upper(language.Und).String(strings.TrimSpace(s)))
	return v, v.Valid()
}

type CaseOverview struct {
	CaseReference        string `json:"caseReference"`
	SourceOfVideo        string `json:"sourceOfVideo"`
	SuspectedContentType string `json:"suspectedContentType"`
}

type FileMetadata struct {
	FileName           string `json:"fileName"`
	FileFormat         string `json:"fileFormat"`
	Duration           string `json:"duration"`
	FrameRate          string `json:"frameRate"`
	ContentFingerprint string `json:"contentFingerprint"`
	DateOfFileCreation string `json:"dateOfFileCreation"`
}

type DetectionParameters struct {
	FrameSamplingRate       string  `json:"frameSamplingRate"`
	FacialLandmarkDetection string  `json:"facialLandmarkDetection"`
	AudioVisualSyncCheck    string  `json:"audioVisualSyncCheck"`
	ClassificationThreshold float64 `json:"classificationThreshold"`
}

type FrameClassification struct {
	FrameNumber int        `json:"frameNumber"`
	Timestamp   string     `json:"timestamp"`
	Confidence  float64    `json:"confidence"`
	Label       FrameLabel `json:"label"`
}

type TemporalConsistency struct {
	Score          float64 `json:"score"`
	Interpretation string  `json:"interpretation"`
}

type AudioVisualSync struct {
	DeviationIndex float64 `json:"deviationIndex"`
	Observation    string  `json:"observation"`
}

type DetailedSummary struct {
	ConfidenceScore      float64 `json:"confidenceScore"`
	OperationalThreshold float64 `json:"operationalThreshold"`
	Content              string  `json:"content"`
}

// Enrichments groups the optional analysis blocks so they can be stored in a
// single column.
type Enrichments struct {
	TemporalConsistency *TemporalConsistency `json:"temporalConsistency,omitempty"`
	AudioVisualSync     *AudioVisualSync     `json:"audioVisualSync,omitempty"`
	DetailedSummary     *DetailedSummary     `json:"detailedSummary,omitempty"`
}

// Report is the canonical outcome of one classification run. It is a value
// type: callers rebuild it rather than mutate a shared instance.
type Report struct {
	ReportID               string `json:"reportId"`
	PreparedBy             string `json:"preparedBy"`
	DateOfAnalysis         string `json:"dateOfAnalysis"`
	ToolModelUsed          string `json:"toolModelUsed"`
	DetectionEngineVersion string `json:"detectionEngineVersion"`

	CaseOverview         CaseOverview          `json:"caseOverview"`
	FileMetadata         FileMetadata          `json:"fileMetadata"`
	DetectionParameters  DetectionParameters   `json:"detectionParameters"`
	FrameClassifications []FrameClassification `json:"frameClassifications"`

	OverallVerdict      Verdict `json:"overallVerdict"`
	AverageConfidence   float64 `json:"averageConfidence"`
	TotalFramesAnalyzed int     `json:"totalFramesAnalyzed"`
	FakeFramesDetected  int     `json:"fakeFramesDetected"`
	RealFramesDetected  int     `json:"realFramesDetected"`

	TemporalConsistency *TemporalConsistency `json:"temporalConsistency,omitempty"`
	AudioVisualSync     *AudioVisualSync     `json:"audioVisualSync,omitempty"`
	DetailedSummary     *DetailedSummary     `json:"detailedSummary,omitempty"`
}

// WithIdentifier returns a copy of r carrying id. Slices and optional blocks
// are copied so the result shares no memory with r.
func (r Report) WithIdentifier(id string) Report {
	out := r
	out.ReportID = id
	out.FrameClassifications = append([]FrameClassification(nil), r.FrameClassifications...)
	if out.FrameClassifications == nil {
		out.FrameClassifications = []FrameClassification{}
	}
	if r.TemporalConsistency != nil {
		tc := *r.TemporalConsistency
		out.TemporalConsistency = &tc
	}
	if r.AudioVisualSync != nil {
		av := *r.AudioVisualSync
		out.AudioVisualSync = &av
	}
	if r.DetailedSummary != nil {
		ds := *r.DetailedSummary
		out.DetailedSummary = &ds
	}
	return out
}

func (r Report) Enrichments() Enrichments {
	return Enrichments{
		TemporalConsistency: r.TemporalConsistency,
		AudioVisualSync:     r.AudioVisualSync,
		DetailedSummary:     r.DetailedSummary,
	}
}

func (r *Report) ApplyEnrichments(e Enrichments) {
	r.TemporalConsistency = e.TemporalConsistency
	r.AudioVisualSync = e.AudioVisualSync
	r.DetailedSummary = e.DetailedSummary
}

// StoredReport is a Report plus the request context captured when it was
// persisted.
type StoredReport struct {
	Report
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
}
