package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/kdimtricp/deepcheck/internal/apperrors"
)

// Candidate is the loose decode target for untrusted report payloads.
// Numbers decode as float64 and required blocks as pointers so that missing
// values can be told apart from zero values.
type Candidate struct {
	ReportID               string `json:"reportId"`
	PreparedBy             string `json:"preparedBy"`
	DateOfAnalysis         string `json:"dateOfAnalysis"`
	ToolModelUsed          string `json:"toolModelUsed"`
	DetectionEngineVersion string `json:"detectionEngineVersion"`

	CaseOverview         *CaseOverview                 `json:"caseOverview"`
	FileMetadata         *FileMetadata                 `json:"fileMetadata"`
	DetectionParameters  *CandidateDetectionParameters `json:"detectionParameters"`
	FrameClassifications []CandidateFrame              `json:"frameClassifications"`

	OverallVerdict      string   `json:"overallVerdict"`
	AverageConfidence   *float64 `json:"averageConfidence"`
	TotalFramesAnalyzed *float64 `json:"totalFramesAnalyzed"`
	FakeFramesDetected  *float64 `json:"fakeFramesDetected"`
	RealFramesDetected  *float64 `json:"realFramesDetected"`

	TemporalConsistency *TemporalConsistency `json:"temporalConsistency,omitempty"`
	AudioVisualSync     *AudioVisualSync     `json:"audioVisualSync,omitempty"`
	DetailedSummary     *DetailedSummary     `json:"detailedSummary,omitempty"`
}

type CandidateDetectionParameters struct {
	FrameSamplingRate       string   `json:"frameSamplingRate"`
	FacialLandmarkDetection string   `json:"facialLandmarkDetection"`
	AudioVisualSyncCheck    string   `json:"audioVisualSyncCheck"`
	ClassificationThreshold *float64 `json:"classificationThreshold"`
}

type CandidateFrame struct {
	FrameNumber *float64 `json:"frameNumber"`
	Timestamp   string   `json:"timestamp"`
	Confidence  *float64 `json:"confidence"`
	Label       string   `json:"label"`
}

// CandidateFromReport lifts a typed report back into candidate form so it can
// be revalidated, for example after it crossed an API boundary.
func CandidateFromReport(r Report) Candidate {
	f := func(v float64) *float64 { return &v }
	c := Candidate{
		ReportID:               r.ReportID,
		PreparedBy:             r.PreparedBy,
		DateOfAnalysis:         r.DateOfAnalysis,
		ToolModelUsed:          r.ToolModelUsed,
		DetectionEngineVersion: r.DetectionEngineVersion,
		CaseOverview:           &r.CaseOverview,
		FileMetadata:           &r.FileMetadata,
		DetectionParameters: &CandidateDetectionParameters{
			FrameSamplingRate:       r.DetectionParameters.FrameSamplingRate,
			FacialLandmarkDetection: r.DetectionParameters.FacialLandmarkDetection,
			AudioVisualSyncCheck:    r.DetectionParameters.AudioVisualSyncCheck,
			ClassificationThreshold: f(r.DetectionParameters.ClassificationThreshold),
		},
		OverallVerdict:      string(r.OverallVerdict),
		AverageConfidence:   f(r.AverageConfidence),
		TotalFramesAnalyzed: f(float64(r.TotalFramesAnalyzed)),
		FakeFramesDetected:  f(float64(r.FakeFramesDetected)),
		RealFramesDetected:  f(float64(r.RealFramesDetected)),
		TemporalConsistency: r.TemporalConsistency,
		AudioVisualSync:     r.AudioVisualSync,
		DetailedSummary:     r.DetailedSummary,
	}
	for _, fr := range r.FrameClassifications {
		c.FrameClassifications = append(c.FrameClassifications, CandidateFrame{
			FrameNumber: f(float64(fr.FrameNumber)),
			Timestamp:   fr.Timestamp,
			Confidence:  f(fr.Confidence),
			Label:       string(fr.Label),
		})
	}
	return c
}

// Validate checks c against the report rules and returns the typed Report.
// The first violation found is returned as an INVALID_REPORT_SHAPE error
// whose Field names the offending path.
func Validate(c Candidate) (Report, error) {
	var r Report

	required := []struct {
		field string
		value string
	}{
		{"reportId", c.ReportID},
		{"preparedBy", c.PreparedBy},
		{"dateOfAnalysis", c.DateOfAnalysis},
		{"toolModelUsed", c.ToolModelUsed},
		{"detectionEngineVersion", c.DetectionEngineVersion},
	}
	for _, rf := range required {
		if strings.TrimSpace(rf.value) == "" {
			return r, missing(rf.field)
		}
	}
	r.ReportID = c.ReportID
	r.PreparedBy = c.PreparedBy
	r.DateOfAnalysis = c.DateOfAnalysis
	r.ToolModelUsed = c.ToolModelUsed
	r.DetectionEngineVersion = c.DetectionEngineVersion

	if c.CaseOverview == nil {
		return r, missing("caseOverview")
	}
	if err := requireStrings("caseOverview", map[string]string{
		"caseReference":        c.CaseOverview.CaseReference,
		"sourceOfVideo":        c.CaseOverview.SourceOfVideo,
		"suspectedContentType": c.CaseOverview.SuspectedContentType,
	}, "caseReference", "sourceOfVideo", "suspectedContentType"); err != nil {
		return r, err
	}
	r.CaseOverview = *c.CaseOverview

	if c.FileMetadata == nil {
		return r, missing("fileMetadata")
	}
	if err := requireStrings("fileMetadata", map[string]string{
		"fileName":           c.FileMetadata.FileName,
		"fileFormat":         c.FileMetadata.FileFormat,
		"duration":           c.FileMetadata.Duration,
		"frameRate":          c.FileMetadata.FrameRate,
		"contentFingerprint": c.FileMetadata.ContentFingerprint,
		"dateOfFileCreation": c.FileMetadata.DateOfFileCreation,
	}, "fileName", "fileFormat", "duration", "frameRate", "contentFingerprint", "dateOfFileCreation"); err != nil {
		return r, err
	}
	r.FileMetadata = *c.FileMetadata

	dp := c.DetectionParameters
	if dp == nil {
		return r, missing("detectionParameters")
	}
	if err := requireStrings("detectionParameters", map[string]string{
		"frameSamplingRate":       dp.FrameSamplingRate,
		"facialLandmarkDetection": dp.FacialLandmarkDetection,
		"audioVisualSyncCheck":    dp.AudioVisualSyncCheck,
	}, "frameSamplingRate", "facialLandmarkDetection", "audioVisualSyncCheck"); err != nil {
		return r, err
	}
	if dp.ClassificationThreshold == nil {
		return r, missing("detectionParameters.classificationThreshold")
	}
	if err := unitInterval("detectionParameters.classificationThreshold", *dp.ClassificationThreshold); err != nil {
		return r, err
	}
	r.DetectionParameters = DetectionParameters{
		FrameSamplingRate:       dp.FrameSamplingRate,
		FacialLandmarkDetection: dp.FacialLandmarkDetection,
		AudioVisualSyncCheck:    dp.AudioVisualSyncCheck,
		ClassificationThreshold: *dp.ClassificationThreshold,
	}

	r.FrameClassifications = make([]FrameClassification, 0, len(c.FrameClassifications))
	prev := -1
	for i, fr := range c.FrameClassifications {
		path := fmt.Sprintf("frameClassifications[%d]", i)
		if fr.FrameNumber == nil {
			return r, missing(path + ".frameNumber")
		}
		n, err := count(path+".frameNumber", *fr.FrameNumber)
		if err != nil {
			return r, err
		}
		if n < prev {
			return r, apperrors.InvalidReportShape(path+".frameNumber", "frame numbers must be non-decreasing")
		}
		prev = n
		if strings.TrimSpace(fr.Timestamp) == "" {
			return r, missing(path + ".timestamp")
		}
		if fr.Confidence == nil {
			return r, missing(path + ".confidence")
		}
		if err := unitInterval(path+".confidence", *fr.Confidence); err != nil {
			return r, err
		}
		label := FrameLabel(fr.Label)
		if !label.Valid() {
			return r, apperrors.InvalidReportShape(path+".label", fmt.Sprintf("unknown frame label %q", fr.Label))
		}
		r.FrameClassifications = append(r.FrameClassifications, FrameClassification{
			FrameNumber: n,
			Timestamp:   fr.Timestamp,
			Confidence:  *fr.Confidence,
			Label:       label,
		})
	}

	verdict := Verdict(c.OverallVerdict)
	if !verdict.Valid() {
		return r, apperrors.InvalidReportShape("overallVerdict", fmt.Sprintf("unknown verdict %q", c.OverallVerdict))
	}
	r.OverallVerdict = verdict

	if c.AverageConfidence == nil {
		return r, missing("averageConfidence")
	}
	if err := unitInterval("averageConfidence", *c.AverageConfidence); err != nil {
		return r, err
	}
	r.AverageConfidence = *c.AverageConfidence

	counters := []struct {
		field string
		value *float64
		dst   *int
	}{
		{"totalFramesAnalyzed", c.TotalFramesAnalyzed, &r.TotalFramesAnalyzed},
		{"fakeFramesDetected", c.FakeFramesDetected, &r.FakeFramesDetected},
		{"realFramesDetected", c.RealFramesDetected, &r.RealFramesDetected},
	}
	for _, ctr := range counters {
		if ctr.value == nil {
			return r, missing(ctr.field)
		}
		n, err := count(ctr.field, *ctr.value)
		if err != nil {
			return r, err
		}
		*ctr.dst = n
	}
	if r.FakeFramesDetected+r.RealFramesDetected > r.TotalFramesAnalyzed {
		return r, apperrors.InvalidReportShape("fakeFramesDetected",
			"fake and real frame counts exceed total frames analyzed")
	}

	if tc := c.TemporalConsistency; tc != nil {
		if err := unitInterval("temporalConsistency.score", tc.Score); err != nil {
			return r, err
		}
		cp := *tc
		r.TemporalConsistency = &cp
	}
	if av := c.AudioVisualSync; av != nil {
		if av.DeviationIndex < 0 || math.IsNaN(av.DeviationIndex) {
			return r, apperrors.InvalidReportShape("audioVisualSync.deviationIndex", "must be non-negative")
		}
		cp := *av
		r.AudioVisualSync = &cp
	}
	if ds := c.DetailedSummary; ds != nil {
		if err := unitInterval("detailedSummary.confidenceScore", ds.ConfidenceScore); err != nil {
			return r, err
		}
		if err := unitInterval("detailedSummary.operationalThreshold", ds.OperationalThreshold); err != nil {
			return r, err
		}
		cp := *ds
		r.DetailedSummary = &cp
	}

	return r, nil
}

// CheckComplete reports the first required field missing from r. The
// renderer calls it before producing any output.
func CheckComplete(r Report) error {
	fields := []struct {
		name  string
		value string
	}{
		{"reportId", r.ReportID},
		{"preparedBy", r.PreparedBy},
		{"dateOfAnalysis", r.DateOfAnalysis},
		{"toolModelUsed", r.ToolModelUsed},
		{"detectionEngineVersion", r.DetectionEngineVersion},
		{"caseOverview.caseReference", r.CaseOverview.CaseReference},
		{"caseOverview.sourceOfVideo", r.CaseOverview.SourceOfVideo},
		{"caseOverview.suspectedContentType", r.CaseOverview.SuspectedContentType},
		{"fileMetadata.fileName", r.FileMetadata.FileName},
		{"fileMetadata.fileFormat", r.FileMetadata.FileFormat},
		{"fileMetadata.contentFingerprint", r.FileMetadata.ContentFingerprint},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return apperrors.RenderInputIncomplete(f.name)
		}
	}
	if !r.OverallVerdict.Valid() {
		return apperrors.RenderInputIncomplete("overallVerdict")
	}
	return nil
}

func missing(field string) error {
	return apperrors.InvalidReportShape(field, "required field is missing or empty")
}

// requireStrings checks values in the given order so the reported field is
// stable.
func requireStrings(prefix string, values map[string]string, order ...string) error {
	for _, k := range order {
		if strings.TrimSpace(values[k]) == "" {
			return missing(prefix + "." + k)
		}
	}
	return nil
}

func unitInterval(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return apperrors.InvalidReportShape(field, "must be within [0,1]")
	}
	return nil
}

func count(field string, v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, apperrors.InvalidReportShape(field, "must be a non-negative integer")
	}
	if v != math.Trunc(v) {
		return 0, apperrors.InvalidReportShape(field, "must be an integer")
	}
	if v > math.MaxInt32 {
		return 0, apperrors.InvalidReportShape(field, "is out of range")
	}
	return int(v), nil
}
