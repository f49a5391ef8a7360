package render

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/kdimtricp/deepcheck/internal/models"
)

// Minimum heights reserved before each section is started.
const (
	verdictMinHeight   = 30
	summaryMinHeight   = 50
	temporalMinHeight  = 40
	avSyncMinHeight    = 40
	detailedMinHeight  = 60
	caseMinHeight      = 50
	metadataMinHeight  = 60
	detectionMinHeight = 50
	framesMinHeight    = 30
	longFieldMinHeight = 16
)

const (
	titleSize     = 20
	headingSize   = 16
	verdictSize   = 14
	bodySize      = 12
	paragraphSize = 10

	highConfidence = 0.8
)

// layout is the phase 1 cursor. It only ever moves forward.
type layout struct {
	measure   Measurer
	threshold int

	pages []Page
	y     float64
}

// Layout places every section of report onto pages. Footers are not part of
// the result; see Stamp.
func Layout(report models.Report, m Measurer, inlineThreshold int) (*Document, error) {
	if err := models.CheckComplete(report); err != nil {
		return nil, err
	}
	if inlineThreshold <= 0 {
		inlineThreshold = DefaultInlineThreshold
	}

	l := &layout{measure: m, threshold: inlineThreshold}
	l.newPage()

	l.title(report)
	l.verdict(report)
	l.summary(report)
	if tc := report.TemporalConsistency; tc != nil {
		l.temporal(tc)
	}
	if av := report.AudioVisualSync; av != nil {
		l.avSync(av)
	}
	if ds := report.DetailedSummary; ds != nil {
		l.detailed(ds)
	}
	l.caseOverview(report.CaseOverview)
	l.fileMetadata(report.FileMetadata)
	l.detection(report.DetectionParameters)
	l.frames(report.FrameClassifications)

	return &Document{
		Title: "Deepfake Analysis Report " + report.ReportID,
		Pages: l.pages,
	}, nil
}

func (l *layout) newPage() {
	l.pages = append(l.pages, Page{})
	l.y = TopOffset
}

// ensure starts a new page when h does not fit above the bottom margin.
func (l *layout) ensure(h float64) {
	if l.y+h > bottomLimit {
		l.newPage()
	}
}

func (l *layout) put(e Element) {
	p := &l.pages[len(l.pages)-1]
	p.Elements = append(p.Elements, e)
}

func (l *layout) text(s string, x, size float64, bold bool, c Color) {
	l.put(Element{Text: s, X: x, Y: l.y, Size: size, Bold: bold, Color: c, Role: RoleText})
}

func (l *layout) heading(s string) {
	l.put(Element{Text: s, X: Margin, Y: l.y, Size: headingSize, Bold: true, Color: Black, Role: RoleHeading})
	l.y += 10
}

func (l *layout) line(s string, advance float64) {
	l.text(s, Margin, bodySize, false, Black)
	l.y += advance
}

// paragraph word-wraps s at 10pt, breaking onto a new page whenever the
// next line would cross the bottom margin. It returns the number of lines.
func (l *layout) paragraph(s string) int {
	lh := LineHeight(paragraphSize)
	lines := wrapText(l.measure, s, paragraphSize, false, UsableWidth)
	for _, ln := range lines {
		if l.y+lh > bottomLimit {
			l.newPage()
		}
		l.text(ln, Margin, paragraphSize, false, Black)
		l.y += lh
	}
	return len(lines)
}

// field lays out "label: value". Text longer than the inline threshold gets
// a label line and the value wrapped underneath it.
func (l *layout) field(label, value string, advance float64) {
	inline := label + ": " + value
	if utf8.RuneCountInString(inline) <= l.threshold {
		l.line(inline, advance)
		return
	}

	l.ensure(longFieldMinHeight)
	lh := LineHeight(paragraphSize)
	l.text(label+":", Margin, paragraphSize, false, Black)
	l.y += lh
	l.paragraph(value)
	l.y += 10
}

func (l *layout) title(r models.Report) {
	l.text("Deepfake Analysis Report", Margin, titleSize, true, Black)
	l.y += 15

	l.text("Report ID: "+r.ReportID, Margin, bodySize, false, Black)
	l.text("Date: "+r.DateOfAnalysis, Margin+100, bodySize, false, Black)
	l.y += 15
}

func verdictColor(v models.Verdict) Color {
	switch v {
	case models.VerdictFake:
		return Red
	case models.VerdictReal:
		return Green
	default:
		return Orange
	}
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func (l *layout) verdict(r models.Report) {
	l.ensure(verdictMinHeight)
	l.heading("Overall Verdict")

	l.text(string(r.OverallVerdict), Margin, verdictSize, true, verdictColor(r.OverallVerdict))
	l.y += 10

	l.line("Average Confidence: "+percent(r.AverageConfidence), 20)
}

func (l *layout) summary(r models.Report) {
	l.ensure(summaryMinHeight)
	l.heading("Analysis Summary")

	l.line(fmt.Sprintf("Total Frames Analyzed: %d", r.TotalFramesAnalyzed), 8)
	l.line(fmt.Sprintf("Fake Frames Detected: %d", r.FakeFramesDetected), 8)
	l.line(fmt.Sprintf("Real Frames Detected: %d", r.RealFramesDetected), 8)

	ratio := "N/A"
	if r.TotalFramesAnalyzed > 0 {
		ratio = percent(float64(r.FakeFramesDetected) / float64(r.TotalFramesAnalyzed))
	}
	l.line("Fake Ratio: "+ratio, 20)
}

func (l *layout) temporal(tc *models.TemporalConsistency) {
	l.ensure(temporalMinHeight)
	l.heading("Temporal Consistency Analysis")
	l.line(fmt.Sprintf("Consistency Score: %.2f / 1.0", tc.Score), 8)
	l.paragraph("Interpretation: " + tc.Interpretation)
	l.y += 10
}

func (l *layout) avSync(av *models.AudioVisualSync) {
	l.ensure(avSyncMinHeight)
	l.heading("Audio-Visual Sync Analysis")
	l.line(fmt.Sprintf("Deviation Index: %.2f", av.DeviationIndex), 8)
	l.paragraph("Observation: " + av.Observation)
	l.y += 10
}

func (l *layout) detailed(ds *models.DetailedSummary) {
	l.ensure(detailedMinHeight)
	l.heading("Detailed Analysis Summary")
	l.line("Model Confidence: "+percent(ds.ConfidenceScore), 8)
	l.line("Operational Threshold: "+percent(ds.OperationalThreshold), 10)
	l.paragraph(ds.Content)
	l.y += 15
}

func (l *layout) caseOverview(c models.CaseOverview) {
	l.ensure(caseMinHeight)
	l.heading("Case Overview")
	l.field("Case Reference", c.CaseReference, 8)
	l.field("Source", c.SourceOfVideo, 8)
	l.field("Content Type", c.SuspectedContentType, 20)
}

func (l *layout) fileMetadata(f models.FileMetadata) {
	l.ensure(metadataMinHeight)
	l.heading("File Metadata")
	l.field("File Name", f.FileName, 8)
	l.field("Format", f.FileFormat, 8)
	l.field("Duration", f.Duration, 8)
	l.field("Frame Rate", f.FrameRate, 8)
	l.field("Creation Date", f.DateOfFileCreation, 8)
	l.field("Content Fingerprint", f.ContentFingerprint, 20)
}

func (l *layout) detection(d models.DetectionParameters) {
	l.ensure(detectionMinHeight)
	l.heading("Detection Parameters")
	l.field("Frame Sampling Rate", d.FrameSamplingRate, 8)
	l.field("Facial Landmark Detection", d.FacialLandmarkDetection, 8)
	l.field("Audio-Visual Sync Check", d.AudioVisualSyncCheck, 8)
	l.line("Classification Threshold: "+strconv.FormatFloat(d.ClassificationThreshold, 'f', -1, 64), 20)
}

// frames summarises classifications by count only, so document length does
// not grow with the number of frames.
func (l *layout) frames(frames []models.FrameClassification) {
	var confident, fake int
	for _, f := range frames {
		if f.Confidence > highConfidence {
			confident++
		}
		if f.Label == models.LabelFake {
			fake++
		}
	}

	l.ensure(framesMinHeight)
	l.heading("Frame-Level Classification Summary")
	l.line(fmt.Sprintf("Total classified frames: %d", len(frames)), 8)
	l.line(fmt.Sprintf("High confidence frames (>80%%): %d", confident), 8)
	l.line(fmt.Sprintf("Frames classified as FAKE: %d", fake), 20)
}
