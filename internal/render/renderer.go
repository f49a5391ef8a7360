package render

import (
	"fmt"
	"time"

	"github.com/kdimtricp/deepcheck/internal/apperrors"
	"github.com/kdimtricp/deepcheck/internal/models"
)

const defaultProducer = "deepcheck"

// epoch is the document date used when a report has no stored timestamp.
var epoch = time.Unix(0, 0).UTC()

// Renderer turns reports into paginated PDF documents. It keeps no state
// between calls and is safe for concurrent use.
type Renderer struct {
	InlineThreshold int
	Producer        string
}

func NewRenderer() *Renderer {
	return &Renderer{InlineThreshold: DefaultInlineThreshold, Producer: defaultProducer}
}

// Render produces the document for a report that has not been stored.
func (r *Renderer) Render(report models.Report) ([]byte, error) {
	return r.RenderAt(report, time.Time{})
}

// RenderStored dates the document with the report's creation time.
func (r *Renderer) RenderStored(stored models.StoredReport) ([]byte, error) {
	return r.RenderAt(stored.Report, stored.CreatedAt)
}

// RenderAt lays out, stamps and serializes report. Either the whole document
// is returned or an error with no bytes.
func (r *Renderer) RenderAt(report models.Report, at time.Time) ([]byte, error) {
	doc, err := Layout(report, newFontMeasurer(), r.InlineThreshold)
	if err != nil {
		return nil, err
	}
	doc = Stamp(doc, Attribution(report))

	if at.IsZero() {
		at = epoch
	}
	producer := r.Producer
	if producer == "" {
		producer = defaultProducer
	}

	out, err := serialize(doc, at.UTC(), producer)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to render document")
	}
	return out, nil
}

// Attribution is the footer line printed on every page.
func Attribution(report models.Report) string {
	return fmt.Sprintf("Generated by %s • %s v%s", report.PreparedBy, report.ToolModelUsed, report.DetectionEngineVersion)
}

func FileName(report models.Report) string {
	return "analysis-" + report.ReportID + ".pdf"
}
