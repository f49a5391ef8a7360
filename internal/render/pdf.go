package render

import (
	"bytes"
	"time"

	"github.com/go-pdf/fpdf"
)

const fontFamily = "Helvetica"

func fontStyle(bold bool) string {
	if bold {
		return "B"
	}
	return ""
}

// fontMeasurer measures with the same core font metrics used for output.
// It holds a private fpdf instance and is not safe for concurrent use.
type fontMeasurer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newFontMeasurer() *fontMeasurer {
	pdf := fpdf.New("P", "mm", "A4", "")
	return &fontMeasurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (m *fontMeasurer) Width(text string, size float64, bold bool) float64 {
	m.pdf.SetFont(fontFamily, fontStyle(bold), size)
	return m.pdf.GetStringWidth(m.tr(text))
}

// serialize writes doc as PDF. Dates come from stamp and the catalog is
// sorted so identical documents produce identical bytes.
func serialize(doc *Document, stamp time.Time, producer string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(Margin, TopOffset, Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator(producer, true)
	pdf.SetProducer(producer, true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, el := range page.Elements {
			pdf.SetFont(fontFamily, fontStyle(el.Bold), el.Size)
			pdf.SetTextColor(el.Color.R, el.Color.G, el.Color.B)
			pdf.Text(el.X, el.Y, tr(el.Text))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
