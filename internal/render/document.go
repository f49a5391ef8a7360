package render

import "fmt"

// Page geometry in millimetres, A4 portrait.
const (
	PageWidth   = 210.0
	PageHeight  = 297.0
	Margin      = 20.0
	TopOffset   = 20.0
	UsableWidth = PageWidth - 2*Margin
	// FooterBand is the distance from the bottom edge to the footer baseline.
	FooterBand = 10.0

	bottomLimit = PageHeight - Margin
)

// DefaultInlineThreshold is the rune count above which a "label: value"
// field is moved onto its own wrapped block.
const DefaultInlineThreshold = 50

// LineHeight approximates the baseline advance for a font size in points.
func LineHeight(fontSize float64) float64 {
	return fontSize * 0.35
}

type Color struct {
	R, G, B int
}

var (
	Black  = Color{0, 0, 0}
	Red    = Color{255, 0, 0}
	Green  = Color{0, 128, 0}
	Orange = Color{255, 165, 0}
)

type Role int

const (
	RoleText Role = iota
	RoleHeading
	RoleFooter
)

// Element is one positioned run of text. Y is the baseline.
type Element struct {
	Text  string
	X     float64
	Y     float64
	Size  float64
	Bold  bool
	Color Color
	Role  Role
}

type Page struct {
	Elements []Element
}

// Document is the renderer's intermediate form: pages of positioned text
// that have not been serialized yet.
type Document struct {
	Title string
	Pages []Page
}

// Stamp returns a copy of doc with the attribution and "Page i of N" footer
// added to every page. The input is left untouched.
func Stamp(doc *Document, attribution string) *Document {
	out := &Document{Title: doc.Title, Pages: make([]Page, len(doc.Pages))}
	total := len(doc.Pages)
	footerY := PageHeight - FooterBand

	for i, p := range doc.Pages {
		elements := make([]Element, len(p.Elements), len(p.Elements)+2)
		copy(elements, p.Elements)
		elements = append(elements,
			Element{Text: attribution, X: Margin, Y: footerY, Size: 10, Color: Black, Role: RoleFooter},
			Element{
				Text:  fmt.Sprintf("Page %d of %d", i+1, total),
				X:     PageWidth - Margin - 30,
				Y:     footerY,
				Size:  10,
				Color: Black,
				Role:  RoleFooter,
			},
		)
		out.Pages[i] = Page{Elements: elements}
	}
	return out
}
