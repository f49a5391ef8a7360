package render

import "strings"

// Measurer reports the rendered width in millimetres of text at a font size.
type Measurer interface {
	Width(text string, size float64, bold bool) float64
}

// wrapText breaks text into lines no wider than maxWidth. Words wider than
// maxWidth on their own are split between runes.
func wrapText(m Measurer, text string, size float64, bold bool, maxWidth float64) []string {
	var lines []string
	var cur string

	for _, word := range strings.Fields(text) {
		for _, piece := range splitToken(m, word, size, bold, maxWidth) {
			candidate := piece
			if cur != "" {
				candidate = cur + " " + piece
			}
			if m.Width(candidate, size, bold) <= maxWidth {
				cur = candidate
				continue
			}
			if cur != "" {
				lines = append(lines, cur)
			}
			cur = piece
		}
	}
	if cur != "" || len(lines) == 0 {
		lines = append(lines, cur)
	}
	return lines
}

func splitToken(m Measurer, token string, size float64, bold bool, maxWidth float64) []string {
	if m.Width(token, size, bold) <= maxWidth {
		return []string{token}
	}

	var pieces []string
	var cur []rune
	for _, r := range token {
		next := append(cur, r)
		if len(cur) > 0 && m.Width(string(next), size, bold) > maxWidth {
			pieces = append(pieces, string(cur))
			cur = []rune{r}
			continue
		}
		cur = next
	}
	if len(cur) > 0 {
		pieces = append(pieces, string(cur))
	}
	return pieces
}
