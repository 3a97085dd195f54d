package render

import (
	"strings"

	"github.com/prajwal-pl/dnd-pdf-zone/pdfdoc"
	"github.com/prajwal-pl/dnd-pdf-zone/template"
)

// family maps a CSS-like font family list onto a core PDF family.
func family(name string) string {
	for _, part := range strings.Split(name, ",") {
		switch strings.ToLower(strings.Trim(strings.TrimSpace(part), `"'`)) {
		case "helvetica", "arial", "sans-serif", "inter", "system-ui":
			return "Helvetica"
		case "times", "times new roman", "times-roman", "serif", "georgia":
			return "Times"
		case "courier", "courier new", "monospace":
			return "Courier"
		}
	}
	return "Helvetica"
}

// fontFor picks one of the four faces of the style's family from its
// weight and slant.
func fontFor(s *template.Style) pdfdoc.Font {
	f := pdfdoc.Font{Family: "Helvetica", Size: s.Size()}
	if s == nil {
		return f
	}
	f.Family = family(s.FontFamily)
	switch {
	case s.Bold() && s.Italic:
		f.Style = "BI"
	case s.Bold():
		f.Style = "B"
	case s.Italic:
		f.Style = "I"
	}
	return f
}

func colorFor(s *template.Style) pdfdoc.Color {
	if s == nil {
		return pdfdoc.Black
	}
	c, _ := pdfdoc.ParseColor(s.Color)
	return c
}
