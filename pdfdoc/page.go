package pdfdoc

import (
	"fmt"
	"strconv"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"github.com/prajwal-pl/dnd-pdf-zone/geom"
)

// Cover fits place images partly outside their box.
var imageOptions = fpdf.ImageOptions{AllowNegativePosition: true}

// Color is an RGB color with 0-255 components.
type Color struct {
	R, G, B int
}

// Black is the default ink.
var Black = Color{}

// ParseColor parses "#rrggbb" or "rrggbb". Anything else yields Black and
// false.
func ParseColor(s string) (Color, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Black, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Black, false
	}
	return Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, true
}

// Font selects one of the core PDF fonts.
type Font struct {
	Family string  // Helvetica, Times or Courier
	Style  string  // "", "B", "I" or "BI"
	Size   float64 // points
}

// Page is a drawing surface in document space. Every operation first makes
// the page current, so pages can be drawn on in any order.
type Page struct {
	doc    *Document
	num    int
	Width  float64
	Height float64
}

// Number returns the 1-based page number.
func (p *Page) Number() int { return p.num }

func (p *Page) activate() {
	if p.doc.pdf.PageNo() != p.num {
		p.doc.pdf.SetPage(p.num)
	}
}

// setFont selects f on this page. fpdf skips SetFont calls that match its
// global state, which is wrong after moving back to an earlier page, so the
// first font on a revisited page is forced out with a different size.
func (p *Page) setFont(f Font) {
	pdf := p.doc.pdf
	if p.doc.fontPage != p.num {
		pdf.SetFont(f.Family, f.Style, f.Size+1)
		p.doc.fontPage = p.num
	}
	pdf.SetFont(f.Family, f.Style, f.Size)
}

// top converts the document-space bottom edge of a box to fpdf's top edge.
func (p *Page) top(b geom.Box) float64 { return geom.FlipY(b.Y, b.H, p.Height) }

func (p *Page) withAlpha(alpha float64, draw func()) {
	pdf := p.doc.pdf
	if alpha >= 1 {
		draw()
		return
	}
	pdf.SetAlpha(max(alpha, 0), "Normal")
	draw()
	pdf.SetAlpha(1, "Normal")
}

// FillRect paints b with c at the given opacity.
func (p *Page) FillRect(b geom.Box, c Color, alpha float64) {
	p.activate()
	pdf := p.doc.pdf
	p.withAlpha(alpha, func() {
		pdf.SetFillColor(c.R, c.G, c.B)
		pdf.Rect(b.X, p.top(b), b.W, b.H, "F")
	})
}

// Line strokes a segment between two document-space points.
func (p *Page) Line(x1, y1, x2, y2, width float64, c Color) {
	p.activate()
	pdf := p.doc.pdf
	pdf.SetLineWidth(width)
	pdf.SetDrawColor(c.R, c.G, c.B)
	pdf.Line(x1, p.Height-y1, x2, p.Height-y2)
}

// Text draws s with its baseline starting at (x, baseline).
func (p *Page) Text(x, baseline float64, s string, f Font, c Color) {
	p.activate()
	pdf := p.doc.pdf
	p.setFont(f)
	pdf.SetTextColor(c.R, c.G, c.B)
	pdf.Text(x, p.Height-baseline, p.doc.tr(s))
}

// TextWidth measures s in points at the given font.
func (p *Page) TextWidth(s string, f Font) float64 {
	p.activate()
	p.setFont(f)
	return p.doc.pdf.GetStringWidth(p.doc.tr(s))
}

// DrawImage draws a registered image scaled to b.
func (p *Page) DrawImage(img Image, b geom.Box, alpha float64) {
	p.activate()
	pdf := p.doc.pdf
	p.withAlpha(alpha, func() {
		pdf.ImageOptions(img.name, b.X, p.top(b), b.W, b.H, false, imageOptions, 0, "")
	})
}

// DrawImported draws an imported PDF page stretched to b.
func (p *Page) DrawImported(imp Imported, b geom.Box) {
	p.activate()
	p.doc.importer.UseImportedTemplate(p.doc.pdf, imp.id, b.X, p.top(b), b.W, b.H)
}

// Clip restricts drawing inside fn to b.
func (p *Page) Clip(b geom.Box, fn func()) {
	p.activate()
	pdf := p.doc.pdf
	pdf.ClipRect(b.X, p.top(b), b.W, b.H, false)
	fn()
	pdf.ClipEnd()
}

func (p *Page) String() string {
	return fmt.Sprintf("page %d (%gx%g)", p.num, p.Width, p.Height)
}
