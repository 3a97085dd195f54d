package render

import (
	"math"
	"strings"

	pdfzone "github.com/prajwal-pl/dnd-pdf-zone"
	"github.com/prajwal-pl/dnd-pdf-zone/asset"
	"github.com/prajwal-pl/dnd-pdf-zone/codes"
	"github.com/prajwal-pl/dnd-pdf-zone/geom"
	"github.com/prajwal-pl/dnd-pdf-zone/pdfdoc"
	"github.com/prajwal-pl/dnd-pdf-zone/template"
)

const (
	placeholderAlpha = 0.05
	checkboxAlpha    = 0.1
	textPadding      = 2
	lineSpacing      = 1.2
	underlineWidth   = 0.5
	crossWidth       = 1
)

func (r *renderer) drawStatic(pg *page, f template.Field, box geom.Box) {
	b := f.Common()
	switch f := f.(type) {
	case *template.TextField:
		drawText(pg.Page, box, f.Value, b.Style, f.Multiline)
	case *template.DateField:
		drawText(pg.Page, box, f.Value, b.Style, false)
	case *template.CheckboxField:
		drawCheckbox(pg.Page, box, f.Checked)
	case *template.ImageField:
		r.drawImage(pg, b.ID, box, f.Src, f.ObjectFit, b.Opacity)
	case *template.SignatureField:
		r.drawImage(pg, b.ID, box, f.Src, "", b.Opacity)
	case *template.QRField:
		if f.Value == "" {
			return
		}
		px := int(math.Floor(min(box.W, box.H) * r.opts.RasterScale))
		data, err := codes.QR(f.Value, px)
		r.drawCode(pg, b.ID, box, data, err)
	case *template.BarcodeField:
		if f.Value == "" {
			return
		}
		w := int(math.Floor(box.W * r.opts.RasterScale))
		h := int(math.Floor(box.H * r.opts.RasterScale))
		data, err := codes.Barcode(f.Value, f.Format, w, h)
		r.drawCode(pg, b.ID, box, data, err)
	}
}

func placeholder(p *pdfdoc.Page, box geom.Box) {
	p.FillRect(box, pdfdoc.Black, placeholderAlpha)
}

// drawText paints the placeholder box and, when value is set, the text with
// its first baseline fontSize+2 below the top edge and 2 points of
// horizontal padding.
func drawText(p *pdfdoc.Page, box geom.Box, value string, style *template.Style, multiline bool) {
	placeholder(p, box)
	if value == "" {
		return
	}
	font := fontFor(style)
	color := colorFor(style)
	var align string
	underline := false
	if style != nil {
		align, underline = style.Align, style.Underline
	}

	lines := []string{value}
	if multiline {
		lines = strings.Split(strings.ReplaceAll(value, "\r\n", "\n"), "\n")
	} else {
		lines[0] = strings.ReplaceAll(value, "\n", " ")
	}

	baseline := box.Top() - font.Size - textPadding
	for _, line := range lines {
		if line != "" {
			width := p.TextWidth(line, font)
			x := box.X + textPadding
			switch align {
			case template.AlignCenter:
				x = box.X + (box.W-width)/2
			case template.AlignRight:
				x = box.Right() - textPadding - width
			}
			p.Text(x, baseline, line, font, color)
			if underline {
				p.Line(x, baseline-1, x+width, baseline-1, underlineWidth, color)
			}
		}
		baseline -= font.Size * lineSpacing
	}
}

// drawCheckbox paints the checkbox background and, when checked, an X from
// corner to corner.
func drawCheckbox(p *pdfdoc.Page, box geom.Box, checked bool) {
	p.FillRect(box, pdfdoc.Black, checkboxAlpha)
	if !checked {
		return
	}
	p.Line(box.X, box.Y, box.Right(), box.Top(), crossWidth, pdfdoc.Black)
	p.Line(box.Right(), box.Y, box.X, box.Top(), crossWidth, pdfdoc.Black)
}

func (r *renderer) drawImage(pg *page, fieldID string, box geom.Box, src, fit string, opacity float64) {
	if src == "" {
		placeholder(pg.Page, box)
		return
	}
	data, format, err := r.load(src)
	if err != nil {
		r.warn(pdfzone.KindOf(err), pg, fieldID, err)
		placeholder(pg.Page, box)
		return
	}
	if format == asset.PDF {
		imp, err := r.doc.ImportPage(data)
		if err != nil {
			r.warn(pdfzone.WarnAssetEmbed, pg, fieldID, err)
			placeholder(pg.Page, box)
			return
		}
		pg.DrawImported(imp, box)
		return
	}
	img, err := r.doc.RegisterImage(data, format)
	if err != nil {
		r.warn(pdfzone.WarnAssetEmbed, pg, fieldID, err)
		placeholder(pg.Page, box)
		return
	}
	switch fit {
	case geom.FitCover:
		pg.Clip(box, func() {
			pg.DrawImage(img, geom.Fit(fit, img.W, img.H, box), opacity)
		})
	default:
		pg.DrawImage(img, geom.Fit(fit, img.W, img.H, box), opacity)
	}
}

func (r *renderer) drawCode(pg *page, fieldID string, box geom.Box, data []byte, err error) {
	if err == nil {
		var img pdfdoc.Image
		img, err = r.doc.RegisterImage(data, asset.PNG)
		if err == nil {
			pg.DrawImage(img, box, 1)
			return
		}
	}
	r.warn(pdfzone.KindOf(err), pg, fieldID, err)
	placeholder(pg.Page, box)
}
