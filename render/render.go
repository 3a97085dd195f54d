// Package render draws a resolved template into a PDF document.
//
// Pages and fields are visited once, in template order. Each field is handed
// to a sink chosen by the export mode: the static sink draws graphics, the
// widget sink builds interactive form widgets. Asset and code failures never
// abort a render; they are recorded as warnings and replaced by a
// placeholder.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	pdfzone "github.com/prajwal-pl/dnd-pdf-zone"
	"github.com/prajwal-pl/dnd-pdf-zone/asset"
	"github.com/prajwal-pl/dnd-pdf-zone/form"
	"github.com/prajwal-pl/dnd-pdf-zone/geom"
	"github.com/prajwal-pl/dnd-pdf-zone/pdfdoc"
	"github.com/prajwal-pl/dnd-pdf-zone/template"
)

// Mode selects how fields are emitted.
type Mode int

const (
	// Flattened draws every field as static graphics.
	Flattened Mode = iota
	// Interactive turns text, date and checkbox fields into form widgets.
	Interactive
)

func (m Mode) String() string {
	if m == Interactive {
		return "interactive"
	}
	return "flattened"
}

// Options control a render.
type Options struct {
	Mode Mode
	// Flatten burns each interactive widget into page content at its place
	// in the field order. Only meaningful in Interactive mode.
	Flatten bool
	// StaticFallback draws fields without a widget form statically in
	// Interactive mode instead of omitting them.
	StaticFallback bool

	Fetcher          asset.Fetcher // nil disables remote assets
	FetchConcurrency int           // 0 = 4
	RasterScale      float64       // pixels per point for generated codes; 0 = 1
	Compress         bool
	CreationDate     time.Time
	Logger           *slog.Logger
}

// Output is a rendered document that still has to be serialized.
type Output struct {
	Doc *pdfdoc.Document
	// Widgets left for AcroForm injection; empty unless the mode is
	// Interactive without Flatten.
	Widgets  []form.Widget
	Warnings pdfzone.Warnings
}

type renderer struct {
	opts     Options
	log      *slog.Logger
	doc      *pdfdoc.Document
	assets   map[string]fetched
	builder  *form.Builder
	warnings pdfzone.Warnings
}

// sink receives each field with its document-space box.
type sink interface {
	field(r *renderer, pg *page, f template.Field, box geom.Box)
}

type page struct {
	*pdfdoc.Page
	num int
	id  string
}

// Render draws tpl, which must already be validated and resolved.
func Render(ctx context.Context, tpl *template.Template, opts Options) (*Output, error) {
	if opts.RasterScale <= 0 {
		opts.RasterScale = 1
	}
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	created := opts.CreationDate
	if created.IsZero() {
		created = CreationDate(tpl)
	}

	r := &renderer{
		opts: opts,
		log:  logger.With("template", tpl.ID, "mode", opts.Mode.String()),
		doc: pdfdoc.New(pdfdoc.Options{
			Compress:     opts.Compress,
			CreationDate: created,
			Title:        tpl.Name,
		}),
		builder: form.NewBuilder(),
	}

	assets, err := prefetch(ctx, opts.Fetcher, remoteRefs(tpl, opts), opts.FetchConcurrency)
	if err != nil {
		return nil, err
	}
	r.assets = assets

	var s sink = staticSink{}
	if opts.Mode == Interactive {
		s = widgetSink{fallback: opts.StaticFallback, flatten: opts.Flatten}
	}

	for pi := range tpl.Pages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		p := &tpl.Pages[pi]
		pg := &page{Page: r.doc.AddPage(p.Width, p.Height), num: pi + 1, id: p.ID}
		r.background(pg, p)
		for _, f := range p.Fields {
			b := f.Common()
			box := geom.ToDocument(geom.Box{X: b.X, Y: b.Y, W: b.Width, H: b.Height}, p.Height)
			s.field(r, pg, f, box)
		}
	}

	out := &Output{Doc: r.doc}
	widgets := r.builder.Widgets()
	if opts.Flatten {
		widgets = nil
	}
	out.Widgets = widgets
	out.Warnings = r.warnings
	r.log.Debug("render complete",
		"pages", len(tpl.Pages), "widgets", len(widgets), "warnings", len(r.warnings))
	return out, nil
}

// CreationDate derives a stable creation date from the template timestamps:
// updatedAt, then createdAt, then the Unix epoch.
func CreationDate(tpl *template.Template) time.Time {
	for _, s := range []string{tpl.UpdatedAt, tpl.CreatedAt} {
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
	}
	return time.Unix(0, 0).UTC()
}

func (r *renderer) warn(kind pdfzone.WarningKind, pg *page, fieldID string, err error) {
	w := pdfzone.Warning{Kind: kind, PageID: pg.id, FieldID: fieldID, Err: err}
	r.warnings = append(r.warnings, w)
	r.log.Warn("export fallback",
		"kind", string(kind), "page", pg.id, "field", fieldID, "error", err)
}

func (r *renderer) background(pg *page, p *template.Page) {
	if p.Background == "" {
		return
	}
	full := geom.Box{W: p.Width, H: p.Height}
	data, format, err := r.load(p.Background)
	if err != nil {
		r.warn(pdfzone.KindOf(err), pg, "", err)
		return
	}
	if format == asset.PDF {
		imp, err := r.doc.ImportPage(data)
		if err != nil {
			r.warn(pdfzone.WarnAssetEmbed, pg, "", err)
			return
		}
		pg.DrawImported(imp, full)
		return
	}
	img, err := r.doc.RegisterImage(data, format)
	if err != nil {
		r.warn(pdfzone.WarnAssetEmbed, pg, "", err)
		return
	}
	pg.DrawImage(img, full, 1)
}

// staticSink draws every field as graphics.
type staticSink struct{}

func (staticSink) field(r *renderer, pg *page, f template.Field, box geom.Box) {
	r.drawStatic(pg, f, box)
}

// widgetSink turns text, date and checkbox fields into widgets. Other types
// are omitted, or drawn statically when fallback is set. With flatten, each
// widget is painted as soon as it is built, so later fields still draw over
// it.
type widgetSink struct {
	fallback bool
	flatten  bool
}

func (s widgetSink) field(r *renderer, pg *page, f template.Field, box geom.Box) {
	b := f.Common()
	if !form.Supports(f.Type()) {
		if s.fallback {
			r.drawStatic(pg, f, box)
			return
		}
		r.warn(pdfzone.WarnOmitted, pg, b.ID,
			fmt.Errorf("%w: %s field has no interactive form", pdfzone.ErrUnsupported, f.Type()))
		return
	}
	w, renamed, _ := r.builder.Add(f, pg.num, box, fontFor(b.Style), colorFor(b.Style))
	if renamed && strings.TrimSpace(b.Name) != "" {
		r.warn(pdfzone.WarnWidgetName, pg, b.ID,
			fmt.Errorf("widget name %q already used, renamed to %q", b.Name, w.Name))
	}
	if s.flatten {
		r.paintWidget(pg.Page, w)
	}
}

// paintWidget burns a widget into its page with the static policy of its
// source field.
func (r *renderer) paintWidget(p *pdfdoc.Page, w form.Widget) {
	b := w.Source.Common()
	switch w.Kind {
	case form.KindText:
		drawText(p, w.Rect, w.Value, b.Style, w.Multiline)
	case form.KindCheckbox:
		drawCheckbox(p, w.Rect, w.Checked)
	}
}
