// Package export turns a template and a binding context into a PDF.
//
// Export is a pure function of its inputs: it never mutates the template it
// is given and keeps no state between calls, so independent exports may run
// concurrently. Only validation and serialization failures are returned as
// errors. Every other problem (an unreachable image, a malformed data URL,
// a value the barcode symbology cannot encode) is drawn as a placeholder and
// reported in Result.Warnings.
//
// Example:
//
//	res, err := export.Export(ctx, tpl, data,
//	    export.WithAcroForm(true),
//	    export.WithFlatten(false),
//	)
package export

import (
	"context"
	"errors"

	pdfzone "github.com/prajwal-pl/dnd-pdf-zone"
	"github.com/prajwal-pl/dnd-pdf-zone/binding"
	"github.com/prajwal-pl/dnd-pdf-zone/form"
	"github.com/prajwal-pl/dnd-pdf-zone/pdfdoc"
	"github.com/prajwal-pl/dnd-pdf-zone/render"
	"github.com/prajwal-pl/dnd-pdf-zone/template"
)

// MediaType is the media type of every exported document.
const MediaType = "application/pdf"

// Result is a finished export.
type Result struct {
	Data      []byte
	MediaType string
	// Pages is the number of pages written.
	Pages int
	// Widgets is the number of interactive form fields left in Data.
	Widgets  int
	Warnings pdfzone.Warnings
}

// Export validates tpl, resolves its bindings against data and renders the
// result. Failures are *pdfzone.ExportError values whose Op is "validate",
// "render" or "serialize".
func Export(ctx context.Context, tpl *template.Template, data map[string]any, opts ...Option) (*Result, error) {
	if tpl == nil {
		return nil, pdfzone.NewExportError("validate", &template.ValidationError{
			Problems: []template.Problem{{Message: "template is missing"}},
		})
	}
	if err := template.Validate(tpl); err != nil {
		return nil, pdfzone.NewExportError("validate", err)
	}
	cfg := newConfig(opts)

	resolved := binding.Resolve(tpl, data)
	out, err := render.Render(ctx, resolved, cfg.renderOptions())
	if err != nil {
		return nil, pdfzone.NewExportError("render", err)
	}

	pdf, err := out.Doc.Bytes()
	if err != nil {
		return nil, pdfzone.NewExportError("serialize", err)
	}
	if len(out.Widgets) > 0 {
		pdf, err = form.Inject(pdf, out.Widgets)
		if err != nil {
			var se *pdfdoc.SerializationError
			if !errors.As(err, &se) {
				err = &pdfdoc.SerializationError{Err: err}
			}
			return nil, pdfzone.NewExportError("serialize", err)
		}
	}

	return &Result{
		Data:      pdf,
		MediaType: MediaType,
		Pages:     out.Doc.PageCount(),
		Widgets:   len(out.Widgets),
		Warnings:  out.Warnings,
	}, nil
}
