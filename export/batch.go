package export

import (
	"context"

	pdfzone "github.com/prajwal-pl/dnd-pdf-zone"
	"github.com/prajwal-pl/dnd-pdf-zone/pageops"
	"github.com/prajwal-pl/dnd-pdf-zone/pdfdoc"
	"github.com/prajwal-pl/dnd-pdf-zone/render"
	"github.com/prajwal-pl/dnd-pdf-zone/template"
)

// ExportBatch renders tpl once per binding context in records and merges the
// documents, in record order, into a single PDF.
//
// Merged pages are imported as static content, so batch output is always
// flattened: WithAcroForm is ignored. Warnings of every record are
// concatenated in record order. The first fatal failure aborts the batch.
func ExportBatch(ctx context.Context, tpl *template.Template, records []map[string]any, opts ...Option) (*Result, error) {
	if len(records) == 0 {
		return nil, pdfzone.NewExportError("validate", &template.ValidationError{
			Problems: []template.Problem{{Path: "records", Message: "must not be empty"}},
		})
	}
	opts = append(opts[:len(opts):len(opts)], WithAcroForm(false))

	res := &Result{MediaType: MediaType}
	docs := make([][]byte, 0, len(records))
	for _, data := range records {
		r, err := Export(ctx, tpl, data, opts...)
		if err != nil {
			return nil, err
		}
		docs = append(docs, r.Data)
		res.Pages += r.Pages
		res.Warnings = append(res.Warnings, r.Warnings...)
	}
	if len(docs) == 1 {
		res.Data = docs[0]
		return res, nil
	}

	cfg := newConfig(opts)
	created := cfg.creationDate
	if created.IsZero() {
		created = render.CreationDate(tpl)
	}
	merged, err := pageops.Merge(pageops.Options{Compress: cfg.compress, CreationDate: created}, docs...)
	if err != nil {
		return nil, pdfzone.NewExportError("serialize", &pdfdoc.SerializationError{Err: err})
	}
	res.Data = merged
	return res, nil
}
