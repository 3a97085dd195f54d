package pageops

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	"github.com/prajwal-pl/dnd-pdf-zone/pdfdoc"
)

// Merge concatenates docs in order: every page of the first document, then
// every page of the second, and so on. Each page keeps its own size. The
// result is canonicalized, so equal inputs merge to equal bytes.
func Merge(opts Options, docs ...[]byte) ([]byte, error) {
	if len(docs) == 0 {
		return nil, errors.New("pageops: no documents to merge")
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{UnitStr: "pt", Size: fpdf.SizeType{Wd: defaultWidth, Ht: defaultHeight}})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(opts.Compress)
	pdf.SetCatalogSort(true)
	created := opts.CreationDate
	if created.IsZero() {
		created = time.Unix(0, 0).UTC()
	}
	pdf.SetCreationDate(created)

	// one importer for every source keeps template names unique
	imp := gofpdi.NewImporter()
	for i, doc := range docs {
		if err := appendDocument(pdf, imp, doc); err != nil {
			return nil, fmt.Errorf("pageops: merging document %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pageops: writing PDF: %w", err)
	}
	out, err := pdfdoc.Canonicalize(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("pageops: %w", err)
	}
	return out, nil
}

// appendDocument imports every page of doc into pdf. The importer panics on
// malformed input; that is turned into an error here.
func appendDocument(pdf *fpdf.Fpdf, imp *gofpdi.Importer, doc []byte) (err error) {
	pages, err := Count(doc)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("importing pages: %v", r)
		}
	}()

	rs := io.ReadSeeker(bytes.NewReader(doc))
	for n := 1; n <= pages; n++ {
		id := imp.ImportPageFromStream(pdf, &rs, n, "/MediaBox")
		w, h := mediaBox(imp, n)
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		imp.UseImportedTemplate(pdf, id, 0, 0, w, h)
	}
	return pdf.Error()
}

func mediaBox(imp *gofpdi.Importer, page int) (w, h float64) {
	if box, ok := imp.GetPageSizes()[page]["/MediaBox"]; ok {
		w, h = box["w"], box["h"]
	}
	if w <= 0 || h <= 0 {
		return defaultWidth, defaultHeight
	}
	return w, h
}
