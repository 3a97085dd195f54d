// Package pdfdoc assembles the output PDF. It wraps an fpdf document whose
// unit is the point and exposes pages through a canvas that takes
// document-space coordinates (origin bottom-left, Y up), so callers never
// deal with fpdf's top-down layout.
package pdfdoc

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	pdfzone "github.com/prajwal-pl/dnd-pdf-zone"
	"github.com/prajwal-pl/dnd-pdf-zone/asset"
)

// SerializationError reports a document that could not be written. It is
// always fatal.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string { return "pdfdoc: serializing: " + e.Err.Error() }

func (e *SerializationError) Unwrap() []error { return []error{pdfzone.ErrSerialization, e.Err} }

// EmbedError reports an image or page payload the PDF engine rejected.
type EmbedError struct {
	Format asset.Format
	Err    error
}

func (e *EmbedError) Error() string { return fmt.Sprintf("pdfdoc: embedding %s: %v", e.Format, e.Err) }

func (e *EmbedError) Unwrap() error { return e.Err }

// Options configure a new Document.
type Options struct {
	Compress     bool
	CreationDate time.Time // zero = Unix epoch, keeps output reproducible
	Title        string
	Producer     string
}

// Document is a PDF under construction. It is not safe for concurrent use.
type Document struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	importer *gofpdi.Importer
	pages    []*Page
	fontPage int // page that last received a font selection
	images   map[string]Image
	imported map[string]Imported
}

// New creates an empty document.
func New(opts Options) *Document {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: 595, Ht: 842},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(opts.Compress)
	pdf.SetCatalogSort(true)

	created := opts.CreationDate
	if created.IsZero() {
		created = time.Unix(0, 0).UTC()
	}
	pdf.SetCreationDate(created)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	producer := opts.Producer
	if producer == "" {
		producer = "pdfzone"
	}
	pdf.SetProducer(producer, false)

	return &Document{
		pdf:      pdf,
		tr:       pdf.UnicodeTranslatorFromDescriptor(""),
		images:   make(map[string]Image),
		imported: make(map[string]Imported),
	}
}

// AddPage appends a page of w x h points and returns its canvas.
func (d *Document) AddPage(w, h float64) *Page {
	d.pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
	p := &Page{doc: d, num: d.pdf.PageNo(), Width: w, Height: h}
	d.fontPage = p.num
	d.pages = append(d.pages, p)
	return p
}

// Page returns the canvas of the 1-based page n, or nil.
func (d *Document) Page(n int) *Page {
	if n < 1 || n > len(d.pages) {
		return nil
	}
	return d.pages[n-1]
}

// PageCount returns the number of pages added so far.
func (d *Document) PageCount() int { return len(d.pages) }

// Image is a raster registered with the document.
type Image struct {
	name string
	// Intrinsic size in points.
	W, H float64
}

// RegisterImage embeds an image payload once per distinct content. The
// payload is named by its hash so re-registering the same bytes is free and
// object layout depends only on content. A payload the engine rejects
// returns an *EmbedError and leaves the document usable.
func (d *Document) RegisterImage(data []byte, format asset.Format) (Image, error) {
	if format != asset.PNG && format != asset.JPEG {
		return Image{}, &EmbedError{Format: format, Err: fmt.Errorf("not a raster format")}
	}
	sum := sha256.Sum256(data)
	name := string(format) + "-" + hex.EncodeToString(sum[:12])
	if img, ok := d.images[name]; ok {
		return img, nil
	}
	if d.pdf.Err() {
		return Image{}, d.stickyError()
	}

	info := d.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: string(format)}, bytes.NewReader(data))
	if d.pdf.Err() || info == nil {
		err := d.pdf.Error()
		d.pdf.ClearError()
		if err == nil {
			err = errors.New("image not registered")
		}
		return Image{}, &EmbedError{Format: format, Err: err}
	}
	img := Image{name: name, W: info.Width(), H: info.Height()}
	d.images[name] = img
	return img, nil
}

// Imported is the first page of an external PDF, ready to be drawn as a
// form XObject.
type Imported struct {
	id   int
	W, H float64
}

// ImportPage imports page 1 of a PDF payload. Malformed payloads return an
// *EmbedError; the importer's panics are contained here.
func (d *Document) ImportPage(data []byte) (imp Imported, err error) {
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:12])
	if imp, ok := d.imported[key]; ok {
		return imp, nil
	}
	if d.importer == nil {
		d.importer = gofpdi.NewImporter()
	}
	defer func() {
		if r := recover(); r != nil {
			imp, err = Imported{}, &EmbedError{Format: asset.PDF, Err: fmt.Errorf("%v", r)}
		}
	}()

	rs := io.ReadSeeker(bytes.NewReader(data))
	id := d.importer.ImportPageFromStream(d.pdf, &rs, 1, "/MediaBox")
	if d.pdf.Err() {
		e := d.pdf.Error()
		d.pdf.ClearError()
		return Imported{}, &EmbedError{Format: asset.PDF, Err: e}
	}
	imp = Imported{id: id}
	d.imported[key] = imp
	return imp, nil
}

// Bytes serializes the document. It fails with a *SerializationError when
// the engine is in an error state or the output cannot be written. A
// document with imported pages is passed through Canonicalize, since the
// importer numbers objects and writes page resources in no fixed order.
func (d *Document) Bytes() ([]byte, error) {
	if len(d.pages) == 0 {
		return nil, &SerializationError{Err: errors.New("document has no pages")}
	}
	if d.pdf.Err() {
		return nil, d.stickyError()
	}
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, &SerializationError{Err: err}
	}
	if len(d.imported) == 0 {
		return buf.Bytes(), nil
	}
	out, err := Canonicalize(buf.Bytes())
	if err != nil {
		return nil, &SerializationError{Err: err}
	}
	return out, nil
}

func (d *Document) stickyError() error {
	return &SerializationError{Err: d.pdf.Error()}
}
