// Package pageops combines finished PDF documents into one.
//
// Pages are imported as form XObjects through gofpdi and redrawn at their
// original media box, so page content survives a merge but interactive form
// fields do not.
package pageops

import (
	"bytes"
	"fmt"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// A4 in points, used when a source page reports no media box.
const (
	defaultWidth  = 595.28
	defaultHeight = 841.89
)

// Options configure the merged document.
type Options struct {
	Compress     bool
	CreationDate time.Time // zero = Unix epoch
}

// Count returns the number of pages in pdf.
func Count(pdf []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(pdf), conf)
	if err != nil {
		return 0, fmt.Errorf("pageops: parsing PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("pageops: counting pages: %w", err)
	}
	return ctx.PageCount, nil
}
