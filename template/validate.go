package template

import (
	"fmt"
	"math"
	"strings"

	pdfzone "github.com/prajwal-pl/dnd-pdf-zone"
)

// Problem is one schema violation, addressed by a JSON-like path.
type Problem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

// ValidationError reports every schema violation found in a template.
// It is fatal: a template that fails validation is never rendered.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	switch len(e.Problems) {
	case 0:
		return "template: invalid template"
	case 1:
		return "template: " + e.Problems[0].String()
	}
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("template: %d problems: %s", len(e.Problems), strings.Join(parts, "; "))
}

// Unwrap ties the error to pdfzone.ErrValidation.
func (e *ValidationError) Unwrap() error { return pdfzone.ErrValidation }

func (e *ValidationError) prefixed(prefix string) *ValidationError {
	out := &ValidationError{Problems: make([]Problem, len(e.Problems))}
	for i, p := range e.Problems {
		if p.Path == "" {
			p.Path = prefix
		} else {
			p.Path = prefix + "." + p.Path
		}
		out.Problems[i] = p
	}
	return out
}

type validator struct {
	problems []Problem
}

func (v *validator) addf(path, format string, args ...any) {
	v.problems = append(v.problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Validate checks the template against the schema constraints the renderer
// relies on: positive page sizes, non-negative field origins, positive field
// sizes, opacity within [0,1], unique page and field ids, matching pageIds and
// known enumerations. It returns a *ValidationError listing every problem.
func Validate(t *Template) error {
	if t == nil {
		return &ValidationError{Problems: []Problem{{Message: "template is nil"}}}
	}
	v := &validator{}
	pageIDs := make(map[string]int)
	fieldIDs := make(map[string]string)

	for pi, p := range t.Pages {
		pp := fmt.Sprintf("pages[%d]", pi)
		if p.ID == "" {
			v.addf(pp+".id", "must not be empty")
		} else if prev, dup := pageIDs[p.ID]; dup {
			v.addf(pp+".id", "duplicate page id %q (also pages[%d])", p.ID, prev)
		} else {
			pageIDs[p.ID] = pi
		}
		if !finite(p.Width) || p.Width <= 0 {
			v.addf(pp+".width", "must be positive, got %v", p.Width)
		}
		if !finite(p.Height) || p.Height <= 0 {
			v.addf(pp+".height", "must be positive, got %v", p.Height)
		}

		for fi, f := range p.Fields {
			fp := fmt.Sprintf("%s.fields[%d]", pp, fi)
			if f == nil {
				v.addf(fp, "must not be null")
				continue
			}
			b := f.Common()
			if b.ID == "" {
				v.addf(fp+".id", "must not be empty")
			} else if prev, dup := fieldIDs[b.ID]; dup {
				v.addf(fp+".id", "duplicate field id %q (also %s)", b.ID, prev)
			} else {
				fieldIDs[b.ID] = fp
			}
			if b.PageID != p.ID {
				v.addf(fp+".pageId", "is %q but the field is on page %q", b.PageID, p.ID)
			}
			v.geometry(fp, b)
			v.variant(fp, f)
		}
	}

	if len(v.problems) > 0 {
		return &ValidationError{Problems: v.problems}
	}
	return nil
}

func (v *validator) geometry(fp string, b *Base) {
	if !finite(b.X) || b.X < 0 {
		v.addf(fp+".x", "must be >= 0, got %v", b.X)
	}
	if !finite(b.Y) || b.Y < 0 {
		v.addf(fp+".y", "must be >= 0, got %v", b.Y)
	}
	if !finite(b.Width) || b.Width <= 0 {
		v.addf(fp+".width", "must be positive, got %v", b.Width)
	}
	if !finite(b.Height) || b.Height <= 0 {
		v.addf(fp+".height", "must be positive, got %v", b.Height)
	}
	if !finite(b.Opacity) || b.Opacity < 0 || b.Opacity > 1 {
		v.addf(fp+".opacity", "must be within [0,1], got %v", b.Opacity)
	}
	if !finite(b.Rotation) {
		v.addf(fp+".rotation", "must be a finite number")
	}
	if strings.TrimSpace(b.Name) == "" {
		v.addf(fp+".name", "must not be empty")
	}
	if s := b.Style; s != nil {
		switch s.Align {
		case "", AlignLeft, AlignCenter, AlignRight:
		default:
			v.addf(fp+".style.align", "unknown alignment %q", s.Align)
		}
		if !finite(s.FontSize) || s.FontSize < 0 {
			v.addf(fp+".style.fontSize", "must be >= 0, got %v", s.FontSize)
		}
	}
}

func (v *validator) variant(fp string, f Field) {
	switch f := f.(type) {
	case *ImageField:
		switch f.ObjectFit {
		case "", FitContain, FitCover, FitFill:
		default:
			v.addf(fp+".objectFit", "unknown object fit %q", f.ObjectFit)
		}
	case *BarcodeField:
		if !ValidBarcodeFormat(f.Format) {
			v.addf(fp+".format", "unknown barcode format %q", f.Format)
		}
	}
}

// ValidBarcodeFormat reports whether format names a supported symbology.
func ValidBarcodeFormat(format string) bool {
	switch format {
	case BarcodeCode128, BarcodeCode39, BarcodeEAN13, BarcodePDF417:
		return true
	}
	return false
}
