// Package pdfzone holds the error taxonomy and warning types shared by the
// template export engine. The engine itself lives in the export, render,
// template, binding, asset, codes, geom, form and pdfdoc packages.
package pdfzone

import (
	"errors"
	"fmt"
)

// Sentinel errors for the export failure taxonomy. Concrete error types in
// the sub-packages unwrap to one of these, so callers can test with errors.Is.
var (
	ErrValidation     = errors.New("pdfzone: invalid template")
	ErrAssetDecode    = errors.New("pdfzone: malformed asset payload")
	ErrAssetFetch     = errors.New("pdfzone: asset fetch failed")
	ErrCodeGeneration = errors.New("pdfzone: code generation failed")
	ErrSerialization  = errors.New("pdfzone: document serialization failed")
	ErrUnsupported    = errors.New("pdfzone: unsupported operation")
)

// ExportError represents a fatal failure of one export step.
// It wraps an underlying error and includes the step name for context.
type ExportError struct {
	Op  string // step name, e.g. "validate", "render", "serialize"
	Err error  // underlying error
}

func (e *ExportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdfzone.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pdfzone.%s: unknown error", e.Op)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewExportError creates a new ExportError wrapping err with step context.
func NewExportError(op string, err error) *ExportError {
	return &ExportError{Op: op, Err: err}
}

// IsFatal reports whether err belongs to the part of the taxonomy that
// aborts an export. Asset and code generation failures never do.
func IsFatal(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrSerialization)
}
