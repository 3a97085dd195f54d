package pdfzone

import (
	"encoding/json"
	"errors"
	"fmt"
)

// WarningKind classifies a degraded-but-successful export step.
type WarningKind string

const (
	WarnAssetDecode    WarningKind = "asset_decode"
	WarnAssetFetch     WarningKind = "asset_fetch"
	WarnAssetEmbed     WarningKind = "asset_embed"
	WarnCodeGeneration WarningKind = "code_generation"
	WarnWidgetName     WarningKind = "widget_name"
	WarnOmitted        WarningKind = "omitted"
)

// Warning records a fallback taken while rendering. PageID is always set;
// FieldID is empty for page-level steps such as the background.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	PageID  string      `json:"pageId"`
	FieldID string      `json:"fieldId,omitempty"`
	Err     error       `json:"-"`
}

func (w Warning) String() string {
	target := "page " + w.PageID
	if w.FieldID != "" {
		target += " field " + w.FieldID
	}
	if w.Err == nil {
		return fmt.Sprintf("%s: %s", w.Kind, target)
	}
	return fmt.Sprintf("%s: %s: %v", w.Kind, target, w.Err)
}

// MarshalJSON includes the error message, which has no JSON form of its own.
func (w Warning) MarshalJSON() ([]byte, error) {
	type plain Warning
	out := struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain: plain(w)}
	if w.Err != nil {
		out.Error = w.Err.Error()
	}
	return json.Marshal(out)
}

// KindOf maps a non-fatal error onto its warning kind.
func KindOf(err error) WarningKind {
	switch {
	case errors.Is(err, ErrAssetFetch):
		return WarnAssetFetch
	case errors.Is(err, ErrAssetDecode):
		return WarnAssetDecode
	case errors.Is(err, ErrCodeGeneration):
		return WarnCodeGeneration
	default:
		return WarnAssetEmbed
	}
}

// Warnings is the ordered list of fallbacks taken during one export.
type Warnings []Warning

// Count returns the number of warnings of the given kind.
func (ws Warnings) Count(kind WarningKind) int {
	n := 0
	for _, w := range ws {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// ForField returns the warnings recorded against one field, in order.
func (ws Warnings) ForField(fieldID string) Warnings {
	var out Warnings
	for _, w := range ws {
		if w.FieldID == fieldID {
			out = append(out, w)
		}
	}
	return out
}
