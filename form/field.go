// Package form turns template fields into interactive AcroForm widgets.
//
// Widgets are collected with a Builder while pages are rendered, then
// injected into the serialized PDF (Inject). Only text-like fields and
// checkboxes have widget forms.
package form

import (
	"fmt"
	"strings"

	"github.com/prajwal-pl/dnd-pdf-zone/geom"
	"github.com/prajwal-pl/dnd-pdf-zone/pdfdoc"
	"github.com/prajwal-pl/dnd-pdf-zone/template"
)

// Kind specifies the type of widget.
type Kind int

const (
	KindText     Kind = iota // single or multi-line text input
	KindCheckbox             // checkbox (on/off)
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindCheckbox:
		return "checkbox"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Field flag bits (PDF 32000-1, 12.7.3.1 and 12.7.4.3).
const (
	flagReadOnly  = 1 << 0
	flagRequired  = 1 << 1
	flagMultiline = 1 << 12
)

// Widget is one interactive field placed on a page.
type Widget struct {
	Name      string   // unique within the form
	Kind      Kind     // widget type
	Page      int      // page number (1-based)
	Rect      geom.Box // document space
	Value     string   // text value
	Checked   bool     // checkbox state
	Multiline bool     // for text widgets: allow multi-line input
	Required  bool
	ReadOnly  bool
	Font      pdfdoc.Font
	Color     pdfdoc.Color
	Source    template.Field // field the widget was built from
}

// Supports reports whether a field type has a widget form.
func Supports(t template.FieldType) bool {
	switch t {
	case template.TypeText, template.TypeDate, template.TypeCheckbox:
		return true
	}
	return false
}

// Builder collects widgets and keeps their names unique.
type Builder struct {
	widgets []Widget
	names   map[string]struct{}
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{names: make(map[string]struct{})}
}

// Add builds the widget for f on the given page and records it. It returns
// false when f has no widget form. When the field's name is empty or already
// taken, the field id is used instead and renamed is true; if the id is
// taken as well a numeric suffix is appended.
func (b *Builder) Add(f template.Field, page int, rect geom.Box, font pdfdoc.Font, color pdfdoc.Color) (w Widget, renamed, ok bool) {
	base := f.Common()
	w = Widget{
		Page:     page,
		Rect:     rect,
		Required: base.Required,
		Font:     font,
		Color:    color,
		Source:   f,
	}
	switch f := f.(type) {
	case *template.TextField:
		w.Kind, w.Value, w.Multiline = KindText, f.Value, f.Multiline
	case *template.DateField:
		w.Kind, w.Value = KindText, f.Value
	case *template.CheckboxField:
		w.Kind, w.Checked = KindCheckbox, f.Checked
	default:
		return Widget{}, false, false
	}

	w.Name, renamed = b.uniqueName(strings.TrimSpace(base.Name), base.ID)
	b.names[w.Name] = struct{}{}
	b.widgets = append(b.widgets, w)
	return w, renamed, true
}

func (b *Builder) uniqueName(name, id string) (string, bool) {
	if _, taken := b.names[name]; name != "" && !taken {
		return name, false
	}
	if _, taken := b.names[id]; !taken {
		return id, true
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", id, i)
		if _, taken := b.names[candidate]; !taken {
			return candidate, true
		}
	}
}

// Widgets returns the widgets in the order they were added.
func (b *Builder) Widgets() []Widget { return b.widgets }

// Len returns the number of widgets.
func (b *Builder) Len() int { return len(b.widgets) }

// flags returns the /Ff value for w.
func (w Widget) flags() int {
	var ff int
	if w.ReadOnly {
		ff |= flagReadOnly
	}
	if w.Required {
		ff |= flagRequired
	}
	if w.Kind == KindText && w.Multiline {
		ff |= flagMultiline
	}
	return ff
}

// escapePDFString escapes special characters in a PDF string.
func escapePDFString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `(`, `\(`)
	s = strings.ReplaceAll(s, `)`, `\)`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
