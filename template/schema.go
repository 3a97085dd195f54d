// Package template defines the declarative page/field model that the export
// engine renders: a Template owns Pages, each Page owns an ordered list of
// typed Fields positioned in editor space (origin top-left, Y down).
//
// Example JSON:
//
//	{
//	  "id": "t1",
//	  "name": "Invoice",
//	  "createdAt": "2024-01-15T10:00:00Z",
//	  "updatedAt": "2024-01-15T10:00:00Z",
//	  "pages": [{
//	    "id": "p1", "width": 595, "height": 842,
//	    "fields": [
//	      {"type": "text", "id": "f1", "pageId": "p1", "x": 50, "y": 50,
//	       "width": 120, "height": 24, "name": "customer", "binding": "user.name"}
//	    ]
//	  }]
//	}
package template

// Template is the root document. It owns all pages.
type Template struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"` // refreshed on every structural mutation
	Pages     []Page `json:"pages"`
}

// Page is a single canvas of the template. Width and Height are in points.
type Page struct {
	ID         string  `json:"id"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Background string  `json:"background,omitempty"` // data URL or remote URL covering the page
	Fields     Fields  `json:"fields"`
}

// Project bundles a template with the binding context edited next to it.
type Project struct {
	ID           string         `json:"id"`
	Template     Template       `json:"template"`
	DataBindings map[string]any `json:"dataBindings,omitempty"`
}

// Style holds the text styling attributes of a field.
type Style struct {
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"` // 0 = default (10)
	FontWeight string  `json:"fontWeight,omitempty"`
	Color      string  `json:"color,omitempty"` // #rrggbb
	Align      string  `json:"align,omitempty"` // left, center, right
	Italic     bool    `json:"italic,omitempty"`
	Underline  bool    `json:"underline,omitempty"`
}

// Validation carries advisory input constraints. They are not enforced at
// export time.
type Validation struct {
	Regex string   `json:"regex,omitempty"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

// Alignment values for Style.Align.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

// DefaultFontSize is used when a field style leaves the size unset.
const DefaultFontSize = 10.0

// Bold reports whether the style selects a bold face.
func (s *Style) Bold() bool {
	return s != nil && s.FontWeight == "bold"
}

// Size returns the font size, falling back to DefaultFontSize.
func (s *Style) Size() float64 {
	if s == nil || s.FontSize <= 0 {
		return DefaultFontSize
	}
	return s.FontSize
}

// Page returns the page with the given id, or nil.
func (t *Template) Page(id string) *Page {
	for i := range t.Pages {
		if t.Pages[i].ID == id {
			return &t.Pages[i]
		}
	}
	return nil
}

// Field returns the field with the given id and the index of its page.
func (t *Template) Field(id string) (Field, int) {
	for pi := range t.Pages {
		for _, f := range t.Pages[pi].Fields {
			if f != nil && f.Common().ID == id {
				return f, pi
			}
		}
	}
	return nil, -1
}

// FieldCount returns the number of fields across all pages.
func (t *Template) FieldCount() int {
	n := 0
	for _, p := range t.Pages {
		n += len(p.Fields)
	}
	return n
}

// Clone returns a deep copy of the template. Field values are copied so the
// clone can be mutated without affecting t.
func (t *Template) Clone() *Template {
	out := *t
	out.Pages = make([]Page, len(t.Pages))
	for i, p := range t.Pages {
		out.Pages[i] = p
		if p.Fields != nil {
			out.Pages[i].Fields = make(Fields, len(p.Fields))
			for j, f := range p.Fields {
				if f != nil {
					out.Pages[i].Fields[j] = f.clone()
				}
			}
		}
	}
	return &out
}
