package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Default page size (A4 portrait, points).
const (
	DefaultPageWidth  = 595.0
	DefaultPageHeight = 842.0
)

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// NewID returns a fresh identifier for a template, page or field.
func NewID() string { return uuid.NewString() }

func timestamp() string { return now().Format(time.RFC3339) }

// NewTemplate returns an empty template with a generated id and timestamps.
func NewTemplate(name string) *Template {
	ts := timestamp()
	return &Template{ID: NewID(), Name: name, CreatedAt: ts, UpdatedAt: ts}
}

// NewPage returns an A4 page with a generated id and no fields.
func NewPage() Page {
	return Page{ID: NewID(), Width: DefaultPageWidth, Height: DefaultPageHeight}
}

// NewField returns a field of type t with a generated id, the schema defaults
// and a zero style, positioned at (x, y) with the given size.
func NewField(t FieldType, pageID string, x, y, w, h float64) (Field, error) {
	f, ok := newField(t)
	if !ok {
		return nil, &ValidationError{Problems: []Problem{{Path: "type", Message: fmt.Sprintf("unknown field type %q", t)}}}
	}
	b := f.Common()
	b.ID = NewID()
	b.PageID = pageID
	b.X, b.Y, b.Width, b.Height = x, y, w, h
	b.Style = &Style{}
	return f, nil
}

func (t *Template) touch() { t.UpdatedAt = timestamp() }

// AddPage appends p and returns its index.
func (t *Template) AddPage(p Page) int {
	t.Pages = append(t.Pages, p)
	t.touch()
	return len(t.Pages) - 1
}

// AddField appends f to the page named by its PageID.
func (t *Template) AddField(f Field) error {
	b := f.Common()
	p := t.Page(b.PageID)
	if p == nil {
		return fmt.Errorf("template: add field %s: no page %q", b.ID, b.PageID)
	}
	if existing, _ := t.Field(b.ID); existing != nil {
		return &ValidationError{Problems: []Problem{{Path: "id", Message: fmt.Sprintf("duplicate field id %q", b.ID)}}}
	}
	p.Fields = append(p.Fields, f)
	t.touch()
	return nil
}

// RemoveField deletes the field with the given id. It reports whether a
// field was removed.
func (t *Template) RemoveField(id string) bool {
	for pi := range t.Pages {
		fs := t.Pages[pi].Fields
		for i, f := range fs {
			if f != nil && f.Common().ID == id {
				t.Pages[pi].Fields = append(fs[:i:i], fs[i+1:]...)
				t.touch()
				return true
			}
		}
	}
	return false
}

// PatchField merges a partial JSON object into the field with the given id.
// The field's type, id and pageId cannot be changed by a patch.
func (t *Template) PatchField(id string, patch []byte) error {
	f, pi := t.Field(id)
	if f == nil {
		return fmt.Errorf("template: patch field: no field %q", id)
	}
	var head struct {
		Type   *FieldType `json:"type"`
		ID     *string    `json:"id"`
		PageID *string    `json:"pageId"`
	}
	if err := json.Unmarshal(patch, &head); err != nil {
		return fmt.Errorf("template: patch field %s: %w", id, err)
	}
	var problems []Problem
	if head.Type != nil && *head.Type != f.Type() {
		problems = append(problems, Problem{Path: "type", Message: fmt.Sprintf("cannot change type from %s to %s", f.Type(), *head.Type)})
	}
	if head.ID != nil && *head.ID != id {
		problems = append(problems, Problem{Path: "id", Message: "cannot change id"})
	}
	if head.PageID != nil && *head.PageID != f.Common().PageID {
		problems = append(problems, Problem{Path: "pageId", Message: "cannot move a field between pages"})
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}

	patched := f.clone()
	if err := json.Unmarshal(patch, patched); err != nil {
		return fmt.Errorf("template: patch field %s: %w", id, err)
	}
	for i, cur := range t.Pages[pi].Fields {
		if cur == f {
			t.Pages[pi].Fields[i] = patched
			break
		}
	}
	t.touch()
	return nil
}

// Decode parses a template from JSON and validates it.
func Decode(data []byte) (*Template, error) {
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return nil, ve
		}
		return nil, fmt.Errorf("template: decoding: %w", err)
	}
	if err := Validate(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DecodeProject parses either a Project document or a bare Template. A bare
// template yields a Project with no data bindings.
func DecodeProject(data []byte) (*Project, error) {
	var envelope struct {
		Template json.RawMessage `json:"template"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("template: decoding: %w", err)
	}
	if len(envelope.Template) == 0 {
		t, err := Decode(data)
		if err != nil {
			return nil, err
		}
		return &Project{ID: t.ID, Template: *t}, nil
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return nil, ve.prefixed("template")
		}
		return nil, fmt.Errorf("template: decoding project: %w", err)
	}
	if err := Validate(&p.Template); err != nil {
		return nil, err
	}
	return &p, nil
}
