package template_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	pdfzone "github.com/prajwal-pl/dnd-pdf-zone"
	"github.com/prajwal-pl/dnd-pdf-zone/template"
)

const invoiceJSON = `{
  "id": "t1",
  "name": "Invoice",
  "createdAt": "2024-01-15T10:00:00Z",
  "updatedAt": "2024-01-15T10:00:00Z",
  "pages": [{
    "id": "p1", "width": 595, "height": 842,
    "fields": [
      {"type": "text", "id": "f1", "pageId": "p1", "x": 50, "y": 50, "width": 120, "height": 24,
       "name": "customer", "binding": "user.name", "style": {"fontSize": 12, "fontWeight": "bold"}},
      {"type": "date", "id": "f2", "pageId": "p1", "x": 50, "y": 80, "width": 120, "height": 24, "name": "due"},
      {"type": "checkbox", "id": "f3", "pageId": "p1", "x": 50, "y": 110, "width": 12, "height": 12, "name": "paid", "checked": true},
      {"type": "barcode", "id": "f4", "pageId": "p1", "x": 50, "y": 130, "width": 200, "height": 60, "name": "sku", "value": "ABC-1"},
      {"type": "image", "id": "f5", "pageId": "p1", "x": 300, "y": 50, "width": 100, "height": 100, "name": "logo", "objectFit": "contain"}
    ]
  }]
}`

func TestDecodeDefaults(t *testing.T) {
	tpl, err := template.Decode([]byte(invoiceJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := tpl.FieldCount(); got != 5 {
		t.Fatalf("expected 5 fields, got %d", got)
	}

	date, ok := tpl.Pages[0].Fields[1].(*template.DateField)
	if !ok {
		t.Fatalf("field 1 is %T, want *DateField", tpl.Pages[0].Fields[1])
	}
	if date.Format != "yyyy-MM-dd" {
		t.Errorf("date format default = %q", date.Format)
	}
	if date.Opacity != 1 {
		t.Errorf("opacity default = %v, want 1", date.Opacity)
	}

	bc := tpl.Pages[0].Fields[3].(*template.BarcodeField)
	if bc.Format != template.BarcodeCode128 {
		t.Errorf("barcode format default = %q", bc.Format)
	}

	text := tpl.Pages[0].Fields[0].(*template.TextField)
	if !text.Style.Bold() || text.Style.Size() != 12 {
		t.Errorf("style = %+v", *text.Style)
	}
}

func TestRoundTripKeepsType(t *testing.T) {
	tpl, err := template.Decode([]byte(invoiceJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	data, err := json.Marshal(tpl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `{"type":"checkbox","id":"f3"`) {
		t.Errorf("type discriminator missing or misplaced: %s", data)
	}
	again, err := template.Decode(data)
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	for i := range tpl.Pages[0].Fields {
		a, b := tpl.Pages[0].Fields[i], again.Pages[0].Fields[i]
		if a.Type() != b.Type() {
			t.Errorf("field %d type %s != %s", i, a.Type(), b.Type())
		}
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("field %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestUnknownTypeRejected(t *testing.T) {
	doc := `{"id":"t","pages":[{"id":"p","width":10,"height":10,"fields":[{"type":"slider","id":"f","pageId":"p"}]}]}`
	_, err := template.Decode([]byte(doc))
	if err == nil {
		t.Fatal("expected error for unknown field type")
	}
	if !errors.Is(err, pdfzone.ErrValidation) {
		t.Errorf("error %v does not wrap ErrValidation", err)
	}
	var ve *template.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error %T is not a ValidationError", err)
	}
	if ve.Problems[0].Path != "fields[0].type" {
		t.Errorf("path = %q", ve.Problems[0].Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*template.Template)
		paths []string
	}{
		{"valid", func(*template.Template) {}, nil},
		{"negative x", func(t *template.Template) { t.Pages[0].Fields[0].Common().X = -1 }, []string{"pages[0].fields[0].x"}},
		{"zero width", func(t *template.Template) { t.Pages[0].Fields[1].Common().Width = 0 }, []string{"pages[0].fields[1].width"}},
		{"opacity above one", func(t *template.Template) { t.Pages[0].Fields[2].Common().Opacity = 1.5 }, []string{"pages[0].fields[2].opacity"}},
		{"duplicate id", func(t *template.Template) { t.Pages[0].Fields[1].Common().ID = "f1" }, []string{"pages[0].fields[1].id"}},
		{"wrong page id", func(t *template.Template) { t.Pages[0].Fields[0].Common().PageID = "p9" }, []string{"pages[0].fields[0].pageId"}},
		{"empty name", func(t *template.Template) { t.Pages[0].Fields[0].Common().Name = " " }, []string{"pages[0].fields[0].name"}},
		{"page height", func(t *template.Template) { t.Pages[0].Height = 0 }, []string{"pages[0].height"}},
		{"barcode format", func(t *template.Template) {
			t.Pages[0].Fields[3].(*template.BarcodeField).Format = "upc"
		}, []string{"pages[0].fields[3].format"}},
		{"object fit", func(t *template.Template) {
			t.Pages[0].Fields[4].(*template.ImageField).ObjectFit = "tile"
		}, []string{"pages[0].fields[4].objectFit"}},
		{"two problems", func(t *template.Template) {
			t.Pages[0].Fields[0].Common().Y = -3
			t.Pages[0].Fields[0].Common().Height = -3
		}, []string{"pages[0].fields[0].y", "pages[0].fields[0].height"}},
	}

	base, err := template.Decode([]byte(invoiceJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := base.Clone()
			tt.edit(tpl)
			err := template.Validate(tpl)
			if tt.paths == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *template.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			var got []string
			for _, p := range ve.Problems {
				got = append(got, p.Path)
			}
			if diff := cmp.Diff(tt.paths, got); diff != "" {
				t.Errorf("problem paths (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	tpl, err := template.Decode([]byte(invoiceJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	c := tpl.Clone()
	c.Pages[0].Fields[0].(*template.TextField).Value = "changed"
	c.Pages[0].Fields[0].Common().Style.FontSize = 30
	c.Pages[0].Width = 1

	orig := tpl.Pages[0].Fields[0].(*template.TextField)
	if orig.Value != "" || orig.Style.FontSize != 12 || tpl.Pages[0].Width != 595 {
		t.Error("mutating the clone changed the original")
	}
}

func TestEditingLifecycle(t *testing.T) {
	tpl := template.NewTemplate("Form")
	if tpl.ID == "" || tpl.CreatedAt == "" || tpl.UpdatedAt == "" {
		t.Fatalf("new template missing id/timestamps: %+v", tpl)
	}
	page := template.NewPage()
	tpl.AddPage(page)

	f, err := template.NewField(template.TypeText, page.ID, 10, 10, 100, 20)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	if err := tpl.AddField(f); err != nil {
		t.Fatalf("add field: %v", err)
	}
	if err := tpl.AddField(f); err == nil {
		t.Error("adding the same field twice should fail")
	}
	id := f.Common().ID

	if err := tpl.PatchField(id, []byte(`{"value":"hello","x":40}`)); err != nil {
		t.Fatalf("patch: %v", err)
	}
	got, _ := tpl.Field(id)
	tf := got.(*template.TextField)
	if tf.Value != "hello" || tf.X != 40 || tf.Width != 100 {
		t.Errorf("patched field = %+v", tf)
	}

	err = tpl.PatchField(id, []byte(`{"type":"checkbox"}`))
	if !errors.Is(err, pdfzone.ErrValidation) {
		t.Errorf("type change: got %v, want validation error", err)
	}
	if got, _ := tpl.Field(id); got.Type() != template.TypeText {
		t.Error("type changed after rejected patch")
	}

	if err := template.Validate(tpl); err != nil {
		t.Errorf("validate: %v", err)
	}

	if !tpl.RemoveField(id) {
		t.Fatal("remove returned false")
	}
	if tpl.RemoveField(id) {
		t.Error("second remove returned true")
	}
	if tpl.FieldCount() != 0 {
		t.Errorf("field count = %d", tpl.FieldCount())
	}

	if _, err := template.NewField("slider", page.ID, 0, 0, 1, 1); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestDecodeProject(t *testing.T) {
	doc := `{"id":"proj","template":` + invoiceJSON + `,"dataBindings":{"user":{"name":"Ada"}}}`
	p, err := template.DecodeProject([]byte(doc))
	if err != nil {
		t.Fatalf("decode project: %v", err)
	}
	if p.Template.ID != "t1" {
		t.Errorf("template id = %q", p.Template.ID)
	}
	user, _ := p.DataBindings["user"].(map[string]any)
	if user["name"] != "Ada" {
		t.Errorf("data bindings = %v", p.DataBindings)
	}

	bare, err := template.DecodeProject([]byte(invoiceJSON))
	if err != nil {
		t.Fatalf("decode bare template: %v", err)
	}
	if bare.Template.Name != "Invoice" || bare.DataBindings != nil {
		t.Errorf("bare project = %+v", bare)
	}
}
