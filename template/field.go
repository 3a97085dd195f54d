package template

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldType is the discriminator of the field union.
type FieldType string

const (
	TypeText      FieldType = "text"
	TypeDate      FieldType = "date"
	TypeCheckbox  FieldType = "checkbox"
	TypeSignature FieldType = "signature"
	TypeImage     FieldType = "image"
	TypeQR        FieldType = "qr"
	TypeBarcode   FieldType = "barcode"
)

// FieldTypes lists every field type in declaration order.
var FieldTypes = []FieldType{TypeText, TypeDate, TypeCheckbox, TypeSignature, TypeImage, TypeQR, TypeBarcode}

// Barcode symbologies.
const (
	BarcodeCode128 = "code128"
	BarcodeCode39  = "code39"
	BarcodeEAN13   = "ean13"
	BarcodePDF417  = "pdf417"
)

// Image fit modes.
const (
	FitContain = "contain"
	FitCover   = "cover"
	FitFill    = "fill"
)

// Field is a positioned, typed unit on a page. The set of implementations is
// closed: *TextField, *DateField, *CheckboxField, *SignatureField,
// *ImageField, *QRField and *BarcodeField.
type Field interface {
	// Type returns the variant discriminator. It never changes for a field.
	Type() FieldType
	// Common returns the attributes shared by every variant.
	Common() *Base
	clone() Field
}

// Base holds the geometry, style and binding attributes common to all fields.
// Geometry is in editor space: (X, Y) is the top-left corner, Y grows down.
type Base struct {
	ID         string      `json:"id"`
	PageID     string      `json:"pageId"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Rotation   float64     `json:"rotation"` // degrees; carried but not applied by the renderer
	Opacity    float64     `json:"opacity"`
	Name       string      `json:"name"`
	Required   bool        `json:"required"`
	Binding    string      `json:"binding,omitempty"` // dotted path into the data context
	Validation *Validation `json:"validation,omitempty"`
	Style      *Style      `json:"style,omitempty"`
}

// Common returns b itself.
func (b *Base) Common() *Base { return b }

func (b Base) copied() Base {
	if b.Style != nil {
		s := *b.Style
		b.Style = &s
	}
	if b.Validation != nil {
		v := *b.Validation
		if v.Min != nil {
			m := *v.Min
			v.Min = &m
		}
		if v.Max != nil {
			m := *v.Max
			v.Max = &m
		}
		b.Validation = &v
	}
	return b
}

func defaultBase() Base {
	return Base{Opacity: 1, Name: "field"}
}

// TextField is a single or multi-line text box.
type TextField struct {
	Base
	Value       string `json:"value,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Multiline   bool   `json:"multiline,omitempty"`
}

// DateField is a date rendered as literal text. Format is informational only.
type DateField struct {
	Base
	Value  string `json:"value,omitempty"`
	Format string `json:"format,omitempty"`
}

// CheckboxField is an on/off box.
type CheckboxField struct {
	Base
	Checked bool `json:"checked,omitempty"`
}

// SignatureField is a drawn signature supplied as a data URL or remote URL.
type SignatureField struct {
	Base
	Src string `json:"src,omitempty"`
}

// ImageField is a raster image supplied as a data URL or remote URL.
type ImageField struct {
	Base
	Src       string `json:"src,omitempty"`
	ObjectFit string `json:"objectFit,omitempty"` // contain, cover, fill; empty stretches
}

// QRField renders Value as a QR symbol.
type QRField struct {
	Base
	Value string `json:"value,omitempty"`
}

// BarcodeField renders Value as a linear (or PDF417) barcode.
type BarcodeField struct {
	Base
	Value  string `json:"value,omitempty"`
	Format string `json:"format,omitempty"` // code128, code39, ean13, pdf417
}

func (*TextField) Type() FieldType      { return TypeText }
func (*DateField) Type() FieldType      { return TypeDate }
func (*CheckboxField) Type() FieldType  { return TypeCheckbox }
func (*SignatureField) Type() FieldType { return TypeSignature }
func (*ImageField) Type() FieldType     { return TypeImage }
func (*QRField) Type() FieldType        { return TypeQR }
func (*BarcodeField) Type() FieldType   { return TypeBarcode }

func (f *TextField) clone() Field      { c := *f; c.Base = f.Base.copied(); return &c }
func (f *DateField) clone() Field      { c := *f; c.Base = f.Base.copied(); return &c }
func (f *CheckboxField) clone() Field  { c := *f; c.Base = f.Base.copied(); return &c }
func (f *SignatureField) clone() Field { c := *f; c.Base = f.Base.copied(); return &c }
func (f *ImageField) clone() Field     { c := *f; c.Base = f.Base.copied(); return &c }
func (f *QRField) clone() Field        { c := *f; c.Base = f.Base.copied(); return &c }
func (f *BarcodeField) clone() Field   { c := *f; c.Base = f.Base.copied(); return &c }

// CloneField returns a deep copy of f.
func CloneField(f Field) Field {
	if f == nil {
		return nil
	}
	return f.clone()
}

// newField allocates a variant with schema defaults applied.
func newField(t FieldType) (Field, bool) {
	b := defaultBase()
	switch t {
	case TypeText:
		return &TextField{Base: b}, true
	case TypeDate:
		return &DateField{Base: b, Format: "yyyy-MM-dd"}, true
	case TypeCheckbox:
		return &CheckboxField{Base: b}, true
	case TypeSignature:
		return &SignatureField{Base: b}, true
	case TypeImage:
		return &ImageField{Base: b}, true
	case TypeQR:
		return &QRField{Base: b}, true
	case TypeBarcode:
		return &BarcodeField{Base: b, Format: BarcodeCode128}, true
	}
	return nil, false
}

// DecodeField decodes one JSON field object, dispatching on its "type" key.
// Attributes absent from the JSON keep their schema defaults.
func DecodeField(data []byte) (Field, error) {
	var head struct {
		Type FieldType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("template: decoding field: %w", err)
	}
	f, ok := newField(head.Type)
	if !ok {
		return nil, &ValidationError{Problems: []Problem{{
			Path:    "type",
			Message: fmt.Sprintf("unknown field type %q", head.Type),
		}}}
	}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("template: decoding %s field: %w", head.Type, err)
	}
	return f, nil
}

// Fields is an ordered list of fields that (de)serializes as a JSON array
// of tagged objects.
type Fields []Field

// UnmarshalJSON decodes each element with DecodeField.
func (fs *Fields) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*fs = nil
		return nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("template: decoding fields: %w", err)
	}
	out := make(Fields, 0, len(raws))
	for i, raw := range raws {
		f, err := DecodeField(raw)
		if err != nil {
			if ve, ok := err.(*ValidationError); ok {
				return ve.prefixed(fmt.Sprintf("fields[%d]", i))
			}
			return fmt.Errorf("fields[%d]: %w", i, err)
		}
		out = append(out, f)
	}
	*fs = out
	return nil
}

// withType prepends the "type" discriminator to an encoded variant object.
func withType(t FieldType, body []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	head := fmt.Sprintf(`{"type":%q`, t)
	if len(body) <= 2 {
		return []byte(head + "}"), nil
	}
	out := make([]byte, 0, len(head)+len(body))
	out = append(out, head...)
	out = append(out, ',')
	return append(out, body[1:]...), nil
}

func (f *TextField) MarshalJSON() ([]byte, error) {
	type plain TextField
	b, err := json.Marshal((*plain)(f))
	return withType(TypeText, b, err)
}

func (f *DateField) MarshalJSON() ([]byte, error) {
	type plain DateField
	b, err := json.Marshal((*plain)(f))
	return withType(TypeDate, b, err)
}

func (f *CheckboxField) MarshalJSON() ([]byte, error) {
	type plain CheckboxField
	b, err := json.Marshal((*plain)(f))
	return withType(TypeCheckbox, b, err)
}

func (f *SignatureField) MarshalJSON() ([]byte, error) {
	type plain SignatureField
	b, err := json.Marshal((*plain)(f))
	return withType(TypeSignature, b, err)
}

func (f *ImageField) MarshalJSON() ([]byte, error) {
	type plain ImageField
	b, err := json.Marshal((*plain)(f))
	return withType(TypeImage, b, err)
}

func (f *QRField) MarshalJSON() ([]byte, error) {
	type plain QRField
	b, err := json.Marshal((*plain)(f))
	return withType(TypeQR, b, err)
}

func (f *BarcodeField) MarshalJSON() ([]byte, error) {
	type plain BarcodeField
	b, err := json.Marshal((*plain)(f))
	return withType(TypeBarcode, b, err)
}
