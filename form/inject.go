package form

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/prajwal-pl/dnd-pdf-zone/pdfdoc"
)

// coreFont maps a core family and style to its default-resource name and
// base font.
type coreFont struct {
	resource, base string
}

var coreFonts = map[string]coreFont{
	"Helvetica":   {"Helv", "Helvetica"},
	"HelveticaB":  {"HeBo", "Helvetica-Bold"},
	"HelveticaI":  {"HeOb", "Helvetica-Oblique"},
	"HelveticaBI": {"HeBO", "Helvetica-BoldOblique"},
	"Times":       {"TiRo", "Times-Roman"},
	"TimesB":      {"TiBo", "Times-Bold"},
	"TimesI":      {"TiIt", "Times-Italic"},
	"TimesBI":     {"TiBI", "Times-BoldItalic"},
	"Courier":     {"Cour", "Courier"},
	"CourierB":    {"CoBo", "Courier-Bold"},
	"CourierI":    {"CoOb", "Courier-Oblique"},
	"CourierBI":   {"CoBO", "Courier-BoldOblique"},
}

func fontFor(f pdfdoc.Font) coreFont {
	if cf, ok := coreFonts[f.Family+f.Style]; ok {
		return cf
	}
	return coreFonts["Helvetica"]
}

func configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func readContext(pdf []byte) (*model.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(pdf), configuration())
	if err != nil {
		return nil, fmt.Errorf("form: parsing PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("form: counting pages: %w", err)
	}
	return ctx, nil
}

// Validate runs pdfcpu's relaxed validation over a serialized PDF.
func Validate(pdf []byte) error {
	ctx, err := readContext(pdf)
	if err != nil {
		return err
	}
	if err := api.ValidateContext(ctx); err != nil {
		return fmt.Errorf("form: validating PDF: %w", err)
	}
	return nil
}

// Inject adds the widgets as an AcroForm to a serialized PDF and returns the
// rewritten document. With no widgets the input is returned unchanged.
func Inject(pdf []byte, widgets []Widget) ([]byte, error) {
	if len(widgets) == 0 {
		return pdf, nil
	}
	ctx, err := readContext(pdf)
	if err != nil {
		return nil, err
	}

	var fields types.Array
	for _, w := range widgets {
		ref, err := addWidget(ctx, w)
		if err != nil {
			return nil, fmt.Errorf("form: widget %q: %w", w.Name, err)
		}
		fields = append(fields, *ref)
	}

	resources, err := fontResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("form: font resources: %w", err)
	}
	acroForm := types.Dict{
		"Fields":          fields,
		"NeedAppearances": types.Boolean(true),
		"DA":              types.StringLiteral("/Helv 0 Tf 0 g"),
		"DR":              types.Dict{"Font": resources},
	}
	acroRef, err := ctx.IndRefForNewObject(acroForm)
	if err != nil {
		return nil, fmt.Errorf("form: acroform: %w", err)
	}
	catalog, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("form: catalog: %w", err)
	}
	catalog.Update("AcroForm", *acroRef)

	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("form: writing PDF: %w", err)
	}
	return out.Bytes(), nil
}

func fontResources(ctx *model.Context) (types.Dict, error) {
	fonts := types.Dict{}
	keys := make([]string, 0, len(coreFonts))
	for k := range coreFonts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cf := coreFonts[k]
		d := types.Dict{
			"Type":     types.Name("Font"),
			"Subtype":  types.Name("Type1"),
			"BaseFont": types.Name(cf.base),
			"Encoding": types.Name("WinAnsiEncoding"),
		}
		ref, err := ctx.IndRefForNewObject(d)
		if err != nil {
			return nil, err
		}
		fonts[cf.resource] = *ref
	}
	return fonts, nil
}

// defaultAppearance builds the /DA string for a widget from its font and
// color.
func defaultAppearance(w Widget) string {
	size := w.Font.Size
	if size <= 0 {
		size = 10
	}
	c := w.Color
	return fmt.Sprintf("/%s %s Tf %s %s %s rg", fontFor(w.Font).resource, num(size),
		num(float64(c.R)/255), num(float64(c.G)/255), num(float64(c.B)/255))
}

func num(f float64) string {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// textString encodes s as a PDF text string: a literal for ASCII, UTF-16BE
// with a byte order mark otherwise.
func textString(s string) types.Object {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return types.StringLiteral(escapePDFString(s))
	}
	buf := []byte{0xfe, 0xff}
	for _, u := range utf16.Encode([]rune(s)) {
		buf = append(buf, byte(u>>8), byte(u))
	}
	return types.HexLiteral(hex.EncodeToString(buf))
}

func addWidget(ctx *model.Context, w Widget) (*types.IndirectRef, error) {
	pageDict, pageRef, _, err := ctx.PageDict(w.Page, false)
	if err != nil {
		return nil, err
	}
	if pageDict == nil || pageRef == nil {
		return nil, fmt.Errorf("no page %d", w.Page)
	}

	r := w.Rect
	d := types.Dict{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name("Widget"),
		"T":       textString(w.Name),
		"Rect":    types.NewRectangle(r.X, r.Y, r.X+r.W, r.Y+r.H).Array(),
		"F":       types.Integer(4), // print
		"P":       *pageRef,
	}
	if ff := w.flags(); ff != 0 {
		d["Ff"] = types.Integer(ff)
	}

	switch w.Kind {
	case KindText:
		d["FT"] = types.Name("Tx")
		d["DA"] = types.StringLiteral(defaultAppearance(w))
		d["V"] = textString(w.Value)
		d["MK"] = types.Dict{}
	case KindCheckbox:
		d["FT"] = types.Name("Btn")
		state := types.Name("Off")
		if w.Checked {
			state = types.Name("Yes")
		}
		d["V"] = state
		d["AS"] = state
		ap, err := checkboxAppearance(ctx, w)
		if err != nil {
			return nil, err
		}
		d["AP"] = types.Dict{"N": ap}
	}

	ref, err := ctx.IndRefForNewObject(d)
	if err != nil {
		return nil, err
	}

	annots := types.Array{}
	if obj, found := pageDict.Find("Annots"); found {
		existing, err := ctx.DereferenceArray(obj)
		if err != nil {
			return nil, err
		}
		annots = append(annots, existing...)
	}
	annots = append(annots, *ref)
	pageDict.Update("Annots", annots)
	return ref, nil
}

// checkboxAppearance returns the /N appearance dictionary of a checkbox:
// /Yes draws the same corner-to-corner X as a flattened checkbox, /Off is
// empty.
func checkboxAppearance(ctx *model.Context, w Widget) (types.Dict, error) {
	wd, ht := w.Rect.W, w.Rect.H
	yes := fmt.Sprintf("q 0 g 0 G 1 w 0 0 m %s %s l S %s 0 m 0 %s l S Q", num(wd), num(ht), num(wd), num(ht))
	yesRef, err := formXObject(ctx, []byte(yes), wd, ht)
	if err != nil {
		return nil, err
	}
	offRef, err := formXObject(ctx, nil, wd, ht)
	if err != nil {
		return nil, err
	}
	return types.Dict{"Yes": *yesRef, "Off": *offRef}, nil
}

func formXObject(ctx *model.Context, content []byte, w, h float64) (*types.IndirectRef, error) {
	sd, err := ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	sd.InsertName("Type", "XObject")
	sd.InsertName("Subtype", "Form")
	sd.Insert("BBox", types.NewRectangle(0, 0, w, h).Array())
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return ctx.IndRefForNewObject(*sd)
}
