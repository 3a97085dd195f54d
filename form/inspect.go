package form

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// FieldInfo describes a form field read back from a PDF.
type FieldInfo struct {
	Name    string     `json:"name"`
	Type    string     `json:"type"` // Tx, Btn, Ch, Sig
	Value   string     `json:"value,omitempty"`
	Flags   int        `json:"flags,omitempty"`
	Rect    [4]float64 `json:"rect"`
	Page    int        `json:"page,omitempty"`
	Checked bool       `json:"checked,omitempty"`
}

// Info summarizes a PDF for inspection.
type Info struct {
	Pages  int         `json:"pages"`
	Fields []FieldInfo `json:"fields,omitempty"`
}

// Inspect reads the page count and the top-level AcroForm fields of pdf.
func Inspect(pdf []byte) (*Info, error) {
	ctx, err := readContext(pdf)
	if err != nil {
		return nil, err
	}
	info := &Info{Pages: ctx.PageCount}

	fields, err := fieldDicts(ctx)
	if err != nil {
		return nil, err
	}
	pages := pageNumbers(ctx)
	for _, f := range fields {
		fi := FieldInfo{
			Name: text(f.dict["T"]),
			Page: pages[f.pageObj],
		}
		if ft := f.dict.NameEntry("FT"); ft != nil {
			fi.Type = *ft
		}
		if ff := f.dict.IntEntry("Ff"); ff != nil {
			fi.Flags = *ff
		}
		if rect := f.dict.ArrayEntry("Rect"); len(rect) == 4 {
			for i, o := range rect {
				fi.Rect[i] = number(o)
			}
		}
		switch v := f.dict["V"].(type) {
		case types.Name:
			fi.Value = string(v)
			fi.Checked = v != "Off"
		default:
			fi.Value = text(v)
		}
		info.Fields = append(info.Fields, fi)
	}
	return info, nil
}

type fieldDict struct {
	dict    types.Dict
	ref     types.IndirectRef
	pageObj int
}

// fieldDicts returns the top-level fields of the AcroForm, or nil when the
// document has none.
func fieldDicts(ctx *model.Context) ([]fieldDict, error) {
	catalog, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("form: catalog: %w", err)
	}
	obj, found := catalog.Find("AcroForm")
	if !found {
		return nil, nil
	}
	acroForm, err := ctx.DereferenceDict(obj)
	if err != nil || acroForm == nil {
		return nil, err
	}
	arr, err := ctx.DereferenceArray(acroForm["Fields"])
	if err != nil {
		return nil, fmt.Errorf("form: fields: %w", err)
	}
	out := make([]fieldDict, 0, len(arr))
	for _, o := range arr {
		ref, ok := o.(types.IndirectRef)
		if !ok {
			continue
		}
		d, err := ctx.DereferenceDict(ref)
		if err != nil || d == nil {
			continue
		}
		fd := fieldDict{dict: d, ref: ref}
		if p, ok := d["P"].(types.IndirectRef); ok {
			fd.pageObj = p.ObjectNumber.Value()
		}
		out = append(out, fd)
	}
	return out, nil
}

// pageNumbers maps page object numbers to 1-based page numbers.
func pageNumbers(ctx *model.Context) map[int]int {
	out := make(map[int]int, ctx.PageCount)
	for i := 1; i <= ctx.PageCount; i++ {
		_, ref, _, err := ctx.PageDict(i, false)
		if err == nil && ref != nil {
			out[ref.ObjectNumber.Value()] = i
		}
	}
	return out
}

func text(o types.Object) string {
	switch v := o.(type) {
	case types.StringLiteral:
		s, err := types.StringLiteralToString(v)
		if err != nil {
			return v.Value()
		}
		return s
	case types.HexLiteral:
		s, err := types.HexLiteralToString(v)
		if err != nil {
			return v.Value()
		}
		return s
	}
	return ""
}

func number(o types.Object) float64 {
	switch v := o.(type) {
	case types.Float:
		return v.Value()
	case types.Integer:
		return float64(v.Value())
	}
	return 0
}
