// Package binding projects an external data context onto template fields.
//
// A binding is a dotted path ("user.address.city") walked key by key through
// nested JSON-like maps. Numeric segments index into arrays ("items.0.sku").
// Any missing or null step leaves the path unresolved, which is never an
// error: the field simply keeps its existing value.
package binding

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/prajwal-pl/dnd-pdf-zone/template"
)

// Lookup walks path through ctx and returns the value found there. ok is
// false when any segment is missing, when an intermediate value is not a
// container, or when the final value is nil.
func Lookup(ctx map[string]any, path string) (v any, ok bool) {
	if ctx == nil || path == "" {
		return nil, false
	}
	var cur any = ctx
	for _, seg := range strings.Split(path, ".") {
		next, found := step(cur, seg)
		if !found || next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func step(cur any, seg string) (any, bool) {
	switch c := cur.(type) {
	case map[string]any:
		v, ok := c[seg]
		return v, ok
	case []any:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	}

	// Typed containers (map[string]string, []string, ...) from Go callers.
	rv := reflect.ValueOf(cur)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}

// Truthy reports the boolean interpretation of a resolved value: false, 0,
// NaN, the empty string and nil are false; everything else is true,
// including empty maps and slices.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	case int:
		return x != 0
	case int64:
		return x != 0
	case int32:
		return x != 0
	case uint:
		return x != 0
	case uint64:
		return x != 0
	case interface{ String() string }:
		// json.Number and friends
		if n, err := strconv.ParseFloat(x.String(), 64); err == nil {
			return n != 0 && !math.IsNaN(n)
		}
		return x.String() != ""
	}
	return true
}

// Resolve returns a copy of tpl in which every field whose binding resolves
// to a value of the expected shape has its display attribute replaced. tpl
// is not modified. Resolve is idempotent for a fixed ctx.
func Resolve(tpl *template.Template, ctx map[string]any) *template.Template {
	out := tpl.Clone()
	if len(ctx) == 0 {
		return out
	}
	for pi := range out.Pages {
		for _, f := range out.Pages[pi].Fields {
			if f == nil {
				continue
			}
			Apply(f, ctx)
		}
	}
	return out
}

// Apply resolves the binding of a single field in place and reports whether
// the field was changed.
func Apply(f template.Field, ctx map[string]any) bool {
	path := f.Common().Binding
	if path == "" {
		return false
	}
	v, ok := Lookup(ctx, path)
	if !ok {
		return false
	}

	if cb, isBox := f.(*template.CheckboxField); isBox {
		cb.Checked = Truthy(v)
		return true
	}

	s, isString := v.(string)
	if !isString {
		return false
	}
	switch f := f.(type) {
	case *template.TextField:
		f.Value = s
	case *template.DateField:
		f.Value = s
	case *template.QRField:
		f.Value = s
	case *template.BarcodeField:
		f.Value = s
	case *template.ImageField:
		f.Src = s
	case *template.SignatureField:
		f.Src = s
	default:
		return false
	}
	return true
}
