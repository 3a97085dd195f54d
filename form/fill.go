package form

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Fill sets the values of existing form fields and returns the rewritten
// PDF. Field names are matched case-sensitively. Text fields take the value
// as is; checkboxes are checked by "yes", "true", "on" or "1" in any case and
// cleared by anything else. Naming a field the form does not have is an error.
func Fill(pdf []byte, values map[string]string) ([]byte, error) {
	if len(values) == 0 {
		return pdf, nil
	}
	ctx, err := readContext(pdf)
	if err != nil {
		return nil, err
	}
	fields, err := fieldDicts(ctx)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("form: no form fields found in PDF")
	}

	byName := make(map[string]types.Dict, len(fields))
	for _, f := range fields {
		byName[text(f.dict["T"])] = f.dict
	}
	names := make([]string, 0, len(values))
	for name := range values {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("form: field %q not found in PDF", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		d, v := byName[name], values[name]
		ft := d.NameEntry("FT")
		switch {
		case ft != nil && *ft == "Btn":
			state := types.Name("Off")
			if checks(v) {
				state = "Yes"
			}
			d.Update("V", state)
			d.Update("AS", state)
		default:
			d.Update("V", textString(v))
		}
	}

	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("form: writing PDF: %w", err)
	}
	return out.Bytes(), nil
}

func checks(v string) bool {
	for _, on := range []string{"yes", "true", "on", "1"} {
		if strings.EqualFold(strings.TrimSpace(v), on) {
			return true
		}
	}
	return false
}
