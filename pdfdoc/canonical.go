package pdfdoc

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Canonicalize rewrites pdf so that documents with equal content serialize
// to equal bytes. Objects are renumbered in the order they are first reached
// from the catalog and then the info dictionary, dictionary keys are written
// sorted, and the file identifier is a hash of the body. Encrypted input is
// returned unchanged.
func Canonicalize(pdf []byte) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfdoc: reading for rewrite: %w", err)
	}
	if ctx.Encrypt != nil {
		return pdf, nil
	}
	if ctx.Root == nil {
		return nil, errors.New("pdfdoc: rewrite: no catalog")
	}

	c := &canonicalizer{xt: ctx.XRefTable, nums: make(map[int]int)}
	for _, ref := range []*types.IndirectRef{ctx.Root, ctx.Info} {
		if ref == nil {
			continue
		}
		if err := c.number(*ref); err != nil {
			return nil, fmt.Errorf("pdfdoc: rewrite: %w", err)
		}
	}
	return c.write(header(pdf), ctx.Root, ctx.Info)
}

type canonicalizer struct {
	xt    *model.XRefTable
	nums  map[int]int
	order []types.IndirectRef
}

func (c *canonicalizer) number(ref types.IndirectRef) error {
	old := ref.ObjectNumber.Value()
	if _, ok := c.nums[old]; ok {
		return nil
	}
	c.order = append(c.order, ref)
	c.nums[old] = len(c.order)

	o, err := c.xt.Dereference(ref)
	if err != nil {
		return err
	}
	return c.walk(o)
}

func (c *canonicalizer) walk(o types.Object) error {
	switch o := o.(type) {
	case types.IndirectRef:
		return c.number(o)
	case *types.IndirectRef:
		return c.number(*o)
	case types.Dict:
		return c.walkDict(o)
	case types.StreamDict:
		return c.walkDict(o.Dict)
	case types.Array:
		for _, v := range o {
			if err := c.walk(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// walkDict skips /Length, which write replaces with a direct integer.
func (c *canonicalizer) walkDict(d types.Dict) error {
	for _, k := range sortedKeys(d) {
		if k == "Length" {
			continue
		}
		if err := c.walk(d[k]); err != nil {
			return err
		}
	}
	return nil
}

func (c *canonicalizer) remap(o types.Object) types.Object {
	switch o := o.(type) {
	case types.IndirectRef:
		return *types.NewIndirectRef(c.nums[o.ObjectNumber.Value()], 0)
	case *types.IndirectRef:
		return *types.NewIndirectRef(c.nums[o.ObjectNumber.Value()], 0)
	case types.Dict:
		d := types.NewDict()
		for k, v := range o {
			d[k] = c.remap(v)
		}
		return d
	case types.Array:
		a := make(types.Array, len(o))
		for i, v := range o {
			a[i] = c.remap(v)
		}
		return a
	}
	return o
}

func (c *canonicalizer) write(head []byte, root, info *types.IndirectRef) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(head)

	offsets := make([]int, len(c.order))
	for i, ref := range c.order {
		o, err := c.xt.Dereference(ref)
		if err != nil {
			return nil, fmt.Errorf("pdfdoc: rewrite: object %d: %w", ref.ObjectNumber.Value(), err)
		}
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		switch o := o.(type) {
		case nil:
			buf.WriteString("null")
		case types.StreamDict:
			d := c.remap(o.Dict).(types.Dict)
			d["Length"] = types.Integer(len(o.Raw))
			buf.WriteString(d.PDFString())
			buf.WriteString("\nstream\n")
			buf.Write(o.Raw)
			buf.WriteString("\nendstream")
		default:
			buf.WriteString(c.remap(o).PDFString())
		}
		buf.WriteString("\nendobj\n")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(c.order)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	sum := sha256.Sum256(buf.Bytes())
	id := types.NewHexLiteral(sum[:16])
	trailer := types.NewDict()
	trailer["Size"] = types.Integer(len(c.order) + 1)
	trailer["Root"] = c.remap(*root)
	if info != nil {
		trailer["Info"] = c.remap(*info)
	}
	trailer["ID"] = types.Array{id, id}
	fmt.Fprintf(&buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer.PDFString(), xref)
	return buf.Bytes(), nil
}

// header returns the version line of pdf, including its line break.
func header(pdf []byte) []byte {
	if i := bytes.IndexByte(pdf, '\n'); i > 0 && bytes.HasPrefix(pdf, []byte("%PDF-")) {
		return pdf[:i+1]
	}
	return []byte("%PDF-1.4\n")
}

func sortedKeys(d types.Dict) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
