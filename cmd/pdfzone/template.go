package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prajwal-pl/dnd-pdf-zone/template"
)

func (a *app) templateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Template authoring commands",
	}

	var (
		name          string
		pages         int
		width, height float64
		fields        []string
		output        string
	)
	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Create a new template skeleton",
		Long:  `Create a template with generated identifiers. Fields given with --field are stacked down the first page.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pages < 1 {
				return fmt.Errorf("--pages must be at least 1")
			}
			tpl := template.NewTemplate(name)
			for range pages {
				p := template.NewPage()
				p.Width, p.Height = width, height
				tpl.AddPage(p)
			}
			first := tpl.Pages[0].ID
			for i, typ := range fields {
				f, err := template.NewField(template.FieldType(typ), first, 40, float64(40+36*i), 160, 24)
				if err != nil {
					return err
				}
				f.Common().Name = fmt.Sprintf("%s%d", typ, i+1)
				if err := tpl.AddField(f); err != nil {
					return err
				}
			}
			if err := template.Validate(tpl); err != nil {
				return err
			}
			out, err := json.MarshalIndent(tpl, "", "  ")
			if err != nil {
				return err
			}
			return writeOutput(output, append(out, '\n'), cmd.OutOrStdout())
		},
	}
	f := newCmd.Flags()
	f.StringVarP(&name, "name", "n", "Untitled", "template name")
	f.IntVar(&pages, "pages", 1, "number of pages")
	f.Float64Var(&width, "width", template.DefaultPageWidth, "page width in points")
	f.Float64Var(&height, "height", template.DefaultPageHeight, "page height in points")
	f.StringSliceVar(&fields, "field", nil, "field type to add (repeatable): text, date, checkbox, signature, image, qr, barcode")
	f.StringVarP(&output, "output", "o", "", "output path (stdout when empty)")

	cmd.AddCommand(newCmd)
	return cmd
}
