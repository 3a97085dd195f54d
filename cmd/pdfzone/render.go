package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prajwal-pl/dnd-pdf-zone/binding"
	"github.com/prajwal-pl/dnd-pdf-zone/export"
)

func (a *app) renderCmd() *cobra.Command {
	var (
		dataPath       string
		batchPath      string
		output         string
		acroForm       bool
		flatten        bool
		staticFallback bool
		noCompress     bool
		noRemote       bool
		strict         bool
	)
	cmd := &cobra.Command{
		Use:   "render TEMPLATE",
		Short: "Render a template to PDF",
		Long: `Render a template (or project) file to PDF. Use "-" to read the template from stdin.
Without -o the PDF is written to stdout. Fallbacks such as unreachable images are logged as warnings.

With --batch the file holds a JSON array of binding contexts; the template is
rendered once per context and the documents are merged into one flattened PDF.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, data, err := loadProject(args[0], dataPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			fetcher := a.cfg.Assets.Fetcher()
			if noRemote {
				fetcher = nil
			}
			opts := append(a.cfg.Options(fetcher), export.WithLogger(a.logger))
			flags := cmd.Flags()
			if flags.Changed("acroform") {
				opts = append(opts, export.WithAcroForm(acroForm))
			}
			if flags.Changed("flatten") {
				opts = append(opts, export.WithFlatten(flatten))
			}
			if flags.Changed("static-fallback") {
				opts = append(opts, export.WithStaticFallback(staticFallback))
			}
			if noCompress {
				opts = append(opts, export.WithCompression(false))
			}

			var res *export.Result
			if batchPath != "" {
				records, err := loadRecords(batchPath, cmd.InOrStdin())
				if err != nil {
					return err
				}
				res, err = export.ExportBatch(cmd.Context(), tpl, records, opts...)
				if err != nil {
					return err
				}
			} else {
				res, err = export.Export(cmd.Context(), tpl, data, opts...)
				if err != nil {
					return err
				}
			}
			if strict && len(res.Warnings) > 0 {
				return fmt.Errorf("%d fallback(s) taken, first: %v", len(res.Warnings), res.Warnings[0])
			}
			if err := writeOutput(output, res.Data, cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("writing PDF: %w", err)
			}
			a.logger.Info("rendered",
				"template", tpl.ID, "pages", res.Pages, "widgets", res.Widgets,
				"warnings", len(res.Warnings), "bytes", len(res.Data))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&dataPath, "data", "d", "", "JSON binding context file")
	f.StringVar(&batchPath, "batch", "", "JSON array of binding contexts, one document each, merged")
	f.StringVarP(&output, "output", "o", "", "output PDF path (stdout when empty)")
	f.BoolVar(&acroForm, "acroform", false, "produce fillable form fields")
	f.BoolVar(&flatten, "flatten", false, "flatten form fields after filling")
	f.BoolVar(&staticFallback, "static-fallback", false, "draw fields without a form widget statically in acroform mode")
	f.BoolVar(&noCompress, "no-compress", false, "disable stream compression")
	f.BoolVar(&noRemote, "no-remote", false, "do not fetch remote images")
	f.BoolVar(&strict, "strict", false, "fail when any fallback is taken")
	cmd.MarkFlagsMutuallyExclusive("data", "batch")
	return cmd
}

func (a *app) resolveCmd() *cobra.Command {
	var dataPath, output string
	cmd := &cobra.Command{
		Use:   "resolve TEMPLATE",
		Short: "Apply a data context to a template and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, data, err := loadProject(args[0], dataPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(binding.Resolve(tpl, data), "", "  ")
			if err != nil {
				return err
			}
			return writeOutput(output, append(out, '\n'), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "JSON binding context file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (stdout when empty)")
	return cmd
}
