package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prajwal-pl/dnd-pdf-zone/form"
)

// parseAssignments turns name=value pairs into a map.
func parseAssignments(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q (want name=value)", p)
		}
		values[name] = value
	}
	return values, nil
}

func (a *app) fillCmd() *cobra.Command {
	var (
		sets   []string
		output string
	)
	cmd := &cobra.Command{
		Use:   "fill PDF",
		Short: "Fill the form fields of an exported PDF",
		Long:  `Fill form fields by name. Checkboxes are checked by yes, true, on or 1 in any case.`,
		Example: `  pdfzone fill form.pdf --set fullName="Ada Lovelace" --set agree=Yes -o filled.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			if len(values) == 0 {
				return fmt.Errorf("at least one --set is required")
			}
			pdf, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			out, err := form.Fill(pdf, values)
			if err != nil {
				return err
			}
			return writeOutput(output, out, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field assignment name=value (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output PDF path (stdout when empty)")
	return cmd
}

func (a *app) inspectCmd() *cobra.Command {
	var validate bool
	cmd := &cobra.Command{
		Use:   "inspect PDF",
		Short: "List the pages and form fields of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pdf, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			if validate {
				if err := form.Validate(pdf); err != nil {
					return fmt.Errorf("validation failed: %w", err)
				}
			}
			info, err := form.Inspect(pdf)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), info)
		},
	}
	cmd.Flags().BoolVar(&validate, "validate", false, "also validate the document structure")
	return cmd
}
