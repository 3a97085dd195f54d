package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prajwal-pl/dnd-pdf-zone/template"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate TEMPLATE...",
		Short: "Check template or project files against the schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				raw, err := readInput(path, cmd.InOrStdin())
				if err != nil {
					return err
				}
				_, err = template.DecodeProject(raw)
				var ve *template.ValidationError
				switch {
				case err == nil:
					fmt.Fprintf(out, "%s: ok\n", path)
				case errors.As(err, &ve):
					failed++
					for _, p := range ve.Problems {
						fmt.Fprintf(out, "%s: %s\n", path, p)
					}
				default:
					failed++
					fmt.Fprintf(out, "%s: %v\n", path, err)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) invalid", failed, len(args))
			}
			return nil
		},
	}
}
