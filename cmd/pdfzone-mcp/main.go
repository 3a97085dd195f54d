// Command pdfzone-mcp is an MCP (Model Context Protocol) server that exposes
// the template export engine to AI assistants over stdio.
//
// # Configuration for an MCP client
//
//	{
//	  "mcpServers": {
//	    "pdfzone": {
//	      "command": "pdfzone-mcp",
//	      "args": ["--config", "/etc/pdfzone/config.yaml"]
//	    }
//	  }
//	}
//
// # Available Tools
//
//   - export_pdf: Render a template and data context to PDF
//   - validate_template: Report schema problems in a template
//   - resolve_bindings: Apply a data context and return the resolved template
//   - new_template: Create a template skeleton
//   - inspect_pdf: List the pages and form fields of a PDF
//   - fill_form: Fill form fields of an exported PDF
//
// # Available Resources
//
//   - pdfzone://schema/field-types : Field types and their attributes
//   - pdfzone://form-fields?path=... : Form fields of a PDF file
//   - pdfzone://template?path=... : Summary of a template file
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prajwal-pl/dnd-pdf-zone/internal/config"
	"github.com/prajwal-pl/dnd-pdf-zone/mcp"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:          "pdfzone-mcp",
		Short:        "MCP server for the pdfzone export engine",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		Version:      version,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfgFile)
		},
	}
	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	return cmd
}

func run(ctx context.Context, cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	// stdout carries the protocol
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	server := mcp.NewServer(version, logger)
	mcp.RegisterDefaultTools(server, cfg.Options(cfg.Assets.Fetcher())...)
	mcp.RegisterDefaultResources(server)
	return server.Run(ctx)
}
