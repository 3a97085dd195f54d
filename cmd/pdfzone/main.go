// Command pdfzone renders document templates to PDF, validates and resolves
// them, fills exported forms and serves the engine over HTTP.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/prajwal-pl/dnd-pdf-zone/internal/config"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by every command.
type app struct {
	cfgFile  string
	logLevel string
	cfg      *config.Config
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "pdfzone",
		Short:         "pdfzone - template to PDF export engine",
		Long:          `pdfzone turns positioned-field templates and a JSON data context into flattened or fillable PDF documents.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path (defaults only when empty)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(
		a.renderCmd(),
		a.validateCmd(),
		a.resolveCmd(),
		a.templateCmd(),
		a.fillCmd(),
		a.inspectCmd(),
		a.serveCmd(),
		a.configCmd(),
		versionCmd(),
	)
	return root
}

// setup loads the configuration and builds the logger. Logs go to stderr;
// stdout is reserved for command output.
func (a *app) setup(stderr io.Writer) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.Logging, stderr)
	return nil
}

func newLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pdfzone version %s\n", version)
			if commit != "unknown" {
				fmt.Fprintf(out, "  commit: %s\n", commit)
			}
			if buildTime != "unknown" {
				fmt.Fprintf(out, "  built:  %s\n", buildTime)
			}
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			// setup already loaded and validated the file
			src := a.cfgFile
			if src == "" {
				src = "defaults"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (%s)\n", src)
			return nil
		},
	})
	return cmd
}
