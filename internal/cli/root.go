// Package cli implements the sourmash-ffi command line tool.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dib-lab/sourmash-go/pkg/sourmash"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Backend    string
	LibPath    string
	Serialize  bool
	Verbose    bool
	Format     string // "json" | "text"

	// open is replaced in tests.
	open func(sourmash.Config) (*sourmash.Library, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sourmash-ffi CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{open: sourmash.Open})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sourmash-ffi",
		Short: "Inspect the sourmash native library bindings",
		Long: `Inspect the sourmash native library bindings.

Reports the native error code table, checks that a library build can be
loaded and initialized, and prints the configuration file schema.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "native backend (shared|linked|wasm)")
	cmd.PersistentFlags().StringVar(&opts.LibPath, "lib", "", "shared library or wasm module path (default $"+sourmash.EnvLibraryPath+")")
	cmd.PersistentFlags().BoolVar(&opts.Serialize, "serialize", false, "serialize every native call")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewVersionCommand(opts))
	cmd.AddCommand(NewCodesCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))

	return cmd
}

// config merges the configuration file with flags set on the command line.
func (o *RootOptions) config(cmd *cobra.Command) (sourmash.Config, error) {
	var cfg sourmash.Config
	if o.ConfigPath != "" {
		loaded, err := sourmash.LoadConfig(o.ConfigPath)
		if err != nil {
			return sourmash.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = sourmash.Backend(o.Backend)
	}
	if flags.Changed("lib") {
		cfg.Path = o.LibPath
	}
	if flags.Changed("serialize") {
		cfg.Serialize = o.Serialize
	}
	cfg.Logger = o.logger(cmd.ErrOrStderr())
	return cfg, nil
}

func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}
