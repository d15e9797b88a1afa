package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dib-lab/sourmash-go/pkg/sourmash"
	"github.com/dib-lab/sourmash-go/pkg/sourmash/minhash"
)

// CheckResult describes a loaded native library.
type CheckResult struct {
	Backend    string   `json:"backend"`
	Path       string   `json:"path,omitempty"`
	Scope      string   `json:"scope"`
	Serialized bool     `json:"serialized"`
	Symbols    int      `json:"symbols"`
	Missing    []string `json:"missing,omitempty"`
}

func (r CheckResult) renderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "backend:    %s\npath:       %s\nscope:      %s\nserialized: %t\nsymbols:    %d/%d resolved\n",
		r.Backend, r.Path, r.Scope, r.Serialized, r.Symbols-len(r.Missing), r.Symbols)
	if err != nil {
		return err
	}
	for _, name := range r.Missing {
		if _, err := fmt.Fprintf(w, "missing:    %s\n", name); err != nil {
			return err
		}
	}
	return nil
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load and initialize the native library",
		Long: `Load the configured native library, run its initialization entry point
and check that every entry point the bindings call is exported.

Exits 2 when the library cannot be loaded and 1 when it loads but fails
to initialize or is missing entry points.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, cmd)
		},
	}
}

func runCheck(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := opts.config(cmd)
	if err != nil {
		return f.Fail(ExitCommandError, "load config", err)
	}
	lib, err := opts.open(cfg)
	if err != nil {
		return f.Fail(ExitCommandError, "open library", err)
	}
	defer func() {
		if cerr := lib.Close(); cerr != nil {
			f.VerboseLog("close error: %v", cerr)
		}
	}()

	if err := lib.Init(); err != nil {
		return f.Fail(ExitFailure, "initialize library", err)
	}
	d, err := lib.Dispatcher()
	if err != nil {
		return f.Fail(ExitFailure, "initialize library", err)
	}

	symbols := minhash.Symbols()
	result := CheckResult{
		Backend:    string(lib.Backend()),
		Path:       lib.Path(),
		Scope:      lib.Scope().String(),
		Serialized: lib.Serialized(),
		Symbols:    len(symbols),
	}
	for _, name := range symbols {
		if _, err := d.Symbol(name); err != nil {
			if !errors.Is(err, sourmash.ErrSymbolNotFound) {
				return f.Fail(ExitFailure, "resolve "+name, err)
			}
			f.VerboseLog("missing symbol %s: %v", name, err)
			result.Missing = append(result.Missing, name)
		}
	}

	if err := f.Success(result); err != nil {
		return err
	}
	if len(result.Missing) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d native entry points missing", len(result.Missing)))
	}
	return nil
}
