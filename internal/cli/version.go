package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dib-lab/sourmash-go/pkg/sourmash"
)

type versionInfo struct {
	Version string `json:"version"`
}

func (v versionInfo) renderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "sourmash-go %s\n", v.Version)
	return err
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bindings version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.formatter(cmd).Success(versionInfo{Version: sourmash.WrapperVersion()})
		},
	}
}
