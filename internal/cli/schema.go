package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dib-lab/sourmash-go/pkg/sourmash"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			out, err := sourmash.ConfigSchema()
			if err != nil {
				return f.Fail(ExitFailure, "render schema", err)
			}
			if f.Format == "json" {
				return f.Success(json.RawMessage(out))
			}
			_, err = cmd.OutOrStdout().Write(append(out, '\n'))
			return err
		},
	}
}
