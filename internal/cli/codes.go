package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dib-lab/sourmash-go/pkg/sourmash"
)

type codeEntry struct {
	Code int32  `json:"code"`
	Kind string `json:"kind"`
}

type codeTable []codeEntry

func (t codeTable) renderText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%-8s %s\n", "CODE", "KIND"); err != nil {
		return err
	}
	for _, e := range t {
		if _, err := fmt.Fprintf(w, "%-8d %s\n", e.Code, e.Kind); err != nil {
			return err
		}
	}
	return nil
}

// NewCodesCommand creates the codes command.
func NewCodesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "codes",
		Short: "List native error codes and their kinds",
		Long: `List the native error codes the bindings recognize.

Codes missing from this table are reported with kind Unknown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			codes := sourmash.Codes()
			table := make(codeTable, 0, len(codes))
			for _, c := range codes {
				table = append(table, codeEntry{Code: int32(c), Kind: sourmash.KindOf(c).String()})
			}
			return rootOpts.formatter(cmd).Success(table)
		},
	}
}
