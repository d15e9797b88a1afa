package main

import (
	"fmt"
	"os"

	"github.com/dib-lab/sourmash-go/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sourmash-ffi: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
