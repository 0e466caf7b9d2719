package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dcl/internal/app"
)

type versionInfo struct {
	Version string `json:"version" yaml:"version" toml:"version"`
	Build   string `json:"build" yaml:"build" toml:"build"`
}

func newVersionCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if opts.output != outputText {
				return writeStructured(out, opts.output, "version", versionInfo{Version: app.Version, Build: app.Build})
			}
			_, err := fmt.Fprintf(out, "dcl %s (%s)\n", app.Version, app.Build)
			return err
		},
	}
}
