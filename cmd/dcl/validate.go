package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dcl/internal/app"
)

type validateResult struct {
	Config  string `json:"config" yaml:"config" toml:"config"`
	Valid   bool   `json:"valid" yaml:"valid" toml:"valid"`
	Servers int    `json:"servers" yaml:"servers" toml:"servers"`
}

func newValidateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config file without connecting to servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.ValidateConfig(cmd.Context(), opts.appOptions(), opts.logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.output != outputText {
				return writeStructured(out, opts.output, "validate", validateResult{
					Config:  opts.configPath,
					Valid:   true,
					Servers: len(cfg.Servers),
				})
			}
			_, err = fmt.Fprintf(out, "%s is valid (%d servers, %d enabled)\n", opts.configPath, len(cfg.Servers), len(cfg.EnabledServers()))
			return err
		},
	}
}
