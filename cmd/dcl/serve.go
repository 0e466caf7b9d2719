package main

import (
	"github.com/spf13/cobra"

	"dcl/internal/app"
)

func newServeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose the loader and activated tools as an MCP server over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			application, cleanup, err := app.InitializeApplication(ctx, opts.appOptions(), app.LoggingConfig{Logger: opts.logger})
			if err != nil {
				return err
			}
			defer cleanup()
			application.StartObservability(ctx)
			return application.Serve(ctx)
		},
	}
}
