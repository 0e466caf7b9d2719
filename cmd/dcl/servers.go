package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dcl/internal/app"
)

func newServersCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "servers",
		Short: "Connect to every configured server and list its description and tool count",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appOpts := opts.appOptions()
			appOpts.DisableTranscripts = true
			application, cleanup, err := app.InitializeApplication(cmd.Context(), appOpts, app.LoggingConfig{Logger: opts.logger})
			if err != nil {
				return err
			}
			defer cleanup()

			servers := application.Servers()
			out := cmd.OutOrStdout()
			if opts.output != outputText {
				return writeStructured(out, opts.output, "servers", servers)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SERVER\tTRANSPORT\tTOOLS\tDESCRIPTION")
			for _, server := range servers {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", server.ID, server.Transport, server.Tools, server.Description)
			}
			return tw.Flush()
		},
	}
}
