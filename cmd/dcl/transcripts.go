package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"dcl/internal/app"
	"dcl/internal/domain"
)

func newTranscriptsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: "Inspect recorded conversations",
	}
	cmd.AddCommand(
		newTranscriptsListCmd(opts),
		newTranscriptsShowCmd(opts),
	)
	return cmd
}

func newTranscriptsListCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded conversations, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.OpenTranscripts(cmd.Context(), opts.appOptions(), opts.logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.output != outputText {
				return writeStructured(out, opts.output, "transcripts", list)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUPDATED\tMODEL\tMESSAGES\tACTIVE TOOLS")
			for _, item := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", item.ID, item.UpdatedAt.Format(time.RFC3339), item.Model, item.Messages, item.ActiveTools)
			}
			return tw.Flush()
		},
	}
}

func newTranscriptsShowCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one recorded conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.OpenTranscripts(cmd.Context(), opts.appOptions(), opts.logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			transcript, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.output != outputText {
				return writeStructured(out, opts.output, "transcript", transcript)
			}
			return printTranscript(out, transcript)
		},
	}
}

func printTranscript(w io.Writer, transcript domain.Transcript) error {
	fmt.Fprintf(w, "conversation %s\n", transcript.ID)
	if transcript.Model != "" {
		fmt.Fprintf(w, "model        %s\n", transcript.Model)
	}
	fmt.Fprintf(w, "created      %s\n", transcript.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "updated      %s\n", transcript.UpdatedAt.Format(time.RFC3339))
	for _, server := range transcript.Disclosure.Servers {
		fmt.Fprintf(w, "server       %s %s (%d summaries)\n", server.ID, server.Level, server.Summaries)
	}
	for _, name := range transcript.Disclosure.ActiveTools {
		fmt.Fprintf(w, "active tool  %s\n", name)
	}
	fmt.Fprintln(w)
	for _, msg := range transcript.Messages {
		switch {
		case len(msg.ToolCalls) > 0:
			for _, call := range msg.ToolCalls {
				fmt.Fprintf(w, "[%s] call %s %s\n", msg.Role, call.Name, call.Arguments)
			}
		case msg.ToolCallID != "":
			fmt.Fprintf(w, "[%s %s] %s\n", msg.Role, msg.ToolCallID, msg.Content)
		default:
			fmt.Fprintf(w, "[%s] %s\n", msg.Role, msg.Content)
		}
	}
	return nil
}
