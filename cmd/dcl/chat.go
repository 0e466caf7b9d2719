package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"dcl/internal/app"
	"dcl/internal/conversation"
	"dcl/internal/domain"
)

type chatOptions struct {
	noTranscript bool
	noColor      bool
	quiet        bool
}

type chatReply struct {
	Conversation string   `json:"conversation" yaml:"conversation" toml:"conversation"`
	Reply        string   `json:"reply" yaml:"reply" toml:"reply"`
	Turns        int      `json:"turns" yaml:"turns" toml:"turns"`
	ToolCalls    int      `json:"toolCalls" yaml:"toolCalls" toml:"toolCalls"`
	ActiveTools  []string `json:"activeTools" yaml:"activeTools" toml:"activeTools"`
}

func newChatCmd(opts *cliOptions) *cobra.Command {
	chatOpts := chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Send one prompt, or start an interactive session when no prompt is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			appOpts := opts.appOptions()
			appOpts.DisableTranscripts = chatOpts.noTranscript
			application, cleanup, err := app.InitializeApplication(ctx, appOpts, app.LoggingConfig{Logger: opts.logger})
			if err != nil {
				return err
			}
			defer cleanup()
			application.StartObservability(ctx)

			out := cmd.OutOrStdout()
			var hooks conversation.Hooks = conversation.NopHooks{}
			if opts.output == outputText && !chatOpts.quiet {
				hooks = newPrintHooks(cmd.ErrOrStderr(), !chatOpts.noColor)
			}
			conv, err := application.NewConversation(ctx, hooks)
			if err != nil {
				return err
			}

			prompt := strings.TrimSpace(strings.Join(args, " "))
			if prompt != "" {
				return runPrompt(ctx, conv, prompt, out, opts.output, !chatOpts.noColor)
			}
			return runInteractive(ctx, conv, cmd.InOrStdin(), out, opts.output, !chatOpts.noColor)
		},
	}
	cmd.Flags().BoolVar(&chatOpts.noTranscript, "no-transcript", false, "do not record this conversation")
	cmd.Flags().BoolVar(&chatOpts.noColor, "no-color", false, "disable ANSI colors")
	cmd.Flags().BoolVarP(&chatOpts.quiet, "quiet", "q", false, "hide loader calls, tool results and the active tool list")
	return cmd
}

// runPrompt answers a single prompt. A max-turns stop exits with code 2 in text mode.
func runPrompt(ctx context.Context, conv *conversation.Conversation, prompt string, out io.Writer, format string, color bool) error {
	err := sendAndPrint(ctx, conv, prompt, out, format, color)
	if errors.Is(err, conversation.ErrMaxTurns) && format == outputText {
		return exitWithMessage(2, err.Error())
	}
	return err
}

func runInteractive(ctx context.Context, conv *conversation.Conversation, in io.Reader, out io.Writer, format string, color bool) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if format == outputText {
			fmt.Fprint(out, paint(color, colorUser, "> "))
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := sendAndPrint(ctx, conv, line, out, format, color); err != nil {
			if errors.Is(err, conversation.ErrMaxTurns) {
				fmt.Fprintln(out, paint(color, colorError, err.Error()))
				continue
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func sendAndPrint(ctx context.Context, conv *conversation.Conversation, prompt string, out io.Writer, format string, color bool) error {
	reply, err := conv.Send(ctx, prompt)
	if err != nil {
		return err
	}
	if format == outputText {
		fmt.Fprintln(out, paint(color, colorAssistant, "Assistant: "+reply.Text))
		return nil
	}
	return writeStructured(out, format, "chat", chatReply{
		Conversation: conv.ID(),
		Reply:        reply.Text,
		Turns:        reply.Turns,
		ToolCalls:    reply.ToolCalls,
		ActiveTools:  activeTools(conv.Snapshot()),
	})
}

func activeTools(snapshot domain.DisclosureSnapshot) []string {
	if snapshot.ActiveTools == nil {
		return []string{}
	}
	return snapshot.ActiveTools
}
