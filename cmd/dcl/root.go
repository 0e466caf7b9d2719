package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dcl/internal/app"
)

type cliOptions struct {
	configPath string
	model      string
	output     string
	verbose    bool
	logger     *zap.Logger
}

func newRootCommand() (*cobra.Command, *cliOptions) {
	opts := &cliOptions{
		configPath: app.DefaultConfigPath,
		output:     outputText,
		logger:     zap.NewNop(),
	}

	root := &cobra.Command{
		Use:           "dcl",
		Short:         "Chat with MCP tools loaded on demand through a single loader tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			applyEnvDefaults(cmd.Flags(), opts)
			if err := validateOutput(opts.output); err != nil {
				return err
			}
			logger, err := newLogger(opts.verbose, defaultLogLevel(cmd))
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", opts.configPath, "path to config file (env DCL_CONFIG)")
	root.PersistentFlags().StringVar(&opts.model, "model", "", "override llm.model")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", opts.output, "output format: text|json|yaml|toml")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newChatCmd(opts),
		newServeCmd(opts),
		newServersCmd(opts),
		newValidateCmd(opts),
		newTranscriptsCmd(opts),
		newVersionCmd(opts),
	)

	return root, opts
}

// applyEnvDefaults fills flags the user did not set from the environment.
func applyEnvDefaults(flags *pflag.FlagSet, opts *cliOptions) {
	if flags.Changed("config") {
		return
	}
	if path := os.Getenv("DCL_CONFIG"); path != "" {
		opts.configPath = path
	}
}

func (o *cliOptions) appOptions() app.Options {
	return app.Options{
		ConfigPath: o.configPath,
		Model:      o.model,
	}
}

// defaultLogLevel keeps interactive output quiet. serve logs at info since
// stdout is reserved for MCP traffic and stderr is free.
func defaultLogLevel(cmd *cobra.Command) zapcore.Level {
	if cmd.Name() == "serve" {
		return zapcore.InfoLevel
	}
	return zapcore.WarnLevel
}

func newLogger(verbose bool, level zapcore.Level) (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
