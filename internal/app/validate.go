package app

import (
	"context"

	"go.uber.org/zap"

	"dcl/internal/domain"
	"dcl/internal/infra/transcript"
)

// ValidateConfig loads and validates the config without connecting to servers.
func ValidateConfig(ctx context.Context, opts Options, logger *zap.Logger) (domain.Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, err := NewConfig(ctx, opts, logger)
	if err != nil {
		return domain.Config{}, err
	}
	logger.Info("configuration validated",
		zap.String("config", opts.ConfigPath),
		zap.Int("servers", len(cfg.Servers)),
	)
	return cfg, nil
}

// OpenTranscripts opens the configured transcript store without connecting to
// servers. The caller closes the store.
func OpenTranscripts(ctx context.Context, opts Options, logger *zap.Logger) (*transcript.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, err := NewConfig(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Transcript.Path == "" {
		return nil, ErrTranscriptsDisabled
	}
	return transcript.OpenStore(cfg.Transcript.Path)
}
