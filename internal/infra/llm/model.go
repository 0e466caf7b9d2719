// Package llm builds the chat model used for conversations and brief generation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"dcl/internal/domain"
)

const defaultRequestTimeout = 2 * time.Minute

var ErrModelRequired = errors.New("llm model is required: set llm.model or the MODEL environment variable")

// NewChatModel creates a tool-calling chat model from config.
func NewChatModel(ctx context.Context, cfg domain.LLMConfig) (model.ToolCallingChatModel, error) {
	modelName := strings.TrimSpace(cfg.Model)
	if modelName == "" {
		return nil, ErrModelRequired
	}
	apiKey, err := resolveAPIKey(cfg)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case domain.DefaultLLMProvider, "":
		chatCfg := &openai.ChatModelConfig{
			Model:   modelName,
			APIKey:  apiKey,
			Timeout: defaultRequestTimeout,
		}
		if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
			chatCfg.BaseURL = baseURL
		}
		chatModel, err := openai.NewChatModel(ctx, chatCfg)
		if err != nil {
			return nil, fmt.Errorf("create openai chat model: %w", err)
		}
		return chatModel, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

func resolveAPIKey(cfg domain.LLMConfig) (string, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey != "" {
		return apiKey, nil
	}
	envVar := strings.TrimSpace(cfg.APIKeyEnvVar)
	if envVar == "" {
		return "", errors.New("API key is required: set llm.apiKey or llm.apiKeyEnvVar")
	}
	apiKey = strings.TrimSpace(os.Getenv(envVar))
	if apiKey == "" {
		return "", fmt.Errorf("API key not found in env var %s", envVar)
	}
	return apiKey, nil
}
