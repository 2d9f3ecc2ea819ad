package llm

import (
	"fmt"

	"github.com/songkhoe/backend/internal/advisory"
	"github.com/songkhoe/backend/internal/config"
	"go.uber.org/zap"
)

// NewBackend resolves the advisory backend from configuration. A missing API
// key yields advisory.Unconfigured rather than an error.
func NewBackend(cfg config.AIConfig, logger *zap.Logger) (advisory.Backend, error) {
	if cfg.APIKey == "" {
		return advisory.Unconfigured{Reason: "ai.apikey is not set"}, nil
	}

	var (
		completer advisory.Completer
		err       error
	)
	switch cfg.Provider {
	case "", "gemini":
		completer, err = NewGeminiClient(cfg.BaseURL, cfg.APIKey, cfg.Model, logger)
	case "openai":
		completer, err = NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model, logger)
	case "azure":
		completer, err = NewAzureOpenAIClient(cfg.Endpoint, cfg.APIVersion, cfg.APIKey, cfg.Model, logger)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s completion client: %w", cfg.Provider, err)
	}

	return advisory.Configured{Completer: completer}, nil
}
