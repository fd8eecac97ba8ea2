// Package providers builds the configured llm.Completer.
package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/invoice-parser/internal/common"
	"github.com/joseph-ayodele/invoice-parser/internal/llm"
	"github.com/joseph-ayodele/invoice-parser/internal/llm/gemini"
	"github.com/joseph-ayodele/invoice-parser/internal/llm/langchain"
	"github.com/joseph-ayodele/invoice-parser/internal/llm/openai"
)

// New returns the completer for cfg.Provider and a close func that is always non-nil.
func New(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Completer, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() error { return nil }
	if err := cfg.Validate(); err != nil {
		return nil, noop, err
	}

	switch cfg.Provider {
	case common.ProviderAzure:
		c, err := langchain.NewAzureClient(langchain.AzureConfig{
			Endpoint:    cfg.Azure.Endpoint,
			APIKey:      cfg.Azure.APIKey,
			Deployment:  cfg.Azure.Deployment,
			APIVersion:  cfg.Azure.APIVersion,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("llm provider initialized", "provider", cfg.Provider, "deployment", cfg.Azure.Deployment)
		return c, noop, nil
	case common.ProviderOpenAI:
		c := openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)
		logger.Info("llm provider initialized", "provider", cfg.Provider, "model", cfg.OpenAI.Model)
		return c, noop, nil
	case common.ProviderGemini:
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			Temperature: cfg.Temperature,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("llm provider initialized", "provider", cfg.Provider, "model", cfg.Gemini.Model)
		return c, c.Close, nil
	}
	return nil, noop, common.NewConfigurationError(fmt.Sprintf("unknown LLM_PROVIDER %q", cfg.Provider), nil)
}
