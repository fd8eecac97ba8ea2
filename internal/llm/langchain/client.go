// Package langchain serves llm.Completer through a langchaingo model.
// The default wiring targets an Azure OpenAI deployment.
package langchain

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/joseph-ayodele/invoice-parser/internal/common"
	"github.com/joseph-ayodele/invoice-parser/internal/llm"
)

// AzureConfig points at an Azure OpenAI deployment.
type AzureConfig struct {
	Endpoint    string // https://<resource>.openai.azure.com
	APIKey      string
	Deployment  string // default "gpt-4o-mini"
	APIVersion  string
	Temperature float32
	Timeout     time.Duration
}

type Client struct {
	model       llms.Model
	name        string
	temperature float64
	logger      *slog.Logger
}

var _ llm.Completer = (*Client)(nil)

// NewAzureClient builds a langchaingo OpenAI model in Azure mode.
func NewAzureClient(cfg AzureConfig, logger *slog.Logger) (*Client, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, common.NewConfigurationError("AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY must be set", nil)
	}
	if cfg.Deployment == "" {
		cfg.Deployment = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}

	opts := []openai.Option{
		openai.WithAPIType(openai.APITypeAzure),
		openai.WithBaseURL(strings.TrimRight(cfg.Endpoint, "/")),
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Deployment),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.APIVersion != "" {
		opts = append(opts, openai.WithAPIVersion(cfg.APIVersion))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init azure openai: %w", err)
	}
	return New(model, cfg.Deployment, cfg.Temperature, logger), nil
}

// New wraps any langchaingo model.
func New(model llms.Model, name string, temperature float32, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{model: model, name: name, temperature: float64(temperature), logger: logger}
}

func (c *Client) Complete(ctx context.Context, prompt string) (llm.Completion, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()
	c.logger.Info("llm.complete.start", "req_id", rid, "provider", "langchain", "model", c.name, "prompt_len", len(prompt))

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := c.model.GenerateContent(ctx, content, llms.WithTemperature(c.temperature))
	if err != nil {
		c.logger.Error("llm.complete.failed", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Completion{}, fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		c.logger.Error("llm.complete.no_choices", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Completion{}, fmt.Errorf("no choices in %s response", c.name)
	}

	out := llm.Completion{Content: resp.Choices[0].Content, Model: c.name}
	c.logger.Info("llm.complete.ok",
		"req_id", rid,
		"model", c.name,
		"stop_reason", resp.Choices[0].StopReason,
		"reply_len", len(out.Content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
