// Package gemini serves llm.Completer through Google's Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/invoice-parser/internal/common"
	"github.com/joseph-ayodele/invoice-parser/internal/llm"
)

type Config struct {
	APIKey      string
	Model       string // default "gemini-1.5-flash"
	Temperature float32
}

type Client struct {
	cfg    Config
	client *genai.Client
	logger *slog.Logger
}

var _ llm.Completer = (*Client)(nil)

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		return nil, common.NewConfigurationError("GEMINI_API_KEY is required", nil)
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("init gemini: %w", err)
	}
	return &Client{cfg: cfg, client: cl, logger: logger}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Complete(ctx context.Context, prompt string) (llm.Completion, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()
	c.logger.Info("llm.complete.start", "req_id", rid, "provider", "gemini", "model", c.cfg.Model, "prompt_len", len(prompt))

	m := c.client.GenerativeModel(strings.TrimSpace(c.cfg.Model))
	temp := c.cfg.Temperature
	m.GenerationConfig = genai.GenerationConfig{Temperature: &temp}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Error("llm.complete.failed", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Completion{}, fmt.Errorf("gemini generate: %w", err)
	}
	txt := firstText(resp)
	if txt == "" {
		c.logger.Error("llm.complete.no_choices", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Completion{}, fmt.Errorf("gemini: empty response")
	}

	c.logger.Info("llm.complete.ok",
		"req_id", rid,
		"model", c.cfg.Model,
		"reply_len", len(txt),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.Completion{Content: txt, Model: c.cfg.Model}, nil
}

// firstText concatenates the text parts of the first candidate that has any.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}
