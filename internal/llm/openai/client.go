// Package openai is a chat/completions client for api.openai.com and
// compatible endpoints.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-parser/internal/llm"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

type Config struct {
	APIKey      string // falls back to OPENAI_API_KEY
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

type Client struct {
	cfg      Config
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

var _ llm.Completer = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:      cfg,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger.With("provider", "openai"),
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Temperature float32   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as a single user message.
func (c *Client) Complete(ctx context.Context, prompt string) (llm.Completion, error) {
	start := time.Now()
	c.logger.Info("llm.complete.start", "model", c.cfg.Model, "temp", c.cfg.Temperature, "prompt_len", len(prompt))

	raw, err := llm.PostJSON(ctx, c.http, c.endpoint, chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages:    []message{{Role: "user", Content: prompt}},
	}, map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}, c.logger)
	if err != nil {
		var se *llm.StatusError
		if errors.As(err, &se) {
			c.logger.Error("llm.complete.http_error", "status", se.Code, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		}
		return llm.Completion{}, err
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Error("llm.complete.decode_error", "error", err, "raw_bytes", len(raw))
		return llm.Completion{}, fmt.Errorf("decode openai response: %w", err)
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("llm.complete.no_choices", "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Completion{}, errors.New("no choices in openai response")
	}

	out := llm.Completion{Content: resp.Choices[0].Message.Content, Model: resp.Model}
	if out.Model == "" {
		out.Model = c.cfg.Model
	}
	c.logger.Info("llm.complete.ok", "model", out.Model, "reply_len", len(out.Content), "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}
