// Package azure implements analysis.Analyzer on top of the Azure AI Document
// Intelligence REST API (begin analyze, then poll the operation until it settles).
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/invoice-parser/internal/analysis"
	"github.com/joseph-ayodele/invoice-parser/internal/common"
)

const serviceName = "document analysis"

type Client struct {
	cfg    Config
	http   *http.Client
	schema *jsonschema.Schema
	logger *slog.Logger
}

var _ analysis.Analyzer = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Endpoint == "" || cfg.Key == "" {
		return nil, common.NewConfigurationError("VISION_ENDPOINT and VISION_KEY must be set", nil)
	}
	cfg.applyDefaults()
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	schema, err := compileOperationSchema()
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		schema: schema,
		logger: logger,
	}, nil
}

// Analyze uploads the PDF at path and waits for the layout result.
func (c *Client) Analyze(ctx context.Context, path string) (*analysis.Result, error) {
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	opURL, err := c.begin(ctx, reqID, data)
	if err != nil {
		return nil, common.NewExternalServiceError(serviceName, err)
	}

	op, err := c.poll(ctx, reqID, opURL)
	if err != nil {
		return nil, common.NewExternalServiceError(serviceName, err)
	}

	res := op.AnalyzeResult.toResult()
	c.logger.Info("azure.analyze.ok",
		"req_id", reqID,
		"model", c.cfg.Model,
		"pages", len(res.Pages),
		"paragraphs", len(res.Paragraphs),
		"tables", len(res.Tables),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (c *Client) analyzeURL() string {
	q := url.Values{}
	q.Set("api-version", c.cfg.APIVersion)
	return fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?%s", c.cfg.Endpoint, url.PathEscape(c.cfg.Model), q.Encode())
}

// begin starts the analyze operation and returns its Operation-Location.
func (c *Client) begin(ctx context.Context, reqID string, pdf []byte) (string, error) {
	endpoint := c.analyzeURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(pdf))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)

	c.logger.Info("azure.analyze.begin", "req_id", reqID, "model", c.cfg.Model, "content_length", len(pdf))

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("azure.analyze.send_error", "req_id", reqID, "error", err)
		return "", err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.logger.Warn("azure.analyze.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		raw, _ := io.ReadAll(resp.Body)
		return "", statusError(resp.StatusCode, raw)
	}
	loc := resp.Header.Get("Operation-Location")
	if loc == "" {
		return "", fmt.Errorf("analyze accepted without Operation-Location header")
	}
	return loc, nil
}

// poll GETs the operation until it succeeds or fails. Pacing follows Retry-After when present.
func (c *Client) poll(ctx context.Context, reqID, opURL string) (*operation, error) {
	limiter := rate.NewLimiter(rate.Every(c.cfg.PollInterval), 1)

	for attempt := 1; attempt <= c.cfg.MaxPolls; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		raw, retryAfter, err := c.get(ctx, reqID, opURL)
		if err != nil {
			return nil, err
		}
		if err := validateOperation(c.schema, raw); err != nil {
			c.logger.Error("azure.analyze.schema_validation_failed", "req_id", reqID, "error", err)
			return nil, err
		}
		var op operation
		if err := json.Unmarshal(raw, &op); err != nil {
			return nil, fmt.Errorf("decode operation: %w", err)
		}

		c.logger.Debug("azure.analyze.poll", "req_id", reqID, "attempt", attempt, "status", op.Status)

		switch op.Status {
		case "succeeded":
			if op.AnalyzeResult == nil {
				return nil, common.NewDataShapeError("operation succeeded without analyzeResult")
			}
			return &op, nil
		case "failed", "canceled":
			msg := op.Status
			if op.Error != nil {
				msg = fmt.Sprintf("%s: %s: %s", op.Status, op.Error.Code, op.Error.Message)
			}
			c.logger.Error("azure.analyze.failed", "req_id", reqID, "status", op.Status, "detail", msg)
			return nil, fmt.Errorf("analyze operation %s", msg)
		}

		if retryAfter > 0 {
			limiter.SetLimit(rate.Every(retryAfter))
		}
	}
	return nil, fmt.Errorf("analyze operation still running after %d polls", c.cfg.MaxPolls)
}

func (c *Client) get(ctx context.Context, reqID, opURL string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("azure.analyze.poll_error", "req_id", reqID, "error", err)
		return nil, 0, err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.logger.Warn("azure.analyze.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read operation: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, 0, statusError(resp.StatusCode, raw)
	}
	return raw, retryAfter(resp.Header.Get("Retry-After")), nil
}

func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func statusError(code int, raw []byte) error {
	var env errorEnvelope
	if json.Unmarshal(raw, &env) == nil && env.Error != nil {
		return fmt.Errorf("status %d: %s: %s", code, env.Error.Code, env.Error.Message)
	}
	return fmt.Errorf("status %d: %s", code, strings.TrimSpace(string(raw)))
}
