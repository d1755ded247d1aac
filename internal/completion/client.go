// Package completion calls the chat completion provider that writes recipes.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pageza/macrochef/backend/internal/telemetry"
	"github.com/pageza/macrochef/backend/internal/types"
)

const (
	// DefaultTimeout bounds one completion call end to end.
	DefaultTimeout = 20 * time.Second
	temperature    = 0.7
	tracerName     = "macrochef/completion"
)

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents a request to the chat completions API
type Request struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Config holds the provider settings.
type Config struct {
	APIKey  string
	Model   string
	URL     string
	Timeout time.Duration
}

// Client sends one completion request per call, without retries.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a new Client instance. A nil httpClient uses http.DefaultClient.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Complete asks for three recipes and returns the raw message content.
func (c *Client) Complete(ctx context.Context, req types.GenerationRequest) (string, error) {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "completion.Complete", trace.WithAttributes(
		attribute.String("llm.model", c.cfg.Model),
		attribute.Int("llm.ingredient_count", len(req.IngredientNames)),
	))
	defer span.End()

	content, err := c.complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.content_bytes", len(content)))
	return content, nil
}

func (c *Client) complete(ctx context.Context, req types.GenerationRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(Request{
		Model: c.cfg.Model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(req)},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", c.classify(ctx, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &HTTPStatusError{StatusCode: resp.StatusCode}
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", c.classify(ctx, fmt.Errorf("failed to decode response: %w", err))
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == nil || *result.Choices[0].Message.Content == "" {
		return "", ErrEmptyContent
	}
	return *result.Choices[0].Message.Content, nil
}

// classify maps a failure caused by our own deadline to ErrTimeout.
func (c *Client) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
