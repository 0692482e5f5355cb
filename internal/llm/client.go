// Package llm provides an OpenAI-compatible chat-completions client used by
// the classifier and entity extractor.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"finops-gateway/internal/common/config"
	stderrors "finops-gateway/internal/common/errors"
	"finops-gateway/internal/common/logger"
	"finops-gateway/internal/common/metrics"
)

// ==========================
// 1. Types
// ==========================

// Message is one chat turn sent to the completion endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tunes a single completion call. Zero values fall back to the
// client's configured defaults.
type Options struct {
	Temperature float64
	MaxTokens   int
	JSONMode    bool
	// Complex selects the larger model variant for strategic prompts.
	Complex bool
}

// CompletionService is the interface consumed by the classifier and
// extractor. Implemented by Client; tests substitute a stub.
type CompletionService interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
	CompleteJSON(ctx context.Context, messages []Message, opts Options) (json.RawMessage, error)
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ==========================
// 2. Client
// ==========================

// Client calls an OpenAI-compatible /chat/completions endpoint with
// bounded retries and exponential backoff.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	modelLarge string
	temp       float64
	maxTokens  int
	maxRetries int
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient builds a Client from configuration. The http.Client timeout is
// the per-attempt ceiling; callers bound the whole call with ctx.
func NewClient(cfg config.LLMConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		modelLarge: cfg.ModelComplex,
		temp:       cfg.Temperature,
		maxTokens:  cfg.MaxTokens,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		logger:     log,
	}
}

// Complete sends the messages and returns the raw assistant text.
func (c *Client) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	req := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temp,
		MaxTokens:   c.maxTokens,
	}
	if opts.Complex && c.modelLarge != "" {
		req.Model = c.modelLarge
	}
	if opts.Temperature > 0 {
		req.Temperature = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.JSONMode {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	content, err := c.send(ctx, req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("llm", "error").Inc()
		return "", err
	}
	metrics.UpstreamRequests.WithLabelValues("llm", "success").Inc()
	return content, nil
}

// CompleteJSON runs Complete in JSON mode and returns a valid JSON document.
// Code fences are stripped and near-JSON output is repaired before giving up.
func (c *Client) CompleteJSON(ctx context.Context, messages []Message, opts Options) (json.RawMessage, error) {
	opts.JSONMode = true
	content, err := c.Complete(ctx, messages, opts)
	if err != nil {
		return nil, err
	}

	cleaned := StripCodeFences(content)
	if json.Valid([]byte(cleaned)) {
		return json.RawMessage(cleaned), nil
	}

	repaired, repErr := jsonrepair.JSONRepair(cleaned)
	if repErr != nil || !json.Valid([]byte(repaired)) {
		c.logger.Warn("model returned unrepairable JSON", map[string]interface{}{
			"length": len(content),
		})
		return nil, stderrors.NewParseError(stderrors.ErrCodeIntentParsingFailed,
			fmt.Errorf("invalid JSON from model: %v", repErr))
	}
	return json.RawMessage(repaired), nil
}

// send performs the HTTP exchange with retries. Retries apply to transport
// errors and 5xx/429 responses; 4xx responses fail immediately.
func (c *Client) send(ctx context.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * 2 * time.Second
			c.logger.Warn("retrying completion request", map[string]interface{}{
				"attempt": attempt,
				"backoff": backoff.String(),
			})
			select {
			case <-ctx.Done():
				return "", stderrors.NewTimeoutError("llm", ctx.Err())
			case <-time.After(backoff):
			}
		}

		content, retryable, err := c.attempt(ctx, url, body)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", stderrors.NewTimeoutError("llm", ctx.Err())
		}
		if !retryable {
			return "", lastErr
		}
	}
	return "", stderrors.NewUpstreamError("llm",
		fmt.Errorf("completion failed after %d attempts: %w", c.maxRetries, lastErr))
}

func (c *Client) attempt(ctx context.Context, url string, body []byte) (string, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", true, stderrors.NewConnectionError("llm", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, err
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("completion endpoint returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, stderrors.NewUpstreamError("llm",
			fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, truncate(string(respBody), 200)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", true, fmt.Errorf("malformed completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", false, stderrors.NewUpstreamError("llm", fmt.Errorf("%s: %s", parsed.Error.Type, parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return "", true, fmt.Errorf("completion response has no choices")
	}
	return parsed.Choices[0].Message.Content, false, nil
}

// ==========================
// 3. Helpers
// ==========================

// StripCodeFences removes a surrounding markdown code fence, with or without
// a language tag, and trims whitespace.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
