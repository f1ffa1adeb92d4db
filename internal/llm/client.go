package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codacore/review-agent/internal/config"
)

// CompletionClient submits a prompt to a completion API and returns the plain
// review text extracted from its response.
//
//go:generate mockgen -destination=../mocks/mock_completion_client.go -package=mocks . CompletionClient
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type completionRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type httpCompletionClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *slog.Logger
}

// NewCompletionClient creates a client for an OpenAI Responses-style
// completion endpoint. The HTTP client may be nil, in which case one with a
// generous timeout is used; model calls on large diffs are slow.
func NewCompletionClient(cfg config.LLMConfig, httpClient *http.Client, logger *slog.Logger) CompletionClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &httpCompletionClient{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logger,
	}
}

// Complete posts the prompt and extracts text from whichever known response
// shape comes back. A response in an unknown shape yields the fixed default
// text rather than an error.
func (c *httpCompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(completionRequest{Model: c.model, Input: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("calling completion API", "model", c.model, "prompt_chars", len(prompt))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("completion API returned status %d: %s", resp.StatusCode, summarize(body))
	}

	var decoded completionResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.logger.Warn("completion response is not valid JSON, using default text", "error", err)
		return DefaultReviewText, nil
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("completion API error: %s", decoded.Error.Message)
	}

	return extractText(&decoded), nil
}

func summarize(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 512 {
		s = s[:512] + "..."
	}
	return s
}
