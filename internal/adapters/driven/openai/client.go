// Package openai provides embedding and LLM adapters for the OpenAI API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is the public OpenAI API endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// ErrMissingAPIKey is returned when a service is created without an API key.
var ErrMissingAPIKey = errors.New("openai: API key is required")

func newClient(apiKey, baseURL string, timeout time.Duration) (*goopenai.Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return goopenai.NewClientWithConfig(cfg), nil
}

// ping lists models, which needs a valid key but costs nothing.
func ping(ctx context.Context, c *goopenai.Client) error {
	if _, err := c.ListModels(ctx); err != nil {
		return wrapError("ping failed", err)
	}
	return nil
}

// wrapError keeps the API's status and message readable in logs.
func wrapError(op string, err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai: %s: status %d: %s: %w", op, apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("openai: %s: status %d: %w", op, reqErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("openai: %s: %w", op, err)
}
