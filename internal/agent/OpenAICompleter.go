package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultModel = openai.GPT3Dot5TurboInstruct

var ErrEmptyCompletion = errors.New("completion returned no choices")

// OpenAICompleter talks to an OpenAI compatible text completion endpoint.
type OpenAICompleter struct {
	client *openai.Client
}

// NewOpenAICompleter builds a completer for apiKey. An empty baseURL keeps the public endpoint.
func NewOpenAICompleter(apiKey, baseURL string) *OpenAICompleter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAICompleter{client: openai.NewClientWithConfig(cfg)}
}

func (c *OpenAICompleter) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	resp, err := c.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:     model,
		Prompt:    prompt,
		MaxTokens: opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Text, nil
}

// IsRetryable treats request and credential rejections as final and everything else
// (rate limits, server errors, network failures) as transient.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, openai.ErrCompletionUnsupportedModel) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return false
		}
	}
	return true
}
