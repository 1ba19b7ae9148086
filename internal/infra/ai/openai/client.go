package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/sparklens/internal/domain/ai"
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 30 * time.Second
	maxTokens      = 1500
)

type Client struct {
	*openai.Client
	Model   string
	Timeout time.Duration
}

// NewClient builds a chat-completion client. baseURL may be empty to use the
// public endpoint; it must include the version prefix (e.g. ".../v1").
func NewClient(apiKey, model, baseURL string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model, Timeout: timeout}
}

func (c *Client) Complete(ctx context.Context, in ai.CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	budget := in.MaxTokens
	if budget <= 0 {
		budget = maxTokens
	}
	req := openai.ChatCompletionRequest{
		Model:       c.Model,
		Temperature: in.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: in.System},
			{Role: openai.ChatMessageRoleUser, Content: in.User},
		},
	}
	if in.JSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.Model) {
		req.MaxCompletionTokens = budget
		req.Temperature = 0
	} else {
		req.MaxTokens = budget
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", &ai.UpstreamError{Kind: ai.ErrTransport, StatusCode: http.StatusOK, Err: errors.New("completion has no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &ai.UpstreamError{Kind: ai.ErrTimeout, Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ai.UpstreamError{
			Kind:       kindForStatus(apiErr.HTTPStatusCode),
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
			Err:        err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &ai.UpstreamError{
			Kind:       kindForStatus(reqErr.HTTPStatusCode),
			StatusCode: reqErr.HTTPStatusCode,
			Body:       body,
			Err:        err,
		}
	}
	return &ai.UpstreamError{Kind: ai.ErrTransport, Err: fmt.Errorf("failed to create chat completion: %w", err)}
}

func kindForStatus(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ai.ErrAuthentication
	case http.StatusTooManyRequests:
		return ai.ErrQuotaExceeded
	}
	return ai.ErrTransport
}
