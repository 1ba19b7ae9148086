package ai

import (
	"context"
	"strings"

	"github.com/bryanwahyu/sparklens/internal/domain/ai"
	"github.com/bryanwahyu/sparklens/internal/domain/analysis"
	"github.com/bryanwahyu/sparklens/internal/infra/ai/prompt"
)

const (
	summaryMaxTokens   = 30
	summaryTemperature = 0.5
)

// Service produces the short derived summary of an idea.
type Service struct {
	client ai.Client
}

func NewService(client ai.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Summarize(ctx context.Context, req analysis.Request) (string, error) {
	out, err := s.client.Complete(ctx, ai.CompletionRequest{
		System:      prompt.SummarySystemPrompt,
		User:        prompt.SummaryPrompt(req),
		MaxTokens:   summaryMaxTokens,
		Temperature: summaryTemperature,
	})
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(out), `"'`), nil
}
