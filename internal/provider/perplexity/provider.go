// Package perplexity implements models.Provider against Perplexity's
// OpenAI-compatible chat API.
package perplexity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/provider/providererr"
	"github.com/brandlens/brandlens/pkg/models"
	openai "github.com/sashabaranov/go-openai"
)

// Provider implements models.Provider using Perplexity.
type Provider struct {
	client *openai.Client
	model  string
}

func NewProvider(cfg config.PerplexityConfig) *Provider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	return &Provider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

func (p *Provider) Name() string { return "perplexity" }

func (p *Provider) Query(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) &&
			(apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden) {
			return "", fmt.Errorf("%w: %v", providererr.ErrAuthFailure, err)
		}
		return "", fmt.Errorf("perplexity query: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", providererr.ErrEmptyAnswer
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", providererr.ErrEmptyAnswer
	}
	return answer, nil
}

var _ models.Provider = (*Provider)(nil)
