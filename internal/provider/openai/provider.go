// Package openai implements models.Provider against the OpenAI chat API.
package openai

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

// Provider implements models.Provider using OpenAI.
type Provider struct {
	client *openai.Client
	model  string
}

func NewProvider(cfg config.OpenAIConfig) *Provider {
	return &Provider{
		client: openai.NewClient(cfg.APIKey),
		model:  cfg.Model,
	}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Query(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classifyError(err)
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

// classifyError maps openai API errors onto the provider error taxonomy.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %v", providererr.ErrAuthFailure, err)
		}
	}
	return fmt.Errorf("openai query: %w", err)
}

var _ models.Provider = (*Provider)(nil)
