// Package gemini implements models.Provider against the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/provider/providererr"
	"github.com/brandlens/brandlens/pkg/models"
	"google.golang.org/genai"
)

// Provider implements models.Provider using Gemini.
type Provider struct {
	client *genai.Client
	model  string
}

func NewProvider(ctx context.Context, cfg config.GeminiConfig) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Provider{client: client, model: cfg.Model}, nil
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) Query(ctx context.Context, prompt string) (string, error) {
	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		if apiErr, ok := err.(genai.APIError); ok && (apiErr.Code == 401 || apiErr.Code == 403) {
			return "", fmt.Errorf("%w: %v", providererr.ErrAuthFailure, err)
		}
		return "", fmt.Errorf("gemini query: %w", err)
	}

	answer := strings.TrimSpace(result.Text())
	if answer == "" {
		return "", providererr.ErrEmptyAnswer
	}
	return answer, nil
}

var _ models.Provider = (*Provider)(nil)
