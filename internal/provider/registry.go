// Package provider assembles the set of generative AI providers the
// collector can query.
package provider

import (
	"context"
	"log/slog"
	"strings"

	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/provider/anthropic"
	"github.com/brandlens/brandlens/internal/provider/gemini"
	"github.com/brandlens/brandlens/internal/provider/openai"
	"github.com/brandlens/brandlens/internal/provider/perplexity"
	"github.com/brandlens/brandlens/pkg/models"
)

// Registry holds the available providers. A provider is available only when
// its credential is present; unavailable providers are skipped and logged,
// never failing startup or a collection run.
type Registry struct {
	providers []models.Provider
}

// NewRegistry constructs adapters for every provider with a configured
// credential. Called once at server startup.
func NewRegistry(ctx context.Context, cfg config.ProvidersConfig) *Registry {
	r := &Registry{}

	if cfg.OpenAI.APIKey != "" {
		r.Add(openai.NewProvider(cfg.OpenAI))
	} else {
		slog.Info("provider skipped, no credential", "provider", "openai")
	}

	if cfg.Anthropic.APIKey != "" {
		r.Add(anthropic.NewProvider(cfg.Anthropic))
	} else {
		slog.Info("provider skipped, no credential", "provider", "anthropic")
	}

	if cfg.Gemini.APIKey != "" {
		p, err := gemini.NewProvider(ctx, cfg.Gemini)
		if err != nil {
			slog.Warn("provider skipped, client init failed", "provider", "gemini", "error", err)
		} else {
			r.Add(p)
		}
	} else {
		slog.Info("provider skipped, no credential", "provider", "gemini")
	}

	if cfg.Perplexity.APIKey != "" {
		r.Add(perplexity.NewProvider(cfg.Perplexity))
	} else {
		slog.Info("provider skipped, no credential", "provider", "perplexity")
	}

	return r
}

// Add registers a provider. Exposed for tests and custom wiring.
func (r *Registry) Add(p models.Provider) {
	r.providers = append(r.providers, p)
}

// All returns every available provider.
func (r *Registry) All() []models.Provider {
	return r.providers
}

// Filter returns the providers whose names appear in the whitelist.
// An empty whitelist selects all available providers; unknown names are
// ignored.
func (r *Registry) Filter(names []string) []models.Provider {
	if len(names) == 0 {
		return r.providers
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(strings.TrimSpace(n))] = true
	}
	var out []models.Provider
	for _, p := range r.providers {
		if wanted[p.Name()] {
			out = append(out, p)
		}
	}
	return out
}

// Names returns the names of all available providers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	return names
}
