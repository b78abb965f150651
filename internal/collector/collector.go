// Package collector orchestrates a collection run: the cross product of
// probe queries and available providers, dispatched with a global wall-clock
// budget, analyzed for brand mentions, and persisted one observation at a
// time.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/brandlens/brandlens/internal/analyzer"
	"github.com/brandlens/brandlens/internal/provider"
	"github.com/brandlens/brandlens/internal/store"
	"github.com/brandlens/brandlens/pkg/models"
	"github.com/google/uuid"
)

var (
	// ErrNotOwner is returned when the caller does not own the brand.
	ErrNotOwner = errors.New("brand not owned by caller")
	// ErrNoProviders is returned when no providers are available for the run.
	ErrNoProviders = errors.New("no providers available")
)

// Options bound a collection run.
type Options struct {
	GlobalBudget  time.Duration
	ThrottleDelay time.Duration
}

// Collector runs collections for brands.
type Collector struct {
	store    store.Store
	registry *provider.Registry
	analyzer *analyzer.Analyzer
	opts     Options
	now      func() time.Time
}

// New creates a Collector. Providers in the registry are expected to already
// be composed with the cache and retry executor.
func New(st store.Store, reg *provider.Registry, an *analyzer.Analyzer, opts Options) *Collector {
	if opts.GlobalBudget <= 0 {
		opts.GlobalBudget = 120 * time.Second
	}
	if opts.ThrottleDelay <= 0 {
		opts.ThrottleDelay = time.Second
	}
	return &Collector{store: st, registry: reg, analyzer: an, opts: opts, now: time.Now}
}

// Params identify one collection run.
type Params struct {
	BrandID     uuid.UUID
	UserID      uuid.UUID
	CustomQuery string
	Providers   []string // optional whitelist
}

// CallError records one failed provider call; informational, never fatal to
// the run.
type CallError struct {
	Provider string `json:"provider"`
	Query    string `json:"query"`
	Message  string `json:"message"`
}

// Stats summarizes the run's successful observations.
type Stats struct {
	AvgConfidence      float64        `json:"avg_confidence"`
	SentimentBreakdown map[string]int `json:"sentiment_breakdown"`
	ContextBreakdown   map[string]int `json:"context_breakdown"`
}

// Result is the outcome of a collection run. A run with partial provider
// failures is still a success.
type Result struct {
	Brand        *models.Brand         `json:"brand"`
	Results      []*models.Observation `json:"results"`
	TotalQueries int                   `json:"total_queries"`
	Mentions     int                   `json:"mentions"`
	SuccessCount int                   `json:"success_count"`
	FailCount    int                   `json:"fail_count"`
	Partial      bool                  `json:"partial"`
	Errors       []CallError           `json:"errors,omitempty"`
	Stats        Stats                 `json:"stats"`
}

// Run executes a collection for the brand. Queries run sequentially;
// providers within a query run concurrently. Once the global budget is
// exceeded no new work is dispatched and whatever completed is returned.
func (c *Collector) Run(ctx context.Context, params Params) (*Result, error) {
	brand, err := c.store.GetBrand(ctx, params.BrandID)
	if err != nil {
		return nil, err
	}
	if brand.UserID != params.UserID {
		return nil, ErrNotOwner
	}

	providers := c.registry.Filter(params.Providers)
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}

	queries := BuildQueries(brand, params.CustomQuery)

	result := &Result{
		Brand:        brand,
		TotalQueries: len(queries),
		Stats: Stats{
			SentimentBreakdown: map[string]int{},
			ContextBreakdown:   map[string]int{},
		},
	}

	start := c.now()
	deadline := start.Add(c.opts.GlobalBudget)

	var mu sync.Mutex
	var confidenceSum float64

	for i, query := range queries {
		if !c.now().Before(deadline) {
			slog.Warn("collection budget exhausted, returning partial results",
				"brand_id", brand.ID, "queries_dispatched", i, "queries_total", len(queries))
			result.Partial = true
			break
		}

		// Fixed inter-call delay throttles the request rate per provider.
		if i > 0 {
			select {
			case <-time.After(c.opts.ThrottleDelay):
			case <-ctx.Done():
				result.Partial = true
			}
			if result.Partial {
				break
			}
		}

		var wg sync.WaitGroup
		for _, p := range providers {
			wg.Add(1)
			go func(p models.Provider) {
				defer wg.Done()

				answer, err := p.Query(ctx, query)
				if err != nil {
					slog.Warn("provider call failed",
						"provider", p.Name(), "brand_id", brand.ID, "error", err)
					mu.Lock()
					result.FailCount++
					result.Errors = append(result.Errors, CallError{
						Provider: p.Name(),
						Query:    query,
						Message:  err.Error(),
					})
					mu.Unlock()
					return
				}

				analysis := c.analyzer.Analyze(ctx, answer, brand.Name, brand.Domain)

				obs := &models.Observation{
					ID:            uuid.New(),
					BrandID:       brand.ID,
					Provider:      p.Name(),
					Query:         query,
					Mentioned:     analysis.Mentioned,
					Confidence:    analysis.Confidence,
					Sentiment:     analysis.Sentiment,
					Context:       analysis.Context,
					AnswerExcerpt: analysis.Excerpt,
					CollectedAt:   c.now().UTC(),
				}

				// Persist immediately: a later crash loses only undelivered
				// observations, not recorded ones.
				if err := c.store.CreateObservation(ctx, obs); err != nil {
					slog.Error("persisting observation failed",
						"provider", p.Name(), "brand_id", brand.ID, "error", err)
					mu.Lock()
					result.FailCount++
					result.Errors = append(result.Errors, CallError{
						Provider: p.Name(),
						Query:    query,
						Message:  fmt.Sprintf("persist: %v", err),
					})
					mu.Unlock()
					return
				}

				mu.Lock()
				result.Results = append(result.Results, obs)
				result.SuccessCount++
				if obs.Mentioned {
					result.Mentions++
				}
				confidenceSum += obs.Confidence
				result.Stats.SentimentBreakdown[obs.Sentiment]++
				result.Stats.ContextBreakdown[obs.Context]++
				mu.Unlock()
			}(p)
		}
		wg.Wait()
	}

	if result.SuccessCount > 0 {
		result.Stats.AvgConfidence = confidenceSum / float64(result.SuccessCount)
	}

	slog.Info("collection run finished",
		"brand_id", brand.ID,
		"queries", result.TotalQueries,
		"success", result.SuccessCount,
		"failed", result.FailCount,
		"mentions", result.Mentions,
		"partial", result.Partial,
		"duration_ms", c.now().Sub(start).Milliseconds(),
	)

	return result, nil
}
