package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/brandlens/brandlens/internal/store"
	"github.com/brandlens/brandlens/pkg/models"
	"github.com/google/uuid"
)

// Sub-score weights. They sum to 1.
const (
	weightTechnicalBase           = 0.20
	weightSemanticStructure       = 0.15
	weightConversationalRelevance = 0.25
	weightCognitiveAuthority      = 0.25
	weightStrategicIntelligence   = 0.15

	highConfThreshold = 70
)

// ComputeGEOScore computes the composite visibility score from five weighted
// sub-scores over the brand's trailing window, appends the snapshot, and
// returns it. Insufficient data degrades sub-scores to zero, never to an
// error.
func (e *Engine) ComputeGEOScore(ctx context.Context, brandID uuid.UUID) (*models.GEOScoreSnapshot, error) {
	now := e.now().UTC()
	obs, err := e.store.ListObservations(ctx, store.ObservationFilter{
		BrandID: brandID,
		Since:   now.Add(-time.Duration(e.windowDays) * 24 * time.Hour),
	})
	if err != nil {
		return nil, fmt.Errorf("loading observations: %w", err)
	}

	snap := &models.GEOScoreSnapshot{
		ID:         uuid.New(),
		BrandID:    brandID,
		ComputedAt: now,
	}

	if len(obs) > 0 {
		snap.Breakdown = computeBreakdown(obs, now)
		snap.Score = math.Round(snap.Breakdown.TechnicalBase*weightTechnicalBase +
			snap.Breakdown.SemanticStructure*weightSemanticStructure +
			snap.Breakdown.ConversationalRelevance*weightConversationalRelevance +
			snap.Breakdown.CognitiveAuthority*weightCognitiveAuthority +
			snap.Breakdown.StrategicIntelligence*weightStrategicIntelligence)
		snap.CPI = computeCPI(obs, now)
	}

	if err := e.store.CreateGEOSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("persisting geo snapshot: %w", err)
	}

	slog.Info("geo score computed",
		"brand_id", brandID,
		"score", snap.Score,
		"observations", snap.Breakdown.TotalObservations,
	)
	return snap, nil
}

func computeBreakdown(obs []*models.Observation, now time.Time) models.GEOBreakdown {
	total := len(obs)

	mentions := 0
	highConf := 0
	var confSum float64
	queries := make(map[string]struct{})
	for _, o := range obs {
		queries[o.Query] = struct{}{}
		if !o.Mentioned {
			continue
		}
		mentions++
		confSum += o.Confidence
		if o.Confidence > highConfThreshold {
			highConf++
		}
	}

	b := models.GEOBreakdown{
		TotalObservations: total,
		MentionCount:      mentions,
		DistinctQueries:   len(queries),
		HighConfMentions:  highConf,
	}

	mentionRate := float64(mentions) / float64(total)

	// Mention rate carries the technical base; sheer query volume adds a
	// small capped bonus.
	b.TechnicalBase = round2(clamp(mentionRate*80+math.Min(float64(total), 20), 0, 100))

	// Diversity of distinct probe questions, saturating at the full library.
	b.SemanticStructure = round2(clamp(float64(len(queries))*12.5, 0, 100))

	if mentions > 0 {
		b.ConversationalRelevance = round2(float64(highConf) / float64(mentions) * 100)
		b.MeanConfidence = round2(confSum / float64(mentions))
		b.CognitiveAuthority = b.MeanConfidence
	}

	b.WeekOverWeek = weekOverWeekGrowth(obs, now)
	b.StrategicIntelligence = round2(0.6*pillarConsistency(b) + 0.4*growthScore(b.WeekOverWeek))

	return b
}

// pillarConsistency rewards sub-scores that agree with one another: the
// spread across the four base pillars is subtracted from a perfect 100.
func pillarConsistency(b models.GEOBreakdown) float64 {
	spread := stdDev([]float64{
		b.TechnicalBase,
		b.SemanticStructure,
		b.ConversationalRelevance,
		b.CognitiveAuthority,
	})
	return math.Max(0, 100-spread)
}

// weekOverWeekGrowth is the percent change in mention count between the last
// seven days and the seven days before that.
func weekOverWeekGrowth(obs []*models.Observation, now time.Time) float64 {
	cutoff := now.Add(-recentWindow)
	prevCutoff := cutoff.Add(-recentWindow)

	recent, prior := 0, 0
	for _, o := range obs {
		if !o.Mentioned {
			continue
		}
		switch {
		case o.CollectedAt.After(cutoff):
			recent++
		case o.CollectedAt.After(prevCutoff):
			prior++
		}
	}

	if prior == 0 {
		if recent > 0 {
			return 100
		}
		return 0
	}
	return round2(float64(recent-prior) / float64(prior) * 100)
}

// growthScore maps a week-over-week percent change onto [0,100], with flat
// growth landing at 50.
func growthScore(wow float64) float64 {
	return clamp(50+wow/2, 0, 100)
}
