// Package metrics reduces persisted observations into the longitudinal
// trust and visibility metrics: ICE, GAP, CPI, Cognitive Stability, and the
// composite GEO score. Every computation appends an immutable snapshot row.
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

const (
	recentWindow = 7 * 24 * time.Hour

	// metadata markers for the CPI substitution rule
	cpiFallbackPrior    = "prior_snapshot"
	cpiFallbackMeanConf = "mean_confidence"
)

// Engine computes metric snapshots from a trailing observation window.
type Engine struct {
	store      store.Store
	windowDays int
	now        func() time.Time
}

// NewEngine creates an Engine reading a trailing window of windowDays.
func NewEngine(st store.Store, windowDays int) *Engine {
	if windowDays <= 0 {
		windowDays = 30
	}
	return &Engine{store: st, windowDays: windowDays, now: time.Now}
}

// ComputeSnapshot computes ICE, GAP, CPI, Cognitive Stability and the
// confidence interval for the brand's trailing window, appends the snapshot,
// and returns it. Zero observations produce a zero-valued snapshot tagged
// no_data rather than an error.
func (e *Engine) ComputeSnapshot(ctx context.Context, brandID uuid.UUID) (*models.MetricSnapshot, error) {
	now := e.now().UTC()
	obs, err := e.store.ListObservations(ctx, store.ObservationFilter{
		BrandID: brandID,
		Since:   now.Add(-time.Duration(e.windowDays) * 24 * time.Hour),
	})
	if err != nil {
		return nil, fmt.Errorf("loading observations: %w", err)
	}

	snap := &models.MetricSnapshot{
		ID:           uuid.New(),
		BrandID:      brandID,
		CalculatedAt: now,
	}

	if len(obs) == 0 {
		snap.Metadata = models.SnapshotMetadata{NoData: true}
		if err := e.store.CreateMetricSnapshot(ctx, snap); err != nil {
			return nil, fmt.Errorf("persisting snapshot: %w", err)
		}
		return snap, nil
	}

	mentioned := mentionedConfidences(obs)

	snap.ICE = math.Round(float64(len(mentioned)) / float64(len(obs)) * 100)

	gap, byProvider, consensus := computeGAP(obs)
	snap.GAP = gap
	snap.CPI = computeCPI(obs, now)
	snap.CognitiveStability = computeStability(mentioned)
	snap.ConfidenceInterval = confidenceInterval(mentioned)

	snap.Metadata = models.SnapshotMetadata{
		TotalObservations: len(obs),
		MentionCount:      len(mentioned),
		ProviderCounts:    providerCounts(obs),
		ProviderStdDevs:   providerStdDevs(byProvider),
		ConsensusRate:     round2(consensus),
	}

	// A transient zero CPI with real mentions would mask the trend; prefer
	// the last known non-zero value, then the mean confidence as a proxy.
	if snap.CPI == 0 && len(mentioned) > 0 {
		prior, ok, err := e.store.LatestNonZeroCPI(ctx, brandID)
		if err != nil {
			return nil, fmt.Errorf("looking up prior cpi: %w", err)
		}
		if ok {
			snap.CPI = prior
			snap.Metadata.CPIFallback = cpiFallbackPrior
		} else {
			snap.CPI = round2(mean(mentioned))
			snap.Metadata.CPIFallback = cpiFallbackMeanConf
		}
	}

	if err := e.store.CreateMetricSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("persisting snapshot: %w", err)
	}

	slog.Info("metric snapshot computed",
		"brand_id", brandID,
		"observations", len(obs),
		"ice", snap.ICE,
		"gap", snap.GAP,
		"cpi", snap.CPI,
		"stability", snap.CognitiveStability,
	)
	return snap, nil
}

// History returns the brand's snapshot series for the trailing days.
func (e *Engine) History(ctx context.Context, brandID uuid.UUID, days int) ([]*models.MetricSnapshot, error) {
	if days <= 0 {
		days = e.windowDays
	}
	since := e.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	return e.store.ListMetricSnapshots(ctx, brandID, since)
}

func mentionedConfidences(obs []*models.Observation) []float64 {
	var out []float64
	for _, o := range obs {
		if o.Mentioned {
			out = append(out, o.Confidence)
		}
	}
	return out
}

func providerCounts(obs []*models.Observation) map[string]int {
	counts := make(map[string]int)
	for _, o := range obs {
		counts[o.Provider]++
	}
	return counts
}

func providerStdDevs(byProvider map[string][]*models.Observation) map[string]float64 {
	out := make(map[string]float64, len(byProvider))
	for name, list := range byProvider {
		confs := make([]float64, len(list))
		for i, o := range list {
			confs[i] = o.Confidence
		}
		out[name] = round2(stdDev(confs))
	}
	return out
}

// computeGAP partitions observations by provider. A provider is aligned when
// its mention rate exceeds 50% and its mean confidence exceeds 50. The
// alignment share is then damped by the consensus factor, the cross-provider
// mean of per-provider mean confidence.
func computeGAP(obs []*models.Observation) (gap float64, byProvider map[string][]*models.Observation, consensus float64) {
	byProvider = make(map[string][]*models.Observation)
	for _, o := range obs {
		byProvider[o.Provider] = append(byProvider[o.Provider], o)
	}

	aligned := 0
	var confSum float64
	for _, list := range byProvider {
		mentions := 0
		var sum float64
		for _, o := range list {
			if o.Mentioned {
				mentions++
			}
			sum += o.Confidence
		}
		meanConf := sum / float64(len(list))
		confSum += meanConf / 100
		if float64(mentions)/float64(len(list)) > 0.5 && meanConf > 50 {
			aligned++
		}
	}

	consensus = confSum / float64(len(byProvider))
	gap = math.Round(float64(aligned) / float64(len(byProvider)) * 100 * consensus)
	return gap, byProvider, consensus
}

// computeCPI compares the mean confidence of mentioned observations in the
// last seven days against the prior stretch of the window. When only one of
// the windows has data the intra-window deviation stands in for the delta.
func computeCPI(obs []*models.Observation, now time.Time) float64 {
	cutoff := now.Add(-recentWindow)

	var recent, older []float64
	for _, o := range obs {
		if !o.Mentioned {
			continue
		}
		if o.CollectedAt.After(cutoff) {
			recent = append(recent, o.Confidence)
		} else {
			older = append(older, o.Confidence)
		}
	}

	var temporal float64
	switch {
	case len(recent) > 0 && len(older) > 0:
		temporal = math.Abs(mean(recent) - mean(older))
	case len(recent) > 0:
		temporal = stdDev(recent)
	case len(older) > 0:
		temporal = stdDev(older)
	default:
		return 0
	}

	return round2(math.Max(0, 100-temporal*2))
}

// computeStability scores the dispersion of confidence across mentioned
// observations. One data point is not enough to judge spread, so it scores a
// fixed 85; zero points score 100 (no evidence of instability).
func computeStability(mentioned []float64) float64 {
	switch len(mentioned) {
	case 0:
		return 100
	case 1:
		return 85
	}
	return round2(math.Max(0, 100-stdDev(mentioned)*1.5))
}

// confidenceInterval is the 95% interval half-width of mentioned confidences.
func confidenceInterval(mentioned []float64) float64 {
	if len(mentioned) < 2 {
		return 0
	}
	return round2(1.96 * stdDev(mentioned) / math.Sqrt(float64(len(mentioned))))
}
