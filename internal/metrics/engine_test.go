package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/brandlens/brandlens/internal/store/storetest"
	"github.com/brandlens/brandlens/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func testEngine(st *storetest.MemStore) *Engine {
	e := NewEngine(st, 30)
	e.now = func() time.Time { return fixedNow }
	return e
}

func obs(brandID uuid.UUID, provider string, mentioned bool, conf float64, at time.Time) *models.Observation {
	return &models.Observation{
		ID:          uuid.New(),
		BrandID:     brandID,
		Provider:    provider,
		Query:       "What do you know about Acme?",
		Mentioned:   mentioned,
		Confidence:  conf,
		Sentiment:   models.SentimentNeutral,
		Context:     models.ContextRelevant,
		CollectedAt: at,
	}
}

func seed(t *testing.T, st *storetest.MemStore, rows ...*models.Observation) {
	t.Helper()
	for _, o := range rows {
		require.NoError(t, st.CreateObservation(context.Background(), o))
	}
}

func TestComputeSnapshotNoData(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()

	snap, err := e.ComputeSnapshot(context.Background(), brandID)
	require.NoError(t, err)

	assert.True(t, snap.Metadata.NoData)
	assert.Zero(t, snap.ICE)
	assert.Zero(t, snap.GAP)
	assert.Zero(t, snap.CPI)
	assert.Zero(t, snap.CognitiveStability)
	assert.Len(t, st.MetricSnapshots, 1)
}

func TestComputeSnapshotICE(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()
	at := fixedNow.Add(-time.Hour)

	seed(t, st,
		obs(brandID, "openai", true, 85, at),
		obs(brandID, "openai", true, 85, at),
		obs(brandID, "openai", false, 0, at),
		obs(brandID, "openai", false, 0, at),
	)

	snap, err := e.ComputeSnapshot(context.Background(), brandID)
	require.NoError(t, err)

	assert.Equal(t, float64(50), snap.ICE)
	assert.Equal(t, 4, snap.Metadata.TotalObservations)
	assert.Equal(t, 2, snap.Metadata.MentionCount)
}

func TestComputeSnapshotStabilityUniformConfidence(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()
	at := fixedNow.Add(-time.Hour)

	seed(t, st,
		obs(brandID, "openai", true, 50, at),
		obs(brandID, "anthropic", true, 50, at),
		obs(brandID, "gemini", true, 50, at),
	)

	snap, err := e.ComputeSnapshot(context.Background(), brandID)
	require.NoError(t, err)
	assert.Equal(t, float64(100), snap.CognitiveStability)
}

func TestComputeSnapshotStabilityWideSpread(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()
	at := fixedNow.Add(-time.Hour)

	// sigma for [0,100] is 50, so stability is 100 - 75 = 25.
	seed(t, st,
		obs(brandID, "openai", true, 0, at),
		obs(brandID, "anthropic", true, 100, at),
	)

	snap, err := e.ComputeSnapshot(context.Background(), brandID)
	require.NoError(t, err)
	assert.Equal(t, float64(25), snap.CognitiveStability)
}

func TestComputeSnapshotStabilitySinglePoint(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()

	seed(t, st, obs(brandID, "openai", true, 72, fixedNow.Add(-time.Hour)))

	snap, err := e.ComputeSnapshot(context.Background(), brandID)
	require.NoError(t, err)
	assert.Equal(t, float64(85), snap.CognitiveStability)
}

func TestComputeSnapshotGAP(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()
	at := fixedNow.Add(-time.Hour)

	// openai: mention rate 1.0, mean confidence 70 -> aligned.
	// anthropic: mention rate 0, mean confidence 50 -> not aligned.
	// consensus factor (0.70 + 0.50) / 2 = 0.6, GAP = 1/2 * 100 * 0.6 = 30.
	seed(t, st,
		obs(brandID, "openai", true, 70, at),
		obs(brandID, "openai", true, 70, at),
		obs(brandID, "anthropic", false, 50, at),
		obs(brandID, "anthropic", false, 50, at),
	)

	snap, err := e.ComputeSnapshot(context.Background(), brandID)
	require.NoError(t, err)

	assert.Equal(t, float64(30), snap.GAP)
	assert.InDelta(t, 0.6, snap.Metadata.ConsensusRate, 0.001)
	assert.Equal(t, 2, snap.Metadata.ProviderCounts["openai"])
	assert.Equal(t, 2, snap.Metadata.ProviderCounts["anthropic"])
}

func TestComputeSnapshotCPITwoWindows(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()

	// recent mean 80 vs older mean 70: delta 10, CPI = 100 - 20 = 80.
	seed(t, st,
		obs(brandID, "openai", true, 80, fixedNow.Add(-24*time.Hour)),
		obs(brandID, "openai", true, 80, fixedNow.Add(-48*time.Hour)),
		obs(brandID, "openai", true, 70, fixedNow.Add(-10*24*time.Hour)),
		obs(brandID, "openai", true, 70, fixedNow.Add(-12*24*time.Hour)),
	)

	snap, err := e.ComputeSnapshot(context.Background(), brandID)
	require.NoError(t, err)
	assert.Equal(t, float64(80), snap.CPI)
}

func TestComputeSnapshotCPISingleWindow(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()

	// Only recent data: intra-window sigma of [60,80] is 10, CPI = 80.
	seed(t, st,
		obs(brandID, "openai", true, 60, fixedNow.Add(-24*time.Hour)),
		obs(brandID, "openai", true, 80, fixedNow.Add(-48*time.Hour)),
	)

	snap, err := e.ComputeSnapshot(context.Background(), brandID)
	require.NoError(t, err)
	assert.Equal(t, float64(80), snap.CPI)
}

func TestComputeSnapshotCPIFallbackToPrior(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()

	// Max temporal delta drives CPI to zero despite real mentions.
	seed(t, st,
		obs(brandID, "openai", true, 100, fixedNow.Add(-24*time.Hour)),
		obs(brandID, "openai", true, 0, fixedNow.Add(-10*24*time.Hour)),
	)
	require.NoError(t, st.CreateMetricSnapshot(context.Background(), &models.MetricSnapshot{
		ID:           uuid.New(),
		BrandID:      brandID,
		CPI:          64.5,
		CalculatedAt: fixedNow.Add(-5 * 24 * time.Hour),
	}))

	snap, err := e.ComputeSnapshot(context.Background(), brandID)
	require.NoError(t, err)

	assert.Equal(t, 64.5, snap.CPI)
	assert.Equal(t, "prior_snapshot", snap.Metadata.CPIFallback)
}

func TestComputeSnapshotCPIFallbackToMeanConfidence(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()

	seed(t, st,
		obs(brandID, "openai", true, 100, fixedNow.Add(-24*time.Hour)),
		obs(brandID, "openai", true, 0, fixedNow.Add(-10*24*time.Hour)),
	)

	snap, err := e.ComputeSnapshot(context.Background(), brandID)
	require.NoError(t, err)

	assert.Equal(t, float64(50), snap.CPI)
	assert.Equal(t, "mean_confidence", snap.Metadata.CPIFallback)
}

func TestComputeSnapshotIgnoresObservationsOutsideWindow(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()

	seed(t, st,
		obs(brandID, "openai", true, 85, fixedNow.Add(-time.Hour)),
		obs(brandID, "openai", false, 0, fixedNow.Add(-60*24*time.Hour)),
	)

	snap, err := e.ComputeSnapshot(context.Background(), brandID)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Metadata.TotalObservations)
	assert.Equal(t, float64(100), snap.ICE)
}

func TestComputeSnapshotAppendsNeverMutates(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()

	seed(t, st, obs(brandID, "openai", true, 85, fixedNow.Add(-time.Hour)))

	first, err := e.ComputeSnapshot(context.Background(), brandID)
	require.NoError(t, err)
	second, err := e.ComputeSnapshot(context.Background(), brandID)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, st.MetricSnapshots, 2)
}

func TestComputeSnapshotConfidenceInterval(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()
	at := fixedNow.Add(-time.Hour)

	seed(t, st,
		obs(brandID, "openai", true, 60, at),
		obs(brandID, "anthropic", true, 80, at),
	)

	snap, err := e.ComputeSnapshot(context.Background(), brandID)
	require.NoError(t, err)

	// 1.96 * 10 / sqrt(2)
	assert.InDelta(t, 13.86, snap.ConfidenceInterval, 0.01)
}

func TestHistory(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()

	for _, age := range []time.Duration{time.Hour, 48 * time.Hour, 40 * 24 * time.Hour} {
		require.NoError(t, st.CreateMetricSnapshot(context.Background(), &models.MetricSnapshot{
			ID:           uuid.New(),
			BrandID:      brandID,
			ICE:          50,
			CalculatedAt: fixedNow.Add(-age),
		}))
	}

	snaps, err := e.History(context.Background(), brandID, 7)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)

	all, err := e.History(context.Background(), brandID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2) // default window is 30 days

	long, err := e.History(context.Background(), brandID, 60)
	require.NoError(t, err)
	assert.Len(t, long, 3)
}
