package metrics

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/brandlens/brandlens/internal/store/storetest"
	"github.com/brandlens/brandlens/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeGEOScoreNoData(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()

	snap, err := e.ComputeGEOScore(context.Background(), brandID)
	require.NoError(t, err)

	assert.Zero(t, snap.Score)
	assert.Zero(t, snap.Breakdown.TotalObservations)
	assert.Len(t, st.GEOSnapshots, 1)
}

func TestComputeGEOScoreBreakdown(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()
	at := fixedNow.Add(-time.Hour)

	// Four distinct queries, every answer a high-confidence mention.
	for i := 0; i < 4; i++ {
		o := obs(brandID, "openai", true, 80, at)
		o.Query = fmt.Sprintf("probe question %d", i)
		seed(t, st, o)
	}

	snap, err := e.ComputeGEOScore(context.Background(), brandID)
	require.NoError(t, err)

	b := snap.Breakdown
	assert.Equal(t, 4, b.TotalObservations)
	assert.Equal(t, 4, b.MentionCount)
	assert.Equal(t, 4, b.DistinctQueries)
	assert.Equal(t, 4, b.HighConfMentions)

	// mention rate 1.0 * 80 + volume bonus 4
	assert.Equal(t, float64(84), b.TechnicalBase)
	// 4 distinct queries * 12.5
	assert.Equal(t, float64(50), b.SemanticStructure)
	// every mention above the 70 threshold
	assert.Equal(t, float64(100), b.ConversationalRelevance)
	assert.Equal(t, float64(80), b.CognitiveAuthority)
	assert.Equal(t, float64(80), b.MeanConfidence)
	// mentions this week, none the week before
	assert.Equal(t, float64(100), b.WeekOverWeek)

	want := math.Round(b.TechnicalBase*0.20 +
		b.SemanticStructure*0.15 +
		b.ConversationalRelevance*0.25 +
		b.CognitiveAuthority*0.25 +
		b.StrategicIntelligence*0.15)
	assert.Equal(t, want, snap.Score)
	assert.GreaterOrEqual(t, snap.Score, float64(0))
	assert.LessOrEqual(t, snap.Score, float64(100))
}

func TestComputeGEOScoreNoMentions(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()
	at := fixedNow.Add(-time.Hour)

	seed(t, st,
		obs(brandID, "openai", false, 0, at),
		obs(brandID, "anthropic", false, 0, at),
	)

	snap, err := e.ComputeGEOScore(context.Background(), brandID)
	require.NoError(t, err)

	b := snap.Breakdown
	assert.Zero(t, b.ConversationalRelevance)
	assert.Zero(t, b.CognitiveAuthority)
	assert.Zero(t, b.WeekOverWeek)
	// Distinct-query diversity still counts even with zero mentions.
	assert.Equal(t, 1, b.DistinctQueries)
}

func TestWeekOverWeekGrowth(t *testing.T) {
	brandID := uuid.New()

	recent := obs(brandID, "openai", true, 80, fixedNow.Add(-24*time.Hour))
	prior := obs(brandID, "openai", true, 80, fixedNow.Add(-10*24*time.Hour))

	t.Run("doubling", func(t *testing.T) {
		rows := []*models.Observation{recent, recent, prior}
		assert.Equal(t, float64(100), weekOverWeekGrowth(rows, fixedNow))
	})

	t.Run("halving", func(t *testing.T) {
		rows := []*models.Observation{recent, prior, prior}
		assert.Equal(t, float64(-50), weekOverWeekGrowth(rows, fixedNow))
	})

	t.Run("flat", func(t *testing.T) {
		rows := []*models.Observation{recent, prior}
		assert.Equal(t, float64(0), weekOverWeekGrowth(rows, fixedNow))
	})

	t.Run("first mentions score full growth", func(t *testing.T) {
		rows := []*models.Observation{recent}
		assert.Equal(t, float64(100), weekOverWeekGrowth(rows, fixedNow))
	})
}

func TestGrowthScoreClamped(t *testing.T) {
	assert.Equal(t, float64(50), growthScore(0))
	assert.Equal(t, float64(100), growthScore(150))
	assert.Equal(t, float64(0), growthScore(-200))
	assert.Equal(t, float64(75), growthScore(50))
}

func TestComputeGEOScoreAppends(t *testing.T) {
	st := storetest.New()
	e := testEngine(st)
	brandID := uuid.New()

	seed(t, st, obs(brandID, "openai", true, 85, fixedNow.Add(-time.Hour)))

	first, err := e.ComputeGEOScore(context.Background(), brandID)
	require.NoError(t, err)
	second, err := e.ComputeGEOScore(context.Background(), brandID)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, st.GEOSnapshots, 2)
}
