package models

import (
	"time"

	"github.com/google/uuid"
)

// MetricSnapshot is one immutable computed-metrics record. Later snapshots
// never overwrite earlier ones; the series enables trend queries.
type MetricSnapshot struct {
	ID                 uuid.UUID        `db:"id"                  json:"id"`
	BrandID            uuid.UUID        `db:"brand_id"            json:"brand_id"`
	ICE                float64          `db:"ice"                 json:"ice"`
	GAP                float64          `db:"gap"                 json:"gap"`
	CPI                float64          `db:"cpi"                 json:"cpi"`
	CognitiveStability float64          `db:"cognitive_stability" json:"cognitive_stability"`
	ConfidenceInterval float64          `db:"confidence_interval" json:"confidence_interval"`
	Metadata           SnapshotMetadata `db:"metadata"            json:"metadata"`
	CalculatedAt       time.Time        `db:"calculated_at"       json:"calculated_at"`
}

// SnapshotMetadata carries the supporting statistics behind a snapshot.
// Stored as a JSONB column.
type SnapshotMetadata struct {
	TotalObservations int                `json:"total_observations"`
	MentionCount      int                `json:"mention_count"`
	ProviderCounts    map[string]int     `json:"provider_counts,omitempty"`
	ProviderStdDevs   map[string]float64 `json:"provider_std_devs,omitempty"`
	ConsensusRate     float64            `json:"consensus_rate"`
	NoData            bool               `json:"no_data,omitempty"`
	CPIFallback       string             `json:"cpi_fallback,omitempty"`
}

// GEOScoreSnapshot is the composite visibility score sibling to
// MetricSnapshot, with the same append-only discipline.
type GEOScoreSnapshot struct {
	ID         uuid.UUID     `db:"id"          json:"id"`
	BrandID    uuid.UUID     `db:"brand_id"    json:"brand_id"`
	Score      float64       `db:"score"       json:"score"`
	CPI        float64       `db:"cpi"         json:"cpi"`
	Breakdown  GEOBreakdown  `db:"breakdown"   json:"breakdown"`
	ComputedAt time.Time     `db:"computed_at" json:"computed_at"`
}

// GEOBreakdown holds the five weighted sub-scores plus the raw counters they
// were derived from. Stored as a JSONB column.
type GEOBreakdown struct {
	TechnicalBase           float64 `json:"technical_base"`
	SemanticStructure       float64 `json:"semantic_structure"`
	ConversationalRelevance float64 `json:"conversational_relevance"`
	CognitiveAuthority      float64 `json:"cognitive_authority"`
	StrategicIntelligence   float64 `json:"strategic_intelligence"`

	TotalObservations int     `json:"total_observations"`
	MentionCount      int     `json:"mention_count"`
	DistinctQueries   int     `json:"distinct_queries"`
	HighConfMentions  int     `json:"high_conf_mentions"`
	MeanConfidence    float64 `json:"mean_confidence"`
	WeekOverWeek      float64 `json:"week_over_week"`
}
