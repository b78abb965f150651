package models

import (
	"time"

	"github.com/google/uuid"
)

// Observation records the outcome of asking one provider one question about a
// brand. Rows are immutable once written; the metrics engine reads them in
// bulk over a trailing window.
type Observation struct {
	ID            uuid.UUID `db:"id"             json:"id"`
	BrandID       uuid.UUID `db:"brand_id"       json:"brand_id"`
	Provider      string    `db:"provider"       json:"provider"`
	Query         string    `db:"query"          json:"query"`
	Mentioned     bool      `db:"mentioned"      json:"mentioned"`
	Confidence    float64   `db:"confidence"     json:"confidence"`
	Sentiment     string    `db:"sentiment"      json:"sentiment"`
	Context       string    `db:"context"        json:"context"`
	AnswerExcerpt string    `db:"answer_excerpt" json:"answer_excerpt"`
	CollectedAt   time.Time `db:"collected_at"   json:"collected_at"`
}
