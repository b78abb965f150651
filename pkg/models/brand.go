package models

import (
	"time"

	"github.com/google/uuid"
)

// Brand is a monitored brand. Observations and metric snapshots all hang off
// a brand; the collection pipeline only ever reads these fields, it never
// mutates them.
type Brand struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	UserID    uuid.UUID `db:"user_id"    json:"user_id"`
	Name      string    `db:"name"       json:"name"`
	Domain    string    `db:"domain"     json:"domain"`
	Context   string    `db:"context"    json:"context,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// User represents an account that owns brands and API keys.
type User struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Email     string    `db:"email"      json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
