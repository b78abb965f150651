package store

import (
	"context"
	"errors"
	"time"

	"github.com/brandlens/brandlens/pkg/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error
	GetDefaultUser(ctx context.Context) (*models.User, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	CreateBrand(ctx context.Context, brand *models.Brand) error
	GetBrand(ctx context.Context, id uuid.UUID) (*models.Brand, error)
	ListBrands(ctx context.Context, userID uuid.UUID) ([]*models.Brand, error)

	CreateObservation(ctx context.Context, obs *models.Observation) error
	ListObservations(ctx context.Context, filter ObservationFilter) ([]*models.Observation, error)

	CreateMetricSnapshot(ctx context.Context, snap *models.MetricSnapshot) error
	ListMetricSnapshots(ctx context.Context, brandID uuid.UUID, since time.Time) ([]*models.MetricSnapshot, error)
	LatestNonZeroCPI(ctx context.Context, brandID uuid.UUID) (float64, bool, error)

	CreateGEOSnapshot(ctx context.Context, snap *models.GEOScoreSnapshot) error
	LatestGEOSnapshot(ctx context.Context, brandID uuid.UUID) (*models.GEOScoreSnapshot, error)
}

// ObservationFilter selects observations for a brand within a time window.
type ObservationFilter struct {
	BrandID  uuid.UUID
	Provider string
	Since    time.Time
	Until    time.Time
}
