// Package storetest provides an in-memory store.Store for unit tests.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/brandlens/brandlens/internal/store"
	"github.com/brandlens/brandlens/pkg/models"
	"github.com/google/uuid"
)

// MemStore implements store.Store in memory. Safe for concurrent use.
type MemStore struct {
	mu sync.Mutex

	Users           []*models.User
	Keys            []*models.APIKey
	Brands          map[uuid.UUID]*models.Brand
	Observations    []*models.Observation
	MetricSnapshots []*models.MetricSnapshot
	GEOSnapshots    []*models.GEOScoreSnapshot

	// CreateObservationErr, when set, fails every observation write.
	CreateObservationErr error
}

func New() *MemStore {
	return &MemStore{Brands: map[uuid.UUID]*models.Brand{}}
}

func (m *MemStore) Ping(context.Context) error { return nil }

func (m *MemStore) GetDefaultUser(context.Context) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Users) == 0 {
		return nil, store.ErrNotFound
	}
	return m.Users[0], nil
}

func (m *MemStore) GetAPIKeyByPrefix(_ context.Context, prefix string) ([]*models.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.APIKey
	for _, k := range m.Keys {
		if k.KeyPrefix == prefix && k.DeletedAt == nil {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *MemStore) UpdateAPIKeyLastUsed(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, k := range m.Keys {
		if k.ID == id {
			k.LastUsedAt = &now
		}
	}
	return nil
}

func (m *MemStore) CreateAPIKey(_ context.Context, key *models.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Keys = append(m.Keys, key)
	return nil
}

func (m *MemStore) ListAPIKeys(_ context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.APIKey
	for _, k := range m.Keys {
		if k.UserID == userID && k.DeletedAt == nil {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *MemStore) RevokeAPIKey(_ context.Context, id uuid.UUID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, k := range m.Keys {
		if k.ID == id && k.UserID == userID && k.DeletedAt == nil {
			k.DeletedAt = &now
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *MemStore) CreateBrand(_ context.Context, brand *models.Brand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Brands[brand.ID] = brand
	return nil
}

func (m *MemStore) GetBrand(_ context.Context, id uuid.UUID) (*models.Brand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Brands[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return b, nil
}

func (m *MemStore) ListBrands(_ context.Context, userID uuid.UUID) ([]*models.Brand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Brand
	for _, b := range m.Brands {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) CreateObservation(_ context.Context, obs *models.Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateObservationErr != nil {
		return m.CreateObservationErr
	}
	m.Observations = append(m.Observations, obs)
	return nil
}

func (m *MemStore) ListObservations(_ context.Context, filter store.ObservationFilter) ([]*models.Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Observation
	for _, o := range m.Observations {
		if o.BrandID != filter.BrandID {
			continue
		}
		if filter.Provider != "" && o.Provider != filter.Provider {
			continue
		}
		if !filter.Since.IsZero() && o.CollectedAt.Before(filter.Since) {
			continue
		}
		if !filter.Until.IsZero() && !o.CollectedAt.Before(filter.Until) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CollectedAt.Before(out[j].CollectedAt) })
	return out, nil
}

func (m *MemStore) CreateMetricSnapshot(_ context.Context, snap *models.MetricSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MetricSnapshots = append(m.MetricSnapshots, snap)
	return nil
}

func (m *MemStore) ListMetricSnapshots(_ context.Context, brandID uuid.UUID, since time.Time) ([]*models.MetricSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.MetricSnapshot
	for _, s := range m.MetricSnapshots {
		if s.BrandID == brandID && !s.CalculatedAt.Before(since) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CalculatedAt.After(out[j].CalculatedAt) })
	return out, nil
}

func (m *MemStore) LatestNonZeroCPI(_ context.Context, brandID uuid.UUID) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var (
		found bool
		cpi   float64
		at    time.Time
	)
	for _, s := range m.MetricSnapshots {
		if s.BrandID == brandID && s.CPI > 0 && (!found || s.CalculatedAt.After(at)) {
			cpi, at, found = s.CPI, s.CalculatedAt, true
		}
	}
	return cpi, found, nil
}

func (m *MemStore) CreateGEOSnapshot(_ context.Context, snap *models.GEOScoreSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GEOSnapshots = append(m.GEOSnapshots, snap)
	return nil
}

func (m *MemStore) LatestGEOSnapshot(_ context.Context, brandID uuid.UUID) (*models.GEOScoreSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.GEOScoreSnapshot
	for _, s := range m.GEOSnapshots {
		if s.BrandID == brandID && (latest == nil || s.ComputedAt.After(latest.ComputedAt)) {
			latest = s
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	return latest, nil
}

var _ store.Store = (*MemStore)(nil)
