package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brandlens/brandlens/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users ---

func (s *PostgresStore) GetDefaultUser(ctx context.Context) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, created_at, updated_at FROM users WHERE email = 'default@localhost' LIMIT 1`,
	).Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get default user: %w", err)
	}
	return &u, nil
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.UserID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Brands ---

func (s *PostgresStore) CreateBrand(ctx context.Context, brand *models.Brand) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO brands (id, user_id, name, domain, context, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		brand.ID, brand.UserID, brand.Name, brand.Domain, brand.Context,
		brand.CreatedAt, brand.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create brand: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBrand(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	var b models.Brand
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name, domain, context, created_at, updated_at
		 FROM brands WHERE id = $1`, id,
	).Scan(&b.ID, &b.UserID, &b.Name, &b.Domain, &b.Context, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get brand: %w", err)
	}
	return &b, nil
}

func (s *PostgresStore) ListBrands(ctx context.Context, userID uuid.UUID) ([]*models.Brand, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, domain, context, created_at, updated_at
		 FROM brands WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var brands []*models.Brand
	for rows.Next() {
		var b models.Brand
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.Domain, &b.Context,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		brands = append(brands, &b)
	}
	return brands, rows.Err()
}

// --- Observations ---

// CreateObservation appends one observation row. Rows are immutable; there is
// no update path.
func (s *PostgresStore) CreateObservation(ctx context.Context, obs *models.Observation) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO observations (id, brand_id, provider, query, mentioned, confidence, sentiment, context, answer_excerpt, collected_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		obs.ID, obs.BrandID, obs.Provider, obs.Query, obs.Mentioned, obs.Confidence,
		obs.Sentiment, obs.Context, obs.AnswerExcerpt, obs.CollectedAt)
	if err != nil {
		return fmt.Errorf("create observation: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListObservations(ctx context.Context, filter ObservationFilter) ([]*models.Observation, error) {
	conditions := []string{"brand_id = $1"}
	args := []any{filter.BrandID}
	argIdx := 2

	if filter.Provider != "" {
		conditions = append(conditions, fmt.Sprintf("provider = $%d", argIdx))
		args = append(args, filter.Provider)
		argIdx++
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("collected_at >= $%d", argIdx))
		args = append(args, filter.Since)
		argIdx++
	}
	if !filter.Until.IsZero() {
		conditions = append(conditions, fmt.Sprintf("collected_at < $%d", argIdx))
		args = append(args, filter.Until)
		argIdx++
	}

	query := fmt.Sprintf(
		`SELECT id, brand_id, provider, query, mentioned, confidence, sentiment, context, answer_excerpt, collected_at
		 FROM observations WHERE %s ORDER BY collected_at ASC`,
		strings.Join(conditions, " AND "))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	defer rows.Close()

	var observations []*models.Observation
	for rows.Next() {
		var o models.Observation
		if err := rows.Scan(&o.ID, &o.BrandID, &o.Provider, &o.Query, &o.Mentioned,
			&o.Confidence, &o.Sentiment, &o.Context, &o.AnswerExcerpt, &o.CollectedAt); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		observations = append(observations, &o)
	}
	return observations, rows.Err()
}

// --- Metric Snapshots ---

func (s *PostgresStore) CreateMetricSnapshot(ctx context.Context, snap *models.MetricSnapshot) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO metric_snapshots (id, brand_id, ice, gap, cpi, cognitive_stability, confidence_interval, metadata, calculated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		snap.ID, snap.BrandID, snap.ICE, snap.GAP, snap.CPI, snap.CognitiveStability,
		snap.ConfidenceInterval, snap.Metadata, snap.CalculatedAt)
	if err != nil {
		return fmt.Errorf("create metric snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListMetricSnapshots(ctx context.Context, brandID uuid.UUID, since time.Time) ([]*models.MetricSnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, brand_id, ice, gap, cpi, cognitive_stability, confidence_interval, metadata, calculated_at
		 FROM metric_snapshots WHERE brand_id = $1 AND calculated_at >= $2 ORDER BY calculated_at DESC`,
		brandID, since)
	if err != nil {
		return nil, fmt.Errorf("list metric snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*models.MetricSnapshot
	for rows.Next() {
		var m models.MetricSnapshot
		if err := rows.Scan(&m.ID, &m.BrandID, &m.ICE, &m.GAP, &m.CPI, &m.CognitiveStability,
			&m.ConfidenceInterval, &m.Metadata, &m.CalculatedAt); err != nil {
			return nil, fmt.Errorf("scan metric snapshot: %w", err)
		}
		snaps = append(snaps, &m)
	}
	return snaps, rows.Err()
}

// LatestNonZeroCPI returns the most recent prior CPI greater than zero for
// the brand, used by the CPI fallback rule.
func (s *PostgresStore) LatestNonZeroCPI(ctx context.Context, brandID uuid.UUID) (float64, bool, error) {
	var cpi float64
	err := s.pool.QueryRow(ctx,
		`SELECT cpi FROM metric_snapshots
		 WHERE brand_id = $1 AND cpi > 0 ORDER BY calculated_at DESC LIMIT 1`, brandID,
	).Scan(&cpi)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("latest non-zero cpi: %w", err)
	}
	return cpi, true, nil
}

// --- GEO Score Snapshots ---

func (s *PostgresStore) CreateGEOSnapshot(ctx context.Context, snap *models.GEOScoreSnapshot) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO geo_score_snapshots (id, brand_id, score, cpi, breakdown, computed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		snap.ID, snap.BrandID, snap.Score, snap.CPI, snap.Breakdown, snap.ComputedAt)
	if err != nil {
		return fmt.Errorf("create geo snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestGEOSnapshot(ctx context.Context, brandID uuid.UUID) (*models.GEOScoreSnapshot, error) {
	var g models.GEOScoreSnapshot
	err := s.pool.QueryRow(ctx,
		`SELECT id, brand_id, score, cpi, breakdown, computed_at
		 FROM geo_score_snapshots WHERE brand_id = $1 ORDER BY computed_at DESC LIMIT 1`, brandID,
	).Scan(&g.ID, &g.BrandID, &g.Score, &g.CPI, &g.Breakdown, &g.ComputedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest geo snapshot: %w", err)
	}
	return &g, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
