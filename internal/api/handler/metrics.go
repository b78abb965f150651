package handler

import (
	"context"
	"net/http"
	"strconv"

	mw "github.com/brandlens/brandlens/internal/api/middleware"
	"github.com/brandlens/brandlens/internal/api/response"
	"github.com/brandlens/brandlens/internal/store"
	"github.com/brandlens/brandlens/pkg/models"
	"github.com/google/uuid"
)

const maxHistoryDays = 365

// MetricsService is the interface the metrics handlers depend on.
type MetricsService interface {
	ComputeSnapshot(ctx context.Context, brandID uuid.UUID) (*models.MetricSnapshot, error)
	ComputeGEOScore(ctx context.Context, brandID uuid.UUID) (*models.GEOScoreSnapshot, error)
	History(ctx context.Context, brandID uuid.UUID, days int) ([]*models.MetricSnapshot, error)
}

// NewMetricsHandler returns the handler for
// GET /api/v1/brands/{brandID}/metrics. Each call computes and appends a
// fresh snapshot.
func NewMetricsHandler(st store.Store, svc MetricsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		brand, ok := fetchOwnedBrand(w, r, st, userID)
		if !ok {
			return
		}

		snap, err := svc.ComputeSnapshot(r.Context(), brand.ID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to compute metrics", nil)
			return
		}
		response.JSON(w, snap)
	}
}

// NewScoreHandler returns the handler for GET /api/v1/brands/{brandID}/score.
func NewScoreHandler(st store.Store, svc MetricsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		brand, ok := fetchOwnedBrand(w, r, st, userID)
		if !ok {
			return
		}

		snap, err := svc.ComputeGEOScore(r.Context(), brand.ID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to compute score", nil)
			return
		}
		response.JSON(w, snap)
	}
}

// NewMetricsHistoryHandler returns the handler for
// GET /api/v1/brands/{brandID}/metrics/history?days=N.
func NewMetricsHistoryHandler(st store.Store, svc MetricsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		brand, ok := fetchOwnedBrand(w, r, st, userID)
		if !ok {
			return
		}

		days := 0
		if raw := r.URL.Query().Get("days"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > maxHistoryDays {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"days must be an integer between 1 and 365", nil)
				return
			}
			days = parsed
		}

		snaps, err := svc.History(r.Context(), brand.ID, days)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load metric history", nil)
			return
		}
		if snaps == nil {
			snaps = []*models.MetricSnapshot{}
		}
		response.JSON(w, snaps)
	}
}
