package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	mw "github.com/brandlens/brandlens/internal/api/middleware"
	"github.com/brandlens/brandlens/internal/api/response"
	"github.com/brandlens/brandlens/internal/collector"
	"github.com/brandlens/brandlens/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	maxCustomQueryLen    = 500
	maxSelectedProviders = 10
)

// CollectionRunner is the interface the collect handler depends on.
type CollectionRunner interface {
	Run(ctx context.Context, params collector.Params) (*collector.Result, error)
}

type collectResponse struct {
	Success bool `json:"success"`
	*collector.Result
}

// NewCollectHandler returns the handler for
// POST /api/v1/brands/{brandID}/collect.
func NewCollectHandler(runner CollectionRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		brandID, err := uuid.Parse(chi.URLParam(r, "brandID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"brandID must be a valid UUID", nil)
			return
		}

		// The body is optional; an empty body runs the full template library
		// against every available provider.
		var req struct {
			CustomQuery string   `json:"custom_query"`
			Providers   []string `json:"providers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if len(req.CustomQuery) > maxCustomQueryLen {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"custom_query exceeds 500 characters", nil)
			return
		}
		if len(req.Providers) > maxSelectedProviders {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"providers list exceeds 10 entries", nil)
			return
		}

		result, err := runner.Run(r.Context(), collector.Params{
			BrandID:     brandID,
			UserID:      userID,
			CustomQuery: req.CustomQuery,
			Providers:   req.Providers,
		})
		if err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				response.Error(w, http.StatusNotFound, "BRAND_NOT_FOUND", "Brand not found", nil)
			case errors.Is(err, collector.ErrNotOwner):
				response.Error(w, http.StatusForbidden, "FORBIDDEN",
					"Brand does not belong to the caller", nil)
			case errors.Is(err, collector.ErrNoProviders):
				response.Error(w, http.StatusServiceUnavailable, "NO_PROVIDERS",
					"No AI providers are available", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"Collection run failed", nil)
			}
			return
		}

		response.JSON(w, collectResponse{Success: true, Result: result})
	}
}
