// Package handler contains the HTTP handlers for the brand visibility API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	mw "github.com/brandlens/brandlens/internal/api/middleware"
	"github.com/brandlens/brandlens/internal/api/response"
	"github.com/brandlens/brandlens/internal/store"
	"github.com/brandlens/brandlens/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBrandNameLen = 255

// NewCreateBrandHandler returns the handler for POST /api/v1/brands.
func NewCreateBrandHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req struct {
			Name    string `json:"name"`
			Domain  string `json:"domain"`
			Context string `json:"context"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
			return
		}
		if len(name) > maxBrandNameLen {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is too long", nil)
			return
		}

		domain := normalizeDomain(req.Domain)
		if domain == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "domain is required", nil)
			return
		}

		now := time.Now().UTC()
		brand := &models.Brand{
			ID:        uuid.New(),
			UserID:    userID,
			Name:      name,
			Domain:    domain,
			Context:   strings.TrimSpace(req.Context),
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := st.CreateBrand(r.Context(), brand); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				response.Error(w, http.StatusConflict, "DUPLICATE_BRAND",
					"A brand with this name already exists", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to create brand", nil)
			return
		}

		response.Created(w, brand)
	}
}

// NewListBrandsHandler returns the handler for GET /api/v1/brands.
func NewListBrandsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		brands, err := st.ListBrands(r.Context(), userID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to list brands", nil)
			return
		}
		if brands == nil {
			brands = []*models.Brand{}
		}
		response.JSON(w, brands)
	}
}

// NewGetBrandHandler returns the handler for GET /api/v1/brands/{brandID}.
func NewGetBrandHandler(st store.Store) http.HandlerFunc {
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
		response.JSON(w, brand)
	}
}

// fetchOwnedBrand parses the brandID path parameter and loads the brand,
// writing the error response itself when anything is off. A brand owned by
// someone else reads as 404, not 403, so key holders cannot probe for
// foreign brand IDs.
func fetchOwnedBrand(w http.ResponseWriter, r *http.Request, st store.Store, userID uuid.UUID) (*models.Brand, bool) {
	brandID, err := uuid.Parse(chi.URLParam(r, "brandID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "brandID must be a valid UUID", nil)
		return nil, false
	}

	brand, err := st.GetBrand(r.Context(), brandID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "BRAND_NOT_FOUND", "Brand not found", nil)
			return nil, false
		}
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load brand", nil)
		return nil, false
	}
	if brand.UserID != userID {
		response.Error(w, http.StatusNotFound, "BRAND_NOT_FOUND", "Brand not found", nil)
		return nil, false
	}
	return brand, true
}

// normalizeDomain lowercases and strips the protocol and www prefix, leaving
// the bare domain the analyzer matches against.
func normalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	return strings.TrimSuffix(d, "/")
}
