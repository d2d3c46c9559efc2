package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"cropsense/internal/core"
	"cropsense/internal/types"
)

// CropCatalog is the catalog service contract the crops handler depends on.
type CropCatalog interface {
	List(ctx context.Context, limit, offset int) (*types.CropSearchResult, error)
	Search(ctx context.Context, params types.CropSearchParams) (*types.CropSearchResult, error)
	GetByCategory(ctx context.Context, slug string, limit, offset int) (*types.CropSearchResult, error)
	GetByID(ctx context.Context, id string) (*types.CropDetail, error)
	ListCategories(ctx context.Context) ([]types.CropCategory, error)
	TrainingData(ctx context.Context, limit int) ([]types.CropTrainingRecord, error)
}

// CatalogStats maintains and serves catalog statistics snapshots.
type CatalogStats interface {
	Refresh(ctx context.Context) (*types.CropDatabaseStats, error)
	Latest(ctx context.Context) (*types.CropDatabaseStats, error)
}

// CropsHandler serves the crop catalog: browse, search, categories, stats,
// and the training-data export.
type CropsHandler struct {
	catalog CropCatalog
	stats   CatalogStats
	logger  *slog.Logger
}

// NewCropsHandler creates a CropsHandler.
func NewCropsHandler(catalog CropCatalog, stats CatalogStats, logger *slog.Logger) *CropsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CropsHandler{catalog: catalog, stats: stats, logger: logger}
}

// RegisterRoutes mounts the catalog endpoints on the given router. Static
// paths are registered before the /{id} wildcard so chi matches them first.
func (h *CropsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/crops", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/search", h.HandleSearch)
		r.Get("/categories", h.HandleCategories)
		r.Get("/category/{slug}", h.HandleByCategory)
		r.Get("/stats", h.HandleStats)
		r.Post("/stats/refresh", h.HandleStatsRefresh)
		r.Get("/ai/training-data", h.HandleTrainingData)
		r.Get("/{id}", h.HandleGetByID)
	})
}

// CropListResponse is the envelope for paginated catalog listings.
type CropListResponse struct {
	Success    bool               `json:"success"`
	Data       []types.CropDetail `json:"data"`
	Pagination types.Pagination   `json:"pagination"`
}

// HandleList handles GET /api/crops.
func (h *CropsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePageParams(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	result, err := h.catalog.List(r.Context(), limit, offset)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, CropListResponse{
		Success:    true,
		Data:       result.Crops,
		Pagination: types.NewPagination(result.Total, result.Limit, result.Offset),
	})
}

// HandleSearch handles GET /api/crops/search.
//
// Filter parameters: q, categories (csv), climate_zones (csv),
// water_requirement, use_type (csv), language, limit, offset, sort_by,
// sort_order.
func (h *CropsHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePageParams(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	q := r.URL.Query()
	params := types.CropSearchParams{
		Query:            q.Get("q"),
		Categories:       splitCSV(q.Get("categories")),
		ClimateZones:     splitCSV(q.Get("climate_zones")),
		WaterRequirement: q.Get("water_requirement"),
		UseTypes:         splitCSV(q.Get("use_type")),
		Language:         q.Get("language"),
		Limit:            limit,
		Offset:           offset,
		SortBy:           q.Get("sort_by"),
		SortOrder:        q.Get("sort_order"),
	}

	result, err := h.catalog.Search(r.Context(), params)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, CropListResponse{
		Success:    true,
		Data:       result.Crops,
		Pagination: types.NewPagination(result.Total, result.Limit, result.Offset),
	})
}

// HandleByCategory handles GET /api/crops/category/{slug}. An unknown slug
// yields an empty page, not a 404.
func (h *CropsHandler) HandleByCategory(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePageParams(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	slug := chi.URLParam(r, "slug")
	result, err := h.catalog.GetByCategory(r.Context(), slug, limit, offset)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, CropListResponse{
		Success:    true,
		Data:       result.Crops,
		Pagination: types.NewPagination(result.Total, result.Limit, result.Offset),
	})
}

// CategoriesResponse is the response body for GET /api/crops/categories.
type CategoriesResponse struct {
	Success bool                 `json:"success"`
	Data    []types.CropCategory `json:"data"`
}

// HandleCategories handles GET /api/crops/categories.
func (h *CropsHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, CategoriesResponse{Success: true, Data: categories})
}

// StatsResponse is the response body for GET /api/crops/stats.
type StatsResponse struct {
	Success bool                     `json:"success"`
	Data    *types.CropDatabaseStats `json:"data"`
}

// HandleStats handles GET /api/crops/stats. Returns 404 until the first
// refresh has produced a snapshot.
func (h *CropsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.stats.Latest(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if snapshot == nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeNotFoundStats,
			"no statistics snapshot exists yet", nil))
		return
	}
	core.JSON(w, r, http.StatusOK, StatsResponse{Success: true, Data: snapshot})
}

// StatsRefreshResponse is the response body for POST /api/crops/stats/refresh.
type StatsRefreshResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandleStatsRefresh handles POST /api/crops/stats/refresh.
func (h *CropsHandler) HandleStatsRefresh(w http.ResponseWriter, r *http.Request) {
	if _, err := h.stats.Refresh(r.Context()); err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, StatsRefreshResponse{
		Success: true,
		Message: "Database statistics refreshed successfully",
	})
}

// CropDetailResponse is the response body for GET /api/crops/{id}.
type CropDetailResponse struct {
	Success bool              `json:"success"`
	Data    *types.CropDetail `json:"data"`
}

// HandleGetByID handles GET /api/crops/{id}.
func (h *CropsHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalog.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, CropDetailResponse{Success: true, Data: detail})
}

// TrainingDataResponse is the response body for GET /api/crops/ai/training-data.
type TrainingDataResponse struct {
	Success bool                       `json:"success"`
	Data    []types.CropTrainingRecord `json:"data"`
	Count   int                        `json:"count"`
}

// HandleTrainingData handles GET /api/crops/ai/training-data.
func (h *CropsHandler) HandleTrainingData(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidLimit,
				"limit must be an integer", err))
			return
		}
		limit = parsed
	}

	records, err := h.catalog.TrainingData(r.Context(), limit)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, TrainingDataResponse{
		Success: true,
		Data:    records,
		Count:   len(records),
	})
}

// parsePageParams reads limit and offset query parameters. Absent values are
// left at zero for the service defaults to fill in; non-integer values reject
// with a 400 validation error.
func parsePageParams(r *http.Request) (limit, offset int, err error) {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, types.NewAppError(types.ErrCodeValidationInvalidLimit,
				"limit must be an integer", err)
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, types.NewAppError(types.ErrCodeValidationInvalidLimit,
				"offset must be an integer", err)
		}
	}
	return limit, offset, nil
}

// splitCSV splits a comma-separated query value into trimmed, non-empty parts.
func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
