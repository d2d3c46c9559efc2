// Package handlers contains the HTTP handler implementations for the
// CropSense API: weather acquisition, deterministic and AI-backed crop
// recommendations, the advisor chat, and the crop catalog.
//
// Handlers depend on locally defined service interfaces rather than concrete
// implementations; the application entry point wires the real services in.
// Successful responses are endpoint-specific shapes; errors share the
// core.APIErrorResponse envelope.
package handlers

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cropsense/internal/core"
	"cropsense/internal/types"
)

// WeatherAcquirer runs the provider fallback chain. It never returns nil;
// when every provider fails the result is a latitude-derived estimate.
type WeatherAcquirer interface {
	Acquire(ctx context.Context, lat, lon float64) *types.WeatherRecord
}

// ObservationStore persists the observation log. All writes through it are
// best-effort: handlers log failures and keep serving.
type ObservationStore interface {
	FindOrCreateLocation(ctx context.Context, lat, lon float64) (string, error)
	SaveWeatherRecord(ctx context.Context, locationID string, record *types.WeatherRecord) error
	SaveRecommendations(ctx context.Context, locationID string, crops []types.ScoredCrop) error
}

// WeatherHandler serves current conditions for a coordinate pair.
type WeatherHandler struct {
	acquirer WeatherAcquirer
	store    ObservationStore
	logger   *slog.Logger
}

// NewWeatherHandler creates a WeatherHandler. store may be nil, in which case
// acquired records are not persisted.
func NewWeatherHandler(acquirer WeatherAcquirer, store ObservationStore, logger *slog.Logger) *WeatherHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeatherHandler{acquirer: acquirer, store: store, logger: logger}
}

// RegisterRoutes mounts the weather endpoint on the given router.
func (h *WeatherHandler) RegisterRoutes(r chi.Router) {
	r.Get("/weather", h.HandleGet)
}

// HandleGet handles GET /api/weather?lat=..&lon=..
//
// The response is the canonical WeatherRecord. Provider failures never
// surface here; the acquirer degrades to an estimated record instead.
func (h *WeatherHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parseCoordinates(r.URL.Query().Get("lat"), r.URL.Query().Get("lon"))
	if err != nil {
		core.Error(w, r, err)
		return
	}

	record := h.acquirer.Acquire(r.Context(), lat, lon)

	h.saveRecord(r.Context(), lat, lon, record)

	core.JSON(w, r, http.StatusOK, record)
}

// saveRecord appends the acquired record to the observation log. Failures are
// logged and swallowed; persistence never blocks the response.
func (h *WeatherHandler) saveRecord(ctx context.Context, lat, lon float64, record *types.WeatherRecord) {
	if h.store == nil {
		return
	}
	locationID, err := h.store.FindOrCreateLocation(ctx, lat, lon)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to resolve location for weather record", "error", err)
		return
	}
	if err := h.store.SaveWeatherRecord(ctx, locationID, record); err != nil {
		h.logger.WarnContext(ctx, "failed to save weather record", "error", err, "location_id", locationID)
	}
}

// parseCoordinates validates a lat/lon query pair. Missing values, non-numeric
// values, NaN, and out-of-range values all reject with a 400 validation error.
func parseCoordinates(latStr, lonStr string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || math.IsNaN(lat) {
		return 0, 0, types.NewAppError(types.ErrCodeValidationInvalidLat,
			"lat must be a number", err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || math.IsNaN(lon) {
		return 0, 0, types.NewAppError(types.ErrCodeValidationInvalidLon,
			"lon must be a number", err)
	}
	if lat < -90 || lat > 90 {
		return 0, 0, types.NewAppError(types.ErrCodeValidationInvalidLat,
			"lat must be between -90 and 90", nil)
	}
	if lon < -180 || lon > 180 {
		return 0, 0, types.NewAppError(types.ErrCodeValidationInvalidLon,
			"lon must be between -180 and 180", nil)
	}
	return lat, lon, nil
}
