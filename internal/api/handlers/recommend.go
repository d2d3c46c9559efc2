package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cropsense/internal/core"
	"cropsense/internal/recommend"
	"cropsense/internal/types"
)

// CropScorer produces deterministic crop scores for a set of conditions.
type CropScorer interface {
	Score(input recommend.ScoringInput) []types.ScoredCrop
}

// RecommendRequest is the request body for POST /api/recommend. Both fields
// are required; absent weather numbers default to zero.
type RecommendRequest struct {
	Location *types.Location   `json:"location" validate:"required"`
	Weather  *RecommendWeather `json:"weather" validate:"required"`
}

// RecommendWeather carries the conditions the scorer evaluates.
type RecommendWeather struct {
	Temperature   float64 `json:"temperature"`
	Precipitation float64 `json:"precipitation"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"windSpeed"`
}

// RecommendHandler serves the deterministic scorer path.
type RecommendHandler struct {
	scorer    CropScorer
	store     ObservationStore
	validator *core.Validator
	logger    *slog.Logger
}

// NewRecommendHandler creates a RecommendHandler. store may be nil, in which
// case scored recommendations are not persisted.
func NewRecommendHandler(scorer CropScorer, store ObservationStore, v *core.Validator, logger *slog.Logger) *RecommendHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if v == nil {
		v = core.NewValidator(logger)
	}
	return &RecommendHandler{scorer: scorer, store: store, validator: v, logger: logger}
}

// RegisterRoutes mounts the recommendation endpoint on the given router.
func (h *RecommendHandler) RegisterRoutes(r chi.Router) {
	r.Post("/recommend", h.HandlePost)
}

// HandlePost handles POST /api/recommend.
//
// The response body is the scored crop array itself, sorted by suitability
// descending. Persistence is best-effort.
func (h *RecommendHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	crops := h.scorer.Score(recommend.ScoringInput{
		Temperature:   req.Weather.Temperature,
		Precipitation: req.Weather.Precipitation,
		Humidity:      req.Weather.Humidity,
		WindSpeed:     req.Weather.WindSpeed,
	})

	h.saveCrops(r.Context(), req.Location.Lat, req.Location.Lon, crops)

	core.JSON(w, r, http.StatusOK, crops)
}

func (h *RecommendHandler) saveCrops(ctx context.Context, lat, lon float64, crops []types.ScoredCrop) {
	if h.store == nil {
		return
	}
	locationID, err := h.store.FindOrCreateLocation(ctx, lat, lon)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to resolve location for recommendations", "error", err)
		return
	}
	if err := h.store.SaveRecommendations(ctx, locationID, crops); err != nil {
		h.logger.WarnContext(ctx, "failed to save recommendations", "error", err, "location_id", locationID)
	}
}
