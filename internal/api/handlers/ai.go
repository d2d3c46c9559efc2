package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"cropsense/internal/ai"
	"cropsense/internal/core"
	"cropsense/internal/types"
)

// ChatAdvisor answers free-text questions and produces AI recommendation
// sets. Both methods degrade internally and never fail.
type ChatAdvisor interface {
	Chat(ctx context.Context, question string) string
	Recommend(ctx context.Context, lat, lon float64, zone types.ClimateZone, weather *types.WeatherRecord) []types.CropRecommendation
}

// ModelStatus exposes the probe's settled state.
type ModelStatus interface {
	Available() bool
	Model() string
}

// ChatCatalog is the catalog subset the AI handler uses to enrich replies
// and to back the heuristic recommendation endpoint.
type ChatCatalog interface {
	Search(ctx context.Context, params types.CropSearchParams) (*types.CropSearchResult, error)
	GetByCategory(ctx context.Context, slug string, limit, offset int) (*types.CropSearchResult, error)
	ListCategories(ctx context.Context) ([]types.CropCategory, error)
}

// maxRelatedCrops caps the relatedCrops list attached to chat responses.
const maxRelatedCrops = 5

// fallbackModelName is reported when no probed model is available.
const fallbackModelName = "fallback"

// categoryKeywords routes chat messages to catalog categories. Order matters:
// the first keyword found in the message wins.
var categoryKeywords = []struct {
	keyword string
	slug    string
}{
	{"tropical", "tropical-crops"},
	{"temperate", "temperate-crops"},
	{"vegetable", "vegetables"},
	{"fruit", "fruits"},
	{"cereal", "cereals"},
	{"grain", "cereals"},
	{"spice", "spices"},
	{"herb", "spices"},
}

// climateCategories maps a climate zone to its catalog category slug.
var climateCategories = map[types.ClimateZone]string{
	types.ClimateTropical:      "tropical-crops",
	types.ClimateSubtropical:   "subtropical-crops",
	types.ClimateTemperate:     "temperate-crops",
	types.ClimateCoolTemperate: "cool-temperate-crops",
}

// defaultClimateCategory is used when a zone has no mapped category.
const defaultClimateCategory = "major-crops"

// AIHandler serves the advisor chat, the AI and heuristic recommendation
// endpoints, chat suggestions, and the model status.
type AIHandler struct {
	advisor   ChatAdvisor
	status    ModelStatus
	catalog   ChatCatalog
	validator *core.Validator
	randFloat func() float64
	logger    *slog.Logger
}

// NewAIHandler creates an AIHandler. catalog may be nil, in which case chat
// responses carry no related crops and the heuristic endpoint always falls
// back to the advisor tables.
func NewAIHandler(advisor ChatAdvisor, status ModelStatus, catalog ChatCatalog, v *core.Validator, logger *slog.Logger) *AIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if v == nil {
		v = core.NewValidator(logger)
	}
	return &AIHandler{
		advisor:   advisor,
		status:    status,
		catalog:   catalog,
		validator: v,
		randFloat: rand.Float64,
		logger:    logger,
	}
}

// RegisterRoutes mounts the AI endpoints on the given router.
func (h *AIHandler) RegisterRoutes(r chi.Router) {
	r.Route("/ai", func(r chi.Router) {
		r.Post("/chat", h.HandleChat)
		r.Post("/recommend", h.HandleRecommend)
		r.Post("/recommendations", h.HandleRecommendations)
		r.Get("/suggestions", h.HandleSuggestions)
		r.Get("/status", h.HandleStatus)
	})
}

// ChatRequest is the request body for POST /api/ai/chat. History is accepted
// for interface compatibility; the advisor currently prompts per message.
type ChatRequest struct {
	Message string       `json:"message"`
	History []ai.Message `json:"history,omitempty"`
}

// RelatedCrop is the abbreviated crop reference attached to chat responses.
type RelatedCrop struct {
	ID             string `json:"id"`
	CommonName     string `json:"common_name"`
	ScientificName string `json:"scientific_name"`
}

// ChatResponse is the response body for POST /api/ai/chat.
type ChatResponse struct {
	Success      bool          `json:"success"`
	Response     string        `json:"response"`
	RelatedCrops []RelatedCrop `json:"relatedCrops,omitempty"`
	AIPowered    bool          `json:"aiPowered"`
	Model        string        `json:"model"`
}

// HandleChat handles POST /api/ai/chat.
//
// The reply comes from the probed model when one is available; otherwise the
// handler composes a catalog-aware or canned reply. Catalog lookups are
// best-effort and never fail the request.
func (h *AIHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField,
			"message is required", nil))
		return
	}

	related := h.relatedCrops(r.Context(), message)
	aiPowered := h.status.Available()
	lower := strings.ToLower(message)

	var response string
	switch {
	case !aiPowered && (strings.Contains(lower, "categor") || strings.Contains(lower, "type")):
		response = h.categoriesReply(r.Context())
	case !aiPowered && len(related) > 0:
		response = relatedCropsReply(related)
	default:
		response = h.advisor.Chat(r.Context(), message)
	}

	model := fallbackModelName
	if aiPowered {
		model = h.status.Model()
	}
	core.JSON(w, r, http.StatusOK, ChatResponse{
		Success:      true,
		Response:     response,
		RelatedCrops: related,
		AIPowered:    aiPowered,
		Model:        model,
	})
}

// relatedCrops finds catalog crops relevant to the message: first by keyword
// to category routing, then by per-word text search. Failures are logged at
// debug and produce no related crops.
func (h *AIHandler) relatedCrops(ctx context.Context, message string) []RelatedCrop {
	if h.catalog == nil {
		return nil
	}
	lower := strings.ToLower(message)

	for _, entry := range categoryKeywords {
		if !strings.Contains(lower, entry.keyword) {
			continue
		}
		result, err := h.catalog.GetByCategory(ctx, entry.slug, maxRelatedCrops, 0)
		if err != nil {
			h.logger.DebugContext(ctx, "chat category lookup failed", "error", err, "slug", entry.slug)
			return nil
		}
		return toRelatedCrops(result.Crops)
	}

	for _, word := range strings.Fields(lower) {
		word = strings.Trim(word, ".,!?")
		if len(word) <= 3 {
			continue
		}
		result, err := h.catalog.Search(ctx, types.CropSearchParams{Query: word, Limit: maxRelatedCrops})
		if err != nil {
			h.logger.DebugContext(ctx, "chat crop search failed", "error", err, "query", word)
			return nil
		}
		if len(result.Crops) > 0 {
			return toRelatedCrops(result.Crops)
		}
	}
	return nil
}

func toRelatedCrops(crops []types.CropDetail) []RelatedCrop {
	if len(crops) > maxRelatedCrops {
		crops = crops[:maxRelatedCrops]
	}
	related := make([]RelatedCrop, 0, len(crops))
	for _, c := range crops {
		related = append(related, RelatedCrop{
			ID:             c.ID,
			CommonName:     c.CommonName,
			ScientificName: c.ScientificName,
		})
	}
	return related
}

// categoriesReply lists the catalog's categories. Falls back to the advisor's
// canned reply when the listing fails.
func (h *AIHandler) categoriesReply(ctx context.Context) string {
	categories, err := h.catalog.ListCategories(ctx)
	if err != nil || len(categories) == 0 {
		return ai.FallbackChat("categories")
	}
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return fmt.Sprintf("The crop catalog is organized into %d categories: %s.",
		len(names), strings.Join(names, ", "))
}

func relatedCropsReply(related []RelatedCrop) string {
	names := make([]string, 0, len(related))
	for _, c := range related {
		names = append(names, fmt.Sprintf("%s (%s)", c.CommonName, c.ScientificName))
	}
	return fmt.Sprintf("I found %d crops that may be relevant: %s. Ask about any of them for details.",
		len(names), strings.Join(names, ", "))
}

// RecommendationsRequest is the request body for POST /api/ai/recommendations.
// The weather fields are optional; when any is present the missing ones take
// the standard defaults (25 C, 60%% humidity, 0 mm precipitation).
type RecommendationsRequest struct {
	Lat           float64  `json:"lat" validate:"min=-90,max=90"`
	Lon           float64  `json:"lon" validate:"min=-180,max=180"`
	Temperature   *float64 `json:"temperature,omitempty"`
	Humidity      *float64 `json:"humidity,omitempty"`
	Precipitation *float64 `json:"precipitation,omitempty"`
}

// RecommendationsResponse is the response body for POST /api/ai/recommendations.
type RecommendationsResponse struct {
	Recommendations []types.CropRecommendation `json:"recommendations"`
}

// HandleRecommendations handles POST /api/ai/recommendations.
//
// This is the model-first path: the probed model is asked for a
// recommendation set and the fixed per-zone tables back it up, so the
// response always carries exactly five entries.
func (h *AIHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req RecommendationsRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	zone := types.ClimateZoneForLatitude(req.Lat)
	weather := weatherFromPartial(req.Temperature, req.Humidity, req.Precipitation)
	recommendations := h.advisor.Recommend(r.Context(), req.Lat, req.Lon, zone, weather)

	core.JSON(w, r, http.StatusOK, RecommendationsResponse{Recommendations: recommendations})
}

// weatherFromPartial builds a weather record from optional request fields.
// Returns nil when no field was provided so the prompt omits conditions.
func weatherFromPartial(temperature, humidity, precipitation *float64) *types.WeatherRecord {
	if temperature == nil && humidity == nil && precipitation == nil {
		return nil
	}
	record := &types.WeatherRecord{Temperature: 25, Humidity: 60, Precipitation: 0}
	if temperature != nil {
		record.Temperature = *temperature
	}
	if humidity != nil {
		record.Humidity = *humidity
	}
	if precipitation != nil {
		record.Precipitation = *precipitation
	}
	return record
}

// HeuristicRecommendRequest is the request body for POST /api/ai/recommend.
// climate overrides the latitude-derived zone when provided.
type HeuristicRecommendRequest struct {
	Lat     *float64 `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lon     *float64 `json:"lon,omitempty" validate:"omitempty,min=-180,max=180"`
	Climate string   `json:"climate,omitempty"`
}

// HeuristicRecommendation is one entry of the heuristic-aware response shape.
type HeuristicRecommendation struct {
	ID             string  `json:"id"`
	CommonName     string  `json:"common_name"`
	ScientificName string  `json:"scientific_name"`
	Description    *string `json:"description"`
	Suitability    float64 `json:"suitability"`
}

// HeuristicRecommendResponse is the response body for POST /api/ai/recommend.
type HeuristicRecommendResponse struct {
	Success         bool                      `json:"success"`
	ClimateZone     types.ClimateZone         `json:"climateZone"`
	Recommendations []HeuristicRecommendation `json:"recommendations"`
	AIPowered       bool                      `json:"aiPowered"`
	Model           string                    `json:"model"`
}

// HandleRecommend handles POST /api/ai/recommend.
//
// This is the catalog-first path: the climate zone picks a catalog category
// and its crops are returned with an approximate suitability in [70,100).
// When the catalog has nothing for the zone the advisor's set is mapped into
// the same shape instead, so the endpoint always answers 200 with entries.
func (h *AIHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var req HeuristicRecommendRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	zone := types.ClimateZone(req.Climate)
	if req.Climate == "" {
		zone = types.ClimateSubtropical
		if req.Lat != nil {
			zone = types.ClimateZoneForLatitude(*req.Lat)
		}
	}

	recommendations := h.catalogRecommendations(r.Context(), zone)
	if len(recommendations) == 0 {
		recommendations = h.advisorRecommendations(r.Context(), req, zone)
	}

	model := fallbackModelName
	if h.status.Available() {
		model = h.status.Model()
	}
	core.JSON(w, r, http.StatusOK, HeuristicRecommendResponse{
		Success:         true,
		ClimateZone:     zone,
		Recommendations: recommendations,
		AIPowered:       h.status.Available(),
		Model:           model,
	})
}

func (h *AIHandler) catalogRecommendations(ctx context.Context, zone types.ClimateZone) []HeuristicRecommendation {
	if h.catalog == nil {
		return nil
	}
	category, ok := climateCategories[zone]
	if !ok {
		category = defaultClimateCategory
	}
	result, err := h.catalog.GetByCategory(ctx, category, 10, 0)
	if err != nil {
		h.logger.WarnContext(ctx, "heuristic category lookup failed", "error", err, "category", category)
		return nil
	}
	recommendations := make([]HeuristicRecommendation, 0, len(result.Crops))
	for _, crop := range result.Crops {
		recommendations = append(recommendations, HeuristicRecommendation{
			ID:             crop.ID,
			CommonName:     crop.CommonName,
			ScientificName: crop.ScientificName,
			Description:    crop.Description,
			Suitability:    h.randFloat()*30 + 70,
		})
	}
	return recommendations
}

// advisorRecommendations maps the advisor's set into the heuristic shape.
// Entries get synthetic ids and carry the reason as description.
func (h *AIHandler) advisorRecommendations(ctx context.Context, req HeuristicRecommendRequest, zone types.ClimateZone) []HeuristicRecommendation {
	var lat, lon float64
	if req.Lat != nil {
		lat = *req.Lat
	}
	if req.Lon != nil {
		lon = *req.Lon
	}
	set := h.advisor.Recommend(ctx, lat, lon, zone, nil)
	recommendations := make([]HeuristicRecommendation, 0, len(set))
	for i, rec := range set {
		reason := rec.Reason
		recommendations = append(recommendations, HeuristicRecommendation{
			ID:             fmt.Sprintf("crop-%d", i+1),
			CommonName:     rec.Name,
			ScientificName: rec.ScientificName,
			Description:    &reason,
			Suitability:    float64(rec.Suitability),
		})
	}
	return recommendations
}

// SuggestionsResponse is the response body for GET /api/ai/suggestions.
type SuggestionsResponse struct {
	Success     bool     `json:"success"`
	Suggestions []string `json:"suggestions"`
}

// HandleSuggestions handles GET /api/ai/suggestions.
func (h *AIHandler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, SuggestionsResponse{
		Success:     true,
		Suggestions: ai.ChatSuggestions,
	})
}

// StatusResponse is the response body for GET /api/ai/status.
type StatusResponse struct {
	Success     bool   `json:"success"`
	AIAvailable bool   `json:"aiAvailable"`
	Model       string `json:"model"`
}

// HandleStatus handles GET /api/ai/status.
func (h *AIHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	model := fallbackModelName
	if h.status.Available() {
		model = h.status.Model()
	}
	core.JSON(w, r, http.StatusOK, StatusResponse{
		Success:     true,
		AIAvailable: h.status.Available(),
		Model:       model,
	})
}
