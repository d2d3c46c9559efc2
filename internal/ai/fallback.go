package ai

import (
	"strings"

	"cropsense/internal/types"
)

// defaultCropTables holds the static recommendation tables used whenever the
// model is unavailable or its output cannot be parsed. Entries are already
// ordered by suitability descending.
var defaultCropTables = map[types.ClimateZone][]types.CropRecommendation{
	types.ClimateTropical: {
		{Name: "Rice", ScientificName: "Oryza sativa", Suitability: 95, Reason: "Warm humid conditions ideal"},
		{Name: "Banana", ScientificName: "Musa spp.", Suitability: 92, Reason: "Year-round tropical fruit"},
		{Name: "Mango", ScientificName: "Mangifera indica", Suitability: 90, Reason: "King of tropical fruits"},
		{Name: "Coconut", ScientificName: "Cocos nucifera", Suitability: 88, Reason: "Versatile coastal palm"},
		{Name: "Sugarcane", ScientificName: "Saccharum officinarum", Suitability: 85, Reason: "High-yield sweetener"},
	},
	types.ClimateSubtropical: {
		{Name: "Orange", ScientificName: "Citrus sinensis", Suitability: 94, Reason: "Perfect citrus climate"},
		{Name: "Avocado", ScientificName: "Persea americana", Suitability: 90, Reason: "Nutrient-rich fruit"},
		{Name: "Cotton", ScientificName: "Gossypium spp.", Suitability: 87, Reason: "Important fiber crop"},
		{Name: "Grape", ScientificName: "Vitis vinifera", Suitability: 85, Reason: "Wine and table grapes"},
		{Name: "Pomegranate", ScientificName: "Punica granatum", Suitability: 82, Reason: "Drought tolerant"},
	},
	types.ClimateTemperate: {
		{Name: "Wheat", ScientificName: "Triticum aestivum", Suitability: 95, Reason: "Staple cereal grain"},
		{Name: "Apple", ScientificName: "Malus domestica", Suitability: 92, Reason: "Cool climate fruit"},
		{Name: "Potato", ScientificName: "Solanum tuberosum", Suitability: 90, Reason: "Versatile tuber"},
		{Name: "Corn", ScientificName: "Zea mays", Suitability: 88, Reason: "Multi-purpose grain"},
		{Name: "Soybean", ScientificName: "Glycine max", Suitability: 85, Reason: "Protein-rich legume"},
	},
}

// DefaultCrops returns the static table for the climate zone. Zones without a
// table of their own (cool-temperate, unknown values) fall back to the
// subtropical table.
func DefaultCrops(zone types.ClimateZone) []types.CropRecommendation {
	if table, ok := defaultCropTables[zone]; ok {
		out := make([]types.CropRecommendation, len(table))
		copy(out, table)
		return out
	}
	out := make([]types.CropRecommendation, len(defaultCropTables[types.ClimateSubtropical]))
	copy(out, defaultCropTables[types.ClimateSubtropical])
	return out
}

// FallbackChat produces a canned reply for a chat question when no model is
// reachable. Greeting and known topic keywords get targeted answers;
// everything else gets a generic prompt-back.
func FallbackChat(question string) string {
	lower := strings.ToLower(question)
	switch {
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi"):
		return "Hello! I'm the AI Crop Advisor. Ask me about crops, climate zones, or growing tips!"
	case strings.Contains(lower, "rice"):
		return "Rice (Oryza sativa) grows best in tropical/subtropical climates at 20-35C with high humidity."
	default:
		return "I can help with crop recommendations. Try asking about specific crops or climate conditions!"
	}
}

// ChatSuggestions is the fixed suggestion list served by the suggestions
// endpoint.
var ChatSuggestions = []string{
	"What crops can I grow in tropical climates?",
	"Tell me about rice cultivation",
	"What vegetables are best for temperate regions?",
	"List popular spices and their uses",
	"What are the major cereal crops worldwide?",
	"Which fruits grow in subtropical areas?",
	"What crops need less water?",
	"Tell me about medicinal plants",
}
