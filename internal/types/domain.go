// Package types defines the shared domain model for the CropSense platform:
// canonical weather records, crop recommendations, the crop catalog entities,
// the AppError taxonomy, and context helpers. It has no dependencies on other
// internal packages so that every layer can import it freely.
package types

import "math"

// Location is a geographic point in decimal degrees.
type Location struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lon float64 `json:"lon" validate:"min=-180,max=180"`
}

// Place is the resolved human-readable location attached to a weather record.
type Place struct {
	Name    string `json:"name"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// ForecastDay is one day of the optional forecast sequence on a WeatherRecord.
type ForecastDay struct {
	Date          string  `json:"date"`
	MaxTemp       float64 `json:"maxTemp"`
	MinTemp       float64 `json:"minTemp"`
	AvgTemp       float64 `json:"avgTemp"`
	Precipitation float64 `json:"precipitation"`
	WindSpeed     float64 `json:"windSpeed"`
	Condition     string  `json:"condition"`
}

// WeatherRecord is the canonical weather shape every provider adapter must
// normalize into. It is produced fresh per request and never persisted by the
// acquisition pipeline itself; persistence is a best-effort side write owned
// by the handlers.
type WeatherRecord struct {
	Temperature   float64       `json:"temperature"`   // degrees C
	Humidity      float64       `json:"humidity"`      // percent
	Precipitation float64       `json:"precipitation"` // mm
	WindSpeed     float64       `json:"windSpeed"`
	WindDirection float64       `json:"windDirection"` // degrees
	Pressure      float64       `json:"pressure"`      // hPa
	CloudCover    float64       `json:"cloudCover"`    // percent
	Condition     string        `json:"condition"`
	Icon          string        `json:"icon"`
	Location      Place         `json:"location"`
	Forecast      []ForecastDay `json:"forecast,omitempty"`
}

// CropRecommendation is a single entry in an AI or fallback recommendation set.
// Suitability is always within [0,100].
type CropRecommendation struct {
	Name           string `json:"name"`
	ScientificName string `json:"scientificName"`
	Suitability    int    `json:"suitability"`
	Reason         string `json:"reason"`
}

// ScoredCrop is a recommendation produced by the deterministic scorer path.
// ExpectedYieldIndex carries a small random perturbation and is therefore
// non-deterministic even for identical inputs; callers must only rely on its
// [0,100] bounds.
type ScoredCrop struct {
	CropName           string   `json:"cropName"`
	Suitability        int      `json:"suitability"`
	ExpectedYieldIndex int      `json:"expectedYieldIndex"`
	SustainabilityTag  string   `json:"sustainabilityTag"`
	Reasons            []string `json:"reasons"`
}

// ClimateZone is the coarse latitude-derived band used to select fallback
// recommendation tables.
type ClimateZone string

const (
	ClimateTropical      ClimateZone = "tropical"
	ClimateSubtropical   ClimateZone = "subtropical"
	ClimateTemperate     ClimateZone = "temperate"
	ClimateCoolTemperate ClimateZone = "cool-temperate"
)

// ClimateZoneForLatitude derives the climate zone from a latitude using the
// fixed band boundaries. Values exactly at a boundary resolve to the higher
// (colder) band per the strict < comparisons.
func ClimateZoneForLatitude(lat float64) ClimateZone {
	absLat := math.Abs(lat)
	switch {
	case absLat < 23.5:
		return ClimateTropical
	case absLat < 35:
		return ClimateSubtropical
	case absLat < 55:
		return ClimateTemperate
	default:
		return ClimateCoolTemperate
	}
}
