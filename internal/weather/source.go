// Package weather implements the multi-source weather acquisition pipeline.
//
// Two remote Source implementations exist: the WeatherAPI.com forecast
// endpoint (primary) and the Windy point-forecast endpoint (secondary).
// Each adapter normalizes its provider's response shape into the canonical
// types.WeatherRecord. The Acquirer tries sources in priority order and
// synthesizes a latitude-banded estimate when every remote source fails, so
// a weather record is always produced.
package weather

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"cropsense/internal/types"
)

// Source adapts one external weather provider into the canonical record.
// Implementations return an error for any failure mode (network, non-2xx,
// malformed payload); the Acquirer treats all of them identically.
type Source interface {
	// Name identifies the provider in logs.
	Name() string
	// Fetch retrieves current conditions (and forecast when available) for a
	// point. The context carries the per-call timeout budget.
	Fetch(ctx context.Context, lat, lon float64) (*types.WeatherRecord, error)
}

// HTTPDoer is the minimal outbound HTTP capability a source needs. Satisfied
// by *external.BaseClient and by plain *http.Client in tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxSourceResponseSize caps provider response bodies (2 MB).
const maxSourceResponseSize = 2 << 20

// WeatherAPISource is the primary provider adapter (WeatherAPI.com).
type WeatherAPISource struct {
	client       HTTPDoer
	baseURL      string
	key          string
	forecastDays int
}

// NewWeatherAPISource creates the primary source. An empty key marks the
// source as unconfigured; Fetch then fails fast so the chain moves on.
func NewWeatherAPISource(client HTTPDoer, baseURL, key string, forecastDays int) *WeatherAPISource {
	if forecastDays <= 0 {
		forecastDays = 5
	}
	return &WeatherAPISource{
		client:       client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		key:          key,
		forecastDays: forecastDays,
	}
}

// Name returns the provider identifier.
func (s *WeatherAPISource) Name() string { return "weatherapi" }

// weatherAPIResponse mirrors the subset of the WeatherAPI.com forecast
// payload the adapter consumes. Absent numeric fields decode to zero, which
// matches the defaulting rule for partial provider data.
type weatherAPIResponse struct {
	Location struct {
		Name    string `json:"name"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC      float64 `json:"temp_c"`
		Humidity   float64 `json:"humidity"`
		PrecipMM   float64 `json:"precip_mm"`
		WindKPH    float64 `json:"wind_kph"`
		WindDegree float64 `json:"wind_degree"`
		PressureMB float64 `json:"pressure_mb"`
		Cloud      float64 `json:"cloud"`
		Condition  struct {
			Text string `json:"text"`
			Icon string `json:"icon"`
		} `json:"condition"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempC      float64 `json:"maxtemp_c"`
				MinTempC      float64 `json:"mintemp_c"`
				AvgTempC      float64 `json:"avgtemp_c"`
				TotalPrecipMM float64 `json:"totalprecip_mm"`
				MaxWindKPH    float64 `json:"maxwind_kph"`
				Condition     struct {
					Text string `json:"text"`
				} `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// Fetch calls GET {base}/forecast.json and normalizes the response.
func (s *WeatherAPISource) Fetch(ctx context.Context, lat, lon float64) (*types.WeatherRecord, error) {
	if s.key == "" {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "weatherapi key not configured", nil)
	}

	q := url.Values{}
	q.Set("key", s.key)
	q.Set("q", fmt.Sprintf("%f,%f", lat, lon))
	q.Set("days", fmt.Sprintf("%d", s.forecastDays))
	q.Set("aqi", "no")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/forecast.json?"+q.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "building weatherapi request", err)
	}

	var payload weatherAPIResponse
	if err := doJSON(s.client, req, &payload); err != nil {
		return nil, err
	}

	record := &types.WeatherRecord{
		Temperature:   payload.Current.TempC,
		Humidity:      payload.Current.Humidity,
		Precipitation: payload.Current.PrecipMM,
		WindSpeed:     payload.Current.WindKPH,
		WindDirection: payload.Current.WindDegree,
		Pressure:      payload.Current.PressureMB,
		CloudCover:    payload.Current.Cloud,
		Condition:     payload.Current.Condition.Text,
		Icon:          payload.Current.Condition.Icon,
		Location: types.Place{
			Name:    payload.Location.Name,
			Region:  payload.Location.Region,
			Country: payload.Location.Country,
		},
	}

	for _, day := range payload.Forecast.ForecastDay {
		record.Forecast = append(record.Forecast, types.ForecastDay{
			Date:          day.Date,
			MaxTemp:       day.Day.MaxTempC,
			MinTemp:       day.Day.MinTempC,
			AvgTemp:       day.Day.AvgTempC,
			Precipitation: day.Day.TotalPrecipMM,
			WindSpeed:     day.Day.MaxWindKPH,
			Condition:     day.Day.Condition.Text,
		})
	}

	return record, nil
}

// WindySource is the secondary provider adapter (Windy point-forecast).
// Windy returns parallel arrays keyed by "<parameter>-surface" with SI units
// (Kelvin, Pascal, metres), so normalization is heavier than for the primary.
type WindySource struct {
	client  HTTPDoer
	baseURL string
	key     string
}

// NewWindySource creates the secondary source.
func NewWindySource(client HTTPDoer, baseURL, key string) *WindySource {
	return &WindySource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
	}
}

// Name returns the provider identifier.
func (s *WindySource) Name() string { return "windy" }

// windyRequest is the point-forecast request body.
type windyRequest struct {
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	Model      string   `json:"model"`
	Parameters []string `json:"parameters"`
	Levels     []string `json:"levels"`
	Key        string   `json:"key"`
}

// windyResponse holds the parallel time-series arrays the adapter consumes.
type windyResponse struct {
	Ts              []int64   `json:"ts"` // epoch millis
	TempSurface     []float64 `json:"temp-surface"`
	RHSurface       []float64 `json:"rh-surface"`
	WindUSurface    []float64 `json:"wind_u-surface"`
	WindVSurface    []float64 `json:"wind_v-surface"`
	PressureSurface []float64 `json:"pressure-surface"`
	PrecipSurface   []float64 `json:"past3hprecip-surface"`
	CloudsSurface   []float64 `json:"lclouds-surface"`
}

// at returns series[i] when present, 0 otherwise. Providers omit arrays for
// parameters they cannot serve; missing values default to 0 per the partial
// data rule.
func at(series []float64, i int) float64 {
	if i < len(series) {
		return series[i]
	}
	return 0
}

// Fetch calls POST {base}/forecast and normalizes the first timestamp into
// current conditions, with subsequent timestamps as the forecast sequence.
func (s *WindySource) Fetch(ctx context.Context, lat, lon float64) (*types.WeatherRecord, error) {
	if s.key == "" {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "windy key not configured", nil)
	}

	body, err := json.Marshal(windyRequest{
		Lat:        lat,
		Lon:        lon,
		Model:      "gfs",
		Parameters: []string{"temp", "rh", "wind", "pressure", "past3hprecip", "lclouds"},
		Levels:     []string{"surface"},
		Key:        s.key,
	})
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "encoding windy request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/forecast", strings.NewReader(string(body)))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "building windy request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var payload windyResponse
	if err := doJSON(s.client, req, &payload); err != nil {
		return nil, err
	}

	if len(payload.Ts) == 0 {
		return nil, types.NewAppError(types.ErrCodeUpstreamMalformed, "windy response contains no timestamps", nil)
	}

	windSpeed, windDir := windFromComponents(at(payload.WindUSurface, 0), at(payload.WindVSurface, 0))

	record := &types.WeatherRecord{
		Temperature:   kelvinToCelsius(at(payload.TempSurface, 0)),
		Humidity:      at(payload.RHSurface, 0),
		Precipitation: at(payload.PrecipSurface, 0) * 1000, // metres -> mm
		WindSpeed:     windSpeed,
		WindDirection: windDir,
		Pressure:      at(payload.PressureSurface, 0) / 100, // Pa -> hPa
		CloudCover:    at(payload.CloudsSurface, 0),
		Condition:     conditionFromCloudCover(at(payload.CloudsSurface, 0)),
	}

	// Up to five subsequent timestamps become the forecast sequence.
	for i := 1; i < len(payload.Ts) && i <= 5; i++ {
		speed, _ := windFromComponents(at(payload.WindUSurface, i), at(payload.WindVSurface, i))
		temp := kelvinToCelsius(at(payload.TempSurface, i))
		record.Forecast = append(record.Forecast, types.ForecastDay{
			Date:          time.UnixMilli(payload.Ts[i]).UTC().Format("2006-01-02"),
			MaxTemp:       temp,
			MinTemp:       temp,
			AvgTemp:       temp,
			Precipitation: at(payload.PrecipSurface, i) * 1000,
			WindSpeed:     speed,
			Condition:     conditionFromCloudCover(at(payload.CloudsSurface, i)),
		})
	}

	return record, nil
}

// kelvinToCelsius converts an SI temperature, treating 0 (missing) as 0 C
// rather than -273 C.
func kelvinToCelsius(k float64) float64 {
	if k == 0 {
		return 0
	}
	return k - 273.15
}

// windFromComponents derives speed and meteorological direction from u/v
// vector components.
func windFromComponents(u, v float64) (speed, direction float64) {
	speed = math.Sqrt(u*u + v*v)
	direction = math.Mod(math.Atan2(-u, -v)*180/math.Pi+360, 360)
	return speed, direction
}

// conditionFromCloudCover maps a cloud-cover percentage to a coarse textual
// condition, since Windy has no condition string of its own.
func conditionFromCloudCover(cover float64) string {
	switch {
	case cover < 20:
		return "Clear"
	case cover < 70:
		return "Partly cloudy"
	default:
		return "Overcast"
	}
}

// doJSON performs the request and decodes a JSON payload, mapping transport
// failures to upstream_weather_unavailable and shape failures to
// upstream_malformed_response.
func doJSON(client HTTPDoer, req *http.Request, dst any) error {
	resp, err := client.Do(req)
	if err != nil {
		return types.NewAppError(types.ErrCodeUpstreamWeather, "weather provider request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.NewAppError(
			types.ErrCodeUpstreamWeather,
			fmt.Sprintf("weather provider returned %d", resp.StatusCode),
			nil,
		)
	}

	limited := http.MaxBytesReader(nil, resp.Body, maxSourceResponseSize)
	if err := json.NewDecoder(limited).Decode(dst); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamMalformed, "decoding weather provider response", err)
	}
	return nil
}
