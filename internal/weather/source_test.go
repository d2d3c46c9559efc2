package weather

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"cropsense/internal/types"
)

func TestWeatherAPISourceFetchNormalizesPayload(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"key":  r.URL.Query().Get("key"),
			"q":    r.URL.Query().Get("q"),
			"days": r.URL.Query().Get("days"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"location": {"name": "Valencia", "region": "Valencia", "country": "Spain"},
			"current": {
				"temp_c": 24.3, "humidity": 58, "precip_mm": 0.2,
				"wind_kph": 12.5, "wind_degree": 210, "pressure_mb": 1016,
				"cloud": 25, "condition": {"text": "Partly cloudy", "icon": "//cdn/day/116.png"}
			},
			"forecast": {"forecastday": [
				{"date": "2026-09-01", "day": {
					"maxtemp_c": 28.1, "mintemp_c": 19.4, "avgtemp_c": 23.6,
					"totalprecip_mm": 0.5, "maxwind_kph": 18,
					"condition": {"text": "Sunny"}
				}}
			]}
		}`))
	}))
	defer srv.Close()

	src := NewWeatherAPISource(srv.Client(), srv.URL, "test-key", 5)
	got, err := src.Fetch(context.Background(), 39.47, -0.38)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if gotQuery["key"] != "test-key" || gotQuery["days"] != "5" {
		t.Errorf("request query = %v, want key=test-key days=5", gotQuery)
	}
	if got.Temperature != 24.3 || got.Humidity != 58 || got.Precipitation != 0.2 {
		t.Errorf("current conditions = %+v, want temp 24.3, humidity 58, precip 0.2", got)
	}
	if got.Location.Name != "Valencia" || got.Location.Country != "Spain" {
		t.Errorf("location = %+v, want Valencia, Spain", got.Location)
	}
	if len(got.Forecast) != 1 || got.Forecast[0].MaxTemp != 28.1 || got.Forecast[0].Condition != "Sunny" {
		t.Errorf("forecast = %+v, want one Sunny day with max 28.1", got.Forecast)
	}
}

func TestWeatherAPISourceFetchPartialFieldsDefaultToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"current": {"temp_c": 18.0}}`))
	}))
	defer srv.Close()

	src := NewWeatherAPISource(srv.Client(), srv.URL, "k", 5)
	got, err := src.Fetch(context.Background(), 50, 4)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if got.Temperature != 18.0 {
		t.Errorf("Temperature = %v, want 18.0", got.Temperature)
	}
	if got.Precipitation != 0 || got.Humidity != 0 || got.WindSpeed != 0 {
		t.Errorf("absent fields = %+v, want zeros", got)
	}
}

func TestWeatherAPISourceFetchErrors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		key      string
		wantCode types.ErrorCode
	}{
		{
			name:     "missing key fails fast",
			handler:  func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte(`{}`)) },
			key:      "",
			wantCode: types.ErrCodeUpstreamWeather,
		},
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			key:      "k",
			wantCode: types.ErrCodeUpstreamWeather,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`<html>not json</html>`))
			},
			key:      "k",
			wantCode: types.ErrCodeUpstreamMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			src := NewWeatherAPISource(srv.Client(), srv.URL, tt.key, 5)
			_, err := src.Fetch(context.Background(), 1, 2)
			if err == nil {
				t.Fatal("Fetch returned nil error")
			}
			appErr, ok := err.(*types.AppError)
			if !ok {
				t.Fatalf("Fetch returned %T, want *types.AppError", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("error code = %v, want %v", appErr.Code, tt.wantCode)
			}
		})
	}
}

func TestWindySourceFetchConvertsUnits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Write([]byte(`{
			"ts": [1756684800000, 1756771200000],
			"temp-surface": [298.15, 300.15],
			"rh-surface": [65, 70],
			"wind_u-surface": [3, 0],
			"wind_v-surface": [4, 5],
			"pressure-surface": [101300, 101200],
			"past3hprecip-surface": [0.002, 0],
			"lclouds-surface": [10, 80]
		}`))
	}))
	defer srv.Close()

	src := NewWindySource(srv.Client(), srv.URL, "windy-key")
	got, err := src.Fetch(context.Background(), 39.47, -0.38)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if math.Abs(got.Temperature-25) > 1e-9 {
		t.Errorf("Temperature = %v, want 25 (298.15 K)", got.Temperature)
	}
	if math.Abs(got.Pressure-1013) > 1e-9 {
		t.Errorf("Pressure = %v, want 1013 hPa", got.Pressure)
	}
	if math.Abs(got.Precipitation-2) > 1e-9 {
		t.Errorf("Precipitation = %v, want 2 mm", got.Precipitation)
	}
	if math.Abs(got.WindSpeed-5) > 1e-9 {
		t.Errorf("WindSpeed = %v, want 5 from components (3,4)", got.WindSpeed)
	}
	if got.Condition != "Clear" {
		t.Errorf("Condition = %q, want Clear for 10%% cloud", got.Condition)
	}
	if len(got.Forecast) != 1 {
		t.Fatalf("forecast length = %d, want 1", len(got.Forecast))
	}
	if got.Forecast[0].Condition != "Overcast" {
		t.Errorf("forecast condition = %q, want Overcast for 80%% cloud", got.Forecast[0].Condition)
	}
}

func TestWindySourceFetchEmptySeriesIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"ts": []}`))
	}))
	defer srv.Close()

	src := NewWindySource(srv.Client(), srv.URL, "k")
	_, err := src.Fetch(context.Background(), 1, 2)
	if err == nil {
		t.Fatal("Fetch returned nil error for empty series")
	}
	appErr, ok := err.(*types.AppError)
	if !ok || appErr.Code != types.ErrCodeUpstreamMalformed {
		t.Errorf("error = %v, want %v", err, types.ErrCodeUpstreamMalformed)
	}
}

func TestWindFromComponents(t *testing.T) {
	tests := []struct {
		name    string
		u, v    float64
		speed   float64
		heading float64
	}{
		{"northerly", 0, -5, 5, 0},
		{"southerly", 0, 5, 5, 180},
		{"easterly", -5, 0, 5, 90},
		{"westerly", 5, 0, 5, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			speed, dir := windFromComponents(tt.u, tt.v)
			if math.Abs(speed-tt.speed) > 1e-9 {
				t.Errorf("speed = %v, want %v", speed, tt.speed)
			}
			if math.Abs(dir-tt.heading) > 1e-9 {
				t.Errorf("direction = %v, want %v", dir, tt.heading)
			}
		})
	}
}
