package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropsense/internal/core"
	"cropsense/internal/types"
)

type mockAcquirer struct {
	record  *types.WeatherRecord
	lastLat float64
	lastLon float64
}

func (m *mockAcquirer) Acquire(_ context.Context, lat, lon float64) *types.WeatherRecord {
	m.lastLat = lat
	m.lastLon = lon
	return m.record
}

type mockObservationStore struct {
	locationErr error
	weatherErr  error
	recsErr     error

	savedWeather []*types.WeatherRecord
	savedCrops   [][]types.ScoredCrop
}

func (m *mockObservationStore) FindOrCreateLocation(_ context.Context, _, _ float64) (string, error) {
	if m.locationErr != nil {
		return "", m.locationErr
	}
	return "loc-1", nil
}

func (m *mockObservationStore) SaveWeatherRecord(_ context.Context, _ string, record *types.WeatherRecord) error {
	if m.weatherErr != nil {
		return m.weatherErr
	}
	m.savedWeather = append(m.savedWeather, record)
	return nil
}

func (m *mockObservationStore) SaveRecommendations(_ context.Context, _ string, crops []types.ScoredCrop) error {
	if m.recsErr != nil {
		return m.recsErr
	}
	m.savedCrops = append(m.savedCrops, crops)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testValidator() *core.Validator {
	return core.NewValidator(testLogger())
}

func weatherRouter(acquirer WeatherAcquirer, store ObservationStore) *chi.Mux {
	r := chi.NewRouter()
	NewWeatherHandler(acquirer, store, testLogger()).RegisterRoutes(r)
	return r
}

func decodeErrorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp core.APIErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestWeatherHandler_Get_Success(t *testing.T) {
	acquirer := &mockAcquirer{record: &types.WeatherRecord{Temperature: 21.5, Condition: "Clear"}}
	store := &mockObservationStore{}
	r := weatherRouter(acquirer, store)

	req := httptest.NewRequest(http.MethodGet, "/weather?lat=39.47&lon=-0.38", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var record types.WeatherRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &record))
	assert.Equal(t, 21.5, record.Temperature)
	assert.Equal(t, "Clear", record.Condition)

	assert.Equal(t, 39.47, acquirer.lastLat)
	assert.Equal(t, -0.38, acquirer.lastLon)
	assert.Len(t, store.savedWeather, 1)
}

func TestWeatherHandler_Get_InvalidCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"missing lat", "lon=10", "validation_invalid_latitude"},
		{"non-numeric lat", "lat=abc&lon=10", "validation_invalid_latitude"},
		{"missing lon", "lat=10", "validation_invalid_longitude"},
		{"lat too large", "lat=90.1&lon=10", "validation_invalid_latitude"},
		{"lat too small", "lat=-90.1&lon=10", "validation_invalid_latitude"},
		{"lon too large", "lat=10&lon=180.5", "validation_invalid_longitude"},
		{"lon too small", "lat=10&lon=-181", "validation_invalid_longitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acquirer := &mockAcquirer{record: &types.WeatherRecord{}}
			r := weatherRouter(acquirer, nil)

			req := httptest.NewRequest(http.MethodGet, "/weather?"+tt.query, nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.wantCode, decodeErrorCode(t, rr))
		})
	}
}

func TestWeatherHandler_Get_BoundaryCoordinatesAccepted(t *testing.T) {
	acquirer := &mockAcquirer{record: &types.WeatherRecord{}}
	r := weatherRouter(acquirer, nil)

	req := httptest.NewRequest(http.MethodGet, "/weather?lat=-90&lon=180", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestWeatherHandler_Get_StoreFailureDoesNotFailRequest(t *testing.T) {
	acquirer := &mockAcquirer{record: &types.WeatherRecord{Temperature: 5}}
	store := &mockObservationStore{locationErr: errors.New("db down")}
	r := weatherRouter(acquirer, store)

	req := httptest.NewRequest(http.MethodGet, "/weather?lat=60&lon=25", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, store.savedWeather)
}

func TestWeatherHandler_Get_NilStore(t *testing.T) {
	acquirer := &mockAcquirer{record: &types.WeatherRecord{}}
	r := weatherRouter(acquirer, nil)

	req := httptest.NewRequest(http.MethodGet, "/weather?lat=0&lon=0", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
