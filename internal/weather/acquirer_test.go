package weather

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"cropsense/internal/types"
)

// --- Mock Source ---

type mockSource struct {
	name   string
	record *types.WeatherRecord
	err    error
	calls  int
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Fetch(_ context.Context, _, _ float64) (*types.WeatherRecord, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// --- Tests: fallback ordering ---

func TestAcquirePrimarySuccessSkipsSecondary(t *testing.T) {
	primaryRecord := &types.WeatherRecord{Temperature: 21.5, Condition: "Sunny"}
	primary := &mockSource{name: "primary", record: primaryRecord}
	secondary := &mockSource{name: "secondary", record: &types.WeatherRecord{Temperature: 99}}

	a := NewAcquirer([]Source{primary, secondary}, time.Second, discardLogger())
	got := a.Acquire(context.Background(), 48.85, 2.35)

	if got != primaryRecord {
		t.Errorf("Acquire returned %+v, want primary record", got)
	}
	if secondary.calls != 0 {
		t.Errorf("secondary called %d times, want 0", secondary.calls)
	}
}

func TestAcquirePrimaryFailureUsesSecondaryVerbatim(t *testing.T) {
	secondaryRecord := &types.WeatherRecord{Temperature: 17.2, Humidity: 55, Condition: "Overcast"}
	primary := &mockSource{name: "primary", err: errors.New("connection refused")}
	secondary := &mockSource{name: "secondary", record: secondaryRecord}

	a := NewAcquirer([]Source{primary, secondary}, time.Second, discardLogger())
	got := a.Acquire(context.Background(), 48.85, 2.35)

	if got != secondaryRecord {
		t.Errorf("Acquire returned %+v, want secondary record unchanged", got)
	}
	if primary.calls != 1 {
		t.Errorf("primary called %d times, want 1", primary.calls)
	}
}

func TestAcquireAllSourcesFailReturnsEstimate(t *testing.T) {
	primary := &mockSource{name: "primary", err: errors.New("timeout")}
	secondary := &mockSource{name: "secondary", err: errors.New("bad gateway")}

	a := NewAcquirer([]Source{primary, secondary}, time.Second, discardLogger())
	got := a.Acquire(context.Background(), 10, 20)

	if got == nil {
		t.Fatal("Acquire returned nil, want estimated record")
	}
	if got.Temperature != 30 {
		t.Errorf("estimated temperature = %v, want 30 for |lat| < 23.5", got.Temperature)
	}
	if got.Humidity != 60 || got.Pressure != 1013 || got.WindSpeed != 10 || got.CloudCover != 30 {
		t.Errorf("estimated defaults = %+v, want humidity 60, pressure 1013, wind 10, cloud 30", got)
	}
	if got.Condition != "Partly cloudy" {
		t.Errorf("estimated condition = %q, want %q", got.Condition, "Partly cloudy")
	}
}

func TestAcquireNoSourcesStillReturnsEstimate(t *testing.T) {
	a := NewAcquirer(nil, time.Second, discardLogger())
	if got := a.Acquire(context.Background(), -60, 0); got == nil {
		t.Fatal("Acquire returned nil with no sources configured")
	}
}

// --- Tests: latitude bands ---

func TestEstimatedRecordLatitudeBands(t *testing.T) {
	tests := []struct {
		name     string
		lat      float64
		wantTemp float64
	}{
		{"equator", 0, 30},
		{"deep tropics south", -10, 30},
		{"just inside tropics", 23.4, 30},
		{"tropic boundary resolves colder", 23.5, 25},
		{"subtropics", 28.6, 25},
		{"subtropic boundary resolves colder", 35, 15},
		{"negative subtropic boundary", -35, 15},
		{"temperate", 48.85, 15},
		{"temperate boundary resolves colder", 55, 5},
		{"high latitude", 70, 5},
		{"pole", -90, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimatedRecord(tt.lat)
			if got.Temperature != tt.wantTemp {
				t.Errorf("EstimatedRecord(%v).Temperature = %v, want %v", tt.lat, got.Temperature, tt.wantTemp)
			}
		})
	}
}

func TestClimateZoneMatchesEstimateBands(t *testing.T) {
	tests := []struct {
		lat  float64
		want types.ClimateZone
	}{
		{0, types.ClimateTropical},
		{23.5, types.ClimateSubtropical},
		{28.6, types.ClimateSubtropical},
		{35, types.ClimateTemperate},
		{55, types.ClimateCoolTemperate},
		{-72, types.ClimateCoolTemperate},
	}

	for _, tt := range tests {
		if got := types.ClimateZoneForLatitude(tt.lat); got != tt.want {
			t.Errorf("ClimateZoneForLatitude(%v) = %v, want %v", tt.lat, got, tt.want)
		}
	}
}
