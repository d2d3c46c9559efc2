package weather

import (
	"context"
	"log/slog"
	"math"
	"time"

	"cropsense/internal/types"
)

// Acquirer produces a weather record for a point by trying remote sources in
// priority order and falling back to a latitude-banded estimate. Acquire never
// returns an error; the pipeline guarantees a record.
type Acquirer struct {
	sources        []Source
	requestTimeout time.Duration
	logger         *slog.Logger
}

// NewAcquirer creates an Acquirer over the given sources. Order matters: the
// first source is the primary and later sources are only attempted after the
// preceding one fails.
func NewAcquirer(sources []Source, requestTimeout time.Duration, logger *slog.Logger) *Acquirer {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{
		sources:        sources,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

// Acquire returns current conditions for the point. Each remote source gets
// its own timeout budget; a timeout is treated like any other failure and the
// chain moves on. When every source fails the estimated record is returned.
func (a *Acquirer) Acquire(ctx context.Context, lat, lon float64) *types.WeatherRecord {
	for _, src := range a.sources {
		record, err := a.fetchOne(ctx, src, lat, lon)
		if err != nil {
			a.logger.WarnContext(ctx, "weather source failed, falling back",
				"source", src.Name(),
				"lat", lat,
				"lon", lon,
				"error", err,
			)
			continue
		}
		return record
	}

	a.logger.WarnContext(ctx, "all weather sources failed, using latitude estimate",
		"lat", lat,
		"lon", lon,
	)
	return EstimatedRecord(lat)
}

func (a *Acquirer) fetchOne(ctx context.Context, src Source, lat, lon float64) (*types.WeatherRecord, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, a.requestTimeout)
	defer cancel()
	return src.Fetch(fetchCtx, lat, lon)
}

// EstimatedRecord synthesizes plausible conditions from latitude alone. The
// temperature bands mirror the climate zones: within the tropics 30 C, then
// 25 C, 15 C, and 5 C for high latitudes, with boundary values resolving to
// the colder band.
func EstimatedRecord(lat float64) *types.WeatherRecord {
	absLat := math.Abs(lat)

	var temp float64
	switch {
	case absLat < 23.5:
		temp = 30
	case absLat < 35:
		temp = 25
	case absLat < 55:
		temp = 15
	default:
		temp = 5
	}

	return &types.WeatherRecord{
		Temperature:   temp,
		Humidity:      60,
		Precipitation: 0,
		WindSpeed:     10,
		WindDirection: 180,
		Pressure:      1013,
		CloudCover:    30,
		Condition:     "Partly cloudy",
		Location: types.Place{
			Name: "Unknown",
		},
	}
}
