package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"cropsense/internal/types"
)

// ObservationRepository persists the observation log: queried locations, the
// weather records acquired for them, and the recommendations produced.
// Writes through this repository are best-effort from the caller's point of
// view; handlers log failures and keep serving.
type ObservationRepository struct {
	db DBTX
}

// NewObservationRepository creates a new ObservationRepository.
func NewObservationRepository(db DBTX) *ObservationRepository {
	return &ObservationRepository{db: db}
}

// FindOrCreateLocation returns the id of the location row for (lat, lon),
// creating it on first sight.
func (r *ObservationRepository) FindOrCreateLocation(ctx context.Context, lat, lon float64) (string, error) {
	var id string
	err := r.db.QueryRow(ctx,
		`SELECT id FROM locations WHERE lat = $1 AND lon = $2`, lat, lon,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", types.NewAppError(types.ErrCodeInternalDB, "failed to look up location", err)
	}

	id = uuid.NewString()
	// Another writer may insert the same point concurrently; on conflict take
	// the existing row's id.
	err = r.db.QueryRow(ctx,
		`INSERT INTO locations (id, lat, lon, created_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (lat, lon) DO UPDATE SET lat = EXCLUDED.lat
		 RETURNING id`,
		id, lat, lon,
	).Scan(&id)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalDB, "failed to create location", err)
	}
	return id, nil
}

// SaveWeatherRecord appends one acquired weather record for a location.
func (r *ObservationRepository) SaveWeatherRecord(ctx context.Context, locationID string, record *types.WeatherRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO weather_data (
			id, location_id, temperature, precipitation, wind_speed,
			wind_direction, humidity, pressure, cloud_cover,
			observed_at, forecast_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.NewString(),
		locationID,
		record.Temperature,
		record.Precipitation,
		record.WindSpeed,
		record.WindDirection,
		record.Humidity,
		record.Pressure,
		record.CloudCover,
		time.Now().UTC(),
		record.Forecast,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to save weather record", err)
	}
	return nil
}

// recommendationModelVersion tags saved scorer output so future formula
// changes can be told apart in the log.
const recommendationModelVersion = "v1.0"

// SaveRecommendations appends the scored crops produced for a location.
func (r *ObservationRepository) SaveRecommendations(ctx context.Context, locationID string, crops []types.ScoredCrop) error {
	for _, crop := range crops {
		_, err := r.db.Exec(ctx,
			`INSERT INTO recommendations (
				id, location_id, crop_name, suitability,
				expected_yield_index, sustainability_tag, reasons,
				model_version, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
			uuid.NewString(),
			locationID,
			crop.CropName,
			crop.Suitability,
			crop.ExpectedYieldIndex,
			crop.SustainabilityTag,
			crop.Reasons,
			recommendationModelVersion,
		)
		if err != nil {
			return types.NewAppError(types.ErrCodeInternalDB, "failed to save recommendation", err)
		}
	}
	return nil
}
