package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"cropsense/internal/types"
)

// CropDataRepository provides data access for the per-crop satellite tables:
// crop_names, crop_uses, and crop_characteristics.
type CropDataRepository struct {
	db DBTX
}

// NewCropDataRepository creates a new CropDataRepository.
func NewCropDataRepository(db DBTX) *CropDataRepository {
	return &CropDataRepository{db: db}
}

// ListNames returns the localized and synonym names for a crop.
func (r *CropDataRepository) ListNames(ctx context.Context, cropID string) ([]types.CropName, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, crop_id, name, language, is_synonym, created_at
		 FROM crop_names WHERE crop_id = $1 ORDER BY language, name`,
		cropID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list crop names", err)
	}
	defer rows.Close()

	var names []types.CropName
	for rows.Next() {
		var n types.CropName
		if err := rows.Scan(&n.ID, &n.CropID, &n.Name, &n.Language, &n.IsSynonym, &n.CreatedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan crop name row", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating crop name rows", err)
	}
	return names, nil
}

// ListUses returns the use records for a crop.
func (r *CropDataRepository) ListUses(ctx context.Context, cropID string) ([]types.CropUse, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, crop_id, use_type, edible_parts, processing_required,
			processing_methods, importance, global_production_tonnes, created_at
		 FROM crop_uses WHERE crop_id = $1 ORDER BY created_at`,
		cropID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list crop uses", err)
	}
	defer rows.Close()

	var uses []types.CropUse
	for rows.Next() {
		var u types.CropUse
		if err := rows.Scan(
			&u.ID, &u.CropID, &u.UseType, &u.EdibleParts, &u.ProcessingRequired,
			&u.ProcessingMethods, &u.Importance, &u.GlobalProductionTonnes, &u.CreatedAt,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan crop use row", err)
		}
		uses = append(uses, u)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating crop use rows", err)
	}
	return uses, nil
}

const characteristicsColumns = `id, crop_id,
	climate_zones, min_temperature, max_temperature,
	optimal_temperature_min, optimal_temperature_max,
	water_requirement, drought_tolerance, flood_tolerance,
	soil_types, soil_ph_min, soil_ph_max,
	sunlight_requirement, altitude_min, altitude_max,
	growing_period_days, planting_season,
	average_yield_per_hectare, yield_variability,
	nitrogen_fixing, erosion_control, water_use_efficiency,
	created_at, updated_at`

func scanCharacteristics(row rowScanner) (*types.CropCharacteristics, error) {
	var ch types.CropCharacteristics
	err := row.Scan(
		&ch.ID, &ch.CropID,
		&ch.ClimateZones, &ch.MinTemperature, &ch.MaxTemperature,
		&ch.OptimalTemperatureMin, &ch.OptimalTemperatureMax,
		&ch.WaterRequirement, &ch.DroughtTolerance, &ch.FloodTolerance,
		&ch.SoilTypes, &ch.SoilPHMin, &ch.SoilPHMax,
		&ch.SunlightRequirement, &ch.AltitudeMin, &ch.AltitudeMax,
		&ch.GrowingPeriodDays, &ch.PlantingSeasons,
		&ch.AverageYieldPerHectare, &ch.YieldVariability,
		&ch.NitrogenFixing, &ch.ErosionControl, &ch.WaterUseEfficiency,
		&ch.CreatedAt, &ch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// GetCharacteristics returns the attribute record for a crop, or (nil, nil)
// when the crop has none.
func (r *CropDataRepository) GetCharacteristics(ctx context.Context, cropID string) (*types.CropCharacteristics, error) {
	ch, err := scanCharacteristics(r.db.QueryRow(ctx,
		`SELECT `+characteristicsColumns+` FROM crop_characteristics WHERE crop_id = $1`, cropID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve crop characteristics", err)
	}
	return ch, nil
}

// CharacteristicsForCrops returns attribute records keyed by crop id for a
// batch of crops. Crops without a record are simply absent from the map.
func (r *CropDataRepository) CharacteristicsForCrops(ctx context.Context, cropIDs []string) (map[string]*types.CropCharacteristics, error) {
	out := make(map[string]*types.CropCharacteristics)
	if len(cropIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+characteristicsColumns+` FROM crop_characteristics WHERE crop_id = ANY($1)`, cropIDs,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to fetch crop characteristics batch", err)
	}
	defer rows.Close()

	for rows.Next() {
		ch, err := scanCharacteristics(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan characteristics row", err)
		}
		out[ch.CropID] = ch
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating characteristics rows", err)
	}
	return out, nil
}

// CountNames returns the total crop_names rows for the stats snapshot.
func (r *CropDataRepository) CountNames(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM crop_names`).Scan(&total); err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to count crop names", err)
	}
	return total, nil
}

// NameCountsByLanguage returns crop_names counts grouped by language.
func (r *CropDataRepository) NameCountsByLanguage(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT language, COUNT(*) FROM crop_names GROUP BY language`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to count names by language", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var language string
		var count int
		if err := rows.Scan(&language, &count); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan language count row", err)
		}
		out[language] = count
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating language count rows", err)
	}
	return out, nil
}
