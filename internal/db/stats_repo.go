package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"cropsense/internal/types"
)

// StatsRepository provides data access for the crop_database_stats snapshot
// table. Snapshots are append-only; readers take the most recent row.
type StatsRepository struct {
	db DBTX
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(db DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

// Insert writes one new snapshot row. The ID is assigned here.
func (r *StatsRepository) Insert(ctx context.Context, stats *types.CropDatabaseStats) error {
	if stats.ID == "" {
		stats.ID = uuid.NewString()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO crop_database_stats (
			id, total_crops, total_crop_groups, total_orders,
			total_families, total_genera, total_names,
			names_by_language, crops_by_category, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`,
		stats.ID,
		stats.TotalCrops,
		stats.TotalCropGroups,
		stats.TotalOrders,
		stats.TotalFamilies,
		stats.TotalGenera,
		stats.TotalNames,
		stats.NamesByLanguage,
		stats.CropsByCategory,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to insert stats snapshot", err)
	}
	return nil
}

// GetLatest returns the most recently updated snapshot, or (nil, nil) when no
// snapshot has ever been written.
func (r *StatsRepository) GetLatest(ctx context.Context) (*types.CropDatabaseStats, error) {
	var s types.CropDatabaseStats
	err := r.db.QueryRow(ctx,
		`SELECT id, total_crops, total_crop_groups, total_orders,
			total_families, total_genera, total_names,
			names_by_language, crops_by_category, updated_at
		 FROM crop_database_stats
		 ORDER BY updated_at DESC
		 LIMIT 1`,
	).Scan(
		&s.ID, &s.TotalCrops, &s.TotalCropGroups, &s.TotalOrders,
		&s.TotalFamilies, &s.TotalGenera, &s.TotalNames,
		&s.NamesByLanguage, &s.CropsByCategory, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve latest stats snapshot", err)
	}
	return &s, nil
}
