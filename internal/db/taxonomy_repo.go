package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"cropsense/internal/types"
)

// TaxonomyRepository provides data access for the crop_genera, crop_families,
// and crop_orders tables. Lookups return (nil, nil) for missing rows because
// a broken taxonomy link resolves to an empty chain, not an error.
type TaxonomyRepository struct {
	db DBTX
}

// NewTaxonomyRepository creates a new TaxonomyRepository.
func NewTaxonomyRepository(db DBTX) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

// GetGenus fetches one genus by id.
func (r *TaxonomyRepository) GetGenus(ctx context.Context, id string) (*types.CropGenus, error) {
	var g types.CropGenus
	err := r.db.QueryRow(ctx,
		`SELECT id, name, family_id, created_at, updated_at FROM crop_genera WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.FamilyID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve genus", err)
	}
	return &g, nil
}

// GetFamily fetches one family by id.
func (r *TaxonomyRepository) GetFamily(ctx context.Context, id string) (*types.CropFamily, error) {
	var f types.CropFamily
	err := r.db.QueryRow(ctx,
		`SELECT id, name, order_id, created_at, updated_at FROM crop_families WHERE id = $1`, id,
	).Scan(&f.ID, &f.Name, &f.OrderID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve family", err)
	}
	return &f, nil
}

// GetOrder fetches one order by id.
func (r *TaxonomyRepository) GetOrder(ctx context.Context, id string) (*types.CropOrder, error) {
	var o types.CropOrder
	err := r.db.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM crop_orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve order", err)
	}
	return &o, nil
}

// Counts returns (orders, families, genera) totals for the stats snapshot.
func (r *TaxonomyRepository) Counts(ctx context.Context) (orders, families, genera int, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM crop_orders),
			(SELECT COUNT(*) FROM crop_families),
			(SELECT COUNT(*) FROM crop_genera)`,
	).Scan(&orders, &families, &genera)
	if err != nil {
		return 0, 0, 0, types.NewAppError(types.ErrCodeInternalDB, "failed to count taxonomy tables", err)
	}
	return orders, families, genera, nil
}
