package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"cropsense/internal/types"
)

// CategoryRepository provides data access for the crop_categories and
// crop_category_assignments tables.
type CategoryRepository struct {
	db DBTX
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `id, name, slug, description, parent_category_id, created_at`

func scanCategory(row rowScanner) (*types.CropCategory, error) {
	var c types.CropCategory
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ParentCategoryID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetBySlug fetches one category. A missing slug returns (nil, nil): the
// category browse path treats it as an empty result, not an error.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*types.CropCategory, error) {
	c, err := scanCategory(r.db.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM crop_categories WHERE slug = $1`, slug,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve category", err)
	}
	return c, nil
}

// ListAll returns every category ordered by name.
func (r *CategoryRepository) ListAll(ctx context.Context) ([]types.CropCategory, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+categoryColumns+` FROM crop_categories ORDER BY name ASC`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list categories", err)
	}
	defer rows.Close()

	var categories []types.CropCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan category row", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating category rows", err)
	}
	return categories, nil
}

// ListForCrop returns the categories assigned to a crop.
func (r *CategoryRepository) ListForCrop(ctx context.Context, cropID string) ([]types.CropCategory, error) {
	rows, err := r.db.Query(ctx,
		`SELECT cc.id, cc.name, cc.slug, cc.description, cc.parent_category_id, cc.created_at
		 FROM crop_category_assignments a
		 JOIN crop_categories cc ON cc.id = a.category_id
		 WHERE a.crop_id = $1
		 ORDER BY cc.name ASC`,
		cropID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list crop categories", err)
	}
	defer rows.Close()

	var categories []types.CropCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan crop category row", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating crop category rows", err)
	}
	return categories, nil
}

// CropIDsForCategory returns a page of crop ids assigned to the category plus
// the total assignment count.
func (r *CategoryRepository) CropIDsForCategory(ctx context.Context, categoryID string, limit, offset int) ([]string, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM crop_category_assignments WHERE category_id = $1`, categoryID,
	).Scan(&total); err != nil {
		return nil, 0, types.NewAppError(types.ErrCodeInternalDB, "failed to count category assignments", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT crop_id FROM crop_category_assignments
		 WHERE category_id = $1
		 ORDER BY crop_id
		 LIMIT $2 OFFSET $3`,
		categoryID, limit, offset,
	)
	if err != nil {
		return nil, 0, types.NewAppError(types.ErrCodeInternalDB, "failed to list category assignments", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, 0, types.NewAppError(types.ErrCodeInternalDB, "failed to scan assignment row", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, types.NewAppError(types.ErrCodeInternalDB, "error iterating assignment rows", err)
	}
	return ids, total, nil
}

// SlugsForCrops returns category slugs per crop id for a batch of crops.
func (r *CategoryRepository) SlugsForCrops(ctx context.Context, cropIDs []string) (map[string][]string, error) {
	out := make(map[string][]string)
	if len(cropIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT a.crop_id, cc.slug
		 FROM crop_category_assignments a
		 JOIN crop_categories cc ON cc.id = a.category_id
		 WHERE a.crop_id = ANY($1)`,
		cropIDs,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to fetch crop category slugs", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cropID, slug string
		if err := rows.Scan(&cropID, &slug); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan category slug row", err)
		}
		out[cropID] = append(out[cropID], slug)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating category slug rows", err)
	}
	return out, nil
}

// CountsBySlug returns crop counts grouped by category slug for the stats
// snapshot.
func (r *CategoryRepository) CountsBySlug(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT cc.slug, COUNT(a.crop_id)
		 FROM crop_category_assignments a
		 JOIN crop_categories cc ON cc.id = a.category_id
		 GROUP BY cc.slug`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to count crops by category", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var slug string
		var count int
		if err := rows.Scan(&slug, &count); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan category count row", err)
		}
		out[slug] = count
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating category count rows", err)
	}
	return out, nil
}
