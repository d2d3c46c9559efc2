package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"cropsense/internal/types"
)

// CropRepository provides data access for the crops table.
type CropRepository struct {
	db DBTX
}

// NewCropRepository creates a new CropRepository backed by the given database
// connection (pool or transaction).
func NewCropRepository(db DBTX) *CropRepository {
	return &CropRepository{db: db}
}

// cropColumns is the standard column set for crop queries. Scan order in
// scanCrop must match.
const cropColumns = `c.id, c.scientific_name, c.genus_id, c.species, c.common_name,
	c.is_crop_group, c.crop_group_info, c.description, c.summary,
	c.cultivation_status, c.origin, c.distribution, c.image_url,
	c.priority_rank, c.created_at, c.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanCrop scans one crops row in cropColumns order.
func scanCrop(row rowScanner) (*types.Crop, error) {
	var c types.Crop
	err := row.Scan(
		&c.ID,
		&c.ScientificName,
		&c.GenusID,
		&c.Species,
		&c.CommonName,
		&c.IsCropGroup,
		&c.CropGroupInfo,
		&c.Description,
		&c.Summary,
		&c.CultivationStatus,
		&c.Origin,
		&c.Distribution,
		&c.ImageURL,
		&c.PriorityRank,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// sortColumns whitelists the sortable columns. User-supplied sort fields are
// looked up here and never interpolated directly.
var sortColumns = map[string]string{
	types.SortByName:           "c.common_name",
	types.SortByScientificName: "c.scientific_name",
	types.SortByPriorityRank:   "c.priority_rank",
	types.SortByCreatedAt:      "c.created_at",
	// Accepted alias kept for compatibility with existing consumers.
	"common_name": "c.common_name",
}

// OrderClause resolves a (sortBy, sortOrder) pair into a safe ORDER BY body.
// Unknown columns report validation_invalid_sort_field.
func OrderClause(sortBy, sortOrder string) (string, error) {
	if sortBy == "" {
		sortBy = types.SortByPriorityRank
	}
	col, ok := sortColumns[sortBy]
	if !ok {
		return "", types.NewAppError(
			types.ErrCodeValidationInvalidSort,
			fmt.Sprintf("unknown sort field %q", sortBy),
			nil,
		)
	}

	dir := "DESC"
	switch strings.ToLower(sortOrder) {
	case "", "desc":
	case "asc":
		dir = "ASC"
	default:
		return "", types.NewAppError(
			types.ErrCodeValidationInvalidSort,
			fmt.Sprintf("sort order must be asc or desc, got %q", sortOrder),
			nil,
		)
	}

	return col + " " + dir, nil
}

// List returns a page of crops ordered by priority rank descending with
// common name as the tiebreak, plus the unfiltered total.
func (r *CropRepository) List(ctx context.Context, limit, offset int) ([]types.Crop, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM crops`).Scan(&total); err != nil {
		return nil, 0, types.NewAppError(types.ErrCodeInternalDB, "failed to count crops", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+cropColumns+` FROM crops c
		 ORDER BY c.priority_rank DESC, c.common_name ASC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, types.NewAppError(types.ErrCodeInternalDB, "failed to list crops", err)
	}
	defer rows.Close()

	crops, err := collectCrops(rows)
	if err != nil {
		return nil, 0, err
	}
	return crops, total, nil
}

// GetByID fetches one crop. A missing row is a not_found_crop error.
func (r *CropRepository) GetByID(ctx context.Context, id string) (*types.Crop, error) {
	crop, err := scanCrop(r.db.QueryRow(ctx,
		`SELECT `+cropColumns+` FROM crops c WHERE c.id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundCrop, "crop not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve crop", err)
	}
	return crop, nil
}

// Search runs the store tier of catalog search: ILIKE OR-match across common
// name, scientific name, and description, whitelisted column sort, and range
// pagination. The total counts text matches only; post-fetch filters applied
// by the service layer do not affect it.
func (r *CropRepository) Search(ctx context.Context, query, sortBy, sortOrder string, limit, offset int) ([]types.Crop, int, error) {
	orderBy, err := OrderClause(sortBy, sortOrder)
	if err != nil {
		return nil, 0, err
	}

	where := ""
	args := []any{}
	if query != "" {
		where = `WHERE c.common_name ILIKE $1 OR c.scientific_name ILIKE $1 OR c.description ILIKE $1`
		args = append(args, "%"+query+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM crops c `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, types.NewAppError(types.ErrCodeInternalDB, "failed to count search matches", err)
	}

	limitArgs := append(args, limit, offset)
	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`SELECT `+cropColumns+` FROM crops c %s ORDER BY %s LIMIT $%d OFFSET $%d`,
			where, orderBy, len(args)+1, len(args)+2),
		limitArgs...,
	)
	if err != nil {
		return nil, 0, types.NewAppError(types.ErrCodeInternalDB, "failed to search crops", err)
	}
	defer rows.Close()

	crops, err := collectCrops(rows)
	if err != nil {
		return nil, 0, err
	}
	return crops, total, nil
}

// ListByIDs fetches the given crops in the order of the id slice. Missing ids
// are skipped, not errors; the category page assembler tolerates dangling
// assignment rows.
func (r *CropRepository) ListByIDs(ctx context.Context, ids []string) ([]types.Crop, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+cropColumns+` FROM crops c WHERE c.id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to fetch crops by id", err)
	}
	defer rows.Close()

	crops, err := collectCrops(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]types.Crop, len(crops))
	for _, c := range crops {
		byID[c.ID] = c
	}
	ordered := make([]types.Crop, 0, len(crops))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

// ListForTraining returns up to limit crops for the training projection.
func (r *CropRepository) ListForTraining(ctx context.Context, limit int) ([]types.Crop, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+cropColumns+` FROM crops c ORDER BY c.priority_rank DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to fetch training crops", err)
	}
	defer rows.Close()

	return collectCrops(rows)
}

// CountAll returns (total crops, crop groups) for the stats snapshot.
func (r *CropRepository) CountAll(ctx context.Context) (total, groups int, err error) {
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_crop_group) FROM crops`,
	).Scan(&total, &groups); err != nil {
		return 0, 0, types.NewAppError(types.ErrCodeInternalDB, "failed to count crops", err)
	}
	return total, groups, nil
}

func collectCrops(rows pgx.Rows) ([]types.Crop, error) {
	var crops []types.Crop
	for rows.Next() {
		c, err := scanCrop(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan crop row", err)
		}
		crops = append(crops, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating crop rows", err)
	}
	return crops, nil
}
