// Package catalog composes the crop catalog read paths: paged browse and
// search with two-tier filtering, per-crop detail resolution with a bounded
// fan-out join, the flat training-data projection, and catalog-wide stats
// snapshots.
package catalog

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"cropsense/internal/types"
)

// detailFanOutLimit bounds how many per-crop detail resolutions run at once.
// Each resolution issues several store queries, so this also bounds pool
// pressure from one request.
const detailFanOutLimit = 8

// CropStore is the crops-table access the service needs.
type CropStore interface {
	List(ctx context.Context, limit, offset int) ([]types.Crop, int, error)
	GetByID(ctx context.Context, id string) (*types.Crop, error)
	Search(ctx context.Context, query, sortBy, sortOrder string, limit, offset int) ([]types.Crop, int, error)
	ListByIDs(ctx context.Context, ids []string) ([]types.Crop, error)
	ListForTraining(ctx context.Context, limit int) ([]types.Crop, error)
}

// CategoryStore is the category/assignment access the service needs.
type CategoryStore interface {
	GetBySlug(ctx context.Context, slug string) (*types.CropCategory, error)
	ListAll(ctx context.Context) ([]types.CropCategory, error)
	ListForCrop(ctx context.Context, cropID string) ([]types.CropCategory, error)
	CropIDsForCategory(ctx context.Context, categoryID string, limit, offset int) ([]string, int, error)
	SlugsForCrops(ctx context.Context, cropIDs []string) (map[string][]string, error)
}

// CropDataStore is the satellite-table access the service needs.
type CropDataStore interface {
	ListNames(ctx context.Context, cropID string) ([]types.CropName, error)
	ListUses(ctx context.Context, cropID string) ([]types.CropUse, error)
	GetCharacteristics(ctx context.Context, cropID string) (*types.CropCharacteristics, error)
	CharacteristicsForCrops(ctx context.Context, cropIDs []string) (map[string]*types.CropCharacteristics, error)
}

// TaxonomyStore is the taxonomy-chain access the service needs.
type TaxonomyStore interface {
	GetGenus(ctx context.Context, id string) (*types.CropGenus, error)
	GetFamily(ctx context.Context, id string) (*types.CropFamily, error)
	GetOrder(ctx context.Context, id string) (*types.CropOrder, error)
}

// Options tune search behavior.
type Options struct {
	// StrictFilterPagination applies the attribute filters before pagination
	// instead of narrowing the already-fetched page. The page-local default
	// matches what existing consumers observe; see Service.Search.
	StrictFilterPagination bool
	DefaultLimit           int
	MaxLimit               int
	TrainingExportLimit    int
}

func (o *Options) fillDefaults() {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = 50
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = 200
	}
	if o.TrainingExportLimit <= 0 {
		o.TrainingExportLimit = 1000
	}
}

// Service is the catalog read-path facade.
type Service struct {
	crops      CropStore
	categories CategoryStore
	cropData   CropDataStore
	taxonomy   TaxonomyStore
	opts       Options
	logger     *slog.Logger
}

// NewService creates a catalog Service.
func NewService(
	crops CropStore,
	categories CategoryStore,
	cropData CropDataStore,
	taxonomy TaxonomyStore,
	opts Options,
	logger *slog.Logger,
) *Service {
	opts.fillDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		crops:      crops,
		categories: categories,
		cropData:   cropData,
		taxonomy:   taxonomy,
		opts:       opts,
		logger:     logger,
	}
}

// clampPage normalizes limit/offset against the configured bounds.
func (s *Service) clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		limit = s.opts.MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// List returns a page of crop details ordered by priority rank descending.
func (s *Service) List(ctx context.Context, limit, offset int) (*types.CropSearchResult, error) {
	limit, offset = s.clampPage(limit, offset)

	crops, total, err := s.crops.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	details, err := s.resolveDetails(ctx, crops)
	if err != nil {
		return nil, err
	}
	return &types.CropSearchResult{Crops: details, Total: total, Limit: limit, Offset: offset}, nil
}

// Search runs the two-tier catalog search. Store-expressible filters (text
// match, sort, pagination) execute in SQL; the attribute filters (category
// slugs, climate zones, water requirement) then narrow the result.
//
// By default the attribute filters narrow only the fetched page, so Total may
// overcount the visibly filtered set and pages may come back under-filled.
// That page-local narrowing is what existing consumers observe and is kept
// deliberately; Options.StrictFilterPagination switches to filter-first
// semantics where the filters walk the full match set before pagination.
func (s *Service) Search(ctx context.Context, params types.CropSearchParams) (*types.CropSearchResult, error) {
	limit, offset := s.clampPage(params.Limit, params.Offset)

	if s.opts.StrictFilterPagination && hasAttributeFilters(params) {
		return s.searchStrict(ctx, params, limit, offset)
	}

	crops, total, err := s.crops.Search(ctx, params.Query, params.SortBy, params.SortOrder, limit, offset)
	if err != nil {
		return nil, err
	}

	filtered, err := s.applyAttributeFilters(ctx, crops, params)
	if err != nil {
		return nil, err
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	details, err := s.resolveDetails(ctx, filtered)
	if err != nil {
		return nil, err
	}
	return &types.CropSearchResult{Crops: details, Total: total, Limit: limit, Offset: offset}, nil
}

// searchStrict applies attribute filters across the whole text-match set and
// paginates afterwards. Total then counts the filtered set.
func (s *Service) searchStrict(ctx context.Context, params types.CropSearchParams, limit, offset int) (*types.CropSearchResult, error) {
	const batchSize = 500

	var filtered []types.Crop
	for batchOffset := 0; ; batchOffset += batchSize {
		crops, _, err := s.crops.Search(ctx, params.Query, params.SortBy, params.SortOrder, batchSize, batchOffset)
		if err != nil {
			return nil, err
		}
		if len(crops) == 0 {
			break
		}

		kept, err := s.applyAttributeFilters(ctx, crops, params)
		if err != nil {
			return nil, err
		}
		filtered = append(filtered, kept...)

		if len(crops) < batchSize {
			break
		}
	}

	total := len(filtered)
	if offset >= total {
		return &types.CropSearchResult{Crops: []types.CropDetail{}, Total: total, Limit: limit, Offset: offset}, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	details, err := s.resolveDetails(ctx, filtered[offset:end])
	if err != nil {
		return nil, err
	}
	return &types.CropSearchResult{Crops: details, Total: total, Limit: limit, Offset: offset}, nil
}

func hasAttributeFilters(params types.CropSearchParams) bool {
	return len(params.Categories) > 0 || len(params.ClimateZones) > 0 || params.WaterRequirement != ""
}

// applyAttributeFilters narrows a crop slice by category slug, climate zone,
// and water requirement, fetching the supporting data in two batch queries.
func (s *Service) applyAttributeFilters(ctx context.Context, crops []types.Crop, params types.CropSearchParams) ([]types.Crop, error) {
	if !hasAttributeFilters(params) {
		return crops, nil
	}
	if len(crops) == 0 {
		return crops, nil
	}

	ids := make([]string, len(crops))
	for i, c := range crops {
		ids[i] = c.ID
	}

	var slugs map[string][]string
	var chars map[string]*types.CropCharacteristics

	g, gctx := errgroup.WithContext(ctx)
	if len(params.Categories) > 0 {
		g.Go(func() error {
			var err error
			slugs, err = s.categories.SlugsForCrops(gctx, ids)
			return err
		})
	}
	if len(params.ClimateZones) > 0 || params.WaterRequirement != "" {
		g.Go(func() error {
			var err error
			chars, err = s.cropData.CharacteristicsForCrops(gctx, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := crops[:0]
	for _, crop := range crops {
		if len(params.Categories) > 0 && !anyOverlap(params.Categories, slugs[crop.ID]) {
			continue
		}
		if len(params.ClimateZones) > 0 {
			ch := chars[crop.ID]
			if ch == nil || !anyOverlap(params.ClimateZones, ch.ClimateZones) {
				continue
			}
		}
		if params.WaterRequirement != "" {
			ch := chars[crop.ID]
			if ch == nil || ch.WaterRequirement == nil || string(*ch.WaterRequirement) != params.WaterRequirement {
				continue
			}
		}
		kept = append(kept, crop)
	}
	return kept, nil
}

func anyOverlap(wanted, have []string) bool {
	for _, w := range wanted {
		for _, h := range have {
			if strings.EqualFold(w, h) {
				return true
			}
		}
	}
	return false
}

// GetByCategory resolves a category by slug and returns its crops as full
// details. An unknown slug is an empty result, not an error.
func (s *Service) GetByCategory(ctx context.Context, slug string, limit, offset int) (*types.CropSearchResult, error) {
	limit, offset = s.clampPage(limit, offset)

	category, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return &types.CropSearchResult{Crops: []types.CropDetail{}, Total: 0, Limit: limit, Offset: offset}, nil
	}

	ids, total, err := s.categories.CropIDsForCategory(ctx, category.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &types.CropSearchResult{Crops: []types.CropDetail{}, Total: total, Limit: limit, Offset: offset}, nil
	}

	crops, err := s.crops.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	details, err := s.resolveDetails(ctx, crops)
	if err != nil {
		return nil, err
	}
	return &types.CropSearchResult{Crops: details, Total: total, Limit: limit, Offset: offset}, nil
}

// GetByID returns the full detail for one crop. A missing id surfaces the
// repository's not_found_crop error.
func (s *Service) GetByID(ctx context.Context, id string) (*types.CropDetail, error) {
	crop, err := s.crops.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.resolveDetail(ctx, *crop)
}

// ListCategories returns every category ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]types.CropCategory, error) {
	return s.categories.ListAll(ctx)
}

// resolveDetails fans the per-crop detail resolution out across the page,
// bounded by detailFanOutLimit. Crops are independent of each other; each
// resolution is internally sequential where its data dependencies demand it.
func (s *Service) resolveDetails(ctx context.Context, crops []types.Crop) ([]types.CropDetail, error) {
	details := make([]types.CropDetail, len(crops))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailFanOutLimit)
	for i, crop := range crops {
		g.Go(func() error {
			d, err := s.resolveDetail(gctx, crop)
			if err != nil {
				return err
			}
			details[i] = *d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}

// resolveDetail joins one crop with its names, categories, characteristics,
// uses, and taxonomy. Names, categories, characteristics, and uses are
// independent and fetched concurrently; the taxonomy chain is sequential.
func (s *Service) resolveDetail(ctx context.Context, crop types.Crop) (*types.CropDetail, error) {
	detail := types.CropDetail{Crop: crop}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		names, err := s.cropData.ListNames(gctx, crop.ID)
		if err != nil {
			return err
		}
		detail.Names = names
		return nil
	})
	g.Go(func() error {
		categories, err := s.categories.ListForCrop(gctx, crop.ID)
		if err != nil {
			return err
		}
		detail.Categories = categories
		return nil
	})
	g.Go(func() error {
		chars, err := s.cropData.GetCharacteristics(gctx, crop.ID)
		if err != nil {
			return err
		}
		detail.Characteristics = chars
		return nil
	})
	g.Go(func() error {
		uses, err := s.cropData.ListUses(gctx, crop.ID)
		if err != nil {
			return err
		}
		detail.Uses = uses
		return nil
	})
	g.Go(func() error {
		taxonomy, err := s.resolveTaxonomy(gctx, crop.GenusID)
		if err != nil {
			return err
		}
		detail.Taxonomy = taxonomy
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if detail.Names == nil {
		detail.Names = []types.CropName{}
	}
	if detail.Categories == nil {
		detail.Categories = []types.CropCategory{}
	}
	if detail.Uses == nil {
		detail.Uses = []types.CropUse{}
	}
	return &detail, nil
}

// resolveTaxonomy walks genus -> family -> order. Each hop depends on the
// previous row's foreign key, so the chain is strictly sequential. Any broken
// link ends the chain early with the levels resolved so far.
func (s *Service) resolveTaxonomy(ctx context.Context, genusID *string) (types.Taxonomy, error) {
	var tax types.Taxonomy
	if genusID == nil || *genusID == "" {
		return tax, nil
	}

	genus, err := s.taxonomy.GetGenus(ctx, *genusID)
	if err != nil {
		return tax, err
	}
	if genus == nil {
		return tax, nil
	}
	tax.Genus = genus

	if genus.FamilyID == nil || *genus.FamilyID == "" {
		return tax, nil
	}
	family, err := s.taxonomy.GetFamily(ctx, *genus.FamilyID)
	if err != nil {
		return tax, err
	}
	if family == nil {
		return tax, nil
	}
	tax.Family = family

	if family.OrderID == nil || *family.OrderID == "" {
		return tax, nil
	}
	order, err := s.taxonomy.GetOrder(ctx, *family.OrderID)
	if err != nil {
		return tax, err
	}
	tax.Order = order
	return tax, nil
}
