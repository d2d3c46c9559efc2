package catalog

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"cropsense/internal/types"
)

// CropCounter provides the count queries the stats refresher issues against
// the crops table.
type CropCounter interface {
	CountAll(ctx context.Context) (total, groups int, err error)
}

// TaxonomyCounter provides the taxonomy-table counts.
type TaxonomyCounter interface {
	Counts(ctx context.Context) (orders, families, genera int, err error)
}

// NameCounter provides the crop_names counts and grouping.
type NameCounter interface {
	CountNames(ctx context.Context) (int, error)
	NameCountsByLanguage(ctx context.Context) (map[string]int, error)
}

// CategoryCounter provides the per-category crop counts.
type CategoryCounter interface {
	CountsBySlug(ctx context.Context) (map[string]int, error)
}

// StatsStore persists and serves snapshots.
type StatsStore interface {
	Insert(ctx context.Context, stats *types.CropDatabaseStats) error
	GetLatest(ctx context.Context) (*types.CropDatabaseStats, error)
}

// StatsService maintains catalog-wide statistics snapshots. Refresh issues
// its count queries as independent parallel reads with no transactional
// guarantee: the snapshot may reflect slightly different catalog states if
// writes land mid-refresh, which is acceptable for a reporting value.
type StatsService struct {
	crops      CropCounter
	taxonomy   TaxonomyCounter
	names      NameCounter
	categories CategoryCounter
	store      StatsStore
	logger     *slog.Logger
}

// NewStatsService creates a StatsService.
func NewStatsService(
	crops CropCounter,
	taxonomy TaxonomyCounter,
	names NameCounter,
	categories CategoryCounter,
	store StatsStore,
	logger *slog.Logger,
) *StatsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsService{
		crops:      crops,
		taxonomy:   taxonomy,
		names:      names,
		categories: categories,
		store:      store,
		logger:     logger,
	}
}

// Refresh computes a fresh snapshot and appends it to the snapshot table.
// The new snapshot is returned.
func (s *StatsService) Refresh(ctx context.Context) (*types.CropDatabaseStats, error) {
	stats := &types.CropDatabaseStats{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, groups, err := s.crops.CountAll(gctx)
		if err != nil {
			return err
		}
		stats.TotalCrops = total
		stats.TotalCropGroups = groups
		return nil
	})
	g.Go(func() error {
		orders, families, genera, err := s.taxonomy.Counts(gctx)
		if err != nil {
			return err
		}
		stats.TotalOrders = orders
		stats.TotalFamilies = families
		stats.TotalGenera = genera
		return nil
	})
	g.Go(func() error {
		total, err := s.names.CountNames(gctx)
		if err != nil {
			return err
		}
		stats.TotalNames = total
		return nil
	})
	g.Go(func() error {
		byLanguage, err := s.names.NameCountsByLanguage(gctx)
		if err != nil {
			return err
		}
		stats.NamesByLanguage = byLanguage
		return nil
	})
	g.Go(func() error {
		byCategory, err := s.categories.CountsBySlug(gctx)
		if err != nil {
			return err
		}
		stats.CropsByCategory = byCategory
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.store.Insert(ctx, stats); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "catalog stats snapshot refreshed",
		"total_crops", stats.TotalCrops,
		"total_names", stats.TotalNames,
	)
	return stats, nil
}

// Latest returns the most recent snapshot, or (nil, nil) when none exists.
func (s *StatsService) Latest(ctx context.Context) (*types.CropDatabaseStats, error) {
	return s.store.GetLatest(ctx)
}
