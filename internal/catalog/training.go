package catalog

import (
	"context"

	"golang.org/x/sync/errgroup"

	"cropsense/internal/types"
)

// TrainingData bulk-projects crops into flat feature records for external
// model consumption. Missing nested data is default-filled: nil slices become
// empty collections and absent scalars stay nil, never errors.
func (s *Service) TrainingData(ctx context.Context, limit int) ([]types.CropTrainingRecord, error) {
	if limit <= 0 {
		limit = s.opts.TrainingExportLimit
	}

	crops, err := s.crops.ListForTraining(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(crops) == 0 {
		return []types.CropTrainingRecord{}, nil
	}

	ids := make([]string, len(crops))
	for i, c := range crops {
		ids[i] = c.ID
	}

	var (
		chars map[string]*types.CropCharacteristics
		slugs map[string][]string
	)
	uses := make(map[string][]types.CropUse, len(crops))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		chars, err = s.cropData.CharacteristicsForCrops(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		slugs, err = s.categories.SlugsForCrops(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Use rows are fetched per crop with the same bounded fan-out as detail
	// resolution.
	useRows := make([][]types.CropUse, len(crops))
	ug, ugctx := errgroup.WithContext(ctx)
	ug.SetLimit(detailFanOutLimit)
	for i, crop := range crops {
		ug.Go(func() error {
			rows, err := s.cropData.ListUses(ugctx, crop.ID)
			if err != nil {
				return err
			}
			useRows[i] = rows
			return nil
		})
	}
	if err := ug.Wait(); err != nil {
		return nil, err
	}
	for i, crop := range crops {
		uses[crop.ID] = useRows[i]
	}

	records := make([]types.CropTrainingRecord, 0, len(crops))
	for _, crop := range crops {
		records = append(records, flattenTrainingRecord(crop, chars[crop.ID], uses[crop.ID], slugs[crop.ID]))
	}
	return records, nil
}

func flattenTrainingRecord(
	crop types.Crop,
	chars *types.CropCharacteristics,
	uses []types.CropUse,
	categorySlugs []string,
) types.CropTrainingRecord {
	rec := types.CropTrainingRecord{
		CropID:          crop.ID,
		CropName:        crop.CommonName,
		ScientificName:  crop.ScientificName,
		ClimateZones:    []string{},
		SoilTypes:       []string{},
		PlantingSeasons: []string{},
		Categories:      categorySlugs,
		UseTypes:        []string{},
	}
	if rec.Categories == nil {
		rec.Categories = []string{}
	}

	if chars != nil {
		if chars.ClimateZones != nil {
			rec.ClimateZones = chars.ClimateZones
		}
		rec.TemperatureRange = [2]*float64{chars.MinTemperature, chars.MaxTemperature}
		rec.OptimalTemperatureRange = [2]*float64{chars.OptimalTemperatureMin, chars.OptimalTemperatureMax}
		rec.WaterRequirement = enumString(chars.WaterRequirement)
		rec.DroughtTolerance = toleranceString(chars.DroughtTolerance)
		if chars.SoilTypes != nil {
			rec.SoilTypes = chars.SoilTypes
		}
		rec.SoilPHRange = [2]*float64{chars.SoilPHMin, chars.SoilPHMax}
		rec.SunlightRequirement = sunlightString(chars.SunlightRequirement)
		rec.AltitudeRange = [2]*float64{chars.AltitudeMin, chars.AltitudeMax}
		rec.GrowingPeriodDays = chars.GrowingPeriodDays
		if chars.PlantingSeasons != nil {
			rec.PlantingSeasons = chars.PlantingSeasons
		}
		rec.NitrogenFixing = chars.NitrogenFixing
		rec.ErosionControl = chars.ErosionControl
		rec.WaterUseEfficiency = chars.WaterUseEfficiency
		rec.AverageYield = chars.AverageYieldPerHectare
		rec.YieldVariability = chars.YieldVariability
	}

	for _, use := range uses {
		rec.UseTypes = append(rec.UseTypes, string(use.UseType))
	}
	if len(uses) > 0 && uses[0].Importance != nil {
		importance := string(*uses[0].Importance)
		rec.Importance = &importance
	}

	return rec
}

func enumString(v *types.WaterRequirement) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toleranceString(v *types.Tolerance) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func sunlightString(v *types.SunlightRequirement) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
