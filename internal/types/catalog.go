package types

import "time"

// Enumerated catalog attribute values. The store owns these columns; the
// constants exist for filter validation and the deterministic fallbacks.
type (
	// WaterRequirement grades how much water a crop needs.
	WaterRequirement string
	// Tolerance grades drought/flood tolerance.
	Tolerance string
	// SunlightRequirement grades light needs.
	SunlightRequirement string
	// CropUseType classifies what a crop is used for.
	CropUseType string
	// ImportanceTier ranks a use's economic significance.
	ImportanceTier string
)

const (
	WaterLow      WaterRequirement = "low"
	WaterMedium   WaterRequirement = "medium"
	WaterHigh     WaterRequirement = "high"
	WaterVeryHigh WaterRequirement = "very_high"

	ToleranceLow    Tolerance = "low"
	ToleranceMedium Tolerance = "medium"
	ToleranceHigh   Tolerance = "high"

	SunFullSun      SunlightRequirement = "full_sun"
	SunPartialShade SunlightRequirement = "partial_shade"
	SunShade        SunlightRequirement = "shade"

	ImportanceMajor       ImportanceTier = "major"
	ImportanceMinor       ImportanceTier = "minor"
	ImportanceSubsistence ImportanceTier = "subsistence"
)

// CropOrder is the top level of the taxonomy chain.
type CropOrder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CropFamily sits between order and genus. OrderID is nullable.
type CropFamily struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OrderID   *string   `json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CropGenus is the level a crop references directly. FamilyID is nullable.
type CropGenus struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FamilyID  *string   `json:"family_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Taxonomy is the resolved genus -> family -> order chain for a crop.
// A crop with no genus reference resolves to an all-nil Taxonomy.
type Taxonomy struct {
	Genus  *CropGenus  `json:"genus"`
	Family *CropFamily `json:"family"`
	Order  *CropOrder  `json:"order"`
}

// Crop is the core catalog entity.
type Crop struct {
	ID                string    `json:"id"`
	ScientificName    string    `json:"scientific_name"`
	GenusID           *string   `json:"genus_id"`
	Species           string    `json:"species"`
	CommonName        string    `json:"common_name"`
	IsCropGroup       bool      `json:"is_crop_group"`
	CropGroupInfo     *string   `json:"crop_group_info"`
	Description       *string   `json:"description"`
	Summary           *string   `json:"summary"`
	CultivationStatus *string   `json:"cultivation_status"`
	Origin            *string   `json:"origin"`
	Distribution      *string   `json:"distribution"`
	ImageURL          *string   `json:"image_url"`
	PriorityRank      int       `json:"priority_rank"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CropName is a localized or synonym name for a crop.
type CropName struct {
	ID        string    `json:"id"`
	CropID    string    `json:"crop_id"`
	Name      string    `json:"name"`
	Language  string    `json:"language"`
	IsSynonym bool      `json:"is_synonym"`
	CreatedAt time.Time `json:"created_at"`
}

// CropCategory groups crops; categories are optionally hierarchical.
type CropCategory struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	Description      *string   `json:"description"`
	ParentCategoryID *string   `json:"parent_category_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// CropCharacteristics is the one-to-one attribute record for a crop.
// Nullable columns map to pointers; array columns map to slices that may be
// nil when the store holds NULL.
type CropCharacteristics struct {
	ID     string `json:"id"`
	CropID string `json:"crop_id"`

	// Climate requirements
	ClimateZones          []string `json:"climate_zones"`
	MinTemperature        *float64 `json:"min_temperature"`
	MaxTemperature        *float64 `json:"max_temperature"`
	OptimalTemperatureMin *float64 `json:"optimal_temperature_min"`
	OptimalTemperatureMax *float64 `json:"optimal_temperature_max"`

	// Water requirements
	WaterRequirement *WaterRequirement `json:"water_requirement"`
	DroughtTolerance *Tolerance        `json:"drought_tolerance"`
	FloodTolerance   *Tolerance        `json:"flood_tolerance"`

	// Soil requirements
	SoilTypes []string `json:"soil_types"`
	SoilPHMin *float64 `json:"soil_ph_min"`
	SoilPHMax *float64 `json:"soil_ph_max"`

	// Growing conditions
	SunlightRequirement *SunlightRequirement `json:"sunlight_requirement"`
	AltitudeMin         *float64             `json:"altitude_min"`
	AltitudeMax         *float64             `json:"altitude_max"`

	// Growing period
	GrowingPeriodDays *int     `json:"growing_period_days"`
	PlantingSeasons   []string `json:"planting_season"`

	// Yield and productivity
	AverageYieldPerHectare *float64 `json:"average_yield_per_hectare"`
	YieldVariability       *string  `json:"yield_variability"`

	// Sustainability
	NitrogenFixing     bool    `json:"nitrogen_fixing"`
	ErosionControl     bool    `json:"erosion_control"`
	WaterUseEfficiency *string `json:"water_use_efficiency"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CropUse is a one-to-many use record (food, fiber, medicinal, ...).
type CropUse struct {
	ID                     string          `json:"id"`
	CropID                 string          `json:"crop_id"`
	UseType                CropUseType     `json:"use_type"`
	EdibleParts            []string        `json:"edible_parts"`
	ProcessingRequired     bool            `json:"processing_required"`
	ProcessingMethods      []string        `json:"processing_methods"`
	Importance             *ImportanceTier `json:"importance"`
	GlobalProductionTonnes *float64        `json:"global_production_tonnes"`
	CreatedAt              time.Time       `json:"created_at"`
}

// CropDetail is a crop with all related records resolved.
type CropDetail struct {
	Crop
	Names           []CropName           `json:"names"`
	Categories      []CropCategory       `json:"categories"`
	Characteristics *CropCharacteristics `json:"characteristics"`
	Uses            []CropUse            `json:"uses"`
	Taxonomy        Taxonomy             `json:"taxonomy"`
}

// CropDatabaseStats is a point-in-time snapshot of catalog-wide counts.
// Written wholesale by the stats refresher; readers take the most recent row.
type CropDatabaseStats struct {
	ID              string         `json:"id"`
	TotalCrops      int            `json:"total_crops"`
	TotalCropGroups int            `json:"total_crop_groups"`
	TotalOrders     int            `json:"total_orders"`
	TotalFamilies   int            `json:"total_families"`
	TotalGenera     int            `json:"total_genera"`
	TotalNames      int            `json:"total_names"`
	NamesByLanguage map[string]int `json:"names_by_language"`
	CropsByCategory map[string]int `json:"crops_by_category"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// CropSearchParams carries both store-expressible filters (Query, SortBy,
// SortOrder, Limit, Offset) and post-fetch filters (Categories, ClimateZones,
// WaterRequirement) for the catalog search.
type CropSearchParams struct {
	Query            string
	Categories       []string
	ClimateZones     []string
	WaterRequirement string
	UseTypes         []string
	Language         string
	Limit            int
	Offset           int
	SortBy           string
	SortOrder        string
}

// Valid sort columns for catalog search. Anything else is rejected as
// validation_invalid_sort_field rather than interpolated into SQL.
const (
	SortByName           = "name"
	SortByScientificName = "scientific_name"
	SortByPriorityRank   = "priority_rank"
	SortByCreatedAt      = "created_at"
)

// CropSearchResult is the service-level search result before the HTTP
// pagination envelope is applied.
type CropSearchResult struct {
	Crops  []CropDetail `json:"crops"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// CropTrainingRecord is the flat feature projection of a crop for external
// model consumption. Missing nested data is default-filled: nil slices become
// empty, absent scalars stay nil.
type CropTrainingRecord struct {
	CropID         string `json:"crop_id"`
	CropName       string `json:"crop_name"`
	ScientificName string `json:"scientific_name"`

	// Environmental features
	ClimateZones            []string    `json:"climate_zones"`
	TemperatureRange        [2]*float64 `json:"temperature_range"`
	OptimalTemperatureRange [2]*float64 `json:"optimal_temperature_range"`
	WaterRequirement        *string     `json:"water_requirement"`
	DroughtTolerance        *string     `json:"drought_tolerance"`
	SoilTypes               []string    `json:"soil_types"`
	SoilPHRange             [2]*float64 `json:"soil_ph_range"`

	// Growing features
	SunlightRequirement *string     `json:"sunlight_requirement"`
	AltitudeRange       [2]*float64 `json:"altitude_range"`
	GrowingPeriodDays   *int        `json:"growing_period_days"`
	PlantingSeasons     []string    `json:"planting_seasons"`

	// Sustainability features
	NitrogenFixing     bool    `json:"nitrogen_fixing"`
	ErosionControl     bool    `json:"erosion_control"`
	WaterUseEfficiency *string `json:"water_use_efficiency"`

	// Production features
	AverageYield     *float64 `json:"average_yield"`
	YieldVariability *string  `json:"yield_variability"`
	Importance       *string  `json:"importance"`

	// Classification
	Categories []string `json:"categories"`
	UseTypes   []string `json:"use_types"`
}
