// Package recommend scores a fixed set of field crops against observed
// weather with a deterministic heuristic. It is the answer of last resort on
// the recommendation path and the whole answer on the scoring endpoint, so it
// must work with nothing but the numbers it is handed.
package recommend

import (
	"math"
	"math/rand/v2"
	"sort"

	"cropsense/internal/types"
)

// ScoringInput is the weather slice the scorer consumes. Absent readings are
// zero, which the formulas tolerate.
type ScoringInput struct {
	Temperature   float64
	Precipitation float64
	Humidity      float64
	WindSpeed     float64
}

type tempRange struct {
	min, max, optimal float64
}

type precipRange struct {
	min, max float64
}

// The five crop kinds the scorer knows, with their comfort ranges. The order
// here is the pre-sort emission order.
var cropKinds = []string{"Wheat", "Rice", "Corn", "Soybeans", "Potatoes"}

var tempRanges = map[string]tempRange{
	"Wheat":    {10, 25, 18},
	"Rice":     {20, 35, 28},
	"Corn":     {15, 30, 22},
	"Soybeans": {18, 30, 24},
	"Potatoes": {10, 25, 18},
}

var precipRanges = map[string]precipRange{
	"Wheat":    {30, 80},
	"Rice":     {100, 200},
	"Corn":     {50, 100},
	"Soybeans": {40, 90},
	"Potatoes": {50, 100},
}

// Scorer produces scored crop recommendations. The rand source is injectable
// so tests can pin the yield perturbation.
type Scorer struct {
	randFloat func() float64
}

// NewScorer creates a Scorer using the shared PRNG.
func NewScorer() *Scorer {
	return &Scorer{randFloat: rand.Float64}
}

// NewScorerWithRand creates a Scorer with a caller-supplied uniform [0,1)
// source.
func NewScorerWithRand(randFloat func() float64) *Scorer {
	return &Scorer{randFloat: randFloat}
}

// Score rates every known crop kind against the input and returns the list
// sorted by suitability descending. Suitability is deterministic; the yield
// index carries a random perturbation in [0,10) and only its [0,100] bounds
// are stable.
func (s *Scorer) Score(input ScoringInput) []types.ScoredCrop {
	crops := make([]types.ScoredCrop, 0, len(cropKinds))
	for _, kind := range cropKinds {
		suitability := suitabilityFor(input, kind)
		crops = append(crops, types.ScoredCrop{
			CropName:           kind,
			Suitability:        suitability,
			ExpectedYieldIndex: s.yieldIndex(suitability),
			SustainabilityTag:  sustainabilityTag(input, kind),
			Reasons:            reasonsFor(input),
		})
	}

	sort.SliceStable(crops, func(i, j int) bool {
		return crops[i].Suitability > crops[j].Suitability
	})
	return crops
}

// suitabilityFor implements the fixed-formula score: start at 50, average in
// a temperature term, add or subtract a precipitation term, add a humidity
// bonus, then clamp to [0,100] and round.
func suitabilityFor(input ScoringInput, kind string) int {
	score := 50.0

	if r, ok := tempRanges[kind]; ok {
		tempScore := math.Max(0, 100-math.Abs(input.Temperature-r.optimal)*5)
		score = (score + tempScore) / 2
	}

	if r, ok := precipRanges[kind]; ok {
		if input.Precipitation >= r.min && input.Precipitation <= r.max {
			score += 20
		} else {
			score -= math.Abs(input.Precipitation-(r.min+r.max)/2) / 5
		}
	}

	if input.Humidity >= 40 && input.Humidity <= 80 {
		score += 10
	}

	return int(math.Round(math.Max(0, math.Min(100, score))))
}

func (s *Scorer) yieldIndex(suitability int) int {
	idx := int(math.Round(float64(suitability)*0.9 + s.randFloat()*10))
	if idx < 0 {
		return 0
	}
	if idx > 100 {
		return 100
	}
	return idx
}

// sustainabilityTag assigns the fixed per-crop tag. Rice is the only kind
// whose tag depends on the input: High when rainfall exceeds 100mm, Medium
// otherwise.
func sustainabilityTag(input ScoringInput, kind string) string {
	switch kind {
	case "Wheat", "Soybeans":
		return "High"
	case "Rice":
		if input.Precipitation > 100 {
			return "High"
		}
		return "Medium"
	default:
		return "Medium"
	}
}

// reasonsFor tests each input dimension against its comfort band and collects
// a reason per satisfied one. The bands are shared across crop kinds.
func reasonsFor(input ScoringInput) []string {
	var reasons []string

	if input.Temperature >= 15 && input.Temperature <= 30 {
		reasons = append(reasons, "Optimal temperature range")
	}
	if input.Precipitation >= 40 && input.Precipitation <= 100 {
		reasons = append(reasons, "Adequate precipitation")
	}
	if input.Humidity >= 40 && input.Humidity <= 70 {
		reasons = append(reasons, "Suitable humidity levels")
	}
	if input.WindSpeed < 20 {
		reasons = append(reasons, "Low wind stress")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Moderate growing conditions")
	}
	return reasons
}
