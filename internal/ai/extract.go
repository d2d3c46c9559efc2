package ai

import (
	"strings"

	json "github.com/goccy/go-json"

	"cropsense/internal/types"
)

// maxRecommendations caps how many entries survive extraction.
const maxRecommendations = 5

// ExtractRecommendations pulls a recommendation array out of free-form model
// output. Models ignore "JSON only" instructions often enough that the reply
// must be treated as prose with an array buried in it: markdown code fences
// are stripped, then the span from the first '[' to the last ']' is parsed.
// At most five entries are kept. The second return value is false when no
// parsable array exists; the caller then substitutes the static table.
func ExtractRecommendations(text string) ([]types.CropRecommendation, bool) {
	cleaned := stripCodeFences(text)

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end <= start {
		return nil, false
	}

	var recs []types.CropRecommendation
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &recs); err != nil {
		return nil, false
	}
	if len(recs) == 0 {
		return nil, false
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}

	for i := range recs {
		recs[i].Suitability = clampScore(recs[i].Suitability)
	}

	return recs, true
}

// stripCodeFences removes ``` fence lines (with or without a language tag)
// while keeping the fenced content.
func stripCodeFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
