package ai

import (
	"strings"
	"testing"

	"cropsense/internal/types"
)

func TestExtractRecommendations(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOK    bool
		wantLen   int
		wantFirst string
	}{
		{
			name:      "fenced json with leading prose",
			input:     "Here you go:\n```json\n[{\"name\":\"Rice\",\"scientificName\":\"Oryza sativa\",\"suitability\":95,\"reason\":\"warm\"}]\n```",
			wantOK:    true,
			wantLen:   1,
			wantFirst: "Rice",
		},
		{
			name:      "bare array no prose",
			input:     `[{"name":"Wheat","scientificName":"Triticum aestivum","suitability":90,"reason":"staple"}]`,
			wantOK:    true,
			wantLen:   1,
			wantFirst: "Wheat",
		},
		{
			name:      "prose before and after",
			input:     "Sure! Based on the climate:\n[{\"name\":\"Corn\",\"suitability\":80,\"reason\":\"ok\"}]\nLet me know if you need more.",
			wantOK:    true,
			wantLen:   1,
			wantFirst: "Corn",
		},
		{
			name:    "no bracketed span",
			input:   "I cannot produce recommendations right now.",
			wantOK:  false,
			wantLen: 0,
		},
		{
			name:    "brackets but not valid json",
			input:   "The range is [10, 20) degrees",
			wantOK:  false,
			wantLen: 0,
		},
		{
			name:    "empty array",
			input:   "[]",
			wantOK:  false,
			wantLen: 0,
		},
		{
			name: "more than five entries truncated",
			input: `[{"name":"A","suitability":1},{"name":"B","suitability":2},{"name":"C","suitability":3},` +
				`{"name":"D","suitability":4},{"name":"E","suitability":5},{"name":"F","suitability":6},{"name":"G","suitability":7}]`,
			wantOK:    true,
			wantLen:   5,
			wantFirst: "A",
		},
		{
			name:      "plain fence without language tag",
			input:     "```\n[{\"name\":\"Banana\",\"suitability\":92,\"reason\":\"tropical\"}]\n```",
			wantOK:    true,
			wantLen:   1,
			wantFirst: "Banana",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractRecommendations(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (got %+v)", ok, tt.wantOK, got)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].Name != tt.wantFirst {
				t.Errorf("first entry = %q, want %q", got[0].Name, tt.wantFirst)
			}
		})
	}
}

func TestExtractRecommendationsClampsSuitability(t *testing.T) {
	got, ok := ExtractRecommendations(`[{"name":"X","suitability":150},{"name":"Y","suitability":-10}]`)
	if !ok {
		t.Fatal("extraction failed")
	}
	if got[0].Suitability != 100 {
		t.Errorf("suitability above range = %d, want 100", got[0].Suitability)
	}
	if got[1].Suitability != 0 {
		t.Errorf("suitability below range = %d, want 0", got[1].Suitability)
	}
}

func TestDefaultCrops(t *testing.T) {
	tests := []struct {
		zone      types.ClimateZone
		wantFirst string
		wantScore int
	}{
		{types.ClimateTropical, "Rice", 95},
		{types.ClimateSubtropical, "Orange", 94},
		{types.ClimateTemperate, "Wheat", 95},
		{types.ClimateCoolTemperate, "Orange", 94}, // falls back to subtropical
		{types.ClimateZone("martian"), "Orange", 94},
	}

	for _, tt := range tests {
		t.Run(string(tt.zone), func(t *testing.T) {
			got := DefaultCrops(tt.zone)
			if len(got) != 5 {
				t.Fatalf("len = %d, want 5", len(got))
			}
			if got[0].Name != tt.wantFirst || got[0].Suitability != tt.wantScore {
				t.Errorf("head = %s/%d, want %s/%d", got[0].Name, got[0].Suitability, tt.wantFirst, tt.wantScore)
			}
			for i := 1; i < len(got); i++ {
				if got[i].Suitability > got[i-1].Suitability {
					t.Errorf("table not sorted descending at index %d", i)
				}
			}
		})
	}
}

func TestDefaultCropsReturnsCopy(t *testing.T) {
	first := DefaultCrops(types.ClimateTropical)
	first[0].Name = "mutated"
	second := DefaultCrops(types.ClimateTropical)
	if second[0].Name != "Rice" {
		t.Error("DefaultCrops returned shared backing storage")
	}
}

func TestFallbackChat(t *testing.T) {
	tests := []struct {
		name     string
		question string
		contains string
	}{
		{"greeting", "Hello there", "Crop Advisor"},
		{"rice topic", "how do I grow rice?", "Oryza sativa"},
		{"generic", "what is the meaning of farming", "crop recommendations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackChat(tt.question)
			if got == "" {
				t.Fatal("empty fallback reply")
			}
			if !strings.Contains(strings.ToLower(got), strings.ToLower(tt.contains)) {
				t.Errorf("reply %q does not mention %q", got, tt.contains)
			}
		})
	}
}
