package scoring

import (
	"testing"

	"resumescore/internal/types"
)

func perfect(name string, ceiling float64) SubScore {
	return SubScore{Name: name, Score: ceiling, Max: ceiling, Feedback: []string{"ok"}}
}

func zero(name string, ceiling float64) SubScore {
	return SubScore{Name: name, Score: 0, Max: ceiling, Feedback: []string{"nothing"}}
}

func TestAggregateClassicExtremes(t *testing.T) {
	top := Aggregate([]SubScore{
		perfect(types.CategoryFormat, 100),
		perfect(types.CategoryKeywords, 100),
		perfect(types.CategoryStructure, 100),
	}, Classic)
	if top.Overall != 100 {
		t.Errorf("Overall = %v, want 100", top.Overall)
	}
	if top.Level.Name != "Exceptional" || top.Level.Color != "green" {
		t.Errorf("Level = %+v, want Exceptional/green", top.Level)
	}

	bottom := Aggregate([]SubScore{
		zero(types.CategoryFormat, 100),
		zero(types.CategoryKeywords, 100),
		zero(types.CategoryStructure, 100),
	}, Classic)
	if bottom.Overall != 0 {
		t.Errorf("Overall = %v, want 0", bottom.Overall)
	}
	if bottom.Level.Name != "Poor" || bottom.Level.Color != "red" {
		t.Errorf("Level = %+v, want Poor/red", bottom.Level)
	}
}

func TestAggregateUsesPercentages(t *testing.T) {
	subs := []SubScore{
		perfect(types.CategoryFormat, FormatMax),
		{Name: types.CategoryKeywords, Score: 20, Max: KeywordsMax, Feedback: []string{"x"}},
		zero(types.CategoryContent, ContentMax),
		{Name: types.CategoryGrammar, Score: 80, Max: GrammarMax, Feedback: []string{"x"}},
		{Name: types.CategoryStructure, Score: 70, Max: StructureMax, Feedback: []string{"x"}},
	}
	res := Aggregate(subs, Balanced)

	// (100 + 50 + 0 + 80 + 70) × 0.2
	if res.Overall != 60 {
		t.Errorf("Overall = %v, want 60", res.Overall)
	}
	if res.Level.Name != "Fair" {
		t.Errorf("Level = %s, want Fair", res.Level.Name)
	}
	if res.Percentages[types.CategoryKeywords] != 50 {
		t.Errorf("keywords percentage = %v, want 50", res.Percentages[types.CategoryKeywords])
	}
	if len(res.Feedback) != 5 {
		t.Errorf("expected feedback for 5 categories, got %d", len(res.Feedback))
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score float64
		name  string
		color string
	}{
		{100, "Exceptional", "green"},
		{90, "Exceptional", "green"},
		{89.9, "Excellent", "green"},
		{80, "Excellent", "green"},
		{75, "Good", "blue"},
		{70, "Good", "blue"},
		{65, "Fair", "orange"},
		{60, "Fair", "orange"},
		{59.9, "Poor", "red"},
		{0, "Poor", "red"},
		{-5, "Poor", "red"},
	}
	for _, tt := range tests {
		got := LevelFor(tt.score)
		if got.Name != tt.name || got.Color != tt.color {
			t.Errorf("LevelFor(%v) = %s/%s, want %s/%s", tt.score, got.Name, got.Color, tt.name, tt.color)
		}
	}
}

func TestBuiltinSchemesSumToOne(t *testing.T) {
	for _, name := range SchemeNames() {
		scheme, err := SchemeByName(name)
		if err != nil {
			t.Fatalf("SchemeByName(%q) error = %v", name, err)
		}
		if _, err := NewWeightScheme(scheme.Name, scheme.Weights); err != nil {
			t.Errorf("built-in scheme %q is invalid: %v", name, err)
		}
	}
}

func TestSchemeByName(t *testing.T) {
	if s, err := SchemeByName(""); err != nil || s.Name != SchemeBalanced {
		t.Errorf("empty name should select balanced, got %q (%v)", s.Name, err)
	}
	if s, err := SchemeByName("CLASSIC"); err != nil || s.Name != SchemeClassic {
		t.Errorf("lookup should be case-insensitive, got %q (%v)", s.Name, err)
	}
	if _, err := SchemeByName("heavy"); err == nil {
		t.Error("expected error for unknown scheme")
	}
}

func TestNewWeightScheme(t *testing.T) {
	tests := []struct {
		name    string
		weights map[string]float64
		wantErr bool
	}{
		{"valid", map[string]float64{"format": 0.5, "keywords": 0.5}, false},
		{"rounding tolerance", map[string]float64{"format": 0.1 + 0.2, "keywords": 0.7}, false},
		{"empty", map[string]float64{}, true},
		{"unknown category", map[string]float64{"style": 1}, true},
		{"negative", map[string]float64{"format": 1.5, "keywords": -0.5}, true},
		{"does not sum to one", map[string]float64{"format": 0.5, "keywords": 0.4}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewWeightScheme("", tt.weights)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewWeightScheme() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && s.Name != "custom" {
				t.Errorf("default name = %q, want custom", s.Name)
			}
		})
	}
}
