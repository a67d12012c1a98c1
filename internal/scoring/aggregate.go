package scoring

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"strings"

	"resumescore/internal/errors"
	"resumescore/internal/types"
)

// Names of the built-in weight schemes
const (
	SchemeBalanced = "balanced"
	SchemeClassic  = "classic"
)

const weightTolerance = 1e-6

// WeightScheme is a named set of per-category weights summing to 1
type WeightScheme struct {
	Name    string             `json:"name"`
	Weights map[string]float64 `json:"weights"`
}

// Balanced weighs the five categories equally
var Balanced = WeightScheme{
	Name: SchemeBalanced,
	Weights: map[string]float64{
		types.CategoryFormat:    0.2,
		types.CategoryKeywords:  0.2,
		types.CategoryContent:   0.2,
		types.CategoryGrammar:   0.2,
		types.CategoryStructure: 0.2,
	},
}

// Classic only considers format, structure and keywords
var Classic = WeightScheme{
	Name: SchemeClassic,
	Weights: map[string]float64{
		types.CategoryFormat:    0.3,
		types.CategoryKeywords:  0.4,
		types.CategoryStructure: 0.3,
		types.CategoryContent:   0,
		types.CategoryGrammar:   0,
	},
}

var builtinSchemes = map[string]WeightScheme{
	SchemeBalanced: Balanced,
	SchemeClassic:  Classic,
}

// SchemeNames lists the built-in scheme names
func SchemeNames() []string {
	names := make([]string, 0, len(builtinSchemes))
	for name := range builtinSchemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SchemeByName returns a built-in scheme. An empty name selects Balanced.
func SchemeByName(name string) (WeightScheme, error) {
	if name == "" {
		return Balanced, nil
	}
	scheme, ok := builtinSchemes[strings.ToLower(name)]
	if !ok {
		return WeightScheme{}, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown weight scheme %q (available: %s)", name, strings.Join(SchemeNames(), ", ")), nil)
	}
	return scheme, nil
}

// NewWeightScheme validates a custom scheme: only known categories,
// non-negative weights summing to 1.
func NewWeightScheme(name string, weights map[string]float64) (WeightScheme, error) {
	if len(weights) == 0 {
		return WeightScheme{}, errors.NewConfigError(errors.ErrCodeInvalidConfig, "weight scheme has no weights", nil)
	}
	sum := 0.0
	for category, w := range weights {
		if !slices.Contains(types.Categories, category) {
			return WeightScheme{}, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("unknown category %q in weight scheme", category), nil)
		}
		if w < 0 || math.IsNaN(w) {
			return WeightScheme{}, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("weight for %q must be non-negative", category), nil)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return WeightScheme{}, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("weights must sum to 1, got %.4f", sum), nil)
	}
	if name == "" {
		name = "custom"
	}
	return WeightScheme{Name: name, Weights: maps.Clone(weights)}, nil
}

// Level is one row of the qualitative level table
type Level struct {
	Min   float64 `json:"min"`
	Name  string  `json:"name"`
	Color string  `json:"color"`
}

// Levels is ordered from highest to lowest; the first row whose Min is met wins
var Levels = []Level{
	{Min: 90, Name: "Exceptional", Color: "green"},
	{Min: 80, Name: "Excellent", Color: "green"},
	{Min: 70, Name: "Good", Color: "blue"},
	{Min: 60, Name: "Fair", Color: "orange"},
	{Min: math.Inf(-1), Name: "Poor", Color: "red"},
}

// LevelFor maps an overall score to its level
func LevelFor(score float64) Level {
	for _, l := range Levels {
		if score >= l.Min {
			return l
		}
	}
	return Levels[len(Levels)-1]
}

// Result is the aggregated outcome of a set of sub-scores
type Result struct {
	Overall float64
	Level   Level
	// Percentages holds each sub-score as 0-100 keyed by category
	Percentages map[string]float64
	Feedback    map[string][]string
}

// Aggregate combines sub-scores as Σ percent × weight, clamped to [0,100]
// and rounded to one decimal. Categories absent from subscores contribute
// zero.
func Aggregate(subscores []SubScore, scheme WeightScheme) Result {
	res := Result{
		Percentages: make(map[string]float64, len(subscores)),
		Feedback:    make(map[string][]string, len(subscores)),
	}
	total := 0.0
	for _, s := range subscores {
		pct := s.Percent()
		res.Percentages[s.Name] = round(pct, 1)
		res.Feedback[s.Name] = s.Feedback
		total += pct * scheme.Weights[s.Name]
	}
	res.Overall = round(clamp(total, 0, 100), 1)
	res.Level = LevelFor(res.Overall)
	return res
}
