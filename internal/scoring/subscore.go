// Package scoring turns a FeatureSet into five bounded sub-scores, combines
// them with a named weight scheme and drives the end-to-end analysis of
// single resumes, pairs and batches.
package scoring

import (
	"math"
)

// SubScore is the bounded result of one calculator
type SubScore struct {
	Name     string   `json:"name"`
	Score    float64  `json:"score"`
	Max      float64  `json:"max"`
	Feedback []string `json:"feedback"`
}

// Percent returns the score as a percentage of its ceiling
func (s SubScore) Percent() float64 {
	if s.Max <= 0 {
		return 0
	}
	return clamp(s.Score/s.Max*100, 0, 100)
}

// newSubScore clamps score into [0, ceiling] and guarantees non-empty feedback
func newSubScore(name string, score, ceiling float64, feedback []string) SubScore {
	if len(feedback) == 0 {
		feedback = []string{"No issues detected"}
	}
	return SubScore{
		Name:     name,
		Score:    round(clamp(score, 0, ceiling), 2),
		Max:      ceiling,
		Feedback: feedback,
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
