package scoring

import (
	"fmt"
	"strings"

	"resumescore/internal/features"
	"resumescore/internal/types"
)

// KeywordsMax is the ceiling of the keyword alignment sub-score
const KeywordsMax = 40

// NeutralKeywordScore is awarded when there is nothing to match against
const NeutralKeywordScore = KeywordsMax / 2

// KeywordMatch records which target keywords were found in the resume
type KeywordMatch struct {
	Found   []string
	Missing []string
}

// ScoreKeywords rates the fraction of target keywords present in the resume
// as min(40, found/total × 100). No targets yields the neutral score.
func ScoreKeywords(fs features.FeatureSet, targets []string) (SubScore, KeywordMatch) {
	targets = dedupe(targets)
	if len(targets) == 0 {
		feedback := []string{"No job description or keywords supplied; keyword alignment was not assessed"}
		if industry, hits := fs.DominantIndustry(); hits > 3 {
			feedback = append(feedback, fmt.Sprintf("Strong %s keyword presence", industry))
		} else if hits > 1 {
			feedback = append(feedback, fmt.Sprintf("Some %s keywords found; add more industry-specific terms", industry))
		}
		return newSubScore(types.CategoryKeywords, NeutralKeywordScore, KeywordsMax, feedback), KeywordMatch{}
	}

	var match KeywordMatch
	for _, kw := range targets {
		if fs.Contains(kw) {
			match.Found = append(match.Found, kw)
		} else {
			match.Missing = append(match.Missing, kw)
		}
	}

	ratio := float64(len(match.Found)) / float64(len(targets))
	var feedback []string
	switch {
	case ratio >= 0.7:
		feedback = append(feedback, fmt.Sprintf("Strong keyword alignment: %d of %d target keywords found", len(match.Found), len(targets)))
	case ratio >= 0.4:
		feedback = append(feedback, fmt.Sprintf("Moderate keyword alignment: %d of %d target keywords found", len(match.Found), len(targets)))
	default:
		feedback = append(feedback, fmt.Sprintf("Low keyword alignment: only %d of %d target keywords found", len(match.Found), len(targets)))
	}
	if len(match.Missing) > 0 {
		feedback = append(feedback, "Consider adding: "+strings.Join(match.Missing[:min(5, len(match.Missing))], ", "))
	}
	if fs.MaxTermRatio > 0.1 && len(fs.Tokens) > 50 {
		feedback = append(feedback, "Avoid keyword stuffing; one term dominates the text")
	}

	return newSubScore(types.CategoryKeywords, min(KeywordsMax, ratio*100), KeywordsMax, feedback), match
}

// dedupe drops blanks and case-insensitive duplicates, keeping first spelling
func dedupe(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	var out []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		key := strings.ToLower(kw)
		if kw == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, kw)
	}
	return out
}
