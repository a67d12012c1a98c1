package scoring

import (
	"fmt"

	"resumescore/internal/features"
	"resumescore/internal/types"
)

// ContentMax is the ceiling of the content/achievements sub-score
const ContentMax = 30

// ScoreContent rewards quantified results, achievement verbs and, when a
// profession supplies them, experience terms. Each part is capped at 10. An
// empty experienceTerms list contributes nothing.
func ScoreContent(fs features.FeatureSet, experienceTerms []string) SubScore {
	var feedback []string

	numberScore := min(10, float64(fs.QuantifiedCount)*2)
	switch {
	case fs.QuantifiedCount >= 5:
		feedback = append(feedback, "Excellent use of metrics and quantified results")
	case fs.QuantifiedCount > 0:
		feedback = append(feedback, "Some quantifiable achievements; add more numbers, percentages or amounts")
	default:
		feedback = append(feedback, "Add quantifiable results such as percentages, revenue or team size")
	}

	verbs := len(fs.AchievementVerbHits)
	verbScore := min(10, float64(verbs)/float64(len(features.AchievementVerbs))*10)
	switch {
	case verbs >= 5:
		feedback = append(feedback, "Strong use of action verbs")
	case verbs > 0:
		feedback = append(feedback, fmt.Sprintf("Uses %d achievement verbs; vary and strengthen them", verbs))
	default:
		feedback = append(feedback, "Start bullet points with achievement verbs such as led, delivered or improved")
	}

	terms := dedupe(experienceTerms)
	matched := 0
	for _, term := range terms {
		if fs.Contains(term) {
			matched++
		}
	}
	termScore := min(10, float64(matched)/float64(max(1, len(terms)))*10)
	if len(terms) > 0 {
		feedback = append(feedback, fmt.Sprintf("Covers %d of %d experience terms expected for the role", matched, len(terms)))
	}

	if fs.InformalWords > 0 {
		feedback = append(feedback, "Use more formal language")
	}

	return newSubScore(types.CategoryContent, numberScore+verbScore+termScore, ContentMax, feedback)
}
