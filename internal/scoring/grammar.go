package scoring

import (
	"fmt"
	"strings"

	"resumescore/internal/features"
	"resumescore/internal/types"
)

// GrammarMax is the ceiling of the grammar/spelling sub-score
const GrammarMax = 100

const grammarBaseline = 80

// ScoreGrammar starts from a baseline and subtracts fixed penalties for
// misspellings, spacing and punctuation issues and poor sentence
// capitalization.
func ScoreGrammar(fs features.FeatureSet) SubScore {
	score := float64(grammarBaseline)
	var feedback []string

	issues := len(fs.Misspellings) + fs.GrammarIssues
	switch {
	case issues == 0:
		feedback = append(feedback, "Excellent grammar and spelling")
	case issues <= 3:
		score -= 10
		feedback = append(feedback, "Minor grammar/spelling issues detected")
	default:
		score -= 25
		feedback = append(feedback, fmt.Sprintf("Multiple grammar/spelling issues found (%d)", issues))
	}
	if len(fs.Misspellings) > 0 {
		fixes := make([]string, 0, len(fs.Misspellings))
		for _, wrong := range fs.Misspellings {
			fixes = append(fixes, fmt.Sprintf("%s → %s", wrong, features.CommonMisspellings[wrong]))
		}
		feedback = append(feedback, "Fix spelling: "+strings.Join(fixes, ", "))
	}

	if fs.AcronymCount > 0 {
		feedback = append(feedback, "Proper use of acronyms")
	}

	if float64(fs.CapitalizationErrors)/float64(max(fs.SentenceCount, 1)) < 0.1 {
		feedback = append(feedback, "Good capitalization")
	} else {
		score -= 10
		feedback = append(feedback, "Check sentence capitalization")
	}

	return newSubScore(types.CategoryGrammar, score, GrammarMax, feedback)
}
