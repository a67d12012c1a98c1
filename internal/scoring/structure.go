package scoring

import (
	"fmt"

	"resumescore/internal/features"
	"resumescore/internal/types"
)

// StructureMax is the ceiling of the structure/completeness sub-score
const StructureMax = 100

var (
	requiredSections = []string{
		features.SectionContact,
		features.SectionExperience,
		features.SectionEducation,
		features.SectionSkills,
	}
	optionalSections = []string{
		features.SectionSummary,
		features.SectionCertifications,
		features.SectionProjects,
		features.SectionAchievements,
	}
)

// ScoreStructure rates completeness: required sections up to 50, optional
// sections 8 each up to 30, and 20 for at least three clear headers.
func ScoreStructure(fs features.FeatureSet) SubScore {
	var feedback []string

	required := fs.SectionCount(requiredSections...)
	score := float64(required) / float64(len(requiredSections)) * 50
	if required == len(requiredSections) {
		feedback = append(feedback, "All required sections present")
	} else {
		missing := make([]string, 0, len(requiredSections)-required)
		for _, s := range requiredSections {
			if !fs.Sections[s] {
				missing = append(missing, s)
			}
		}
		feedback = append(feedback, fmt.Sprintf("Missing %d required section(s): %v", len(missing), missing))
	}

	optional := fs.SectionCount(optionalSections...)
	score += min(float64(optional)*8, 30)
	if optional >= 2 {
		feedback = append(feedback, "Good section variety")
	}

	if fs.HeaderLines >= 3 {
		score += 20
		feedback = append(feedback, "Clear section organization")
	} else {
		feedback = append(feedback, "Add clear section headers")
	}

	return newSubScore(types.CategoryStructure, score, StructureMax, feedback)
}
