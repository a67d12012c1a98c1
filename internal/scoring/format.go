package scoring

import (
	"fmt"
	"path/filepath"
	"strings"

	"resumescore/internal/features"
	"resumescore/internal/types"
)

// FormatMax is the ceiling of the format/ATS compatibility sub-score
const FormatMax = 30

// ScoreFormat rates how easily an ATS can parse the resume: standard section
// words, bullets, dates, length band and contact details. When filename is
// known, formats other than PDF and DOCX draw a warning without affecting
// the score.
func ScoreFormat(fs features.FeatureSet, filename string) SubScore {
	var feedback []string

	found := len(fs.FormatSections)
	sectionScore := float64(found) / float64(len(features.FormatSectionWords)) * 10
	if found >= 3 {
		feedback = append(feedback, fmt.Sprintf("Good section structure (%d of %d standard sections)", found, len(features.FormatSectionWords)))
	} else {
		feedback = append(feedback, "Missing standard sections such as Experience, Education and Skills")
	}

	bulletScore := 0.0
	if fs.HasBullets {
		bulletScore = 5
		feedback = append(feedback, "Bullet points make achievements easy to scan")
	} else {
		feedback = append(feedback, "Use bullet points to list responsibilities and achievements")
	}

	dateScore := 0.0
	if fs.DateCount > 0 {
		dateScore = 5
	} else {
		feedback = append(feedback, "Add dates to experience and education entries")
	}

	var lengthScore float64
	switch {
	case fs.WordCount >= 300 && fs.WordCount <= 1200:
		lengthScore = 5
		feedback = append(feedback, "Resume length is within the optimal range")
	case fs.WordCount >= 200 && fs.WordCount <= 1500:
		lengthScore = 3
		feedback = append(feedback, fmt.Sprintf("Resume length (%d words) is acceptable but not optimal", fs.WordCount))
	case fs.WordCount < 200:
		feedback = append(feedback, fmt.Sprintf("Resume is too short (%d words); add more detail", fs.WordCount))
	default:
		feedback = append(feedback, fmt.Sprintf("Resume is too long (%d words); consider condensing", fs.WordCount))
	}

	contactScore := 0.0
	if fs.HasEmail || fs.HasPhone || fs.HasProfileURL {
		contactScore = 5
		if fs.HasEmail && fs.HasPhone {
			feedback = append(feedback, "Complete contact information")
		} else {
			feedback = append(feedback, "Ensure both email and phone number are included")
		}
	} else {
		feedback = append(feedback, "No contact information detected")
	}

	if filename != "" && !atsFriendlyFile(filename) {
		feedback = append(feedback, "Consider submitting a PDF or DOCX file for best ATS compatibility")
	}

	return newSubScore(types.CategoryFormat, sectionScore+bulletScore+dateScore+lengthScore+contactScore, FormatMax, feedback)
}

func atsFriendlyFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".docx":
		return true
	}
	return false
}
