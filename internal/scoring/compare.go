package scoring

import (
	"context"
	"math"
	"time"

	"resumescore/internal/extract"
	"resumescore/internal/types"
)

// Tie is reported as the winner when both resumes score the same
const Tie = "tie"

// Compare analyzes two resume texts and reports the winners
func (a *Analyzer) Compare(ctx context.Context, first, second types.AnalyzeTextInput) (*types.Comparison, error) {
	r1, err := a.Analyze(ctx, first)
	if err != nil {
		return nil, err
	}
	r2, err := a.Analyze(ctx, second)
	if err != nil {
		return nil, err
	}
	cmp := CompareReports(r1, r2, a.now())
	return &cmp, nil
}

// CompareDocuments extracts and compares two documents against the same job
// description
func (a *Analyzer) CompareDocuments(ctx context.Context, first, second extract.Document, jobDescription string) (*types.Comparison, error) {
	r1, err := a.AnalyzeDocument(ctx, first, types.AnalyzeTextInput{JobDescription: jobDescription})
	if err != nil {
		return nil, err
	}
	r2, err := a.AnalyzeDocument(ctx, second, types.AnalyzeTextInput{JobDescription: jobDescription})
	if err != nil {
		return nil, err
	}
	cmp := CompareReports(r1, r2, a.now())
	return &cmp, nil
}

// CompareReports builds a side-by-side comparison of two reports. Winners
// are named by filename, falling back to resume1 and resume2.
func CompareReports(r1, r2 *types.AnalysisReport, at time.Time) types.Comparison {
	name1, name2 := r1.Filename, r2.Filename
	if name1 == "" {
		name1 = "resume1"
	}
	if name2 == "" {
		name2 = "resume2"
	}
	if name1 == name2 {
		name1, name2 = name1+" (1)", name2+" (2)"
	}

	pick := func(s1, s2 float64) string {
		switch {
		case s1 > s2:
			return name1
		case s2 > s1:
			return name2
		}
		return Tie
	}

	cmp := types.Comparison{
		Resume1: types.ComparedResume{Filename: name1, Analysis: r1},
		Resume2: types.ComparedResume{Filename: name2, Analysis: r2},
		Winner: types.ComparisonWinner{
			Overall:    pick(r1.OverallScore, r2.OverallScore),
			Categories: make(map[string]string, len(types.Categories)),
		},
		ScoreDifferences:    make(map[string]float64, len(types.Categories)),
		OverallDifference:   round(math.Abs(r1.OverallScore-r2.OverallScore), 1),
		ComparisonTimestamp: at.UTC(),
	}
	for _, category := range types.Categories {
		s1, s2 := r1.DetailedScores[category], r2.DetailedScores[category]
		cmp.Winner.Categories[category] = pick(s1, s2)
		cmp.ScoreDifferences[category] = round(math.Abs(s1-s2), 1)
	}
	return cmp
}
