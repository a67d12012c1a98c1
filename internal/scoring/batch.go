package scoring

import (
	"context"
	"slices"

	"resumescore/internal/extract"
	"resumescore/internal/types"
)

// Batch analyzes up to MaxBatchSize documents sequentially. A document that
// fails becomes an entry with an error and a zero score; the batch itself
// only fails on an oversized request. Entries are ordered by overall score,
// highest first, keeping submission order among equal scores.
func (a *Analyzer) Batch(ctx context.Context, docs []extract.Document, jobDescription string) (*types.BatchResult, error) {
	if len(docs) > a.maxBatchSize {
		return nil, batchTooLarge(len(docs), a.maxBatchSize)
	}

	result := &types.BatchResult{
		Results: make([]types.BatchEntry, 0, len(docs)),
	}
	for _, doc := range docs {
		entry := types.BatchEntry{Filename: doc.Filename}
		if err := ctx.Err(); err != nil {
			entry.Error = err.Error()
		} else if report, err := a.AnalyzeDocument(ctx, doc, types.AnalyzeTextInput{JobDescription: jobDescription}); err != nil {
			entry.Error = err.Error()
			if a.logger != nil {
				a.logger.Warn("Batch entry failed", "filename", doc.Filename, "error", err.Error())
			}
		} else {
			entry.Report = report
			entry.OverallScore = report.OverallScore
		}

		if entry.Error != "" {
			result.Failed++
		}
		result.Results = append(result.Results, entry)
	}

	rankBatch(result)
	result.AnalysisTimestamp = a.now().UTC()
	return result, nil
}

// AddFailures appends entries for documents that failed before analysis,
// such as unreadable uploads, and re-ranks the batch
func AddFailures(result *types.BatchResult, failures ...types.BatchEntry) {
	for _, entry := range failures {
		entry.Report = nil
		entry.OverallScore = 0
		result.Results = append(result.Results, entry)
		result.Failed++
	}
	rankBatch(result)
}

func rankBatch(result *types.BatchResult) {
	slices.SortStableFunc(result.Results, func(x, y types.BatchEntry) int {
		switch {
		case x.OverallScore > y.OverallScore:
			return -1
		case x.OverallScore < y.OverallScore:
			return 1
		}
		return 0
	})
	result.TotalAnalyzed = len(result.Results)
}
