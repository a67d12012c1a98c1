package cli

import (
	"bytes"
	"fmt"

	"resumescore/internal/common"
	"resumescore/internal/errors"
	"resumescore/internal/export"

	"github.com/spf13/cobra"
)

var batchConfig common.CommandConfig

var (
	batchJobFile  string
	batchWorkbook string
)

var batchCmd = &cobra.Command{
	Use:   "batch [resume-files...]",
	Short: "Analyze and rank several resumes",
	Long: `Analyze up to the configured batch limit of resumes and rank them by overall
score. A resume that cannot be read or scored is reported as an error row and
does not stop the batch.

Use --xlsx to also write the ranking as an Excel workbook.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchJobFile, "job-file", "", "Job description file every resume is matched against")
	batchCmd.Flags().StringVar(&batchWorkbook, "xlsx", "", "Write the ranking to this Excel workbook")
	addOutputFlags(batchCmd, &batchConfig)
}

func runBatch(cmd *cobra.Command, args []string) error {
	env, err := newCommandEnv(cmd, nil)
	if err != nil {
		return err
	}
	defer env.Close()

	// Reject oversized batches before reading any file
	if limit := env.services.Analyzer.MaxBatchSize(); len(args) > limit {
		return errors.NewValidationError(errors.ErrCodeBatchTooLarge,
			fmt.Sprintf("Maximum %d files allowed per batch, got %d", limit, len(args)), nil)
	}

	docs, err := env.files.ReadDocuments(args...)
	if err != nil {
		return err
	}
	jobDescription, err := env.files.ReadOptionalText(batchJobFile)
	if err != nil {
		return err
	}

	env.logger.Info("Starting batch analysis",
		"files", len(docs),
		"job_chars", len(jobDescription),
		"output_format", batchConfig.OutputFormat)

	result, err := env.services.Analyzer.Batch(cmd.Context(), docs, jobDescription)
	if err != nil {
		return fmt.Errorf("failed to analyze batch: %w", err)
	}

	if batchWorkbook != "" {
		var buf bytes.Buffer
		if err := export.WriteBatchWorkbook(&buf, *result); err != nil {
			return err
		}
		if err := env.output.HandleBinary(buf.Bytes(), batchWorkbook); err != nil {
			return err
		}
	}

	if err := env.output.HandleOutput(result, batchConfig); err != nil {
		return err
	}
	env.logger.Info("Batch analysis completed successfully",
		"analyzed", result.TotalAnalyzed,
		"failed", result.Failed)
	return nil
}
