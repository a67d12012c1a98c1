package cli

import (
	"fmt"
	"strings"

	"resumescore/internal/common"
	"resumescore/internal/types"

	"github.com/spf13/cobra"
)

var analyzeConfig common.CommandConfig

var (
	analyzeJobFile    string
	analyzeKeywords   []string
	analyzeProfession string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file]",
	Short: "Score a resume for ATS compatibility",
	Long: `Extract the text of a resume and score it on format, keywords, content,
grammar and structure.

Keywords are taken from --keywords, then from the job description given with
--job-file, then from the taxonomy of --profession.

Supported resume files: .pdf, .docx, .html, .txt, .md`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeJobFile, "job-file", "", "Job description file to match keywords against")
	analyzeCmd.Flags().StringSliceVar(&analyzeKeywords, "keywords", nil, "Comma separated keywords to look for")
	analyzeCmd.Flags().StringVar(&analyzeProfession, "profession", "", "Profession whose keyword taxonomy is used")
	addOutputFlags(analyzeCmd, &analyzeConfig)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	env, err := newCommandEnv(cmd, nil)
	if err != nil {
		return err
	}
	defer env.Close()

	docs, err := env.files.ReadDocuments(args[0])
	if err != nil {
		return err
	}
	jobDescription, err := env.files.ReadOptionalText(analyzeJobFile)
	if err != nil {
		return err
	}

	in := types.AnalyzeTextInput{
		JobDescription: jobDescription,
		Keywords:       analyzeKeywords,
		Profession:     strings.TrimSpace(analyzeProfession),
	}

	env.logger.Info("Starting resume analysis",
		"file", args[0],
		"job_chars", len(jobDescription),
		"keywords", len(in.Keywords),
		"profession", in.Profession,
		"output_format", analyzeConfig.OutputFormat)

	report, err := env.services.Analyzer.AnalyzeDocument(cmd.Context(), docs[0], in)
	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}

	if err := env.output.HandleOutput(report, analyzeConfig); err != nil {
		return err
	}
	env.logger.Info("Resume analysis completed successfully",
		"score", report.OverallScore,
		"level", report.ScoreLevel)
	return nil
}
