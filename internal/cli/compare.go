package cli

import (
	"fmt"

	"resumescore/internal/common"

	"github.com/spf13/cobra"
)

var compareConfig common.CommandConfig

var compareJobFile string

var compareCmd = &cobra.Command{
	Use:   "compare [resume-1] [resume-2]",
	Short: "Compare two resumes category by category",
	Long: `Analyze two resumes against the same criteria and report the winner overall
and in every scoring category. Scores within one point are a tie.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareJobFile, "job-file", "", "Job description file both resumes are matched against")
	addOutputFlags(compareCmd, &compareConfig)
}

func runCompare(cmd *cobra.Command, args []string) error {
	env, err := newCommandEnv(cmd, nil)
	if err != nil {
		return err
	}
	defer env.Close()

	docs, err := env.files.ReadDocuments(args...)
	if err != nil {
		return err
	}
	jobDescription, err := env.files.ReadOptionalText(compareJobFile)
	if err != nil {
		return err
	}

	env.logger.Info("Starting resume comparison",
		"resume1", args[0],
		"resume2", args[1],
		"output_format", compareConfig.OutputFormat)

	comparison, err := env.services.Analyzer.CompareDocuments(cmd.Context(), docs[0], docs[1], jobDescription)
	if err != nil {
		return fmt.Errorf("failed to compare resumes: %w", err)
	}

	if err := env.output.HandleOutput(comparison, compareConfig); err != nil {
		return err
	}
	env.logger.Info("Resume comparison completed successfully",
		"winner", comparison.Winner.Overall,
		"difference", comparison.OverallDifference)
	return nil
}
