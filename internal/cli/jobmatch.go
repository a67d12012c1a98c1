package cli

import (
	"resumescore/internal/common"
	"resumescore/internal/errors"

	"github.com/spf13/cobra"
)

var jobMatchConfig common.CommandConfig

var jobMatchCmd = &cobra.Command{
	Use:   "job-match [job-description-file] [resume.json]",
	Short: "Assess how well a structured resume fits a job description",
	Long: `Ask the language model for a match score, missing skills and suggestions.
Without a model, or when it fails, a keyword overlap estimate is returned.`,
	Args: cobra.ExactArgs(2),
	RunE: runJobMatch,
}

func init() {
	addOutputFlags(jobMatchCmd, &jobMatchConfig)
}

func runJobMatch(cmd *cobra.Command, args []string) error {
	env, err := newCommandEnv(cmd, nil)
	if err != nil {
		return err
	}
	defer env.Close()

	jobDescription, err := env.files.ReadOptionalText(args[0])
	if err != nil {
		return err
	}
	if jobDescription == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Job description file is empty", nil)
	}
	resume, err := env.files.ReadResume(args[1])
	if err != nil {
		return err
	}

	result := env.services.Bridge.JobMatch(cmd.Context(), jobDescription, resume)
	env.logger.Info("Job match completed", "score", result.MatchScore, "source", result.Source)
	return env.output.HandleOutput(result, jobMatchConfig)
}
