package cli

import (
	"fmt"
	"strings"

	"resumescore/internal/common"
	"resumescore/internal/optimize"

	"github.com/spf13/cobra"
)

var optimizeConfig common.CommandConfig

var (
	optimizeRender   string
	optimizeDocument string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [resume.json]",
	Short: "Rewrite a structured resume with a language model",
	Long: `Rewrite the experiences, projects, skills and achievements of a JSON resume
with the configured language model, four sections at a time. A section the
model cannot rewrite keeps its original content and is listed under
failed_sections.

Use --document to write the optimized resume rendered with --render.`,
	Args: cobra.ExactArgs(1),
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVar(&optimizeRender, "render", "pdf", "Document format for --document: pdf, html, docx")
	optimizeCmd.Flags().StringVar(&optimizeDocument, "document", "", "Write the rendered optimized resume to this file")
	addOutputFlags(optimizeCmd, &optimizeConfig)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	if !cfg.LLMEnabled() {
		getLoggerFromContext(cmd.Context()).Warn("No language model configured, sections will keep their original content")
	}

	env, err := newCommandEnv(cmd, nil)
	if err != nil {
		return err
	}
	defer env.Close()

	resume, err := env.files.ReadResume(args[0])
	if err != nil {
		return err
	}

	env.logger.Info("Starting resume optimization",
		"file", args[0],
		"profession", resume.TargetProfession,
		"output_format", optimizeConfig.OutputFormat)

	// The document goes to its own file, not into the JSON result
	result, err := env.services.Optimizer.Optimize(cmd.Context(), resume, optimize.Options{SkipRender: true})
	if err != nil {
		return fmt.Errorf("failed to optimize resume: %w", err)
	}

	if optimizeDocument != "" {
		data, _, err := env.services.Renderers.Render(optimizeRender, result.OptimizedData)
		if err != nil {
			return err
		}
		if err := env.output.HandleBinary(data, optimizeDocument); err != nil {
			return err
		}
		result.DocumentFormat = strings.ToLower(optimizeRender)
	}

	if err := env.output.HandleOutput(result, optimizeConfig); err != nil {
		return err
	}
	env.logger.Info("Resume optimization completed",
		"ats_score", result.ATSScore,
		"failed_sections", result.FailedSections)
	return nil
}
