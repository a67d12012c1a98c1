package cli

import (
	"context"
	"fmt"

	"resumescore/internal/common"
	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/llm"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "resumescore",
	Short: "Score resumes against applicant tracking system criteria",
	Long: `resumescore extracts text from PDF, DOCX, HTML and plain text resumes and
scores them the way an applicant tracking system would: format, keywords,
content, grammar and structure. It can also compare and rank resumes, look up
profession keywords, optimize structured resumes with a language model and
render them to PDF, HTML or DOCX.`,
	SilenceUsage: true,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// commandEnv bundles what every scoring command needs
type commandEnv struct {
	cfg      *config.Config
	logger   *errors.Logger
	services *common.Services
	files    *common.FileProcessor
	output   *common.OutputHandler
}

// newCommandEnv builds the services for a one-shot command. The caller
// must Close the result.
func newCommandEnv(cmd *cobra.Command, recorder llm.Recorder) (*commandEnv, error) {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	services, err := common.NewServices(ctx, cfg, logger, recorder)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	output := common.NewOutputHandler(logger)
	output.SetOutput(cmd.OutOrStdout())

	return &commandEnv{
		cfg:      cfg,
		logger:   logger,
		services: services,
		files:    common.NewFileProcessor(logger, cfg.App.MaxFileSize),
		output:   output,
	}, nil
}

func (e *commandEnv) Close() {
	e.services.Close()
}

// addOutputFlags registers -o/--output and --format on cmd and resolves the
// format against the configured default before the command runs
func addOutputFlags(cmd *cobra.Command, target *common.CommandConfig) {
	cmd.Flags().StringVarP(&target.OutputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&target.OutputFormat, "format", "", "Output format: json, text, markdown (default from config)")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		target.OutputFormat = common.ResolveFormat(target.OutputFormat, cfg.App.DefaultFormat)
		return common.ValidateOutputFormat(target.OutputFormat, cfg.App.SupportedFormats)
	}

	if err := cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		ctx := cmd.Context()
		if ctx == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		cfg, ok := ctx.Value(configKey).(*config.Config)
		if !ok {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	}); err != nil {
		panic(err)
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(jobMatchCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
