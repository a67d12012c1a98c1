package common

import (
	"fmt"
	"io"
	"os"

	"resumescore/internal/errors"
	"resumescore/internal/formatters"
	"resumescore/internal/utils"
)

// CommandConfig holds common configuration for commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler handles formatting and writing output
type OutputHandler struct {
	fileProcessor *FileProcessor
	registry      *formatters.FormatterRegistry
	logger        *errors.Logger
	stdout        io.Writer
}

// NewOutputHandler creates a new output handler
func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return &OutputHandler{
		fileProcessor: NewFileProcessor(logger, 0),
		registry:      formatters.GlobalRegistry,
		logger:        logger,
		stdout:        os.Stdout,
	}
}

// SetOutput redirects stdout writes, mainly for tests
func (oh *OutputHandler) SetOutput(w io.Writer) {
	oh.stdout = w
}

// HandleOutput formats data and writes it to the specified output
func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	// Validate output file
	if err := oh.fileProcessor.ValidateOutputFile(config.OutputFile); err != nil {
		return err
	}

	// Format output using the registry
	output, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}

	if config.OutputFile != "" {
		if err := oh.fileProcessor.WriteFile(config.OutputFile, []byte(output)); err != nil {
			return err
		}
		if oh.logger != nil {
			oh.logger.Info("Output written successfully",
				"file", config.OutputFile, "format", config.OutputFormat)
		}
		return nil
	}

	_, err = fmt.Fprint(oh.stdout, output)
	return err
}

// HandleBinary writes rendered bytes to outputFile. Binary documents are
// never written to a terminal, so an output file is required.
func (oh *OutputHandler) HandleBinary(data []byte, outputFile string) error {
	if outputFile == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"an output file is required for binary output", nil)
	}
	if err := oh.fileProcessor.ValidateOutputFile(outputFile); err != nil {
		return err
	}
	if err := oh.fileProcessor.WriteFile(outputFile, data); err != nil {
		return err
	}
	if oh.logger != nil {
		oh.logger.Info("Output written successfully",
			"file", outputFile, "size", utils.FormatFileSize(int64(len(data))))
	}
	return nil
}

// GetSupportedFormats returns all supported output formats
func (oh *OutputHandler) GetSupportedFormats() []string {
	return oh.registry.GetSupportedFormats()
}
