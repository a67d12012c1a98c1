package common

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"resumescore/internal/errors"
	"resumescore/internal/extract"
	"resumescore/internal/types"
	"resumescore/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger      *errors.Logger
	maxFileSize int64
}

// NewFileProcessor creates a new file processor instance. maxFileSize <= 0
// disables the size check.
func NewFileProcessor(logger *errors.Logger, maxFileSize int64) *FileProcessor {
	return &FileProcessor{logger: logger, maxFileSize: maxFileSize}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			// Log the error but don't override the main operation result
			if fp.logger != nil {
				fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
			}
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return string(content), nil
}

// ReadOptionalText returns "" for an empty path, otherwise the file content.
// Job descriptions are read this way.
func (fp *FileProcessor) ReadOptionalText(filename string) (string, error) {
	if filename == "" {
		return "", nil
	}
	if err := utils.ValidateInputFile(filename); err != nil {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Invalid file %s", filename), err)
	}
	if !utils.IsTextFile(filename) && fp.logger != nil {
		fp.logger.Warn("File may not be a text file", "filename", filename)
	}
	content, err := fp.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// ReadDocuments loads resume documents for extraction, enforcing the size limit
func (fp *FileProcessor) ReadDocuments(filenames ...string) ([]extract.Document, error) {
	docs := make([]extract.Document, 0, len(filenames))
	for _, filename := range filenames {
		doc, err := extract.ReadDocument(filename)
		if err != nil {
			return nil, err
		}
		if fp.maxFileSize > 0 && int64(len(doc.Data)) > fp.maxFileSize {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("File %s is %s, larger than the %s limit", filename,
					utils.FormatFileSize(int64(len(doc.Data))), utils.FormatFileSize(fp.maxFileSize)), nil)
		}
		if fp.logger != nil {
			fp.logger.Debug("Document loaded", "filename", doc.Filename,
				"size", utils.FormatFileSize(int64(len(doc.Data))))
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ReadResume decodes a structured resume from a JSON file
func (fp *FileProcessor) ReadResume(filename string) (types.Resume, error) {
	content, err := fp.ReadFile(filename)
	if err != nil {
		return types.Resume{}, err
	}
	var resume types.Resume
	if err := json.Unmarshal([]byte(content), &resume); err != nil {
		return types.Resume{}, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("File %s is not a valid resume JSON document", filename), err)
	}
	return resume, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename string, content []byte) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, content, 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
