// Package extract converts uploaded resume documents (PDF, DOCX, HTML and
// plain text) into plain text.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"resumescore/internal/errors"
	"resumescore/internal/utils"

	"github.com/unidoc/unioffice/common/license"
)

// Format is the declared or detected type of a document
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// DefaultMinTextLength is the shortest trimmed text accepted for analysis
const DefaultMinTextLength = 50

var extensionFormats = map[string]Format{
	".pdf":      FormatPDF,
	".docx":     FormatDOCX,
	".txt":      FormatText,
	".text":     FormatText,
	".md":       FormatText,
	".markdown": FormatText,
	".html":     FormatHTML,
	".htm":      FormatHTML,
}

// SupportedExtensions lists every accepted file extension
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionFormats))
	for ext := range extensionFormats {
		exts = append(exts, ext)
	}
	return exts
}

// Document is an uploaded resume awaiting extraction
type Document struct {
	Filename string
	Data     []byte
	// Format overrides extension-based detection when set
	Format Format
}

// DetectFormat resolves the document format from the declared format or the
// filename extension.
func DetectFormat(filename string, declared Format) (Format, error) {
	if declared != "" {
		switch declared {
		case FormatPDF, FormatDOCX, FormatText, FormatHTML:
			return declared, nil
		}
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("Unsupported format %q. Supported formats: pdf, docx, html, text", declared), nil)
	}
	ext := utils.GetFileExtension(filename)
	if f, ok := extensionFormats[ext]; ok {
		return f, nil
	}
	return "", errors.NewValidationError(errors.ErrCodeUnsupportedFormat,
		fmt.Sprintf("Unsupported file type %q for %s. Please upload PDF, DOCX, HTML or TXT files", ext, filepath.Base(filename)), nil)
}

// Config holds extractor settings
type Config struct {
	MinTextLength    int
	UnidocLicenseKey string
}

// Extractor turns documents into validated plain text
type Extractor struct {
	minTextLength int
	logger        *errors.Logger
}

// New creates an Extractor. A unidoc metered license key, when given, is
// registered so DOCX handling goes through unioffice.
func New(cfg Config, logger *errors.Logger) (*Extractor, error) {
	if cfg.UnidocLicenseKey != "" {
		if err := license.SetMeteredKey(cfg.UnidocLicenseKey); err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Invalid unidoc license key", err)
		}
	}
	minLen := cfg.MinTextLength
	if minLen <= 0 {
		minLen = DefaultMinTextLength
	}
	return &Extractor{minTextLength: minLen, logger: logger}, nil
}

// MinTextLength returns the configured minimum text length
func (e *Extractor) MinTextLength() int {
	return e.minTextLength
}

// Extract returns the text of doc. Empty data, unsupported formats and text
// shorter than the minimum length are validation errors.
func (e *Extractor) Extract(ctx context.Context, doc Document) (string, error) {
	if len(doc.Data) == 0 {
		return "", errors.NewValidationError(errors.ErrCodeEmptyDocument,
			fmt.Sprintf("Document %s is empty", displayName(doc.Filename)), nil)
	}
	format, err := DetectFormat(doc.Filename, doc.Format)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var text string
	switch format {
	case FormatPDF:
		text, err = extractPDF(doc.Data)
	case FormatDOCX:
		text, err = extractDOCX(doc.Data, e.logger)
	case FormatHTML:
		text, err = extractHTML(doc.Data)
	default:
		text, err = extractPlain(doc.Data)
	}
	if err != nil {
		return "", err
	}

	if e.logger != nil {
		e.logger.Debug("Extracted document text",
			"filename", doc.Filename,
			"format", string(format),
			"bytes", len(doc.Data),
			"chars", utf8.RuneCountInString(text))
	}

	if err := ValidateText(text, e.minTextLength); err != nil {
		return "", err
	}
	return text, nil
}

// ExtractFile reads path and extracts its text
func (e *Extractor) ExtractFile(ctx context.Context, path string) (string, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return "", err
	}
	return e.Extract(ctx, doc)
}

// ReadDocument loads a file from disk into a Document
func ReadDocument(path string) (Document, error) {
	if err := utils.ValidateInputFile(path); err != nil {
		return Document{}, errors.NewIOError(errors.ErrCodeFileNotFound, err.Error(), err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", path), err)
	}
	return Document{Filename: filepath.Base(path), Data: data}, nil
}

// ValidateText rejects text whose trimmed length is below minLength
func ValidateText(text string, minLength int) error {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minLength {
		return errors.NewValidationError(errors.ErrCodeContentTooShort,
			fmt.Sprintf("Resume content is too short or could not be extracted properly (minimum %d characters)", minLength), nil)
	}
	return nil
}

func extractPlain(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return strings.ToValidUTF8(string(data), ""), nil
	}
	return string(data), nil
}

func displayName(filename string) string {
	if filename == "" {
		return "(unnamed)"
	}
	return filename
}
