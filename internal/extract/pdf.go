package extract

import (
	"bytes"
	"fmt"
	"strings"

	"resumescore/internal/errors"

	"github.com/ledongthuc/pdf"
)

// extractPDF reads the text of every page, skipping null pages and pages
// whose content cannot be decoded
func extractPDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewValidationError(errors.ErrCodeExtractionFailed,
				"Could not read PDF file", fmt.Errorf("pdf reader: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeExtractionFailed, "Could not read PDF file", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
