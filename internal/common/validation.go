package common

import (
	"fmt"
	"slices"
	"strings"

	"resumescore/internal/errors"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, supportedFormats), nil)
}

// ResolveFormat returns the requested format, or fallback when none was given
func ResolveFormat(requested, fallback string) string {
	if f := strings.TrimSpace(requested); f != "" {
		return f
	}
	return fallback
}
