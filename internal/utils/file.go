// Package utils holds small file helpers shared by the CLI and the
// document readers.
package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// TextExtensions are the plain text resume and job description extensions
var TextExtensions = []string{".txt", ".text", ".md", ".markdown"}

// ValidateInputFile checks that filename names a readable regular file
func ValidateInputFile(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("file does not exist: %s", filename)
	case err != nil:
		return fmt.Errorf("cannot access file %s: %w", filename, err)
	case info.IsDir():
		return fmt.Errorf("path is a directory, not a file: %s", filename)
	case !info.Mode().IsRegular():
		return fmt.Errorf("not a regular file: %s", filename)
	}

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("cannot read file %s: %w", filename, err)
	}
	return f.Close()
}

// ValidateOutputFile creates the parent directory of filename if needed.
// An empty filename means stdout.
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}
	if info, err := os.Stat(filename); err == nil && info.IsDir() {
		return fmt.Errorf("output path is a directory: %s", filename)
	}

	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	return nil
}

// GetFileExtension returns the file extension in lowercase
func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// IsTextFile reports whether filename has a plain text extension
func IsTextFile(filename string) bool {
	return slices.Contains(TextExtensions, GetFileExtension(filename))
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
