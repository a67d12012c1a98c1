package common

import (
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectError      bool
		expectedError    string
	}{
		{
			name:             "valid format - json",
			format:           "json",
			supportedFormats: []string{"json", "text", "markdown"},
			expectError:      false,
		},
		{
			name:             "valid format - text",
			format:           "text",
			supportedFormats: []string{"json", "text", "markdown"},
			expectError:      false,
		},
		{
			name:             "valid format - markdown",
			format:           "markdown",
			supportedFormats: []string{"json", "text", "markdown"},
			expectError:      false,
		},
		{
			name:             "invalid format - xml",
			format:           "xml",
			supportedFormats: []string{"json", "text", "markdown"},
			expectError:      true,
			expectedError:    "INVALID_FORMAT: unsupported output format 'xml'. Supported formats: [json text markdown]",
		},
		{
			name:             "invalid format - yaml",
			format:           "yaml",
			supportedFormats: []string{"json", "text", "markdown"},
			expectError:      true,
			expectedError:    "INVALID_FORMAT: unsupported output format 'yaml'. Supported formats: [json text markdown]",
		},
		{
			name:             "invalid format - csv",
			format:           "csv",
			supportedFormats: []string{"json", "text", "markdown"},
			expectError:      true,
			expectedError:    "INVALID_FORMAT: unsupported output format 'csv'. Supported formats: [json text markdown]",
		},
		{
			name:             "case sensitive - JSON uppercase",
			format:           "JSON",
			supportedFormats: []string{"json", "text", "markdown"},
			expectError:      true,
			expectedError:    "INVALID_FORMAT: unsupported output format 'JSON'. Supported formats: [json text markdown]",
		},
		{
			name:             "empty format string",
			format:           "",
			supportedFormats: []string{"json", "text", "markdown"},
			expectError:      true,
			expectedError:    "INVALID_FORMAT: unsupported output format ''. Supported formats: [json text markdown]",
		},
		{
			name:             "empty supported formats - should allow all",
			format:           "xml",
			supportedFormats: []string{},
			expectError:      false,
		},
		{
			name:             "single supported format - valid",
			format:           "json",
			supportedFormats: []string{"json"},
			expectError:      false,
		},
		{
			name:             "single supported format - invalid",
			format:           "text",
			supportedFormats: []string{"json"},
			expectError:      true,
			expectedError:    "INVALID_FORMAT: unsupported output format 'text'. Supported formats: [json]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Run validation
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)

			// Check results
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
					return
				}
				if tt.expectedError != "" && err.Error() != tt.expectedError {
					t.Errorf("Expected error '%s', got '%s'", tt.expectedError, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
			}
		})
	}
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		fallback  string
		expected  string
	}{
		{name: "explicit format wins", requested: "markdown", fallback: "json", expected: "markdown"},
		{name: "empty uses fallback", requested: "", fallback: "json", expected: "json"},
		{name: "blank uses fallback", requested: "  ", fallback: "text", expected: "text"},
		{name: "trimmed", requested: " text ", fallback: "json", expected: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveFormat(tt.requested, tt.fallback); got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

// Benchmark tests to ensure validation is fast
func BenchmarkValidateOutputFormat(b *testing.B) {
	supportedFormats := []string{"json", "text", "markdown"}

	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", supportedFormats)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", supportedFormats)
		}
	})
}

func BenchmarkResolveFormat(b *testing.B) {
	for b.Loop() {
		ResolveFormat("", "json")
	}
}
