package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(file, []byte("Jane Doe"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"readable file", file, false},
		{"empty name", " ", true},
		{"missing file", filepath.Join(dir, "missing.pdf"), true},
		{"directory", dir, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputFile(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInputFile(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOutputFileCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "reports", "2024", "report.json")

	if err := ValidateOutputFile(out); err != nil {
		t.Fatalf("ValidateOutputFile: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(out)); err != nil || !info.IsDir() {
		t.Errorf("parent directory was not created: %v", err)
	}
	if err := ValidateOutputFile(dir); err == nil {
		t.Error("a directory is not a valid output file")
	}
	if err := ValidateOutputFile(""); err != nil {
		t.Errorf("stdout should be valid: %v", err)
	}
}

func TestIsTextFile(t *testing.T) {
	for name, want := range map[string]bool{
		"resume.TXT":  true,
		"notes.md":    true,
		"resume.pdf":  false,
		"resume.docx": false,
		"Makefile":    false,
	} {
		if got := IsTextFile(name); got != want {
			t.Errorf("IsTextFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		512:              "512 B",
		2048:             "2.0 KB",
		10 * 1024 * 1024: "10.0 MB",
	}
	for size, want := range tests {
		if got := FormatFileSize(size); got != want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", size, got, want)
		}
	}
}
