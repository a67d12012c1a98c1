package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()

	insightsContent := "List three fixes for this resume:\n%[1]s"
	insightsFile := filepath.Join(tempDir, "insights.md")
	if err := os.WriteFile(insightsFile, []byte(insightsContent+"\n\n"), 0600); err != nil {
		t.Fatalf("Failed to create test prompt file: %v", err)
	}

	config := &Config{
		AI: AIConfig{
			Prompts: PromptConfig{
				InsightsFile: insightsFile,
				Insights:     "inline insights prompt",
				JobMatch:     "inline job match prompt",
			},
		},
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	if got := config.AI.Prompts.Template(PromptInsights); got != insightsContent {
		t.Errorf("Expected file content to win over inline value, got %q", got)
	}
	if got := config.AI.Prompts.Template(PromptJobMatch); got != "inline job match prompt" {
		t.Errorf("Expected inline prompt, got %q", got)
	}
	if got := config.AI.Prompts.Template(PromptATSScore); got != "" {
		t.Errorf("Expected empty template for unconfigured operation, got %q", got)
	}

	// File paths stay in place after loading
	if config.AI.Prompts.InsightsFile != insightsFile {
		t.Error("Expected prompt file path to be preserved")
	}
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()

	validFile := filepath.Join(tempDir, "valid.md")
	if err := os.WriteFile(validFile, []byte("Valid content"), 0600); err != nil {
		t.Fatalf("Failed to create valid test file: %v", err)
	}

	config := &Config{
		AI: AIConfig{
			Prompts: PromptConfig{OptimizeSectionFile: validFile},
		},
	}

	if err := config.validatePromptFiles(); err != nil {
		t.Errorf("Expected validation to pass for valid file, got error: %v", err)
	}

	config.AI.Prompts.ATSScoreFile = filepath.Join(tempDir, "nonexistent.md")
	if err := config.validatePromptFiles(); err == nil {
		t.Error("Expected validation to fail for non-existent file")
	}
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()

	content := "Test prompt content"
	testFile := filepath.Join(tempDir, "test.md")
	if err := os.WriteFile(testFile, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	loadedContent, err := loadPromptFromFile(testFile, PromptJobMatch)
	if err != nil {
		t.Fatalf("Failed to load prompt from file: %v", err)
	}
	if loadedContent != content {
		t.Errorf("Expected content '%s', got '%s'", content, loadedContent)
	}

	emptyFile := filepath.Join(tempDir, "empty.md")
	if err := os.WriteFile(emptyFile, []byte("  \n"), 0600); err != nil {
		t.Fatalf("Failed to create empty test file: %v", err)
	}
	if _, err := loadPromptFromFile(emptyFile, PromptJobMatch); err == nil {
		t.Error("Expected error for empty file")
	}

	if _, err := loadPromptFromFile(filepath.Join(tempDir, "nonexistent.md"), PromptJobMatch); err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestPromptConfigCoversEveryOperation(t *testing.T) {
	p := &PromptConfig{}
	entries := p.entries()
	if len(entries) != len(PromptOperations) {
		t.Fatalf("entries() has %d operations, PromptOperations has %d", len(entries), len(PromptOperations))
	}
	for _, op := range PromptOperations {
		if _, ok := entries[op]; !ok {
			t.Errorf("operation %s has no prompt entry", op)
		}
	}
}
