package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Prompt operation names. They key PromptConfig entries and the prompts
// loaded from files.
const (
	PromptProfessionKeywords = "professionKeywords"
	PromptImprovementNotes   = "improvementNotes"
	PromptATSScore           = "atsScore"
	PromptOptimizeSection    = "optimizeSection"
	PromptInsights           = "insights"
	PromptJobMatch           = "jobMatch"
)

// PromptOperations lists every operation whose prompt can be overridden
var PromptOperations = []string{
	PromptProfessionKeywords,
	PromptImprovementNotes,
	PromptATSScore,
	PromptOptimizeSection,
	PromptInsights,
	PromptJobMatch,
}

// promptEntry is the inline template and file path configured for one
// operation
type promptEntry struct {
	inline string
	file   string
}

func (p *PromptConfig) entries() map[string]promptEntry {
	return map[string]promptEntry{
		PromptProfessionKeywords: {p.ProfessionKeywords, p.ProfessionKeywordsFile},
		PromptImprovementNotes:   {p.ImprovementNotes, p.ImprovementNotesFile},
		PromptATSScore:           {p.ATSScore, p.ATSScoreFile},
		PromptOptimizeSection:    {p.OptimizeSection, p.OptimizeSectionFile},
		PromptInsights:           {p.Insights, p.InsightsFile},
		PromptJobMatch:           {p.JobMatch, p.JobMatchFile},
	}
}

// Template returns the configured template for an operation: the content
// loaded from its file first, then the inline value. Empty means the
// built-in default applies.
func (p *PromptConfig) Template(operation string) string {
	if content := p.Loaded[operation]; content != "" {
		return content
	}
	return p.entries()[operation].inline
}

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	loaded := make(map[string]string)
	entries := c.AI.Prompts.entries()
	for _, operation := range PromptOperations {
		entry := entries[operation]
		if entry.file == "" {
			continue
		}
		content, err := loadPromptFromFile(entry.file, operation)
		if err != nil {
			return err
		}
		loaded[operation] = content
	}
	c.AI.Prompts.Loaded = loaded

	c.logPromptLoadingSummary()
	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s prompt file '%s': %w", operation, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s prompt file not found: %s", operation, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s prompt file '%s': %w", operation, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s prompt file '%s' is empty", operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s prompt from file: %s (%d characters)",
		operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	entries := c.AI.Prompts.entries()
	for _, operation := range PromptOperations {
		filePath := entries[operation].file
		if filePath == "" {
			continue
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s prompt: %s", operation, filePath))
			continue
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s prompt file not found: %s", operation, absPath))
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

// logPromptLoadingSummary logs which operations use a custom prompt
func (c *Config) logPromptLoadingSummary() {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	count := 0
	entries := c.AI.Prompts.entries()
	for _, operation := range PromptOperations {
		switch {
		case c.AI.Prompts.Loaded[operation] != "":
			log.Printf("[CONFIG] %s prompt: loaded from file", operation)
		case entries[operation].inline != "":
			log.Printf("[CONFIG] %s prompt: inline config", operation)
		default:
			continue
		}
		count++
	}

	if count == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts: %d", count)
	}

	log.Println("[CONFIG] ==========================================")
}
