// Package keywords resolves the keyword taxonomy a resume is measured
// against: a custom taxonomy file first, then the language model, then a
// generic default.
package keywords

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"resumescore/internal/errors"
	"resumescore/internal/llm"
	"resumescore/internal/types"

	"github.com/spf13/viper"
)

// Sources reported in KeywordLookupResult.Source
const (
	SourceCustom  = "custom"
	SourceLLM     = "llm"
	SourceDefault = "default"
)

// ExperienceLevels are the accepted experience levels. Empty means any.
var ExperienceLevels = []string{"entry", "mid", "senior"}

// Generator produces a taxonomy for a profession. The boolean is false when
// the generator fell back to a default.
type Generator interface {
	ProfessionKeywords(ctx context.Context, profession, level string) (types.KeywordTaxonomy, bool)
}

// Service looks up profession keywords
type Service struct {
	mu        sync.RWMutex
	custom    map[string]types.KeywordTaxonomy
	generator Generator
	logger    *errors.Logger
}

// NewService creates a Service. A nil generator skips the model step.
func NewService(generator Generator, logger *errors.Logger) *Service {
	return &Service{
		custom:    make(map[string]types.KeywordTaxonomy),
		generator: generator,
		logger:    logger,
	}
}

// Lookup returns the taxonomy for profession, tagged with its source
func (s *Service) Lookup(ctx context.Context, profession, level string) (types.KeywordLookupResult, error) {
	profession = strings.TrimSpace(profession)
	level = strings.ToLower(strings.TrimSpace(level))

	if profession == "" {
		return types.KeywordLookupResult{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Profession is required", nil)
	}
	if level != "" && !slices.Contains(ExperienceLevels, level) {
		return types.KeywordLookupResult{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Invalid experience level %q, expected one of %s", level, strings.Join(ExperienceLevels, ", ")), nil)
	}

	result := types.KeywordLookupResult{
		Profession:      profession,
		ExperienceLevel: level,
	}

	if taxonomy, ok := s.customTaxonomy(profession); ok {
		result.Source = SourceCustom
		result.Keywords = taxonomy
		return result, nil
	}

	if s.generator != nil {
		if taxonomy, ok := s.generator.ProfessionKeywords(ctx, profession, level); ok {
			result.Source = SourceLLM
			result.Keywords = taxonomy
			return result, nil
		}
	}

	result.Source = SourceDefault
	result.Keywords = llm.DefaultTaxonomy()
	return result, nil
}

func (s *Service) customTaxonomy(profession string) (types.KeywordTaxonomy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	taxonomy, ok := s.custom[strings.ToLower(profession)]
	return taxonomy, ok
}

// SetCustom replaces the custom taxonomies. Keys match professions
// case-insensitively.
func (s *Service) SetCustom(taxonomies map[string]types.KeywordTaxonomy) {
	custom := make(map[string]types.KeywordTaxonomy, len(taxonomies))
	for name, taxonomy := range taxonomies {
		custom[strings.ToLower(strings.TrimSpace(name))] = taxonomy
	}

	s.mu.Lock()
	s.custom = custom
	s.mu.Unlock()
}

// CustomProfessions lists the professions of the custom taxonomy, sorted
func (s *Service) CustomProfessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.custom))
}

// LoadFile reads a YAML or JSON taxonomy file of the form
//
//	professions:
//	  data scientist:
//	    technical_skills: [python, sql]
//
// and installs it as the custom taxonomy
func (s *Service) LoadFile(path string) error {
	taxonomies, err := ReadTaxonomyFile(path)
	if err != nil {
		return err
	}
	s.SetCustom(taxonomies)
	if s.logger != nil {
		s.logger.Info("Custom keyword taxonomy loaded",
			"file", path,
			"professions", len(taxonomies))
	}
	return nil
}

// ReadTaxonomyFile parses a taxonomy file without installing it
func ReadTaxonomyFile(path string) (map[string]types.KeywordTaxonomy, error) {
	// Profession names may contain dots ("node.js developer")
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Failed to read keyword taxonomy file %s", path), err)
	}

	var taxonomies map[string]types.KeywordTaxonomy
	if err := v.UnmarshalKey("professions", &taxonomies); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Invalid keyword taxonomy file %s", path), err)
	}
	return taxonomies, nil
}
