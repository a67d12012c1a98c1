package keywords

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"resumescore/internal/errors"
	"resumescore/internal/features"
	"resumescore/internal/types"
)

// Industries lists the industries of the static keyword table, sorted
func Industries() []string {
	return slices.Sorted(maps.Keys(features.IndustryKeywords))
}

// Industry returns the static keywords and action verbs for an industry
func Industry(name string) (types.IndustryKeywords, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	kws, ok := features.IndustryKeywords[key]
	if !ok {
		available := Industries()
		return types.IndustryKeywords{}, errors.NewNotFoundError(errors.ErrCodeUnknownIndustry,
			fmt.Sprintf("Industry %q not found. Available: %s", name, strings.Join(available, ", ")), nil).
			WithContext("available_industries", available)
	}

	verbs := make(map[string][]string, len(features.ActionVerbCategories))
	for category, list := range features.ActionVerbCategories {
		verbs[category] = slices.Clone(list)
	}

	return types.IndustryKeywords{
		Industry:    key,
		Keywords:    slices.Clone(kws),
		ActionVerbs: verbs,
	}, nil
}
