package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"resumescore/internal/types"
)

// Output formats
const (
	FormatJSON     = "json"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Data type keys used for registry lookups
const (
	TypeAny         = "any"
	TypeReport      = "AnalysisReport"
	TypeComparison  = "Comparison"
	TypeBatch       = "BatchResult"
	TypeKeywords    = "KeywordLookupResult"
	TypeIndustry    = "IndustryKeywords"
	TypeOptimize    = "OptimizeResult"
	TypeJobMatch    = "JobMatchAnalysis"
	maxFeedbackRows = 10
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry holds the default formatters
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter(FormatJSON, TypeAny, &JSONFormatter{})
	for _, f := range []struct {
		dataType string
		render   func(data any, md bool) (string, error)
	}{
		{TypeReport, formatReport},
		{TypeComparison, formatComparison},
		{TypeBatch, formatBatch},
		{TypeKeywords, formatKeywords},
		{TypeIndustry, formatIndustry},
		{TypeOptimize, formatOptimize},
		{TypeJobMatch, formatJobMatch},
	} {
		registry.RegisterFormatter(FormatText, f.dataType, &sectionFormatter{dataType: f.dataType, render: f.render})
		registry.RegisterFormatter(FormatMarkdown, f.dataType, &sectionFormatter{dataType: f.dataType, render: f.render, markdown: true})
	}

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	data = deref(data)
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters[TypeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func deref(data any) any {
	switch v := data.(type) {
	case *types.AnalysisReport:
		return *v
	case *types.Comparison:
		return *v
	case *types.BatchResult:
		return *v
	case *types.KeywordLookupResult:
		return *v
	case *types.IndustryKeywords:
		return *v
	case *types.OptimizeResult:
		return *v
	case *types.JobMatchAnalysis:
		return *v
	}
	return data
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisReport:
		return TypeReport
	case types.Comparison:
		return TypeComparison
	case types.BatchResult:
		return TypeBatch
	case types.KeywordLookupResult:
		return TypeKeywords
	case types.IndustryKeywords:
		return TypeIndustry
	case types.OptimizeResult:
		return TypeOptimize
	case types.JobMatchAnalysis:
		return TypeJobMatch
	default:
		return TypeAny
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return TypeAny
}

// sectionFormatter renders one data type as plain text or markdown
type sectionFormatter struct {
	dataType string
	render   func(data any, md bool) (string, error)
	markdown bool
}

func (sf *sectionFormatter) Format(data any) (string, error) {
	return sf.render(data, sf.markdown)
}

func (sf *sectionFormatter) SupportedType() string {
	return sf.dataType
}

// doc accumulates text in either plain or markdown style
type doc struct {
	b  strings.Builder
	md bool
}

func (d *doc) title(s string) {
	if d.md {
		fmt.Fprintf(&d.b, "# %s\n\n", s)
		return
	}
	fmt.Fprintf(&d.b, "=== %s ===\n\n", strings.ToUpper(s))
}

func (d *doc) heading(s string) {
	if d.md {
		fmt.Fprintf(&d.b, "\n## %s\n\n", s)
		return
	}
	fmt.Fprintf(&d.b, "\n%s:\n", s)
}

func (d *doc) field(label string, value any) {
	if d.md {
		fmt.Fprintf(&d.b, "**%s:** %v\n\n", label, value)
		return
	}
	fmt.Fprintf(&d.b, "%s: %v\n", label, value)
}

func (d *doc) list(items []string) {
	for _, item := range items {
		if d.md {
			fmt.Fprintf(&d.b, "- %s\n", item)
		} else {
			fmt.Fprintf(&d.b, "  - %s\n", item)
		}
	}
}

func (d *doc) table(headers []string, rows [][]string) {
	if d.md {
		fmt.Fprintf(&d.b, "| %s |\n", strings.Join(headers, " | "))
		fmt.Fprintf(&d.b, "|%s\n", strings.Repeat("---|", len(headers)))
		for _, row := range rows {
			fmt.Fprintf(&d.b, "| %s |\n", strings.Join(row, " | "))
		}
		return
	}
	for _, row := range rows {
		fmt.Fprintf(&d.b, "  %s\n", strings.Join(row, "  "))
	}
}

func (d *doc) String() string { return d.b.String() }

func score(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func formatReport(data any, md bool) (string, error) {
	r, ok := data.(types.AnalysisReport)
	if !ok {
		return "", fmt.Errorf("expected AnalysisReport, got %T", data)
	}

	d := &doc{md: md}
	d.title("Resume Analysis")
	if r.Filename != "" {
		d.field("File", r.Filename)
	}
	d.field("Overall Score", fmt.Sprintf("%s/100 (%s)", score(r.OverallScore), r.ScoreLevel))
	d.field("Weight Scheme", r.WeightScheme)
	d.field("Analysis Method", r.AnalysisMethod)
	d.field("Word Count", r.WordCount)

	d.heading("Category Scores")
	rows := make([][]string, 0, len(types.Categories))
	for _, c := range types.Categories {
		rows = append(rows, []string{c, score(r.DetailedScores[c])})
	}
	d.table([]string{"Category", "Score"}, rows)

	for _, c := range types.Categories {
		feedback := r.Feedback[c]
		if len(feedback) == 0 {
			continue
		}
		d.heading("Feedback: " + c)
		d.list(feedback[:min(len(feedback), maxFeedbackRows)])
	}

	if len(r.Metrics.KeywordsFound) > 0 || len(r.Metrics.KeywordsMissing) > 0 {
		d.heading("Keywords")
		d.field("Found", strings.Join(r.Metrics.KeywordsFound, ", "))
		d.field("Missing", strings.Join(r.Metrics.KeywordsMissing, ", "))
		if r.Metrics.KeywordSource != "" {
			d.field("Source", r.Metrics.KeywordSource)
		}
	}
	if len(r.AIInsights) > 0 {
		d.heading("AI Insights")
		d.list(r.AIInsights)
	}
	return d.String(), nil
}

func formatComparison(data any, md bool) (string, error) {
	c, ok := data.(types.Comparison)
	if !ok {
		return "", fmt.Errorf("expected Comparison, got %T", data)
	}
	if c.Resume1.Analysis == nil || c.Resume2.Analysis == nil {
		return "", fmt.Errorf("comparison is missing an analysis")
	}

	d := &doc{md: md}
	d.title("Resume Comparison")
	d.field("Winner", c.Winner.Overall)
	d.field("Overall Difference", score(c.OverallDifference))

	d.heading("Scores")
	rows := [][]string{{
		"overall",
		score(c.Resume1.Analysis.OverallScore),
		score(c.Resume2.Analysis.OverallScore),
		c.Winner.Overall,
	}}
	for _, cat := range types.Categories {
		rows = append(rows, []string{
			cat,
			score(c.Resume1.Analysis.DetailedScores[cat]),
			score(c.Resume2.Analysis.DetailedScores[cat]),
			c.Winner.Categories[cat],
		})
	}
	d.table([]string{"Category", c.Resume1.Filename, c.Resume2.Filename, "Winner"}, rows)
	return d.String(), nil
}

func formatBatch(data any, md bool) (string, error) {
	b, ok := data.(types.BatchResult)
	if !ok {
		return "", fmt.Errorf("expected BatchResult, got %T", data)
	}

	d := &doc{md: md}
	d.title("Batch Analysis")
	d.field("Resumes", b.TotalAnalyzed)
	d.field("Failed", b.Failed)

	d.heading("Ranking")
	rows := make([][]string, 0, len(b.Results))
	for i, e := range b.Results {
		if e.Report == nil {
			rows = append(rows, []string{"-", e.Filename, "-", "error: " + e.Error})
			continue
		}
		rows = append(rows, []string{fmt.Sprint(i + 1), e.Filename, score(e.OverallScore), e.Report.ScoreLevel})
	}
	d.table([]string{"Rank", "File", "Score", "Level"}, rows)
	return d.String(), nil
}

func formatKeywords(data any, md bool) (string, error) {
	k, ok := data.(types.KeywordLookupResult)
	if !ok {
		return "", fmt.Errorf("expected KeywordLookupResult, got %T", data)
	}

	d := &doc{md: md}
	d.title("Keywords: " + k.Profession)
	if k.ExperienceLevel != "" {
		d.field("Experience Level", k.ExperienceLevel)
	}
	d.field("Source", k.Source)
	for _, group := range []struct {
		name  string
		items []string
	}{
		{"Technical Skills", k.Keywords.TechnicalSkills},
		{"Soft Skills", k.Keywords.SoftSkills},
		{"Certifications", k.Keywords.Certifications},
		{"Experience Terms", k.Keywords.ExperienceTerms},
		{"Education Requirements", k.Keywords.EducationRequirements},
	} {
		if len(group.items) == 0 {
			continue
		}
		d.heading(group.name)
		d.list(group.items)
	}
	return d.String(), nil
}

func formatIndustry(data any, md bool) (string, error) {
	ik, ok := data.(types.IndustryKeywords)
	if !ok {
		return "", fmt.Errorf("expected IndustryKeywords, got %T", data)
	}

	d := &doc{md: md}
	d.title("Industry: " + ik.Industry)
	d.heading("Keywords")
	d.list(ik.Keywords)

	categories := make([]string, 0, len(ik.ActionVerbs))
	for category := range ik.ActionVerbs {
		categories = append(categories, category)
	}
	slices.Sort(categories)
	d.heading("Action Verbs")
	for _, category := range categories {
		d.field(category, strings.Join(ik.ActionVerbs[category], ", "))
	}
	return d.String(), nil
}

func formatOptimize(data any, md bool) (string, error) {
	o, ok := data.(types.OptimizeResult)
	if !ok {
		return "", fmt.Errorf("expected OptimizeResult, got %T", data)
	}

	d := &doc{md: md}
	d.title("Resume Optimization")
	d.field("ATS Score", score(o.ATSScore))
	if len(o.FailedSections) > 0 {
		d.field("Sections Kept Unchanged", strings.Join(o.FailedSections, ", "))
	}
	if o.DocumentFormat != "" {
		d.field("Document Format", o.DocumentFormat)
	}
	d.heading("Improvement Notes")
	d.list(o.ImprovementNotes)

	optimized, err := json.MarshalIndent(o.OptimizedData, "", "  ")
	if err != nil {
		return "", err
	}
	d.heading("Optimized Resume")
	if md {
		fmt.Fprintf(&d.b, "```json\n%s\n```\n", optimized)
	} else {
		fmt.Fprintf(&d.b, "%s\n", optimized)
	}
	return d.String(), nil
}

func formatJobMatch(data any, md bool) (string, error) {
	j, ok := data.(types.JobMatchAnalysis)
	if !ok {
		return "", fmt.Errorf("expected JobMatchAnalysis, got %T", data)
	}

	d := &doc{md: md}
	d.title("Job Match")
	d.field("Match Score", score(j.MatchScore)+"/100")
	d.field("Source", j.Source)
	d.heading("Key Missing Skills")
	d.list(j.KeyMissingSkills)
	d.heading("Tailoring Suggestions")
	d.list(j.TailoringSuggestions)
	d.heading("Keywords To Emphasize")
	d.list(j.KeywordEmphasis)
	return d.String(), nil
}
