package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/features"
	"resumescore/internal/types"

	"github.com/tidwall/gjson"
)

// Sources reported with a job match
const (
	SourceLLM       = "llm"
	SourceDefault   = "default"
	SourceHeuristic = "heuristic"
)

const (
	// NoModelATSScore is returned when no model is configured
	NoModelATSScore = 50.0
	// FallbackATSScore is returned when the model answer cannot be used
	FallbackATSScore = 75.0

	// DefaultMatchScore is reported when a job match answer cannot be recovered
	DefaultMatchScore = 50.0

	maxInsights     = 3
	maxNotes        = 5
	maxMatchItems   = 5
	jobMatchTerms   = 20
	insightTextSize = 12000
)

// NoModelNote is the only improvement note when no model is configured
const NoModelNote = "Could not connect to AI to generate notes."

// DefaultImprovementNotes are used when the model answer cannot be used
var DefaultImprovementNotes = []string{
	"Optimized action verbs for stronger impact.",
	"Enhanced technical keyword density relevant to the target profession.",
	"Quantified achievements more effectively where possible.",
	"Improved overall phrasing for ATS readability.",
}

// DefaultTaxonomy is the generic taxonomy used when no better source exists
func DefaultTaxonomy() types.KeywordTaxonomy {
	return types.KeywordTaxonomy{
		TechnicalSkills:       []string{"excel", "word", "powerpoint"},
		SoftSkills:            []string{"communication", "teamwork", "leadership"},
		Certifications:        []string{"certification", "degree"},
		ExperienceTerms:       []string{"years of experience", "managed", "led"},
		EducationRequirements: []string{"bachelor", "master", "phd"},
	}
}

// DefaultJobMatch is reported when a model answered but nothing usable
// could be recovered
func DefaultJobMatch() types.JobMatchAnalysis {
	return types.JobMatchAnalysis{
		MatchScore:           DefaultMatchScore,
		KeyMissingSkills:     []string{"Analysis Error: Could not determine missing skills."},
		TailoringSuggestions: []string{"Analysis Error: Could not generate suggestions. Review JD manually."},
		KeywordEmphasis:      []string{"Analysis Error: Could not determine keywords."},
		Source:               SourceDefault,
	}
}

var scorePattern = regexp.MustCompile(`(\d{1,3})`)

// ProfessionKeywords asks the model for a keyword taxonomy. The boolean is
// false when the generic default was returned instead.
func (b *Bridge) ProfessionKeywords(ctx context.Context, profession, level string) (types.KeywordTaxonomy, bool) {
	if !b.Available() {
		return DefaultTaxonomy(), false
	}

	levelPhrase := ""
	if level != "" {
		levelPhrase = fmt.Sprintf(" (%s level)", level)
	}
	raw, err := b.generate(ctx, config.PromptProfessionKeywords,
		renderPrompt(b.config, config.PromptProfessionKeywords, profession, levelPhrase))
	if err != nil {
		b.logWarn("Keyword generation failed, using generic keywords", "profession", profession, "error", err.Error())
		b.fallback(ctx, config.PromptProfessionKeywords, "call_failed")
		return DefaultTaxonomy(), false
	}

	recovered := Recover(raw).Expect(ShapeObject)
	if !recovered.OK {
		b.logWarn("No keyword JSON in model answer, using generic keywords", "profession", profession)
		b.fallback(ctx, config.PromptProfessionKeywords, "no_json")
		return DefaultTaxonomy(), false
	}

	doc := recovered.Result()
	taxonomy := types.KeywordTaxonomy{
		TechnicalSkills:       stringList(doc.Get("technical_skills")),
		SoftSkills:            stringList(doc.Get("soft_skills")),
		Certifications:        stringList(doc.Get("certifications")),
		ExperienceTerms:       stringList(doc.Get("experience_terms")),
		EducationRequirements: stringList(doc.Get("education_requirements")),
	}
	if taxonomy.IsEmpty() {
		b.fallback(ctx, config.PromptProfessionKeywords, "empty_taxonomy")
		return DefaultTaxonomy(), false
	}
	return taxonomy, true
}

// ImprovementNotes summarizes what optimization changed
func (b *Bridge) ImprovementNotes(ctx context.Context, original, optimized types.Resume) []string {
	if !b.Available() {
		return []string{NoModelNote}
	}

	profession := optimized.TargetProfession
	if profession == "" {
		profession = original.TargetProfession
	}
	prompt := renderPrompt(b.config, config.PromptImprovementNotes,
		profession, summarizeResume(original), summarizeResume(optimized))

	raw, err := b.generate(ctx, config.PromptImprovementNotes, prompt)
	if err != nil {
		b.fallback(ctx, config.PromptImprovementNotes, "call_failed")
		return defaultNotes()
	}

	notes, ok := DecodeArray[[]string](raw)
	notes = nonEmpty(notes)
	if !ok || len(notes) == 0 {
		b.fallback(ctx, config.PromptImprovementNotes, "no_json")
		return defaultNotes()
	}
	return notes[:min(len(notes), maxNotes)]
}

// ATSScore asks the model for an overall ATS score in [0, 100]
func (b *Bridge) ATSScore(ctx context.Context, resume types.Resume) float64 {
	if !b.Available() {
		return NoModelATSScore
	}

	profession := resume.TargetProfession
	if profession == "" {
		profession = "N/A"
	}
	data, _ := json.MarshalIndent(evaluationData(resume), "", "  ")

	raw, err := b.generate(ctx, config.PromptATSScore,
		renderPrompt(b.config, config.PromptATSScore, profession, string(data)))
	if err != nil {
		b.fallback(ctx, config.PromptATSScore, "call_failed")
		return FallbackATSScore
	}

	m := scorePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		b.fallback(ctx, config.PromptATSScore, "no_number")
		return FallbackATSScore
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return FallbackATSScore
	}
	return math.Max(0, math.Min(100, score))
}

// OptimizeSection rewrites one resume section. The result always has the
// same JSON shape as content; on any failure content is returned unchanged
// together with the error.
func (b *Bridge) OptimizeSection(ctx context.Context, section string, content json.RawMessage, profession string) (json.RawMessage, error) {
	shape := shapeOf(content)
	if shape == ShapeNone {
		return content, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("section %s is not a JSON object or array", section), nil)
	}
	if !b.Available() {
		return content, errors.NewAIError(errors.ErrCodeModelUnavailable, "no language model configured", nil)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, content, "", "  "); err != nil {
		return content, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("section %s is not valid JSON", section), err)
	}

	guidance := sectionGuidance[section]
	if guidance == "" {
		guidance = "- Improve clarity and impact of every entry."
	}
	raw, err := b.generate(ctx, config.PromptOptimizeSection,
		renderPrompt(b.config, config.PromptOptimizeSection, section, profession, pretty.String(), guidance))
	if err != nil {
		return content, err
	}

	recovered := Recover(raw)
	if !recovered.OK {
		return content, errors.NewAIError(errors.ErrCodeNoJSONRecovered,
			fmt.Sprintf("no JSON recovered for section %s", section), nil)
	}
	if recovered.Shape != shape {
		return content, errors.NewAIError(errors.ErrCodeNoJSONRecovered,
			fmt.Sprintf("JSON structure mismatch for %s: expected %s, got %s", section, shape, recovered.Shape), nil)
	}
	return json.RawMessage(recovered.Raw), nil
}

// Insights returns up to three improvement suggestions for resume text
func (b *Bridge) Insights(ctx context.Context, text string) ([]string, error) {
	if !b.Available() {
		return nil, errors.NewAIError(errors.ErrCodeModelUnavailable, "no language model configured", nil)
	}
	text = truncateUTF8(text, insightTextSize)

	raw, err := b.generate(ctx, config.PromptInsights, renderPrompt(b.config, config.PromptInsights, text))
	if err != nil {
		return nil, err
	}

	recovered := Recover(raw).Expect(ShapeArray)
	if !recovered.OK {
		return nil, errors.NewAIError(errors.ErrCodeNoJSONRecovered, "no suggestions recovered", nil)
	}
	insights := stringList(recovered.Result())
	return insights[:min(len(insights), maxInsights)], nil
}

// JobMatch assesses a structured resume against a job description
func (b *Bridge) JobMatch(ctx context.Context, jobDescription string, resume types.Resume) types.JobMatchAnalysis {
	if !b.Available() {
		return HeuristicJobMatch(jobDescription, resume)
	}

	resumeJSON, _ := json.MarshalIndent(resume, "", "  ")
	raw, err := b.generate(ctx, config.PromptJobMatch,
		renderPrompt(b.config, config.PromptJobMatch, jobDescription, string(resumeJSON)))
	if err != nil {
		b.fallback(ctx, config.PromptJobMatch, "call_failed")
		return DefaultJobMatch()
	}

	recovered := Recover(raw).Expect(ShapeObject)
	doc := recovered.Result()
	required := []string{"match_score", "key_missing_skills", "tailoring_suggestions", "keyword_emphasis"}
	for _, field := range required {
		if !doc.Get(field).Exists() {
			b.fallback(ctx, config.PromptJobMatch, "incomplete_json")
			return DefaultJobMatch()
		}
	}

	return types.JobMatchAnalysis{
		MatchScore:           math.Max(0, math.Min(100, doc.Get("match_score").Float())),
		KeyMissingSkills:     stringList(doc.Get("key_missing_skills")),
		TailoringSuggestions: stringList(doc.Get("tailoring_suggestions")),
		KeywordEmphasis:      stringList(doc.Get("keyword_emphasis")),
		Source:               SourceLLM,
	}
}

// HeuristicJobMatch compares the most frequent job-description terms with
// the resume text
func HeuristicJobMatch(jobDescription string, resume types.Resume) types.JobMatchAnalysis {
	terms := features.Extract(jobDescription).TopTerms(jobMatchTerms)
	text := resume.PlainText()

	var found, missing []string
	for _, term := range terms {
		if features.MatchKeyword(text, term) {
			found = append(found, term)
		} else {
			missing = append(missing, term)
		}
	}

	score := 0.0
	if len(terms) > 0 {
		score = math.Round(float64(len(found))/float64(len(terms))*1000) / 10
	}

	missing = missing[:min(len(missing), maxMatchItems)]
	suggestions := make([]string, 0, len(missing)+1)
	for _, term := range missing {
		suggestions = append(suggestions, fmt.Sprintf("Show experience with %q if you have it.", term))
	}
	if len(found) > 0 {
		suggestions = append(suggestions, "Move the matching skills closer to the top of each section.")
	}

	return types.JobMatchAnalysis{
		MatchScore:           score,
		KeyMissingSkills:     missing,
		TailoringSuggestions: suggestions,
		KeywordEmphasis:      found[:min(len(found), maxMatchItems)],
		Source:               SourceHeuristic,
	}
}

func (b *Bridge) fallback(ctx context.Context, operation, reason string) {
	if b.recorder != nil {
		b.recorder.RecordFallback(ctx, operation, reason)
	}
}

func defaultNotes() []string {
	return append([]string(nil), DefaultImprovementNotes...)
}

// stringList reads an array of strings, or a comma separated string, from
// a lenient model answer
func stringList(r gjson.Result) []string {
	var out []string
	switch {
	case r.IsArray():
		for _, item := range r.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
		}
	case r.Type == gjson.String:
		for _, s := range strings.Split(r.String(), ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func nonEmpty(items []string) []string {
	out := items[:0]
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func shapeOf(content json.RawMessage) Shape {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return ShapeNone
	}
	switch trimmed[0] {
	case '{':
		return ShapeObject
	case '[':
		return ShapeArray
	}
	return ShapeNone
}

// summarizeResume condenses the optimizable sections for the notes prompt
func summarizeResume(r types.Resume) string {
	summary := map[string]string{}

	switch {
	case len(r.Experiences) == 0:
		summary["experiences"] = "No experiences provided."
	default:
		summary["experiences"] = fmt.Sprintf("%d experiences entries. First entry summary: %s...",
			len(r.Experiences), firstLine(r.Experiences[0].Description))
	}
	switch {
	case len(r.Projects) == 0:
		summary["projects"] = "No projects provided."
	default:
		summary["projects"] = fmt.Sprintf("%d projects entries. First entry summary: %s...",
			len(r.Projects), firstLine(r.Projects[0].Description))
	}
	if len(r.Skills) == 0 {
		summary["skills"] = "No skills provided."
	} else {
		parts := make([]string, len(r.Skills))
		for i, s := range r.Skills {
			parts[i] = fmt.Sprintf("%s: %d skills", s.Category, len(s.Skills))
		}
		summary["skills"] = strings.Join(parts, ", ")
	}
	if len(r.Achievements) == 0 {
		summary["achievements"] = "No achievements provided."
	} else {
		summary["achievements"] = fmt.Sprintf("%d entries in achievements.", len(r.Achievements))
	}

	data, _ := json.MarshalIndent(summary, "", "  ")
	return string(data)
}

func firstLine(lines []string) string {
	if len(lines) == 0 {
		return "N/A"
	}
	line := lines[0]
	if len(line) > 100 {
		line = line[:100]
	}
	return strconv.Quote(line)
}

type atsEvaluation struct {
	TargetProfession             string   `json:"target_profession"`
	SkillsMatch                  []string `json:"skills_match"`
	ProjectDescriptionQuality    []string `json:"project_description_quality"`
	ExperienceDescriptionQuality []string `json:"experience_description_quality"`
	AchievementDetailLevel       int      `json:"achievement_detail_level"`
}

func evaluationData(r types.Resume) atsEvaluation {
	eval := atsEvaluation{
		TargetProfession:       r.TargetProfession,
		AchievementDetailLevel: len(r.Achievements),
	}
	if eval.TargetProfession == "" {
		eval.TargetProfession = "N/A"
	}
	for _, s := range r.Skills {
		eval.SkillsMatch = append(eval.SkillsMatch, fmt.Sprintf("%s: %d skills", s.Category, len(s.Skills)))
	}
	for _, p := range r.Projects {
		total := 0
		for _, d := range p.Description {
			total += len(d)
		}
		avg := float64(total) / float64(max(1, len(p.Description)))
		eval.ProjectDescriptionQuality = append(eval.ProjectDescriptionQuality,
			fmt.Sprintf("Project '%s': %d points, avg length %.1f chars", p.Name, len(p.Description), avg))
	}
	for _, e := range r.Experiences {
		eval.ExperienceDescriptionQuality = append(eval.ExperienceDescriptionQuality,
			fmt.Sprintf("Experience at %s: %d points", e.Company, len(e.Description)))
	}
	return eval
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
