package types

import (
	"strings"
	"time"
)

// Sub-score category names used as keys in reports and weight schemes
const (
	CategoryFormat    = "format"
	CategoryKeywords  = "keywords"
	CategoryContent   = "content"
	CategoryGrammar   = "grammar"
	CategoryStructure = "structure"
)

// Categories lists the five sub-score categories in report order
var Categories = []string{
	CategoryFormat,
	CategoryKeywords,
	CategoryContent,
	CategoryGrammar,
	CategoryStructure,
}

// AnalyzeTextInput represents a request to analyze resume text
type AnalyzeTextInput struct {
	Text           string   `json:"text"`
	JobDescription string   `json:"job_description,omitempty"`
	Filename       string   `json:"filename,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	Profession     string   `json:"profession,omitempty"`
}

// Metrics holds descriptive statistics computed during analysis
type Metrics struct {
	WordCount            int      `json:"word_count"`
	SentenceCount        int      `json:"sentence_count"`
	AvgSentenceLength    float64  `json:"avg_sentence_length"`
	ReadabilityScore     float64  `json:"readability_score"`
	TextSimilarityToJob  float64  `json:"text_similarity_to_job"`
	KeywordsFound        []string `json:"keywords_found,omitempty"`
	KeywordsMissing      []string `json:"keywords_missing,omitempty"`
	DominantIndustry     string   `json:"dominant_industry,omitempty"`
	AnalysisTimeSeconds  float64  `json:"analysis_time_seconds"`
	KeywordSource        string   `json:"keyword_source,omitempty"`
	ActionVerbCategories []string `json:"action_verb_categories,omitempty"`
}

// AnalysisReport is the result of scoring one resume
type AnalysisReport struct {
	ID                string              `json:"id"`
	Filename          string              `json:"filename,omitempty"`
	OverallScore      float64             `json:"overall_score"`
	ScoreLevel        string              `json:"score_level"`
	ScoreColor        string              `json:"score_color"`
	WeightScheme      string              `json:"weight_scheme"`
	DetailedScores    map[string]float64  `json:"detailed_scores"`
	Feedback          map[string][]string `json:"feedback"`
	WordCount         int                 `json:"word_count"`
	Metrics           Metrics             `json:"metrics"`
	AnalysisMethod    string              `json:"analysis_method"`
	AIInsights        []string            `json:"ai_insights,omitempty"`
	AnalysisTimestamp time.Time           `json:"analysis_timestamp"`
}

// BatchEntry is one item of a batch analysis. Exactly one of Report and
// Error is set.
type BatchEntry struct {
	Filename     string          `json:"filename"`
	OverallScore float64         `json:"overall_score"`
	Report       *AnalysisReport `json:"report,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// BatchResult is the outcome of a batch analysis
type BatchResult struct {
	Results           []BatchEntry `json:"batch_results"`
	TotalAnalyzed     int          `json:"total_analyzed"`
	Failed            int          `json:"failed"`
	AnalysisTimestamp time.Time    `json:"analysis_timestamp"`
}

// ComparedResume is one side of a comparison
type ComparedResume struct {
	Filename string          `json:"filename"`
	Analysis *AnalysisReport `json:"analysis"`
}

// ComparisonWinner names the better resume overall and per category
type ComparisonWinner struct {
	Overall    string            `json:"overall"`
	Categories map[string]string `json:"categories"`
}

// Comparison is the side-by-side result of two analyses
type Comparison struct {
	Resume1             ComparedResume     `json:"resume1"`
	Resume2             ComparedResume     `json:"resume2"`
	Winner              ComparisonWinner   `json:"winner"`
	ScoreDifferences    map[string]float64 `json:"score_differences"`
	OverallDifference   float64            `json:"overall_difference"`
	ComparisonTimestamp time.Time          `json:"comparison_timestamp"`
}

// KeywordTaxonomy is a categorized list of expected terms for a profession
type KeywordTaxonomy struct {
	TechnicalSkills       []string `json:"technical_skills" mapstructure:"technical_skills"`
	SoftSkills            []string `json:"soft_skills" mapstructure:"soft_skills"`
	Certifications        []string `json:"certifications" mapstructure:"certifications"`
	ExperienceTerms       []string `json:"experience_terms" mapstructure:"experience_terms"`
	EducationRequirements []string `json:"education_requirements" mapstructure:"education_requirements"`
}

// All returns every keyword of the taxonomy, deduplicated case-insensitively
// in category order
func (t KeywordTaxonomy) All() []string {
	seen := make(map[string]bool)
	var all []string
	for _, group := range [][]string{
		t.TechnicalSkills, t.SoftSkills, t.Certifications,
		t.ExperienceTerms, t.EducationRequirements,
	} {
		for _, kw := range group {
			key := strings.ToLower(strings.TrimSpace(kw))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, strings.TrimSpace(kw))
		}
	}
	return all
}

// IsEmpty reports whether the taxonomy has no keywords at all
func (t KeywordTaxonomy) IsEmpty() bool {
	return len(t.All()) == 0
}

// KeywordLookupInput is the request for a profession keyword lookup
type KeywordLookupInput struct {
	Profession      string `json:"profession"`
	ExperienceLevel string `json:"experience_level,omitempty"`
}

// KeywordLookupResult is a taxonomy together with where it came from
type KeywordLookupResult struct {
	Profession      string          `json:"profession"`
	ExperienceLevel string          `json:"experience_level,omitempty"`
	Source          string          `json:"source"`
	Keywords        KeywordTaxonomy `json:"keywords"`
}

// IndustryKeywords is the static keyword table entry for an industry
type IndustryKeywords struct {
	Industry    string              `json:"industry"`
	Keywords    []string            `json:"keywords"`
	ActionVerbs map[string][]string `json:"action_verbs"`
}

// Education is one education entry of a structured resume
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field,omitempty"`
	DateRange   string `json:"date_range,omitempty"`
	GPA         string `json:"gpa,omitempty"`
}

// Experience is one work experience entry
type Experience struct {
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	DateRange   string   `json:"date_range,omitempty"`
	Description []string `json:"description"`
}

// Project is one project entry
type Project struct {
	Name         string   `json:"name"`
	Description  []string `json:"description"`
	Link         string   `json:"link,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// SkillGroup is a category of skills
type SkillGroup struct {
	Category string   `json:"category"`
	Skills   []string `json:"skills"`
}

// Achievement is one achievement entry
type Achievement struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Certification is one certification entry
type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
}

// CodingProfile is a link to an online coding profile
type CodingProfile struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// Resume is the structured resume record consumed by renderers and the
// section optimizer
type Resume struct {
	Name             string          `json:"name"`
	Email            string          `json:"email,omitempty"`
	Phone            string          `json:"phone,omitempty"`
	LinkedIn         string          `json:"linkedin,omitempty"`
	GitHub           string          `json:"github,omitempty"`
	Portfolio        string          `json:"portfolio,omitempty"`
	TargetProfession string          `json:"target_profession,omitempty"`
	Summary          string          `json:"summary,omitempty"`
	Education        []Education     `json:"education,omitempty"`
	Experiences      []Experience    `json:"experiences,omitempty"`
	Projects         []Project       `json:"projects,omitempty"`
	Skills           []SkillGroup    `json:"skills,omitempty"`
	Achievements     []Achievement   `json:"achievements,omitempty"`
	Certifications   []Certification `json:"certifications,omitempty"`
	CodingProfiles   []CodingProfile `json:"coding_profiles,omitempty"`
}

// ContactParts returns the non-empty contact fields in display order
func (r Resume) ContactParts() []string {
	var parts []string
	if r.Email != "" {
		parts = append(parts, r.Email)
	}
	if r.Phone != "" {
		parts = append(parts, r.Phone)
	}
	if r.LinkedIn != "" {
		parts = append(parts, "LinkedIn: "+r.LinkedIn)
	}
	if r.GitHub != "" {
		parts = append(parts, "GitHub: "+r.GitHub)
	}
	if r.Portfolio != "" {
		parts = append(parts, "Portfolio: "+r.Portfolio)
	}
	return parts
}

// OptimizeResult is the outcome of optimizing a structured resume
type OptimizeResult struct {
	OptimizedData    Resume   `json:"optimized_data"`
	ATSScore         float64  `json:"ats_score"`
	ImprovementNotes []string `json:"improvement_notes"`
	FailedSections   []string `json:"failed_sections,omitempty"`
	Document         string   `json:"document,omitempty"`
	DocumentFormat   string   `json:"document_format,omitempty"`
}

// JobMatchInput asks how well a structured resume fits a job description
type JobMatchInput struct {
	JobDescription string `json:"job_description"`
	Resume         Resume `json:"resume"`
}

// JobMatchAnalysis is the assessment of a resume against a job description
type JobMatchAnalysis struct {
	MatchScore           float64  `json:"match_score"`
	KeyMissingSkills     []string `json:"key_missing_skills"`
	TailoringSuggestions []string `json:"tailoring_suggestions"`
	KeywordEmphasis      []string `json:"keyword_emphasis"`
	Source               string   `json:"source"`
}

// PlainText flattens the resume into line-oriented text suitable for
// lexical analysis
func (r Resume) PlainText() string {
	var b strings.Builder
	line := func(parts ...string) {
		var kept []string
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				kept = append(kept, p)
			}
		}
		if len(kept) > 0 {
			b.WriteString(strings.Join(kept, " "))
			b.WriteByte('\n')
		}
	}

	line(r.Name)
	line(strings.Join(r.ContactParts(), " | "))
	line(r.TargetProfession)
	line(r.Summary)
	for _, e := range r.Education {
		line(e.Degree, e.Field, e.Institution, e.DateRange)
	}
	for _, s := range r.Skills {
		line(s.Category+":", strings.Join(s.Skills, ", "))
	}
	for _, e := range r.Experiences {
		line(e.Position, e.Company, e.DateRange)
		for _, d := range e.Description {
			line(d)
		}
	}
	for _, p := range r.Projects {
		line(p.Name, strings.Join(p.Technologies, ", "))
		for _, d := range p.Description {
			line(d)
		}
	}
	for _, a := range r.Achievements {
		line(a.Title, a.Description)
	}
	for _, c := range r.Certifications {
		line(c.Name, c.Issuer, c.Date)
	}
	return b.String()
}
