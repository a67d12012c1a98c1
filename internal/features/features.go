// Package features turns extracted resume text into the lexical signals the
// sub-score calculators consume. Extraction never fails: degenerate input
// yields a zero FeatureSet.
package features

import (
	"math"
	"slices"
	"strings"
	"unicode"
)

// FeatureSet holds the lexical signals computed from one text
type FeatureSet struct {
	// Text is the original input; normalized is its lower-cased form with
	// whitespace runs collapsed to single spaces.
	Text       string
	normalized string

	WordCount         int
	SentenceCount     int
	AvgSentenceLength float64
	Readability       float64

	// Tokens are lower-cased words with punctuation stripped and stopwords
	// removed, in text order.
	Tokens        []string
	TermFrequency map[string]int
	MaxTermRatio  float64

	HasBullets  bool
	BulletLines int
	DateCount   int

	HasEmail        bool
	HasPhone        bool
	HasProfileURL   bool
	MentionsProfile bool

	QuantifiedCount     int
	AchievementVerbHits []string
	ActionVerbHits      map[string][]string

	Sections       map[string]bool
	FormatSections []string
	HeaderLines    int
	LineCount      int
	NonBlankLines  int

	Misspellings         []string
	GrammarIssues        int
	CapitalizationErrors int
	InformalWords        int
	AcronymCount         int
	IndustryHits         map[string]int
}

// Extract computes the FeatureSet of text
func Extract(text string) FeatureSet {
	fs := FeatureSet{
		Text:           text,
		normalized:     normalize(text),
		TermFrequency:  make(map[string]int),
		ActionVerbHits: make(map[string][]string),
		Sections:       make(map[string]bool),
		IndustryHits:   make(map[string]int),
	}

	fs.WordCount = len(strings.Fields(text))
	fs.Tokens = Tokenize(text)
	for _, tok := range fs.Tokens {
		fs.TermFrequency[tok]++
	}
	if len(fs.Tokens) > 0 {
		maxFreq := 0
		for _, n := range fs.TermFrequency {
			maxFreq = max(maxFreq, n)
		}
		fs.MaxTermRatio = float64(maxFreq) / float64(len(fs.Tokens))
	}

	sentences := SplitSentences(text)
	fs.SentenceCount = len(sentences)
	fs.AvgSentenceLength = float64(fs.WordCount) / float64(max(fs.SentenceCount, 1))
	fs.Readability = clamp((fs.AvgSentenceLength-10)*5+50, 0, 100)
	if fs.WordCount == 0 {
		fs.Readability = 0
	}
	for _, s := range sentences {
		if startsLowercase(s) {
			fs.CapitalizationErrors++
		}
	}

	fs.HasBullets = bulletPattern.MatchString(text)
	fs.BulletLines = len(bulletLinePattern.FindAllString(text, -1))
	for _, p := range datePatterns {
		fs.DateCount += len(p.FindAllString(text, -1))
	}

	fs.HasEmail = emailPattern.MatchString(text)
	fs.HasPhone = phonePattern.MatchString(text)
	fs.HasProfileURL = profileURLPattern.MatchString(text)
	fs.MentionsProfile = profileMention.MatchString(text)

	for _, p := range quantifiedPatterns {
		fs.QuantifiedCount += len(p.FindAllString(text, -1))
	}
	for _, verb := range AchievementVerbs {
		if fs.Contains(verb) {
			fs.AchievementVerbHits = append(fs.AchievementVerbHits, verb)
		}
	}
	for category, verbs := range ActionVerbCategories {
		for _, verb := range verbs {
			if fs.Contains(verb) {
				fs.ActionVerbHits[category] = append(fs.ActionVerbHits[category], verb)
			}
		}
	}

	for name, pattern := range sectionPatterns {
		fs.Sections[name] = pattern.MatchString(text)
	}
	lower := strings.ToLower(text)
	for _, word := range FormatSectionWords {
		if strings.Contains(lower, word) {
			fs.FormatSections = append(fs.FormatSections, word)
		}
	}

	lines := strings.Split(text, "\n")
	if text != "" {
		fs.LineCount = len(lines)
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fs.NonBlankLines++
		if isHeaderLine(line) {
			fs.HeaderLines++
		}
	}

	for wrong := range CommonMisspellings {
		if strings.Contains(lower, wrong) {
			fs.Misspellings = append(fs.Misspellings, wrong)
		}
	}
	slices.Sort(fs.Misspellings)
	for _, p := range grammarPatterns {
		fs.GrammarIssues += len(p.FindAllString(text, -1))
	}
	for _, w := range informalWords {
		if fs.Contains(w) {
			fs.InformalWords++
		}
	}
	fs.AcronymCount = len(acronymPattern.FindAllString(text, -1))

	for industry, keywords := range IndustryKeywords {
		for _, kw := range keywords {
			if fs.Contains(kw) {
				fs.IndustryHits[industry]++
			}
		}
	}

	return fs
}

// Contains reports whether keyword occurs in the text using word-boundary
// matching. See MatchKeyword.
func (fs FeatureSet) Contains(keyword string) bool {
	return matchNormalized(fs.normalized, keyword)
}

// Density returns occurrences of term per token. The denominator floors at 1
// so empty text yields 0.
func (fs FeatureSet) Density(term string) float64 {
	return float64(fs.TermFrequency[strings.ToLower(term)]) / float64(max(len(fs.Tokens), 1))
}

// NonBlankRatio is the share of non-blank lines, 0 for empty text
func (fs FeatureSet) NonBlankRatio() float64 {
	if fs.LineCount == 0 {
		return 0
	}
	return float64(fs.NonBlankLines) / float64(fs.LineCount)
}

// SectionCount returns how many of the given sections were detected
func (fs FeatureSet) SectionCount(names ...string) int {
	n := 0
	for _, name := range names {
		if fs.Sections[name] {
			n++
		}
	}
	return n
}

// ActionVerbCount is the total number of distinct action verbs found
func (fs FeatureSet) ActionVerbCount() int {
	n := 0
	for _, hits := range fs.ActionVerbHits {
		n += len(hits)
	}
	return n
}

// ActionVerbCategoriesFound lists the categories with at least one hit, sorted
func (fs FeatureSet) ActionVerbCategoriesFound() []string {
	var cats []string
	for cat, hits := range fs.ActionVerbHits {
		if len(hits) > 0 {
			cats = append(cats, cat)
		}
	}
	slices.Sort(cats)
	return cats
}

// DominantIndustry returns the industry with the most keyword hits and the
// hit count. Ties resolve alphabetically; no hits returns "", 0.
func (fs FeatureSet) DominantIndustry() (string, int) {
	best, bestHits := "", 0
	names := make([]string, 0, len(fs.IndustryHits))
	for name := range fs.IndustryHits {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if fs.IndustryHits[name] > bestHits {
			best, bestHits = name, fs.IndustryHits[name]
		}
	}
	return best, bestHits
}

// Tokenize lower-cases text, splits on whitespace, strips surrounding
// punctuation and drops stopwords and empty tokens
func Tokenize(text string) []string {
	var tokens []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		tok := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
		})
		tok = strings.TrimLeft(tok, "+#")
		if tok == "" || IsStopword(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// SplitSentences splits text on terminal punctuation followed by whitespace
func SplitSentences(text string) []string {
	var sentences []string
	for _, part := range sentenceBoundary.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			sentences = append(sentences, part)
		}
	}
	return sentences
}

func startsLowercase(sentence string) bool {
	for _, r := range sentence {
		if unicode.IsLetter(r) {
			return unicode.IsLower(r)
		}
		if unicode.IsDigit(r) {
			return false
		}
	}
	return false
}

func isHeaderLine(line string) bool {
	return isAllUpper(line) ||
		titleCaseHeader.MatchString(line) ||
		strings.HasPrefix(line, "##") ||
		strings.HasPrefix(line, "**")
}

// isAllUpper mirrors str.isupper: at least one cased rune and none lower
func isAllUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
