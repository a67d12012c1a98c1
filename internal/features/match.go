package features

import (
	"math"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MatchKeyword reports whether keyword occurs in text on word boundaries,
// case-insensitively. A keyword of several words matches either as an exact
// phrase or when every constituent word occurs somewhere on its own.
func MatchKeyword(text, keyword string) bool {
	return matchNormalized(normalize(text), keyword)
}

func matchNormalized(normalized, keyword string) bool {
	kw := normalize(keyword)
	if kw == "" || normalized == "" {
		return false
	}
	if containsBounded(normalized, kw) {
		return true
	}
	words := strings.Fields(kw)
	if len(words) < 2 {
		return false
	}
	checked := 0
	for _, w := range words {
		if IsStopword(w) {
			continue
		}
		if !containsBounded(normalized, w) {
			return false
		}
		checked++
	}
	// A phrase of stopwords only carries nothing to match on
	return checked > 0
}

// containsBounded finds needle in haystack where the runes immediately
// before and after the match are not letters or digits
func containsBounded(haystack, needle string) bool {
	offset := 0
	for {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(needle)
		if boundaryBefore(haystack, start) && boundaryAfter(haystack, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(haystack[start:])
		offset = start + size
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// TopTerms returns up to n of the most frequent meaningful terms (longer than
// two characters and not purely numeric). Ties resolve alphabetically.
func (fs FeatureSet) TopTerms(n int) []string {
	type termCount struct {
		term  string
		count int
	}
	var counts []termCount
	for term, c := range fs.TermFrequency {
		if utf8.RuneCountInString(term) <= 2 || isNumeric(term) {
			continue
		}
		counts = append(counts, termCount{term, c})
	}
	slices.SortFunc(counts, func(a, b termCount) int {
		if a.count != b.count {
			return b.count - a.count
		}
		return strings.Compare(a.term, b.term)
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	terms := make([]string, len(counts))
	for i, tc := range counts {
		terms[i] = tc.term
	}
	return terms
}

// Similarity is the cosine similarity of two term-frequency vectors
func Similarity(a, b FeatureSet) float64 {
	if len(a.TermFrequency) == 0 || len(b.TermFrequency) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for term, ca := range a.TermFrequency {
		normA += float64(ca * ca)
		if cb, ok := b.TermFrequency[term]; ok {
			dot += float64(ca * cb)
		}
	}
	for _, cb := range b.TermFrequency {
		normB += float64(cb * cb)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return true
}
