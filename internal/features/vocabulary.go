package features

import "regexp"

// Section names of the fixed section vocabulary
const (
	SectionContact        = "contact"
	SectionSummary        = "summary"
	SectionExperience     = "experience"
	SectionEducation      = "education"
	SectionSkills         = "skills"
	SectionCertifications = "certifications"
	SectionProjects       = "projects"
	SectionAchievements   = "achievements"
)

// SectionNames lists the section vocabulary in a stable order
var SectionNames = []string{
	SectionContact,
	SectionSummary,
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionCertifications,
	SectionProjects,
	SectionAchievements,
}

// sectionPatterns detect a section by any of its usual headings or cues
var sectionPatterns = map[string]*regexp.Regexp{
	SectionContact:        regexp.MustCompile(`(?i)contact|phone|email|address|linkedin`),
	SectionSummary:        regexp.MustCompile(`(?i)summary|profile|objective|about`),
	SectionExperience:     regexp.MustCompile(`(?i)experience|employment|work|career|professional`),
	SectionEducation:      regexp.MustCompile(`(?i)education|academic|degree|university|college|school`),
	SectionSkills:         regexp.MustCompile(`(?i)skills|competencies|technical|abilities`),
	SectionCertifications: regexp.MustCompile(`(?i)certification|license|credential`),
	SectionProjects:       regexp.MustCompile(`(?i)projects|portfolio|work samples`),
	SectionAchievements:   regexp.MustCompile(`(?i)achievement|award|recognition|honor`),
}

// FormatSectionWords are the plain section words an ATS parser looks for
var FormatSectionWords = []string{"experience", "education", "skills", "summary", "contact", "objective"}

// AchievementVerbs are verbs that signal a concrete accomplishment
var AchievementVerbs = []string{
	"achieved", "improved", "increased", "decreased", "reduced",
	"delivered", "generated", "saved", "implemented", "developed",
	"created", "launched", "led", "managed", "trained", "supervised",
}

// ActionVerbCategories groups resume action verbs by the skill they signal
var ActionVerbCategories = map[string][]string{
	"leadership":    {"led", "managed", "directed", "supervised", "coordinated", "guided", "mentored", "coached"},
	"achievement":   {"achieved", "accomplished", "delivered", "exceeded", "surpassed", "completed", "finished"},
	"creation":      {"created", "developed", "designed", "built", "established", "founded", "launched", "initiated"},
	"improvement":   {"improved", "enhanced", "optimized", "streamlined", "upgraded", "modernized", "transformed"},
	"analysis":      {"analyzed", "evaluated", "assessed", "investigated", "researched", "examined", "studied"},
	"communication": {"presented", "communicated", "negotiated", "collaborated", "facilitated", "consulted"},
}

// IndustryKeywords is the static keyword table per industry
var IndustryKeywords = map[string][]string{
	"technology": {"python", "java", "javascript", "react", "node.js", "aws", "docker", "kubernetes", "api", "database"},
	"marketing":  {"seo", "sem", "social media", "analytics", "campaign", "brand", "content", "digital", "roi", "conversion"},
	"finance":    {"financial", "accounting", "budget", "audit", "compliance", "risk", "investment", "excel", "modeling"},
	"healthcare": {"patient", "clinical", "medical", "treatment", "diagnosis", "healthcare", "hipaa", "emr", "quality"},
	"sales":      {"sales", "revenue", "quota", "pipeline", "crm", "prospecting", "closing", "relationship", "targets"},
}

// CommonMisspellings maps frequent misspellings to their correction
var CommonMisspellings = map[string]string{
	"recieve":    "receive",
	"seperate":   "separate",
	"definately": "definitely",
	"occured":    "occurred",
	"begining":   "beginning",
	"managment":  "management",
	"enviroment": "environment",
	"sucessful":  "successful",
}

var informalWords = []string{"awesome", "cool", "stuff", "things", "got", "gonna", "wanna"}

var stopwords = map[string]bool{}

func init() {
	for _, w := range []string{
		"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "your", "yours",
		"yourself", "yourselves", "he", "him", "his", "himself", "she", "her", "hers",
		"herself", "it", "its", "itself", "they", "them", "their", "theirs", "themselves",
		"what", "which", "who", "whom", "this", "that", "these", "those", "am", "is", "are",
		"was", "were", "be", "been", "being", "have", "has", "had", "having", "do", "does",
		"did", "doing", "a", "an", "the", "and", "but", "if", "or", "because", "as", "until",
		"while", "of", "at", "by", "for", "with", "about", "against", "between", "into",
		"through", "during", "before", "after", "above", "below", "to", "from", "up", "down",
		"in", "out", "on", "off", "over", "under", "again", "further", "then", "once", "here",
		"there", "when", "where", "why", "how", "all", "any", "both", "each", "few", "more",
		"most", "other", "some", "such", "no", "nor", "not", "only", "own", "same", "so",
		"than", "too", "very", "s", "t", "can", "will", "just", "don", "should", "now",
		"also", "etc", "per", "via", "within", "across", "using", "including",
	} {
		stopwords[w] = true
	}
}

// IsStopword reports whether a lower-cased token is in the stopword set
func IsStopword(token string) bool {
	return stopwords[token]
}

var (
	emailPattern      = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)
	phonePattern      = regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	profileURLPattern = regexp.MustCompile(`(?i)linkedin\.com/in/[\w\-]+`)
	profileMention    = regexp.MustCompile(`(?i)linkedin|github`)

	bulletPattern     = regexp.MustCompile(`•|\*|-\s|\d+\.\s`)
	bulletLinePattern = regexp.MustCompile(`(?m)^\s*(?:•|▪|◦|\*|-|\d+\.)\s`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*[\s\-]*\d{4}\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
		regexp.MustCompile(`\b\d{4}\b`),
	}

	quantifiedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d+%`),
		regexp.MustCompile(`\$\d+`),
		regexp.MustCompile(`\b\d+x\b`),
		regexp.MustCompile(`\b\d+\+?\b`),
	}

	grammarPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bi\s+am\b`),
		regexp.MustCompile(`[ \t]{2,}`),
		regexp.MustCompile(`[.!?]{2,}`),
		regexp.MustCompile(`[ \t]+[.!?]`),
	}

	acronymPattern   = regexp.MustCompile(`\b[A-Z]{2,}\b`)
	titleCaseHeader  = regexp.MustCompile(`^[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*:?$`)
	sentenceBoundary = regexp.MustCompile(`[.!?]+(?:\s+|$)`)
)
