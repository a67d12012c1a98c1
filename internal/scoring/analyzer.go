package scoring

import (
	"context"
	"fmt"
	"time"

	"resumescore/internal/errors"
	"resumescore/internal/extract"
	"resumescore/internal/features"
	"resumescore/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Analysis methods reported in AnalysisReport.AnalysisMethod
const (
	MethodHeuristic    = "heuristic"
	MethodHeuristicLLM = "heuristic+llm"
)

// Keyword sources reported in Metrics.KeywordSource
const (
	KeywordSourceExplicit       = "explicit"
	KeywordSourceJobDescription = "job_description"
)

const (
	// DefaultMaxBatchSize bounds the number of documents in one batch
	DefaultMaxBatchSize = 10
	maxInsights         = 3
	jobKeywordCount     = 20
)

// DocumentExtractor turns an uploaded document into text
type DocumentExtractor interface {
	Extract(ctx context.Context, doc extract.Document) (string, error)
}

// Insighter produces short improvement suggestions for resume text
type Insighter interface {
	Insights(ctx context.Context, text string) ([]string, error)
}

// KeywordProvider resolves the keyword taxonomy for a profession
type KeywordProvider interface {
	Lookup(ctx context.Context, profession, experienceLevel string) (types.KeywordLookupResult, error)
}

// Config wires an Analyzer. Only Extractor is required for document input;
// nil Insighter and Keywords disable those enhancements.
type Config struct {
	Scheme        WeightScheme
	MinTextLength int
	MaxBatchSize  int

	Extractor DocumentExtractor
	Insighter Insighter
	Keywords  KeywordProvider

	// Clock and NewID default to time.Now and uuid.NewString
	Clock func() time.Time
	NewID func() string
}

// Analyzer runs the scoring pipeline
type Analyzer struct {
	scheme        WeightScheme
	minTextLength int
	maxBatchSize  int
	extractor     DocumentExtractor
	insighter     Insighter
	keywords      KeywordProvider
	now           func() time.Time
	newID         func() string
	logger        *errors.Logger
}

// NewAnalyzer creates an Analyzer from cfg
func NewAnalyzer(cfg Config, logger *errors.Logger) *Analyzer {
	a := &Analyzer{
		scheme:        cfg.Scheme,
		minTextLength: cfg.MinTextLength,
		maxBatchSize:  cfg.MaxBatchSize,
		extractor:     cfg.Extractor,
		insighter:     cfg.Insighter,
		keywords:      cfg.Keywords,
		now:           cfg.Clock,
		newID:         cfg.NewID,
		logger:        logger,
	}
	if a.scheme.Weights == nil {
		a.scheme = Balanced
	}
	if a.minTextLength <= 0 {
		a.minTextLength = extract.DefaultMinTextLength
	}
	if a.maxBatchSize <= 0 {
		a.maxBatchSize = DefaultMaxBatchSize
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.newID == nil {
		a.newID = uuid.NewString
	}
	return a
}

// Scheme returns the weight scheme in use
func (a *Analyzer) Scheme() WeightScheme {
	return a.scheme
}

// MaxBatchSize returns the largest accepted batch
func (a *Analyzer) MaxBatchSize() int {
	return a.maxBatchSize
}

// targets are the keywords a resume is measured against
type targets struct {
	keywords        []string
	experienceTerms []string
	source          string
}

// Analyze scores resume text. Only input validation fails the call; keyword
// lookup and insight failures degrade to the heuristic result.
func (a *Analyzer) Analyze(ctx context.Context, in types.AnalyzeTextInput) (*types.AnalysisReport, error) {
	ctx, span := otel.Tracer("resumescore.scoring").Start(ctx, "scoring.analyze")
	defer span.End()

	if err := extract.ValidateText(in.Text, a.minTextLength); err != nil {
		span.RecordError(err)
		return nil, err
	}
	start := a.now()

	fs := features.Extract(in.Text)
	tg := a.resolveTargets(ctx, in)

	keywordScore, match := ScoreKeywords(fs, tg.keywords)
	subscores := []SubScore{
		ScoreFormat(fs, in.Filename),
		keywordScore,
		ScoreContent(fs, tg.experienceTerms),
		ScoreGrammar(fs),
		ScoreStructure(fs),
	}
	result := Aggregate(subscores, a.scheme)

	method := MethodHeuristic
	insights := a.insights(ctx, in.Text)
	if len(insights) > 0 {
		method = MethodHeuristicLLM
	}

	similarity := 0.5
	if in.JobDescription != "" {
		similarity = round(features.Similarity(fs, features.Extract(in.JobDescription)), 3)
	}
	industry, _ := fs.DominantIndustry()

	end := a.now()
	report := &types.AnalysisReport{
		ID:             a.newID(),
		Filename:       in.Filename,
		OverallScore:   result.Overall,
		ScoreLevel:     result.Level.Name,
		ScoreColor:     result.Level.Color,
		WeightScheme:   a.scheme.Name,
		DetailedScores: result.Percentages,
		Feedback:       result.Feedback,
		WordCount:      fs.WordCount,
		Metrics: types.Metrics{
			WordCount:            fs.WordCount,
			SentenceCount:        fs.SentenceCount,
			AvgSentenceLength:    round(fs.AvgSentenceLength, 1),
			ReadabilityScore:     round(fs.Readability, 1),
			TextSimilarityToJob:  similarity,
			KeywordsFound:        match.Found,
			KeywordsMissing:      match.Missing,
			DominantIndustry:     industry,
			AnalysisTimeSeconds:  round(end.Sub(start).Seconds(), 3),
			KeywordSource:        tg.source,
			ActionVerbCategories: fs.ActionVerbCategoriesFound(),
		},
		AnalysisMethod:    method,
		AIInsights:        insights,
		AnalysisTimestamp: end.UTC(),
	}

	span.SetAttributes(
		attribute.Float64("score.overall", report.OverallScore),
		attribute.String("score.level", report.ScoreLevel),
		attribute.String("analysis.method", method),
		attribute.Int("input.word_count", fs.WordCount),
	)
	if a.logger != nil {
		a.logger.Debug("Resume analyzed",
			"id", report.ID,
			"filename", in.Filename,
			"overall_score", report.OverallScore,
			"level", report.ScoreLevel,
			"keyword_source", tg.source,
			"method", method)
	}
	return report, nil
}

// AnalyzeDocument extracts the document text and analyzes it
func (a *Analyzer) AnalyzeDocument(ctx context.Context, doc extract.Document, in types.AnalyzeTextInput) (*types.AnalysisReport, error) {
	if a.extractor == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "no document extractor configured", nil)
	}
	text, err := a.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}
	in.Text = text
	if in.Filename == "" {
		in.Filename = doc.Filename
	}
	return a.Analyze(ctx, in)
}

// resolveTargets picks explicit keywords first, then the profession
// taxonomy, then the most frequent job-description terms
func (a *Analyzer) resolveTargets(ctx context.Context, in types.AnalyzeTextInput) targets {
	if kws := dedupe(in.Keywords); len(kws) > 0 {
		return targets{keywords: kws, source: KeywordSourceExplicit}
	}
	if in.Profession != "" && a.keywords != nil {
		res, err := a.keywords.Lookup(ctx, in.Profession, "")
		if err == nil && !res.Keywords.IsEmpty() {
			return targets{
				keywords:        res.Keywords.All(),
				experienceTerms: res.Keywords.ExperienceTerms,
				source:          res.Source,
			}
		}
		if err != nil && a.logger != nil {
			a.logger.Warn("Keyword lookup failed, continuing without taxonomy",
				"profession", in.Profession, "error", err.Error())
		}
	}
	if in.JobDescription != "" {
		if terms := features.Extract(in.JobDescription).TopTerms(jobKeywordCount); len(terms) > 0 {
			return targets{keywords: terms, source: KeywordSourceJobDescription}
		}
	}
	return targets{}
}

func (a *Analyzer) insights(ctx context.Context, text string) []string {
	if a.insighter == nil {
		return nil
	}
	insights, err := a.insighter.Insights(ctx, text)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("AI insights unavailable, using heuristic analysis only", "error", err.Error())
		}
		return nil
	}
	var out []string
	for _, s := range insights {
		if s != "" {
			out = append(out, s)
		}
		if len(out) == maxInsights {
			break
		}
	}
	return out
}

func batchTooLarge(n, limit int) error {
	return errors.NewValidationError(errors.ErrCodeBatchTooLarge,
		fmt.Sprintf("Maximum %d files allowed per batch, got %d", limit, n), nil)
}
