package server

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	appErrors "resumescore/internal/errors"
	"resumescore/internal/export"
	"resumescore/internal/extract"
	"resumescore/internal/keywords"
	"resumescore/internal/observability"
	"resumescore/internal/optimize"
	"resumescore/internal/scoring"
	"resumescore/internal/types"
	"resumescore/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "resumescore.api"

// multipartMemory is how much of a multipart body is held in memory
const multipartMemory = 8 << 20

// renderNone disables document rendering on /optimize
const renderNone = "none"

func (s *Server) metrics() *observability.Metrics {
	return s.Observability.GetMetrics()
}

func (s *Server) startSpan(r *http.Request, name string) (*http.Request, trace.Span) {
	ctx, span := s.Observability.Tracer(tracerName).Start(r.Context(), name)
	return r.WithContext(ctx), span
}

// fail records err on the span and writes the error response
func (s *Server) fail(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", string(appErrors.TypeOf(err))))
	s.writeError(w, err)
}

// analyzeHandler scores one uploaded resume
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.analyze")
	defer span.End()
	ctx := r.Context()
	start := time.Now()

	cleanup, err := parseMultipartRequest(r)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	defer cleanup()
	doc, err := s.formDocument(r, "file")
	if err != nil {
		s.fail(w, span, err)
		return
	}
	s.recordDocument(r, doc)

	in := types.AnalyzeTextInput{
		JobDescription: strings.TrimSpace(r.FormValue("job_description")),
		Keywords:       splitList(r.FormValue("keywords")),
		Profession:     strings.TrimSpace(r.FormValue("profession")),
	}
	report, err := s.Services.Analyzer.AnalyzeDocument(ctx, doc, in)
	s.recordAnalysis(r, "analyze", start, report, err)
	if err != nil {
		s.fail(w, span, err)
		return
	}

	span.SetAttributes(
		attribute.String("resume.filename", doc.Filename),
		attribute.Int("resume.size_bytes", len(doc.Data)),
		attribute.Float64("score.overall", report.OverallScore),
	)
	s.writeJSON(w, http.StatusOK, report)
}

// analyzeTextHandler scores resume text posted as JSON
func (s *Server) analyzeTextHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.analyze_text")
	defer span.End()
	start := time.Now()

	var req types.AnalyzeTextInput
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}

	report, err := s.Services.Analyzer.Analyze(r.Context(), req)
	s.recordAnalysis(r, "analyze_text", start, report, err)
	if err != nil {
		s.fail(w, span, err)
		return
	}

	span.SetAttributes(
		attribute.Int("request.text_length", len(req.Text)),
		attribute.Float64("score.overall", report.OverallScore),
	)
	s.writeJSON(w, http.StatusOK, report)
}

// batchAnalyzeHandler scores and ranks up to the batch limit of uploads.
// ?format=xlsx returns the ranking as a workbook.
func (s *Server) batchAnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.batch_analyze")
	defer span.End()
	ctx := r.Context()

	asWorkbook := strings.EqualFold(r.URL.Query().Get("format"), "xlsx")

	cleanup, err := parseMultipartRequest(r)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	defer cleanup()
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.fail(w, span, appErrors.NewValidationError(appErrors.ErrCodeInvalidRequest, "No files provided in the 'files' field", nil))
		return
	}
	if limit := s.Services.Analyzer.MaxBatchSize(); len(headers) > limit {
		s.fail(w, span, appErrors.NewValidationError(appErrors.ErrCodeBatchTooLarge,
			fmt.Sprintf("Maximum %d files allowed per batch, got %d", limit, len(headers)), nil))
		return
	}

	// An unreadable or oversized upload becomes a failed entry
	docs := make([]extract.Document, 0, len(headers))
	var rejected []types.BatchEntry
	for _, fh := range headers {
		doc, err := s.readUpload(fh)
		if err != nil {
			rejected = append(rejected, types.BatchEntry{Filename: fh.Filename, Error: err.Error()})
			continue
		}
		s.recordDocument(r, doc)
		docs = append(docs, doc)
	}

	result, err := s.Services.Analyzer.Batch(ctx, docs, strings.TrimSpace(r.FormValue("job_description")))
	if err != nil {
		s.fail(w, span, err)
		return
	}
	scoring.AddFailures(result, rejected...)
	s.metrics().RecordBatch(ctx, result.TotalAnalyzed, result.Failed)
	span.SetAttributes(
		attribute.Int("batch.size", result.TotalAnalyzed),
		attribute.Int("batch.failed", result.Failed),
	)

	if !asWorkbook {
		s.writeJSON(w, http.StatusOK, result)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBatchWorkbook(&buf, *result); err != nil {
		s.fail(w, span, err)
		return
	}
	s.writeAttachment(w, export.ContentType, "batch-analysis.xlsx", buf.Bytes())
}

// compareHandler analyzes two uploads and reports the winner per category
func (s *Server) compareHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.compare")
	defer span.End()

	cleanup, err := parseMultipartRequest(r)
	if err != nil {
		s.fail(w, span, err)
		return
	}
	defer cleanup()
	first, err := s.formDocument(r, "resume1")
	if err != nil {
		s.fail(w, span, err)
		return
	}
	second, err := s.formDocument(r, "resume2")
	if err != nil {
		s.fail(w, span, err)
		return
	}

	comparison, err := s.Services.Analyzer.CompareDocuments(r.Context(), first, second,
		strings.TrimSpace(r.FormValue("job_description")))
	if err != nil {
		s.fail(w, span, err)
		return
	}

	span.SetAttributes(
		attribute.String("compare.winner", comparison.Winner.Overall),
		attribute.Float64("compare.difference", comparison.OverallDifference),
	)
	s.writeJSON(w, http.StatusOK, comparison)
}

// keywordsHandler returns the taxonomy for a profession
func (s *Server) keywordsHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.keywords")
	defer span.End()

	var req types.KeywordLookupInput
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}

	result, err := s.Services.Keywords.Lookup(r.Context(), req.Profession, req.ExperienceLevel)
	if err != nil {
		s.fail(w, span, err)
		return
	}

	span.SetAttributes(
		attribute.String("keywords.profession", result.Profession),
		attribute.String("keywords.source", result.Source),
	)
	s.writeJSON(w, http.StatusOK, result)
}

// industriesHandler lists what the keyword endpoints know about
func (s *Server) industriesHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"industries":         keywords.Industries(),
		"custom_professions": s.Services.Keywords.CustomProfessions(),
		"experience_levels":  keywords.ExperienceLevels,
	})
}

// industryHandler returns the static keywords of one industry
func (s *Server) industryHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.industry_keywords")
	defer span.End()

	result, err := keywords.Industry(r.PathValue("industry"))
	if err != nil {
		s.fail(w, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// optimizeHandler rewrites a structured resume section by section.
// ?render picks the document format, "none" skips rendering.
func (s *Server) optimizeHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.optimize")
	defer span.End()
	ctx := r.Context()

	var resume types.Resume
	if err := parseJSONRequest(r, &resume); err != nil {
		s.fail(w, span, err)
		return
	}

	format := strings.TrimSpace(r.URL.Query().Get("render"))
	opts := optimize.Options{Format: format, SkipRender: strings.EqualFold(format, renderNone)}

	result, err := s.Services.Optimizer.Optimize(ctx, resume, opts)
	s.metrics().RecordOptimization(ctx, optimizedFailures(result), err)
	if err != nil {
		s.fail(w, span, err)
		return
	}

	span.SetAttributes(
		attribute.Float64("score.ats", result.ATSScore),
		attribute.Int("optimize.failed_sections", len(result.FailedSections)),
		attribute.String("optimize.document_format", result.DocumentFormat),
	)
	s.writeJSON(w, http.StatusOK, result)
}

// renderHandler returns the rendered document bytes
func (s *Server) renderHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.render")
	defer span.End()

	var resume types.Resume
	if err := parseJSONRequest(r, &resume); err != nil {
		s.fail(w, span, err)
		return
	}

	data, renderer, err := s.Services.Renderers.Render(r.URL.Query().Get("format"), resume)
	if err != nil {
		s.fail(w, span, err)
		return
	}

	span.SetAttributes(
		attribute.String("render.content_type", renderer.ContentType()),
		attribute.Int("render.size_bytes", len(data)),
	)
	s.writeAttachment(w, renderer.ContentType(), "resume"+renderer.Extension(), data)
}

// jobMatchHandler compares a structured resume against a job description
func (s *Server) jobMatchHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.job_match")
	defer span.End()

	var req types.JobMatchInput
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		s.fail(w, span, appErrors.NewValidationError(appErrors.ErrCodeInvalidRequest, "job_description field is required", nil))
		return
	}

	result := s.Services.Bridge.JobMatch(r.Context(), req.JobDescription, req.Resume)

	span.SetAttributes(
		attribute.Float64("job_match.score", result.MatchScore),
		attribute.String("job_match.source", result.Source),
	)
	s.writeJSON(w, http.StatusOK, result)
}

// createRateLimitMiddleware counts the requests the limiter rejects
func (s *Server) createRateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	limit := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		limited := limit(next)
		return func(w http.ResponseWriter, r *http.Request) {
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
			limited(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				s.metrics().RecordRateLimitHit(r.Context(), r.URL.Path, r.Method)
			}
		}
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) recordDocument(r *http.Request, doc extract.Document) {
	format := "unknown"
	if f, err := extract.DetectFormat(doc.Filename, doc.Format); err == nil {
		format = string(f)
	}
	s.metrics().RecordDocumentSize(r.Context(), format, len(doc.Data))
}

func (s *Server) recordAnalysis(r *http.Request, operation string, start time.Time, report *types.AnalysisReport, err error) {
	score := 0.0
	if report != nil {
		score = report.OverallScore
	}
	s.metrics().RecordAnalysis(r.Context(), operation, time.Since(start), score, err)
}

func optimizedFailures(result *types.OptimizeResult) []string {
	if result == nil {
		return nil
	}
	return result.FailedSections
}

// parseMultipartRequest parses a multipart form body. The returned func
// removes any temporary files the parse spilled to disk; the server only
// cleans up forms on the request it passed in, not on derived copies.
func parseMultipartRequest(r *http.Request) (func(), error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, appErrors.NewValidationError(appErrors.ErrCodeInvalidRequest, "Request must be multipart/form-data", err)
	}
	return func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}, nil
}

// formDocument reads one uploaded file field
func (s *Server) formDocument(r *http.Request, field string) (extract.Document, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return extract.Document{}, appErrors.NewValidationError(appErrors.ErrCodeInvalidRequest,
			fmt.Sprintf("No file provided in the '%s' field", field), nil)
	}
	return s.readUpload(r.MultipartForm.File[field][0])
}

// readUpload reads an uploaded file, enforcing the configured size limit
func (s *Server) readUpload(fh *multipart.FileHeader) (extract.Document, error) {
	if limit := s.maxFileSize(); limit > 0 && fh.Size > limit {
		return extract.Document{}, appErrors.NewValidationError(appErrors.ErrCodeInvalidRequest,
			fmt.Sprintf("File %s is %s, larger than the %s limit",
				fh.Filename, utils.FormatFileSize(fh.Size), utils.FormatFileSize(limit)), nil)
	}

	f, err := fh.Open()
	if err != nil {
		return extract.Document{}, appErrors.NewIOError(appErrors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read upload %s", fh.Filename), err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return extract.Document{}, appErrors.NewIOError(appErrors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read upload %s", fh.Filename), err)
	}
	return extract.Document{Filename: fh.Filename, Data: data}, nil
}

func (s *Server) maxFileSize() int64 {
	if s.AppConfig == nil {
		return 0
	}
	return s.AppConfig.App.MaxFileSize
}

// splitList splits a comma separated form value, dropping blanks
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
