package observability

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/llm"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Metrics holds all custom instruments. Every method is safe on a nil
// *Metrics and on instruments that were never created.
type Metrics struct {
	// LLM calls
	LLMDuration  metric.Float64Histogram
	LLMRequests  metric.Int64Counter
	LLMErrors    metric.Int64Counter
	LLMTokens    metric.Int64Histogram
	LLMFallbacks metric.Int64Counter

	// Business metrics
	Analyses         metric.Int64Counter
	AnalysisDuration metric.Float64Histogram
	OverallScores    metric.Float64Histogram
	BatchSizes       metric.Int64Histogram
	Optimizations    metric.Int64Counter
	FailedSections   metric.Int64Counter
	DocumentSizes    metric.Int64Histogram

	// Rate limiting
	RateLimitHits metric.Int64Counter

	custom customFlags
}

type customFlags struct {
	llm, duration, tokens, fallbacks bool
	business, scores, sizes          bool
	rateLimits                       bool
}

// ObservabilityManager manages OpenTelemetry setup
type ObservabilityManager struct {
	config         ObservabilityConfig
	resource       *resource.Resource
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	metricsHandler http.Handler
	shutdownFuncs  []func(context.Context) error
}

// NewObservabilityManager creates a new observability manager. A disabled
// config yields a manager whose tracer and metrics are no-ops.
func NewObservabilityManager(obsConfig ObservabilityConfig) (*ObservabilityManager, error) {
	if !obsConfig.Enabled {
		return &ObservabilityManager{config: obsConfig}, nil
	}

	om := &ObservabilityManager{config: obsConfig}

	if err := om.initResource(); err != nil {
		return nil, fmt.Errorf("failed to initialize resource: %w", err)
	}
	if err := om.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := om.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return om, nil
}

func (om *ObservabilityManager) initResource() error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
			attribute.String("service.instance.id", om.serviceInstanceID()),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}
	om.resource = res
	return nil
}

func (om *ObservabilityManager) initTracing() error {
	var exporter trace.SpanExporter
	var err error

	switch {
	case om.config.ConsoleOutput:
		opts := []stdouttrace.Option{}
		if om.config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	case om.config.OTLP.Enabled:
		exporter, err = om.createOTLPExporter()
	default:
		exporter = &noOpSpanExporter{}
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(om.resource),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(om.config.SampleRate))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)
	return nil
}

func (om *ObservabilityManager) initMetrics() error {
	readers, err := om.setupMetricReaders()
	if err != nil {
		return err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(om.resource)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}
	mp := sdkmetric.NewMeterProvider(opts...)

	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	metrics, err := NewMetrics(mp.Meter(om.config.ServiceName), om.config)
	if err != nil {
		return err
	}
	om.metrics = metrics
	return nil
}

func (om *ObservabilityManager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if om.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(om.config.Interval)))
	}

	if om.config.OTLP.Enabled {
		reader, err := om.createOTLPMetricsReader()
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics reader: %w", err)
		}
		readers = append(readers, reader)
	}

	reader, handler, err := SetupPrometheusExporter(om.config.Prometheus)
	if err != nil {
		return nil, err
	}
	if reader != nil {
		readers = append(readers, reader)
		om.metricsHandler = handler
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}
	return readers, nil
}

// NewMetrics creates every instrument on meter. The custom metric flags of
// cfg decide which groups are recorded.
func NewMetrics(meter metric.Meter, cfg ObservabilityConfig) (*Metrics, error) {
	m := &Metrics{custom: flagsFrom(cfg)}
	var err error

	histogram := func(name, desc, unit string) metric.Float64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Float64Histogram
		h, err = meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit))
		return h
	}
	intHistogram := func(name, desc, unit string) metric.Int64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Int64Histogram
		h, err = meter.Int64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit))
		return h
	}
	counter := func(name, desc string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(desc))
		return c
	}

	m.LLMDuration = histogram("resumescore_llm_call_duration_seconds", "Time spent waiting for language model responses", "s")
	m.LLMRequests = counter("resumescore_llm_requests_total", "Total number of language model calls")
	m.LLMErrors = counter("resumescore_llm_errors_total", "Total number of failed language model calls")
	m.LLMTokens = intHistogram("resumescore_llm_token_usage", "Token usage per language model call", "tokens")
	m.LLMFallbacks = counter("resumescore_llm_fallbacks_total", "Times a default value or fallback model was used")

	m.Analyses = counter("resumescore_analyses_total", "Total number of resume analyses")
	m.AnalysisDuration = histogram("resumescore_analysis_duration_seconds", "Time spent analyzing resumes", "s")
	m.OverallScores = histogram("resumescore_overall_score", "Distribution of overall resume scores", "")
	m.BatchSizes = intHistogram("resumescore_batch_size", "Number of documents per batch analysis", "")
	m.Optimizations = counter("resumescore_optimizations_total", "Total number of resume optimizations")
	m.FailedSections = counter("resumescore_optimize_failed_sections_total", "Sections that kept their original content")
	m.DocumentSizes = intHistogram("resumescore_document_size_bytes", "Size of analyzed documents", "By")

	m.RateLimitHits = counter("resumescore_rate_limit_hits_total", "Total number of rate limit hits")

	if err != nil {
		return nil, fmt.Errorf("failed to create metric: %w", err)
	}
	return m, nil
}

func flagsFrom(cfg ObservabilityConfig) customFlags {
	c := cfg.Custom
	// A zero config (tests, defaults not loaded) records everything
	if c == (config.CustomMetricsConfig{}) {
		return customFlags{
			llm: true, duration: true, tokens: true, fallbacks: true,
			business: true, scores: true, sizes: true, rateLimits: true,
		}
	}
	return customFlags{
		llm:        c.AIOperations.Enabled,
		duration:   c.AIOperations.TrackDuration,
		tokens:     c.AIOperations.TrackTokenUsage,
		fallbacks:  c.AIOperations.TrackFallbacks,
		business:   c.BusinessMetrics.Enabled,
		scores:     c.BusinessMetrics.TrackScores,
		sizes:      c.BusinessMetrics.TrackContentSizes,
		rateLimits: c.Infrastructure.Enabled && c.Infrastructure.TrackRateLimits,
	}
}

// GetMetrics returns the metrics instance, or nil when disabled
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om == nil {
		return nil
	}
	return om.metrics
}

// MetricsHandler serves the Prometheus registry, or nil when disabled
func (om *ObservabilityManager) MetricsHandler() http.Handler {
	if om == nil {
		return nil
	}
	return om.metricsHandler
}

// MetricsEndpoint is the path MetricsHandler should be mounted on
func (om *ObservabilityManager) MetricsEndpoint() string {
	if om == nil || om.config.Prometheus.Endpoint == "" {
		return "/metrics"
	}
	return om.config.Prometheus.Endpoint
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if om == nil || !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	return otelhttp.NewMiddleware(
		om.config.ServiceName,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
	)
}

// Tracer returns a tracer for the service
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if om == nil || !om.config.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown flushes and stops every exporter
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	if om == nil {
		return nil
	}
	for _, shutdown := range om.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RecordLLMCall records one provider call. It satisfies llm.Recorder.
func (m *Metrics) RecordLLMCall(ctx context.Context, operation, provider, model string, duration time.Duration, usage *llm.TokenUsage, err error) {
	if m == nil || !m.custom.llm || m.LLMRequests == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("provider", provider),
		attribute.String("model", model),
		attribute.Bool("success", err == nil),
	}
	opt := metric.WithAttributes(attrs...)

	m.LLMRequests.Add(ctx, 1, opt)
	if err != nil {
		m.LLMErrors.Add(ctx, 1, opt)
	}
	if m.custom.duration {
		m.LLMDuration.Record(ctx, duration.Seconds(), opt)
	}
	if m.custom.tokens && usage != nil {
		m.recordTokens(ctx, usage, attrs)
	}

	if span := oteltrace.SpanFromContext(ctx); span.IsRecording() && usage != nil {
		span.SetAttributes(
			attribute.Int64("llm.tokens.input", usage.InputTokens),
			attribute.Int64("llm.tokens.output", usage.OutputTokens),
			attribute.Int64("llm.tokens.total", usage.TotalTokens),
		)
	}
}

func (m *Metrics) recordTokens(ctx context.Context, usage *llm.TokenUsage, attrs []attribute.KeyValue) {
	tokenTypes := []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	}
	for _, tt := range tokenTypes {
		tokenAttrs := append(attrs[:len(attrs):len(attrs)], attribute.String("token_type", tt.tokenType))
		m.LLMTokens.Record(ctx, tt.value, metric.WithAttributes(tokenAttrs...))
	}
}

// RecordFallback counts a default or fallback-model use. It satisfies
// llm.Recorder.
func (m *Metrics) RecordFallback(ctx context.Context, operation, reason string) {
	if m == nil || !m.custom.llm || !m.custom.fallbacks || m.LLMFallbacks == nil {
		return
	}
	m.LLMFallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("reason", reason),
	))
}

// RecordAnalysis records one analysis. score is ignored when err is set.
func (m *Metrics) RecordAnalysis(ctx context.Context, operation string, duration time.Duration, score float64, err error) {
	if m == nil || !m.custom.business || m.Analyses == nil {
		return
	}
	opt := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	)
	m.Analyses.Add(ctx, 1, opt)
	m.AnalysisDuration.Record(ctx, duration.Seconds(), opt)
	if err == nil && m.custom.scores {
		m.OverallScores.Record(ctx, score, metric.WithAttributes(attribute.String("operation", operation)))
	}
}

// RecordDocumentSize records the size of an uploaded document
func (m *Metrics) RecordDocumentSize(ctx context.Context, format string, size int) {
	if m == nil || !m.custom.business || !m.custom.sizes || m.DocumentSizes == nil {
		return
	}
	m.DocumentSizes.Record(ctx, int64(size), metric.WithAttributes(attribute.String("format", format)))
}

// RecordBatch records the size and failures of a batch analysis
func (m *Metrics) RecordBatch(ctx context.Context, size, failed int) {
	if m == nil || !m.custom.business || m.BatchSizes == nil {
		return
	}
	m.BatchSizes.Record(ctx, int64(size), metric.WithAttributes(attribute.Int("failed", failed)))
}

// RecordOptimization records one optimization run
func (m *Metrics) RecordOptimization(ctx context.Context, failedSections []string, err error) {
	if m == nil || !m.custom.business || m.Optimizations == nil {
		return
	}
	m.Optimizations.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", err == nil)))
	for _, section := range failedSections {
		m.FailedSections.Add(ctx, 1, metric.WithAttributes(attribute.String("section", section)))
	}
}

// RecordRateLimitHit counts a rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context, endpoint, method string) {
	if m == nil || !m.custom.rateLimits || m.RateLimitHits == nil {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("method", method),
	))
}

type noOpSpanExporter struct{}

func (n *noOpSpanExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (n *noOpSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

func (om *ObservabilityManager) createOTLPExporter() (trace.SpanExporter, error) {
	otlp := om.config.OTLP
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(otlp.Endpoint)}
	if otlp.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlp.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlp.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}

func (om *ObservabilityManager) createOTLPMetricsReader() (sdkmetric.Reader, error) {
	otlp := om.config.OTLP
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(otlp.Endpoint)}
	if otlp.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlp.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlp.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(om.config.Interval)), nil
}

func (om *ObservabilityManager) serviceInstanceID() string {
	if om.config.ServiceInstance != "" {
		return om.config.ServiceInstance
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "resumescore-1"
}
