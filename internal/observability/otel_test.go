package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ llm.Recorder = (*Metrics)(nil)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestDisabledManagerIsNoop(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{Enabled: false})
	require.NoError(t, err)

	assert.Nil(t, om.GetMetrics())
	assert.Nil(t, om.MetricsHandler())
	assert.Equal(t, "/metrics", om.MetricsEndpoint())

	// nil metrics accept every call
	m := om.GetMetrics()
	m.RecordLLMCall(context.Background(), "insights", "gemini", "m", time.Second, nil, nil)
	m.RecordFallback(context.Background(), "insights", "model_error")
	m.RecordAnalysis(context.Background(), "analyze", time.Second, 80, nil)
	m.RecordRateLimitHit(context.Background(), "/analyze", http.MethodPost)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	om.HTTPMiddleware()(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	assert.NoError(t, om.Shutdown(context.Background()))
}

func TestPrometheusEndpointExposesMetrics(t *testing.T) {
	cfg := ObservabilityConfig{
		ServiceName:    "resumescore-test",
		ServiceVersion: "test",
		Enabled:        true,
		SampleRate:     1,
		Interval:       time.Minute,
		Prometheus:     PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
	}
	om, err := NewObservabilityManager(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = om.Shutdown(context.Background()) })

	m := om.GetMetrics()
	require.NotNil(t, m)

	ctx := context.Background()
	m.RecordLLMCall(ctx, "ats_score", "openai", "llama3-70b-8192", 200*time.Millisecond,
		&llm.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil)
	m.RecordLLMCall(ctx, "ats_score", "openai", "llama3-70b-8192", time.Second, nil, errors.New("boom"))
	m.RecordFallback(ctx, "ats_score", "unparseable")
	m.RecordAnalysis(ctx, "analyze", 50*time.Millisecond, 82.5, nil)
	m.RecordBatch(ctx, 3, 1)
	m.RecordOptimization(ctx, []string{"skills"}, nil)

	h := om.MetricsHandler()
	require.NotNil(t, h)
	body := scrape(t, h)

	for _, name := range []string{
		"resumescore_llm_requests_total",
		"resumescore_llm_errors_total",
		"resumescore_llm_fallbacks_total",
		"resumescore_analyses_total",
		"resumescore_optimize_failed_sections_total",
	} {
		assert.Contains(t, body, name)
	}
}

func TestCustomMetricFlags(t *testing.T) {
	custom := config.CustomMetricsConfig{
		AIOperations: config.AIOperationsMetricsConfig{Enabled: true, TrackDuration: true},
	}
	flags := flagsFrom(ObservabilityConfig{Custom: custom})
	assert.True(t, flags.llm)
	assert.True(t, flags.duration)
	assert.False(t, flags.tokens)
	assert.False(t, flags.business)
	assert.False(t, flags.rateLimits)

	all := flagsFrom(ObservabilityConfig{})
	assert.True(t, all.business && all.rateLimits && all.fallbacks)
}

func TestGetObservabilityConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.Enabled = true
	cfg.Observability.ServiceName = "resumescore"
	cfg.Observability.SampleRate = 1
	cfg.Observability.Tracing.SampleRate = 0.25
	cfg.Observability.Prometheus.Enabled = true

	got := GetObservabilityConfig(cfg, "1.2.3")
	assert.Equal(t, "1.2.3", got.ServiceVersion)
	assert.Equal(t, 0.25, got.SampleRate)
	assert.Equal(t, 15*time.Second, got.Interval)
	assert.Equal(t, "/metrics", got.Prometheus.Endpoint)

	fallback := GetObservabilityConfig(nil, "dev")
	assert.False(t, fallback.Enabled)
	assert.Equal(t, "resumescore", fallback.ServiceName)
}
