package observability

import (
	"fmt"
	"net/http"

	"resumescore/internal/config"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusConfig holds Prometheus-specific configuration
type PrometheusConfig struct {
	Enabled  bool
	Endpoint string
}

// SetupPrometheusExporter creates a Prometheus reader backed by its own
// registry and the handler that serves it. The handler is mounted on the
// API server at config.Endpoint.
func SetupPrometheusExporter(config PrometheusConfig) (metric.Reader, http.Handler, error) {
	if !config.Enabled {
		return nil, nil, nil
	}

	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return exporter, handler, nil
}

// GetPrometheusConfig creates Prometheus configuration from provided config
func GetPrometheusConfig(cfg *config.Config) PrometheusConfig {
	if cfg != nil {
		endpoint := cfg.Observability.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		return PrometheusConfig{
			Enabled:  cfg.Observability.Prometheus.Enabled,
			Endpoint: endpoint,
		}
	}

	return PrometheusConfig{
		Enabled:  true,
		Endpoint: "/metrics",
	}
}
