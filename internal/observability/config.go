package observability

import (
	"time"

	"resumescore/internal/config"
)

// ObservabilityConfig holds configuration for observability
type ObservabilityConfig struct {
	ServiceName     string
	ServiceVersion  string
	ServiceInstance string
	Enabled         bool
	ConsoleOutput   bool
	PrettyPrint     bool
	SampleRate      float64
	Interval        time.Duration
	Prometheus      PrometheusConfig
	OTLP            config.OTLPConfig
	Custom          config.CustomMetricsConfig
}

// GetObservabilityConfig creates observability config from provided config
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:    "resumescore",
			ServiceVersion: version,
			Enabled:        false,
			SampleRate:     1.0,
			Interval:       15 * time.Second,
			Prometheus:     GetPrometheusConfig(nil),
		}
	}

	obs := cfg.Observability

	serviceVersion := obs.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}
	sampleRate := obs.SampleRate
	if obs.Tracing.SampleRate > 0 && obs.Tracing.SampleRate < sampleRate {
		sampleRate = obs.Tracing.SampleRate
	}
	interval := obs.Metrics.CollectionInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return ObservabilityConfig{
		ServiceName:     obs.ServiceName,
		ServiceVersion:  serviceVersion,
		ServiceInstance: obs.ServiceInstance,
		Enabled:         obs.Enabled,
		ConsoleOutput:   obs.ConsoleOutput || obs.Console.Enabled,
		PrettyPrint:     obs.Console.PrettyPrint,
		SampleRate:      sampleRate,
		Interval:        interval,
		Prometheus:      GetPrometheusConfig(cfg),
		OTLP:            obs.OTLP,
		Custom:          obs.CustomMetrics,
	}
}
