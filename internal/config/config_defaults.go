package config

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultGeminiModels is the Gemini model preference list
var DefaultGeminiModels = []string{"gemini-2.0-flash", "gemini-1.5-flash"}

// DefaultOpenAIModels is the preference list used for OpenAI-compatible
// endpoints such as Groq
var DefaultOpenAIModels = []string{
	"llama-3.1-70b-versatile",
	"llama-3.1-8b-instant",
	"mixtral-8x7b-32768",
	"gemma2-9b-it",
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration
	v.SetDefault("ai.provider", ProviderGemini)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.baseURL", "")
	v.SetDefault("ai.models", []string{})
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.temperature", 0.1)
	v.SetDefault("ai.maxTokens", 2000)
	v.SetDefault("ai.systemPrompt", "")
	v.SetDefault("ai.useSystemPrompts", true)

	// Circuit Breaker Configuration
	v.SetDefault("ai.circuitBreaker.enabled", true)
	v.SetDefault("ai.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 120*time.Second) // optimize runs several LLM calls
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 32<<20)
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	// API Authentication defaults
	v.SetDefault("server.apiKeys", []string{})
	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 10*1024*1024) // 10MB

	// Scoring Configuration
	v.SetDefault("scoring.weightScheme", "balanced")
	v.SetDefault("scoring.weights", map[string]float64{})
	v.SetDefault("scoring.minTextLength", 50)
	v.SetDefault("scoring.maxBatchSize", 10)
	v.SetDefault("scoring.workers", 4)

	// Extraction
	v.SetDefault("extract.unidocLicenseKey", "")

	// Keyword taxonomy
	v.SetDefault("keywords.taxonomyFile", "")
	v.SetDefault("keywords.watch", false)
	v.SetDefault("keywords.debounce", time.Second)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.pollInterval", time.Duration(0))
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.aiKey", "")
	v.SetDefault("vault.secrets.unidocKey", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "resumescore")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	// Tracing Configuration
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	// Metrics Configuration
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Custom Metrics Configuration
	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackFallbacks", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackScores", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackContentSizes", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)

	// Console Configuration
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
