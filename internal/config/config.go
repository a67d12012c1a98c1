package config

import (
	"fmt"
	"log"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported AI providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Config holds all application configuration
// Secret precedence order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (RESUMESCORE_AI_APIKEY, etc.)
// 4. Default values - Lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Scoring       ScoringConfig       `mapstructure:"scoring"`
	Extract       ExtractConfig       `mapstructure:"extract"`
	Keywords      KeywordsConfig      `mapstructure:"keywords"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds LLM configuration. Provider "none" disables every LLM
// call and leaves the heuristic path in charge.
type AIConfig struct {
	Provider         string               `mapstructure:"provider"`
	APIKey           string               `mapstructure:"apiKey"`
	BaseURL          string               `mapstructure:"baseURL"`
	Models           []string             `mapstructure:"models"`
	Timeout          time.Duration        `mapstructure:"timeout"`
	Temperature      float32              `mapstructure:"temperature"`
	MaxTokens        int                  `mapstructure:"maxTokens"`
	SystemPrompt     string               `mapstructure:"systemPrompt"`
	UseSystemPrompts bool                 `mapstructure:"useSystemPrompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
	Prompts          PromptConfig         `mapstructure:"prompts"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// PromptConfig holds per-operation prompt overrides. Each operation accepts
// an inline template or a file path; a file wins over the inline value.
type PromptConfig struct {
	ProfessionKeywords     string `mapstructure:"professionKeywords"`
	ProfessionKeywordsFile string `mapstructure:"professionKeywordsFile"`
	ImprovementNotes       string `mapstructure:"improvementNotes"`
	ImprovementNotesFile   string `mapstructure:"improvementNotesFile"`
	ATSScore               string `mapstructure:"atsScore"`
	ATSScoreFile           string `mapstructure:"atsScoreFile"`
	OptimizeSection        string `mapstructure:"optimizeSection"`
	OptimizeSectionFile    string `mapstructure:"optimizeSectionFile"`
	Insights               string `mapstructure:"insights"`
	InsightsFile           string `mapstructure:"insightsFile"`
	JobMatch               string `mapstructure:"jobMatch"`
	JobMatchFile           string `mapstructure:"jobMatchFile"`

	// Loaded holds file contents keyed by operation name once
	// loadPromptsFromFiles has run
	Loaded map[string]string `mapstructure:"-"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize"`

	// TLS is enabled when both files are set
	TLS TLSConfig `mapstructure:"tls"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds the server certificate files
type TLSConfig struct {
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// Enabled reports whether the server should listen with TLS
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool          `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool          `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
	Window         time.Duration `mapstructure:"window"`         // Rate limiting window duration
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ScoringConfig selects the weight scheme and analysis limits
type ScoringConfig struct {
	WeightScheme  string             `mapstructure:"weightScheme"`
	Weights       map[string]float64 `mapstructure:"weights"`
	MinTextLength int                `mapstructure:"minTextLength"`
	MaxBatchSize  int                `mapstructure:"maxBatchSize"`
	Workers       int                `mapstructure:"workers"`
}

// ExtractConfig holds document extraction settings
type ExtractConfig struct {
	UnidocLicenseKey string `mapstructure:"unidocLicenseKey"`
}

// KeywordsConfig points at an optional custom taxonomy file
type KeywordsConfig struct {
	TaxonomyFile string        `mapstructure:"taxonomyFile"`
	Watch        bool          `mapstructure:"watch"`
	Debounce     time.Duration `mapstructure:"debounce"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Tracing         TracingConfig       `mapstructure:"tracing"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	AIOperations    AIOperationsMetricsConfig   `mapstructure:"aiOperations"`
	BusinessMetrics BusinessMetricsConfig       `mapstructure:"businessMetrics"`
	Infrastructure  InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// AIOperationsMetricsConfig holds AI operation metrics configuration
type AIOperationsMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackDuration   bool `mapstructure:"trackDuration"`
	TrackTokenUsage bool `mapstructure:"trackTokenUsage"`
	TrackFallbacks  bool `mapstructure:"trackFallbacks"`
}

// BusinessMetricsConfig holds business metrics configuration
type BusinessMetricsConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	TrackScores       bool `mapstructure:"trackScores"`
	TrackContentSizes bool `mapstructure:"trackContentSizes"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	return LoadConfigWith(viper.New())
}

// LoadConfigWith loads configuration through v, which may already carry
// bound command line flags or an explicit config file
func LoadConfigWith(v *viper.Viper) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	v.SetEnvPrefix("RESUMESCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Println("[CONFIG] Configured environment variable handling with prefix 'RESUMESCORE'")

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/resumescore")
		v.AddConfigPath("/etc/resumescore/")
		log.Println("[CONFIG] Configured config file search paths: ., $HOME/.config/resumescore, /etc/resumescore/")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	log.Println("[CONFIG] Successfully unmarshaled configuration")

	config.applyFallbacks()
	log.Println("[CONFIG] Applied configuration fallbacks and environment variable overrides")

	config.logConfigurationSources(configFileUsed)

	if err := config.validatePromptFiles(); err != nil {
		return nil, fmt.Errorf("prompt file validation failed: %w", err)
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case ProviderNone:
	case ProviderGemini, ProviderOpenAI:
		if c.AI.Timeout <= 0 {
			return fmt.Errorf("AI timeout must be positive")
		}
		if len(c.AI.Models) == 0 {
			return fmt.Errorf("at least one AI model is required for provider %s", c.AI.Provider)
		}
	default:
		return fmt.Errorf("invalid AI provider: %s (must be 'gemini', 'openai' or 'none')", c.AI.Provider)
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if (c.Server.TLS.CertFile == "") != (c.Server.TLS.KeyFile == "") {
		return fmt.Errorf("TLS requires both certFile and keyFile")
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if c.Scoring.MinTextLength < 0 {
		return fmt.Errorf("scoring.minTextLength must not be negative")
	}
	if c.Scoring.MaxBatchSize <= 0 {
		return fmt.Errorf("scoring.maxBatchSize must be positive")
	}
	if c.Scoring.Workers <= 0 {
		return fmt.Errorf("scoring.workers must be positive")
	}
	if len(c.Scoring.Weights) > 0 {
		var sum float64
		for category, w := range c.Scoring.Weights {
			if w < 0 {
				return fmt.Errorf("scoring weight for %s must not be negative", category)
			}
			sum += w
		}
		if math.Abs(sum-1) > 1e-6 {
			return fmt.Errorf("scoring weights must sum to 1, got %.4f", sum)
		}
	}

	return nil
}

// LLMEnabled reports whether an LLM provider is configured and usable.
// Gemini needs an API key; OpenAI-compatible endpoints such as a local
// Ollama may run with only a base URL.
func (c *Config) LLMEnabled() bool {
	if len(c.AI.Models) == 0 {
		return false
	}
	switch c.AI.Provider {
	case ProviderGemini:
		return c.AI.APIKey != ""
	case ProviderOpenAI:
		return c.AI.APIKey != "" || c.AI.BaseURL != ""
	}
	return false
}
