package server

import (
	"sync"
	"time"

	"resumescore/internal/common"
	"resumescore/internal/config"
	appErrors "resumescore/internal/errors"
	"resumescore/internal/observability"
)

// ErrorBody is the payload of every error response
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// API Authentication, replaceable at runtime by the Vault key watcher
	keysMu  sync.RWMutex
	apiKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Services      *common.Services
	Observability *observability.ObservabilityManager
	keyWatcher    *APIKeyWatcher

	// Logger
	Logger *appErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance. om may be nil.
func NewServer(appCfg *config.Config, services *common.Services, om *observability.ObservabilityManager, cfg ServerConfig, logger *appErrors.Logger) *Server {
	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	s := &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Services:       services,
		Observability:  om,
		Logger:         logger,
	}
	s.SetAPIKeys(cfg.APIKeys)
	return s
}

// SetAPIKeys replaces the accepted API keys. An empty set disables auth.
func (s *Server) SetAPIKeys(keys []string) {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	s.keysMu.Lock()
	s.apiKeys = apiKeyMap
	s.keysMu.Unlock()
}

// APIKeyCount returns the number of accepted API keys
func (s *Server) APIKeyCount() int {
	s.keysMu.RLock()
	defer s.keysMu.RUnlock()
	return len(s.apiKeys)
}

func (s *Server) validAPIKey(key string) bool {
	s.keysMu.RLock()
	defer s.keysMu.RUnlock()
	return s.apiKeys[key]
}
