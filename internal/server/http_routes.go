package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Handler returns the fully wrapped API handler
func (s *Server) Handler() http.Handler {
	return s.requestIDMiddleware(s.Observability.HTTPMiddleware()(s.setupRoutes()))
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	rateLimitHandler := s.createRateLimitMiddleware()
	requestLimitHandler := s.requestSizeLimitMiddleware()
	protect := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimitHandler(s.authMiddleware(requestLimitHandler(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	if h := s.Observability.MetricsHandler(); h != nil {
		mux.Handle("GET "+s.Observability.MetricsEndpoint(), h)
	}

	mux.HandleFunc("POST /analyze", protect(s.analyzeHandler))
	mux.HandleFunc("POST /analyze-text", protect(s.analyzeTextHandler))
	mux.HandleFunc("POST /batch-analyze", protect(s.batchAnalyzeHandler))
	mux.HandleFunc("POST /compare", protect(s.compareHandler))
	mux.HandleFunc("POST /keywords", protect(s.keywordsHandler))
	mux.HandleFunc("GET /keywords", protect(s.industriesHandler))
	mux.HandleFunc("GET /keywords/{industry}", protect(s.industryHandler))
	mux.HandleFunc("POST /optimize", protect(s.optimizeHandler))
	mux.HandleFunc("POST /render", protect(s.renderHandler))
	mux.HandleFunc("POST /job-match", protect(s.jobMatchHandler))

	return mux
}

// requestIDMiddleware echoes X-Request-ID or assigns a new one
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if s.APIKeyCount() == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, http.StatusUnauthorized, ErrorBody{
				Code:    errCodeUnauthorized,
				Message: "X-API-Key header or Authorization Bearer token required",
				Type:    errTypeAuth,
			})
			return
		}

		if !s.validAPIKey(apiKey) {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, http.StatusUnauthorized, ErrorBody{
				Code:    errCodeUnauthorized,
				Message: "Invalid API key",
				Type:    errTypeAuth,
			})
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"client_ip", r.RemoteAddr,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestAPIKey reads X-API-Key, falling back to a Bearer token
func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
