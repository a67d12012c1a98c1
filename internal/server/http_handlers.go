package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"

	appErrors "resumescore/internal/errors"
)

// Error codes and types the server adds to the application ones
const (
	errCodeUnauthorized    = "UNAUTHORIZED"
	errCodeRateLimited     = "RATE_LIMITED"
	errCodeRequestTooLarge = "REQUEST_TOO_LARGE"

	errTypeAuth      = "auth"
	errTypeRateLimit = "rate_limit"
)

// healthHandler reports the LLM bridge and keyword watcher state
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "resumescore",
		"version": s.Version,
	}

	bridge := s.Services.Bridge.Status()
	response["llm"] = bridge

	// An open circuit means every model call is failing fast
	if healthy, ok := bridge["healthy"].(bool); ok && !healthy {
		response["status"] = "degraded"
	}

	if watcher := s.Services.Watcher; watcher != nil {
		response["keyword_watcher"] = map[string]any{
			"running": watcher.IsRunning(),
			"file":    s.AppConfig.Keywords.TaxonomyFile,
		}
		if !watcher.IsRunning() {
			response["status"] = "degraded"
		}
	}

	if s.keyWatcher != nil {
		response["api_key_watcher"] = s.keyWatcher.Status()
	}

	status := http.StatusOK
	if response["status"] != "healthy" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	analyzer := s.Services.Analyzer
	response := map[string]any{
		"service": "resumescore",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"api_keys_configured":    s.APIKeyCount(),
		},
		"scoring": map[string]any{
			"weight_scheme":  analyzer.Scheme().Name,
			"weights":        analyzer.Scheme().Weights,
			"max_batch_size": analyzer.MaxBatchSize(),
		},
		"render_formats":     s.Services.Renderers.Formats(),
		"custom_professions": len(s.Services.Keywords.CustomProfessions()),
		"llm_available":      s.Services.Bridge.Available(),
	}

	// Add rate limiting stats if enabled
	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	// Add configuration info
	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return appErrors.NewValidationError(appErrors.ErrCodeInvalidRequest,
			"Content-Type must be application/json", nil)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return appErrors.NewValidationError(errCodeRequestTooLarge,
				fmt.Sprintf("Request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
		}
		return appErrors.NewIOError(appErrors.ErrCodeFileNotReadable, "Failed to read request body", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return appErrors.NewValidationError(appErrors.ErrCodeInvalidRequest, "Invalid JSON body", err)
	}

	return nil
}

// statusFor maps an error to its HTTP status
func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	switch appErrors.TypeOf(err) {
	case appErrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case appErrors.ErrorTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as an error response. Internal failures are
// logged and their cause is not echoed to the client.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)

	body := ErrorBody{
		Code:    appErrors.ErrCodeInvalidRequest,
		Message: err.Error(),
		Type:    string(appErrors.TypeOf(err)),
	}
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		body.Code = appErr.Code
		body.Message = appErr.Message
	}
	if status == http.StatusRequestEntityTooLarge {
		body.Code = errCodeRequestTooLarge
	}
	if status == http.StatusInternalServerError {
		if s.Logger != nil {
			s.Logger.LogError(err, "Request failed")
		}
		if appErr == nil {
			body.Code = "INTERNAL_ERROR"
			body.Message = "Internal server error"
		}
	}

	writeErrorResponse(w, status, body)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, statusCode int, body ErrorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: body}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && s.Logger != nil {
		s.Logger.Warn("Failed to encode response", "error", err)
	}
}

func (s *Server) writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil && s.Logger != nil {
		s.Logger.Warn("Failed to write response", "error", err)
	}
}
