package server

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// endpoints lists the API surface for the startup banner
var endpoints = []struct{ route, description string }{
	{"POST /analyze", "Analyze an uploaded resume"},
	{"POST /analyze-text", "Analyze resume text"},
	{"POST /batch-analyze", "Rank up to the batch limit of resumes (?format=xlsx)"},
	{"POST /compare", "Compare two resumes"},
	{"POST /keywords", "Profession keyword taxonomy"},
	{"GET  /keywords", "List industries and custom professions"},
	{"GET  /keywords/{industry}", "Industry keywords and action verbs"},
	{"POST /optimize", "Optimize a structured resume (?render=pdf|html|docx|none)"},
	{"POST /render", "Render a structured resume (?format=pdf|html|docx)"},
	{"POST /job-match", "Match a resume against a job description"},
}

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.writeServerInfo(os.Stdout)
}

func (s *Server) writeServerInfo(w io.Writer) {
	s.displayEndpoints(w)
	s.displayAuthInfo(w)
	s.displayRequestLimitInfo(w)
	s.displayRateLimitInfo(w)
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints(w io.Writer) {
	protected := ""
	if s.APIKeyCount() > 0 {
		protected = " (requires API key)"
	}
	fmt.Fprintln(w, "Available endpoints:")
	fmt.Fprintln(w, "  GET  /health                  - Health check")
	fmt.Fprintln(w, "  GET  /stats                   - Server statistics")
	if s.Observability.MetricsHandler() != nil {
		fmt.Fprintf(w, "  GET  %-24s - Prometheus metrics\n", s.Observability.MetricsEndpoint())
	}
	for _, e := range endpoints {
		fmt.Fprintf(w, "  %-29s - %s%s\n", e.route, e.description, protected)
	}
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo(w io.Writer) {
	if n := s.APIKeyCount(); n > 0 {
		fmt.Fprintf(w, "API authentication: ENABLED (%d keys configured)\n", n)
		fmt.Fprintln(w, "Include 'X-API-Key: <your-key>' header in API requests")
		if s.keyWatcher != nil {
			fmt.Fprintln(w, "  - Keys are refreshed from Vault")
		}
	} else {
		fmt.Fprintln(w, "API authentication: DISABLED (no API keys configured)")
		fmt.Fprintln(w, "WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo(w io.Writer) {
	if s.MaxRequestSize > 0 {
		fmt.Fprintf(w, "Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Fprintln(w, "Request size limit: DISABLED")
		fmt.Fprintln(w, "WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo(w io.Writer) {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Fprintf(w, "Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		var scopes []string
		if s.RateLimit.ByAPIKey {
			scopes = append(scopes, "API key")
		}
		if s.RateLimit.ByIP {
			scopes = append(scopes, "IP address")
		}
		if len(scopes) > 0 {
			fmt.Fprintf(w, "  - Per %s rate limiting enabled\n", strings.Join(scopes, " and per "))
		}
	} else {
		fmt.Fprintln(w, "Rate limiting: DISABLED")
		fmt.Fprintln(w, "WARNING: No rate limiting configured!")
	}
}
