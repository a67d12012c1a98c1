package cli

import (
	"context"
	"fmt"
	"time"

	"resumescore/internal/common"
	"resumescore/internal/llm"
	"resumescore/internal/observability"
	"resumescore/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing resume scoring as a REST API.

Available endpoints:
- POST /analyze: Score an uploaded resume
- POST /analyze-text: Score resume text
- POST /batch-analyze: Score and rank up to the batch limit of uploads
- POST /compare: Compare two uploaded resumes
- POST /keywords, GET /keywords, GET /keywords/{industry}: Keyword taxonomies
- POST /optimize: Rewrite a structured resume with the language model
- POST /render: Render a structured resume to pdf, html or docx
- POST /job-match: Match a structured resume against a job description
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS is enabled when server.tls.certFile and server.tls.keyFile are set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringSlice("api-keys", nil, "Accepted API keys (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
}

// applyServeFlags copies explicitly set flags over the loaded configuration
func applyServeFlags(cmd *cobra.Command) error {
	cfg := getConfigFromContext(cmd.Context())
	flags := cmd.Flags()

	overrides := map[string]*string{
		"port":      &cfg.Server.Port,
		"host":      &cfg.Server.Host,
		"cert-file": &cfg.Server.TLS.CertFile,
		"key-file":  &cfg.Server.TLS.KeyFile,
	}
	for name, target := range overrides {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*target = value
	}

	if flags.Changed("api-keys") {
		keys, err := flags.GetStringSlice("api-keys")
		if err != nil {
			return err
		}
		cfg.Server.APIKeys = keys
	}

	return cfg.Validate()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if err := applyServeFlags(cmd); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := om.Shutdown(ctx); err != nil {
			logger.LogError(err, "Failed to shut down observability")
		}
	}()

	// A nil *Metrics must not reach the bridge as a non-nil interface
	var recorder llm.Recorder
	if metrics := om.GetMetrics(); metrics != nil {
		recorder = metrics
	}

	services, err := common.NewServices(cmd.Context(), cfg, logger, recorder)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer services.Close()

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
	return server.NewServer(cfg, services, om, serverCfg, logger).Start()
}
