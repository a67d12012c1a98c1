package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resumescore/internal/config"
)

// Start starts the HTTP server with all configured components
func (s *Server) Start() error {
	httpServer := s.setupHTTPServer()

	if err := s.startAPIKeyWatcher(); err != nil {
		return err
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(httpServer)
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// startAPIKeyWatcher polls Vault for API key rotations when configured
func (s *Server) startAPIKeyWatcher() error {
	if s.AppConfig == nil {
		return nil
	}
	vaultCfg := s.AppConfig.Vault
	if !vaultCfg.Enabled || vaultCfg.PollInterval <= 0 || vaultCfg.Secrets.APIKeys == "" {
		return nil
	}

	client, err := config.NewVaultClient(vaultCfg, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to create Vault client for API key watcher: %w", err)
	}

	s.keyWatcher = NewAPIKeyWatcher(client, vaultCfg.Secrets.APIKeys, vaultCfg.PollInterval, s.SetAPIKeys, s.Logger)
	return s.keyWatcher.Start()
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	// Channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	// Channel to receive server errors
	serverErrors := make(chan error, 1)

	go func() {
		tlsEnabled := s.TLSConfig.Enabled()
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", tlsEnabled)

		var err error
		if tlsEnabled {
			err = server.ListenAndServeTLS(s.TLSConfig.CertFile, s.TLSConfig.KeyFile)
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	// Wait for either a signal or server error
	select {
	case err := <-serverErrors:
		s.cleanup()
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())

		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.cleanup()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// cleanup stops the background goroutines the server owns
func (s *Server) cleanup() {
	if s.keyWatcher != nil {
		if err := s.keyWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop API key watcher")
		}
	}
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
