package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"resumescore/internal/cli"
	"resumescore/internal/config"
	"resumescore/internal/errors"

	"github.com/joho/godotenv"
)

func main() {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env file is normal outside development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Failed to load .env file: %v\n", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logging
	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	// Vault secrets take priority over file and environment values
	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		logger.LogError(err, "Failed to load secrets from Vault")
		os.Exit(1)
	}

	logger.Debug("Starting resumescore",
		"version", cli.Version,
		"log_level", cfg.App.LogLevel,
		"ai_provider", cfg.AI.Provider,
		"llm_enabled", cfg.LLMEnabled())

	// Execute command with cancellable context
	if err := cli.Execute(ctx, cfg, logger); err != nil {
		logger.LogError(err, "Command failed")
		os.Exit(1)
	}
}
