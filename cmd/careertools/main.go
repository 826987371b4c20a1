package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"careertools/internal/cli"
	"careertools/internal/config"
	"careertools/internal/errors"

	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; variables already in the environment win
	_ = godotenv.Load()

	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logging
	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Log startup
	logger.Debug("Starting careertools",
		"version", cli.Version,
		"log_level", cfg.App.LogLevel,
		"api_base_url", cfg.Client.BaseURL)

	// Execute command with cancellable context
	if err := cli.Execute(ctx, cfg, logger); err != nil {
		logger.LogError(err, "Application execution failed")
		os.Exit(1)
	}
}
