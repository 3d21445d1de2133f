package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"audiogram/internal/config"
	"audiogram/internal/logger"
)

// main is the application entry point
func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfiguration loads settings from the CONFIG_PATH file when set,
// otherwise from environment variables
func loadConfiguration() (*config.Configuration, error) {
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		cfg, err := config.NewConfigurationFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configPath, err)
		}
		return cfg, nil
	}

	cfg, err := config.NewConfigurationFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	return cfg, nil
}

// setup builds the configuration and logger shared by every command
func setup() (*config.Configuration, *zap.Logger, error) {
	cfg, err := loadConfiguration()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.NewLoggerForDebugMode(cfg.GetDebugMode()), nil
}
