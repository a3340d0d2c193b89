package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"trustdebt/internal/config"
	"trustdebt/internal/logging"
	"trustdebt/internal/pipeline"
)

// getRepoRoot walks upward from the working directory looking for an
// initialized .trustdebt directory, falling back to the working
// directory itself.
func getRepoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, config.ConfigDir)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

func mustGetRepoRoot() string {
	repoRoot, err := getRepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return repoRoot
}

// mustLoadConfig loads and validates the repository configuration.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newContext creates a new context for command execution.
func newContext() context.Context {
	return context.Background()
}

// newLogger creates a logger honoring the config plus CLI overrides.
func newLogger(cfg *config.Config, outputFormat string) *logging.Logger {
	logFormat := logging.HumanFormat
	if cfg.Logging.Format == "json" || outputFormat == "json" {
		logFormat = logging.JSONFormat
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	if logLevelFlag != "" {
		level = logging.ParseLevel(logLevelFlag)
	}

	return logging.NewLogger(logging.Config{
		Format: logFormat,
		Level:  level,
	})
}

// newPipelineContext wires a run context for the current repository.
func newPipelineContext(outputFormat string) *pipeline.Context {
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg, outputFormat)
	return pipeline.NewContext(cfg, namespaceFlag, logger)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
