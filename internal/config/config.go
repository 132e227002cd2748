package config

import (
	"fmt"
	"os"
	"time"
)

// Config is the process-wide configuration, built once at startup and
// passed into the components that need it. Nothing outside this package
// reads the environment.
type Config struct {
	ProjectID          string
	ReportCollection   string
	WorkflowCollection string
	ListenAddr         string
	StoreRetryWindow   time.Duration
}

// Load reads and validates the configuration from the environment.
func Load() (Config, error) {
	projectID := getEnv("PROJECT_ID", "")
	if projectID == "" {
		return Config{}, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	cfg := Config{
		ProjectID:          projectID,
		ReportCollection:   getEnv("REPORT_COLLECTION", "pdfReports"),
		WorkflowCollection: getEnv("WORKFLOW_COLLECTION", "pdfWorkflows"),
		ListenAddr:         getEnv("LISTEN_ADDR", ":8080"),
		StoreRetryWindow:   2 * time.Minute,
	}

	if raw := getEnv("STORE_RETRY_WINDOW", ""); raw != "" {
		window, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid STORE_RETRY_WINDOW %q: %w", raw, err)
		}
		cfg.StoreRetryWindow = window
	}

	return cfg, nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
