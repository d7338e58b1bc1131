package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Validate checks the config for:
//   - Required fields
//   - Non-negative concurrency and timeout settings
//   - A single, complete archive backend when the archive is enabled
//   - A log level zerolog understands
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Version == "" {
		errs = append(errs, "version is required")
	}
	if cfg.Relay.Workers < 0 {
		errs = append(errs, fmt.Sprintf("relay.workers must be positive, got %d", cfg.Relay.Workers))
	}
	if cfg.Relay.QueueDepth < 0 {
		errs = append(errs, fmt.Sprintf("relay.queue_depth must be positive, got %d", cfg.Relay.QueueDepth))
	}
	if cfg.Relay.ProjectTimeoutMs < 0 {
		errs = append(errs, fmt.Sprintf("relay.project_timeout_ms must be positive, got %d", cfg.Relay.ProjectTimeoutMs))
	}
	if cfg.Server.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Sprintf("server.max_body_bytes must be positive, got %d", cfg.Server.MaxBodyBytes))
	}

	seen := make(map[string]struct{}, len(cfg.Projection.Skip))
	for i, name := range cfg.Projection.Skip {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Sprintf("projection.skip[%d]: field name is required", i))
			continue
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Sprintf("projection.skip[%d]: duplicate field %q", i, name))
		}
		seen[name] = struct{}{}
	}

	if a := cfg.Archive; a.Enabled {
		switch {
		case a.SQLitePath == "" && a.PostgresDSN == "":
			errs = append(errs, "archive: one of sqlite_path/postgres_dsn must be set")
		case a.SQLitePath != "" && a.PostgresDSN != "":
			errs = append(errs, "archive: only one of sqlite_path/postgres_dsn may be set")
		}
	}

	if cfg.Log.Level != "" {
		if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
			errs = append(errs, fmt.Sprintf("log.level: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
