package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/reviewd/internal/logging"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Load loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (ORCHESTRATOR_MAX_WORKERS, ORACLE_MODEL, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// If configPath is empty, only environment variables and defaults apply.
//
// Environment variables use underscore separator and are uppercased. The
// transformer splits on the first underscore into section.field_name:
//
//	ORCHESTRATOR_MAX_WORKERS -> orchestrator.max_workers
//	ORACLE_INITIAL_BACKOFF   -> oracle.initial_backoff
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			// Open once and validate the descriptor to avoid a TOCTOU race.
			f, err := os.Open(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open config file: %w", err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return nil, fmt.Errorf("failed to stat config file: %w", err)
			}
			if info.Size() > maxConfigFileSize {
				return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
			}

			content, err := io.ReadAll(f)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envTransform maps environment variable names to config keys.
// Strategy: split on first underscore only (section.field_name pattern).
func envTransform(s string) string {
	lower := strings.ToLower(s)
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Orchestrator.MaxWorkers == 0 {
		cfg.Orchestrator.MaxWorkers = 4
	}
	if cfg.Orchestrator.DelegationTimeout == 0 {
		cfg.Orchestrator.DelegationTimeout = Duration(5 * time.Minute)
	}

	if cfg.Oracle.Model == "" {
		cfg.Oracle.Model = "claude-sonnet-4-5-20250929"
	}
	if cfg.Oracle.MaxTokens == 0 {
		cfg.Oracle.MaxTokens = 4096
	}
	if cfg.Oracle.MaxRetries == 0 {
		cfg.Oracle.MaxRetries = 3
	}
	if cfg.Oracle.InitialBackoff == 0 {
		cfg.Oracle.InitialBackoff = Duration(time.Second)
	}
	if cfg.Oracle.MaxBackoff == 0 {
		cfg.Oracle.MaxBackoff = Duration(30 * time.Second)
	}
	if cfg.Oracle.RequestsPerSecond == 0 {
		cfg.Oracle.RequestsPerSecond = 2
	}
	if cfg.Oracle.APIKey == "" {
		cfg.Oracle.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	if cfg.Logging.Format == "" {
		cfg.Logging = *logging.NewDefaultConfig()
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "reviewd"
	}
}
