// Package config provides configuration loading for reviewd.
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/reviewd/internal/logging"
)

// Duration wraps time.Duration for text-based config formats.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration().String())
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the root reviewd configuration.
type Config struct {
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Oracle       OracleConfig       `koanf:"oracle"`
	Skills       []SkillConfig      `koanf:"skills"`
	Logging      logging.Config     `koanf:"logging"`
	Telemetry    TelemetryConfig    `koanf:"telemetry"`
}

// OrchestratorConfig tunes the phase FSM engine and delegation fan-out.
type OrchestratorConfig struct {
	// MaxWorkers bounds concurrent delegations during the act phase.
	MaxWorkers int `koanf:"max_workers"`

	// DelegationTimeout caps a single worker execution. Exceeding it
	// degrades to a failed SubagentResult, never a hung phase.
	DelegationTimeout Duration `koanf:"delegation_timeout"`
}

// OracleConfig configures the decision oracle client and its retry policy.
type OracleConfig struct {
	// Model names the Claude model used for phase decisions.
	Model string `koanf:"model"`

	// APIKey authenticates against the Anthropic API. Usually supplied
	// via ORACLE_API_KEY rather than the config file.
	APIKey string `koanf:"api_key"`

	// MaxTokens limits each oracle response.
	MaxTokens int `koanf:"max_tokens"`

	// MaxRetries bounds per-phase oracle retries (plan and evaluate).
	MaxRetries int `koanf:"max_retries"`

	// InitialBackoff is the first retry delay; doubles up to MaxBackoff.
	InitialBackoff Duration `koanf:"initial_backoff"`

	// MaxBackoff caps the retry delay.
	MaxBackoff Duration `koanf:"max_backoff"`

	// RequestsPerSecond rate-limits outbound oracle calls client-side.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// SkillConfig declares one worker capability backed by an analyzer command.
type SkillConfig struct {
	// Name is the capability name the dispatcher resolves.
	Name string `koanf:"name"`

	// Command and Args describe the analyzer process to execute.
	Command string   `koanf:"command"`
	Args    []string `koanf:"args"`
}

// TelemetryConfig configures OTLP export.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	Insecure    bool   `koanf:"insecure"`
	ServiceName string `koanf:"service_name"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Orchestrator.MaxWorkers <= 0 {
		return fmt.Errorf("orchestrator.max_workers must be > 0, got %d", c.Orchestrator.MaxWorkers)
	}
	if c.Orchestrator.DelegationTimeout.Duration() <= 0 {
		return fmt.Errorf("orchestrator.delegation_timeout must be > 0")
	}
	if c.Oracle.Model == "" {
		return fmt.Errorf("oracle.model is required")
	}
	if c.Oracle.MaxRetries < 0 {
		return fmt.Errorf("oracle.max_retries must be >= 0, got %d", c.Oracle.MaxRetries)
	}
	if c.Oracle.InitialBackoff.Duration() <= 0 {
		return fmt.Errorf("oracle.initial_backoff must be > 0")
	}
	if c.Oracle.MaxBackoff.Duration() < c.Oracle.InitialBackoff.Duration() {
		return fmt.Errorf("oracle.max_backoff must be >= oracle.initial_backoff")
	}
	if c.Oracle.RequestsPerSecond <= 0 {
		return fmt.Errorf("oracle.requests_per_second must be > 0")
	}
	seen := make(map[string]struct{}, len(c.Skills))
	for _, s := range c.Skills {
		if s.Name == "" {
			return fmt.Errorf("skill name is required")
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("duplicate skill name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.Command == "" {
			return fmt.Errorf("skill %q: command is required", s.Name)
		}
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}
	return nil
}
