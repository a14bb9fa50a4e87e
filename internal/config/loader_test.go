package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Orchestrator.MaxWorkers)
	assert.Equal(t, 5*time.Minute, cfg.Orchestrator.DelegationTimeout.Duration())
	assert.Equal(t, 3, cfg.Oracle.MaxRetries)
	assert.Equal(t, time.Second, cfg.Oracle.InitialBackoff.Duration())
	assert.Equal(t, 30*time.Second, cfg.Oracle.MaxBackoff.Duration())
	assert.NotEmpty(t, cfg.Oracle.Model)
	assert.Equal(t, "reviewd", cfg.Telemetry.ServiceName)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
orchestrator:
  max_workers: 8
  delegation_timeout: 90s
oracle:
  model: claude-test-model
  max_retries: 5
skills:
  - name: static_scan
    command: semgrep
    args: ["--json", "."]
`)
	require.NoError(t, os.WriteFile(path, content, 0600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Orchestrator.MaxWorkers)
	assert.Equal(t, 90*time.Second, cfg.Orchestrator.DelegationTimeout.Duration())
	assert.Equal(t, "claude-test-model", cfg.Oracle.Model)
	assert.Equal(t, 5, cfg.Oracle.MaxRetries)
	require.Len(t, cfg.Skills, 1)
	assert.Equal(t, "static_scan", cfg.Skills[0].Name)
	assert.Equal(t, "semgrep", cfg.Skills[0].Command)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("orchestrator:\n  max_workers: 2\n"), 0600))

	t.Setenv("ORCHESTRATOR_MAX_WORKERS", "16")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Orchestrator.MaxWorkers)
}

func TestLoad_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("oracle:\n  max_retries: -1\n"), 0600))

	_, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_retries")
}

func TestLoad_DuplicateSkillName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
skills:
  - name: scan
    command: a
  - name: scan
    command: b
`)
	require.NoError(t, os.WriteFile(path, content, 0600))

	_, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate skill name")
}

func TestDuration_TextRoundTrip(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("45s")))
	assert.Equal(t, 45*time.Second, d.Duration())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "45s", string(text))
}

func TestDuration_RejectsNegative(t *testing.T) {
	var d Duration
	err := d.UnmarshalText([]byte("-5s"))
	require.Error(t, err)
}
