package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/reviewd/internal/config"
)

func TestBuildRegistry(t *testing.T) {
	registry, err := buildRegistry([]config.SkillConfig{
		{Name: "semgrep", Command: "semgrep", Args: []string{"scan", "--json"}},
		{Name: "secret-scan", Command: "gitleaks", Args: []string{"detect"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"secret-scan", "semgrep"}, registry.Names())
}

func TestBuildRegistry_InvalidEntry(t *testing.T) {
	_, err := buildRegistry([]config.SkillConfig{{Name: "broken"}})
	require.Error(t, err)
}

func TestBuildRegistry_DuplicateName(t *testing.T) {
	_, err := buildRegistry([]config.SkillConfig{
		{Name: "semgrep", Command: "semgrep"},
		{Name: "semgrep", Command: "semgrep"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}
