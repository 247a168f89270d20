package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsZeroValue(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &ProjectConfig{}, cfg)
}

func TestLoad_ReadsYAML(t *testing.T) {
	dir := t.TempDir()
	data := `
projectCode: cats
language: fr
maxDepth: 2
workers: 8
store:
  backend: postgres
  dsn: postgres://localhost/terms
observers: [analysis-writer, log]
analysisFile: out.txt
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "termex.yaml"), []byte(data), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "cats", cfg.ProjectCode)
	assert.Equal(t, 2, cfg.MaxDepth)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/terms", cfg.Store.DSN)
	assert.Equal(t, []string{"analysis-writer", "log"}, cfg.Observers)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "termex.yml"), []byte("maxDepth: [1"), 0o644))
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &ProjectConfig{MaxDepth: 5}
	cfg.ApplyDefaults()
	assert.Equal(t, "default", cfg.ProjectCode)
	assert.Equal(t, "fr", cfg.Language)
	assert.Equal(t, 5, cfg.MaxDepth)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestProjectConfig_RuleSetFromFile(t *testing.T) {
	dir := t.TempDir()
	rules := "language: xx\nnominalTags: [N]\ncanonicalNumber: sg\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xx.yml"), []byte(rules), 0o644))

	cfg := &ProjectConfig{RulesFile: "xx.yml"}
	rs, err := cfg.RuleSet(dir)
	require.NoError(t, err)
	assert.Equal(t, "xx", rs.Language)
	assert.True(t, rs.NominalTags.Has("N"))
}
