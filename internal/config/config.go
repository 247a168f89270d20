package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxDepth = 3
	DefaultWorkers  = 4
	DefaultLanguage = "fr"
)

// StoreConfig selects and locates the term storage backend.
type StoreConfig struct {
	// Backend is one of "memory", "kuzu" or "postgres".
	Backend string `yaml:"backend,omitempty"`
	// Path is the KuzuDB database directory. Empty means in-memory.
	Path string `yaml:"path,omitempty"`
	// DSN is the PostgreSQL connection string.
	DSN string `yaml:"dsn,omitempty"`
}

// ProjectConfig holds project-level settings loaded from termex.yml.
type ProjectConfig struct {
	ProjectCode  string      `yaml:"projectCode,omitempty"`
	Language     string      `yaml:"language,omitempty"`
	RulesFile    string      `yaml:"rulesFile,omitempty"`
	MaxDepth     int         `yaml:"maxDepth,omitempty"`
	Workers      int         `yaml:"workers,omitempty"`
	Lexicon      string      `yaml:"lexicon,omitempty"`
	KnownWords   string      `yaml:"knownWords,omitempty"`
	Store        StoreConfig `yaml:"store,omitempty"`
	Observers    []string    `yaml:"observers,omitempty"`
	AnalysisFile string      `yaml:"analysisFile,omitempty"`
	LogLevel     string      `yaml:"logLevel,omitempty"`
	LogJSON      bool        `yaml:"logJSON,omitempty"`
}

// Load attempts to read termex.yml or termex.yaml from the given directory.
// Returns a zero-value config (not an error) if no config file exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"termex.yml", "termex.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// ApplyDefaults fills zero-valued fields.
func (c *ProjectConfig) ApplyDefaults() {
	if c.ProjectCode == "" {
		c.ProjectCode = "default"
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// RuleSet resolves the rule set: RulesFile when set, otherwise the built-in
// rule set for Language. A relative RulesFile is taken relative to dir.
func (c *ProjectConfig) RuleSet(dir string) (*RuleSet, error) {
	if c.RulesFile != "" {
		path := c.RulesFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return LoadRuleSet(path)
	}
	lang := c.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	return BuiltinRuleSet(lang)
}
