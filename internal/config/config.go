// Package config provides configuration loading and structs for the tansaku server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Expansion ExpansionConfig `yaml:"expansion"`
	Search    SearchConfig    `yaml:"search"`
	Watch     WatchConfig     `yaml:"watch"`
}

// WatchConfig holds document directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects and configures the full-text backend.
type StorageConfig struct {
	// Backend is "sqlite" or "bleve".
	Backend        string `yaml:"backend"`
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
	// Tokenizer is the FTS5 tokenize= declaration for new tables.
	Tokenizer         string `yaml:"tokenizer"`
	FallbackTokenizer string `yaml:"fallback_tokenizer"`
	// ExtensionPath points at the fts5icu binary; when empty the platform binary in
	// ExtensionDir is used.
	ExtensionPath    string `yaml:"extension_path"`
	ExtensionDir     string `yaml:"extension_dir"`
	RequireExtension bool   `yaml:"require_extension"`
}

// ExpansionConfig holds term extraction and rule settings.
type ExpansionConfig struct {
	DefaultStrategy string `yaml:"default_strategy"`
	// RulesPath is a YAML rule table; the built-in table is used when empty.
	RulesPath      string `yaml:"rules_path"`
	WatchRules     bool   `yaml:"watch_rules"`
	ParticleBreaks *bool  `yaml:"particle_breaks"`
	Particles      string `yaml:"particles"`
	NormalizeNFKC  bool   `yaml:"normalize_nfkc"`
}

// ParticleBreaksOrDefault returns whether runs are split at particles; defaults to true.
func (e *ExpansionConfig) ParticleBreaksOrDefault() bool {
	if e.ParticleBreaks != nil {
		return *e.ParticleBreaks
	}
	return true
}

// SearchConfig holds search limits and annotation markers.
type SearchConfig struct {
	DefaultLimit    int           `yaml:"default_limit"`
	MaxLimit        int           `yaml:"max_limit"`
	Timeout         time.Duration `yaml:"timeout"`
	HighlightOpen   string        `yaml:"highlight_open"`
	HighlightClose  string        `yaml:"highlight_close"`
	SnippetOpen     string        `yaml:"snippet_open"`
	SnippetClose    string        `yaml:"snippet_close"`
	SnippetEllipsis string        `yaml:"snippet_ellipsis"`
	SnippetTokens   int           `yaml:"snippet_tokens"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	if cfg.Storage.DatabasePath != ":memory:" {
		cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	}
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.ExtensionPath = expandPath(cfg.Storage.ExtensionPath, configDir)
	cfg.Storage.ExtensionDir = expandPath(cfg.Storage.ExtensionDir, configDir)
	cfg.Expansion.RulesPath = expandPath(cfg.Expansion.RulesPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite", "bleve":
	default:
		return fmt.Errorf("invalid storage.backend %q (supported: sqlite, bleve)", c.Storage.Backend)
	}
	switch strings.ToLower(c.Expansion.DefaultStrategy) {
	case "basic", "comprehensive", "progressive":
	default:
		return fmt.Errorf("invalid expansion.default_strategy %q", c.Expansion.DefaultStrategy)
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit %d exceeds search.max_limit %d", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	return nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
