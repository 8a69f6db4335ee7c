package config

import (
	"time"

	"github.com/hyperjump/tansaku/internal/terms"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/tansaku/data/db/documents.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/tansaku/data/indices/bleve"
	}
	if cfg.Storage.Tokenizer == "" {
		cfg.Storage.Tokenizer = "icu"
	}
	if cfg.Storage.FallbackTokenizer == "" {
		cfg.Storage.FallbackTokenizer = "unicode61"
	}
	if cfg.Storage.ExtensionDir == "" {
		cfg.Storage.ExtensionDir = "/usr/local/lib/tansaku/extensions"
	}
	if cfg.Expansion.DefaultStrategy == "" {
		cfg.Expansion.DefaultStrategy = "comprehensive"
	}
	if cfg.Expansion.ParticleBreaks == nil {
		t := true
		cfg.Expansion.ParticleBreaks = &t
	}
	if cfg.Expansion.Particles == "" {
		cfg.Expansion.Particles = terms.DefaultParticles
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 5 * time.Second
	}
	if cfg.Search.HighlightOpen == "" {
		cfg.Search.HighlightOpen = "<mark>"
	}
	if cfg.Search.HighlightClose == "" {
		cfg.Search.HighlightClose = "</mark>"
	}
	if cfg.Search.SnippetOpen == "" {
		cfg.Search.SnippetOpen = "["
	}
	if cfg.Search.SnippetClose == "" {
		cfg.Search.SnippetClose = "]"
	}
	if cfg.Search.SnippetEllipsis == "" {
		cfg.Search.SnippetEllipsis = "..."
	}
	if cfg.Search.SnippetTokens == 0 {
		cfg.Search.SnippetTokens = 15
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx", ".odt", ".rtf"}
	}
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}

// Default returns a configuration with every default applied, for running without a file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
