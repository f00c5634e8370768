// Package config loads and saves the application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Embedder types.
const (
	EmbedderTFIDF  = "tfidf"
	EmbedderOpenAI = "openai"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL           string  `yaml:"base_url" toml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env" toml:"api_key_env"`
	Model             string  `yaml:"model" toml:"model"`
	TimeoutSecs       int     `yaml:"timeout_secs" toml:"timeout_secs"`
	BatchSize         int     `yaml:"batch_size" toml:"batch_size"`
	Workers           int     `yaml:"workers" toml:"workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"`
	MaxRetries        int     `yaml:"max_retries" toml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string               `yaml:"type" toml:"type"`
	OpenAI OpenAIEmbedderConfig `yaml:"openai" toml:"openai"`
}

// SearchConfig controls query results.
type SearchConfig struct {
	TopK         int `yaml:"top_k" toml:"top_k"`
	PreviewLines int `yaml:"preview_lines" toml:"preview_lines"`
}

// LoaderConfig controls corpus traversal.
type LoaderConfig struct {
	ReportEvery int `yaml:"report_every" toml:"report_every"`
}

// WatchConfig controls automatic re-indexing on file changes.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled" toml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms" toml:"debounce_ms"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Root        string         `yaml:"root" toml:"root"`
	Extensions  []string       `yaml:"extensions" toml:"extensions"`
	ExcludeDirs []string       `yaml:"exclude_dirs" toml:"exclude_dirs"`
	Search      SearchConfig   `yaml:"search" toml:"search"`
	Loader      LoaderConfig   `yaml:"loader" toml:"loader"`
	Embedder    EmbedderConfig `yaml:"embedder" toml:"embedder"`
	Watch       WatchConfig    `yaml:"watch" toml:"watch"`
}

// DefaultExcludeDirs are build output, tooling and VCS directories skipped during a scan.
var DefaultExcludeDirs = []string{
	"MinGW64", ".git", ".vscode", "bin", "obj", "Debug", "Release", "__pycache__", ".idea",
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Files ending in .toml are parsed as TOML, anything else as YAML.
// Fields missing from the file keep their default values.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault tries ./codesearch.yaml and ./codesearch.toml first, then
// ~/.config/codesearch/config.yaml. If none exists, it writes defaults to
// ~/.config/codesearch/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	for _, cwdPath := range []string{"codesearch.yaml", "codesearch.toml"} {
		if _, err := os.Stat(cwdPath); err == nil {
			cfg, err := Load(cwdPath)
			return cfg, cwdPath, err
		}
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports settings that cannot be used.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case EmbedderTFIDF, EmbedderOpenAI:
	default:
		return fmt.Errorf("unknown embedder type %q", c.Embedder.Type)
	}
	if c.Search.TopK < 0 {
		return errors.New("search.top_k must not be negative")
	}
	if c.Search.PreviewLines < 0 {
		return errors.New("search.preview_lines must not be negative")
	}
	if c.Loader.ReportEvery < 0 {
		return errors.New("loader.report_every must not be negative")
	}
	if c.Watch.DebounceMS < 0 {
		return errors.New("watch.debounce_ms must not be negative")
	}
	o := c.Embedder.OpenAI
	if o.TimeoutSecs < 0 || o.BatchSize < 0 || o.Workers < 0 || o.MaxRetries < 0 || o.RequestsPerSecond < 0 {
		return errors.New("embedder.openai values must not be negative")
	}
	return nil
}

// DefaultUserConfigPath returns ~/.config/codesearch/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "codesearch", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		Root:        ".",
		Extensions:  []string{".c"},
		ExcludeDirs: append([]string(nil), DefaultExcludeDirs...),
		Search:      SearchConfig{TopK: 3, PreviewLines: 15},
		Loader:      LoaderConfig{ReportEvery: 10},
		Embedder: EmbedderConfig{
			Type: EmbedderTFIDF,
			OpenAI: OpenAIEmbedderConfig{
				BaseURL:     "https://api.openai.com/v1",
				APIKeyEnv:   "OPENAI_API_KEY",
				Model:       "text-embedding-3-small",
				TimeoutSecs: 30,
				BatchSize:   32,
				Workers:     4,
				MaxRetries:  5,
			},
		},
		Watch: WatchConfig{DebounceMS: 500},
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
