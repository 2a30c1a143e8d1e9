// Package config provides configuration management for issuedb.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultDBFile  = ".issue.db"
	DefaultWebPort = 8844
	DefaultHost    = "127.0.0.1"

	configFileName = ".issuedb.yaml"
)

// Config holds all issuedb settings.
type Config struct {
	// DBPath is the SQLite file. Relative paths resolve against the
	// working directory, which keeps one tracker per project.
	DBPath string `yaml:"db_path"`

	// Web server.
	WebHost string `yaml:"web_host"`
	WebPort int    `yaml:"web_port"`

	// Database connection pool size.
	MaxConns int `yaml:"max_conns"`

	// Ollama integration.
	OllamaHost  string `yaml:"ollama_host"`
	OllamaPort  string `yaml:"ollama_port"`
	OllamaModel string `yaml:"ollama_model"`

	// Duplicate detection threshold used by dedupe when no flag is given.
	DuplicateThreshold float64 `yaml:"duplicate_threshold"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBPath:             DefaultDBFile,
		WebHost:            DefaultHost,
		WebPort:            DefaultWebPort,
		MaxConns:           4,
		DuplicateThreshold: 0.7,
	}
}

// Load reads configuration in precedence order: defaults, then
// ~/.issuedb.yaml, then ./.issuedb.yaml, then environment overrides.
// Missing files are fine; a malformed file falls back to what was
// already loaded.
func Load() (*Config, error) {
	cfg := Default()

	if home, err := os.UserHomeDir(); err == nil {
		applyFile(cfg, filepath.Join(home, configFileName))
	}
	applyFile(cfg, configFileName)
	applyEnv(cfg)

	return cfg, nil
}

var (
	global     *Config
	globalOnce sync.Once
)

// Get returns the process-wide configuration, loading it on first use.
func Get() *Config {
	globalOnce.Do(func() {
		global, _ = Load()
	})
	return global
}

// applyFile merges one YAML file into cfg. Absent or unreadable files
// are skipped silently; issuedb must work with zero configuration.
func applyFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	// Unmarshal into the live config so present keys override and
	// absent keys keep their current values.
	_ = yaml.Unmarshal(data, cfg)
}

// applyEnv merges ISSUEDB_* environment overrides.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ISSUEDB_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("ISSUEDB_WEB_HOST"); v != "" {
		cfg.WebHost = v
	}
	if v := os.Getenv("ISSUEDB_WEB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.WebPort = port
		}
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.OllamaHost = v
	}
	if v := os.Getenv("OLLAMA_PORT"); v != "" {
		cfg.OllamaPort = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.OllamaModel = v
	}
}

// WebAddr returns the host:port the web server binds to.
func (c *Config) WebAddr() string {
	return c.WebHost + ":" + strconv.Itoa(c.WebPort)
}

