// Package config provides configuration loading and structs for the Kotae server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug  bool         `yaml:"debug"`
	Server ServerConfig `yaml:"server"`
	Vector VectorConfig `yaml:"vector"`
	LLM    LLMConfig    `yaml:"llm"`
	Ingest IngestConfig `yaml:"ingest"`
	Query  QueryConfig  `yaml:"query"`
	Auth   AuthConfig   `yaml:"auth"`
	Audit  AuditConfig  `yaml:"audit"`
	Watch  WatchConfig  `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// VectorConfig holds settings for the external vector search service.
type VectorConfig struct {
	// Type selects the store implementation: "chroma" or "memory".
	Type        string `yaml:"type"`
	URL         string `yaml:"url"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LLMConfig holds settings for the chat-completions service.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// IngestConfig holds chunking settings.
type IngestConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// QueryConfig holds retrieval settings.
type QueryConfig struct {
	DefaultResultCount  int   `yaml:"default_result_count"`
	AllowedResultCounts []int `yaml:"allowed_result_counts"`
}

// AuthConfig holds user store and session settings.
type AuthConfig struct {
	DatabasePath       string `yaml:"database_path"`
	SessionTimeoutSecs int    `yaml:"session_timeout_secs"`
}

// AuditConfig holds audit sink settings.
type AuditConfig struct {
	DatabasePath     string `yaml:"database_path"`
	IndexPath        string `yaml:"index_path"`
	ResponseMaxChars int    `yaml:"response_max_chars"`
}

// WatchConfig holds drop-directory auto-ingest settings. Watching is enabled
// when Directory is non-empty.
type WatchConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
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

	configDir := filepath.Dir(path)
	cfg.Auth.DatabasePath = expandPath(cfg.Auth.DatabasePath, configDir)
	cfg.Audit.DatabasePath = expandPath(cfg.Audit.DatabasePath, configDir)
	cfg.Audit.IndexPath = expandPath(cfg.Audit.IndexPath, configDir)
	if cfg.Watch.Directory != "" {
		cfg.Watch.Directory = expandPath(cfg.Watch.Directory, configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
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
