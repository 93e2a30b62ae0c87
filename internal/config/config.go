// Package config loads and validates graphquery configuration. Settings
// resolve in precedence order: defaults, then a config file, then
// GRAPHQUERY_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	gqerrors "github.com/Aman-CERP/graphquery/internal/errors"
)

// ConfigFileName is the per-project config file looked up by Load.
const ConfigFileName = ".graphquery.yaml"

// Config is the complete graphquery configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Query      QueryConfig      `yaml:"query" json:"query"`
	Server     ServerConfig     `yaml:"server" json:"server"`
}

// StorageConfig configures where index data lives. An empty DataDir keeps
// every store in memory.
type StorageConfig struct {
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Dimensions is the embedding vector width.
	Dimensions int `yaml:"dimensions" json:"dimensions"`

	// BatchSize caps how many texts are embedded per batch call.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// CacheSize is the LRU capacity of the embedding cache.
	// Zero disables caching.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// QueryConfig configures coordinator behavior.
type QueryConfig struct {
	// SimilarityTopK is the fragment count for vector retrieval.
	SimilarityTopK int `yaml:"similarity_top_k" json:"similarity_top_k"`

	// KeywordLimit is the fragment count for keyword retrieval.
	KeywordLimit int `yaml:"keyword_limit" json:"keyword_limit"`

	// Recursive controls placeholder expansion.
	Recursive bool `yaml:"recursive" json:"recursive"`

	// MetricsHistory is the retained query event count. Zero disables
	// query metrics collection.
	MetricsHistory int `yaml:"metrics_history" json:"metrics_history"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFile   string `yaml:"log_file" json:"log_file"`
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Storage: StorageConfig{
			DataDir: "",
		},
		Embeddings: EmbeddingsConfig{
			Dimensions: 256,
			BatchSize:  32,
			CacheSize:  1000,
		},
		Query: QueryConfig{
			SimilarityTopK: 2,
			KeywordLimit:   10,
			Recursive:      true,
			MetricsHistory: 100,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// Load resolves the configuration for a directory. Missing config files are
// not an error; defaults plus env overrides apply.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads configuration from an explicit path. The file must exist.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return gqerrors.New(gqerrors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file not found: %s", path), err)
		}
		return gqerrors.ConfigError(fmt.Sprintf("reading %s", path), err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return gqerrors.ConfigError(fmt.Sprintf("parsing %s", path), err)
	}
	return nil
}

// applyEnvOverrides applies GRAPHQUERY_* environment variable overrides.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GRAPHQUERY_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("GRAPHQUERY_SIMILARITY_TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			c.Query.SimilarityTopK = k
		}
	}
	if v := os.Getenv("GRAPHQUERY_RECURSIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Query.Recursive = b
		}
	}
	if v := os.Getenv("GRAPHQUERY_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("GRAPHQUERY_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("GRAPHQUERY_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Embeddings.CacheSize = n
		}
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Embeddings.Dimensions <= 0 {
		return gqerrors.ConfigError(
			fmt.Sprintf("embeddings.dimensions must be positive, got %d", c.Embeddings.Dimensions), nil)
	}
	if c.Embeddings.BatchSize <= 0 {
		return gqerrors.ConfigError(
			fmt.Sprintf("embeddings.batch_size must be positive, got %d", c.Embeddings.BatchSize), nil)
	}
	if c.Query.SimilarityTopK <= 0 {
		return gqerrors.ConfigError(
			fmt.Sprintf("query.similarity_top_k must be positive, got %d", c.Query.SimilarityTopK), nil)
	}
	if c.Query.KeywordLimit <= 0 {
		return gqerrors.ConfigError(
			fmt.Sprintf("query.keyword_limit must be positive, got %d", c.Query.KeywordLimit), nil)
	}
	switch c.Server.Transport {
	case "stdio":
	default:
		return gqerrors.ConfigError(
			fmt.Sprintf("server.transport must be stdio, got %q", c.Server.Transport), nil)
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return gqerrors.ConfigError(
			fmt.Sprintf("server.log_level must be debug, info, warn, or error, got %q", c.Server.LogLevel), nil)
	}
	return nil
}

// WriteYAML writes the configuration to a file, creating parent directories.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return gqerrors.ConfigError("marshaling config", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return gqerrors.ConfigError(fmt.Sprintf("creating %s", dir), err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return gqerrors.ConfigError(fmt.Sprintf("writing %s", path), err)
	}
	return nil
}
