package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/fedsearch/internal/domain"
	"github.com/kailas-cloud/fedsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/fedsearch/internal/domain/store"
)

// Supported store drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverBadger = "badger"
)

// Config holds the fedsearch configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Federation FederationConfig `yaml:"federation"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Stores     []StoreConfig    `yaml:"stores"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// FederationConfig holds orchestrator limits.
type FederationConfig struct {
	DefaultTimeoutMs int `yaml:"default_timeout_ms"`
	MaxTimeoutMs     int `yaml:"max_timeout_ms"`
	MaxQueryLength   int `yaml:"max_query_length"`
	IngestPoolSize   int `yaml:"ingest_pool_size"`
	IngestBatchSize  int `yaml:"ingest_batch_size"`
}

// DefaultTimeout returns default_timeout_ms as a duration.
func (f FederationConfig) DefaultTimeout() time.Duration {
	return time.Duration(f.DefaultTimeoutMs) * time.Millisecond
}

// MaxTimeout returns max_timeout_ms as a duration.
func (f FederationConfig) MaxTimeout() time.Duration {
	return time.Duration(f.MaxTimeoutMs) * time.Millisecond
}

// EmbeddingConfig holds the OpenAI-compatible embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// Enabled reports whether an embedding model is configured.
func (e EmbeddingConfig) Enabled() bool { return e.Model != "" }

// StoreConfig describes one backend store. Fields apply per driver:
// path (sqlite, badger), in_memory (badger), addrs/password/mode/index/prefix (redis).
type StoreConfig struct {
	Name     string   `yaml:"name"`
	Driver   string   `yaml:"driver"`
	TopK     int      `yaml:"top_k"`
	Path     string   `yaml:"path"`
	InMemory bool     `yaml:"in_memory"`
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	Mode     string   `yaml:"mode"`
	Index    string   `yaml:"index"`
	Prefix   string   `yaml:"prefix"`

	ReadinessTimeoutSec int `yaml:"readiness_timeout_sec"`
}

// ID returns the store name as a domain identifier.
func (s StoreConfig) ID() store.ID { return store.ID(s.Name) }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML, expanding ${VAR} references, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 15
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Federation.DefaultTimeoutMs <= 0 {
		c.Federation.DefaultTimeoutMs = 1000
	}
	if c.Federation.MaxTimeoutMs <= 0 {
		c.Federation.MaxTimeoutMs = 10000
	}
	if c.Federation.MaxQueryLength <= 0 {
		c.Federation.MaxQueryLength = 1024
	}
	if c.Federation.IngestBatchSize <= 0 {
		c.Federation.IngestBatchSize = 100
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	for i := range c.Stores {
		s := &c.Stores[i]
		if s.TopK <= 0 {
			s.TopK = 20
		}
		if s.Driver == DriverRedis {
			if s.Mode == "" {
				s.Mode = string(mode.Keyword)
			}
			if s.ReadinessTimeoutSec <= 0 {
				s.ReadinessTimeoutSec = 10
			}
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Federation.MaxTimeoutMs < c.Federation.DefaultTimeoutMs {
		return fmt.Errorf("federation.max_timeout_ms (%d) must be >= default_timeout_ms (%d)",
			c.Federation.MaxTimeoutMs, c.Federation.DefaultTimeoutMs)
	}
	return c.ValidateStores()
}

// ValidateStores checks the store list alone. Embedded callers that build a
// Config without an HTTP section use it instead of Validate.
func (c *Config) ValidateStores() error {
	if len(c.Stores) == 0 {
		return fmt.Errorf("at least one store is required")
	}

	seen := make(map[string]struct{}, len(c.Stores))
	for i, s := range c.Stores {
		if !s.ID().IsValid() {
			return fmt.Errorf("stores[%d].name %q must match [a-zA-Z0-9_-]+", i, s.Name)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("stores[%d].name %q is not unique", i, s.Name)
		}
		seen[s.Name] = struct{}{}

		if err := c.validateStore(s); err != nil {
			return fmt.Errorf("stores.%s: %w", s.Name, err)
		}
	}
	return nil
}

func (c *Config) validateStore(s StoreConfig) error {
	switch s.Driver {
	case DriverSQLite:
		if s.Path == "" {
			return fmt.Errorf("path is required")
		}
	case DriverBadger:
		if s.Path == "" && !s.InMemory {
			return fmt.Errorf("path is required unless in_memory is set")
		}
	case DriverRedis:
		if len(s.Addrs) == 0 {
			return fmt.Errorf("addrs is required")
		}
		m := mode.Mode(s.Mode)
		if !m.IsValid() {
			return fmt.Errorf("mode must be keyword, semantic or hybrid, got %q", s.Mode)
		}
		if m.NeedsEmbedding() {
			if !c.Embedding.Enabled() {
				return fmt.Errorf("%s mode requires embedding.model", m)
			}
			if c.Embedding.Dimensions <= 0 {
				return fmt.Errorf("%s mode requires embedding.dimensions", m)
			}
		}
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownDriver, s.Driver)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
