package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Index drivers.
const (
	IndexRedis     = "redis"
	IndexTypesense = "typesense"
)

// Profile store drivers.
const (
	ProfilesMySQL  = "mysql"
	ProfilesSQLite = "sqlite"
)

// Config holds the discovery service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Redis     RedisConfig     `yaml:"redis"`
	Index     IndexConfig     `yaml:"index"`
	Profiles  ProfilesConfig  `yaml:"profiles"`
	Cache     CacheConfig     `yaml:"cache"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Indexer   IndexerConfig   `yaml:"indexer"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
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
	Port             int `yaml:"port"`
	ReadTimeoutSec   int `yaml:"read_timeout_sec"`
	WriteTimeoutSec  int `yaml:"write_timeout_sec"`
	ShutdownSec      int `yaml:"shutdown_timeout_sec"`
	SearchTimeoutSec int `yaml:"search_timeout_sec"` // how long a search request waits for a terminal outcome
}

// RedisConfig holds the Redis/Valkey connection used by the tier cache and the redis index.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig selects and configures the full-text index.
type IndexConfig struct {
	Driver     string `yaml:"driver"` // redis, typesense (default: redis)
	Name       string `yaml:"name"`   // FT index or collection name
	KeyPrefix  string `yaml:"key_prefix"`
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// ProfilesConfig holds the profile store settings.
type ProfilesConfig struct {
	Driver string `yaml:"driver"` // mysql, sqlite (default: sqlite)
	DSN    string `yaml:"dsn"`
}

// CacheConfig holds tier cache settings.
type CacheConfig struct {
	Disabled   bool `yaml:"disabled"`
	TierTTLSec int  `yaml:"tier_ttl_sec"`
}

// DiscoveryConfig holds session settings.
type DiscoveryConfig struct {
	Surface          string `yaml:"surface"` // mobile, web (default: mobile)
	IdleTimeoutSec   int    `yaml:"idle_timeout_sec"`
	SweepIntervalSec int    `yaml:"sweep_interval_sec"`
}

// IndexerConfig holds profile indexer settings.
type IndexerConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// RateLimitConfig holds per-requester search rate limits. Zero rate disables limiting.
type RateLimitConfig struct {
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	Burst          int     `yaml:"burst"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, decodes it and applies defaults and validation.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
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
	if c.HTTP.SearchTimeoutSec <= 0 {
		c.HTTP.SearchTimeoutSec = 8
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
	if c.Index.Driver == "" {
		c.Index.Driver = IndexRedis
	}
	if c.Index.Name == "" {
		if c.Index.Driver == IndexTypesense {
			c.Index.Name = "profiles"
		} else {
			c.Index.Name = "discovery:profiles:idx"
		}
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "discovery:profile:"
	}
	if c.Index.TimeoutSec <= 0 {
		c.Index.TimeoutSec = 5
	}
	if c.Profiles.Driver == "" {
		c.Profiles.Driver = ProfilesSQLite
	}
	if c.Cache.TierTTLSec <= 0 {
		c.Cache.TierTTLSec = 60
	}
	if c.Discovery.Surface == "" {
		c.Discovery.Surface = "mobile"
	}
	if c.Discovery.IdleTimeoutSec <= 0 {
		c.Discovery.IdleTimeoutSec = 900
	}
	if c.Discovery.SweepIntervalSec <= 0 {
		c.Discovery.SweepIntervalSec = 60
	}
	if c.Indexer.BatchSize <= 0 {
		c.Indexer.BatchSize = 200
	}
	if c.RateLimit.RequestsPerSec > 0 && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 5
	}
}

// NeedsRedis reports whether any enabled component talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.Index.Driver == IndexRedis || !c.Cache.Disabled
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Index.Driver {
	case IndexRedis:
	case IndexTypesense:
		if c.Index.URL == "" {
			return fmt.Errorf("index.url is required for the typesense driver")
		}
		if c.Index.APIKey == "" {
			return fmt.Errorf("index.api_key is required for the typesense driver")
		}
	default:
		return fmt.Errorf("index.driver must be %q or %q, got %q", IndexRedis, IndexTypesense, c.Index.Driver)
	}

	if c.NeedsRedis() && len(c.Redis.Addrs) == 0 {
		return fmt.Errorf("redis.addrs is required")
	}

	switch c.Profiles.Driver {
	case ProfilesMySQL, ProfilesSQLite:
	default:
		return fmt.Errorf("profiles.driver must be %q or %q, got %q", ProfilesMySQL, ProfilesSQLite, c.Profiles.Driver)
	}
	if c.Profiles.DSN == "" {
		return fmt.Errorf("profiles.dsn is required")
	}

	switch c.Discovery.Surface {
	case "mobile", "web":
	default:
		return fmt.Errorf("discovery.surface must be \"mobile\" or \"web\", got %q", c.Discovery.Surface)
	}

	if c.RateLimit.RequestsPerSec < 0 {
		return fmt.Errorf("rate_limit.requests_per_sec must not be negative")
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

	// 3. Fallback to ./config/
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
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
