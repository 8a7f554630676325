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

// Database and vector index drivers.
const (
	DriverValkey   = "valkey"
	DriverPostgres = "postgres"
	DriverPGVector = "pgvector"
)

// Config holds the inquirydesk service configuration.
type Config struct {
	App         AppConfig         `yaml:"app"`
	HTTP        HTTPConfig        `yaml:"http"`
	CORS        CORSConfig        `yaml:"cors"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
	Database    DatabaseConfig    `yaml:"database"`
	VectorIndex VectorIndexConfig `yaml:"vector_index"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	LLM         LLMConfig         `yaml:"llm"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Inquiries   InquiriesConfig   `yaml:"inquiries"`
}

// AppConfig holds service identity and routing settings.
type AppConfig struct {
	Name      string `yaml:"name"`
	APIPrefix string `yaml:"api_prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CORSConfig holds cross-origin settings for browser clients.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials *bool    `yaml:"allow_credentials"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"` // 0 = default (8 MiB)
}

// DatabaseConfig holds inquiry record storage settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, postgres (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DSN              string   `yaml:"dsn"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// VectorIndexConfig holds reference-material index settings.
type VectorIndexConfig struct {
	Driver          string `yaml:"driver"` // valkey, pgvector (default: valkey)
	Name            string `yaml:"name"`
	Table           string `yaml:"table"`
	TopK            int    `yaml:"top_k"`
	Dimensions      int    `yaml:"dimensions"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"`
	BaseURL             string `yaml:"base_url"`
	APIKey              string `yaml:"api_key"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	RequestDimensions   bool   `yaml:"request_dimensions"` // send dimensions in the request (Matryoshka models only)
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	Cache               *bool  `yaml:"cache"`
	CacheTTLSec         int    `yaml:"cache_ttl_sec"` // 0 = default (7 days)
}

// LLMConfig holds language model settings.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// PipelineConfig holds inquiry processing settings.
type PipelineConfig struct {
	TimeoutSec int `yaml:"timeout_sec"` // 0 = no timeout
}

// InquiriesConfig holds listing settings for stored inquiries.
type InquiriesConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// CacheEnabled reports whether query embeddings are cached.
func (e EmbeddingConfig) CacheEnabled() bool {
	return e.Cache == nil || *e.Cache
}

// Credentials reports whether browsers may send credentials cross-origin.
func (c CORSConfig) Credentials() bool {
	return c.AllowCredentials == nil || *c.AllowCredentials
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

// Parse expands env variables in raw YAML, applies defaults and validates.
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
	if c.App.Name == "" {
		c.App.Name = "Customer Inquiry App"
	}
	if c.App.APIPrefix == "" {
		c.App.APIPrefix = "/api"
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 8 << 20
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "inquirydesk:"
	}
	c.applyIndexDefaults()
	c.applyModelDefaults()
	if c.Inquiries.DefaultPageSize <= 0 {
		c.Inquiries.DefaultPageSize = 100
	}
	if c.Inquiries.MaxPageSize <= 0 {
		c.Inquiries.MaxPageSize = 1000
	}
}

func (c *Config) applyIndexDefaults() {
	if c.VectorIndex.Driver == "" {
		c.VectorIndex.Driver = DriverValkey
	}
	if c.VectorIndex.Name == "" {
		c.VectorIndex.Name = "customer-inquiries"
	}
	if c.VectorIndex.Table == "" {
		c.VectorIndex.Table = "knowledge_documents"
	}
	if c.VectorIndex.TopK <= 0 {
		c.VectorIndex.TopK = 3
	}
	if c.VectorIndex.Dimensions <= 0 {
		c.VectorIndex.Dimensions = 384
	}
	if c.VectorIndex.HNSWM <= 0 {
		c.VectorIndex.HNSWM = 16
	}
	if c.VectorIndex.HNSWEFConstruct <= 0 {
		c.VectorIndex.HNSWEFConstruct = 200
	}
}

func (c *Config) applyModelDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "tei"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = c.VectorIndex.Dimensions
	}
	if c.Embedding.CacheTTLSec <= 0 {
		c.Embedding.CacheTTLSec = 7 * 24 * 3600
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "groq"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama-3.3-70b-versatile"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if !strings.HasPrefix(c.App.APIPrefix, "/") {
		return fmt.Errorf("app.api_prefix must start with \"/\", got %q", c.App.APIPrefix)
	}

	switch c.Database.Driver {
	case DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", DriverPostgres)
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverValkey, DriverPostgres, c.Database.Driver)
	}

	switch c.VectorIndex.Driver {
	case DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for vector_index.driver %q", DriverValkey)
		}
	case DriverPGVector:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for vector_index.driver %q", DriverPGVector)
		}
	default:
		return fmt.Errorf(
			"vector_index.driver must be %q or %q, got %q",
			DriverValkey, DriverPGVector, c.VectorIndex.Driver,
		)
	}

	if c.Embedding.Dimensions != c.VectorIndex.Dimensions {
		return fmt.Errorf(
			"embedding.dimensions (%d) must match vector_index.dimensions (%d)",
			c.Embedding.Dimensions, c.VectorIndex.Dimensions,
		)
	}
	if c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding.base_url is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %v", c.LLM.Temperature)
	}
	if c.Pipeline.TimeoutSec < 0 {
		return fmt.Errorf("pipeline.timeout_sec must not be negative, got %d", c.Pipeline.TimeoutSec)
	}
	if c.Inquiries.DefaultPageSize > c.Inquiries.MaxPageSize {
		return fmt.Errorf(
			"inquiries.default_page_size (%d) exceeds inquiries.max_page_size (%d)",
			c.Inquiries.DefaultPageSize, c.Inquiries.MaxPageSize,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// relative to the source file
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
