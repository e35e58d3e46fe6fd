package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ken/internmatch/pkg/embedding/models"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Recommend RecommendConfig `yaml:"recommend"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// EmbeddingConfig holds embedding model configuration
type EmbeddingConfig struct {
	Provider       string        `yaml:"provider"`
	ModelName      string        `yaml:"model_name"`
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key,omitempty"`
	Dimension      int           `yaml:"dimension"`
	MaxLength      int           `yaml:"max_length"`
	BatchSize      int           `yaml:"batch_size"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
	LoadTimeout    time.Duration `yaml:"load_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"` // per call to a remote backend
}

// RecommendConfig holds ranking configuration
type RecommendConfig struct {
	TopK      int `yaml:"top_k"`
	Precision int `yaml:"precision"`
}

// CatalogConfig holds catalog configuration. An empty path means the
// built-in sample internships.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8000,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:       models.ProviderHashing,
			ModelName:      models.DefaultHashingModel,
			Dimension:      384,
			MaxLength:      256,
			BatchSize:      32,
			MaxConcurrent:  1,
			LoadTimeout:    2 * time.Minute,
			RequestTimeout: models.DefaultRequestTimeout,
		},
		Recommend: RecommendConfig{
			TopK:      3,
			Precision: 3,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads the configuration from a file, then applies .env and
// environment overrides
func LoadConfig(path string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	if path != "" {
		if err := loadFile(config, path); err != nil {
			return nil, err
		}
	}

	// A missing .env file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadFile(config *Config, path string) error {
	// Resolve absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	// Check if the file exists
	_, err = os.Stat(absPath)
	if os.IsNotExist(err) {
		return nil // Keep default config if file doesn't exist
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// applyEnv overrides file values with environment variables
func (c *Config) applyEnv() error {
	setString(&c.Server.Host, "INTERNMATCH_HOST")
	if v := os.Getenv("INTERNMATCH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid INTERNMATCH_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}

	providerBefore := c.Embedding.Provider
	setString(&c.Embedding.Provider, "EMBEDDING_PROVIDER")
	if c.Embedding.Provider != providerBefore && os.Getenv("EMBEDDING_MODEL") == "" {
		// the file's model name belongs to the old provider
		c.Embedding.ModelName = defaultModelName(c.Embedding.Provider)
	}
	setString(&c.Embedding.ModelName, "EMBEDDING_MODEL")
	setString(&c.Embedding.BaseURL, "EMBEDDING_BASE_URL")
	setString(&c.Embedding.APIKey, "EMBEDDING_API_KEY")
	if c.Embedding.APIKey == "" {
		switch c.Embedding.Provider {
		case models.ProviderHuggingFace:
			c.Embedding.APIKey = os.Getenv("HF_TOKEN")
		case models.ProviderOpenAI:
			c.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}

	setString(&c.Catalog.Path, "CATALOG_PATH")
	setString(&c.Log.Level, "LOG_LEVEL")
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func defaultModelName(provider string) string {
	switch provider {
	case models.ProviderHuggingFace:
		return models.DefaultHuggingFaceModel
	case models.ProviderOpenAI:
		return models.DefaultOpenAIModel
	default:
		return models.DefaultHashingModel
	}
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Recommend.TopK < 0 {
		return fmt.Errorf("recommend.top_k must not be negative, got %d", c.Recommend.TopK)
	}
	if c.Recommend.Precision < 0 {
		return fmt.Errorf("recommend.precision must not be negative, got %d", c.Recommend.Precision)
	}
	if c.Embedding.MaxConcurrent < 0 {
		return fmt.Errorf("embedding.max_concurrent must not be negative, got %d", c.Embedding.MaxConcurrent)
	}
	if c.Embedding.RequestTimeout < 0 {
		return fmt.Errorf("embedding.request_timeout must not be negative, got %s", c.Embedding.RequestTimeout)
	}

	switch c.Embedding.Provider {
	case models.ProviderHashing:
		if c.Embedding.Dimension <= 0 {
			return fmt.Errorf("embedding.dimension must be positive for the hashing model, got %d", c.Embedding.Dimension)
		}
	case models.ProviderHuggingFace, models.ProviderOpenAI:
	default:
		return fmt.Errorf("unknown embedding provider: %q", c.Embedding.Provider)
	}
	return nil
}

// SaveConfig saves the configuration to a file
func SaveConfig(config *Config, path string) error {
	// Convert config to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
