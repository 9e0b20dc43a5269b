package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/menta2k/room-advisor/pkg/client"
	"github.com/menta2k/room-advisor/pkg/inference"
)

// Detection backends
const (
	BackendHFAPI  = "hfapi"
	BackendOllama = "ollama"
)

// Config holds the application configuration
type Config struct {
	Inference InferenceConfig `json:"inference"`
	Pipeline  PipelineConfig  `json:"pipeline"`
	Server    ServerConfig    `json:"server"`
	Profile   ProfileConfig   `json:"profile"`
	Report    ReportConfig    `json:"report"`
	Log       LogConfig       `json:"log"`
}

// InferenceConfig holds the detection service settings
type InferenceConfig struct {
	Backend               string `json:"backend"`
	APIToken              string `json:"api_token,omitempty"`
	PrimaryModel          string `json:"primary_model"`
	PrimaryURL            string `json:"primary_url"`
	FallbackModel         string `json:"fallback_model"`
	FallbackURL           string `json:"fallback_url"`
	OllamaURL             string `json:"ollama_url"`
	OllamaModel           string `json:"ollama_model"`
	MaxAttempts           int    `json:"max_attempts"`
	RetryDelayMillis      int    `json:"retry_delay_ms"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	WarmupTimeoutSeconds  int    `json:"warmup_timeout_seconds"`
}

// PipelineConfig holds batch settings
type PipelineConfig struct {
	Workers int `json:"workers"`
}

// ServerConfig holds the HTTP API settings
type ServerConfig struct {
	Port      int    `json:"port"`
	UploadDir string `json:"upload_dir"`
	// PublicURL prefixes the links to stored uploads
	PublicURL string `json:"public_url"`
}

// ProfileConfig holds the profile store settings
type ProfileConfig struct {
	RedisAddress string `json:"redis_address"`
	Key          string `json:"key"`
}

// ReportConfig holds error reporting settings. An empty DSN disables it.
type ReportConfig struct {
	SentryDSN string `json:"sentry_dsn,omitempty"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Default returns a configuration with default values
func Default() *Config {
	def := inference.DefaultConfig()
	return &Config{
		Inference: InferenceConfig{
			Backend:               BackendHFAPI,
			PrimaryModel:          def.Primary.Name,
			PrimaryURL:            def.Primary.URL,
			FallbackModel:         def.Fallback.Name,
			FallbackURL:           def.Fallback.URL,
			OllamaURL:             "http://localhost:11434",
			OllamaModel:           "minicpm-v",
			MaxAttempts:           def.MaxAttempts,
			RetryDelayMillis:      int(def.RetryDelay / time.Millisecond),
			RequestTimeoutSeconds: int(def.RequestTimeout / time.Second),
			WarmupTimeoutSeconds:  int(def.WarmupTimeout / time.Second),
		},
		Pipeline: PipelineConfig{
			Workers: 1,
		},
		Server: ServerConfig{
			Port:      5000,
			UploadDir: "uploads",
			PublicURL: "http://localhost:5000",
		},
		Profile: ProfileConfig{
			RedisAddress: ":6379",
			Key:          "room-advisor:profile",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Fields missing from
// the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadDotEnv loads KEY=value pairs from the given files (".env" when none
// are given) into the process environment. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides configuration values with environment variables
func (c *Config) ApplyEnv() {
	c.Inference.APIToken = getEnv("HF_API_TOKEN", c.Inference.APIToken)
	c.Inference.PrimaryURL = getEnv("HF_PRIMARY_URL", c.Inference.PrimaryURL)
	c.Inference.FallbackURL = getEnv("HF_FALLBACK_URL", c.Inference.FallbackURL)
	c.Inference.Backend = getEnv("DETECTION_BACKEND", c.Inference.Backend)
	c.Inference.OllamaURL = getEnv("OLLAMA_URL", c.Inference.OllamaURL)
	c.Inference.OllamaModel = getEnv("OLLAMA_MODEL", c.Inference.OllamaModel)
	c.Server.Port = getEnvAsInt("PORT", c.Server.Port)
	c.Server.UploadDir = getEnv("UPLOAD_DIR", c.Server.UploadDir)
	c.Server.PublicURL = getEnv("PUBLIC_URL", c.Server.PublicURL)
	c.Profile.RedisAddress = getEnv("REDIS_ADDRESS", c.Profile.RedisAddress)
	c.Report.SentryDSN = getEnv("SENTRY_DSN", c.Report.SentryDSN)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Pipeline.Workers = getEnvAsInt("WORKERS", c.Pipeline.Workers)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Inference.Backend {
	case BackendHFAPI:
		if c.Inference.PrimaryURL == "" {
			return fmt.Errorf("inference.primary_url cannot be empty")
		}
	case BackendOllama:
		if c.Inference.OllamaURL == "" {
			return fmt.Errorf("inference.ollama_url cannot be empty")
		}
	default:
		return fmt.Errorf("inference.backend must be %q or %q", BackendHFAPI, BackendOllama)
	}

	if c.Inference.MaxAttempts < 1 {
		return fmt.Errorf("inference.max_attempts must be positive")
	}

	if c.Inference.RetryDelayMillis < 0 {
		return fmt.Errorf("inference.retry_delay_ms cannot be negative")
	}

	if c.Inference.RequestTimeoutSeconds < 1 || c.Inference.WarmupTimeoutSeconds < 1 {
		return fmt.Errorf("inference timeouts must be at least one second")
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be positive")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Server.UploadDir == "" {
		return fmt.Errorf("server.upload_dir cannot be empty")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json")
	}

	return nil
}

// ClientConfig converts the inference section into the client settings
func (c InferenceConfig) ClientConfig() inference.Config {
	cfg := inference.Config{
		APIToken:       c.APIToken,
		MaxAttempts:    c.MaxAttempts,
		RetryDelay:     time.Duration(c.RetryDelayMillis) * time.Millisecond,
		RequestTimeout: time.Duration(c.RequestTimeoutSeconds) * time.Second,
		WarmupTimeout:  time.Duration(c.WarmupTimeoutSeconds) * time.Second,
	}

	if c.Backend == BackendOllama {
		// A single local model serves both roles
		local := client.Endpoint{Name: c.OllamaModel, URL: c.OllamaURL}
		cfg.Primary, cfg.Fallback = local, local
		return cfg
	}

	cfg.Primary = client.Endpoint{Name: c.PrimaryModel, URL: c.PrimaryURL}
	cfg.Fallback = client.Endpoint{Name: c.FallbackModel, URL: c.FallbackURL}
	return cfg
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "room-advisor", "config.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
