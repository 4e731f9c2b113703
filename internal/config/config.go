package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Config holds all configuration for prompttune
type Config struct {
	LLM      LLMConfig      `json:"llm"`
	Database DatabaseConfig `json:"database"`
	Server   ServerConfig   `json:"server"`
	Tuning   TuningConfig   `json:"tuning"`
	Tracing  TracingConfig  `json:"tracing"`
}

// LLMConfig holds completion provider configuration
type LLMConfig struct {
	Provider       string  `json:"provider"` // "compat", "go-openai" or "openai"
	URL            string  `json:"url"`
	APIKey         string  `json:"api_key"`
	Model          string  `json:"model"`
	MaxTokens      int     `json:"max_tokens"`
	Temperature    float64 `json:"temperature"`
	TimeoutSeconds int     `json:"timeout_seconds"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	PostgresURL string `json:"postgres_url"`
}

// ServerConfig holds API server configuration
type ServerConfig struct {
	Host        string   `json:"host"`
	Port        int      `json:"port"`
	CORSOrigins []string `json:"cors_origins"` // Allowed CORS origins

	// APIToken, when set, is required as a bearer token on /api/v1
	APIToken string `json:"api_token"`
}

// TuningConfig bounds the answer fan-out
type TuningConfig struct {
	// MaxConcurrency caps in-flight answer requests per round; 0 means unbounded
	MaxConcurrency int `json:"max_concurrency"`
}

// TracingConfig controls the OpenTelemetry exporters
type TracingConfig struct {
	Enabled      bool   `json:"enabled"`
	OTLPEndpoint string `json:"otlp_endpoint"`
	Environment  string `json:"environment"`
	LogLevel     string `json:"log_level"`
}

var llmProviders = []string{"compat", "go-openai", "openai"}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       "compat",
			URL:            "http://localhost:8000/v1",
			APIKey:         "",
			Model:          "gpt-4o-mini",
			MaxTokens:      4096,
			Temperature:    0.7,
			TimeoutSeconds: 120,
		},
		Database: DatabaseConfig{
			PostgresURL: "",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000"}, // Default development origin
		},
		Tuning: TuningConfig{
			MaxConcurrency: 8,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Environment: "development",
			LogLevel:    "info",
		},
	}
}

// envString loads a string environment variable into the target pointer if set
func envString(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

// envInt loads an integer environment variable into the target pointer if set and valid
func envInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*target = i
		}
	}
}

// envFloat loads a float64 environment variable into the target pointer if set and valid
func envFloat(key string, target *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}

func envBool(key string, target *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

// envStringSlice loads a comma-separated environment variable into a string slice
func envStringSlice(key string, target *[]string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			*target = result
		}
	}
}

// Load loads configuration from the config file, then environment variables
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath()
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to parse config file %s: %v\n", configPath, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	envString("PROMPTTUNE_LLM_PROVIDER", &cfg.LLM.Provider)
	envString("PROMPTTUNE_LLM_URL", &cfg.LLM.URL)
	envString("PROMPTTUNE_LLM_API_KEY", &cfg.LLM.APIKey)
	envString("PROMPTTUNE_LLM_MODEL", &cfg.LLM.Model)
	envInt("PROMPTTUNE_LLM_MAX_TOKENS", &cfg.LLM.MaxTokens)
	envFloat("PROMPTTUNE_LLM_TEMPERATURE", &cfg.LLM.Temperature)
	envInt("PROMPTTUNE_LLM_TIMEOUT_SECONDS", &cfg.LLM.TimeoutSeconds)

	envString("PROMPTTUNE_POSTGRES_URL", &cfg.Database.PostgresURL)

	envString("PROMPTTUNE_SERVER_HOST", &cfg.Server.Host)
	envInt("PROMPTTUNE_SERVER_PORT", &cfg.Server.Port)
	envStringSlice("PROMPTTUNE_CORS_ORIGINS", &cfg.Server.CORSOrigins)
	envString("PROMPTTUNE_API_TOKEN", &cfg.Server.APIToken)

	envInt("PROMPTTUNE_MAX_CONCURRENCY", &cfg.Tuning.MaxConcurrency)

	envBool("PROMPTTUNE_TRACING_ENABLED", &cfg.Tracing.Enabled)
	envString("PROMPTTUNE_OTLP_ENDPOINT", &cfg.Tracing.OTLPEndpoint)
	envString("PROMPTTUNE_ENVIRONMENT", &cfg.Tracing.Environment)
	envString("PROMPTTUNE_LOG_LEVEL", &cfg.Tracing.LogLevel)
}

// IsDatabaseConfigured returns true if a PostgreSQL URL is set
func (c *Config) IsDatabaseConfigured() bool {
	return c.Database.PostgresURL != ""
}

// isValidURL validates that a URL has proper format
func isValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Validate checks that the configuration has valid values
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server port must be between 1 and 65535")
	}

	// LLM validation
	if !slices.Contains(llmProviders, c.LLM.Provider) {
		errs = append(errs, fmt.Sprintf("LLM provider must be one of %s", strings.Join(llmProviders, ", ")))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, "LLM temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens < 1 {
		errs = append(errs, "LLM max_tokens must be positive")
	}
	if c.LLM.TimeoutSeconds < 1 {
		errs = append(errs, "LLM timeout_seconds must be positive")
	}
	if c.LLM.Model == "" {
		errs = append(errs, "LLM model is required")
	}
	if c.LLM.URL == "" {
		errs = append(errs, "LLM URL is required")
	} else if !isValidURL(c.LLM.URL) {
		errs = append(errs, "LLM URL must be a valid URL")
	}

	// Database validation
	if c.Database.PostgresURL != "" && !isValidURL(c.Database.PostgresURL) {
		errs = append(errs, "PostgreSQL URL must be a valid URL")
	}

	// Tuning validation
	if c.Tuning.MaxConcurrency < 0 {
		errs = append(errs, "max_concurrency must not be negative")
	}

	// Tracing validation
	if c.Tracing.OTLPEndpoint != "" && !isValidURL(c.Tracing.OTLPEndpoint) {
		errs = append(errs, "OTLP endpoint must be a valid URL")
	}
	switch strings.ToLower(c.Tracing.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, "log level must be debug, info, warn or error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() string {
	if path := os.Getenv("PROMPTTUNE_CONFIG"); path != "" {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}

	// Check ~/.config/prompttune/config.json first
	configPath := filepath.Join(homeDir, ".config", "prompttune", "config.json")
	if _, err := os.Stat(configPath); err == nil {
		return configPath
	}

	// Check ~/.prompttune/config.json
	altPath := filepath.Join(homeDir, ".prompttune", "config.json")
	if _, err := os.Stat(altPath); err == nil {
		return altPath
	}

	return configPath
}
