package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all sellerpulse configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Extractor backend
	LLM LLMConfig `yaml:"llm"`

	// Metrics backend API
	Metrics MetricsConfig `yaml:"metrics"`

	// Hardcoded response table
	Hardcoded HardcodedConfig `yaml:"hardcoded"`

	// Conversation history
	Session SessionConfig `yaml:"session"`

	// HTTP transport
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the LLM extractor backend.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, openai
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	// Timeout bounds a single extraction attempt; a timed-out attempt
	// consumes one normalizer retry.
	Timeout string `yaml:"timeout"`
}

// MetricsConfig configures the metrics backend API client.
type MetricsConfig struct {
	Environment string `yaml:"environment"` // local, dev, production
	DevBaseURL  string `yaml:"dev_base_url"`
	ProdBaseURL string `yaml:"prod_base_url"`
	Timeout     string `yaml:"timeout"`
}

// HardcodedConfig configures the canned-response table.
type HardcodedConfig struct {
	TablePath string `yaml:"table_path"`
	// Mode is "substring" (canonical fragments match anywhere in the
	// question) or "exact" (whole normalized question must match).
	Mode string `yaml:"mode"`
	// Watch reloads the table when the file changes on disk.
	Watch bool `yaml:"watch"`
}

// SessionConfig configures conversation history storage.
type SessionConfig struct {
	DatabasePath string `yaml:"database_path"`
	// HistoryTurns is how many recent turns are handed to the extractor.
	HistoryTurns int `yaml:"history_turns"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "sellerpulse",
		Version: "1.0.0",

		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
			Timeout:  "20s",
		},

		Metrics: MetricsConfig{
			Environment: "local",
			DevBaseURL:  "https://api.dev.sellerpulse.io/math/v1",
			ProdBaseURL: "https://api.sellerpulse.io/math/v1",
			Timeout:     "30s",
		},

		Hardcoded: HardcodedConfig{
			TablePath: "config/hardcoded.yaml",
			Mode:      "substring",
			Watch:     false,
		},

		Session: SessionConfig{
			DatabasePath: "data/sellerpulse.db",
			HistoryTurns: 5,
		},

		Server: ServerConfig{
			Addr: ":8080",
		},

		Logging: LoggingConfig{
			Debug: false,
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults
// when the file does not exist. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
	}
	if model := os.Getenv("SELLERPULSE_LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if env := os.Getenv("SELLERPULSE_ENV"); env != "" {
		c.Metrics.Environment = env
	}
	if url := os.Getenv("SELLERPULSE_METRICS_URL"); url != "" {
		c.Metrics.ProdBaseURL = url
		c.Metrics.DevBaseURL = url
	}
	if path := os.Getenv("SELLERPULSE_DB"); path != "" {
		c.Session.DatabasePath = path
	}
	if addr := os.Getenv("SELLERPULSE_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
}

// MetricsBaseURL returns the metrics API base URL for the configured
// environment. Local and production both use the production URL.
func (c *Config) MetricsBaseURL() string {
	if c.Metrics.Environment == "dev" {
		return c.Metrics.DevBaseURL
	}
	return c.Metrics.ProdBaseURL
}

// LLMTimeout returns the per-attempt extractor timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 20 * time.Second
	}
	return d
}

// MetricsTimeout returns the metrics API timeout as a duration.
func (c *Config) MetricsTimeout() time.Duration {
	d, err := time.ParseDuration(c.Metrics.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ValidProviders lists the supported extractor backends.
var ValidProviders = []string{"gemini", "openai"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	switch c.Hardcoded.Mode {
	case "substring", "exact":
	default:
		return fmt.Errorf("invalid hardcoded match mode: %s (valid: substring, exact)", c.Hardcoded.Mode)
	}

	return nil
}
