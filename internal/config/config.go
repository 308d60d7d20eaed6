// Package config provides YAML-based configuration loading for Switchboard.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Switchboard configuration, loaded from config.yaml.
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	LLM         LLMConfig         `yaml:"llm"`
	Transcripts TranscriptsConfig `yaml:"transcripts"`
	API         APIConfig         `yaml:"api"`
	Bridge      BridgeConfig      `yaml:"bridge"`
}

// DatabaseConfig holds connection settings for the ticket database.
// The sqlite driver is used for local development and tests; mysql for
// shared deployments.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "mysql"
	Path   string `yaml:"path"`   // sqlite file path
	Host   string `yaml:"host"`   // mysql host
	Port   int    `yaml:"port"`   // mysql port
	Name   string `yaml:"name"`   // mysql database name
	User   string `yaml:"user"`   // mysql user
}

// LLMConfig configures the completion service used for extraction.
// The endpoint is any OpenAI-compatible chat-completions API.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"` // env var holding the API key
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	MaxRetries  int     `yaml:"max_retries"`
}

// TranscriptsConfig controls per-session transcript files.
type TranscriptsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// APIConfig configures the HTTP API server.
type APIConfig struct {
	Port int `yaml:"port"`
}

// BridgeConfig configures the chat-platform bridge daemon.
type BridgeConfig struct {
	Platform       string `yaml:"platform"`      // "discord" or "slack"
	TokenEnv       string `yaml:"token_env"`     // env var holding the bot token
	AppTokenEnv    string `yaml:"app_token_env"` // env var holding the Slack app token
	ChannelID      string `yaml:"channel_id"`    // default channel to post to
	IdleTimeoutMin int    `yaml:"idle_timeout_min"`
	DigestCron     string `yaml:"digest_cron"` // 5-field cron, empty disables digests
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a Config with all defaults applied, suitable for
// local development without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// APIKey resolves the completion-service API key from the environment.
func (c *Config) APIKey() string {
	return os.Getenv(c.LLM.APIKeyEnv)
}

// BridgeToken resolves the chat-platform bot token from the environment.
func (c *Config) BridgeToken() string {
	return os.Getenv(c.Bridge.TokenEnv)
}

// BridgeAppToken resolves the Slack app-level token from the environment.
func (c *Config) BridgeAppToken() string {
	return os.Getenv(c.Bridge.AppTokenEnv)
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "switchboard.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Name == "" {
		c.Database.Name = "switchboard"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama-3.3-70b-versatile"
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = "SWITCHBOARD_LLM_KEY"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 4096
	}
	if c.LLM.TimeoutSec == 0 {
		c.LLM.TimeoutSec = 30
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = 3
	}
	if c.Transcripts.Dir == "" {
		c.Transcripts.Dir = "transcripts"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Bridge.TokenEnv == "" {
		c.Bridge.TokenEnv = "SWITCHBOARD_BOT_TOKEN"
	}
	if c.Bridge.AppTokenEnv == "" {
		c.Bridge.AppTokenEnv = "SWITCHBOARD_APP_TOKEN"
	}
	if c.Bridge.IdleTimeoutMin == 0 {
		c.Bridge.IdleTimeoutMin = 30
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Database.Driver == "mysql" && c.Database.Name == "" {
		errs = append(errs, "database.name is required for mysql")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Sprintf("llm.temperature %v out of range 0-2", c.LLM.Temperature))
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, "llm.max_retries must not be negative")
	}
	switch c.Bridge.Platform {
	case "", "discord", "slack":
	default:
		errs = append(errs, fmt.Sprintf("bridge.platform %q is not supported (discord, slack)", c.Bridge.Platform))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
