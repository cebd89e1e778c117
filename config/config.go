// config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sammcj/promptlab/types"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	defaultTemperature   = 0.1
	defaultMaxIterations = 10
)

// ModelParams holds everything needed to construct a chat model client
type ModelParams struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	APIBase     string        `yaml:"api_base"`
	Temperature float64       `yaml:"temperature"`
	Streaming   bool          `yaml:"streaming"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
}

// WithTemperature returns a copy of the params with a different temperature
func (p ModelParams) WithTemperature(t float64) ModelParams {
	p.Temperature = t
	return p
}

// WithStreaming returns a copy of the params with streaming toggled
func (p ModelParams) WithStreaming(streaming bool) ModelParams {
	p.Streaming = streaming
	return p
}

// MCPServerConfig holds configuration for a single MCP server
type MCPServerConfig struct {
	Name      string            `yaml:"name"`
	Command   string            `yaml:"command"`
	Arguments []string          `yaml:"arguments,omitempty"`
	Env       map[string]string `yaml:"env,omitempty"`
}

// HistoryConfig selects where chat transcripts are kept
type HistoryConfig struct {
	Backend  string        `yaml:"backend"`
	Path     string        `yaml:"path"`
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

// AgentConfig bounds the tool-calling loop
type AgentConfig struct {
	MaxIterations int  `yaml:"max_iterations"`
	Parallel      bool `yaml:"parallel"`
}

// LoggingConfig mirrors the logrus settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config holds the complete configuration for the demos
type Config struct {
	LLM        ModelParams       `yaml:"llm"`
	MCPServers []MCPServerConfig `yaml:"mcp_servers"`
	History    HistoryConfig     `yaml:"history"`
	Agent      AgentConfig       `yaml:"agent"`
	Logging    LoggingConfig     `yaml:"logging"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.LLM = ModelParams{
		Provider:    ProviderOpenAI,
		Temperature: defaultTemperature,
		Streaming:   true,
	}

	cfg.History.Backend = "memory"
	cfg.History.Path = "history.db"

	cfg.Agent.MaxIterations = defaultMaxIterations

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"

	return cfg
}

// LoadEnv loads .env files into the process environment. A missing file is not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return &types.ConfigError{Field: f, Message: "failed to load env file", Err: err}
		}
	}
	return nil
}

// ModelFromEnv reads the chat model settings. Unset variables become empty strings.
func ModelFromEnv() ModelParams {
	p := NewModelParams(true, defaultTemperature)
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		p.Provider = strings.ToLower(provider)
	}
	return p
}

// NewModelParams builds params from the environment with the given streaming and temperature
func NewModelParams(streaming bool, temperature float64) ModelParams {
	return ModelParams{
		Provider:    ProviderOpenAI,
		Model:       os.Getenv("OPENAI_MODEL"),
		APIKey:      os.Getenv("OPENAI_API_KEY"),
		APIBase:     os.Getenv("OPENAI_API_BASE"),
		Temperature: temperature,
		Streaming:   streaming,
	}
}

// TapdServerFromEnv describes the TAPD MCP server launched through uvx.
// MCP_SERVER_COMMAND and MCP_SERVER_ARGS replace the command for local runs.
func TapdServerFromEnv() MCPServerConfig {
	srv := MCPServerConfig{
		Name:      "tapd",
		Command:   "uvx",
		Arguments: []string{"mcp-server-tapd"},
		Env: map[string]string{
			"TAPD_ACCESS_TOKEN": os.Getenv("TAPD_ACCESS_TOKEN"),
			"TAPD_API_BASE_URL": os.Getenv("TAPD_API_BASE_URL"),
			"TAPD_BASE_URL":     os.Getenv("TAPD_BASE_URL"),
			"CURRENT_USER_NICK": os.Getenv("CURRENT_USER_NICK"),
			"BOT_URL":           os.Getenv("BOT_URL"),
		},
	}
	if cmd := os.Getenv("MCP_SERVER_COMMAND"); cmd != "" {
		srv.Name = "local"
		srv.Command = cmd
		srv.Arguments = strings.Fields(os.Getenv("MCP_SERVER_ARGS"))
	}
	return srv
}

// FromEnv assembles the full configuration from the environment on top of the defaults
func FromEnv() *Config {
	cfg := DefaultConfig()
	cfg.LLM = ModelFromEnv()
	cfg.MCPServers = []MCPServerConfig{TapdServerFromEnv()}

	if v := os.Getenv("HISTORY_BACKEND"); v != "" {
		cfg.History.Backend = v
	}
	if v := os.Getenv("HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.History.RedisURL = v
	}
	if v, err := strconv.Atoi(os.Getenv("AGENT_MAX_ITERATIONS")); err == nil && v > 0 {
		cfg.Agent.MaxIterations = v
	}
	if v, err := strconv.ParseBool(os.Getenv("AGENT_PARALLEL_TOOLS")); err == nil {
		cfg.Agent.Parallel = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return cfg
}

// Load reads and parses the configuration file over the defaults
func Load(path string) (*Config, error) {
	return LoadInto(DefaultConfig(), path)
}

// LoadInto applies the configuration file on top of base, so keys the file leaves
// out keep base's values. A file listing mcp_servers replaces base's list.
func LoadInto(base *Config, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := base
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// "arguments: []" and an absent key mean the same thing
	for i := range cfg.MCPServers {
		if len(cfg.MCPServers[i].Arguments) == 0 {
			cfg.MCPServers[i].Arguments = nil
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// validate checks the structural fields of a config file. Model fields are passed through untouched.
func (c *Config) validate() error {
	for i, server := range c.MCPServers {
		if server.Name == "" {
			return &types.ConfigError{Field: fmt.Sprintf("mcp_servers[%d].name", i), Message: "is required"}
		}
		if server.Command == "" {
			return &types.ConfigError{Field: fmt.Sprintf("mcp_servers[%d].command", i), Message: "is required"}
		}
	}

	switch c.History.Backend {
	case "", "memory", "sqlite", "redis":
	default:
		return &types.ConfigError{Field: "history.backend", Message: fmt.Sprintf("unknown backend %q", c.History.Backend)}
	}

	if c.Agent.MaxIterations < 0 {
		return &types.ConfigError{Field: "agent.max_iterations", Message: "must not be negative"}
	}

	return nil
}

// Server returns the named MCP server, or the first one when name is empty
func (c *Config) Server(name string) (MCPServerConfig, bool) {
	for _, s := range c.MCPServers {
		if name == "" || s.Name == name {
			return s, true
		}
	}
	return MCPServerConfig{}, false
}
