// Package config handles relay configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./relay.yaml, ~/.config/relay/config.yaml, /etc/relay/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"relay.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "relay", "config.yaml"))
	}

	paths = append(paths, "/etc/relay/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all relay configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Agent    AgentConfig    `yaml:"agent"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	DataDir  string         `yaml:"data_dir"`
	LogLevel string         `yaml:"log_level"`
}

// ServerConfig defines the MCP tool server subprocess and its
// connection budget.
type ServerConfig struct {
	// Command is the executable that speaks MCP over stdio.
	Command string `yaml:"command"`
	// Args are command-line arguments passed to the executable.
	Args []string `yaml:"args"`
	// Env are additional environment variables ("KEY=VALUE").
	Env []string `yaml:"env"`
	// ConnectTimeoutSec bounds a single connection attempt, handshake
	// included (default 30).
	ConnectTimeoutSec int `yaml:"connect_timeout_sec"`
	// ConnectRetries is the number of additional attempts after the
	// first connection failure. Unset means 2; an explicit zero
	// disables retries.
	ConnectRetries *int `yaml:"connect_retries"`
	// CallTimeoutSec bounds a single tool call round trip (default 60).
	CallTimeoutSec int `yaml:"call_timeout_sec"`
}

// AgentConfig defines the LLM backend that drives the conversation.
type AgentConfig struct {
	// BaseURL is an Ollama-compatible chat API endpoint.
	BaseURL string `yaml:"base_url"`
	// Model is the model name requested for every chat turn.
	Model string `yaml:"model"`
	// SystemPrompt overrides the default instructions.
	SystemPrompt string `yaml:"system_prompt"`
	// MaxIterations caps tool-call rounds within one user turn (default 10).
	MaxIterations int `yaml:"max_iterations"`
}

// BridgeConfig tunes how discovered tools are exposed to the agent.
type BridgeConfig struct {
	// IncludeTools limits bridging to these MCP tool names. Empty = all.
	IncludeTools []string `yaml:"include_tools"`
	// ExcludeTools skips these MCP tool names. Ignored when
	// IncludeTools is non-empty.
	ExcludeTools []string `yaml:"exclude_tools"`
	// OmitPlaceholders drops non-text result content silently instead
	// of emitting "[image]"-style markers.
	OmitPlaceholders bool `yaml:"omit_placeholders"`
}

// ConnectTimeout returns the per-attempt connection timeout.
func (s ServerConfig) ConnectTimeout() time.Duration {
	if s.ConnectTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.ConnectTimeoutSec) * time.Second
}

// CallTimeout returns the per-call round-trip timeout.
func (s ServerConfig) CallTimeout() time.Duration {
	if s.CallTimeoutSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.CallTimeoutSec) * time.Second
}

// Retries returns the connection retry budget.
func (s ServerConfig) Retries() int {
	if s.ConnectRetries == nil {
		return 2
	}
	if *s.ConnectRetries < 0 {
		return 0
	}
	return *s.ConnectRetries
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Command == "" {
		return nil, fmt.Errorf("%s: server.command is required", path)
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			BaseURL:       "http://localhost:11434",
			Model:         "qwen3:4b",
			MaxIterations: 10,
		},
		DataDir: ".",
	}
}
