package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  command: weathermcp
  args: ["-v"]
  env: ["NWS_USER_AGENT=relay-test"]
  connect_timeout_sec: 10
  connect_retries: 3
  call_timeout_sec: 120
agent:
  base_url: http://llm.internal:11434
  model: llama3.1:8b
  system_prompt: Be terse.
  max_iterations: 5
bridge:
  include_tools: [get_forecast]
  omit_placeholders: true
data_dir: /var/lib/relay
log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Server.Command != "weathermcp" {
		t.Errorf("Server.Command = %q", cfg.Server.Command)
	}
	if len(cfg.Server.Args) != 1 || cfg.Server.Args[0] != "-v" {
		t.Errorf("Server.Args = %v", cfg.Server.Args)
	}
	if got := cfg.Server.ConnectTimeout(); got != 10*time.Second {
		t.Errorf("ConnectTimeout() = %v, want 10s", got)
	}
	if got := cfg.Server.Retries(); got != 3 {
		t.Errorf("Retries() = %d, want 3", got)
	}
	if got := cfg.Server.CallTimeout(); got != 120*time.Second {
		t.Errorf("CallTimeout() = %v, want 120s", got)
	}
	if cfg.Agent.Model != "llama3.1:8b" {
		t.Errorf("Agent.Model = %q", cfg.Agent.Model)
	}
	if cfg.Agent.MaxIterations != 5 {
		t.Errorf("Agent.MaxIterations = %d", cfg.Agent.MaxIterations)
	}
	if len(cfg.Bridge.IncludeTools) != 1 || cfg.Bridge.IncludeTools[0] != "get_forecast" {
		t.Errorf("Bridge.IncludeTools = %v", cfg.Bridge.IncludeTools)
	}
	if !cfg.Bridge.OmitPlaceholders {
		t.Error("Bridge.OmitPlaceholders = false, want true")
	}
	if cfg.DataDir != "/var/lib/relay" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  command: weathermcp
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if got := cfg.Server.ConnectTimeout(); got != 30*time.Second {
		t.Errorf("ConnectTimeout() = %v, want 30s default", got)
	}
	if got := cfg.Server.Retries(); got != 2 {
		t.Errorf("Retries() = %d, want 2 default", got)
	}
	if got := cfg.Server.CallTimeout(); got != 60*time.Second {
		t.Errorf("CallTimeout() = %v, want 60s default", got)
	}
	if cfg.Agent.BaseURL != "http://localhost:11434" {
		t.Errorf("Agent.BaseURL = %q", cfg.Agent.BaseURL)
	}
	if cfg.Agent.MaxIterations != 10 {
		t.Errorf("Agent.MaxIterations = %d, want 10 default", cfg.Agent.MaxIterations)
	}
	if cfg.DataDir != "." {
		t.Errorf("DataDir = %q, want . default", cfg.DataDir)
	}
}

func TestLoadMissingCommand(t *testing.T) {
	path := writeConfig(t, `
agent:
  model: llama3.1:8b
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() = nil, want error for missing server.command")
	}
	if !strings.Contains(err.Error(), "server.command is required") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("RELAY_TEST_CMD", "weathermcp")

	path := writeConfig(t, `
server:
  command: ${RELAY_TEST_CMD}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Server.Command != "weathermcp" {
		t.Errorf("Server.Command = %q, want env-expanded value", cfg.Server.Command)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")

	if _, err := Load(path); err == nil {
		t.Fatal("Load() = nil, want YAML error")
	}
}

func TestRetries(t *testing.T) {
	intp := func(v int) *int { return &v }

	tests := []struct {
		name string
		in   *int
		want int
	}{
		{name: "unset uses default", in: nil, want: 2},
		{name: "explicit zero disables retries", in: intp(0), want: 0},
		{name: "negative clamps to zero", in: intp(-1), want: 0},
		{name: "positive passes through", in: intp(5), want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ServerConfig{ConnectRetries: tt.in}
			if got := s.Retries(); got != tt.want {
				t.Errorf("Retries() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLoadExplicitZeroRetries(t *testing.T) {
	path := writeConfig(t, `
server:
  command: weathermcp
  connect_retries: 0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if got := cfg.Server.Retries(); got != 0 {
		t.Errorf("Retries() = %d, want explicit zero honored", got)
	}
}

func TestFindConfigExplicitMissing(t *testing.T) {
	_, err := FindConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("FindConfig() = nil, want error for missing explicit path")
	}
}

func TestFindConfigExplicit(t *testing.T) {
	path := writeConfig(t, "server:\n  command: x\n")

	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("FindConfig() = %v, want nil", err)
	}
	if got != path {
		t.Errorf("FindConfig() = %q, want %q", got, path)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "trace", want: LevelTrace},
		{input: "debug", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "warning", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLogLevel(%q) = nil error, want error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLogLevel(%q) = %v, want nil", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
