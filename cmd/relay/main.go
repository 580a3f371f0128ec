// Relay bridges LLM function calling to an MCP tool server.
//
// It launches the configured tool server as a subprocess, discovers
// its tools, translates their schemas into function definitions, and
// runs an interactive chat loop in which the model's tool calls are
// dispatched against the server and the results fed back.
// Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	relay chat               Start the interactive console (default)
//	relay tools              List the tools discovered from the server
//	relay version            Print version and build information
//	relay -o json version    Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mkemble/relay/internal/bridge"
	"github.com/mkemble/relay/internal/buildinfo"
	"github.com/mkemble/relay/internal/config"
	"github.com/mkemble/relay/internal/llm"
	"github.com/mkemble/relay/internal/mcp"
	"github.com/mkemble/relay/internal/transcript"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the relay command. All OS-level
// dependencies are injected as parameters so the startup-to-shutdown
// lifecycle can be exercised from tests.
//
// Arguments are parsed by hand. The flag package relies on
// package-level globals (flag.CommandLine), which makes it impossible
// to call run() concurrently from tests, and our argument surface is
// small enough that manual parsing is clearer than a CLI framework.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++ // skip the value
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			return fmt.Errorf("unknown argument: %s (try -help)", args[i])
		}
	}

	if command == "" {
		command = "chat"
	}

	if command == "version" {
		return printVersion(stdout, outputFmt)
	}

	cfgPath, err := config.FindConfig(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
	slog.SetDefault(logger)

	logger.Info("starting", "build", buildinfo.String(), "config", cfgPath)

	// Shut down cleanly on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "chat":
		return runChat(ctx, stdin, stdout, cfg, logger)
	case "tools":
		return runTools(ctx, stdout, cfg, logger)
	default:
		return fmt.Errorf("unknown command: %s (try -help)", command)
	}
}

// startBridge acquires the MCP session, discovers tools, and builds
// the wrapper registry. The caller must Release the returned manager
// on every exit path.
func startBridge(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*mcp.Manager, *bridge.Registry, error) {
	manager := mcp.NewManager(mcp.ManagerConfig{
		Server: mcp.StdioConfig{
			Command: cfg.Server.Command,
			Args:    cfg.Server.Args,
			Env:     cfg.Server.Env,
			Logger:  logger,
		},
		ConnectTimeout: cfg.Server.ConnectTimeout(),
		Retries:        cfg.Server.Retries(),
		Logger:         logger,
	})

	client, err := manager.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}

	descriptors, err := client.ListTools(ctx)
	if err != nil {
		_ = manager.Release()
		return nil, nil, err
	}
	if len(descriptors) == 0 {
		logger.Warn("tool server advertises no tools")
	}

	registry := bridge.Build(client, descriptors, bridge.Options{
		Include: cfg.Bridge.IncludeTools,
		Exclude: cfg.Bridge.ExcludeTools,
		Format:  mcp.FormatOptions{OmitPlaceholders: cfg.Bridge.OmitPlaceholders},
	}, logger)

	logger.Info("bridge ready",
		"discovered", len(descriptors),
		"registered", registry.Len(),
		"skipped", registry.Skipped(),
	)

	return manager, registry, nil
}

// runTools prints the discovered tool set and exits.
func runTools(ctx context.Context, stdout io.Writer, cfg *config.Config, logger *slog.Logger) error {
	manager, registry, err := startBridge(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer manager.Release()

	for _, name := range registry.Names() {
		t := registry.Get(name)
		fmt.Fprintf(stdout, "%s\t%s\n", t.Name, t.Description)
	}
	return nil
}

// runChat starts the interactive console loop.
func runChat(ctx context.Context, stdin io.Reader, stdout io.Writer, cfg *config.Config, logger *slog.Logger) error {
	manager, registry, err := startBridge(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer manager.Release()

	store, err := transcript.Open(filepath.Join(cfg.DataDir, "relay.db"))
	if err != nil {
		return fmt.Errorf("open transcript store: %w", err)
	}
	defer store.Close()

	dispatcher := bridge.NewDispatcher(registry, cfg.Server.CallTimeout(), logger)
	backend := llm.NewOllamaClient(cfg.Agent.BaseURL)

	if err := backend.Ping(ctx); err != nil {
		return fmt.Errorf("agent backend: %w", err)
	}

	loop := newChatLoop(cfg, registry, dispatcher, backend, store, logger)
	return loop.Run(ctx, stdin, stdout)
}

// printVersion writes version info in the requested format.
func printVersion(stdout io.Writer, outputFmt string) error {
	if outputFmt == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(buildinfo.Info())
	}
	fmt.Fprintln(stdout, buildinfo.String())
	return nil
}

// printUsage writes command help.
func printUsage(stdout io.Writer) error {
	fmt.Fprint(stdout, `relay - LLM function calling to MCP tool server bridge

Usage:
  relay [flags] [command]

Commands:
  chat      Start the interactive console (default)
  tools     List the tools discovered from the configured server
  version   Print version and build information

Flags:
  -config PATH    Config file (default: search relay.yaml, ~/.config/relay/, /etc/relay/)
  -o FORMAT       Output format for version: text or json
  -h, -help       Show this help
`)
	return nil
}
