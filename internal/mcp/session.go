package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// sessionState tracks a Manager's lifecycle.
type sessionState int

const (
	stateUninitialized sessionState = iota
	stateReady
	stateClosed
)

// ManagerConfig configures session establishment.
type ManagerConfig struct {
	// Server describes the subprocess to launch.
	Server StdioConfig

	// ConnectTimeout bounds a single connection attempt, handshake
	// included. Zero means 30s.
	ConnectTimeout time.Duration

	// Retries is the number of additional attempts after the first
	// failure.
	Retries int

	// Logger is the structured logger for session diagnostics.
	Logger *slog.Logger
}

// Manager owns the lifecycle of the connection to one MCP tool server.
// It holds at most one active session; concurrent Acquire calls are
// serialized and an Acquire on a ready Manager returns the existing
// session rather than spawning a second server.
type Manager struct {
	config ManagerConfig
	logger *slog.Logger

	mu     sync.Mutex
	state  sessionState
	client *Client
}

// NewManager creates a session manager for the configured server.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		config: cfg,
		logger: logger,
	}
}

// Acquire launches the tool-server subprocess, establishes the stdio
// stream, and performs the MCP handshake, retrying within the
// configured budget. On success the Manager is ready and the returned
// *Client is valid until Release. Exhausting the budget returns a
// *ConnectionError.
//
// A closed Manager cannot be re-acquired.
func (m *Manager) Acquire(ctx context.Context) (*Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case stateReady:
		return m.client, nil
	case stateClosed:
		return nil, &ConnectionError{
			Command:  m.config.Server.Command,
			Attempts: 0,
			Err:      fmt.Errorf("session manager is closed"),
		}
	}

	timeout := m.config.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	attempts := 1 + m.config.Retries

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		client, err := m.connect(ctx, timeout)
		if err == nil {
			m.state = stateReady
			m.client = client
			return client, nil
		}
		lastErr = err

		m.logger.Warn("MCP connection attempt failed",
			"command", m.config.Server.Command,
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err,
		)

		if attempt < attempts {
			// Brief pause before the next attempt; keeps a crashing
			// server from being respawned in a tight loop.
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}

	return nil, &ConnectionError{
		Command:  m.config.Server.Command,
		Attempts: attempts,
		Err:      lastErr,
	}
}

// connect performs one bounded connection attempt.
func (m *Manager) connect(ctx context.Context, timeout time.Duration) (*Client, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	transport := NewStdioTransport(m.config.Server)
	client := NewClient(m.config.Server.Command, transport, m.logger)

	if err := client.Initialize(attemptCtx); err != nil {
		// The half-initialized subprocess is useless; tear it down
		// before the next attempt.
		_ = transport.Close()
		return nil, err
	}

	return client, nil
}

// Release terminates the tool-server subprocess and closes the stream.
// It is safe to call multiple times and on a Manager that never
// acquired; run it on every exit path.
func (m *Manager) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != stateReady {
		m.state = stateClosed
		return nil
	}

	m.state = stateClosed
	err := m.client.Close()
	m.client = nil
	return err
}
