package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mkemble/relay/internal/bridge"
	"github.com/mkemble/relay/internal/config"
	"github.com/mkemble/relay/internal/llm"
	"github.com/mkemble/relay/internal/transcript"
)

// defaultSystemPrompt is used when the config does not override it.
const defaultSystemPrompt = "You are a helpful assistant. Use the provided tools when appropriate."

// chatLoop drives the interactive console: user turns go to the LLM
// with the bridged tool definitions; tool calls come back as a batch,
// are dispatched against the MCP server, and the results are submitted
// before the model produces its final answer for the turn.
type chatLoop struct {
	cfg        *config.Config
	registry   *bridge.Registry
	dispatcher *bridge.Dispatcher
	backend    llm.Client
	store      *transcript.Store
	logger     *slog.Logger

	conversationID string
	messages       []llm.Message
}

func newChatLoop(cfg *config.Config, registry *bridge.Registry, dispatcher *bridge.Dispatcher, backend llm.Client, store *transcript.Store, logger *slog.Logger) *chatLoop {
	prompt := cfg.Agent.SystemPrompt
	if prompt == "" {
		prompt = defaultSystemPrompt
	}

	return &chatLoop{
		cfg:            cfg,
		registry:       registry,
		dispatcher:     dispatcher,
		backend:        backend,
		store:          store,
		logger:         logger,
		conversationID: uuid.NewString(),
		messages: []llm.Message{
			{Role: "system", Content: prompt},
		},
	}
}

// Run reads user lines until EOF, "quit", or context cancellation.
func (l *chatLoop) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		fmt.Fprint(stdout, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(stdout)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			fmt.Fprintln(stdout, "bye")
			return nil
		}

		reply, err := l.turn(ctx, line)
		if err != nil {
			// Turn failures are reported and the console continues;
			// only a cancelled context ends the session.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(stdout, "(turn failed: %v)\n", err)
			continue
		}

		fmt.Fprintf(stdout, "Assistant: %s\n", reply)
	}
}

// turn runs one full user turn: the model may request several rounds
// of tool calls before producing its answer. Each batch of calls is
// driven to completion and its results submitted before the
// conversation proceeds.
func (l *chatLoop) turn(ctx context.Context, userInput string) (string, error) {
	l.messages = append(l.messages, llm.Message{Role: "user", Content: userInput})
	l.record("user", userInput, "")

	maxIterations := l.cfg.Agent.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 10
	}

	tools := l.registry.Definitions()

	for iteration := 0; iteration < maxIterations; iteration++ {
		resp, err := l.backend.Chat(ctx, l.cfg.Agent.Model, l.messages, tools)
		if err != nil {
			return "", fmt.Errorf("chat: %w", err)
		}

		l.messages = append(l.messages, resp.Message)

		if len(resp.Message.ToolCalls) == 0 {
			l.record("assistant", resp.Message.Content, "")
			return resp.Message.Content, nil
		}

		l.logger.Info("model requested tool calls",
			"count", len(resp.Message.ToolCalls),
			"iteration", iteration,
		)

		requests := make([]bridge.ToolCallRequest, len(resp.Message.ToolCalls))
		for i, tc := range resp.Message.ToolCalls {
			argsJSON, err := json.Marshal(tc.Function.Arguments)
			if err != nil {
				// Pass the failure through as the payload. It is not
				// valid JSON, so the dispatcher reports the call as
				// having bad arguments instead of silently running it
				// with none.
				argsJSON = []byte("marshal arguments: " + err.Error())
			}
			requests[i] = bridge.ToolCallRequest{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: string(argsJSON),
			}
		}

		results := l.dispatcher.ExecuteBatch(ctx, requests)

		for i, res := range results {
			name := requests[i].Name
			l.messages = append(l.messages, llm.Message{
				Role:       "tool",
				Content:    res.Output,
				ToolCallID: res.ID,
			})
			l.record("tool", res.Output, name)
		}
	}

	return "", fmt.Errorf("no final answer after %d tool-call rounds", maxIterations)
}

// record stores a message in the transcript; storage failures are
// logged, not fatal — the conversation matters more than its archive.
func (l *chatLoop) record(role, content, toolName string) {
	if l.store == nil {
		return
	}
	if err := l.store.AddMessage(l.conversationID, role, content, toolName); err != nil {
		l.logger.Warn("transcript write failed", "role", role, "error", err)
	}
}
