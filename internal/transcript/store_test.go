package transcript

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "transcript.db"))
	if err != nil {
		t.Fatalf("Open() = %v, want nil", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndListMessages(t *testing.T) {
	s := openTestStore(t)

	const conv = "conv-1"
	steps := []struct {
		role    string
		content string
		tool    string
	}{
		{role: "user", content: "what's the weather in Boise?"},
		{role: "assistant", content: ""},
		{role: "tool", content: "Sunny, 75F", tool: "get_forecast"},
		{role: "assistant", content: "It's sunny and 75 in Boise."},
	}

	for _, step := range steps {
		if err := s.AddMessage(conv, step.role, step.content, step.tool); err != nil {
			t.Fatalf("AddMessage(%s) = %v, want nil", step.role, err)
		}
	}

	messages, err := s.Messages(conv, 0)
	if err != nil {
		t.Fatalf("Messages() = %v, want nil", err)
	}
	if len(messages) != len(steps) {
		t.Fatalf("len(messages) = %d, want %d", len(messages), len(steps))
	}

	for i, step := range steps {
		m := messages[i]
		if m.Role != step.role {
			t.Errorf("messages[%d].Role = %q, want %q", i, m.Role, step.role)
		}
		if m.Content != step.content {
			t.Errorf("messages[%d].Content = %q, want %q", i, m.Content, step.content)
		}
		if m.ToolName != step.tool {
			t.Errorf("messages[%d].ToolName = %q, want %q", i, m.ToolName, step.tool)
		}
		if m.ID == "" {
			t.Errorf("messages[%d].ID is empty", i)
		}
		if m.ConversationID != conv {
			t.Errorf("messages[%d].ConversationID = %q", i, m.ConversationID)
		}
		if m.Timestamp.IsZero() {
			t.Errorf("messages[%d].Timestamp is zero", i)
		}
	}
}

func TestMessagesLimit(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 5; i++ {
		if err := s.AddMessage("conv-1", "user", "hello", ""); err != nil {
			t.Fatal(err)
		}
	}

	messages, err := s.Messages("conv-1", 2)
	if err != nil {
		t.Fatalf("Messages() = %v, want nil", err)
	}
	if len(messages) != 2 {
		t.Errorf("len(messages) = %d, want 2", len(messages))
	}
}

func TestMessagesIsolatedByConversation(t *testing.T) {
	s := openTestStore(t)

	if err := s.AddMessage("conv-a", "user", "a", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.AddMessage("conv-b", "user", "b", ""); err != nil {
		t.Fatal(err)
	}

	messages, err := s.Messages("conv-a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 1 || messages[0].Content != "a" {
		t.Errorf("messages = %+v, want only conv-a rows", messages)
	}
}

func TestMessagesEmptyConversation(t *testing.T) {
	s := openTestStore(t)

	messages, err := s.Messages("missing", 0)
	if err != nil {
		t.Fatalf("Messages() = %v, want nil", err)
	}
	if len(messages) != 0 {
		t.Errorf("len(messages) = %d, want 0", len(messages))
	}
}

func TestStats(t *testing.T) {
	s := openTestStore(t)

	s.AddMessage("conv-a", "user", "1", "")
	s.AddMessage("conv-a", "assistant", "2", "")
	s.AddMessage("conv-b", "user", "3", "")

	conversations, messages, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats() = %v, want nil", err)
	}
	if conversations != 2 {
		t.Errorf("conversations = %d, want 2", conversations)
	}
	if messages != 3 {
		t.Errorf("messages = %d, want 3", messages)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.AddMessage("conv-1", "user", "hi", ""); err != nil {
		t.Fatal(err)
	}
	s1.Close()

	// Reopening must not fail on the existing schema, and rows persist.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen = %v, want nil", err)
	}
	defer s2.Close()

	messages, err := s2.Messages("conv-1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 1 {
		t.Errorf("len(messages) after reopen = %d, want 1", len(messages))
	}
}
