// Package transcript persists conversation history for the bridge
// console, including the tool calls made on the agent's behalf.
package transcript

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver for database/sql
)

// Message is one stored conversation message.
type Message struct {
	ID             string
	ConversationID string
	Role           string // user, assistant, tool
	Content        string
	ToolName       string // set for role "tool"
	Timestamp      time.Time
}

// Store is a SQLite-backed transcript store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the transcript database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		tool_name TEXT NOT NULL DEFAULT '',
		timestamp TIMESTAMP NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_conversation
		ON messages(conversation_id, timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// AddMessage appends a message to a conversation, creating the
// conversation row on first use.
func (s *Store) AddMessage(conversationID, role, content, toolName string) error {
	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO conversations (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		conversationID, now, now)
	if err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO messages (id, conversation_id, role, content, tool_name, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), conversationID, role, content, toolName, now)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	return tx.Commit()
}

// Messages returns a conversation's messages in chronological order.
// limit <= 0 returns everything.
func (s *Store) Messages(conversationID string, limit int) ([]Message, error) {
	query := `
		SELECT id, conversation_id, role, content, tool_name, timestamp
		FROM messages
		WHERE conversation_id = ?
		ORDER BY timestamp ASC`
	args := []any{conversationID}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.ToolName, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// Stats returns row counts for diagnostics.
func (s *Store) Stats() (conversations, messages int, err error) {
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&conversations); err != nil {
		return 0, 0, err
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&messages); err != nil {
		return 0, 0, err
	}
	return conversations, messages, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
