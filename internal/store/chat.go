package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ChatMessage is a message posted on an order. An empty To is a broadcast.
type ChatMessage struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	From      string    `json:"from"`
	To        string    `json:"to,omitempty"`
	Message   string    `json:"message"`
	IsSystem  bool      `json:"isSystem"`
	Files     []string  `json:"files"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatRepository stores order chat messages.
type ChatRepository struct {
	conn DBTX
}

// Create inserts m, assigning an ID when it has none.
func (r *ChatRepository) Create(ctx context.Context, m *ChatMessage) error {
	if m.ID == "" {
		m.ID = NewID("msg")
	}
	if m.Files == nil {
		m.Files = []string{}
	}

	files, err := json.Marshal(m.Files)
	if err != nil {
		return fmt.Errorf("encode message files: %w", err)
	}

	to := sql.NullString{String: m.To, Valid: m.To != ""}
	_, err = r.conn.ExecContext(ctx, `
		INSERT INTO chat_messages (id, order_id, from_user, to_user, message, is_system, files_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.OrderID, m.From, to, m.Message, m.IsSystem, string(files), formatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// ListByOrder returns the messages of an order, oldest first.
func (r *ChatRepository) ListByOrder(ctx context.Context, orderID string) ([]ChatMessage, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT id, order_id, from_user, to_user, message, is_system, files_json, created_at
		FROM chat_messages
		WHERE order_id = ?
		ORDER BY created_at, rowid
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]ChatMessage, 0)
	for rows.Next() {
		var (
			m         ChatMessage
			to        sql.NullString
			files     string
			createdAt string
		)
		if err := rows.Scan(&m.ID, &m.OrderID, &m.From, &to, &m.Message, &m.IsSystem, &files, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.To = to.String
		if err := json.Unmarshal([]byte(files), &m.Files); err != nil {
			return nil, fmt.Errorf("decode message %q files: %w", m.ID, err)
		}
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return messages, nil
}
