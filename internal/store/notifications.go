package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	NotificationNewClient  = "new_client"
	NotificationNewOrder   = "new_order"
	NotificationNewMessage = "new_message"
)

// Notification is an in-app message for one user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationRepository stores notifications.
type NotificationRepository struct {
	conn DBTX
}

// Create inserts n, assigning an ID when it has none.
func (r *NotificationRepository) Create(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = NewID("notif")
	}

	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, n.Type, n.Title, n.Message, n.IsRead, formatTime(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// Recent returns up to limit notifications of userID, newest first.
func (r *NotificationRepository) Recent(ctx context.Context, userID string, limit int) ([]Notification, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT id, user_id, type, title, message, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]Notification, 0, limit)
	for rows.Next() {
		var (
			n         Notification
			createdAt string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if n.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread returns the number of unread notifications of userID.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = FALSE`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks the given notifications of userID as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")

	_, err := r.conn.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = ? AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}
