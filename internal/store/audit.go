package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AuditEntry records who did what. An empty UserID means the action had no
// authenticated actor.
type AuditEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	IPAddress string    `json:"ipAddress"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuditRepository is an append-only log of actions.
type AuditRepository struct {
	conn DBTX
}

// Append inserts e, assigning an ID when it has none.
func (r *AuditRepository) Append(ctx context.Context, e *AuditEntry) error {
	if e.ID == "" {
		e.ID = NewID("log")
	}

	userID := sql.NullString{String: e.UserID, Valid: e.UserID != ""}
	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO audit_logs (id, user_id, action, details, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, userID, e.Action, e.Details, e.IPAddress, formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// AuditFilter narrows List. Empty fields match everything.
type AuditFilter struct {
	UserID string
	Action string
	Limit  int
}

// List returns the entries matching f, newest first.
func (r *AuditRepository) List(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.conn.QueryContext(ctx, `
		SELECT id, user_id, action, details, ip_address, created_at
		FROM audit_logs
		WHERE (? = '' OR user_id = ?)
			AND (? = '' OR action = ?)
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, f.UserID, f.UserID, f.Action, f.Action, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]AuditEntry, 0)
	for rows.Next() {
		var (
			e         AuditEntry
			userID    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &userID, &e.Action, &e.Details, &e.IPAddress, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.UserID = userID.String
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log: %w", err)
	}
	return entries, nil
}
