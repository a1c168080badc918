package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Client statuses. New clients start as ClientStatusNew.
const (
	ClientStatusNew      = "new"
	ClientStatusActive   = "active"
	ClientStatusInactive = "inactive"
)

// Client is a customer company.
type Client struct {
	ID            string    `json:"id"`
	CompanyName   string    `json:"companyName"`
	ContactPerson string    `json:"contactPerson"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Status        string    `json:"status"`
	AssignedTo    string    `json:"assignedTo"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ClientRepository stores clients.
type ClientRepository struct {
	conn DBTX
}

const clientColumns = `id, company_name, contact_person, email, phone, status, assigned_to, created_at, updated_at`

// Create inserts c, assigning an ID when it has none.
func (r *ClientRepository) Create(ctx context.Context, c *Client) error {
	if c.ID == "" {
		c.ID = NewID("client")
	}

	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.CompanyName, c.ContactPerson, c.Email, c.Phone, c.Status, c.AssignedTo,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert client %q: %w", c.ID, ErrConflict)
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// Get returns the client with id.
func (r *ClientRepository) Get(ctx context.Context, id string) (Client, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Client{}, fmt.Errorf("client %q: %w", id, ErrNotFound)
	}
	return c, err
}

// List returns clients whose company or contact matches query, newest first.
// An empty query returns every client.
func (r *ClientRepository) List(ctx context.Context, query string) ([]Client, error) {
	search := "%" + query + "%"
	rows, err := r.conn.QueryContext(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE (? = '' OR company_name LIKE ? OR contact_person LIKE ? OR email LIKE ?)
		ORDER BY created_at DESC, rowid DESC
	`, query, search, search, search)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	clients := make([]Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return clients, nil
}

// UpdateStatus changes the client status.
func (r *ClientRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	result, err := r.conn.ExecContext(ctx,
		`UPDATE clients SET status = ?, updated_at = ? WHERE id = ?`, status, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("update client status: %w", err)
	}
	return checkAffected(result, "update client status")
}

func scanClient(row rowScanner) (Client, error) {
	var (
		c                    Client
		createdAt, updatedAt string
	)
	if err := row.Scan(&c.ID, &c.CompanyName, &c.ContactPerson, &c.Email, &c.Phone, &c.Status, &c.AssignedTo,
		&createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Client{}, err
		}
		return Client{}, fmt.Errorf("scan client: %w", err)
	}

	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return Client{}, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Client{}, err
	}
	return c, nil
}
