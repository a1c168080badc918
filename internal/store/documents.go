package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DocumentStatusGenerated marks a document whose file has been written.
const DocumentStatusGenerated = "generated"

// Document is a generated file attached to an order.
type Document struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	OrderID     string    `json:"orderId"`
	ClientID    string    `json:"clientId"`
	GeneratedBy string    `json:"generatedBy"`
	FileName    string    `json:"fileName"`
	FilePath    string    `json:"filePath"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DocumentRepository stores document records.
type DocumentRepository struct {
	conn DBTX
}

const documentColumns = `id, type, order_id, client_id, generated_by, file_name, file_path, status, created_at`

// Create inserts d, assigning an ID when it has none.
func (r *DocumentRepository) Create(ctx context.Context, d *Document) error {
	if d.ID == "" {
		d.ID = NewID("doc")
	}

	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Type, d.OrderID, d.ClientID, d.GeneratedBy, d.FileName, d.FilePath, d.Status, formatTime(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Get returns the document with id.
func (r *DocumentRepository) Get(ctx context.Context, id string) (Document, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("document %q: %w", id, ErrNotFound)
	}
	return d, err
}

// ListByOrder returns the documents of an order, newest first.
func (r *DocumentRepository) ListByOrder(ctx context.Context, orderID string) ([]Document, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE order_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	documents := make([]Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return documents, nil
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		d         Document
		createdAt string
	)
	if err := row.Scan(&d.ID, &d.Type, &d.OrderID, &d.ClientID, &d.GeneratedBy, &d.FileName, &d.FilePath,
		&d.Status, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, err
		}
		return Document{}, fmt.Errorf("scan document: %w", err)
	}

	var err error
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return Document{}, err
	}
	return d, nil
}
