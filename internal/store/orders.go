package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/printdesk/internal/pricing"
)

const (
	OrderStatusProcessing   = "processing"
	OrderStatusInProduction = "in_production"
	OrderStatusReady        = "ready"
	OrderStatusDelivered    = "delivered"
	OrderStatusCancelled    = "cancelled"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// CalculationSnapshot is a priced calculation stored with an order. It is
// read back as-is and never recalculated.
type CalculationSnapshot struct {
	CalculatorID string                     `json:"calculatorId"`
	Request      pricing.CalculationRequest `json:"request"`
	Result       pricing.CalculationResult  `json:"result"`
	Packaging    *pricing.PackagingQuote    `json:"packaging,omitempty"`
	CalculatedBy string                     `json:"calculatedBy"`
	CalculatedAt time.Time                  `json:"calculatedAt"`
}

// Order is a print job for a client.
type Order struct {
	ID          string               `json:"id"`
	ClientID    string               `json:"clientId"`
	Title       string               `json:"title"`
	Status      string               `json:"status"`
	Priority    string               `json:"priority"`
	AssignedTo  string               `json:"assignedTo"`
	Calculation *CalculationSnapshot `json:"calculation,omitempty"`
	Deadline    *time.Time           `json:"deadline,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// OrderRepository stores orders.
type OrderRepository struct {
	conn DBTX
}

const orderColumns = `id, client_id, title, status, priority, assigned_to, calculation_json, deadline, created_at, updated_at`

// Create inserts o, assigning an ID when it has none.
func (r *OrderRepository) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = NewID("order")
	}

	calculation, err := encodeSnapshot(o.Calculation)
	if err != nil {
		return err
	}

	_, err = r.conn.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.ClientID, o.Title, o.Status, o.Priority, o.AssignedTo, calculation,
		formatNullTime(o.Deadline), formatTime(o.CreatedAt), formatTime(o.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert order %q: %w", o.ID, ErrConflict)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// Get returns the order with id.
func (r *OrderRepository) Get(ctx context.Context, id string) (Order, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, fmt.Errorf("order %q: %w", id, ErrNotFound)
	}
	return o, err
}

// OrderFilter narrows List. Empty fields match everything.
type OrderFilter struct {
	ClientID   string
	AssignedTo string
	Status     string
}

// List returns the orders matching f, newest first.
func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]Order, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE (? = '' OR client_id = ?)
			AND (? = '' OR assigned_to = ?)
			AND (? = '' OR status = ?)
		ORDER BY created_at DESC, rowid DESC
	`, f.ClientID, f.ClientID, f.AssignedTo, f.AssignedTo, f.Status, f.Status)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// AttachCalculation stores snapshot as the order's current calculation.
func (r *OrderRepository) AttachCalculation(ctx context.Context, orderID string, snapshot CalculationSnapshot) error {
	calculation, err := encodeSnapshot(&snapshot)
	if err != nil {
		return err
	}

	result, err := r.conn.ExecContext(ctx,
		`UPDATE orders SET calculation_json = ?, updated_at = ? WHERE id = ?`,
		calculation, formatTime(snapshot.CalculatedAt), orderID)
	if err != nil {
		return fmt.Errorf("attach calculation: %w", err)
	}
	return checkAffected(result, "attach calculation")
}

// UpdateStatus changes the order status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	result, err := r.conn.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, status, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return checkAffected(result, "update order status")
}

func encodeSnapshot(s *CalculationSnapshot) (sql.NullString, error) {
	if s == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode calculation snapshot: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func scanOrder(row rowScanner) (Order, error) {
	var (
		o                    Order
		calculation          sql.NullString
		deadline             sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&o.ID, &o.ClientID, &o.Title, &o.Status, &o.Priority, &o.AssignedTo,
		&calculation, &deadline, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, err
		}
		return Order{}, fmt.Errorf("scan order: %w", err)
	}

	if calculation.Valid && calculation.String != "" {
		var snapshot CalculationSnapshot
		if err := json.Unmarshal([]byte(calculation.String), &snapshot); err != nil {
			return Order{}, fmt.Errorf("decode order %q calculation: %w", o.ID, err)
		}
		o.Calculation = &snapshot
	}

	var err error
	if o.Deadline, err = parseNullTime(deadline); err != nil {
		return Order{}, err
	}
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return Order{}, err
	}
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Order{}, err
	}
	return o, nil
}
