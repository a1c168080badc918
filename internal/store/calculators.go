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

// Calculator is a named price list for one print technology.
type Calculator struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Technology string                `json:"technology"`
	IsActive   bool                  `json:"isActive"`
	Pricing    pricing.Configuration `json:"pricing"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

// CalculatorRepository stores calculators and their pricing tables.
type CalculatorRepository struct {
	conn DBTX
}

const calculatorColumns = `id, name, technology, is_active, pricing_json, created_at, updated_at`

// Upsert inserts c or replaces the stored one with the same ID.
// The pricing tables are validated before they are written.
func (r *CalculatorRepository) Upsert(ctx context.Context, c Calculator) error {
	if err := c.Pricing.Validate(); err != nil {
		return fmt.Errorf("calculator %q: %w", c.ID, err)
	}
	pricingJSON, err := json.Marshal(c.Pricing)
	if err != nil {
		return fmt.Errorf("encode calculator pricing: %w", err)
	}

	_, err = r.conn.ExecContext(ctx, `
		INSERT INTO calculators (`+calculatorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			technology = excluded.technology,
			is_active = excluded.is_active,
			pricing_json = excluded.pricing_json,
			updated_at = excluded.updated_at
	`, c.ID, c.Name, c.Technology, c.IsActive, string(pricingJSON), formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert calculator: %w", err)
	}
	return nil
}

// Exists reports whether a calculator with id is stored.
func (r *CalculatorRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM calculators WHERE id = ?)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check calculator existence: %w", err)
	}
	return exists, nil
}

// Get returns the calculator with id.
func (r *CalculatorRepository) Get(ctx context.Context, id string) (Calculator, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+calculatorColumns+` FROM calculators WHERE id = ?`, id)
	c, err := scanCalculator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Calculator{}, fmt.Errorf("calculator %q: %w", id, ErrNotFound)
	}
	return c, err
}

// Config returns only the pricing tables of the calculator with id.
func (r *CalculatorRepository) Config(ctx context.Context, id string) (pricing.Configuration, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		return pricing.Configuration{}, err
	}
	return c.Pricing, nil
}

// List returns every calculator ordered by name.
func (r *CalculatorRepository) List(ctx context.Context) ([]Calculator, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT `+calculatorColumns+` FROM calculators ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query calculators: %w", err)
	}
	defer rows.Close()

	calculators := make([]Calculator, 0)
	for rows.Next() {
		c, err := scanCalculator(rows)
		if err != nil {
			return nil, err
		}
		calculators = append(calculators, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calculators: %w", err)
	}
	return calculators, nil
}

func scanCalculator(row rowScanner) (Calculator, error) {
	var (
		c                    Calculator
		pricingJSON          string
		createdAt, updatedAt string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Technology, &c.IsActive, &pricingJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Calculator{}, err
		}
		return Calculator{}, fmt.Errorf("scan calculator: %w", err)
	}

	if err := json.Unmarshal([]byte(pricingJSON), &c.Pricing); err != nil {
		return Calculator{}, fmt.Errorf("decode calculator %q pricing: %w", c.ID, err)
	}

	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return Calculator{}, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Calculator{}, err
	}
	return c, nil
}
