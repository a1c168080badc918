package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/Simplici0/printdesk/internal/auth"
	"github.com/Simplici0/printdesk/internal/pricing"
	"github.com/Simplici0/printdesk/internal/store"
)

const (
	adminPosition = "Administrator"
	adminFullName = "System administrator"
	dtfName       = "DTF printing"
	dtfTechnology = "dtf"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, st *store.Store, cfg Config, now time.Time) (Stats, error) {
	stats := Stats{}
	err := st.WithTx(ctx, func(tx *store.Store) error {
		if err := seedAdmin(ctx, tx, cfg, now, &stats); err != nil {
			return err
		}
		return ensureDTFCalculator(ctx, tx, now, &stats)
	})
	if err != nil {
		return Stats{}, fmt.Errorf("seed: %w", err)
	}
	return stats, nil
}

func seedAdmin(ctx context.Context, tx *store.Store, cfg Config, now time.Time, stats *Stats) error {
	if cfg.AdminUsername == "" || cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	exists, err := tx.Users.ExistsByUsernameOrEmail(ctx, cfg.AdminUsername, cfg.AdminEmail)
	if err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := store.User{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         store.RoleAdministrator,
		Position:     adminPosition,
		FullName:     adminFullName,
		Theme:        "light",
		Capabilities: auth.CapAll,
		IsActive:     true,
		CreatedAt:    now,
	}
	if err := tx.Users.Create(ctx, &admin); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureDTFCalculator(ctx context.Context, tx *store.Store, now time.Time, stats *Stats) error {
	exists, err := tx.Calculators.Exists(ctx, pricing.DTFCalculatorID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := tx.Calculators.Upsert(ctx, store.Calculator{
		ID:         pricing.DTFCalculatorID,
		Name:       dtfName,
		Technology: dtfTechnology,
		IsActive:   true,
		Pricing:    pricing.DefaultDTF(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		return fmt.Errorf("insert dtf calculator: %w", err)
	}
	stats.Inserts++
	return nil
}
