package seed

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Simplici0/printdesk/internal/auth"
	"github.com/Simplici0/printdesk/internal/db"
	"github.com/Simplici0/printdesk/internal/migrations"
	"github.com/Simplici0/printdesk/internal/pricing"
	"github.com/Simplici0/printdesk/internal/store"
)

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	st := store.New(database)

	cfg := Config{
		AdminUsername: "admin",
		AdminEmail:    "admin@printcompany.com",
		AdminPassword: "12345",
	}
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		stats, err := Run(ctx, st, cfg, now)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 2 {
				t.Fatalf("expected 2 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
	}

	users, err := st.Users.List(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	admin := users[0]
	if !admin.IsActive || admin.Capabilities != auth.CapAll || admin.Role != store.RoleAdministrator {
		t.Fatalf("unexpected admin account: %+v", admin)
	}
	if !auth.CheckPassword(admin.PasswordHash, "12345") {
		t.Fatalf("expected admin hash to match password")
	}

	cfgDTF, err := st.Calculators.Config(ctx, pricing.DTFCalculatorID)
	if err != nil {
		t.Fatalf("load dtf calculator: %v", err)
	}
	if len(cfgDTF.Formats) != 7 {
		t.Fatalf("expected 7 formats, got %d", len(cfgDTF.Formats))
	}
}

func TestRunWithoutAdminCredentials(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "seed-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()
	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	stats, err := Run(context.Background(), store.New(database), Config{AdminUsername: "admin"}, time.Now())
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Inserts != 1 {
		t.Fatalf("expected only the calculator to be inserted, got %d inserts", stats.Inserts)
	}
}
