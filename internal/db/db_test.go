package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
)

func TestOpen_SerializesReadThenWriteTransactions(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "db-test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	if _, err := database.ExecContext(ctx, `CREATE TABLE counters (id INTEGER PRIMARY KEY, value INTEGER NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := database.ExecContext(ctx, `INSERT INTO counters (id, value) VALUES (1, 0)`); err != nil {
		t.Fatalf("insert counter: %v", err)
	}

	const workers = 16
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- increment(ctx, database)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
	}

	var value int
	if err := database.QueryRowContext(ctx, `SELECT value FROM counters WHERE id = 1`).Scan(&value); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if value != workers {
		t.Fatalf("value=%d, want %d", value, workers)
	}
}

func increment(ctx context.Context, database *sql.DB) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var value int
	if err := tx.QueryRowContext(ctx, `SELECT value FROM counters WHERE id = 1`).Scan(&value); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE counters SET value = ? WHERE id = 1`, value+1); err != nil {
		return err
	}
	return tx.Commit()
}
