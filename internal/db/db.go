package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite"
)

// Open opens the SQLite database at dbPath. Pragmas are passed in the DSN so
// every pooled connection gets them, not just the first one.
//
// Transactions begin IMMEDIATE: a transaction takes the write lock up front
// and waits on busy_timeout, so a read-then-write transaction never fails with
// SQLITE_BUSY while upgrading its lock. Plain reads stay concurrent under WAL.
func Open(dbPath string) (*sql.DB, error) {
	params := url.Values{}
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	params.Add("_txlock", "immediate")
	dsn := "file:" + dbPath + "?" + params.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return db, nil
}
