// Package store persists processed webhook events in SQLite. It backs
// duplicate suppression (webhooks are delivered at least once) and keeps
// a log of reply deliveries for inspection.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements domain.EventStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS processed_events (
		event_id    TEXT PRIMARY KEY,
		chat_id     TEXT,
		received_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_processed_time ON processed_events(received_at);

	CREATE TABLE IF NOT EXISTS deliveries (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id    TEXT NOT NULL,
		chat_id     TEXT NOT NULL,
		message_id  TEXT,
		delivered   INTEGER NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_deliveries_time ON deliveries(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// MarkProcessed records the event id and reports whether it was seen for
// the first time. A second call with the same id returns false, which
// the router uses to suppress duplicate webhook deliveries.
func (s *SQLiteStore) MarkProcessed(ctx context.Context, eventID, chatID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed_events (event_id, chat_id) VALUES (?, ?)`,
		eventID, chatID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RecordDelivery logs the outcome of a reply attempt.
func (s *SQLiteStore) RecordDelivery(ctx context.Context, eventID, chatID, messageID string, delivered bool) error {
	flag := 0
	if delivered {
		flag = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deliveries (event_id, chat_id, message_id, delivered) VALUES (?, ?, ?, ?)`,
		eventID, chatID, messageID, flag,
	)
	return err
}

// Prune removes records older than maxAge and returns how many event
// rows were deleted.
func (s *SQLiteStore) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UTC().Format("2006-01-02 15:04:05")

	res, err := s.db.ExecContext(ctx, `DELETE FROM processed_events WHERE received_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	removed, _ := res.RowsAffected()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM deliveries WHERE created_at < ?`, cutoff); err != nil {
		return removed, err
	}
	return removed, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
