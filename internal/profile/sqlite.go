package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteKV stores profile records in a single-table SQLite database.
type SQLiteKV struct {
	conn *sqlx.DB
}

func OpenSQLite(path string) (*SQLiteKV, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)

	kv := &SQLiteKV{conn: conn}
	if err := kv.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return kv, nil
}

func (s *SQLiteKV) Close() error {
	return s.conn.Close()
}

func (s *SQLiteKV) migrate() error {
	_, err := s.conn.Exec(`
	CREATE TABLE IF NOT EXISTS profile_kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);`)
	return err
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.conn.GetContext(ctx, &value, `SELECT value FROM profile_kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *SQLiteKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO profile_kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	_, err := s.conn.ExecContext(ctx, `DELETE FROM profile_kv WHERE key = ?`, key)
	return err
}
