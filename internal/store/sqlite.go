package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// txAttempts bounds retries when SQLite reports the database busy.
const txAttempts = 5

// SQLiteStore is a DocumentStore over a single SQLite table of JSON
// documents. Write transactions take the database write lock up front
// (_txlock=immediate), so transactions on the same keys fully serialize.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates a SQLiteStore at the given path, applying recommended
// pragmas and creating the documents table if missing.
func Open(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single writer connection avoids SQLITE_BUSY between our own
	// transactions.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS documents (
		key  TEXT PRIMARY KEY,
		body TEXT NOT NULL DEFAULT '{}'
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return decodeBody(key, body)
}

func (s *SQLiteStore) Set(ctx context.Context, key string, fields Document) error {
	return s.RunTransaction(ctx, func(tx Tx) error {
		return tx.Set(key, fields)
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Increment(ctx context.Context, key, field string, delta int64) error {
	return s.RunTransaction(ctx, func(tx Tx) error {
		doc, err := tx.Get(key)
		if errors.Is(err, ErrNotFound) {
			doc = Document{}
		} else if err != nil {
			return err
		}
		addPath(doc, field, delta)
		return tx.Set(key, doc)
	})
}

func (s *SQLiteStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < txAttempts; attempt++ {
		err := s.runOnce(ctx, fn)
		if err == nil || !isBusy(err) {
			return err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 10 * time.Millisecond):
		}
	}
	return lastErr
}

func (s *SQLiteStore) runOnce(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	tx := &sqliteTx{ctx: ctx, tx: sqlTx}
	if err := fn(tx); err != nil {
		sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isBusy reports whether the error is a SQLite busy/locked condition
// worth retrying. The driver does not export typed errors for these.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked")
}

type sqliteTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *sqliteTx) Get(key string) (Document, error) {
	var body string
	err := t.tx.QueryRowContext(t.ctx, `SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return decodeBody(key, body)
}

func (t *sqliteTx) Set(key string, fields Document) error {
	existing, err := t.Get(key)
	if errors.Is(err, ErrNotFound) {
		existing = Document{}
	} else if err != nil {
		return err
	}
	merged := mergeDocument(existing, fields)
	body, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	_, err = t.tx.ExecContext(t.ctx,
		`INSERT INTO documents (key, body) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET body = excluded.body`,
		key, string(body))
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (t *sqliteTx) Delete(key string) error {
	_, err := t.tx.ExecContext(t.ctx, `DELETE FROM documents WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func decodeBody(key, body string) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decode %q: %w", key, err)
	}
	return doc, nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. REKISHI_DB environment variable
// 2. $XDG_DATA_HOME/rekishi/rekishi.db
// 3. ~/.local/share/rekishi/rekishi.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("REKISHI_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "rekishi", "rekishi.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
