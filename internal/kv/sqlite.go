package kv

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - entries, strings, list_items
const currentSchemaVersion = 1

const (
	kindString = "string"
	kindList   = "list"
)

// SQLite is a durable Store backed by a single SQLite file.
// Uses WAL mode and a single connection, so every operation is serialised.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement (list items cascade with their key)
func OpenSQLite(path string) (*SQLite, error) {
	// foreign_keys is per connection; the DSN applies it to any
	// connection the pool opens, not just the first.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and stamps user_version.
// Refuses databases written by a newer schema.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success.
func (s *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// lookupKind returns the kind stored under key, or "" if the key is absent.
func lookupKind(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, key string) (string, error) {
	var kind string
	err := q.QueryRowContext(ctx, `SELECT kind FROM entries WHERE key = ?`, key).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup kind: %w", err)
	}
	return kind, nil
}

func (s *SQLite) Set(ctx context.Context, key string, val []byte) error {
	if val == nil {
		val = []byte{}
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		// Replaces any previous value, including a list.
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO entries (key, kind) VALUES (?, ?)`, key, kindString); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO strings (key, value) VALUES (?, ?)`, key, val)
		return err
	})
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		kind string
		val  []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT e.kind, s.value
		FROM entries e
		LEFT JOIN strings s ON s.key = e.key
		WHERE e.key = ?
	`, key).Scan(&kind, &val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	if kind != kindString {
		return nil, ErrWrongType
	}
	if val == nil {
		val = []byte{}
	}
	return val, nil
}

func (s *SQLite) Incr(ctx context.Context, key string) (int64, error) {
	var n int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		kind, err := lookupKind(ctx, tx, key)
		if err != nil {
			return err
		}

		switch kind {
		case kindList:
			return ErrWrongType
		case "":
			n = 1
			if _, err := tx.ExecContext(ctx, `INSERT INTO entries (key, kind) VALUES (?, ?)`, key, kindString); err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `INSERT INTO strings (key, value) VALUES (?, ?)`, key, strconv.AppendInt(nil, n, 10))
			return err
		}

		var raw []byte
		if err := tx.QueryRowContext(ctx, `SELECT value FROM strings WHERE key = ?`, key).Scan(&raw); err != nil {
			return err
		}
		if n, err = incrBytes(raw, true); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE strings SET value = ? WHERE key = ?`, strconv.AppendInt(nil, n, 10), key)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("incr %q: %w", key, err)
	}
	return n, nil
}

func (s *SQLite) RPush(ctx context.Context, key string, vals ...[]byte) (int64, error) {
	var length int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		kind, err := lookupKind(ctx, tx, key)
		if err != nil {
			return err
		}

		switch kind {
		case kindString:
			return ErrWrongType
		case "":
			if _, err := tx.ExecContext(ctx, `INSERT INTO entries (key, kind) VALUES (?, ?)`, key, kindList); err != nil {
				return err
			}
		}

		var seq int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM list_items WHERE key = ?`, key).Scan(&seq); err != nil {
			return err
		}
		for _, v := range vals {
			if v == nil {
				v = []byte{}
			}
			seq++
			if _, err := tx.ExecContext(ctx, `INSERT INTO list_items (key, seq, value) VALUES (?, ?, ?)`, key, seq, v); err != nil {
				return err
			}
		}

		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM list_items WHERE key = ?`, key).Scan(&length)
	})
	if err != nil {
		return 0, fmt.Errorf("rpush %q: %w", key, err)
	}
	return length, nil
}

func (s *SQLite) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	kind, err := lookupKind(ctx, s.db, key)
	if err != nil {
		return nil, fmt.Errorf("lrange %q: %w", key, err)
	}
	if kind == kindString {
		return nil, fmt.Errorf("lrange %q: %w", key, ErrWrongType)
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM list_items WHERE key = ?`, key).Scan(&n); err != nil {
		return nil, fmt.Errorf("lrange %q: count: %w", key, err)
	}
	lo, hi, ok := rangeBounds(n, start, stop)
	if !ok {
		return [][]byte{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT value FROM list_items
		WHERE key = ?
		ORDER BY seq ASC
		LIMIT ? OFFSET ?
	`, key, hi-lo, lo)
	if err != nil {
		return nil, fmt.Errorf("lrange %q: %w", key, err)
	}
	defer rows.Close()

	out := make([][]byte, 0, hi-lo)
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("lrange %q: scan: %w", key, err)
		}
		if v == nil {
			v = []byte{}
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lrange %q: iterate: %w", key, err)
	}
	return out, nil
}

func (s *SQLite) FlushAll(ctx context.Context) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"list_items", "strings", "entries"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("flushall: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *SQLite) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
