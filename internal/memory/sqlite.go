package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS memory (
    position INTEGER NOT NULL,
    key      TEXT PRIMARY KEY,
    value    TEXT NOT NULL
);
`

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the schema exists.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Load() *Memory {
	m := New()
	rows, err := s.db.Query(`SELECT key, value FROM memory ORDER BY position`)
	if err != nil {
		s.logger.Warn("memory table unreadable, starting empty", zap.Error(err))
		return m
	}
	defer rows.Close()

	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			s.logger.Warn("memory row unreadable, starting empty", zap.Error(err))
			return New()
		}
		var v Value
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			s.logger.Warn("memory row corrupt, starting empty", zap.String("key", key), zap.Error(err))
			return New()
		}
		m.Set(key, v)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("memory table unreadable, starting empty", zap.Error(err))
		return New()
	}
	s.logger.Debug("memory loaded", zap.Int("keys", m.Len()))
	return m
}

// Save replaces every row in a single transaction.
func (s *SQLiteStore) Save(m *Memory) error {
	if m == nil {
		m = New()
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM memory`); err != nil {
		return fmt.Errorf("clear memory: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO memory (position, key, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range m.Entries() {
		raw, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("marshal %q: %w", e.Key, err)
		}
		if _, err := stmt.Exec(i, e.Key, string(raw)); err != nil {
			return fmt.Errorf("insert %q: %w", e.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("memory saved", zap.Int("keys", m.Len()))
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
