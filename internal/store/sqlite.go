package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"workshop-timer/internal/errors"
)

// sessionKey is the fixed storage key for the single active session.
const sessionKey = "current_session"

// defaultWriteTimeout bounds mirror writes when no timeout is configured.
const defaultWriteTimeout = 5 * time.Second

// SQLiteStore implements SessionStore on a single-table SQLite database.
type SQLiteStore struct {
	db           *sql.DB
	writeTimeout time.Duration
}

// New opens (or creates) the session store at the given path with the
// default write timeout. Use ":memory:" for an ephemeral store in tests.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithWriteTimeout(dbPath, defaultWriteTimeout)
}

// NewWithWriteTimeout opens the session store with an explicit bound on
// mirror writes. A session transition must not hang on a wedged disk.
func NewWithWriteTimeout(dbPath string, writeTimeout time.Duration) (*SQLiteStore, error) {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.NewStorageError("open session store", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS local_session (
		key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewStorageError("create session table", err)
	}

	return &SQLiteStore{db: db, writeTimeout: writeTimeout}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns the mirrored session record, or nil when none is stored.
func (s *SQLiteStore) Load() (*SessionRecord, error) {
	query := `SELECT payload FROM local_session WHERE key = ?`

	var payload string
	err := s.db.QueryRow(query, sessionKey).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("load session", err)
	}

	var record SessionRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, errors.NewStorageError("decode session", err)
	}
	return &record, nil
}

// Save overwrites the mirrored session record.
func (s *SQLiteStore) Save(record *SessionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return errors.NewStorageError("encode session", err)
	}

	query := `
	INSERT INTO local_session (key, payload, updated_at)
	VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	ON CONFLICT(key) DO UPDATE SET
		payload = excluded.payload,
		updated_at = excluded.updated_at`

	ctx, cancel := s.writeContext()
	defer cancel()
	if _, err := s.db.ExecContext(ctx, query, sessionKey, string(payload)); err != nil {
		return errors.NewStorageError("save session", err)
	}
	return nil
}

// Clear removes the mirrored session record.
func (s *SQLiteStore) Clear() error {
	query := `DELETE FROM local_session WHERE key = ?`

	ctx, cancel := s.writeContext()
	defer cancel()
	if _, err := s.db.ExecContext(ctx, query, sessionKey); err != nil {
		return errors.NewStorageError("clear session", err)
	}
	return nil
}

func (s *SQLiteStore) writeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.writeTimeout)
}
