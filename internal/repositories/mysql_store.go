package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"busbooking/internal/db"
)

const sessionStoreTable = "session_store"

const sessionStoreDDL = `
CREATE TABLE IF NOT EXISTS session_store (
	owner VARCHAR(128) NOT NULL,
	name VARCHAR(255) NOT NULL,
	value MEDIUMBLOB NOT NULL,
	updated_at DATETIME NOT NULL,
	expires_at DATETIME NULL,
	PRIMARY KEY (owner, name)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// MySQLStore persists slots in the session_store table. A zero TTL keeps
// rows until they are removed.
type MySQLStore struct {
	DB  *sql.DB
	TTL time.Duration
	Now func() time.Time
}

func NewMySQLStore(conn *sql.DB, ttl time.Duration) *MySQLStore {
	return &MySQLStore{DB: conn, TTL: ttl, Now: time.Now}
}

// EnsureSchema creates the backing table when it is missing.
func (s *MySQLStore) EnsureSchema(ctx context.Context) error {
	return db.EnsureTable(ctx, s.DB, sessionStoreTable, sessionStoreDDL)
}

func (s *MySQLStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *MySQLStore) Persist(ctx context.Context, key Key, value []byte) error {
	return s.upsert(ctx, key, value, s.TTL)
}

// PersistDurable stores the row with a NULL expires_at.
func (s *MySQLStore) PersistDurable(ctx context.Context, key Key, value []byte) error {
	return s.upsert(ctx, key, value, 0)
}

func (s *MySQLStore) upsert(ctx context.Context, key Key, value []byte, ttl time.Duration) error {
	if err := key.validate(); err != nil {
		return err
	}
	now := s.now()
	var expires any
	if ttl > 0 {
		expires = now.Add(ttl)
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO session_store (owner, name, value, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at), expires_at = VALUES(expires_at)
	`, key.Owner, key.Name, value, now, expires)
	if err != nil {
		return fmt.Errorf("persist %s: %w", key.Name, err)
	}
	return nil
}

func (s *MySQLStore) Restore(ctx context.Context, key Key) ([]byte, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	var value []byte
	err := s.DB.QueryRowContext(ctx, `
		SELECT value
		FROM session_store
		WHERE owner = ? AND name = ?
		  AND (expires_at IS NULL OR expires_at > ?)
		LIMIT 1
	`, key.Owner, key.Name, s.now()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", key.Name, err)
	}
	return value, nil
}

func (s *MySQLStore) Remove(ctx context.Context, key Key) error {
	if err := key.validate(); err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM session_store WHERE owner = ? AND name = ?`, key.Owner, key.Name); err != nil {
		return fmt.Errorf("remove %s: %w", key.Name, err)
	}
	return nil
}
