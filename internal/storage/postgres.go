// SPDX-License-Identifier: AGPL-3.0-only
package storage

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jolks/mcp-tasklist/internal/errors"
	"github.com/jolks/mcp-tasklist/internal/model"
)

// pgChannel is the LISTEN/NOTIFY channel carrying the changed key as payload.
const pgChannel = "tasklist_snapshot"

// PostgresStorage keeps the snapshot in a key-value table.
type PostgresStorage struct {
	key  string
	pool *pgxpool.Pool
}

// NewPostgresStorage connects to dsn and ensures the kv_store table exists.
func NewPostgresStorage(ctx context.Context, dsn, key string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Storage("connect postgres", err)
	}
	s := &PostgresStorage{key: key, pool: pool}
	if err := s.EnsureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureTable creates the kv_store table if it doesn't exist.
func (s *PostgresStorage) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS kv_store (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return errors.Storage("create kv_store table", err)
	}
	return nil
}

// Load implements Storage.Load.
func (s *PostgresStorage) Load(ctx context.Context) ([]*model.Task, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, s.key).Scan(&value)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("snapshot", s.key)
		}
		return nil, errors.Storage("read snapshot", err)
	}
	return DecodeSnapshot([]byte(value))
}

// Save implements Storage.Save.
func (s *PostgresStorage) Save(ctx context.Context, tasks []*model.Task) error {
	b, err := EncodeSnapshot(tasks)
	if err != nil {
		return err
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Storage("begin save", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		s.key, string(b))
	if err != nil {
		return errors.Storage("write snapshot", err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, pgChannel, s.key); err != nil {
		return errors.Storage("notify snapshot change", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Storage("commit save", err)
	}
	return nil
}

// Clear implements Storage.Clear.
func (s *PostgresStorage) Clear(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Storage("begin clear", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, s.key); err != nil {
		return errors.Storage("remove snapshot", err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, pgChannel, s.key); err != nil {
		return errors.Storage("notify snapshot change", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Storage("commit clear", err)
	}
	return nil
}

// Watch implements Storage.Watch using LISTEN on a dedicated pool connection.
func (s *PostgresStorage) Watch(ctx context.Context) (<-chan Event, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Storage("acquire listen connection", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgChannel); err != nil {
		conn.Release()
		return nil, errors.Storage("listen", err)
	}

	ch := make(chan Event)
	go func() {
		defer close(ch)
		defer func() {
			_, _ = conn.Exec(context.Background(), "UNLISTEN "+pgChannel)
			conn.Release()
		}()
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				return
			}
			if n.Payload != s.key {
				continue
			}
			select {
			case ch <- Event{}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Close implements Storage.Close.
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}
