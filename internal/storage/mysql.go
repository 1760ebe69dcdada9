// SPDX-License-Identifier: AGPL-3.0-only
package storage

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jolks/mcp-tasklist/internal/errors"
	"github.com/jolks/mcp-tasklist/internal/model"
)

// MySQLStorage keeps the snapshot in a key-value table. MySQL has no change
// notifications, so Watch never emits.
type MySQLStorage struct {
	key string
	db  *sql.DB
}

// NewMySQLStorage connects to dsn and ensures the kv_store table exists.
func NewMySQLStorage(ctx context.Context, dsn, key string) (*MySQLStorage, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.InvalidInput("invalid mysql dsn: " + err.Error())
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, errors.Storage("create mysql connector", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Storage("connect mysql", err)
	}
	s := &MySQLStorage{key: key, db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStorage) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv_store (
    `+"`key`"+` VARCHAR(191) PRIMARY KEY,
    value LONGTEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
  ) DEFAULT CHARSET=utf8mb4`)
	if err != nil {
		return errors.Storage("create kv_store table", err)
	}
	return nil
}

// Load implements Storage.Load.
func (s *MySQLStorage) Load(ctx context.Context) ([]*model.Task, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE `key` = ?", s.key).Scan(&value)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("snapshot", s.key)
		}
		return nil, errors.Storage("read snapshot", err)
	}
	return DecodeSnapshot([]byte(value))
}

// Save implements Storage.Save.
func (s *MySQLStorage) Save(ctx context.Context, tasks []*model.Task) error {
	b, err := EncodeSnapshot(tasks)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO kv_store (`key`, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)",
		s.key, string(b))
	if err != nil {
		return errors.Storage("write snapshot", err)
	}
	return nil
}

// Clear implements Storage.Clear.
func (s *MySQLStorage) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv_store WHERE `key` = ?", s.key); err != nil {
		return errors.Storage("remove snapshot", err)
	}
	return nil
}

// Watch implements Storage.Watch. The channel only closes when ctx is done.
func (s *MySQLStorage) Watch(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

// Close implements Storage.Close.
func (s *MySQLStorage) Close() error {
	return s.db.Close()
}
