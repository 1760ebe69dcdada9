// SPDX-License-Identifier: AGPL-3.0-only
package storage

import (
	"context"
	"fmt"

	"github.com/jolks/mcp-tasklist/internal/config"
	"github.com/jolks/mcp-tasklist/internal/errors"
)

// Open creates the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case "json", "":
		return NewJSONStorage(cfg.Dir, cfg.Key)
	case "memory":
		return NewMemoryStorage(cfg.Key), nil
	case "postgres":
		return NewPostgresStorage(ctx, cfg.DSN, cfg.Key)
	case "mysql":
		return NewMySQLStorage(ctx, cfg.DSN, cfg.Key)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported storage backend: %s", cfg.Backend))
	}
}
