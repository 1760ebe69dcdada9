// SPDX-License-Identifier: AGPL-3.0-only
package storage

import (
	"context"

	"github.com/jolks/mcp-tasklist/internal/model"
)

// Event signals that the stored snapshot changed and should be reloaded.
type Event struct{}

// Storage abstracts the key-value store holding the task snapshot.
type Storage interface {
	// Load returns the stored collection. A missing key yields an errors.NotFound
	// error and undecodable data an errors.Parse error, so callers can tell both
	// apart from a valid empty collection.
	Load(ctx context.Context) ([]*model.Task, error)
	// Save replaces the stored collection.
	Save(ctx context.Context, tasks []*model.Task) error
	// Clear removes the key entirely. Clearing a missing key is not an error.
	Clear(ctx context.Context) error
	// Watch emits an event whenever the snapshot changes underneath us.
	// The returned channel is closed when the context is done or on fatal watcher error.
	Watch(ctx context.Context) (<-chan Event, error)
	// Close releases any resources used by the storage.
	Close() error
}
