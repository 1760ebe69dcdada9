// SPDX-License-Identifier: AGPL-3.0-only
package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jolks/mcp-tasklist/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseBackend runs the shared contract against a live database backend.
func exerciseBackend(t *testing.T, store Storage) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Clear(ctx))
	_, err := store.Load(ctx)
	assert.True(t, errors.IsNotFound(err), "got %v", err)

	tasks := sampleTasks()
	require.NoError(t, store.Save(ctx, tasks))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, tasks, loaded)

	require.NoError(t, store.Save(ctx, tasks[:1]))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.True(t, errors.IsNotFound(err))
}

func testKey() string {
	return fmt.Sprintf("tasklist-test-%d", time.Now().UnixNano())
}

func TestPostgresStorage(t *testing.T) {
	dsn := os.Getenv("TASKLIST_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TASKLIST_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	store, err := NewPostgresStorage(ctx, dsn, testKey())
	require.NoError(t, err)
	defer store.Close()

	exerciseBackend(t, store)

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	ch, err := store.Watch(watchCtx)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sampleTasks()))
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("expected notification after save")
	}
}

func TestMySQLStorage(t *testing.T) {
	dsn := os.Getenv("TASKLIST_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TASKLIST_TEST_MYSQL_DSN not set")
	}
	store, err := NewMySQLStorage(context.Background(), dsn, testKey())
	require.NoError(t, err)
	defer store.Close()

	exerciseBackend(t, store)
}

func TestNewMySQLStorageRejectsBadDSN(t *testing.T) {
	_, err := NewMySQLStorage(context.Background(), "not a dsn", "k")
	assert.True(t, errors.IsInvalidInput(err), "got %v", err)
}
