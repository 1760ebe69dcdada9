// SPDX-License-Identifier: AGPL-3.0-only
package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jolks/mcp-tasklist/internal/config"
	"github.com/jolks/mcp-tasklist/internal/errors"
	"github.com/jolks/mcp-tasklist/internal/model"
	"github.com/jolks/mcp-tasklist/internal/notify"
	"github.com/jolks/mcp-tasklist/internal/storage"
	"github.com/jolks/mcp-tasklist/internal/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleExportTasksInline(t *testing.T) {
	mcpServer, manager := newTestServer(t)
	manager.On("List", model.FilterAll).Return([]model.Task{sample})

	res, err := mcpServer.handleExportTasks(context.Background(), request(t, ExportTasksParams{Format: "csv"}))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(responseText(t, res)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,title,description,completed,priority", lines[0])
	assert.Equal(t, "7,Write docs,README,false,high", lines[1])
}

func TestHandleExportTasksToFile(t *testing.T) {
	mcpServer, manager := newTestServer(t)
	manager.On("List", model.FilterPending).Return([]model.Task{sample})

	path := filepath.Join(t.TempDir(), "tasks.pdf")
	res, err := mcpServer.handleExportTasks(context.Background(), request(t, ExportTasksParams{
		Format: "pdf",
		Filter: "pending",
		Path:   path,
	}))
	require.NoError(t, err)
	assert.Contains(t, responseText(t, res), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestHandleExportTasksValidation(t *testing.T) {
	mcpServer, manager := newTestServer(t)
	manager.On("List", model.FilterAll).Return([]model.Task{sample})

	for name, params := range map[string]ExportTasksParams{
		"pdf without path": {Format: "pdf"},
		"unknown format":   {Format: "xlsx"},
		"unknown filter":   {Filter: "archived"},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := mcpServer.handleExportTasks(context.Background(), request(t, params))
			assert.Nil(t, res)
			assert.True(t, errors.IsInvalidInput(err))
		})
	}
}

func TestUnknownTaskMutationsNotify(t *testing.T) {
	ctx := context.Background()
	store := tasks.NewStore(storage.NewMemoryStorage("crud-app-tasks"), notify.NewQueue(time.Hour))
	require.NoError(t, store.Initialize(ctx))
	mcpServer, err := NewMCPServer(config.DefaultConfig(), store)
	require.NoError(t, err)

	_, err = mcpServer.handleUpdateTask(ctx, request(t, UpdateTaskParams{ID: 999, Title: "ghost"}))
	assert.True(t, errors.IsNotFound(err))
	_, err = mcpServer.handleToggleTask(ctx, request(t, TaskIDParams{ID: 999}))
	assert.True(t, errors.IsNotFound(err))
	_, err = mcpServer.handleDeleteTask(ctx, request(t, TaskIDParams{ID: 999}))
	assert.True(t, errors.IsNotFound(err))

	list := store.Notifications()
	require.Len(t, list, 3)
	for _, n := range list {
		assert.Equal(t, model.NotificationError, n.Type)
		assert.Equal(t, "Task 999 not found", n.Message)
	}
	assert.Len(t, store.List(model.FilterAll), 3, "nothing was added")
}
