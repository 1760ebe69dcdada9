// SPDX-License-Identifier: AGPL-3.0-only
package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/server"
	"github.com/ThinkInAIXYZ/go-mcp/transport"
	"github.com/jolks/mcp-tasklist/internal/config"
	"github.com/jolks/mcp-tasklist/internal/errors"
	"github.com/jolks/mcp-tasklist/internal/export"
	"github.com/jolks/mcp-tasklist/internal/logging"
	"github.com/jolks/mcp-tasklist/internal/model"
	"github.com/jolks/mcp-tasklist/internal/tasks"
)

// TaskIDParams holds the ID parameter used by multiple handlers
type TaskIDParams struct {
	ID int64 `json:"id" description:"the ID of the task to get/toggle/edit/delete"`
}

// NotificationIDParams identifies a notification
type NotificationIDParams struct {
	ID string `json:"id" description:"the ID of the notification to dismiss"`
}

// EmptyParams is used by tools that take no arguments
type EmptyParams struct{}

// ListTasksParams defines parameters for listing tasks
type ListTasksParams struct {
	Filter string `json:"filter,omitempty" description:"all, completed or pending (default all)"`
}

// FilterParams defines parameters for changing the active filter
type FilterParams struct {
	Filter string `json:"filter" description:"all, completed or pending"`
}

// CreateTaskParams defines parameters for creating a task
type CreateTaskParams struct {
	Title       string `json:"title" description:"task title"`
	Description string `json:"description,omitempty" description:"task description"`
	Priority    string `json:"priority,omitempty" description:"low, medium or high (default medium)"`
}

// UpdateTaskParams defines parameters for committing an edit.
// The record is replaced as a whole; empty priority and status keep their current value.
type UpdateTaskParams struct {
	ID          int64  `json:"id" description:"the ID of the task to update"`
	Title       string `json:"title" description:"new task title"`
	Description string `json:"description,omitempty" description:"new task description"`
	Priority    string `json:"priority,omitempty" description:"low, medium or high"`
	Status      string `json:"status,omitempty" description:"completed or pending"`
}

// ExportTasksParams defines parameters for exporting tasks
type ExportTasksParams struct {
	Format string `json:"format,omitempty" description:"json, csv or pdf (default json)"`
	Filter string `json:"filter,omitempty" description:"all, completed or pending (default all)"`
	Path   string `json:"path,omitempty" description:"file to write the export to; required for pdf"`
}

// MCPServer exposes the task store as MCP tools
type MCPServer struct {
	manager        tasks.Manager
	server         *server.Server
	address        string
	port           int
	stopCh         chan struct{}
	wg             sync.WaitGroup
	config         *config.Config
	logger         *logging.Logger
	shutdownMutex  sync.Mutex
	isShuttingDown bool
}

// NewMCPServer creates a new MCP task list server
func NewMCPServer(cfg *config.Config, manager tasks.Manager) (*MCPServer, error) {
	// Create default config if not provided
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	// The entrypoint configures the default logger before building the server
	logger := logging.GetDefaultLogger()

	mcpServer := &MCPServer{
		manager: manager,
		address: cfg.Server.Address,
		port:    cfg.Server.Port,
		stopCh:  make(chan struct{}),
		config:  cfg,
		logger:  logger,
	}

	// Create transport based on mode
	var svrTransport transport.ServerTransport
	var err error

	switch cfg.Server.TransportMode {
	case "stdio":
		logger.Infof("Using stdio transport")
		svrTransport = transport.NewStdioServerTransport()
	case "sse":
		addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
		logger.Infof("Using SSE transport on %s", addr)

		svrTransport, err = transport.NewSSEServerTransport(addr)
		if err != nil {
			return nil, errors.Internal(fmt.Errorf("failed to create SSE transport: %w", err))
		}
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported transport mode: %s", cfg.Server.TransportMode))
	}

	mcpServer.server, err = server.NewServer(
		svrTransport,
		server.WithServerInfo(protocol.Implementation{
			Name:    cfg.Server.Name,
			Version: cfg.Server.Version,
		}),
	)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to create MCP server: %w", err))
	}

	return mcpServer, nil
}

// Start starts the MCP server
func (s *MCPServer) Start(ctx context.Context) error {
	// Register all tools
	s.registerToolsDeclarative()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if err := s.server.Run(); err != nil {
			s.logger.Errorf("Error running MCP server: %v", err)
			return
		}
	}()

	// Listen for context cancellation
	go func() {
		<-ctx.Done()
		if err := s.Stop(); err != nil {
			s.logger.Errorf("Error stopping MCP server: %v", err)
		}
	}()

	return nil
}

// Stop stops the MCP server
func (s *MCPServer) Stop() error {
	s.shutdownMutex.Lock()
	defer s.shutdownMutex.Unlock()

	// Return early if server is already being shut down
	if s.isShuttingDown {
		s.logger.Debugf("Stop called but server is already shutting down, ignoring")
		return nil
	}

	s.isShuttingDown = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return errors.Internal(fmt.Errorf("error shutting down MCP server: %w", err))
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.wg.Wait()
	return nil
}

// handleGetState returns everything needed to render the task list
func (s *MCPServer) handleGetState(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	s.logger.Debugf("Handling get_state request")
	return createJSONResponse(s.manager.State())
}

// handleListTasks lists tasks matching a filter
func (s *MCPServer) handleListTasks(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ListTasksParams
	if err := extractParams(request, &params); err != nil {
		return createErrorResponse(err)
	}
	mode, err := parseFilter(params.Filter)
	if err != nil {
		return createErrorResponse(err)
	}

	s.logger.Debugf("Handling list_tasks request with filter %s", mode)
	return createTasksResponse(s.manager.List(mode))
}

// handleGetTask gets a specific task by ID
func (s *MCPServer) handleGetTask(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	taskID, err := extractTaskIDParam(request)
	if err != nil {
		return createErrorResponse(err)
	}

	s.logger.Debugf("Handling get_task request for task %d", taskID)

	task, err := s.manager.Get(taskID)
	if err != nil {
		return createErrorResponse(err)
	}
	return createTaskResponse(task)
}

// handleCreateTask adds a new task
func (s *MCPServer) handleCreateTask(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params CreateTaskParams
	if err := extractParams(request, &params); err != nil {
		return createErrorResponse(err)
	}
	if err := validateTitle(params.Title); err != nil {
		return createErrorResponse(err)
	}
	priority, err := parsePriority(params.Priority)
	if err != nil {
		return createErrorResponse(err)
	}

	s.logger.Debugf("Handling create_task request for task %s", params.Title)

	task, err := s.manager.Add(ctx, params.Title, params.Description, priority)
	if err != nil {
		return createErrorResponse(err)
	}
	return createTaskResponse(task)
}

// handleToggleTask flips a task between completed and pending
func (s *MCPServer) handleToggleTask(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	taskID, err := extractTaskIDParam(request)
	if err != nil {
		return createErrorResponse(err)
	}

	s.logger.Debugf("Handling toggle_task request for task %d", taskID)

	task, err := s.manager.Toggle(ctx, taskID)
	if err != nil {
		return createErrorResponse(err)
	}
	return createTaskResponse(task)
}

// handleEditTask selects a task for editing
func (s *MCPServer) handleEditTask(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	taskID, err := extractTaskIDParam(request)
	if err != nil {
		return createErrorResponse(err)
	}

	s.logger.Debugf("Handling edit_task request for task %d", taskID)

	task, err := s.manager.BeginEdit(taskID)
	if err != nil {
		return createErrorResponse(err)
	}
	return createTaskResponse(task)
}

// handleCancelEdit clears the editing selection
func (s *MCPServer) handleCancelEdit(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	s.manager.CancelEdit()
	return createSuccessResponse("Edit cancelled")
}

// handleUpdateTask commits an edit
func (s *MCPServer) handleUpdateTask(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params UpdateTaskParams
	if err := extractParams(request, &params); err != nil {
		return createErrorResponse(err)
	}
	if params.ID == 0 {
		return createErrorResponse(errors.InvalidInput("task ID is required"))
	}
	if err := validateTitle(params.Title); err != nil {
		return createErrorResponse(err)
	}

	s.logger.Debugf("Handling update_task request for task %d", params.ID)

	edited, err := s.manager.Get(params.ID)
	if err != nil {
		if !errors.IsNotFound(err) {
			return createErrorResponse(err)
		}
		// Update reports the unknown id the way every other mutation does
		edited = model.Task{ID: params.ID, Priority: model.PriorityMedium}
	}
	edited.Title = params.Title
	edited.Description = params.Description
	if params.Priority != "" {
		if edited.Priority, err = parsePriority(params.Priority); err != nil {
			return createErrorResponse(err)
		}
	}
	switch params.Status {
	case "":
	case "completed":
		edited.Completed = true
	case "pending":
		edited.Completed = false
	default:
		return createErrorResponse(errors.InvalidInput(fmt.Sprintf("invalid status: %s", params.Status)))
	}

	task, err := s.manager.Update(ctx, edited)
	if err != nil {
		return createErrorResponse(err)
	}
	return createTaskResponse(task)
}

// handleDeleteTask removes a task
func (s *MCPServer) handleDeleteTask(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	taskID, err := extractTaskIDParam(request)
	if err != nil {
		return createErrorResponse(err)
	}

	s.logger.Debugf("Handling delete_task request for task %d", taskID)

	if err := s.manager.Remove(ctx, taskID); err != nil {
		return createErrorResponse(err)
	}
	return createSuccessResponse(fmt.Sprintf("Task %d removed successfully", taskID))
}

// handleClearTasks removes every task
func (s *MCPServer) handleClearTasks(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	s.logger.Debugf("Handling clear_tasks request")

	if err := s.manager.ClearAll(ctx); err != nil {
		return createErrorResponse(err)
	}
	return createSuccessResponse("All tasks cleared")
}

// handleSetFilter changes the active filter and returns the visible tasks
func (s *MCPServer) handleSetFilter(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params FilterParams
	if err := extractParams(request, &params); err != nil {
		return createErrorResponse(err)
	}
	mode, err := parseFilter(params.Filter)
	if err != nil {
		return createErrorResponse(err)
	}

	s.logger.Debugf("Handling set_filter request with filter %s", mode)

	if err := s.manager.SetFilter(mode); err != nil {
		return createErrorResponse(err)
	}
	return createTasksResponse(s.manager.State().Visible)
}

// handleListNotifications lists the live notifications
func (s *MCPServer) handleListNotifications(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return createJSONResponse(s.manager.Notifications())
}

// handleDismissNotification removes a notification before it expires
func (s *MCPServer) handleDismissNotification(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params NotificationIDParams
	if err := extractParams(request, &params); err != nil {
		return createErrorResponse(err)
	}
	if params.ID == "" {
		return createErrorResponse(errors.InvalidInput("notification ID is required"))
	}

	s.logger.Debugf("Handling dismiss_notification request for %s", params.ID)

	if err := s.manager.DismissNotification(params.ID); err != nil {
		return createErrorResponse(err)
	}
	return createSuccessResponse(fmt.Sprintf("Notification %s dismissed", params.ID))
}

// handleExportTasks renders a view as json, csv or pdf
func (s *MCPServer) handleExportTasks(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ExportTasksParams
	if err := extractParams(request, &params); err != nil {
		return createErrorResponse(err)
	}
	mode, err := parseFilter(params.Filter)
	if err != nil {
		return createErrorResponse(err)
	}
	if export.Binary(params.Format) && params.Path == "" {
		return createErrorResponse(errors.InvalidInput("path is required for pdf export"))
	}

	s.logger.Debugf("Handling export_tasks request (format %q, filter %s)", params.Format, mode)

	out, err := export.Export(s.manager.List(mode), params.Format)
	if err != nil {
		return createErrorResponse(err)
	}
	if params.Path == "" {
		return createTextResponse(string(out))
	}

	path, err := filepath.Abs(params.Path)
	if err != nil {
		return createErrorResponse(errors.InvalidInput(fmt.Sprintf("invalid path: %v", err)))
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return createErrorResponse(errors.Internal(fmt.Errorf("write export: %w", err)))
	}
	return createSuccessResponse(fmt.Sprintf("Exported %d bytes to %s", len(out), path))
}

func parseFilter(s string) (model.FilterMode, error) {
	mode, err := model.ParseFilterMode(s)
	if err != nil {
		return "", errors.InvalidInput(err.Error())
	}
	return mode, nil
}

func parsePriority(s string) (model.Priority, error) {
	p, err := model.ParsePriority(s)
	if err != nil {
		return "", errors.InvalidInput(err.Error())
	}
	return p, nil
}
