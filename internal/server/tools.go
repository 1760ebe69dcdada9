// SPDX-License-Identifier: AGPL-3.0-only
package server

import (
	"context"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/server"
)

// ToolDefinition represents a tool that can be registered with the MCP server
type ToolDefinition struct {
	// Name is the name of the tool
	Name string

	// Description is a brief description of what the tool does
	Description string

	// Handler is the function that will be called when the tool is invoked
	Handler func(context.Context, *protocol.CallToolRequest) (*protocol.CallToolResult, error)

	// Parameters is the parameter schema for the tool (can be a struct)
	Parameters interface{}
}

// toolDefinitions lists every tool the server exposes
func (s *MCPServer) toolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "get_state",
			Description: "Returns all tasks, the active filter, the visible tasks, the task being edited and live notifications",
			Handler:     s.handleGetState,
			Parameters:  EmptyParams{},
		},
		{
			Name:        "list_tasks",
			Description: "Lists tasks, optionally filtered by completion status",
			Handler:     s.handleListTasks,
			Parameters:  ListTasksParams{},
		},
		{
			Name:        "get_task",
			Description: "Gets a task by ID",
			Handler:     s.handleGetTask,
			Parameters:  TaskIDParams{},
		},
		{
			Name:        "create_task",
			Description: "Creates a task",
			Handler:     s.handleCreateTask,
			Parameters:  CreateTaskParams{},
		},
		{
			Name:        "toggle_task",
			Description: "Marks a task completed or pending",
			Handler:     s.handleToggleTask,
			Parameters:  TaskIDParams{},
		},
		{
			Name:        "edit_task",
			Description: "Selects a task for editing",
			Handler:     s.handleEditTask,
			Parameters:  TaskIDParams{},
		},
		{
			Name:        "cancel_edit",
			Description: "Clears the editing selection",
			Handler:     s.handleCancelEdit,
			Parameters:  EmptyParams{},
		},
		{
			Name:        "update_task",
			Description: "Saves an edited task",
			Handler:     s.handleUpdateTask,
			Parameters:  UpdateTaskParams{},
		},
		{
			Name:        "delete_task",
			Description: "Deletes a task",
			Handler:     s.handleDeleteTask,
			Parameters:  TaskIDParams{},
		},
		{
			Name:        "clear_tasks",
			Description: "Deletes every task and the saved snapshot",
			Handler:     s.handleClearTasks,
			Parameters:  EmptyParams{},
		},
		{
			Name:        "set_filter",
			Description: "Sets the active filter and returns the visible tasks",
			Handler:     s.handleSetFilter,
			Parameters:  FilterParams{},
		},
		{
			Name:        "list_notifications",
			Description: "Lists live notifications, oldest first",
			Handler:     s.handleListNotifications,
			Parameters:  EmptyParams{},
		},
		{
			Name:        "dismiss_notification",
			Description: "Dismisses a notification before it expires",
			Handler:     s.handleDismissNotification,
			Parameters:  NotificationIDParams{},
		},
		{
			Name:        "export_tasks",
			Description: "Exports tasks as json, csv or pdf",
			Handler:     s.handleExportTasks,
			Parameters:  ExportTasksParams{},
		},
	}
}

// registerToolsDeclarative sets up all the MCP tools using a more declarative approach
func (s *MCPServer) registerToolsDeclarative() {
	for _, tool := range s.toolDefinitions() {
		registerToolWithError(s.server, tool)
	}
}

// registerToolWithError registers a tool with error handling
func registerToolWithError(srv *server.Server, def ToolDefinition) {
	tool, err := protocol.NewTool(def.Name, def.Description, def.Parameters)
	if err != nil {
		// the parameter structs are static, so this only fails on a programming error
		panic(err)
	}

	srv.RegisterTool(tool, def.Handler)
}
