// SPDX-License-Identifier: AGPL-3.0-only
package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/jolks/mcp-tasklist/internal/errors"
	"github.com/jolks/mcp-tasklist/internal/model"
	"github.com/jolks/mcp-tasklist/internal/utils"
)

// extractParams extracts parameters from a tool request
func extractParams(request *protocol.CallToolRequest, params interface{}) error {
	if err := utils.JsonUnmarshal(request.RawArguments, params); err != nil {
		return errors.InvalidInput(fmt.Sprintf("invalid parameters: %v", err))
	}
	return nil
}

// extractTaskIDParam extracts the task ID parameter from a request
func extractTaskIDParam(request *protocol.CallToolRequest) (int64, error) {
	var params TaskIDParams
	if err := extractParams(request, &params); err != nil {
		return 0, err
	}

	if params.ID == 0 {
		return 0, errors.InvalidInput("task ID is required")
	}

	return params.ID, nil
}

// createTextResponse wraps text in a tool result
func createTextResponse(text string) (*protocol.CallToolResult, error) {
	return &protocol.CallToolResult{
		Content: []protocol.Content{
			&protocol.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}, nil
}

// createJSONResponse marshals v into a text tool result
func createJSONResponse(v interface{}) (*protocol.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to marshal response: %w", err))
	}
	return createTextResponse(string(b))
}

// createSuccessResponse creates a success response
func createSuccessResponse(message string) (*protocol.CallToolResult, error) {
	return createJSONResponse(map[string]interface{}{
		"success": true,
		"message": message,
	})
}

// createErrorResponse creates an error response
func createErrorResponse(err error) (*protocol.CallToolResult, error) {
	// Always return the original error as the second return value
	// This ensures MCP protocol error handling works correctly
	return nil, err
}

// createTaskResponse creates a response with a single task
func createTaskResponse(task model.Task) (*protocol.CallToolResult, error) {
	return createJSONResponse(task)
}

// createTasksResponse creates a response with multiple tasks
func createTasksResponse(tasks []model.Task) (*protocol.CallToolResult, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	return createJSONResponse(tasks)
}

// validateTitle rejects blank titles before they reach the store
func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.InvalidInput("missing required field: title")
	}
	return nil
}
