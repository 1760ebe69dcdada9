// SPDX-License-Identifier: AGPL-3.0-only
package tasks

import (
	"context"

	"github.com/jolks/mcp-tasklist/internal/model"
)

// Manager is the interface for the task store
type Manager interface {
	Initialize(ctx context.Context) error
	Add(ctx context.Context, title, description string, priority model.Priority) (model.Task, error)
	Toggle(ctx context.Context, id int64) (model.Task, error)
	Update(ctx context.Context, edited model.Task) (model.Task, error)
	Remove(ctx context.Context, id int64) error
	ClearAll(ctx context.Context) error
	List(mode model.FilterMode) []model.Task
	Get(id int64) (model.Task, error)
	BeginEdit(id int64) (model.Task, error)
	CancelEdit()
	Editing() (model.Task, bool)
	SetFilter(mode model.FilterMode) error
	State() State
	Notifications() []model.Notification
	DismissNotification(id string) error
	Start(ctx context.Context)
	Stop() error
}

// Notifier receives the outcome of every mutation
type Notifier interface {
	Push(message string, typ model.NotificationType) model.Notification
	Dismiss(id string) error
	List() []model.Notification
}

// State is everything a presentation layer needs to render
type State struct {
	Tasks         []model.Task         `json:"tasks"`
	Filter        model.FilterMode     `json:"filter"`
	Visible       []model.Task         `json:"visible"`
	Editing       *model.Task          `json:"editing"`
	Notifications []model.Notification `json:"notifications"`
}
