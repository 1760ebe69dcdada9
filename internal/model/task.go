// SPDX-License-Identifier: AGPL-3.0-only
package model

import (
	"fmt"
	"strings"
)

// Priority ranks a task
type Priority string

// Priority constants
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// String returns the string representation of the priority
func (p Priority) String() string {
	return string(p)
}

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority parses a priority name; the empty string means medium
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PriorityMedium, nil
	}
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q: want low, medium or high", s)
	}
	return p, nil
}

// Task is a single to-do record
type Task struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Completed   bool     `json:"completed"`
	Priority    Priority `json:"priority"`
}

// StatusLabel returns "completed" or "pending"
func (t Task) StatusLabel() string {
	if t.Completed {
		return "completed"
	}
	return "pending"
}

// FilterMode selects which tasks a view shows
type FilterMode string

// Filter modes
const (
	FilterAll       FilterMode = "all"
	FilterCompleted FilterMode = "completed"
	FilterPending   FilterMode = "pending"
)

// ParseFilterMode parses a filter name; the empty string means all
func ParseFilterMode(s string) (FilterMode, error) {
	m := FilterMode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case "":
		return FilterAll, nil
	case FilterAll, FilterCompleted, FilterPending:
		return m, nil
	}
	return "", fmt.Errorf("unknown filter %q: want all, completed or pending", s)
}

// Matches reports whether t belongs in a view using mode m
func (m FilterMode) Matches(t Task) bool {
	switch m {
	case FilterCompleted:
		return t.Completed
	case FilterPending:
		return !t.Completed
	default:
		return true
	}
}

// DefaultTasks returns the sample tasks used when no usable snapshot exists
func DefaultTasks() []*Task {
	return []*Task{
		{ID: 1, Title: "Learn React", Description: "Complete React tutorial", Completed: false, Priority: PriorityHigh},
		{ID: 2, Title: "Build CRUD App", Description: "Create a functional CRUD application", Completed: false, Priority: PriorityMedium},
		{ID: 3, Title: "Deploy to Vercel", Description: "Deploy the application to production", Completed: true, Priority: PriorityLow},
	}
}
